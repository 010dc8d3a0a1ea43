//go:build tinygo

package ehci

import "github.com/ardnew/usbd/pkg/vcell"

// w1c clears mask in a write-one-to-clear register. Zero bits in the
// written value leave their status bits untouched.
func w1c(c *vcell.Cell[uint32], mask uint32) {
	c.Write(mask)
}
