//go:build !tinygo

package ehci

import "github.com/ardnew/usbd/pkg/vcell"

// w1c clears mask in a write-one-to-clear register.
//
// Off target the register block is plain memory, so the clear is emulated
// with a read-modify-write; the simulated controller relies on it.
func w1c(c *vcell.Cell[uint32], mask uint32) {
	c.ClearBits(mask)
}
