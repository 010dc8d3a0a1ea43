//go:build tinygo

package ehci

import "unsafe"

// Peripheral base addresses of the two USB cores.
const (
	USB1Base uintptr = 0x402E0000
	USB2Base uintptr = 0x402E0200
)

// USB1 takes ownership of the first USB core. It panics if the core was
// already taken.
func USB1() *Instance {
	return MustTake(1, (*Registers)(unsafe.Pointer(USB1Base)))
}

// USB2 takes ownership of the second USB core. It panics if the core was
// already taken.
func USB2() *Instance {
	return MustTake(2, (*Registers)(unsafe.Pointer(USB2Base)))
}
