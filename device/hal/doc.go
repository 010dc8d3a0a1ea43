// Package hal defines the contract between USB device controller drivers
// and the device stack that consumes them.
//
// The contract is poll driven. A device stack owns a [Bus], calls
// [Bus.Poll] from its main loop, and turns the returned [PollResult] into
// protocol actions: it reads SETUP packets, answers control transfers,
// assigns the address, and moves data on the configured endpoints.
//
// # Design Principles
//
//   - Minimal: only operations a controller must provide
//   - Non-blocking: busy endpoints report ErrWouldBlock instead of waiting
//   - Allocation free: callers supply every buffer
//
// # Endpoint Handles
//
// Endpoints are identified by [EndpointAddress], the endpoint number with the
// direction in bit 7, as it appears in descriptors:
//
//	ep, err := bus.AllocEP(hal.DirectionIn, hal.EndpointTypeBulk, 64)
//	if err != nil {
//	    // no free IN endpoint or no buffer memory left
//	}
//
// # SETUP Packets
//
// [SetupPacket] decodes the 8-byte request that starts a control transfer.
// Controllers that capture the packet as one 64-bit word use
// [SetupPacketFromWord].
//
// A controller driver for the EHCI-style device core is available in
// [github.com/ardnew/usbd/device/ehci].
package hal
