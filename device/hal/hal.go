package hal

import "fmt"

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// Direction is the data direction of an endpoint, as seen from the host.
type Direction uint8

// Endpoint directions.
const (
	DirectionOut Direction = 0x00 // Host to device
	DirectionIn  Direction = 0x80 // Device to host
)

// String returns "IN" or "OUT".
func (d Direction) String() string {
	if d == DirectionIn {
		return "IN"
	}
	return "OUT"
}

// EndpointType is the transfer type of an endpoint (USB 2.0 Spec Table 9-13).
type EndpointType uint8

// Endpoint transfer types.
const (
	EndpointTypeControl     EndpointType = 0x00
	EndpointTypeIsochronous EndpointType = 0x01
	EndpointTypeBulk        EndpointType = 0x02
	EndpointTypeInterrupt   EndpointType = 0x03
)

// String returns a human-readable transfer type name.
func (t EndpointType) String() string {
	switch t {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	case EndpointTypeInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// MaxEndpointNumber is the largest endpoint number USB can address.
const MaxEndpointNumber = 15

// EndpointAddress is an endpoint number combined with its direction bit.
// It is the opaque handle returned by [Bus.AllocEP].
type EndpointAddress uint8

// NewEndpointAddress returns the address of endpoint number in direction dir.
func NewEndpointAddress(number uint8, dir Direction) EndpointAddress {
	return EndpointAddress(number&0x0F) | EndpointAddress(dir)
}

// Number returns the endpoint number (0-15).
func (a EndpointAddress) Number() uint8 {
	return uint8(a) & 0x0F
}

// Direction returns the endpoint direction.
func (a EndpointAddress) Direction() Direction {
	return Direction(uint8(a) & 0x80)
}

// IsIn returns true if this is an IN endpoint (device to host).
func (a EndpointAddress) IsIn() bool {
	return a.Direction() == DirectionIn
}

// String returns a representation like "EP1 IN".
func (a EndpointAddress) String() string {
	return fmt.Sprintf("EP%d %s", a.Number(), a.Direction())
}

// PollEvent identifies what a call to [Bus.Poll] observed.
type PollEvent uint8

// Poll events.
const (
	PollNone    PollEvent = iota // Nothing happened
	PollReset                    // Bus reset; the device is back in the Default state
	PollData                     // Endpoint activity; see the PollResult bitmaps
	PollSuspend                  // Bus suspended
	PollResume                   // Bus resumed from suspend
)

// String returns the event name.
func (e PollEvent) String() string {
	switch e {
	case PollNone:
		return "none"
	case PollReset:
		return "reset"
	case PollData:
		return "data"
	case PollSuspend:
		return "suspend"
	case PollResume:
		return "resume"
	default:
		return "unknown"
	}
}

// PollResult is the outcome of one [Bus.Poll].
//
// For PollData, bit n of each bitmap refers to endpoint number n.
type PollResult struct {
	Event        PollEvent
	EPOut        uint16 // OUT endpoints holding received data
	EPInComplete uint16 // IN endpoints whose transfer completed
	EPSetup      uint16 // Control endpoints holding a SETUP packet
}

// Bus is the contract between a USB device controller driver and the
// device stack that drives it.
//
// The stack calls Poll from its main loop and reacts to the returned
// events: it reads SETUP packets and OUT data, writes IN data, stalls
// endpoints, and assigns the address and configuration. No method blocks;
// operations that cannot complete yet return [pkg.ErrWouldBlock].
//
// Implementations are not safe for concurrent use. The stack serializes
// every call.
type Bus interface {
	// AllocEP allocates the first free endpoint in direction dir.
	// Control endpoints are allocated at endpoint 0.
	AllocEP(dir Direction, typ EndpointType, maxPacketSize uint16) (EndpointAddress, error)

	// AllocEPAt allocates the endpoint at a specific address.
	AllocEPAt(addr EndpointAddress, typ EndpointType, maxPacketSize uint16) (EndpointAddress, error)

	// Enable attaches the device to the bus after all endpoints are allocated.
	Enable()

	// Reset returns the controller to the Default state after a bus reset.
	Reset()

	// SetAddress assigns the device address. It takes effect only after the
	// status stage of the SET_ADDRESS request completes.
	SetAddress(addr uint8)

	// Configure enables and arms every allocated non-control endpoint.
	Configure()

	// Poll reads the controller status once and reports what happened.
	Poll() PollResult

	// Write queues data for transmission on an IN endpoint.
	Write(ep EndpointAddress, data []byte) (int, error)

	// Read copies a received packet, or a SETUP packet, into buf.
	Read(ep EndpointAddress, buf []byte) (int, error)

	// SetStalled sets or clears the stall condition of an endpoint.
	SetStalled(ep EndpointAddress, stalled bool)

	// IsStalled reports whether an endpoint is stalled.
	IsStalled(ep EndpointAddress) bool

	// Suspend enters the low-power suspend state.
	Suspend()

	// Resume leaves the suspend state.
	Resume()
}
