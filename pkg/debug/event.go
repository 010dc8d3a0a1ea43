package debug

import (
	"fmt"

	"github.com/ardnew/usbd/device/hal"
)

// Kind tags a debug [Event].
type Kind uint8

// Event kinds.
const (
	KindNone          Kind = iota
	KindEpIn                // IN transfer armed; Len bytes
	KindEpOut               // OUT data read from endpoint Index
	KindEp0OutSetup         // SETUP packet read from endpoint 0
	KindEpError             // endpoint Index/Dir failed with Code
	KindReset               // bus reset handled
	KindConfigure           // non-control endpoints armed
	KindAllocEp             // endpoint Index/Dir/Type allocated
	KindSetAddress          // Address staged
	KindAddressActive       // staged Address latched after the status stage
	KindPoll                // raw USBSTS in Status
	KindPollSLI             // suspend
	KindPollURI             // bus reset
	KindPollPCI             // port change
	KindPollUI              // endpoint activity bitmaps
	KindPollNone            // nothing to report
	KindAnomaly             // ignored inconsistency described by Code
)

var kindNames = [...]string{
	KindNone:          "None",
	KindEpIn:          "EpIn",
	KindEpOut:         "EpOut",
	KindEp0OutSetup:   "Ep0OutSetup",
	KindEpError:       "EpError",
	KindReset:         "Reset",
	KindConfigure:     "Configure",
	KindAllocEp:       "AllocEp",
	KindSetAddress:    "SetAddress",
	KindAddressActive: "AddressActive",
	KindPoll:          "Poll",
	KindPollSLI:       "PollSLI",
	KindPollURI:       "PollURI",
	KindPollPCI:       "PollPCI",
	KindPollUI:        "PollUI",
	KindPollNone:      "PollNone",
	KindAnomaly:       "Anomaly",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds returns every event kind, in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		kinds = append(kinds, Kind(k))
	}
	return kinds
}

// Code classifies endpoint errors and anomalies.
type Code uint8

// Error codes.
const (
	CodeNone          Code = iota
	CodeHalted             // TD halted
	CodeDataBuffer         // TD data buffer error
	CodeTransaction        // TD transaction error
	CodeUnallocated        // completion for an endpoint with no owner
	CodeSetupTorn          // setup tripwire never held
	CodeNotConfigured      // traffic for an unconfigured endpoint
	CodeBufferOverflow     // transfer longer than the endpoint buffer
	CodeFlushTimeout       // ENDPTFLUSH still set after the wait
)

var codeNames = [...]string{
	CodeNone:           "none",
	CodeHalted:         "halted",
	CodeDataBuffer:     "data-buffer",
	CodeTransaction:    "transaction",
	CodeUnallocated:    "unallocated",
	CodeSetupTorn:      "setup-torn",
	CodeNotConfigured:  "not-configured",
	CodeBufferOverflow: "buffer-overflow",
	CodeFlushTimeout:   "flush-timeout",
}

// String returns the code name.
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// Event is one recorded driver transition. Which fields are meaningful
// depends on Kind.
type Event struct {
	Kind    Kind
	Index   uint8
	Dir     hal.Direction
	Type    hal.EndpointType
	Code    Code
	Address uint8
	Len     uint32
	Status  uint32

	EPOut        uint16
	EPInComplete uint16
	EPSetup      uint16
}

// String formats the event for reports.
func (e Event) String() string {
	switch e.Kind {
	case KindEpIn:
		return fmt.Sprintf("EpIn{len: %d}", e.Len)
	case KindEpOut:
		return fmt.Sprintf("EpOut{index: %d}", e.Index)
	case KindEpError:
		return fmt.Sprintf("EpError{index: %d, direction: %s, status: %s}", e.Index, e.Dir, e.Code)
	case KindAllocEp:
		return fmt.Sprintf("AllocEp(%d, %s, %s)", e.Index, e.Dir, e.Type)
	case KindSetAddress, KindAddressActive:
		return fmt.Sprintf("%s(%d)", e.Kind, e.Address)
	case KindPoll:
		return fmt.Sprintf("Poll(%#08x)", e.Status)
	case KindPollUI:
		return fmt.Sprintf("PollUI{ep_out: %#04x, ep_in_complete: %#04x, ep_setup: %#04x}",
			e.EPOut, e.EPInComplete, e.EPSetup)
	case KindAnomaly:
		return fmt.Sprintf("Anomaly{index: %d, direction: %s, code: %s}", e.Index, e.Dir, e.Code)
	default:
		return e.Kind.String()
	}
}

// EpIn describes an IN transfer of n bytes.
func EpIn(n int) Event { return Event{Kind: KindEpIn, Len: uint32(n)} }

// EpOut describes OUT data read from endpoint index.
func EpOut(index uint8) Event { return Event{Kind: KindEpOut, Index: index} }

// Ep0OutSetup describes a SETUP packet read from endpoint 0.
func Ep0OutSetup() Event { return Event{Kind: KindEp0OutSetup} }

// EpError describes a failed transfer.
func EpError(index uint8, dir hal.Direction, code Code) Event {
	return Event{Kind: KindEpError, Index: index, Dir: dir, Code: code}
}

// Reset describes a handled bus reset.
func Reset() Event { return Event{Kind: KindReset} }

// Configure describes arming the configured endpoints.
func Configure() Event { return Event{Kind: KindConfigure} }

// AllocEp describes an endpoint allocation.
func AllocEp(index uint8, dir hal.Direction, typ hal.EndpointType) Event {
	return Event{Kind: KindAllocEp, Index: index, Dir: dir, Type: typ}
}

// SetAddress describes a staged device address.
func SetAddress(addr uint8) Event { return Event{Kind: KindSetAddress, Address: addr} }

// AddressActive describes a device address taking effect.
func AddressActive(addr uint8) Event { return Event{Kind: KindAddressActive, Address: addr} }

// Poll carries the raw status register seen by a poll.
func Poll(status uint32) Event { return Event{Kind: KindPoll, Status: status} }

// PollSLI describes a suspend interrupt.
func PollSLI() Event { return Event{Kind: KindPollSLI} }

// PollURI describes a bus reset interrupt.
func PollURI() Event { return Event{Kind: KindPollURI} }

// PollPCI describes a port change interrupt.
func PollPCI() Event { return Event{Kind: KindPollPCI} }

// PollUI carries the endpoint bitmaps of a USB interrupt.
func PollUI(epOut, epInComplete, epSetup uint16) Event {
	return Event{Kind: KindPollUI, EPOut: epOut, EPInComplete: epInComplete, EPSetup: epSetup}
}

// PollNone describes an idle poll.
func PollNone() Event { return Event{Kind: KindPollNone} }

// Anomaly describes an inconsistency the driver ignored.
func Anomaly(index uint8, dir hal.Direction, code Code) Event {
	return Event{Kind: KindAnomaly, Index: index, Dir: dir, Code: code}
}
