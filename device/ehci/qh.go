package ehci

import (
	"unsafe"

	"github.com/ardnew/usbd/pkg/vcell"
)

// QH is an endpoint queue head: the per endpoint-direction control block
// the controller reads from the queue head list.
//
// The controller indexes the list with a fixed 64-byte stride, so a QH
// must never grow past 64 bytes, and it is never moved once the list
// address is programmed.
type QH struct {
	capabilities vcell.Cell[uint32] // 0x00
	_            uint32             // 0x04 current dTD pointer, controller use only
	overlay      TD                 // 0x08 transfer the controller is executing
	_            uint32             // 0x24
	setup        vcell.Cell[uint64] // 0x28 last SETUP packet
	_            [4]uint32          // pad to the list stride
}

// qhStride is the distance between queue heads in the list.
const qhStride = 64

var (
	_ = qhStride - unsafe.Sizeof(QH{}) // a QH may not exceed the stride
	_ = [1]struct{}{}[unsafe.Sizeof(QH{})-qhStride]
	_ = [1]struct{}{}[unsafe.Offsetof(QH{}.overlay)-0x08]
	_ = [1]struct{}{}[unsafe.Offsetof(QH{}.setup)-0x28]
)

// MaxPacketLen is the largest maximum packet length a QH can hold.
const MaxPacketLen = 1024

// CAPABILITIES fields.
var (
	qhZLT  = vcell.Bit[uint32](29)         // 1 disables zero length termination
	qhMPL  = vcell.NewField[uint32](16, 11) // maximum packet length
	qhIOS  = vcell.Bit[uint32](15)         // interrupt on setup
	qhMult = vcell.NewField[uint32](30, 2)  // isochronous transactions per frame
)

// Capabilities returns the raw capabilities word.
func (qh *QH) Capabilities() uint32 {
	return qh.capabilities.Read()
}

// SetMaxPacketLen sets the maximum packet length, clamped to [MaxPacketLen].
func (qh *QH) SetMaxPacketLen(n uint32) {
	qh.capabilities.ModifyField(qhMPL, min(n, MaxPacketLen))
}

// MaxPacketLen returns the maximum packet length.
func (qh *QH) MaxPacketLen() uint32 {
	return qh.capabilities.ReadField(qhMPL)
}

// SetZeroLengthTermination enables (true) or disables (false) sending a
// zero length packet after a transfer that is a multiple of the maximum
// packet length. The hardware bit has the opposite sense.
func (qh *QH) SetZeroLengthTermination(zlt bool) {
	qh.capabilities.ModifyField(qhZLT, b2u(!zlt))
}

// ZeroLengthTermination reports whether zero length termination is enabled.
func (qh *QH) ZeroLengthTermination() bool {
	return qh.capabilities.ReadField(qhZLT) == 0
}

// SetInterruptOnSetup enables (true) or disables (false) an immediate
// interrupt when a SETUP packet lands in the setup buffer.
func (qh *QH) SetInterruptOnSetup(ios bool) {
	qh.capabilities.ModifyField(qhIOS, b2u(ios))
}

// InterruptOnSetup reports whether a SETUP packet raises an interrupt.
func (qh *QH) InterruptOnSetup() bool {
	return qh.capabilities.ReadField(qhIOS) != 0
}

// SetMult sets the isochronous transactions per frame (0 for other types).
func (qh *QH) SetMult(mult uint32) {
	qh.capabilities.ModifyField(qhMult, mult)
}

// Setup loads the setup buffer.
//
// The controller may overwrite the buffer at any time. Callers guard the
// read with the setup tripwire and retry when it trips.
func (qh *QH) Setup() uint64 {
	return qh.setup.Read()
}

// SetSetup stores a SETUP packet into the setup buffer, as the controller
// does when one arrives.
func (qh *QH) SetSetup(w uint64) {
	qh.setup.Write(w)
}

// Overlay returns the TD the controller is executing for this endpoint.
func (qh *QH) Overlay() *TD {
	return &qh.overlay
}

// Reset clears the capabilities and the overlay.
func (qh *QH) Reset() {
	qh.capabilities.Write(0)
	qh.overlay.Reset()
	qh.setup.Write(0)
}
