package ehci

import (
	"errors"
	"fmt"

	"github.com/ardnew/usbd/device/hal"
	"github.com/ardnew/usbd/pkg"
	"github.com/ardnew/usbd/pkg/debug"
	"github.com/ardnew/usbd/pkg/vcell"
)

// endpoint owns one queue head, its TD, and its packet buffer.
type endpoint struct {
	addr       hal.EndpointAddress
	typ        hal.EndpointType
	qh         *QH
	td         *TD
	tdAddr     uint32
	buf        []byte
	bufAddr    uint32
	requested  int  // bytes in the transfer last scheduled
	configured bool // armed by Configure since the last reset
}

func newEndpoint(addr hal.EndpointAddress, typ hal.EndpointType, qh *QH, td *TD, tdAddr uint32, buf []byte, bufAddr uint32, zlt bool) *endpoint {
	qh.Reset()
	qh.SetMaxPacketLen(uint32(len(buf)))
	qh.SetZeroLengthTermination(zlt)
	qh.SetInterruptOnSetup(typ == hal.EndpointTypeControl)
	if typ == hal.EndpointTypeIsochronous {
		qh.SetMult(1)
	}
	td.Reset()
	return &endpoint{
		addr:       addr,
		typ:        typ,
		qh:         qh,
		td:         td,
		tdAddr:     tdAddr,
		buf:        buf,
		bufAddr:    bufAddr,
		configured: addr.Number() == 0,
	}
}

func (ep *endpoint) number() uint8 {
	return ep.addr.Number()
}

func (ep *endpoint) maxPacketSize() int {
	return len(ep.buf)
}

// bit returns the endpoint's bit in the ENDPT* bitmaps.
func (ep *endpoint) bit() uint32 {
	return endpointBit(ep.number(), ep.addr.Direction())
}

func endpointBit(n uint8, dir hal.Direction) uint32 {
	if dir == hal.DirectionIn {
		return 1 << (16 + n)
	}
	return 1 << n
}

// isPrimed reports whether the controller still owns the endpoint's TD.
// An endpoint with a flush pending no longer counts.
func (ep *endpoint) isPrimed(r *Registers) bool {
	owned := (r.ENDPTPRIME.Read() | r.ENDPTSTAT.Read()) &^ r.ENDPTFLUSH.Read()
	return owned&ep.bit() != 0
}

// flushSpins bounds the reads of ENDPTFLUSH while waiting for a flush.
const flushSpins = 4096

// waitFlush reads ENDPTFLUSH until the bits in mask clear, calling idle
// between reads. It reports false if they are still set after tries reads.
func waitFlush(r *Registers, mask uint32, tries int, idle func()) bool {
	for i := 0; i < tries; i++ {
		if r.ENDPTFLUSH.Read()&mask == 0 {
			return true
		}
		idle()
	}
	return r.ENDPTFLUSH.Read()&mask == 0
}

// schedule hands a transfer of size bytes from the endpoint buffer to the
// controller. The TD is complete in memory before the overlay points at it,
// and the overlay before the prime bit is set.
func (ep *endpoint) schedule(r *Registers, size int) error {
	if size > ep.maxPacketSize() {
		return fmt.Errorf("%s: %d bytes: %w", ep.addr, size, pkg.ErrBufferOverflow)
	}
	td := ep.td
	td.Reset()
	if err := td.SetBuffer(ep.bufAddr, size); err != nil {
		return err
	}
	td.SetInterruptOnComplete(true)
	td.SetActive()
	ep.requested = size
	vcell.Fence()

	overlay := ep.qh.Overlay()
	overlay.SetNext(ep.tdAddr)
	overlay.SetStatus(0)
	vcell.Fence()

	r.ENDPTPRIME.SetBits(ep.bit())
	return nil
}

// transferred returns the bytes moved by the last retired transfer.
func (ep *endpoint) transferred() int {
	n := ep.requested - ep.td.TotalBytes()
	if n < 0 {
		return 0
	}
	return n
}

func (ep *endpoint) clearComplete(r *Registers) {
	w1c(&r.ENDPTCOMPLETE, ep.bit())
}

func (ep *endpoint) clearNAK(r *Registers) {
	w1c(&r.ENDPTNAK, ep.bit())
}

// enable turns the endpoint on in ENDPTCTRL with its transfer type and
// resets its data toggle. Endpoint 0 is always enabled.
func (ep *endpoint) enable(r *Registers) {
	n := ep.number()
	if n == 0 {
		return
	}
	ctrl := &r.ENDPTCTRL[n]
	v := ctrl.Read()
	if ep.addr.IsIn() {
		v = ENDPTCTRL_TXT.Put(v, uint32(ep.typ)) | ENDPTCTRL_TXE | ENDPTCTRL_TXR
		// an unused half must not be left typed as control
		if v&ENDPTCTRL_RXE == 0 {
			v = ENDPTCTRL_RXT.Put(v, uint32(hal.EndpointTypeBulk))
		}
	} else {
		v = ENDPTCTRL_RXT.Put(v, uint32(ep.typ)) | ENDPTCTRL_RXE | ENDPTCTRL_RXR
		if v&ENDPTCTRL_TXE == 0 {
			v = ENDPTCTRL_TXT.Put(v, uint32(hal.EndpointTypeBulk))
		}
	}
	ctrl.Write(v)
}

// disable clears the endpoint's half of ENDPTCTRL, including its stall.
// When the other half is not enabled either, the placeholder type written
// by enable goes too.
func (ep *endpoint) disable(r *Registers) {
	n := ep.number()
	if n == 0 {
		return
	}
	ctrl := &r.ENDPTCTRL[n]
	v := ctrl.Read()
	if ep.addr.IsIn() {
		v &^= endptCtrlTX
		if v&ENDPTCTRL_RXE == 0 {
			v = 0
		}
	} else {
		v &^= endptCtrlRX
		if v&ENDPTCTRL_TXE == 0 {
			v = 0
		}
	}
	ctrl.Write(v)
}

func (ep *endpoint) stallBit() uint32 {
	if ep.addr.IsIn() {
		return ENDPTCTRL_TXS
	}
	return ENDPTCTRL_RXS
}

// setStalled sets or clears the stall. Clearing it on a data endpoint also
// resets the data toggle to DATA0.
func (ep *endpoint) setStalled(r *Registers, stalled bool) {
	ctrl := &r.ENDPTCTRL[ep.number()]
	if stalled {
		ctrl.SetBits(ep.stallBit())
		return
	}
	v := ctrl.Read() &^ ep.stallBit()
	if ep.number() != 0 {
		if ep.addr.IsIn() {
			v |= ENDPTCTRL_TXR
		} else {
			v |= ENDPTCTRL_RXR
		}
	}
	ctrl.Write(v)
}

func (ep *endpoint) isStalled(r *Registers) bool {
	return r.ENDPTCTRL[ep.number()].HasBits(ep.stallBit())
}

// errorCode classifies a TD error for debug events.
func errorCode(err error) debug.Code {
	switch {
	case errors.Is(err, pkg.ErrTransaction):
		return debug.CodeTransaction
	case errors.Is(err, pkg.ErrDataBuffer):
		return debug.CodeDataBuffer
	case errors.Is(err, pkg.ErrHalted):
		return debug.CodeHalted
	case errors.Is(err, pkg.ErrBufferOverflow), errors.Is(err, pkg.ErrBufferTooSmall):
		return debug.CodeBufferOverflow
	case errors.Is(err, pkg.ErrInvalidState):
		return debug.CodeNotConfigured
	default:
		return debug.CodeNone
	}
}
