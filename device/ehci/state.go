package ehci

import (
	"unsafe"

	"github.com/ardnew/usbd/device/hal"
)

// numQH is the number of queue heads in the list: every endpoint number in
// both directions.
const numQH = 2 * (hal.MaxEndpointNumber + 1)

// qhListAlign is the alignment ENDPTLISTADDR requires.
const qhListAlign = 2048

// tdAlign is the alignment the controller requires of a standalone TD.
const tdAlign = 32

// tdSlot pads a TD to its required alignment.
type tdSlot struct {
	td TD
	_  uint32
}

var _ = [1]struct{}{}[unsafe.Sizeof(tdSlot{})-tdAlign]

// EndpointState holds the memory the controller reads by DMA: the queue
// head list and one transfer descriptor per queue head.
//
// Both tables are carved out of one allocation so they can be aligned as
// the controller requires. Neither contains Go pointers.
type EndpointState struct {
	raw []byte
	qhs *[numQH]QH
	tds *[numQH]tdSlot
}

// NewEndpointState allocates zeroed, aligned queue head and TD tables.
func NewEndpointState() *EndpointState {
	const size = numQH*unsafe.Sizeof(QH{}) + numQH*unsafe.Sizeof(tdSlot{})
	raw := make([]byte, size+qhListAlign)
	base := uintptr(unsafe.Pointer(&raw[0]))
	off := (qhListAlign - base%qhListAlign) % qhListAlign

	s := &EndpointState{raw: raw}
	s.qhs = (*[numQH]QH)(unsafe.Pointer(&raw[off]))
	s.tds = (*[numQH]tdSlot)(unsafe.Pointer(&raw[off+numQH*unsafe.Sizeof(QH{})]))
	return s
}

// QH returns queue head i of the list.
func (s *EndpointState) QH(i int) *QH {
	return &s.qhs[i]
}

// TD returns the transfer descriptor paired with queue head i.
func (s *EndpointState) TD(i int) *TD {
	return &s.tds[i].td
}

// ListAddr returns the bus address of the queue head list.
func (s *EndpointState) ListAddr() uint32 {
	return busAddr(unsafe.Pointer(s.qhs))
}

// TDAddr returns the bus address of TD i.
func (s *EndpointState) TDAddr(i int) uint32 {
	return busAddr(unsafe.Pointer(&s.tds[i]))
}

// reset clears every queue head and TD.
func (s *EndpointState) reset() {
	for i := range s.qhs {
		s.qhs[i].Reset()
		s.tds[i].td.Reset()
	}
}

// qhIndex maps an endpoint address to its queue head: OUT endpoints at
// even indexes, IN endpoints at odd ones.
func qhIndex(addr hal.EndpointAddress) int {
	i := 2 * int(addr.Number())
	if addr.IsIn() {
		i++
	}
	return i
}

// busAddr returns the address the DMA engine uses for p. The target's
// address space is 32 bits wide; off target the value is only an identity.
func busAddr(p unsafe.Pointer) uint32 {
	return uint32(uintptr(p))
}
