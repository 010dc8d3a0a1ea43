package ehci

import (
	"fmt"
	"unsafe"

	"github.com/ardnew/usbd/pkg"
	"github.com/ardnew/usbd/pkg/vcell"
)

// TD is a device transfer descriptor (dTD): one DMA transfer of up to
// [MaxTransferSize] bytes.
//
// Software prepares a TD, links it into a queue head and primes the
// endpoint; from then on the controller owns it until it clears the
// active bit. The layout is the controller's, word for word.
type TD struct {
	next    vcell.Cell[uint32]    // 0x00 next dTD pointer, terminate bit
	token   vcell.Cell[uint32]    // 0x04 total bytes, IOC, status
	buffers [5]vcell.Cell[uint32] // 0x08 page pointers; the first carries the offset
}

// The controller reads exactly seven words.
var _ = [1]struct{}{}[unsafe.Sizeof(TD{})-28]

// MaxTransferSize is the most a single TD can move: five 4 KiB pages.
const MaxTransferSize = 5 * pageSize

const pageSize = 0x1000

// NEXT fields.
const (
	tdNextTerminate = 1 << 0
	tdNextPtrMask   = 0xFFFFFFE0
)

// TOKEN fields.
var (
	tdTotalBytes = vcell.NewField[uint32](16, 15)
	tdIOC        = vcell.Bit[uint32](15)
	tdMultO      = vcell.NewField[uint32](10, 2)
	tdStatus     = vcell.NewField[uint32](0, 8)
)

// TDStatus is the status byte of a TD's token.
type TDStatus uint8

// TD status bits.
const (
	TDStatusTransactionError TDStatus = 1 << 3
	TDStatusDataBufferError  TDStatus = 1 << 5
	TDStatusHalted           TDStatus = 1 << 6
	TDStatusActive           TDStatus = 1 << 7

	tdStatusErrors = TDStatusTransactionError | TDStatusDataBufferError | TDStatusHalted
)

// Transfer maps the status byte to a transfer outcome.
func (s TDStatus) Transfer() pkg.TransferStatus {
	switch {
	case s&TDStatusActive != 0:
		return pkg.TransferStatusActive
	case s&TDStatusTransactionError != 0:
		return pkg.TransferStatusTransaction
	case s&TDStatusDataBufferError != 0:
		return pkg.TransferStatusDataBuffer
	case s&TDStatusHalted != 0:
		return pkg.TransferStatusHalted
	default:
		return pkg.TransferStatusSuccess
	}
}

// String lists the set status bits.
func (s TDStatus) String() string {
	if s == 0 {
		return "inactive"
	}
	return fmt.Sprintf("%s(%#02x)", s.Transfer(), uint8(s))
}

// Reset returns the TD to a fresh, inactive, terminated state.
func (td *TD) Reset() {
	td.next.Write(tdNextTerminate)
	td.token.Write(0)
	for i := range td.buffers {
		td.buffers[i].Write(0)
	}
}

// Next returns the next-pointer word.
func (td *TD) Next() uint32 {
	return td.next.Read()
}

// SetNext links the TD to its successor at bus address addr, which must be
// 32-byte aligned.
func (td *TD) SetNext(addr uint32) {
	td.next.Write(addr & tdNextPtrMask)
}

// SetTerminate marks the TD as the last in its chain.
func (td *TD) SetTerminate() {
	td.next.Write(tdNextTerminate)
}

// IsTerminated reports whether the TD has no successor.
func (td *TD) IsTerminated() bool {
	return td.next.HasBits(tdNextTerminate)
}

// SetBuffer points the TD at size bytes starting at bus address addr.
// The page pointers are filled so the transfer may cross page boundaries.
func (td *TD) SetBuffer(addr uint32, size int) error {
	if size < 0 || size > MaxTransferSize-int(addr&(pageSize-1)) {
		return fmt.Errorf("td: %d bytes at %#08x: %w", size, addr, pkg.ErrBufferOverflow)
	}
	td.buffers[0].Write(addr)
	page := addr &^ (pageSize - 1)
	for i := 1; i < len(td.buffers); i++ {
		td.buffers[i].Write(page + uint32(i)*pageSize)
	}
	td.SetTotalBytes(size)
	return nil
}

// Buffer returns page pointer i.
func (td *TD) Buffer(i int) uint32 {
	return td.buffers[i].Read()
}

// TotalBytes returns the bytes left to transfer. The controller counts it
// down as packets move.
func (td *TD) TotalBytes() int {
	return int(td.token.ReadField(tdTotalBytes))
}

// SetTotalBytes sets the bytes to transfer.
func (td *TD) SetTotalBytes(n int) {
	td.token.ModifyField(tdTotalBytes, uint32(n))
}

// SetInterruptOnComplete requests an interrupt when the TD retires.
func (td *TD) SetInterruptOnComplete(ioc bool) {
	td.token.ModifyField(tdIOC, b2u(ioc))
}

// InterruptOnComplete reports whether the TD raises an interrupt when it retires.
func (td *TD) InterruptOnComplete() bool {
	return td.token.ReadField(tdIOC) != 0
}

// SetMultiplier sets the isochronous packets-per-frame multiplier.
func (td *TD) SetMultiplier(mult uint32) {
	td.token.ModifyField(tdMultO, mult)
}

// Status returns the status byte.
func (td *TD) Status() TDStatus {
	return TDStatus(td.token.ReadField(tdStatus))
}

// SetStatus replaces the status byte. Software uses it to activate a TD;
// the controller to retire it.
func (td *TD) SetStatus(s TDStatus) {
	td.token.ModifyField(tdStatus, uint32(s))
}

// SetActive hands the TD to the controller, clearing any old error.
func (td *TD) SetActive() {
	td.SetStatus(TDStatusActive)
}

// IsActive reports whether the controller still owns the TD.
func (td *TD) IsActive() bool {
	return td.Status()&TDStatusActive != 0
}

// Err returns the error recorded by the controller, or nil.
func (td *TD) Err() error {
	s := td.Status()
	if s&tdStatusErrors == 0 {
		return nil
	}
	return s.Transfer().Error()
}

// CopyFrom loads every word of src into td, the way the controller fetches
// a TD into a queue head's overlay.
func (td *TD) CopyFrom(src *TD) {
	td.next.Write(src.next.Read())
	for i := range td.buffers {
		td.buffers[i].Write(src.buffers[i].Read())
	}
	td.token.Write(src.token.Read())
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
