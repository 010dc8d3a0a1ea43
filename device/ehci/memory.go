package ehci

import (
	"fmt"
	"unsafe"

	"github.com/ardnew/usbd/pkg"
)

// bufferAlign keeps endpoint buffers word aligned for the DMA engine.
const bufferAlign = 4

// Memory is the arena endpoint buffers are allocated from.
//
// Each allocated endpoint receives a buffer of its maximum packet size.
// Buffers live as long as the Memory; there is no free.
type Memory struct {
	raw  []byte
	base uint32
	used int
}

// NewMemory allocates an arena of size bytes.
func NewMemory(size int) *Memory {
	return MemoryFrom(make([]byte, size))
}

// MemoryFrom uses buf, typically a statically allocated array, as the
// arena. The caller must not touch buf afterwards.
func MemoryFrom(buf []byte) *Memory {
	m := &Memory{raw: buf}
	if len(buf) > 0 {
		m.base = busAddr(unsafe.Pointer(&buf[0]))
	}
	return m
}

// Size returns the arena size in bytes.
func (m *Memory) Size() int {
	return len(m.raw)
}

// Used returns the bytes handed out so far.
func (m *Memory) Used() int {
	return m.used
}

// alloc carves n bytes from the arena and returns them with their bus
// address.
func (m *Memory) alloc(n int) ([]byte, uint32, error) {
	start := (m.used + bufferAlign - 1) &^ (bufferAlign - 1)
	if n < 0 || start+n > len(m.raw) {
		return nil, 0, fmt.Errorf("%d of %d bytes used, need %d: %w",
			m.used, len(m.raw), n, pkg.ErrEndpointMemoryOverflow)
	}
	m.used = start + n
	return m.raw[start : start+n : start+n], m.base + uint32(start), nil
}

// Resolve returns the n bytes at bus address addr, as the DMA engine sees
// them. It reports false if the range lies outside the arena.
func (m *Memory) Resolve(addr uint32, n int) ([]byte, bool) {
	off := addr - m.base
	if n < 0 || uint64(off)+uint64(n) > uint64(len(m.raw)) {
		return nil, false
	}
	start := int(off)
	return m.raw[start : start+n], true
}
