package vcell

import (
	"sync/atomic"
	"unsafe"
)

// Word is the set of memory word types a [Cell] can wrap.
type Word interface {
	~uint32 | ~uint64
}

// Cell is a memory word shared with hardware.
//
// Every Read and Write is exactly one load or store that the compiler may
// neither elide, cache, nor reorder with other Cell accesses. Cell does not
// make compound operations atomic: Modify is a separate load and store, so a
// word must have a single software owner at a time.
//
// The zero value is a word holding zero. A Cell must not be copied after
// first use; hardware holds its address.
type Cell[T Word] struct {
	_ noCopy
	v T
}

// Read loads the current contents of the word.
func (c *Cell[T]) Read() T {
	if unsafe.Sizeof(c.v) == 4 {
		return T(atomic.LoadUint32((*uint32)(unsafe.Pointer(&c.v))))
	}
	return T(atomic.LoadUint64((*uint64)(unsafe.Pointer(&c.v))))
}

// Write stores v into the word.
func (c *Cell[T]) Write(v T) {
	if unsafe.Sizeof(c.v) == 4 {
		atomic.StoreUint32((*uint32)(unsafe.Pointer(&c.v)), uint32(v))
		return
	}
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&c.v)), uint64(v))
}

// Modify replaces the bits selected by mask with the corresponding bits of
// value. The load and store are not atomic as a pair.
func (c *Cell[T]) Modify(mask, value T) {
	c.Write(c.Read()&^mask | value&mask)
}

// SetBits sets the bits in mask.
func (c *Cell[T]) SetBits(mask T) {
	c.Write(c.Read() | mask)
}

// ClearBits clears the bits in mask.
func (c *Cell[T]) ClearBits(mask T) {
	c.Write(c.Read() &^ mask)
}

// HasBits reports whether any bit in mask is set.
func (c *Cell[T]) HasBits(mask T) bool {
	return c.Read()&mask != 0
}

// ReadField returns the value of field f.
func (c *Cell[T]) ReadField(f Field[T]) T {
	return f.Get(c.Read())
}

// ModifyField stores v into field f, leaving every other bit unchanged.
// Values wider than the field are truncated to it.
func (c *Cell[T]) ModifyField(f Field[T], v T) {
	c.Write(f.Put(c.Read(), v))
}

// Addr returns the address of the word for handing to hardware.
func (c *Cell[T]) Addr() unsafe.Pointer {
	return unsafe.Pointer(&c.v)
}

var fence atomic.Uint32

// Fence orders every preceding memory access before every following one.
//
// Call it between preparing a descriptor and the store that hands the
// descriptor to hardware.
func Fence() {
	fence.Add(0)
}

// noCopy lets go vet flag copies of a Cell.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
