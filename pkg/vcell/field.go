package vcell

// Field names a contiguous bit range within a register word.
type Field[T Word] struct {
	Offset uint // position of the least significant bit
	Mask   T    // mask already shifted into position
}

// NewField returns the field of width bits starting at offset.
func NewField[T Word](offset, width uint) Field[T] {
	return Field[T]{Offset: offset, Mask: (T(1)<<width - 1) << offset}
}

// Bit returns the single-bit field at offset.
func Bit[T Word](offset uint) Field[T] {
	return NewField[T](offset, 1)
}

// Get extracts the field from word.
func (f Field[T]) Get(word T) T {
	return (word & f.Mask) >> f.Offset
}

// Put returns word with the field replaced by v.
func (f Field[T]) Put(word, v T) T {
	return word&^f.Mask | f.Value(v)
}

// Value returns v shifted and masked into the field's position.
func (f Field[T]) Value(v T) T {
	return v << f.Offset & f.Mask
}

// Max returns the largest value the field can hold.
func (f Field[T]) Max() T {
	return f.Mask >> f.Offset
}
