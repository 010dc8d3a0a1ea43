// Package vcell provides volatile access to memory shared with hardware.
//
// A [Cell] wraps one hardware-visible word: a controller register or a field
// of a DMA descriptor. Its loads and stores go through [sync/atomic], which
// the compiler never elides or reorders, and which also orders them against
// each other on weakly ordered CPUs.
//
// A [Field] names a bit range (offset and mask) inside such a word, so packed
// registers are manipulated by name:
//
//	var maxPacketLen = vcell.NewField[uint32](16, 11)
//
//	caps.ModifyField(maxPacketLen, 64)
//	n := caps.ReadField(maxPacketLen)
//
// Read-modify-write through a Cell is not atomic. Each shared word needs a
// single software owner at a time; handing a descriptor to hardware is done by
// writing its fields, calling [Fence], then storing the word that starts the
// transfer.
package vcell
