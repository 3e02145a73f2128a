package pac

import (
	"unsafe"

	"cherry/internal/mmio"
)

// Word is the set of register widths the bus supports.
type Word interface {
	~uint8 | ~uint16 | ~uint32
}

// reg is the shared accessor behind every register kind.
type reg[T Word] struct {
	addr uintptr
}

func (r reg[T]) load() T {
	var zero T
	switch unsafe.Sizeof(zero) {
	case 1:
		return T(mmio.Load8(r.addr))
	case 2:
		return T(mmio.Load16(r.addr))
	default:
		return T(mmio.Load32(r.addr))
	}
}

func (r reg[T]) store(v T) {
	switch unsafe.Sizeof(v) {
	case 1:
		mmio.Store8(r.addr, uint8(v))
	case 2:
		mmio.Store16(r.addr, uint16(v))
	default:
		mmio.Store32(r.addr, uint32(v))
	}
}

// Addr returns the bus address of the register.
func (r reg[T]) Addr() uintptr { return r.addr }

type roReg[T Word] struct{ reg[T] }

// Read performs one volatile load.
func (r roReg[T]) Read() T { return r.load() }

type woReg[T Word] struct{ reg[T] }

// Write performs one volatile store.
func (r woReg[T]) Write(v T) { r.store(v) }

type rwReg[T Word] struct{ reg[T] }

// Read performs one volatile load.
func (r rwReg[T]) Read() T { return r.load() }

// Write performs one volatile store.
func (r rwReg[T]) Write(v T) { r.store(v) }

// Modify reads the register, applies f and writes the result back.
// The read and the write are separate bus accesses: an interrupt between
// them that writes the same register loses its update unless the caller
// holds a critical section.
func (r rwReg[T]) Modify(f func(T) T) { r.store(f(r.load())) }

// SetBits sets the bits in mask with a read-modify-write.
func (r rwReg[T]) SetBits(mask T) { r.store(r.load() | mask) }

// ClearBits clears the bits in mask with a read-modify-write.
func (r rwReg[T]) ClearBits(mask T) { r.store(r.load() &^ mask) }

// HasBits reports whether all bits in mask are set.
func (r rwReg[T]) HasBits(mask T) bool { return r.load()&mask == mask }

// RO is a read-only register owned by a peripheral block.
// Only this package constructs RO values, so a well-typed program holds at
// most one per address: the one inside the block returned by Take.
type RO[T Word] struct{ roReg[T] }

// WO is a write-only register owned by a peripheral block.
type WO[T Word] struct{ woReg[T] }

// RW is a read-write register owned by a peripheral block.
type RW[T Word] struct{ rwReg[T] }

func newRO[T Word](addr uintptr) RO[T] { return RO[T]{roReg[T]{reg[T]{addr}}} }
func newWO[T Word](addr uintptr) WO[T] { return WO[T]{woReg[T]{reg[T]{addr}}} }
func newRW[T Word](addr uintptr) RW[T] { return RW[T]{rwReg[T]{reg[T]{addr}}} }

// UnsafeRO is a read-only register built without an ownership proof.
type UnsafeRO[T Word] struct{ roReg[T] }

// UnsafeWO is a write-only register built without an ownership proof.
type UnsafeWO[T Word] struct{ woReg[T] }

// UnsafeRW is a read-write register built without an ownership proof.
type UnsafeRW[T Word] struct{ rwReg[T] }

// NewUnsafeRO returns a read-only accessor for addr.
//
// The caller must guarantee that no other live accessor mutates state this
// read depends on; nothing checks it. Meant for interrupt handlers that
// cannot be handed the owning block.
func NewUnsafeRO[T Word](addr uintptr) UnsafeRO[T] {
	return UnsafeRO[T]{roReg[T]{reg[T]{addr}}}
}

// NewUnsafeWO returns a write-only accessor for addr. See NewUnsafeRO.
func NewUnsafeWO[T Word](addr uintptr) UnsafeWO[T] {
	return UnsafeWO[T]{woReg[T]{reg[T]{addr}}}
}

// NewUnsafeRW returns a read-write accessor for addr. See NewUnsafeRO.
func NewUnsafeRW[T Word](addr uintptr) UnsafeRW[T] {
	return UnsafeRW[T]{rwReg[T]{reg[T]{addr}}}
}
