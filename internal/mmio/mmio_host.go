//go:build !tinygo

package mmio

import (
	"sync"
	"sync/atomic"
)

// Bus receives every register access made on a host build.
// Implementations must be safe for use from several goroutines.
type Bus interface {
	Load(addr uintptr, width uint8) uint32
	Store(addr uintptr, width uint8, v uint32)

	// ReadCSR, SetCSRBits and ClearCSRBits model the csrr, csrrs and csrrc
	// instructions. The bit operations return the previous value.
	ReadCSR(csr uint16) uint32
	SetCSRBits(csr uint16, mask uint32) uint32
	ClearCSRBits(csr uint16, mask uint32) uint32
}

var (
	busMu sync.RWMutex
	bus   Bus

	trapHandler atomic.Pointer[func()]
)

// Attach installs b as the bus for all subsequent accesses and returns a
// function restoring the previous bus.
func Attach(b Bus) (detach func()) {
	busMu.Lock()
	prev := bus
	bus = b
	busMu.Unlock()
	return func() {
		busMu.Lock()
		bus = prev
		busMu.Unlock()
	}
}

func current() Bus {
	busMu.RLock()
	b := bus
	busMu.RUnlock()
	if b == nil {
		panic("mmio: no bus attached")
	}
	return b
}

func Load8(addr uintptr) uint8   { return uint8(current().Load(addr, Width8)) }
func Load16(addr uintptr) uint16 { return uint16(current().Load(addr, Width16)) }
func Load32(addr uintptr) uint32 { return current().Load(addr, Width32) }

func Store8(addr uintptr, v uint8)   { current().Store(addr, Width8, uint32(v)) }
func Store16(addr uintptr, v uint16) { current().Store(addr, Width16, uint32(v)) }
func Store32(addr uintptr, v uint32) { current().Store(addr, Width32, v) }

func ReadCSR(csr uint16) uint32                   { return current().ReadCSR(csr) }
func SetCSRBits(csr uint16, mask uint32) uint32   { return current().SetCSRBits(csr, mask) }
func ClearCSRBits(csr uint16, mask uint32) uint32 { return current().ClearCSRBits(csr, mask) }

// SetTrapHandler records the function a Bus calls when it takes a machine
// external interrupt. A nil handler discards the trap.
func SetTrapHandler(f func()) {
	if f == nil {
		trapHandler.Store(nil)
		return
	}
	trapHandler.Store(&f)
}

// TrapHandler returns the handler installed by SetTrapHandler, or nil.
func TrapHandler() func() {
	if p := trapHandler.Load(); p != nil {
		return *p
	}
	return nil
}
