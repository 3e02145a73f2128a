//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Load8 reads one byte from a memory-mapped address
func Load8(addr uintptr) uint8 {
	return (*volatile.Register8)(unsafe.Pointer(addr)).Get()
}

// Load16 reads one half-word from a memory-mapped address
func Load16(addr uintptr) uint16 {
	return (*volatile.Register16)(unsafe.Pointer(addr)).Get()
}

// Load32 reads one word from a memory-mapped address
func Load32(addr uintptr) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(addr)).Get()
}

// Store8 writes one byte to a memory-mapped address
func Store8(addr uintptr, v uint8) {
	(*volatile.Register8)(unsafe.Pointer(addr)).Set(v)
}

// Store16 writes one half-word to a memory-mapped address
func Store16(addr uintptr, v uint16) {
	(*volatile.Register16)(unsafe.Pointer(addr)).Set(v)
}

// Store32 writes one word to a memory-mapped address
func Store32(addr uintptr, v uint32) {
	(*volatile.Register32)(unsafe.Pointer(addr)).Set(v)
}
