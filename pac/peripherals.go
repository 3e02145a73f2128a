// Package pac is the peripheral access layer for the cherry microcontroller.
//
// Every peripheral block exists at most once: Take hands it out the first
// time and reports it unavailable afterwards. Interrupt handlers, which have
// no way to receive a value from main, use the Conjure functions instead and
// take over the exclusivity argument themselves; see package riscv for the
// critical section that makes that argument checkable.
package pac

import (
	"sync/atomic"

	"cherry/debug"
)

// claimed holds one bit per block id. A bit is set by the first take of
// its block and never cleared.
var claimed atomic.Uint32

const allBlocks = 1<<BlockGPIOA | 1<<BlockUART1 | 1<<BlockTIMER1

// claim sets every bit in mask in one step, or none when any of them is
// already set.
func claim(mask uint32) bool {
	for {
		old := claimed.Load()
		if old&mask != 0 {
			return false
		}
		if claimed.CompareAndSwap(old, old|mask) {
			return true
		}
	}
}

func take[T any](id uint32, build func() *T) (*T, bool) {
	if !claim(1 << id) {
		debug.Record(debug.EvtTakeFailed, id, 0)
		return nil, false
	}
	debug.Record(debug.EvtTake, id, 0)
	return build(), true
}

func conjure[T any](id uint32, build func() *T) *T {
	debug.Record(debug.EvtConjure, id, 0)
	return build()
}

// TakeGPIOA returns port A the first time it is called and (nil, false)
// on every later call.
func TakeGPIOA() (*GPIOA, bool) { return take(BlockGPIOA, newGPIOA) }

// TakeUART1 returns UART1 the first time it is called and (nil, false)
// on every later call.
func TakeUART1() (*UART1, bool) { return take(BlockUART1, newUART1) }

// TakeTIMER1 returns TIMER1 the first time it is called and (nil, false)
// on every later call.
func TakeTIMER1() (*TIMER1, bool) { return take(BlockTIMER1, newTIMER1) }

// ConjureGPIOA returns port A built from unsafe registers, without touching
// the ownership bit.
//
// This is unsafe in the sense that matters here: the caller promises that
// nothing else is concurrently mutating the registers it uses, typically by
// running inside an interrupt handler while main only touches them under
// riscv.Free.
func ConjureGPIOA() *UnsafeGPIOA { return conjure(BlockGPIOA, newUnsafeGPIOA) }

// ConjureUART1 returns UART1 built from unsafe registers.
// See ConjureGPIOA.
func ConjureUART1() *UnsafeUART1 { return conjure(BlockUART1, newUnsafeUART1) }

// ConjureTIMER1 returns TIMER1 built from unsafe registers.
// See ConjureGPIOA.
func ConjureTIMER1() *UnsafeTIMER1 { return conjure(BlockTIMER1, newUnsafeTIMER1) }

// Peripherals holds every block on the chip.
type Peripherals struct {
	GPIOA  *GPIOA
	UART1  *UART1
	TIMER1 *TIMER1
}

// Take claims every peripheral block at once. It succeeds only when none
// has been taken yet; on failure no block changes hands.
func Take() (*Peripherals, bool) {
	if !claim(allBlocks) {
		debug.Record(debug.EvtTakeFailed, 0, claimed.Load()&allBlocks)
		return nil, false
	}
	debug.Record(debug.EvtTake, 0, 0)
	return &Peripherals{
		GPIOA:  newGPIOA(),
		UART1:  newUART1(),
		TIMER1: newTIMER1(),
	}, true
}
