// Package debug carries diagnostic output for cherry firmware.
//
// The output sink is installed by the application (a UART, semihosting, or
// stdout on host builds) so the HAL itself never assumes one exists.
package debug

import (
	"strconv"
	"sync/atomic"
)

// Writer is a function type for writing debug lines
type Writer func(string)

// Event records one HAL-level occurrence for post-mortem analysis
type Event struct {
	Kind uint8  // Event kind (Evt*)
	A    uint32 // Kind-dependent value
	B    uint32 // Kind-dependent value, low 24 bits kept
}

// Event kinds
const (
	EvtTake        = 1 // peripheral block taken, A = block id
	EvtTakeFailed  = 2 // take on an already-taken block, A = block id
	EvtConjure     = 3 // block conjured, A = block id
	EvtPinMode     = 4 // pin mode change, A = pin, B = mode
	EvtSerialFault = 5 // UART error flags, A = status bits
	EvtDelay       = 6 // delay finished, A = requested ticks, B = overshoot ticks
)

// RingSize is the number of events retained.
const RingSize = 32

var (
	writer  atomic.Pointer[Writer]
	enabled atomic.Bool

	ring     [RingSize]atomic.Uint64 // kind<<56 | b<<32 | a
	ringHead atomic.Uint32

	asyncCh chan string
)

// SetWriter sets the output function. Passing nil silences output.
func SetWriter(w Writer) {
	if w == nil {
		writer.Store(nil)
		return
	}
	writer.Store(&w)
}

// SetEnabled enables or disables Println output.
// Disabled by default so that debug text does not disturb timing.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether Println output is active.
func Enabled() bool {
	return enabled.Load()
}

func current() Writer {
	if p := writer.Load(); p != nil {
		return *p
	}
	return nil
}

// Println writes a message through the installed writer when enabled.
// It blocks for as long as the writer does; use Async from interrupt context.
func Println(msg string) {
	if !enabled.Load() {
		return
	}
	if w := current(); w != nil {
		w(msg)
	}
}

// StartAsync starts the goroutine draining Async messages.
func StartAsync() {
	if asyncCh != nil {
		return
	}
	asyncCh = make(chan string, 16)
	go func() {
		for msg := range asyncCh {
			if w := current(); w != nil {
				w(msg)
			}
		}
	}()
}

// Async queues a message without blocking. The message is dropped when the
// queue is full or StartAsync was never called.
func Async(msg string) {
	if asyncCh == nil {
		return
	}
	select {
	case asyncCh <- msg:
	default:
	}
}

// bMask is the part of Event.B a ring slot has room for.
const bMask = 1<<24 - 1

func pack(kind uint8, a, b uint32) uint64 {
	return uint64(kind)<<56 | uint64(b&bMask)<<32 | uint64(a)
}

func unpack(v uint64) Event {
	return Event{Kind: uint8(v >> 56), A: uint32(v), B: uint32(v>>32) & bMask}
}

// Record stores an event in the ring. Safe from interrupt context and from
// concurrent goroutines: each slot is written with one atomic store, so a
// reader sees either the old event or the new one. B is truncated to 24
// bits.
func Record(kind uint8, a, b uint32) {
	idx := (ringHead.Add(1) - 1) % RingSize
	ring[idx].Store(pack(kind, a, b))
}

// Events returns the retained events, oldest first.
func Events() []Event {
	head := ringHead.Load()
	out := make([]Event, 0, RingSize)
	for i := uint32(0); i < RingSize; i++ {
		ev := unpack(ring[(head+i)%RingSize].Load())
		if ev.Kind == 0 {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Clear empties the event ring.
func Clear() {
	for i := range ring {
		ring[i].Store(0)
	}
	ringHead.Store(0)
}

// Dump writes the event ring through the installed writer, regardless of
// SetEnabled.
func Dump() {
	w := current()
	if w == nil {
		return
	}
	w("[HAL] === event ring ===")
	for _, ev := range Events() {
		w("[HAL] " + KindName(ev.Kind) +
			" a=" + strconv.FormatUint(uint64(ev.A), 10) +
			" b=" + strconv.FormatUint(uint64(ev.B), 10))
	}
	w("[HAL] === end ===")
}

// KindName returns a short label for an event kind.
func KindName(kind uint8) string {
	switch kind {
	case EvtTake:
		return "TAKE"
	case EvtTakeFailed:
		return "TAKE_FAILED"
	case EvtConjure:
		return "CONJURE"
	case EvtPinMode:
		return "PIN_MODE"
	case EvtSerialFault:
		return "SERIAL_FAULT"
	case EvtDelay:
		return "DELAY"
	default:
		return "UNKNOWN"
	}
}
