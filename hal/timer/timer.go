// Package timer provides busy-wait delays on TIMER1, a free running 64-bit
// counter at pac.TimerHz.
package timer

import (
	"time"

	"cherry/debug"
	"cherry/hal"
	"cherry/pac"
)

// Timer owns TIMER1.
type Timer struct {
	ctrl pac.UnsafeRW[uint32]
	lo   pac.UnsafeRO[uint32]
	hi   pac.UnsafeRO[uint32]
}

var _ hal.Delayer = (*Timer)(nil)

// New consumes the block, owned or conjured, and starts the counter.
func New(tim pac.TIMER1Port) *Timer {
	tim.Consume()
	t := &Timer{
		ctrl: pac.NewUnsafeRW[uint32](pac.TIMER1Base + pac.TIMER1Ctrl),
		lo:   pac.NewUnsafeRO[uint32](pac.TIMER1Base + pac.TIMER1CountLo),
		hi:   pac.NewUnsafeRO[uint32](pac.TIMER1Base + pac.TIMER1CountHi),
	}
	t.ctrl.SetBits(pac.TimerCtrlEnable)
	return t
}

// Now returns the counter value. The high word is read on both sides of
// the low word so a carry between the two reads is never torn.
func (t *Timer) Now() uint64 {
	for {
		hi := t.hi.Read()
		lo := t.lo.Read()
		if t.hi.Read() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}

// Delay busy-waits for at least d. Interrupts stay enabled; time spent in
// a handler counts towards the delay.
func (t *Timer) Delay(d time.Duration) {
	ticks := TicksFromDuration(d)
	if ticks == 0 {
		return
	}
	start := t.Now()
	// start may sit at the very end of a tick, so one extra tick is
	// needed before ticks whole periods are guaranteed to have passed.
	var elapsed uint64
	for elapsed <= ticks {
		elapsed = t.Now() - start
	}
	debug.Record(debug.EvtDelay, uint32(ticks), uint32(elapsed-ticks))
}

// DelayMs busy-waits for at least ms milliseconds.
func (t *Timer) DelayMs(ms uint32) {
	t.Delay(time.Duration(ms) * time.Millisecond)
}

// DelayUs busy-waits for at least us microseconds.
func (t *Timer) DelayUs(us uint32) {
	t.Delay(time.Duration(us) * time.Microsecond)
}

// TicksFromDuration converts d to counter ticks, rounding up.
func TicksFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	ns := uint64(d)
	sec, rem := ns/1e9, ns%1e9
	return sec*pac.TimerHz + (rem*pac.TimerHz+1e9-1)/1e9
}

// DurationFromTicks converts counter ticks to a duration, rounding down.
func DurationFromTicks(ticks uint64) time.Duration {
	sec, rem := ticks/pac.TimerHz, ticks%pac.TimerHz
	return time.Duration(sec)*time.Second + time.Duration(rem*1e9/pac.TimerHz)
}
