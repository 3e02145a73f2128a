//go:build !tinygo

package sim

import (
	"time"

	"cherry/pac"
)

// timerModel is TIMER1.
type timerModel struct {
	ctrl uint32
	mode string
	step uint32

	count   uint64 // value while stopped, or step-mode value
	started time.Time
	now     func() time.Time
}

func newTimerModel(p TimerProfile) timerModel {
	return timerModel{mode: p.Mode, step: p.Step, now: time.Now}
}

func (t *timerModel) running() bool { return t.ctrl&pac.TimerCtrlEnable != 0 }

func (t *timerModel) value() uint64 {
	if !t.running() || t.mode == TimerStep {
		return t.count
	}
	return t.count + ticksSince(t.now().Sub(t.started))
}

func ticksSince(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	ns := uint64(d)
	return (ns/1e9)*pac.TimerHz + (ns%1e9)*pac.TimerHz/1e9
}

func (t *timerModel) load(off uintptr) (uint32, bool) {
	switch off {
	case pac.TIMER1Ctrl:
		return t.ctrl, true
	case pac.TIMER1CountLo:
		v := t.value()
		if t.running() && t.mode == TimerStep {
			t.count += uint64(t.step)
		}
		return uint32(v), true
	case pac.TIMER1CountHi:
		return uint32(t.value() >> 32), true
	}
	return 0, false
}

func (t *timerModel) store(off uintptr, v uint32) bool {
	switch off {
	case pac.TIMER1Ctrl:
		was := t.running()
		if was && v&pac.TimerCtrlEnable == 0 {
			t.count = t.value()
		}
		t.ctrl = v
		if !was && t.running() {
			t.started = t.now()
		}
	case pac.TIMER1CountLo, pac.TIMER1CountHi:
		// read-only
	default:
		return false
	}
	return true
}
