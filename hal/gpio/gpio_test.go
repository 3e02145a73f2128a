//go:build !tinygo

package gpio

import (
	"testing"

	"cherry/debug"
	"cherry/pac"
	"cherry/sim"
)

// loopback wires PA0 to PA29 and PA1 to PA30.
func loopback(t *testing.T) (*sim.Machine, *Pins) {
	t.Helper()
	m := sim.New(&sim.Profile{
		Timer: sim.TimerProfile{Mode: sim.TimerRealtime},
		GPIO: sim.GPIOProfile{
			Wires: []sim.Wire{{From: 0, To: 29}, {From: 1, To: 30}},
		},
		UART: sim.UARTProfile{FIFODepth: 8},
	})
	t.Cleanup(m.Attach())
	return m, Split(pac.ConjureGPIOA())
}

func mustRead(t *testing.T, f func() (bool, error)) bool {
	t.Helper()
	v, err := f()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func TestLoopbackLevels(t *testing.T) {
	_, pins := loopback(t)
	out := pins.PA0.IntoOutput()
	in := pins.PA29.IntoInput()

	tests := []struct {
		name  string
		level bool
	}{
		{"set high", true},
		{"set low", false},
		{"set high again", true},
	}
	for _, tt := range tests {
		if err := out.SetLevel(tt.level); err != nil {
			t.Fatalf("%s: SetLevel: %v", tt.name, err)
		}
		if got := mustRead(t, in.IsHigh); got != tt.level {
			t.Errorf("%s: IsHigh = %v", tt.name, got)
		}
		if got := mustRead(t, in.IsLow); got == tt.level {
			t.Errorf("%s: IsLow = %v", tt.name, got)
		}
		if got := mustRead(t, out.IsSetHigh); got != tt.level {
			t.Errorf("%s: IsSetHigh = %v", tt.name, got)
		}
	}
}

func TestToggleFlipsOnce(t *testing.T) {
	m, pins := loopback(t)
	out := pins.PA1.IntoOutput()
	in := pins.PA30.IntoInput()

	if err := out.SetLow(); err != nil {
		t.Fatal(err)
	}
	before := m.Edges(1)
	prev := mustRead(t, in.IsHigh)
	for i := 0; i < 4; i++ {
		if err := out.Toggle(); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
		now := mustRead(t, in.IsHigh)
		if now == prev {
			t.Fatalf("toggle %d did not flip the level", i)
		}
		prev = now
	}
	if got := m.Edges(1) - before; got != 4 {
		t.Errorf("expected 4 edges on PA1, got %d", got)
	}
}

func TestSetLeavesOtherPinsAlone(t *testing.T) {
	m, pins := loopback(t)
	a := pins.PA2.IntoOutput()
	b := pins.PA3.IntoOutput()

	a.SetHigh()
	b.SetHigh()
	a.SetLow()
	b.Toggle()
	a.Toggle()

	if !m.Level(2) || m.Level(3) {
		t.Fatalf("expected PA2 high and PA3 low, got %v and %v", m.Level(2), m.Level(3))
	}
	if m.Edges(2) != 3 || m.Edges(3) != 2 {
		t.Errorf("unexpected edge counts PA2=%d PA3=%d", m.Edges(2), m.Edges(3))
	}
}

func TestModeTransitions(t *testing.T) {
	m, pins := loopback(t)
	debug.Clear()

	in := pins.PA5.IntoInput()
	if m.IsOutput(5) {
		t.Fatalf("PA5 should be an input")
	}
	out := in.IntoOutput()
	if !m.IsOutput(5) {
		t.Fatalf("PA5 should be an output")
	}
	back := out.IntoInput()
	if m.IsOutput(5) || back.Number() != 5 || back.String() != "PA5" {
		t.Fatalf("PA5 should be an input again, got %s", back)
	}

	events := debug.Events()
	want := []Mode{Input, Output, Input}
	if len(events) != len(want) {
		t.Fatalf("expected %d pin mode events, got %+v", len(want), events)
	}
	for i, mode := range want {
		if events[i].Kind != debug.EvtPinMode || events[i].A != 5 || Mode(events[i].B) != mode {
			t.Errorf("event %d: expected PA5 -> %s, got %+v", i, mode, events[i])
		}
	}
}

func TestRetiredHandlePanics(t *testing.T) {
	tests := []struct {
		name string
		use  func(p *Pins)
	}{
		{"unconfigured reused", func(p *Pins) {
			p.PA6.IntoOutput()
			p.PA6.IntoInput()
		}},
		{"output after IntoInput", func(p *Pins) {
			out := p.PA7.IntoOutput()
			out.IntoInput()
			out.SetHigh()
		}},
		{"input after IntoOutput", func(p *Pins) {
			in := p.PA8.IntoInput()
			in.IntoOutput()
			in.IsHigh()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pins := loopback(t)
			defer func() {
				if recover() == nil {
					t.Fatalf("expected a panic")
				}
			}()
			tt.use(pins)
		})
	}
}

func TestSplitTwicePanics(t *testing.T) {
	m := sim.New(nil)
	t.Cleanup(m.Attach())

	port := pac.ConjureGPIOA()
	Split(port)
	defer func() {
		if recover() == nil {
			t.Fatalf("second Split of the same block should panic")
		}
	}()
	Split(port)
}

func TestSplitPinsAreDistinct(t *testing.T) {
	_, pins := loopback(t)
	all := []*Pin{pins.PA0, pins.PA1, pins.PA15, pins.PA16, pins.PA31}
	seen := map[uint8]bool{}
	for _, p := range all {
		if seen[p.Number()] {
			t.Fatalf("duplicate pin %s", p)
		}
		seen[p.Number()] = true
	}
	if pins.PA31.Number() != 31 {
		t.Errorf("PA31 has number %d", pins.PA31.Number())
	}
}
