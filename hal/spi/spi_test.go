//go:build !tinygo

package spi

import (
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"cherry/hal/gpio"
	"cherry/hal/timer"
	"cherry/pac"
	"cherry/sim"
)

const (
	pinSCK  = 12
	pinMOSI = 10
	pinMISO = 11
)

type bus struct {
	m    *sim.Machine
	sck  *gpio.OutputPin
	mosi *gpio.OutputPin
	miso *gpio.InputPin
}

// wired builds a board with MOSI looped back into MISO.
func wired(t *testing.T) bus {
	t.Helper()
	m := sim.New(&sim.Profile{
		Timer: sim.TimerProfile{Mode: sim.TimerStep, Step: 1},
		GPIO:  sim.GPIOProfile{Wires: []sim.Wire{{From: pinMOSI, To: pinMISO}}},
		UART:  sim.UARTProfile{FIFODepth: 8},
	})
	t.Cleanup(m.Attach())
	pins := gpio.Split(pac.ConjureGPIOA())
	return bus{
		m:    m,
		sck:  pins.PA12.IntoOutput(),
		mosi: pins.PA10.IntoOutput(),
		miso: pins.PA11.IntoInput(),
	}
}

type countingDelay struct {
	calls int
	total time.Duration
}

func (d *countingDelay) Delay(dur time.Duration) {
	d.calls++
	d.total += dur
}

func TestLoopbackAllModes(t *testing.T) {
	for mode := Mode(0); mode <= 3; mode++ {
		t.Run("mode"+string(rune('0'+mode)), func(t *testing.T) {
			b := wired(t)
			s, err := New(b.sck, b.mosi, b.miso, Config{Mode: mode})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			idle := mode&2 != 0
			if b.m.Level(pinSCK) != idle {
				t.Fatalf("clock should idle %v", idle)
			}
			edges := b.m.Edges(pinSCK)

			w := []byte{0xA5, 0x00, 0xFF, 0x3C}
			r := make([]byte, len(w))
			if err := s.Tx(w, r); err != nil {
				t.Fatalf("Tx: %v", err)
			}
			for i := range w {
				if r[i] != w[i] {
					t.Errorf("byte %d: sent %#x, read back %#x", i, w[i], r[i])
				}
			}
			if got := b.m.Edges(pinSCK) - edges; got != 16*len(w) {
				t.Errorf("expected %d clock edges, got %d", 16*len(w), got)
			}
			if b.m.Level(pinSCK) != idle {
				t.Errorf("clock should return to idle after the transfer")
			}
		})
	}
}

func TestBitOrder(t *testing.T) {
	b := wired(t)
	msb, _ := New(b.sck, b.mosi, nil, Config{})
	lsb, _ := New(b.sck, b.mosi, nil, Config{LSBFirst: true})

	// MOSI is left holding the last bit shifted out.
	last := func(s *Bitbang, v byte) bool {
		b.mosi.SetLow()
		s.Transfer(v)
		return b.m.Level(pinMOSI)
	}
	// 0x01: MSB first ends on bit 0 (high); LSB first ends on bit 7 (low).
	if !last(msb, 0x01) {
		t.Errorf("MSB first should finish on bit 0")
	}
	if last(lsb, 0x01) {
		t.Errorf("LSB first should finish on bit 7")
	}
}

func TestHalfPeriodUsesDelayer(t *testing.T) {
	b := wired(t)
	d := &countingDelay{}
	s, err := New(b.sck, b.mosi, b.miso, Config{HalfPeriod: 5 * time.Microsecond, Delay: d})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Transfer(0x42); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if d.calls != 16 || d.total != 80*time.Microsecond {
		t.Errorf("expected 16 half periods totalling 80us, got %d / %v", d.calls, d.total)
	}
}

func TestTimerAsDelayer(t *testing.T) {
	b := wired(t)
	tm := timer.New(pac.ConjureTIMER1())
	s, err := New(b.sck, b.mosi, b.miso, Config{Mode: 3, HalfPeriod: 2 * time.Microsecond, Delay: tm})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var dev drivers.SPI = s
	start := tm.Now()
	got, err := dev.Transfer(0x5A)
	if err != nil || got != 0x5A {
		t.Fatalf("Transfer: %#x, %v", got, err)
	}
	if ticks := tm.Now() - start; ticks < 16*2 {
		t.Errorf("a transfer of 16 half periods took only %d ticks", ticks)
	}
}

func TestConfigErrors(t *testing.T) {
	b := wired(t)
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"bad mode", Config{Mode: 4}, ErrInvalidMode},
		{"half period without delayer", Config{HalfPeriod: time.Microsecond}, ErrNoDelay},
	}
	for _, tt := range tests {
		if _, err := New(b.sck, b.mosi, b.miso, tt.cfg); err != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	s, _ := New(b.sck, b.mosi, b.miso, Config{})
	if err := s.Tx([]byte{1, 2}, make([]byte, 3)); err != ErrLength {
		t.Errorf("expected ErrLength, got %v", err)
	}
	r := make([]byte, 2)
	if err := s.Tx(nil, r); err != nil || r[0] != 0 || r[1] != 0 {
		t.Errorf("read-only Tx should clock out zeros: %v %v", r, err)
	}
}
