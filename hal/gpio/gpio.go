// Package gpio splits port A into per-pin handles whose Go type tracks the
// pin's mode.
//
// A pin starts as *Pin (unconfigured). IntoInput and IntoOutput return a
// handle of the new type and retire the receiver; calling anything on a
// retired handle panics. Output operations only exist on *OutputPin and
// input operations only on *InputPin, so the compiler rejects reading a
// level from an output pin.
//
// Pins drive the port through its write-only set and clear registers, so
// pins of the same port may be owned by different contexts (main and an
// interrupt handler) without a critical section.
package gpio

import (
	"strconv"

	"cherry/debug"
	"cherry/hal"
	"cherry/pac"
	"cherry/pac/riscv"
)

// Mode is a pin's configuration.
type Mode uint8

const (
	Unconfigured Mode = iota
	Input
	Output
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	}
	return "unconfigured"
}

// Pins holds one unconfigured handle per line of port A.
type Pins struct {
	PA0  *Pin
	PA1  *Pin
	PA2  *Pin
	PA3  *Pin
	PA4  *Pin
	PA5  *Pin
	PA6  *Pin
	PA7  *Pin
	PA8  *Pin
	PA9  *Pin
	PA10 *Pin
	PA11 *Pin
	PA12 *Pin
	PA13 *Pin
	PA14 *Pin
	PA15 *Pin
	PA16 *Pin
	PA17 *Pin
	PA18 *Pin
	PA19 *Pin
	PA20 *Pin
	PA21 *Pin
	PA22 *Pin
	PA23 *Pin
	PA24 *Pin
	PA25 *Pin
	PA26 *Pin
	PA27 *Pin
	PA28 *Pin
	PA29 *Pin
	PA30 *Pin
	PA31 *Pin
}

// portRegs are the port A registers a pin touches. Pins keep addresses
// only, never the port block itself.
type portRegs struct {
	dir    pac.UnsafeRW[uint32]
	out    pac.UnsafeRO[uint32]
	in     pac.UnsafeRO[uint32]
	outset pac.UnsafeWO[uint32]
	outclr pac.UnsafeWO[uint32]
}

// Split consumes port and hands out its pins. port is the owned block from
// pac.TakeGPIOA or a conjured one. The port block must not be used
// afterwards; splitting it a second time panics.
func Split(port pac.GPIOAPort) *Pins {
	port.Consume()
	regs := &portRegs{
		dir:    pac.NewUnsafeRW[uint32](pac.GPIOABase + pac.GPIOADir),
		out:    pac.NewUnsafeRO[uint32](pac.GPIOABase + pac.GPIOAOut),
		in:     pac.NewUnsafeRO[uint32](pac.GPIOABase + pac.GPIOAIn),
		outset: pac.NewUnsafeWO[uint32](pac.GPIOABase + pac.GPIOAOutSet),
		outclr: pac.NewUnsafeWO[uint32](pac.GPIOABase + pac.GPIOAOutClr),
	}
	return &Pins{
		PA0:  newPin(regs, 0),
		PA1:  newPin(regs, 1),
		PA2:  newPin(regs, 2),
		PA3:  newPin(regs, 3),
		PA4:  newPin(regs, 4),
		PA5:  newPin(regs, 5),
		PA6:  newPin(regs, 6),
		PA7:  newPin(regs, 7),
		PA8:  newPin(regs, 8),
		PA9:  newPin(regs, 9),
		PA10: newPin(regs, 10),
		PA11: newPin(regs, 11),
		PA12: newPin(regs, 12),
		PA13: newPin(regs, 13),
		PA14: newPin(regs, 14),
		PA15: newPin(regs, 15),
		PA16: newPin(regs, 16),
		PA17: newPin(regs, 17),
		PA18: newPin(regs, 18),
		PA19: newPin(regs, 19),
		PA20: newPin(regs, 20),
		PA21: newPin(regs, 21),
		PA22: newPin(regs, 22),
		PA23: newPin(regs, 23),
		PA24: newPin(regs, 24),
		PA25: newPin(regs, 25),
		PA26: newPin(regs, 26),
		PA27: newPin(regs, 27),
		PA28: newPin(regs, 28),
		PA29: newPin(regs, 29),
		PA30: newPin(regs, 30),
		PA31: newPin(regs, 31),
	}
}

func newPin(regs *portRegs, n uint8) *Pin {
	return &Pin{line{regs: regs, n: n}}
}

// line is the state shared by every pin handle type.
type line struct {
	regs    *portRegs
	n       uint8
	retired bool
}

func (l *line) mask() uint32 { return 1 << l.n }

func (l *line) check() {
	if l.retired {
		panic("gpio: " + l.String() + " used after mode change")
	}
}

// into retires l and programs the direction bit for mode. The direction
// register is shared by the whole port, so the update runs with interrupts
// disabled.
func (l *line) into(mode Mode) line {
	l.check()
	l.retired = true

	s := riscv.Disable()
	if mode == Output {
		l.regs.dir.SetBits(l.mask())
	} else {
		l.regs.dir.ClearBits(l.mask())
	}
	riscv.Restore(s)

	debug.Record(debug.EvtPinMode, uint32(l.n), uint32(mode))
	return line{regs: l.regs, n: l.n}
}

// Number returns the pin's index on port A.
func (l *line) Number() uint8 { return l.n }

// String returns the pin's name, e.g. "PA7".
func (l *line) String() string { return "PA" + strconv.Itoa(int(l.n)) }

// Retired reports whether the handle was consumed by a mode change.
func (l *line) Retired() bool { return l.retired }

// Pin is an unconfigured pin.
type Pin struct{ line }

// IntoInput configures the pin as an input.
func (p *Pin) IntoInput() *InputPin { return &InputPin{p.into(Input)} }

// IntoOutput configures the pin as an output. The output latch keeps its
// current value.
func (p *Pin) IntoOutput() *OutputPin { return &OutputPin{p.into(Output)} }

// InputPin is a pin configured as an input.
type InputPin struct{ line }

// IntoOutput reconfigures the pin as an output.
func (p *InputPin) IntoOutput() *OutputPin { return &OutputPin{p.into(Output)} }

// IsHigh reports whether the pin reads high. The error is always nil; it
// is there so digital inputs share the fallible signature of other inputs.
func (p *InputPin) IsHigh() (bool, error) {
	p.check()
	return p.regs.in.Read()&p.mask() != 0, nil
}

// IsLow reports whether the pin reads low. The error is always nil.
func (p *InputPin) IsLow() (bool, error) {
	high, err := p.IsHigh()
	return !high, err
}

// OutputPin is a pin configured as an output.
type OutputPin struct{ line }

// IntoInput reconfigures the pin as an input.
func (p *OutputPin) IntoInput() *InputPin { return &InputPin{p.into(Input)} }

// SetHigh drives the pin high.
func (p *OutputPin) SetHigh() error {
	p.check()
	p.regs.outset.Write(p.mask())
	return nil
}

// SetLow drives the pin low.
func (p *OutputPin) SetLow() error {
	p.check()
	p.regs.outclr.Write(p.mask())
	return nil
}

// SetLevel drives the pin high when high is true and low otherwise.
func (p *OutputPin) SetLevel(high bool) error {
	if high {
		return p.SetHigh()
	}
	return p.SetLow()
}

// Toggle inverts the pin. It reads the latch and then writes the set or
// clear register, so only this pin's bit changes.
func (p *OutputPin) Toggle() error {
	high, err := p.IsSetHigh()
	if err != nil {
		return err
	}
	return p.SetLevel(!high)
}

// IsSetHigh reports whether the output latch is high.
func (p *OutputPin) IsSetHigh() (bool, error) {
	p.check()
	return p.regs.out.Read()&p.mask() != 0, nil
}

// IsSetLow reports whether the output latch is low.
func (p *OutputPin) IsSetLow() (bool, error) {
	high, err := p.IsSetHigh()
	return !high, err
}

var (
	_ hal.StatefulOutput   = (*OutputPin)(nil)
	_ hal.ToggleableOutput = (*OutputPin)(nil)
	_ hal.DigitalInput     = (*InputPin)(nil)
)
