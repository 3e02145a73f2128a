package main

import (
	"strconv"
	"time"

	"cherry/debug"
	"cherry/hal"
	"cherry/hal/gpio"
	"cherry/hal/serial"
	"cherry/hal/timer"
	"cherry/pac"
	"cherry/pac/riscv"
)

// board is the demo wiring: five LEDs on PA0-PA4 showing a counter,
// buttons on PA29-PA31 pulled up (pressed reads low) and UART1 echoing
// whatever it receives from its interrupt handler.
type board struct {
	leds    [5]*gpio.OutputPin
	buttons [3]*gpio.InputPin
	pressed [3]bool

	tx     *serial.Tx
	tim    *timer.Timer
	period time.Duration
	count  uint32
}

func newBoard(port pac.GPIOAPort, uart pac.UART1Port, tim pac.TIMER1Port, period time.Duration) (*board, error) {
	pins := gpio.Split(port)
	ser, err := serial.New(uart, serial.DefaultConfig())
	if err != nil {
		return nil, err
	}
	b := &board{
		leds: [5]*gpio.OutputPin{
			pins.PA0.IntoOutput(),
			pins.PA1.IntoOutput(),
			pins.PA2.IntoOutput(),
			pins.PA3.IntoOutput(),
			pins.PA4.IntoOutput(),
		},
		buttons: [3]*gpio.InputPin{
			pins.PA29.IntoInput(),
			pins.PA30.IntoInput(),
			pins.PA31.IntoInput(),
		},
		tim:    timer.New(tim),
		period: period,
	}

	ser.Rx().Listen()
	_, b.tx = ser.Split()

	e := &echo{}
	riscv.SetExternalHandler(e.interrupt)
	riscv.EnableExternal()
	riscv.Enable()
	return b, nil
}

// say writes s from main context. The handler writes TXDATA too, so each
// byte goes out with interrupts masked.
func (b *board) say(s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		riscv.Free(func() {
			hal.Block(func() error { return b.tx.WriteByte(c) })
		})
	}
}

// step shows the next counter value and reports new button presses.
func (b *board) step() error {
	b.count++
	for i, led := range b.leds {
		if err := led.SetLevel(b.count&(1<<i) != 0); err != nil {
			return err
		}
	}
	for i, btn := range b.buttons {
		low, err := btn.IsLow()
		if err != nil {
			return err
		}
		if low && !b.pressed[i] {
			b.say("button " + strconv.Itoa(i+1) + "\r\n")
		}
		b.pressed[i] = low
	}
	b.tim.Delay(b.period)
	return nil
}

// run steps n times, or forever when n is zero.
func (b *board) run(n int) error {
	for i := 0; n == 0 || i < n; i++ {
		if err := b.step(); err != nil {
			return err
		}
	}
	return nil
}

// echo is the UART1 interrupt handler. It has no way to receive the
// Serial owned by main, so it conjures its own view of UART1 and only
// touches RXDATA, STATUS and TXDATA; main only writes TXDATA under
// riscv.Free.
type echo struct {
	uart *serial.Serial
}

func (e *echo) interrupt() {
	if e.uart == nil {
		e.uart = serial.Attach(pac.ConjureUART1())
	}
	for {
		c, err := e.uart.ReadByte()
		if err == hal.ErrWouldBlock {
			return
		}
		if err != nil {
			debug.Async(err.Error())
			continue
		}
		hal.Block(func() error { return e.uart.WriteByte(c) })
	}
}
