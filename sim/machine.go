//go:build !tinygo

// Package sim is a register-level model of the cherry chip for host builds.
//
// A Machine implements mmio.Bus, so the pac and hal packages run against it
// unchanged. It models port A with board wiring, UART1 with a receive FIFO
// and a poll-driven transmitter, TIMER1, the mstatus/mie CSRs and the
// machine external interrupt. Interrupts are delivered synchronously at the
// end of the register access or CSR write that raised them, which is the
// host equivalent of "before the next instruction".
package sim

import (
	"fmt"
	"sync"

	"cherry/internal/mmio"
	"cherry/pac"
	"cherry/pac/riscv"
)

// stormLimit bounds back-to-back deliveries of a line that never drops.
const stormLimit = 10_000

// Machine is one simulated chip.
type Machine struct {
	mu      sync.Mutex
	profile Profile

	gpio  gpioModel
	uart  uartModel
	timer timerModel

	mstatus uint32
	mie     uint32

	line    bool // external interrupt line level
	pending bool // gateway latched a rising edge
	inTrap  bool
	traps   int
}

// New builds a machine in its reset state. A nil profile means
// DefaultProfile.
func New(p *Profile) *Machine {
	if p == nil {
		p = DefaultProfile()
	}
	return &Machine{
		profile: *p,
		gpio:    newGPIOModel(p.GPIO),
		uart:    newUARTModel(p.UART),
		timer:   newTimerModel(p.Timer),
	}
}

// Profile returns the board profile the machine was built with.
func (m *Machine) Profile() Profile { return m.profile }

// Attach routes all register and CSR accesses to m until detach is called.
func (m *Machine) Attach() (detach func()) {
	return mmio.Attach(m)
}

type region int

const (
	regionNone region = iota
	regionGPIOA
	regionUART1
	regionTIMER1
)

const blockSize = 0x1000

func decode(addr uintptr) (region, uintptr) {
	switch {
	case addr >= pac.GPIOABase && addr < pac.GPIOABase+blockSize:
		return regionGPIOA, addr - pac.GPIOABase
	case addr >= pac.UART1Base && addr < pac.UART1Base+blockSize:
		return regionUART1, addr - pac.UART1Base
	case addr >= pac.TIMER1Base && addr < pac.TIMER1Base+blockSize:
		return regionTIMER1, addr - pac.TIMER1Base
	}
	return regionNone, 0
}

// Load implements mmio.Bus. An access outside the mapped blocks panics,
// standing in for the load access fault the core would raise.
func (m *Machine) Load(addr uintptr, width uint8) uint32 {
	m.mu.Lock()
	v, ok := m.load(addr)
	m.updateLine()
	m.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("sim: load from unmapped address %#x", addr))
	}
	m.deliver()
	return v & widthMask(width)
}

// Store implements mmio.Bus.
func (m *Machine) Store(addr uintptr, width uint8, v uint32) {
	m.mu.Lock()
	ok := m.store(addr, v&widthMask(width))
	m.updateLine()
	m.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("sim: store to unmapped address %#x", addr))
	}
	m.deliver()
}

func widthMask(width uint8) uint32 {
	switch width {
	case mmio.Width8:
		return 0xFF
	case mmio.Width16:
		return 0xFFFF
	}
	return 0xFFFF_FFFF
}

func (m *Machine) load(addr uintptr) (uint32, bool) {
	r, off := decode(addr)
	switch r {
	case regionGPIOA:
		return m.gpio.load(off)
	case regionUART1:
		return m.uart.load(off)
	case regionTIMER1:
		return m.timer.load(off)
	}
	return 0, false
}

func (m *Machine) store(addr uintptr, v uint32) bool {
	r, off := decode(addr)
	switch r {
	case regionGPIOA:
		return m.gpio.store(off, v)
	case regionUART1:
		return m.uart.store(off, v)
	case regionTIMER1:
		return m.timer.store(off, v)
	}
	return false
}

// ReadCSR implements mmio.Bus.
func (m *Machine) ReadCSR(csr uint16) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch csr {
	case riscv.CSRMStatus:
		return m.mstatus
	case riscv.CSRMIE:
		return m.mie
	case riscv.CSRMIP:
		if m.pending {
			return riscv.MIEMEIE
		}
		return 0
	}
	panic(fmt.Sprintf("sim: illegal csr %#x", csr))
}

// SetCSRBits implements mmio.Bus.
func (m *Machine) SetCSRBits(csr uint16, mask uint32) uint32 {
	m.mu.Lock()
	reg := m.csr(csr)
	old := *reg
	*reg |= mask
	m.mu.Unlock()
	m.deliver()
	return old
}

// ClearCSRBits implements mmio.Bus.
func (m *Machine) ClearCSRBits(csr uint16, mask uint32) uint32 {
	m.mu.Lock()
	reg := m.csr(csr)
	old := *reg
	*reg &^= mask
	m.mu.Unlock()
	return old
}

func (m *Machine) csr(csr uint16) *uint32 {
	switch csr {
	case riscv.CSRMStatus:
		return &m.mstatus
	case riscv.CSRMIE:
		return &m.mie
	}
	panic(fmt.Sprintf("sim: csr %#x is not writable", csr))
}

// updateLine samples the interrupt sources. The gateway latches rising
// edges only; a level that stays high is re-pended after the handler
// returns. Called with m.mu held.
func (m *Machine) updateLine() {
	level := m.uart.irq()
	if level && !m.line {
		m.pending = true
	}
	m.line = level
}

// deliver takes pending traps. The handler runs without m.mu held so it can
// access registers; those accesses see inTrap and do not nest.
func (m *Machine) deliver() {
	for n := 0; ; n++ {
		m.mu.Lock()
		if !m.pending || m.inTrap || m.mstatus&riscv.MStatusMIE == 0 || m.mie&riscv.MIEMEIE == 0 {
			m.mu.Unlock()
			return
		}
		if n >= stormLimit {
			m.mu.Unlock()
			panic("sim: interrupt line never cleared by handler")
		}
		m.pending = false
		m.inTrap = true
		m.traps++
		m.mstatus = (m.mstatus &^ riscv.MStatusMIE) | riscv.MStatusMPIE
		m.mu.Unlock()

		h := mmio.TrapHandler()
		if h != nil {
			h()
		}

		m.mu.Lock()
		if m.mstatus&riscv.MStatusMPIE != 0 {
			m.mstatus |= riscv.MStatusMIE
		}
		m.mstatus &^= riscv.MStatusMPIE
		m.inTrap = false
		if m.line && h != nil {
			m.pending = true
		}
		m.mu.Unlock()
	}
}

// Traps returns the number of external interrupts taken.
func (m *Machine) Traps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.traps
}

// Pending reports whether an external interrupt is latched but not taken.
func (m *Machine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// SetInput drives an external level onto a port A pad. It only shows on
// IN while the pin is an input with no wired source.
func (m *Machine) SetInput(pin uint8, high bool) {
	m.mu.Lock()
	if high {
		m.gpio.external |= 1 << pin
	} else {
		m.gpio.external &^= 1 << pin
	}
	m.gpio.settle()
	m.mu.Unlock()
}

// Level reports the pad level of a port A pin.
func (m *Machine) Level(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gpio.pads&(1<<pin) != 0
}

// IsOutput reports whether a port A pin is configured as an output.
func (m *Machine) IsOutput(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gpio.dir&(1<<pin) != 0
}

// Edges returns how many level changes a port A pad has seen.
func (m *Machine) Edges(pin uint8) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gpio.edges[pin]
}

// InjectRx delivers a byte into the UART1 receive FIFO as if it arrived on
// the wire. Any interrupt it raises runs before InjectRx returns.
func (m *Machine) InjectRx(b byte) {
	m.InjectRxError(b, 0)
}

// InjectRxError delivers a byte with line error flags (pac.UARTStatus*).
func (m *Machine) InjectRxError(b byte, errs uint32) {
	m.mu.Lock()
	m.uart.push(b, errs&pac.UARTStatusErrors)
	m.updateLine()
	m.mu.Unlock()
	m.deliver()
}

// InjectString delivers every byte of s.
func (m *Machine) InjectString(s string) {
	for i := 0; i < len(s); i++ {
		m.InjectRx(s[i])
	}
}

// Sent returns a copy of every byte UART1 has finished transmitting.
func (m *Machine) Sent() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.uart.sent...)
}

// TakeSent returns and clears the transmit log.
func (m *Machine) TakeSent() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.uart.sent
	m.uart.sent = nil
	return out
}

// Dropped returns how many UART1 bytes were lost to a full FIFO or a write
// to a busy transmitter.
func (m *Machine) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uart.dropped
}

// Baud returns the divisor last written to UART1 BAUD.
func (m *Machine) Baud() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uart.baud
}

// OnTransmit installs f to be called with each byte as UART1 finishes
// sending it. f runs with the machine locked and must not access it.
func (m *Machine) OnTransmit(f func(byte)) {
	m.mu.Lock()
	m.uart.onTx = f
	m.mu.Unlock()
}

// AdvanceTimer adds ticks to TIMER1 regardless of mode.
func (m *Machine) AdvanceTimer(ticks uint64) {
	m.mu.Lock()
	m.timer.count += ticks
	m.mu.Unlock()
}
