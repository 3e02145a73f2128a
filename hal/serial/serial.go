// Package serial drives UART1.
//
// Byte operations never wait: ReadByte and WriteByte return
// hal.ErrWouldBlock when the hardware is not ready and a *hal.Fault when
// the receiver flagged a line error. Use hal.Block, or the blocking
// Tx.Write, when waiting is fine.
//
// The receive and transmit halves only share the CTRL register, and they
// only change it inside a critical section, so after Split the halves may
// live in different contexts.
package serial

import (
	"cherry/debug"
	"cherry/hal"
	"cherry/pac"
	"cherry/pac/riscv"
)

// Parity selects the parity bit.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// StopBits selects the number of stop bits.
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// Config is the line configuration.
type Config struct {
	Baud     uint32
	Parity   Parity
	StopBits StopBits
}

// DefaultConfig returns 115200 baud, 8N1.
func DefaultConfig() Config {
	return Config{Baud: 115200, Parity: ParityNone, StopBits: StopBits1}
}

// divisor returns the BAUD register value for c.
func (c Config) divisor() (uint32, error) {
	if c.Baud == 0 {
		return 0, &hal.Fault{Op: "serial config", Err: hal.ErrInvalidConfig}
	}
	div := (pac.CoreClockHz + c.Baud/2) / c.Baud
	if div == 0 || div > pac.UARTBaudMax {
		return 0, &hal.Fault{Op: "serial config", Err: hal.ErrInvalidConfig}
	}
	return div, nil
}

// ctrl returns the CTRL register value for c, with the UART enabled and
// both interrupts off.
func (c Config) ctrl() (uint32, error) {
	v := uint32(pac.UARTCtrlEnable)
	switch c.Parity {
	case ParityNone:
	case ParityEven:
		v |= 1 << pac.UARTCtrlParityPos
	case ParityOdd:
		v |= 2 << pac.UARTCtrlParityPos
	default:
		return 0, &hal.Fault{Op: "serial config", Err: hal.ErrInvalidConfig}
	}
	switch c.StopBits {
	case StopBits1:
	case StopBits2:
		v |= pac.UARTCtrlStop2
	default:
		return 0, &hal.Fault{Op: "serial config", Err: hal.ErrInvalidConfig}
	}
	return v, nil
}

// configFrom decodes the configuration a UART is currently running with.
func configFrom(ctrl, div uint32) Config {
	c := Config{Parity: ParityNone, StopBits: StopBits1}
	if div != 0 {
		c.Baud = pac.CoreClockHz / div
	}
	switch (ctrl & pac.UARTCtrlParityMask) >> pac.UARTCtrlParityPos {
	case 1:
		c.Parity = ParityEven
	case 2:
		c.Parity = ParityOdd
	}
	if ctrl&pac.UARTCtrlStop2 != 0 {
		c.StopBits = StopBits2
	}
	return c
}

type regs struct {
	ctrl   pac.UnsafeRW[uint32]
	status pac.UnsafeRO[uint32]
	rxdata pac.UnsafeRO[uint32]
	txdata pac.UnsafeWO[uint32]
}

// Serial is a configured UART.
type Serial struct {
	rx    Rx
	tx    Tx
	cfg   Config
	split bool
}

// New validates cfg, programs UART1 with it and enables the UART. On a
// configuration error uart is left untouched and may be used again.
func New(uart pac.UART1Port, cfg Config) (*Serial, error) {
	div, err := cfg.divisor()
	if err != nil {
		return nil, err
	}
	ctrl, err := cfg.ctrl()
	if err != nil {
		return nil, err
	}
	uart.Consume()

	s := wrap(cfg)
	baud := pac.NewUnsafeRW[uint32](pac.UART1Base + pac.UART1Baud)
	s.rx.regs.ctrl.Write(0)
	baud.Write(div)
	s.rx.regs.ctrl.Write(ctrl)
	return s, nil
}

// Attach wraps a UART that is already configured, without touching its
// registers. Interrupt handlers use it with pac.ConjureUART1.
func Attach(uart pac.UART1Port) *Serial {
	uart.Consume()
	s := wrap(Config{})
	baud := pac.NewUnsafeRO[uint32](pac.UART1Base + pac.UART1Baud)
	s.cfg = configFrom(s.rx.regs.ctrl.Read(), baud.Read())
	return s
}

func wrap(cfg Config) *Serial {
	r := &regs{
		ctrl:   pac.NewUnsafeRW[uint32](pac.UART1Base + pac.UART1Ctrl),
		status: pac.NewUnsafeRO[uint32](pac.UART1Base + pac.UART1Status),
		rxdata: pac.NewUnsafeRO[uint32](pac.UART1Base + pac.UART1RxData),
		txdata: pac.NewUnsafeWO[uint32](pac.UART1Base + pac.UART1TxData),
	}
	return &Serial{rx: Rx{regs: r}, tx: Tx{regs: r}, cfg: cfg}
}

func (s *Serial) check() {
	if s.split {
		panic("serial: used after Split")
	}
}

// Config returns the line configuration.
func (s *Serial) Config() Config { return s.cfg }

// Rx returns the receive half without giving up the Serial.
func (s *Serial) Rx() *Rx {
	s.check()
	return &s.rx
}

// Tx returns the transmit half without giving up the Serial.
func (s *Serial) Tx() *Tx {
	s.check()
	return &s.tx
}

// Split hands out the two halves and retires s.
func (s *Serial) Split() (*Rx, *Tx) {
	s.check()
	s.split = true
	rx, tx := s.rx, s.tx
	return &rx, &tx
}

// ReadByte returns the next received byte; see Rx.ReadByte.
func (s *Serial) ReadByte() (byte, error) {
	s.check()
	return s.rx.ReadByte()
}

// WriteByte starts sending b; see Tx.WriteByte.
func (s *Serial) WriteByte(b byte) error {
	s.check()
	return s.tx.WriteByte(b)
}

// Flush reports whether everything written has left the shift register.
func (s *Serial) Flush() error {
	s.check()
	return s.tx.Flush()
}

// Rx is the receive half.
type Rx struct {
	regs *regs
}

// ReadByte returns the byte at the head of the receive FIFO. It returns
// hal.ErrWouldBlock when nothing has arrived. When the hardware flagged the
// byte, the byte is discarded and a *hal.Fault is returned.
func (r *Rx) ReadByte() (byte, error) {
	st := r.regs.status.Read()
	if st&pac.UARTStatusRxNE == 0 {
		return 0, hal.ErrWouldBlock
	}
	// Reading RXDATA pops the byte and clears its error flags.
	b := byte(r.regs.rxdata.Read())
	if errs := st & pac.UARTStatusErrors; errs != 0 {
		debug.Record(debug.EvtSerialFault, errs, uint32(b))
		return 0, &hal.Fault{Op: "serial read", Err: statusError(errs)}
	}
	return b, nil
}

// statusError maps error flags to a sentinel. When several flags are set
// the framing error wins, then parity, then overrun.
func statusError(errs uint32) error {
	switch {
	case errs&pac.UARTStatusFraming != 0:
		return hal.ErrFraming
	case errs&pac.UARTStatusParity != 0:
		return hal.ErrParity
	}
	return hal.ErrOverrun
}

// Read copies buffered bytes into p without waiting. It returns
// hal.ErrWouldBlock only when no byte was available at all.
func (r *Rx) Read(p []byte) (int, error) {
	for n := range p {
		b, err := r.ReadByte()
		if err != nil {
			if err == hal.ErrWouldBlock && n > 0 {
				return n, nil
			}
			return n, err
		}
		p[n] = b
	}
	return len(p), nil
}

// Listen enables the receive interrupt. No other CTRL bit changes.
func (r *Rx) Listen() {
	s := riscv.Disable()
	r.regs.ctrl.SetBits(pac.UARTCtrlRxIE)
	riscv.Restore(s)
}

// Unlisten disables the receive interrupt. No other CTRL bit changes.
func (r *Rx) Unlisten() {
	s := riscv.Disable()
	r.regs.ctrl.ClearBits(pac.UARTCtrlRxIE)
	riscv.Restore(s)
}

// IsListening reports whether the receive interrupt is enabled.
func (r *Rx) IsListening() bool {
	return r.regs.ctrl.Read()&pac.UARTCtrlRxIE != 0
}

// Tx is the transmit half.
type Tx struct {
	regs *regs
}

// WriteByte starts sending b. It returns hal.ErrWouldBlock while the
// transmit register still holds the previous byte.
func (t *Tx) WriteByte(b byte) error {
	if t.regs.status.Read()&pac.UARTStatusTxE == 0 {
		return hal.ErrWouldBlock
	}
	t.regs.txdata.Write(uint32(b))
	return nil
}

// Flush returns hal.ErrWouldBlock until the transmitter is idle.
func (t *Tx) Flush() error {
	if t.regs.status.Read()&pac.UARTStatusTxIdle == 0 {
		return hal.ErrWouldBlock
	}
	return nil
}

// Write sends p, waiting for the transmit register between bytes.
func (t *Tx) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := hal.Block(func() error { return t.WriteByte(b) }); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteString sends s, waiting for the transmit register between bytes.
func (t *Tx) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if err := hal.Block(func() error { return t.WriteByte(b) }); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// Listen enables the transmit-empty interrupt. No other CTRL bit changes.
func (t *Tx) Listen() {
	s := riscv.Disable()
	t.regs.ctrl.SetBits(pac.UARTCtrlTxIE)
	riscv.Restore(s)
}

// Unlisten disables the transmit-empty interrupt.
func (t *Tx) Unlisten() {
	s := riscv.Disable()
	t.regs.ctrl.ClearBits(pac.UARTCtrlTxIE)
	riscv.Restore(s)
}
