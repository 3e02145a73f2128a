package pac

import "sync/atomic"

// Clocks. The core clock is fixed by the boot ROM; the timer counts at a
// divided rate.
const (
	CoreClockHz = 16_000_000
	TimerHz     = 1_000_000
)

// Peripheral base addresses.
const (
	GPIOABase  uintptr = 0x1001_2000
	UART1Base  uintptr = 0x1001_3000
	TIMER1Base uintptr = 0x1001_4000
)

// GPIOA register offsets.
const (
	GPIOADir    = 0x00 // direction, 1 = output
	GPIOAOut    = 0x04 // output latch
	GPIOAIn     = 0x08 // input level
	GPIOAOutSet = 0x0C // write 1 to set output bits
	GPIOAOutClr = 0x10 // write 1 to clear output bits
)

// GPIOAPins is the number of lines on port A.
const GPIOAPins = 32

// UART1 register offsets.
const (
	UART1Ctrl   = 0x00
	UART1Status = 0x04
	UART1Baud   = 0x08
	UART1RxData = 0x0C
	UART1TxData = 0x10
)

// UART1 CTRL bits.
const (
	UARTCtrlEnable     = 1 << 0
	UARTCtrlRxIE       = 1 << 1 // receive data available interrupt
	UARTCtrlTxIE       = 1 << 2 // transmit register empty interrupt
	UARTCtrlParityPos  = 3
	UARTCtrlParityMask = 3 << UARTCtrlParityPos // 0 none, 1 even, 2 odd
	UARTCtrlStop2      = 1 << 5
)

// UART1 STATUS bits. The error bits describe the byte at the head of the
// receive FIFO and clear when that byte is read from RXDATA.
const (
	UARTStatusRxNE    = 1 << 0 // receive data available
	UARTStatusTxE     = 1 << 1 // transmit register empty
	UARTStatusTxIdle  = 1 << 2 // transmitter idle
	UARTStatusFraming = 1 << 3
	UARTStatusParity  = 1 << 4
	UARTStatusOverrun = 1 << 5

	UARTStatusErrors = UARTStatusFraming | UARTStatusParity | UARTStatusOverrun
)

// UARTBaudMax is the largest divisor the BAUD register holds.
const UARTBaudMax = 0xFFFF

// TIMER1 register offsets.
const (
	TIMER1Ctrl    = 0x00
	TIMER1CountLo = 0x04
	TIMER1CountHi = 0x08
)

// TIMER1 CTRL bits.
const (
	TimerCtrlEnable = 1 << 0
)

// Block identifiers used in debug events.
const (
	BlockGPIOA  = 1
	BlockUART1  = 2
	BlockTIMER1 = 3
)

// owned is embedded in every peripheral block.
type owned struct {
	nc    noCopy
	moved atomic.Bool
}

// Consume marks the block as moved into a driver. Drivers call it when
// they take the block by value; a second Consume on the same block panics,
// which is how a handle used after being moved shows up in Go.
func (o *owned) Consume() {
	if !o.moved.CompareAndSwap(false, true) {
		panic("pac: peripheral block used after move")
	}
}

// Moved reports whether Consume has been called.
func (o *owned) Moved() bool {
	return o.moved.Load()
}

// noCopy may be embedded into structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock() {}
func (*noCopy) Unlock() {}

// GPIOA is general purpose I/O port A.
type GPIOA struct {
	owned

	DIR    RW[uint32]
	OUT    RW[uint32]
	IN     RO[uint32]
	OUTSET WO[uint32]
	OUTCLR WO[uint32]
}

func newGPIOA() *GPIOA {
	return &GPIOA{
		DIR:    newRW[uint32](GPIOABase + GPIOADir),
		OUT:    newRW[uint32](GPIOABase + GPIOAOut),
		IN:     newRO[uint32](GPIOABase + GPIOAIn),
		OUTSET: newWO[uint32](GPIOABase + GPIOAOutSet),
		OUTCLR: newWO[uint32](GPIOABase + GPIOAOutClr),
	}
}

// UnsafeGPIOA is port A as returned by ConjureGPIOA. It has the same
// registers as GPIOA, built without an ownership proof.
type UnsafeGPIOA struct {
	owned

	DIR    UnsafeRW[uint32]
	OUT    UnsafeRW[uint32]
	IN     UnsafeRO[uint32]
	OUTSET UnsafeWO[uint32]
	OUTCLR UnsafeWO[uint32]
}

func newUnsafeGPIOA() *UnsafeGPIOA {
	return &UnsafeGPIOA{
		DIR:    NewUnsafeRW[uint32](GPIOABase + GPIOADir),
		OUT:    NewUnsafeRW[uint32](GPIOABase + GPIOAOut),
		IN:     NewUnsafeRO[uint32](GPIOABase + GPIOAIn),
		OUTSET: NewUnsafeWO[uint32](GPIOABase + GPIOAOutSet),
		OUTCLR: NewUnsafeWO[uint32](GPIOABase + GPIOAOutClr),
	}
}

// UART1 is the first universal asynchronous receiver/transmitter.
type UART1 struct {
	owned

	CTRL   RW[uint32]
	STATUS RO[uint32]
	BAUD   RW[uint32]
	RXDATA RO[uint32]
	TXDATA WO[uint32]
}

func newUART1() *UART1 {
	return &UART1{
		CTRL:   newRW[uint32](UART1Base + UART1Ctrl),
		STATUS: newRO[uint32](UART1Base + UART1Status),
		BAUD:   newRW[uint32](UART1Base + UART1Baud),
		RXDATA: newRO[uint32](UART1Base + UART1RxData),
		TXDATA: newWO[uint32](UART1Base + UART1TxData),
	}
}

// UnsafeUART1 is UART1 as returned by ConjureUART1.
type UnsafeUART1 struct {
	owned

	CTRL   UnsafeRW[uint32]
	STATUS UnsafeRO[uint32]
	BAUD   UnsafeRW[uint32]
	RXDATA UnsafeRO[uint32]
	TXDATA UnsafeWO[uint32]
}

func newUnsafeUART1() *UnsafeUART1 {
	return &UnsafeUART1{
		CTRL:   NewUnsafeRW[uint32](UART1Base + UART1Ctrl),
		STATUS: NewUnsafeRO[uint32](UART1Base + UART1Status),
		BAUD:   NewUnsafeRW[uint32](UART1Base + UART1Baud),
		RXDATA: NewUnsafeRO[uint32](UART1Base + UART1RxData),
		TXDATA: NewUnsafeWO[uint32](UART1Base + UART1TxData),
	}
}

// TIMER1 is the free running 64-bit counter.
type TIMER1 struct {
	owned

	CTRL    RW[uint32]
	COUNTLO RO[uint32]
	COUNTHI RO[uint32]
}

func newTIMER1() *TIMER1 {
	return &TIMER1{
		CTRL:    newRW[uint32](TIMER1Base + TIMER1Ctrl),
		COUNTLO: newRO[uint32](TIMER1Base + TIMER1CountLo),
		COUNTHI: newRO[uint32](TIMER1Base + TIMER1CountHi),
	}
}

// UnsafeTIMER1 is TIMER1 as returned by ConjureTIMER1.
type UnsafeTIMER1 struct {
	owned

	CTRL    UnsafeRW[uint32]
	COUNTLO UnsafeRO[uint32]
	COUNTHI UnsafeRO[uint32]
}

func newUnsafeTIMER1() *UnsafeTIMER1 {
	return &UnsafeTIMER1{
		CTRL:    NewUnsafeRW[uint32](TIMER1Base + TIMER1Ctrl),
		COUNTLO: NewUnsafeRO[uint32](TIMER1Base + TIMER1CountLo),
		COUNTHI: NewUnsafeRO[uint32](TIMER1Base + TIMER1CountHi),
	}
}

// GPIOAPort is accepted by drivers for port A: either the owned *GPIOA or
// a conjured *UnsafeGPIOA.
type GPIOAPort interface {
	Consume()
	Moved() bool
	gpioa()
}

// UART1Port is accepted by drivers for UART1.
type UART1Port interface {
	Consume()
	Moved() bool
	uart1()
}

// TIMER1Port is accepted by drivers for TIMER1.
type TIMER1Port interface {
	Consume()
	Moved() bool
	timer1()
}

func (*GPIOA) gpioa() {}
func (*UnsafeGPIOA) gpioa() {}
func (*UART1) uart1() {}
func (*UnsafeUART1) uart1() {}
func (*TIMER1) timer1() {}
func (*UnsafeTIMER1) timer1() {}
