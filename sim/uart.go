//go:build !tinygo

package sim

import "cherry/pac"

type rxEntry struct {
	b    byte
	errs uint32
}

// uartModel is UART1. Time only moves when firmware polls STATUS: a byte
// written to TXDATA completes after Latency polls.
type uartModel struct {
	ctrl, baud uint32

	rx    []rxEntry
	depth int

	txBusy      bool
	txByte      byte
	txCountdown int
	latency     int
	loopback    bool

	sent    []byte
	dropped int
	onTx    func(byte)
}

func newUARTModel(p UARTProfile) uartModel {
	return uartModel{
		depth:    p.FIFODepth,
		latency:  p.Latency,
		loopback: p.Loopback,
	}
}

func (u *uartModel) enabled() bool { return u.ctrl&pac.UARTCtrlEnable != 0 }

func (u *uartModel) status() uint32 {
	var s uint32
	if len(u.rx) > 0 {
		s |= pac.UARTStatusRxNE | u.rx[0].errs
	}
	if !u.txBusy {
		s |= pac.UARTStatusTxE | pac.UARTStatusTxIdle
	}
	return s
}

// tick advances the transmitter by one STATUS poll.
func (u *uartModel) tick() {
	if !u.txBusy {
		return
	}
	if u.txCountdown > 0 {
		u.txCountdown--
	}
	if u.txCountdown == 0 {
		u.complete()
	}
}

func (u *uartModel) complete() {
	u.txBusy = false
	u.sent = append(u.sent, u.txByte)
	if u.onTx != nil {
		u.onTx(u.txByte)
	}
	if u.loopback {
		u.push(u.txByte, 0)
	}
}

// push appends a received byte. A full FIFO drops the byte and flags an
// overrun on the newest byte still held.
func (u *uartModel) push(b byte, errs uint32) {
	if !u.enabled() {
		return
	}
	if len(u.rx) >= u.depth {
		u.rx[len(u.rx)-1].errs |= pac.UARTStatusOverrun
		u.dropped++
		return
	}
	u.rx = append(u.rx, rxEntry{b: b, errs: errs})
}

func (u *uartModel) irq() bool {
	if u.ctrl&pac.UARTCtrlRxIE != 0 && len(u.rx) > 0 {
		return true
	}
	return u.ctrl&pac.UARTCtrlTxIE != 0 && !u.txBusy
}

func (u *uartModel) load(off uintptr) (uint32, bool) {
	switch off {
	case pac.UART1Ctrl:
		return u.ctrl, true
	case pac.UART1Baud:
		return u.baud, true
	case pac.UART1Status:
		s := u.status()
		u.tick()
		return s, true
	case pac.UART1RxData:
		if len(u.rx) == 0 {
			return 0, true
		}
		e := u.rx[0]
		u.rx = u.rx[1:]
		return uint32(e.b), true
	case pac.UART1TxData:
		return 0, true
	}
	return 0, false
}

func (u *uartModel) store(off uintptr, v uint32) bool {
	switch off {
	case pac.UART1Ctrl:
		u.ctrl = v
		if !u.enabled() {
			u.rx = u.rx[:0]
			u.txBusy = false
		}
	case pac.UART1Baud:
		u.baud = v & pac.UARTBaudMax
	case pac.UART1TxData:
		if !u.enabled() {
			return true
		}
		if u.txBusy {
			u.dropped++
			return true
		}
		u.txBusy = true
		u.txByte = byte(v)
		u.txCountdown = u.latency
		if u.txCountdown == 0 {
			u.complete()
		}
	case pac.UART1Status, pac.UART1RxData:
		// read-only
	default:
		return false
	}
	return true
}
