// Package riscv controls interrupt delivery on the cherry core.
//
// The core has one machine external interrupt line. Delivery requires the
// global enable (mstatus.MIE) and the line enable (mie.MEIE); device level
// enables such as the UART's RXIE decide what drives the line.
//
// Main-context code that touches registers an interrupt handler also
// touches must do so inside Free. Without it a read-modify-write in main can
// be split by the handler and lose the handler's update.
package riscv

// CSR numbers.
const (
	CSRMStatus = 0x300
	CSRMIE     = 0x304
	CSRMIP     = 0x344
)

// mstatus bits.
const (
	MStatusMIE  = 1 << 3
	MStatusMPIE = 1 << 7
)

// mie / mip bits.
const (
	MIEMSIE = 1 << 3  // machine software interrupt
	MIEMTIE = 1 << 7  // machine timer interrupt
	MIEMEIE = 1 << 11 // machine external interrupt
)

// State is the saved global interrupt enable returned by Disable.
type State uintptr

// Free runs f with interrupts disabled and restores the previous state
// afterwards, so nested calls keep interrupts off until the outermost
// returns.
func Free(f func()) {
	s := Disable()
	defer Restore(s)
	f()
}
