//go:build !tinygo

package riscv

import "cherry/internal/mmio"

// Enable sets the global interrupt enable.
func Enable() {
	mmio.SetCSRBits(CSRMStatus, MStatusMIE)
}

// Disable clears the global interrupt enable and returns the previous state.
func Disable() State {
	return State(mmio.ClearCSRBits(CSRMStatus, MStatusMIE) & MStatusMIE)
}

// Restore restores the global interrupt enable saved by Disable.
func Restore(s State) {
	if s&MStatusMIE != 0 {
		mmio.SetCSRBits(CSRMStatus, MStatusMIE)
	}
}

// Enabled reports whether the global interrupt enable is set.
func Enabled() bool {
	return mmio.ReadCSR(CSRMStatus)&MStatusMIE != 0
}

// EnableExternal unmasks the machine external interrupt line.
func EnableExternal() {
	mmio.SetCSRBits(CSRMIE, MIEMEIE)
}

// DisableExternal masks the machine external interrupt line.
func DisableExternal() {
	mmio.ClearCSRBits(CSRMIE, MIEMEIE)
}

// SetExternalHandler installs the function run for each machine external
// interrupt. Install it before EnableExternal.
func SetExternalHandler(f func()) {
	mmio.SetTrapHandler(f)
}
