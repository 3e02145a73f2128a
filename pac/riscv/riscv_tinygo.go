//go:build tinygo

package riscv

import (
	"device/riscv"
	"runtime/interrupt"
)

var externalHandler func()

// Enable sets the global interrupt enable.
func Enable() {
	riscv.MSTATUS.SetBits(MStatusMIE)
}

// Disable clears the global interrupt enable and returns the previous state.
func Disable() State {
	return State(interrupt.Disable())
}

// Restore restores the global interrupt enable saved by Disable.
func Restore(s State) {
	interrupt.Restore(interrupt.State(s))
}

// Enabled reports whether the global interrupt enable is set.
func Enabled() bool {
	return riscv.MSTATUS.Get()&MStatusMIE != 0
}

// EnableExternal unmasks the machine external interrupt line.
func EnableExternal() {
	riscv.MIE.SetBits(MIEMEIE)
}

// DisableExternal masks the machine external interrupt line.
func DisableExternal() {
	riscv.MIE.ClearBits(MIEMEIE)
}

// SetExternalHandler installs the function run for each machine external
// interrupt. Install it before EnableExternal.
func SetExternalHandler(f func()) {
	s := Disable()
	externalHandler = f
	Restore(s)
}

// machineExternal is called by the runtime's trap dispatcher with
// interrupts disabled.
//
//export cherry_machine_external
func machineExternal() {
	if externalHandler != nil {
		externalHandler()
	}
}
