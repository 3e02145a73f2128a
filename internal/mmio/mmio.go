// Package mmio performs the raw bus accesses behind every register.
//
// On TinyGo builds each access is a single volatile load or store at the
// given address. On regular Go builds there is no device memory, so accesses
// are routed to a Bus attached at runtime (normally a sim.Machine).
package mmio

// Widths in bytes accepted by Bus implementations.
const (
	Width8  = 1
	Width16 = 2
	Width32 = 4
)
