//go:build !tinygo

package sim

import "cherry/pac"

// gpioModel is port A. Pad levels are recomputed after every write so edge
// counts see each transition.
type gpioModel struct {
	dir, out uint32
	external uint32 // levels applied from outside the chip
	wires    []Wire
	pads     uint32
	edges    [pac.GPIOAPins]int
}

func newGPIOModel(p GPIOProfile) gpioModel {
	g := gpioModel{wires: append([]Wire(nil), p.Wires...)}
	for _, n := range p.PullUps {
		g.external |= 1 << n
	}
	g.pads = g.levels()
	return g
}

// levels computes what every pad sees: outputs drive their latch, wired
// inputs follow their source while it is an output, everything else reads
// the external level.
func (g *gpioModel) levels() uint32 {
	lv := (g.out & g.dir) | (g.external &^ g.dir)
	for _, w := range g.wires {
		if g.dir&(1<<w.From) == 0 || g.dir&(1<<w.To) != 0 {
			continue
		}
		if g.out&(1<<w.From) != 0 {
			lv |= 1 << w.To
		} else {
			lv &^= 1 << w.To
		}
	}
	return lv
}

func (g *gpioModel) settle() {
	next := g.levels()
	changed := next ^ g.pads
	for i := 0; changed != 0; i++ {
		if changed&1 != 0 {
			g.edges[i]++
		}
		changed >>= 1
	}
	g.pads = next
}

func (g *gpioModel) load(off uintptr) (uint32, bool) {
	switch off {
	case pac.GPIOADir:
		return g.dir, true
	case pac.GPIOAOut:
		return g.out, true
	case pac.GPIOAIn:
		return g.pads, true
	case pac.GPIOAOutSet, pac.GPIOAOutClr:
		return 0, true
	}
	return 0, false
}

func (g *gpioModel) store(off uintptr, v uint32) bool {
	switch off {
	case pac.GPIOADir:
		g.dir = v
	case pac.GPIOAOut:
		g.out = v
	case pac.GPIOAOutSet:
		g.out |= v
	case pac.GPIOAOutClr:
		g.out &^= v
	case pac.GPIOAIn:
		// read-only; writes are ignored by the hardware
	default:
		return false
	}
	g.settle()
	return true
}
