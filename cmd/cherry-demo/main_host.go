//go:build !tinygo

// Command cherry-demo blinks a counter on PA0-PA4, reports button presses
// on PA29-PA31 and echoes UART1 input from its interrupt handler.
//
// Under TinyGo it is the firmware. On a host it runs the same code against
// the simulator; UART output goes to stdout.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"cherry/debug"
	"cherry/pac"
	"cherry/sim"
)

var (
	profile    = flag.String("profile", "", "Board profile (YAML); empty for the default board")
	iterations = flag.Int("iterations", 16, "Counter steps to run (0 = forever)")
	period     = flag.Duration("period", 250*time.Millisecond, "Time per counter step")
	input      = flag.String("input", "", "Bytes to deliver to UART1 after start-up")
	press      = flag.Int("press", 0, "Hold button 1-3 down for the whole run")
	verbose    = flag.Bool("verbose", false, "Print the HAL event ring on exit")
)

// buttonPins carry the active-low push buttons.
var buttonPins = []uint8{29, 30, 31}

// loadProfile reads the board profile at path. Without one the bare default
// board is used with pull-ups on the button lines, so released buttons read
// high.
func loadProfile(path string) (*sim.Profile, error) {
	if path != "" {
		return sim.LoadProfileFile(path)
	}
	p := sim.DefaultProfile()
	p.GPIO.PullUps = append([]uint8(nil), buttonPins...)
	return p, nil
}

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("cherry-demo: ")

	p, err := loadProfile(*profile)
	if err != nil {
		log.Fatal(err)
	}
	m := sim.New(p)
	defer m.Attach()()
	m.OnTransmit(func(b byte) { os.Stdout.Write([]byte{b}) })
	debug.SetWriter(func(s string) { log.Print(s) })

	periph, ok := pac.Take()
	if !ok {
		log.Fatal("peripherals already taken")
	}
	b, err := newBoard(periph.GPIOA, periph.UART1, periph.TIMER1, *period)
	if err != nil {
		log.Fatal(err)
	}
	b.say("cherry demo on " + p.Name + "\r\n")

	if *press >= 1 && *press <= len(buttonPins) {
		m.SetInput(buttonPins[*press-1], false)
	}
	m.InjectString(*input)

	if err := b.run(*iterations); err != nil {
		log.Fatal(err)
	}
	if *verbose {
		debug.Dump()
	}
}
