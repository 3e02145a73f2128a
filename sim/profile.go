//go:build !tinygo

package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"cherry/pac"
)

// Timer modes.
const (
	TimerRealtime = "realtime" // counter follows the host clock at pac.TimerHz
	TimerStep     = "step"     // counter advances a fixed step per COUNTLO read
)

// Profile describes the board around the chip: how pins are wired, how the
// UART behaves and how the timer advances.
type Profile struct {
	Name  string       `yaml:"name"`
	Timer TimerProfile `yaml:"timer"`
	GPIO  GPIOProfile  `yaml:"gpio"`
	UART  UARTProfile  `yaml:"uart"`
}

// TimerProfile configures TIMER1.
type TimerProfile struct {
	Mode string `yaml:"mode"`
	Step uint32 `yaml:"step"` // ticks per COUNTLO read in step mode
}

// Wire connects an output pin to an input pin on port A.
type Wire struct {
	From uint8 `yaml:"from"`
	To   uint8 `yaml:"to"`
}

// GPIOProfile configures port A.
type GPIOProfile struct {
	Wires   []Wire  `yaml:"wires"`
	PullUps []uint8 `yaml:"pull_ups"` // undriven inputs read high
}

// UARTProfile configures UART1.
type UARTProfile struct {
	Loopback  bool `yaml:"loopback"`   // transmitted bytes are received back
	Latency   int  `yaml:"latency"`    // STATUS polls before a written byte completes
	FIFODepth int  `yaml:"fifo_depth"` // receive FIFO depth
}

// DefaultProfile returns a bare board: nothing wired, UART not looped back,
// realtime timer.
func DefaultProfile() *Profile {
	p := &Profile{}
	applyDefaults(p)
	return p
}

// LoadProfile parses a YAML board profile and applies defaults.
func LoadProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	applyDefaults(&p)
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfileFile reads and parses a YAML board profile.
func LoadProfileFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return LoadProfile(data)
}

// applyDefaults fills in missing values
func applyDefaults(p *Profile) {
	if p.Name == "" {
		p.Name = "cherry-bare"
	}
	if p.Timer.Mode == "" {
		p.Timer.Mode = TimerRealtime
	}
	if p.Timer.Mode == TimerStep && p.Timer.Step == 0 {
		p.Timer.Step = 1
	}
	if p.UART.FIFODepth == 0 {
		p.UART.FIFODepth = 8
	}
}

func (p *Profile) validate() error {
	switch p.Timer.Mode {
	case TimerRealtime, TimerStep:
	default:
		return fmt.Errorf("profile %s: unknown timer mode %q", p.Name, p.Timer.Mode)
	}
	for _, w := range p.GPIO.Wires {
		if w.From >= pac.GPIOAPins || w.To >= pac.GPIOAPins {
			return fmt.Errorf("profile %s: wire %d->%d out of range", p.Name, w.From, w.To)
		}
		if w.From == w.To {
			return fmt.Errorf("profile %s: wire %d loops onto itself", p.Name, w.From)
		}
	}
	for _, n := range p.GPIO.PullUps {
		if n >= pac.GPIOAPins {
			return fmt.Errorf("profile %s: pull-up on pin %d out of range", p.Name, n)
		}
	}
	if p.UART.Latency < 0 {
		return fmt.Errorf("profile %s: negative uart latency", p.Name)
	}
	if p.UART.FIFODepth < 1 || p.UART.FIFODepth > 256 {
		return fmt.Errorf("profile %s: uart fifo depth %d out of range", p.Name, p.UART.FIFODepth)
	}
	return nil
}
