// Package serial opens the UART of a cherry board from a host machine.
package serial

import (
	"fmt"
	"io"
	"strconv"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Parity values, matching the letters of a framing string.
const (
	ParityNone = 'N'
	ParityEven = 'E'
	ParityOdd  = 'O'
)

// Framing is the character format, e.g. 8N1.
type Framing struct {
	DataBits int
	Parity   byte
	StopBits int
}

func (f Framing) String() string {
	return strconv.Itoa(f.DataBits) + string(f.Parity) + strconv.Itoa(f.StopBits)
}

// ParseFraming parses a framing string such as "8N1" or "7E2".
func ParseFraming(s string) (Framing, error) {
	if len(s) != 3 {
		return Framing{}, fmt.Errorf("framing %q: want <data bits><parity><stop bits>", s)
	}
	f := Framing{
		DataBits: int(s[0] - '0'),
		Parity:   s[1],
		StopBits: int(s[2] - '0'),
	}
	if f.DataBits < 5 || f.DataBits > 8 {
		return Framing{}, fmt.Errorf("framing %q: data bits must be 5-8", s)
	}
	switch f.Parity {
	case ParityNone, ParityEven, ParityOdd:
	case 'n', 'e', 'o':
		f.Parity -= 'a' - 'A'
	default:
		return Framing{}, fmt.Errorf("framing %q: parity must be N, E or O", s)
	}
	if f.StopBits != 1 && f.StopBits != 2 {
		return Framing{}, fmt.Errorf("framing %q: stop bits must be 1 or 2", s)
	}
	return f, nil
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate; must match serial.Config.Baud on the board
	Baud int

	// Character format
	Framing Framing

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the firmware default,
// 115200 baud 8N1.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		Framing:     Framing{DataBits: 8, Parity: ParityNone, StopBits: 1},
		ReadTimeout: 100,
	}
}
