//go:build !tinygo

package serial

import (
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort wraps the tarm/serial implementation
type NativePort struct {
	port *serial.Port
	cfg  *Config
}

// portConfig translates cfg into a tarm/serial configuration.
func portConfig(cfg *Config) (*serial.Config, error) {
	c := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
		Size:        byte(cfg.Framing.DataBits),
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}
	switch cfg.Framing.Parity {
	case 0, ParityNone:
	case ParityEven:
		c.Parity = serial.ParityEven
	case ParityOdd:
		c.Parity = serial.ParityOdd
	default:
		return nil, fmt.Errorf("unsupported parity %q", cfg.Framing.Parity)
	}
	switch cfg.Framing.StopBits {
	case 0, 1:
	case 2:
		c.StopBits = serial.Stop2
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.Framing.StopBits)
	}
	if c.Size == 0 {
		c.Size = serial.DefaultSize
	}
	return c, nil
}

// Open opens a native serial port
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.Baud)
	}

	serialConfig, err := portConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("serial port %s: %w", cfg.Device, err)
	}

	port, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	return &NativePort{
		port: port,
		cfg:  cfg,
	}, nil
}

// Read reads data from the serial port
func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes data to the serial port
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards unread input
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Config returns the configuration the port was opened with.
func (p *NativePort) Config() *Config {
	return p.cfg
}
