// Package hal holds the contracts shared by the cherry drivers: the error
// model for blocking and non-blocking I/O and the digital pin interfaces
// that bus drivers are written against.
//
// Non-blocking operations return ErrWouldBlock when the hardware is not
// ready yet. The caller decides how to wait: spin with Block, sleep, or come
// back from an interrupt handler. Hardware errors come back as a *Fault
// naming the operation and wrapping one of the Err* sentinels.
package hal

import (
	"errors"
	"time"
)

var (
	// ErrWouldBlock means the operation cannot complete yet. Retrying later
	// is always safe and has no side effects.
	ErrWouldBlock = errors.New("operation would block")

	ErrFraming       = errors.New("framing error")
	ErrOverrun       = errors.New("overrun error")
	ErrParity        = errors.New("parity error")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Fault is a hardware error reported by a driver.
type Fault struct {
	Op  string // driver operation, e.g. "serial read"
	Err error
}

func (f *Fault) Error() string {
	return f.Op + ": " + f.Err.Error()
}

func (f *Fault) Unwrap() error { return f.Err }

// IsFault reports whether err is, or wraps, a *Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// Block polls f until it returns something other than ErrWouldBlock.
func Block(f func() error) error {
	for {
		err := f()
		if err != ErrWouldBlock {
			return err
		}
	}
}

// DigitalOutput is a pin that can be driven.
type DigitalOutput interface {
	// SetHigh drives the pin high
	SetHigh() error

	// SetLow drives the pin low
	SetLow() error
}

// StatefulOutput is an output that can report what it is driving.
type StatefulOutput interface {
	DigitalOutput

	// IsSetHigh reports whether the output latch is high
	IsSetHigh() (bool, error)

	// IsSetLow reports whether the output latch is low
	IsSetLow() (bool, error)
}

// ToggleableOutput is an output that can invert itself.
type ToggleableOutput interface {
	DigitalOutput

	// Toggle inverts the output latch
	Toggle() error
}

// DigitalInput is a pin that can be sampled.
type DigitalInput interface {
	// IsHigh reports whether the pin reads high
	IsHigh() (bool, error)

	// IsLow reports whether the pin reads low
	IsLow() (bool, error)
}

// Delayer pauses the caller for at least d.
type Delayer interface {
	Delay(d time.Duration)
}
