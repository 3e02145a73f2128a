// Package spi is a bit-banged SPI master built on cherry GPIO pins.
//
// Bitbang satisfies tinygo.org/x/drivers.SPI, so device drivers from that
// module run on top of it.
package spi

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"cherry/hal"
)

// Mode is the SPI clock polarity and phase (0-3)
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on rising edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on falling edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on falling edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on rising edge)
type Mode uint8

// Config holds the bus settings.
type Config struct {
	Mode Mode
	// LSBFirst shifts the least significant bit first. The default is MSB
	// first.
	LSBFirst bool
	// HalfPeriod is the time the clock spends in each state. Zero runs as
	// fast as the pins toggle; a non-zero value needs Delay.
	HalfPeriod time.Duration
	Delay      hal.Delayer
}

var (
	ErrInvalidMode = errors.New("spi: invalid mode")
	ErrNoDelay     = errors.New("spi: half period set without a delayer")
	ErrLength      = errors.New("spi: tx and rx buffer lengths must match")
)

// Bitbang drives SCK and MOSI and samples MISO.
type Bitbang struct {
	sck  hal.DigitalOutput
	mosi hal.DigitalOutput
	miso hal.DigitalInput
	cfg  Config

	cpol bool // clock idle high
	cpha bool // sample on the second edge
}

var _ drivers.SPI = (*Bitbang)(nil)

// New configures a bus on the given pins and parks the clock at its idle
// level. miso may be nil for a write-only bus; reads then return zero.
func New(sck, mosi hal.DigitalOutput, miso hal.DigitalInput, cfg Config) (*Bitbang, error) {
	if cfg.Mode > 3 {
		return nil, ErrInvalidMode
	}
	if cfg.HalfPeriod > 0 && cfg.Delay == nil {
		return nil, ErrNoDelay
	}
	b := &Bitbang{
		sck:  sck,
		mosi: mosi,
		miso: miso,
		cfg:  cfg,
		cpol: cfg.Mode&2 != 0,
		cpha: cfg.Mode&1 != 0,
	}
	if err := b.clock(b.cpol); err != nil {
		return nil, err
	}
	if err := mosi.SetLow(); err != nil {
		return nil, err
	}
	return b, nil
}

func set(p hal.DigitalOutput, high bool) error {
	if high {
		return p.SetHigh()
	}
	return p.SetLow()
}

func (b *Bitbang) clock(high bool) error { return set(b.sck, high) }

func (b *Bitbang) wait() {
	if b.cfg.HalfPeriod > 0 {
		b.cfg.Delay.Delay(b.cfg.HalfPeriod)
	}
}

func (b *Bitbang) sample() (bool, error) {
	if b.miso == nil {
		return false, nil
	}
	return b.miso.IsHigh()
}

// Transfer shifts w out and returns the byte shifted in.
func (b *Bitbang) Transfer(w byte) (byte, error) {
	var r byte
	for i := 0; i < 8; i++ {
		bit := 7 - i
		if b.cfg.LSBFirst {
			bit = i
		}
		mask := byte(1) << bit

		// CPHA=0: data is valid before the first edge
		if !b.cpha {
			if err := set(b.mosi, w&mask != 0); err != nil {
				return r, err
			}
		}
		b.wait()
		if err := b.clock(!b.cpol); err != nil {
			return r, err
		}

		if b.cpha {
			if err := set(b.mosi, w&mask != 0); err != nil {
				return r, err
			}
		} else {
			high, err := b.sample()
			if err != nil {
				return r, err
			}
			if high {
				r |= mask
			}
		}
		b.wait()
		if err := b.clock(b.cpol); err != nil {
			return r, err
		}

		// CPHA=1: sample on the trailing edge
		if b.cpha {
			high, err := b.sample()
			if err != nil {
				return r, err
			}
			if high {
				r |= mask
			}
		}
	}
	return r, nil
}

// Tx writes w and reads into r. Either may be nil; when both are given they
// must have the same length.
func (b *Bitbang) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return ErrLength
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, err := b.Transfer(out)
		if err != nil {
			return err
		}
		if r != nil {
			r[i] = in
		}
	}
	return nil
}
