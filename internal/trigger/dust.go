package trigger

import (
	"errors"
	"fmt"
)

// MinDensity is the smallest accepted density. Below it nearly every reload
// is 0 or 1, which fires again on the next tick and is swallowed by the edge
// detector, so lowering the density would thin the onsets instead.
const MinDensity = 4

var ErrInvalidDensity = fmt.Errorf("dust density must be at least %d", MinDensity)

// Dust is a quasi-Poisson onset generator. On every firing the countdown is
// reloaded with the register value mod density. A reload of 0 or 1 fires on
// the next tick and merges into the previous onset, so triggers are at least
// two ticks apart. Intervals are deterministic for a given seed.
type Dust struct {
	lfsr      *LFSR
	counter   int64
	density   uint32
	prevFired bool
}

// NewDust returns a generator whose first firing happens at tick index
// firstOnset (0-based).
func NewDust(lfsr *LFSR, density uint32, firstOnset uint32) (*Dust, error) {
	if lfsr == nil {
		return nil, errors.New("dust needs an lfsr")
	}
	if density < MinDensity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDensity, density)
	}
	return &Dust{
		lfsr:    lfsr,
		counter: int64(firstOnset) + 1,
		density: density,
	}, nil
}

// Step advances one tick. It returns true on the rising edge of a firing:
// two firings on consecutive ticks produce a single trigger.
func (d *Dust) Step() bool {
	state := d.lfsr.Next()
	d.counter--
	fired := d.counter <= 0
	if fired {
		d.counter = int64(state % d.density)
	}
	trig := fired && !d.prevFired
	d.prevFired = fired
	return trig
}

// SetDensity changes the upper bound on the next reloads. It does not touch
// the countdown in progress.
func (d *Dust) SetDensity(density uint32) error {
	if density < MinDensity {
		return fmt.Errorf("%w: %d", ErrInvalidDensity, density)
	}
	d.density = density
	return nil
}

func (d *Dust) Density() uint32 {
	return d.density
}

// Countdown returns the ticks left before the next firing.
func (d *Dust) Countdown() int64 {
	return d.counter
}

// Reset rewinds the countdown so the next firing happens firstOnset ticks
// from now and clears the edge detector. The register is not reseeded.
func (d *Dust) Reset(firstOnset uint32) {
	d.counter = int64(firstOnset) + 1
	d.prevFired = false
}
