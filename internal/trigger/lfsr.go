// Package trigger implements the pseudorandom source of the engine: a 32-bit
// xorshift register and the dust process that turns it into sparse grain
// onsets.
package trigger

import (
	"errors"

	"github.com/cbegin/grainfm-go/internal/fixed"
)

var ErrZeroSeed = errors.New("lfsr seed must be nonzero")

// LFSR is a 32-bit xorshift register with shifts (13, 17, 5). Those shifts
// give the maximal period 2^32-1 over all nonzero states, so a nonzero seed
// never reaches zero.
type LFSR struct {
	state uint32
}

func NewLFSR(seed uint32) (*LFSR, error) {
	if seed == 0 {
		return nil, ErrZeroSeed
	}
	return &LFSR{state: seed}, nil
}

// Next advances the register one step and returns the new state.
func (l *LFSR) Next() uint32 {
	x := l.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	l.state = x
	return x
}

// Reseed replaces the register state.
func (l *LFSR) Reseed(seed uint32) error {
	if seed == 0 {
		return ErrZeroSeed
	}
	l.state = seed
	return nil
}

// State returns the current register value without advancing.
func (l *LFSR) State() uint32 {
	return l.state
}

// Noise maps the current state to a uniform Q15 value in [-1, 1).
func (l *LFSR) Noise() fixed.Sample {
	return fixed.Sample(int32(l.state>>16) - 1<<15)
}

// Intn returns the next state reduced modulo n. n must be positive.
func (l *LFSR) Intn(n uint32) uint32 {
	return l.Next() % n
}
