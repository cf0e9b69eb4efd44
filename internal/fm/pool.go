// Package fm implements the grain voice pool. Every voice is a two-operator
// FM pair (modulator into carrier) with its own grain envelope counter.
package fm

import (
	"errors"
	"fmt"

	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/osc"
	"github.com/cbegin/grainfm-go/internal/shaper"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

var ErrInvalidCapacity = errors.New("voice pool capacity must be positive")

type State uint8

const (
	Free State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "free"
}

// Voice is one grain slot. Voices are owned by their Pool; callers only ever
// see copies.
type Voice struct {
	State         State
	Carrier       osc.Accumulator
	Modulator     osc.Accumulator
	LifeRemaining uint32
	LifeTotal     uint32
	BaseFreq      float64
	ModFreq       float64
	Group         int
}

// Pool is a fixed-capacity arena of voices. Allocation and release are the
// only state transitions and both are linear scans over the slots.
type Pool struct {
	sampleRate float64
	voices     []Voice
	active     int
	dropped    uint64
}

func NewPool(capacity int, sampleRate float64) (*Pool, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("voice pool sample rate must be positive: %v", sampleRate)
	}
	return &Pool{
		sampleRate: sampleRate,
		voices:     make([]Voice, capacity),
	}, nil
}

// Allocate starts a grain in the first free slot and returns its index. When
// every slot is busy the request is dropped and counted; it is never retried.
// A zero lifetime is not a grain and is ignored.
func (p *Pool) Allocate(baseFreq, modFreq float64, lifeTotal uint32, group int) (int, bool) {
	if lifeTotal == 0 {
		return -1, false
	}
	for i := range p.voices {
		v := &p.voices[i]
		if v.State != Free {
			continue
		}
		*v = Voice{
			State:         Active,
			LifeRemaining: lifeTotal,
			LifeTotal:     lifeTotal,
			BaseFreq:      baseFreq,
			ModFreq:       modFreq,
			Group:         group,
		}
		v.Carrier.SetFrequency(baseFreq, p.sampleRate)
		v.Modulator.SetFrequency(modFreq, p.sampleRate)
		p.active++
		return i, true
	}
	p.dropped++
	return -1, false
}

// Tick advances every active voice by one sample and appends one output per
// active voice to dst[:0], in slot order. depth scales the modulator into a
// carrier phase-increment offset: a full-scale modulator sample adds depth to
// the carrier increment. Voices whose life runs out are released after their
// last sample has been emitted.
func (p *Pool) Tick(dst []fixed.Sample, sine, window *wavetable.Table, depth int64) []fixed.Sample {
	dst = dst[:0]
	if p.active == 0 {
		return dst
	}
	for i := range p.voices {
		v := &p.voices[i]
		if v.State != Active {
			continue
		}
		m := v.Modulator.Advance(sine)
		extra := uint32((int64(m) * depth) >> fixed.FracBits)
		c := v.Carrier.AdvanceBy(sine, extra)
		env := shaper.Envelope(window, v.LifeRemaining, v.LifeTotal)
		dst = append(dst, fixed.Mul(c, env))
		v.LifeRemaining--
		if v.LifeRemaining == 0 {
			*v = Voice{}
			p.active--
		}
	}
	return dst
}

// Reset frees every voice and zeroes all accumulators.
func (p *Pool) Reset() {
	for i := range p.voices {
		p.voices[i] = Voice{}
	}
	p.active = 0
	p.dropped = 0
}

func (p *Pool) Capacity() int {
	return len(p.voices)
}

func (p *Pool) ActiveCount() int {
	return p.active
}

// Dropped returns the number of allocation requests refused because the pool
// was full.
func (p *Pool) Dropped() uint64 {
	return p.dropped
}

// Voice returns a copy of slot i.
func (p *Pool) Voice(i int) Voice {
	return p.voices[i]
}
