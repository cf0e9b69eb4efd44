package lfo

import (
	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/osc"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

// LFO is a slow table oscillator that produces one modulation value per
// sample. It is global to an engine, not per voice.
type LFO struct {
	acc   osc.Accumulator
	table *wavetable.Table
	depth fixed.Sample
}

// New returns an LFO reading table at rateHz with the given depth.
func New(table *wavetable.Table, depth fixed.Sample, rateHz, sampleRate float64) *LFO {
	l := &LFO{table: table}
	l.Set(depth, rateHz, sampleRate)
	return l
}

// Set configures depth and rate. The phase is kept.
func (l *LFO) Set(depth fixed.Sample, rateHz, sampleRate float64) {
	l.depth = depth
	l.acc.SetFrequency(rateHz, sampleRate)
}

// Sample advances the LFO by one sample and returns a value in
// [-depth, +depth]. Returns 0 if depth or rate is zero.
func (l *LFO) Sample() fixed.Sample {
	if !l.Active() {
		return 0
	}
	return fixed.Mul(l.acc.Advance(l.table), l.depth)
}

// Active returns true if the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.acc.Increment != 0 && l.table != nil
}

// Reset zeros the LFO phase.
func (l *LFO) Reset() {
	l.acc.Reset()
}
