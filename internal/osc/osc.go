// Package osc provides the phase-accumulator oscillator shared by grain
// carriers, grain modulators and the slow modulators.
//
// Phase is a 32-bit unsigned counter; one full table period is 2^32. Phase
// updates wrap modulo 2^32 by construction. Frequencies above half the sample
// rate alias: the caller is responsible for staying below Nyquist.
package osc

import (
	"math"

	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

const phaseSpan = 1 << 32

// Accumulator is a phase accumulator. The zero value is silent at phase 0.
type Accumulator struct {
	Phase     uint32
	Increment uint32
}

// IncrementFor returns round(freq * 2^32 / sampleRate) reduced modulo 2^32.
// Negative frequencies run the phase backwards.
func IncrementFor(freq, sampleRate float64) uint32 {
	if sampleRate <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0
	}
	cycles := math.Mod(freq/sampleRate, 1)
	if cycles < 0 {
		cycles++
	}
	return uint32(uint64(math.Round(cycles*phaseSpan)) & (phaseSpan - 1))
}

// SetFrequency recomputes the increment for freq at sampleRate.
func (a *Accumulator) SetFrequency(freq, sampleRate float64) {
	a.Increment = IncrementFor(freq, sampleRate)
}

// Advance steps the phase by one increment and returns the table sample at
// the new phase.
func (a *Accumulator) Advance(t *wavetable.Table) fixed.Sample {
	a.Phase += a.Increment
	return t.Sample(a.Phase)
}

// AdvanceBy steps the phase by the increment plus extra, the frequency
// modulation offset for this sample.
func (a *Accumulator) AdvanceBy(t *wavetable.Table, extra uint32) fixed.Sample {
	a.Phase += a.Increment + extra
	return t.Sample(a.Phase)
}

// Reset returns the phase to zero and keeps the frequency.
func (a *Accumulator) Reset() {
	a.Phase = 0
}

// Frequency converts the increment back to Hz at sampleRate.
func (a *Accumulator) Frequency(sampleRate float64) float64 {
	return float64(a.Increment) * sampleRate / phaseSpan
}
