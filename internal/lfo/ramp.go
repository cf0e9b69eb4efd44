package lfo

import "math"

const rampFrac = 16

// MaxRampSamples is the longest ramp; longer lengths are clamped to it.
const MaxRampSamples = math.MaxInt32

// Ramp moves linearly from start to end over a fixed number of samples and
// then holds end. Values are integers in whatever unit the caller needs; the
// slope is kept with 16 fractional bits so long ramps do not stall.
type Ramp struct {
	start, end int64
	step       int64
	value      int64
	samples    uint64
	left       uint64
}

// NewRamp builds a ramp. A zero length jumps straight to end.
func NewRamp(start, end int64, samples uint64) *Ramp {
	samples = min(samples, MaxRampSamples)
	r := &Ramp{start: start, end: end, samples: samples}
	if samples > 0 {
		r.step = ((end - start) << rampFrac) / int64(samples)
	}
	r.Reset()
	return r
}

// Next returns the current value and moves one sample along the ramp.
func (r *Ramp) Next() int64 {
	v := r.value >> rampFrac
	if r.left == 0 {
		return r.end
	}
	r.left--
	if r.left == 0 {
		r.value = r.end << rampFrac
	} else {
		r.value += r.step
	}
	return v
}

// Value returns the current value without advancing.
func (r *Ramp) Value() int64 {
	if r.left == 0 {
		return r.end
	}
	return r.value >> rampFrac
}

// Done reports whether the ramp has reached end.
func (r *Ramp) Done() bool {
	return r.left == 0
}

// Reset rewinds to start.
func (r *Ramp) Reset() {
	r.value = r.start << rampFrac
	r.left = r.samples
}
