package effects

import "github.com/cbegin/grainfm-go/internal/fixed"

const three = 3 * fixed.One

// Saturator is a soft clipper using the rational tanh approximation
// x(27+x²)/(27+9x²), which reaches ±1 at |x| = 3 and is held there beyond.
type Saturator struct {
	preGain  fixed.Sample
	postGain fixed.Sample
}

// NewSaturator creates a saturator. preGain drives the curve, postGain
// scales the result.
func NewSaturator(preGain, postGain fixed.Sample) *Saturator {
	return &Saturator{preGain: preGain, postGain: postGain}
}

func (s *Saturator) Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample) {
	return fixed.Mul(SoftClip(fixed.Mul(l, s.preGain)), s.postGain),
		fixed.Mul(SoftClip(fixed.Mul(r, s.preGain)), s.postGain)
}

func (s *Saturator) Reset() {}

// SoftClip applies the rational tanh curve to x.
func SoftClip(x fixed.Sample) fixed.Sample {
	if x >= three {
		return fixed.One
	}
	if x <= -three {
		return -fixed.One
	}
	x2 := int64(x) * int64(x) >> fixed.FracBits
	num := int64(x) * (27<<fixed.FracBits + x2)
	den := 27<<fixed.FracBits + 9*x2
	return fixed.Saturate(num / den)
}
