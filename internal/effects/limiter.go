package effects

import (
	"math"

	"github.com/cbegin/grainfm-go/internal/fixed"
)

// Limiter holds the bus output under a threshold with a linked-stereo peak
// follower. Gain is threshold/envelope above the threshold and unity below.
type Limiter struct {
	threshold fixed.Sample
	attack    fixed.Sample // coefficient
	release   fixed.Sample // coefficient
	env       fixed.Sample
}

// NewLimiter creates a limiter. threshold is in (0, 1]; attackMs and
// releaseMs set the follower time constants.
func NewLimiter(sampleRate float64, threshold fixed.Sample, attackMs, releaseMs float64) *Limiter {
	return &Limiter{
		threshold: threshold,
		attack:    coefficient(attackMs, sampleRate),
		release:   coefficient(releaseMs, sampleRate),
	}
}

func coefficient(ms, sampleRate float64) fixed.Sample {
	if ms <= 0 || sampleRate <= 0 {
		return fixed.One
	}
	return max(fixed.FromFloat(1-math.Exp(-1000/(ms*sampleRate))), 1)
}

func (c *Limiter) Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample) {
	peak := max(fixed.Abs(l), fixed.Abs(r))
	coef := c.release
	if peak > c.env {
		coef = c.attack
	}
	c.env = fixed.Add(c.env, fixed.Mul(coef, fixed.Sub(peak, c.env)))
	if c.threshold <= 0 || c.env <= c.threshold {
		return l, r
	}
	gain := fixed.Saturate((int64(c.threshold) << fixed.FracBits) / int64(c.env))
	return fixed.Mul(l, gain), fixed.Mul(r, gain)
}

// Envelope returns the follower level.
func (c *Limiter) Envelope() fixed.Sample {
	return c.env
}

func (c *Limiter) Reset() {
	c.env = 0
}
