// Package shaper holds the amplitude shaping stages: the table-driven grain
// envelope and the wavefolder applied at the mix stage.
package shaper

import (
	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

// Envelope reads the grain window for a voice with remaining of total samples
// left. The window is sampled at the midpoint of each grain sample, so the
// first and last samples of a grain are small but not zero. A finished or
// invalid grain reads as silence.
func Envelope(window *wavetable.Table, remaining, total uint32) fixed.Sample {
	if total == 0 || remaining == 0 || remaining > total {
		return 0
	}
	elapsed := uint64(total - remaining)
	phase := ((2*elapsed + 1) << 31) / uint64(total)
	return window.Sample(uint32(phase))
}

// Fold reflects x into [lo, hi] as a triangle wave. It gives the same result
// as reflecting at the bounds until x is in range (x = 2·hi − x above, x =
// 2·lo − x below) but runs in constant time. An empty range folds to lo.
func Fold(x, lo, hi fixed.Sample) fixed.Sample {
	if x >= lo && x <= hi {
		return x
	}
	if hi <= lo {
		return lo
	}
	span := int64(hi) - int64(lo)
	period := 2 * span
	d := (int64(x) - int64(lo)) % period
	if d < 0 {
		d += period
	}
	if d > span {
		d = period - d
	}
	return fixed.Sample(int64(lo) + d)
}

// Bounds returns the symmetric fold range ±|level·depth|.
func Bounds(level, depth fixed.Sample) (lo, hi fixed.Sample) {
	hi = fixed.Abs(fixed.Mul(level, depth))
	return fixed.Neg(hi), hi
}
