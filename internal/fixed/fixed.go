// Package fixed implements the Q15 sample format used throughout the engine.
//
// A Sample holds a signed value scaled by 2^15 in an int32, so 1.0 is 32768
// and the headroom above full scale is roughly ±65536. Every arithmetic
// operation goes through an int64 intermediate and saturates to the int32
// range; nothing relies on implicit host overflow.
package fixed

import "math"

// FracBits is the number of fractional bits in a Sample.
const FracBits = 15

// Sample is a Q15 fixed-point value.
type Sample int32

const (
	One  Sample = 1 << FracBits
	Half Sample = 1 << (FracBits - 1)
	Max  Sample = math.MaxInt32
	Min  Sample = math.MinInt32
)

// Saturate narrows v to the Sample range.
func Saturate(v int64) Sample {
	if v > math.MaxInt32 {
		return Max
	}
	if v < math.MinInt32 {
		return Min
	}
	return Sample(v)
}

func Add(a, b Sample) Sample {
	return Saturate(int64(a) + int64(b))
}

func Sub(a, b Sample) Sample {
	return Saturate(int64(a) - int64(b))
}

// Mul multiplies two Q15 values. The product is shifted arithmetically, so
// results round toward negative infinity.
func Mul(a, b Sample) Sample {
	return Saturate((int64(a) * int64(b)) >> FracBits)
}

func Neg(a Sample) Sample {
	return Saturate(-int64(a))
}

func Abs(a Sample) Sample {
	if a < 0 {
		return Neg(a)
	}
	return a
}

// FromFloat converts f to Q15 with rounding and saturation.
func FromFloat(f float64) Sample {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * float64(One))
	if v >= math.MaxInt32 {
		return Max
	}
	if v <= math.MinInt32 {
		return Min
	}
	return Sample(v)
}

// Float returns s as a float64 where One maps to 1.0.
func (s Sample) Float() float64 {
	return float64(s) / float64(One)
}

// Float32 returns s as a float32 clamped to [-1, 1] for audio backends.
func (s Sample) Float32() float32 {
	f := float32(s) / float32(One)
	if f > 1 {
		return 1
	}
	if f < -1 {
		return -1
	}
	return f
}

// Clip16 saturates s to signed 16-bit PCM.
func Clip16(s Sample) int16 {
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
