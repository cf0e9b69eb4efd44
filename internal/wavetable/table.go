package wavetable

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/cbegin/grainfm-go/internal/fixed"
)

const twoPi = math.Pi * 2

const (
	MinSize = 2
	MaxSize = 1 << 16

	// DefaultSize is the table length used by NewSine and NewWindow.
	DefaultSize = 1024
	// DefaultBits is the sample depth used by NewSine and NewWindow.
	DefaultBits = 16
)

var ErrInvalidTable = errors.New("invalid wavetable")

// Shape maps an angle in [0, 2π) to an amplitude in [-1, 1].
type Shape func(theta float64) float64

// Sine is the default oscillator shape.
func Sine(theta float64) float64 { return math.Sin(theta) }

// RaisedCosine is the grain window: 0 at the table edges, 1 in the middle.
func RaisedCosine(theta float64) float64 { return 0.5 * (1 - math.Cos(theta)) }

// Triangle starts at 0, peaks at π/2 and is odd-symmetric like Sine.
func Triangle(theta float64) float64 {
	p := theta / twoPi
	switch {
	case p < 0.25:
		return 4 * p
	case p < 0.75:
		return 2 - 4*p
	default:
		return 4*p - 4
	}
}

// Table is one period of a waveform in Q15, read by the top bits of a 32-bit
// phase. A Table is immutable after Build and may be shared between any
// number of oscillators.
type Table struct {
	samples []fixed.Sample
	shift   uint
}

// Build samples shape at size points, scaled to a signed depth of bitDepth
// bits: round(shape(2π·i/size) · (2^(bitDepth-1) - 1)).
func Build(size int, shape Shape, bitDepth int) (*Table, error) {
	if size < MinSize || size > MaxSize || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: size %d is not a power of two in [%d, %d]", ErrInvalidTable, size, MinSize, MaxSize)
	}
	if bitDepth < 2 || bitDepth > 16 {
		return nil, fmt.Errorf("%w: bit depth %d outside [2, 16]", ErrInvalidTable, bitDepth)
	}
	if shape == nil {
		return nil, fmt.Errorf("%w: nil shape", ErrInvalidTable)
	}
	peak := float64(int64(1)<<(bitDepth-1) - 1)
	samples := make([]fixed.Sample, size)
	for i := range samples {
		samples[i] = fixed.Sample(math.Round(shape(twoPi*float64(i)/float64(size)) * peak))
	}
	return fromSamples(samples), nil
}

func fromSamples(samples []fixed.Sample) *Table {
	return &Table{
		samples: samples,
		shift:   uint(32 - bits.TrailingZeros(uint(len(samples)))),
	}
}

// NewSine builds the shared 16-bit sine table.
func NewSine(size int) (*Table, error) {
	return Build(size, Sine, DefaultBits)
}

// NewWindow builds the shared 16-bit raised-cosine grain window.
func NewWindow(size int) (*Table, error) {
	return Build(size, RaisedCosine, DefaultBits)
}

// Sample returns the entry addressed by the top log2(Len) bits of phase.
func (t *Table) Sample(phase uint32) fixed.Sample {
	return t.samples[phase>>t.shift]
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.samples)
}

// At returns entry i modulo Len.
func (t *Table) At(i int) fixed.Sample {
	return t.samples[i&(len(t.samples)-1)]
}

// ParseWAVB builds a table from a hex string of signed 8-bit values, one
// cycle long. The cycle length must be a power of two.
func ParseWAVB(h string) (*Table, error) {
	data, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}
	n := len(data)
	if n < MinSize || n > MaxSize || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: WAVB length %d is not a power of two", ErrInvalidTable, n)
	}
	samples := make([]fixed.Sample, n)
	for i, b := range data {
		// int8 -> 16-bit depth, same peak as Build at 16 bits.
		samples[i] = fixed.Sample(math.Round(float64(int8(b)) / 127.0 * 32767))
	}
	return fromSamples(samples), nil
}

// Named returns a built-in 16-bit table by name: "sine" or "triangle". Any
// other value is parsed as WAVB hex.
func Named(name string, size int) (*Table, error) {
	switch name {
	case "", "sine":
		return Build(size, Sine, DefaultBits)
	case "triangle":
		return Build(size, Triangle, DefaultBits)
	default:
		return ParseWAVB(name)
	}
}
