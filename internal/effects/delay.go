package effects

import (
	"errors"
	"fmt"

	"github.com/cbegin/grainfm-go/internal/fixed"
)

var (
	ErrInvalidLength   = errors.New("delay length must be positive")
	ErrInvalidFeedback = errors.New("delay feedback must be in [0, 1)")
)

// Line is a single-tap recirculating delay (a comb filter). It stands in for
// a reverb: there is no diffusion network, only one feedback tap.
type Line struct {
	buf      []fixed.Sample
	pos      int
	feedback fixed.Sample
}

// NewLine creates a delay line of length samples with feedback in [0, 1).
func NewLine(length int, feedback fixed.Sample) (*Line, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if feedback < 0 || feedback >= fixed.One {
		return nil, fmt.Errorf("%w: %.4f", ErrInvalidFeedback, feedback.Float())
	}
	return &Line{
		buf:      make([]fixed.Sample, length),
		feedback: feedback,
	}, nil
}

// Process returns the sample written length ticks ago and stores in plus the
// fed-back output in its place.
func (d *Line) Process(in fixed.Sample) fixed.Sample {
	out := d.buf[d.pos]
	d.buf[d.pos] = fixed.Add(in, fixed.Mul(out, d.feedback))
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

func (d *Line) SetFeedback(feedback fixed.Sample) error {
	if feedback < 0 || feedback >= fixed.One {
		return fmt.Errorf("%w: %.4f", ErrInvalidFeedback, feedback.Float())
	}
	d.feedback = feedback
	return nil
}

func (d *Line) Len() int { return len(d.buf) }

// Cursor returns the current read/write position.
func (d *Line) Cursor() int { return d.pos }

func (d *Line) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}

// Bus is the stereo delay bus: one Line per channel and a wet/dry mix. The
// right line is longer by the same ratio the comb bank uses between its
// first two combs, which keeps the channels from repeating in lockstep.
type Bus struct {
	left, right *Line
	wet         fixed.Sample
	dry         fixed.Sample
}

// NewBus creates a stereo bus whose left line is length samples long. wet is
// clamped to [0, 1]; with wet == 1 the output is exactly the line output.
func NewBus(length int, feedback, wet fixed.Sample) (*Bus, error) {
	left, err := NewLine(length, feedback)
	if err != nil {
		return nil, err
	}
	right, err := NewLine(max(length*1117/1000, 1), feedback)
	if err != nil {
		return nil, err
	}
	wet = clamp(wet, 0, fixed.One)
	return &Bus{left: left, right: right, wet: wet, dry: fixed.One - wet}, nil
}

func (b *Bus) Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample) {
	dl := b.left.Process(l)
	dr := b.right.Process(r)
	return fixed.Add(fixed.Mul(l, b.dry), fixed.Mul(dl, b.wet)),
		fixed.Add(fixed.Mul(r, b.dry), fixed.Mul(dr, b.wet))
}

func (b *Bus) SetFeedback(feedback fixed.Sample) error {
	if err := b.left.SetFeedback(feedback); err != nil {
		return err
	}
	return b.right.SetFeedback(feedback)
}

func (b *Bus) Reset() {
	b.left.Reset()
	b.right.Reset()
}

func clamp(v, lo, hi fixed.Sample) fixed.Sample {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
