package effects

import (
	"fmt"

	"github.com/cbegin/grainfm-go/internal/fixed"
)

// Diffuser smears the delay bus output through two allpass stages per
// channel. It adds density to the single comb tap without changing the
// overall gain.
type Diffuser struct {
	left, right [2]allpassFilter
}

type allpassFilter struct {
	buf []fixed.Sample
	pos int
	fb  fixed.Sample
}

// NewDiffuser creates a diffuser scaled from base samples. gain is the
// allpass coefficient and must be in [0, 1).
func NewDiffuser(base int, gain fixed.Sample) (*Diffuser, error) {
	if base <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, base)
	}
	if gain < 0 || gain >= fixed.One {
		return nil, fmt.Errorf("%w: allpass gain %.4f", ErrInvalidFeedback, gain.Float())
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	d := &Diffuser{}
	for i := range apLens {
		n := max(apLens[i], 1)
		d.left[i] = allpassFilter{buf: make([]fixed.Sample, n), fb: gain}
		d.right[i] = allpassFilter{buf: make([]fixed.Sample, n+n/7+1), fb: gain}
	}
	return d, nil
}

func (d *Diffuser) Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample) {
	for i := range d.left {
		l = d.left[i].process(l)
		r = d.right[i].process(r)
	}
	return l, r
}

func (d *Diffuser) Reset() {
	for i := range d.left {
		d.left[i].reset()
		d.right[i].reset()
	}
}

func (a *allpassFilter) process(in fixed.Sample) fixed.Sample {
	bufOut := a.buf[a.pos]
	out := fixed.Sub(bufOut, in)
	a.buf[a.pos] = fixed.Add(in, fixed.Mul(bufOut, a.fb))
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func (a *allpassFilter) reset() {
	for j := range a.buf {
		a.buf[j] = 0
	}
	a.pos = 0
}
