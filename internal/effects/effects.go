package effects

import "github.com/cbegin/grainfm-go/internal/fixed"

// Effector processes one stereo frame of fixed-point audio.
type Effector interface {
	Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r fixed.Sample) (fixed.Sample, fixed.Sample) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int {
	return len(c.effects)
}
