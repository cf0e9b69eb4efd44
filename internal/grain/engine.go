// Package grain wires the trigger, voice pool, shaping and delay stages into
// a single sample-clocked engine.
package grain

import (
	"fmt"
	"math"

	"github.com/cbegin/grainfm-go/internal/effects"
	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/fm"
	"github.com/cbegin/grainfm-go/internal/lfo"
	"github.com/cbegin/grainfm-go/internal/osc"
	"github.com/cbegin/grainfm-go/internal/shaper"
	"github.com/cbegin/grainfm-go/internal/trigger"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

const (
	limiterAttackMs  = 1
	limiterReleaseMs = 100
)

// Frame is the observable result of one tick.
type Frame struct {
	// Mix is the saturating sum of every voice output plus noise.
	Mix fixed.Sample
	// Folded is Mix after the wavefolder and output gain.
	Folded      fixed.Sample
	Left, Right fixed.Sample
	// Active counts the voices that produced a sample this tick, including
	// voices that finished on it.
	Active    int
	Triggered bool
}

// Stats are running counters since construction or the last Reset.
type Stats struct {
	Ticks    uint64
	Triggers uint64
	Started  uint64
	Dropped  uint64
}

type Engine struct {
	params Params

	wave   *wavetable.Table
	window *wavetable.Table

	rng      *trigger.LFSR
	rngStart uint32
	dust     *trigger.Dust
	pool     *fm.Pool

	carriers []float64
	mods     []float64

	depth   *lfo.Ramp
	foldLFO *lfo.LFO

	foldDepth fixed.Sample
	gain      fixed.Sample
	noise     fixed.Sample

	bus   *effects.Bus
	chain *effects.Chain

	outs  []fixed.Sample
	stats Stats
}

// New validates p and builds an engine. All state is allocated here; Tick
// never allocates.
func New(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	wave, err := wavetable.Named(p.Wave, p.TableSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	window, err := wavetable.Build(p.TableSize, wavetable.RaisedCosine, wavetable.DefaultBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	sine := wave
	if p.Wave != "" && p.Wave != "sine" {
		if sine, err = wavetable.Build(p.TableSize, wavetable.Sine, wavetable.DefaultBits); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
	}

	rng, err := trigger.NewLFSR(p.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	groups := p.GroupCount()
	var carriers, mods []float64
	if len(p.CarrierFreqs) > 0 {
		carriers = append([]float64(nil), p.CarrierFreqs...)
		mods = append([]float64(nil), p.ModFreqs...)
	} else {
		carriers, mods = deriveFrequencies(rng, groups)
	}
	dust, err := trigger.NewDust(rng, p.Density, p.FirstOnset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	pool, err := fm.NewPool(groups*p.GrainsPerGroup, p.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	bus, err := effects.NewBus(p.DelaySamples, feedbackSample(p.FeedbackGain), fixed.FromFloat(p.DelayWet))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	chain := effects.NewChain(bus)
	if p.Diffusion > 0 {
		d, err := effects.NewDiffuser(p.DelaySamples, feedbackSample(p.Diffusion))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParams, err)
		}
		chain.Add(d)
	}
	if p.Drive > 0 {
		chain.Add(effects.NewSaturator(fixed.FromFloat(p.Drive), fixed.One))
	}
	if p.LimitThreshold > 0 {
		chain.Add(effects.NewLimiter(p.SampleRate, fixed.FromFloat(p.LimitThreshold), limiterAttackMs, limiterReleaseMs))
	}

	rampLen := uint64(math.Round(p.ModRampSeconds * p.SampleRate))
	e := &Engine{
		params:    p,
		wave:      wave,
		window:    window,
		rng:       rng,
		rngStart:  rng.State(),
		dust:      dust,
		pool:      pool,
		carriers:  carriers,
		mods:      mods,
		depth:     lfo.NewRamp(depthIncrement(p.ModDepthStartHz, p.SampleRate), depthIncrement(p.ModDepthEndHz, p.SampleRate), rampLen),
		foldLFO:   lfo.New(sine, fixed.One, p.FoldRateHz, p.SampleRate),
		foldDepth: fixed.FromFloat(p.FoldDepth),
		gain:      fixed.FromFloat(p.OutputGain),
		noise:     fixed.FromFloat(p.NoiseLevel),
		bus:       bus,
		chain:     chain,
		outs:      make([]fixed.Sample, 0, pool.Capacity()),
	}
	return e, nil
}

// depthIncrement converts a frequency deviation in Hz to phase-increment
// units, signed so a negative deviation stays negative.
func depthIncrement(hz, sampleRate float64) int64 {
	if hz < 0 {
		return -int64(osc.IncrementFor(-hz, sampleRate))
	}
	return int64(osc.IncrementFor(hz, sampleRate))
}

// feedbackSample converts a gain known to be in [0, 1) without letting
// rounding reach 1.0.
func feedbackSample(g float64) fixed.Sample {
	return min(fixed.FromFloat(g), fixed.One-1)
}

// Tick advances the engine by one sample.
func (e *Engine) Tick() Frame {
	var f Frame
	if e.dust.Step() {
		f.Triggered = true
		e.stats.Triggers++
		for g := range e.carriers {
			if _, ok := e.pool.Allocate(e.carriers[g], e.mods[g], e.params.GrainSamples, g); ok {
				e.stats.Started++
			} else {
				e.stats.Dropped++
			}
		}
	}

	depth := e.depth.Next()
	level := fixed.One
	if e.foldLFO.Active() {
		level = e.foldLFO.Sample()
	}

	e.outs = e.pool.Tick(e.outs, e.wave, e.window, depth)
	f.Active = len(e.outs)

	var mix int64
	for _, s := range e.outs {
		mix += int64(s)
	}
	if e.noise != 0 {
		mix += int64(fixed.Mul(e.rng.Noise(), e.noise))
	}
	f.Mix = fixed.Saturate(mix)

	folded := f.Mix
	if e.foldDepth != 0 {
		lo, hi := shaper.Bounds(level, e.foldDepth)
		folded = shaper.Fold(folded, lo, hi)
	}
	f.Folded = fixed.Mul(folded, e.gain)
	f.Left, f.Right = e.chain.Process(f.Folded, f.Folded)
	e.stats.Ticks++
	return f
}

// Process fills dst with interleaved stereo float32 frames.
func (e *Engine) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		f := e.Tick()
		dst[i] = f.Left.Float32()
		dst[i+1] = f.Right.Float32()
	}
}

// ProcessPCM16 fills dst with interleaved stereo 16-bit frames.
func (e *Engine) ProcessPCM16(dst []int16) {
	for i := 0; i+1 < len(dst); i += 2 {
		f := e.Tick()
		dst[i] = fixed.Clip16(f.Left)
		dst[i+1] = fixed.Clip16(f.Right)
	}
}

// Reset returns the engine to its state right after New. Host changes made
// through the setters are kept.
func (e *Engine) Reset() {
	// rngStart is never zero: it is a state of a register seeded nonzero.
	_ = e.rng.Reseed(e.rngStart)
	e.dust.Reset(e.params.FirstOnset)
	e.pool.Reset()
	e.depth.Reset()
	e.foldLFO.Reset()
	e.chain.Reset()
	e.stats = Stats{}
}

// SetDensity changes the onset density for the next reloads of the dust
// countdown.
func (e *Engine) SetDensity(density uint32) error {
	if err := e.dust.SetDensity(density); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	e.params.Density = density
	return nil
}

// SetFeedback changes the delay bus feedback gain.
func (e *Engine) SetFeedback(gain float64) error {
	if !(gain >= 0 && gain < 1) {
		return invalid("feedback gain must be in [0, 1), got %v", gain)
	}
	if err := e.bus.SetFeedback(feedbackSample(gain)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	e.params.FeedbackGain = gain
	return nil
}

// SetGroupFrequencies retunes one voice group. Grains already sounding keep
// their frequencies.
func (e *Engine) SetGroupFrequencies(group int, carrier, mod float64) error {
	if group < 0 || group >= len(e.carriers) {
		return invalid("group %d out of range [0, %d)", group, len(e.carriers))
	}
	if math.IsNaN(carrier) || math.IsInf(carrier, 0) || math.IsNaN(mod) || math.IsInf(mod, 0) {
		return invalid("group %d frequency must be finite", group)
	}
	e.carriers[group] = carrier
	e.mods[group] = mod
	return nil
}

// GroupFrequencies returns the carrier and modulator frequency of group.
func (e *Engine) GroupFrequencies(group int) (carrier, mod float64) {
	return e.carriers[group], e.mods[group]
}

func (e *Engine) Groups() int {
	return len(e.carriers)
}

func (e *Engine) ActiveVoices() int {
	return e.pool.ActiveCount()
}

func (e *Engine) Capacity() int {
	return e.pool.Capacity()
}

func (e *Engine) SampleRate() float64 {
	return e.params.SampleRate
}

// Params returns the current parameters, including host changes.
func (e *Engine) Params() Params {
	p := e.params
	p.CarrierFreqs = append([]float64(nil), e.carriers...)
	p.ModFreqs = append([]float64(nil), e.mods...)
	return p
}

func (e *Engine) Stats() Stats {
	return e.stats
}
