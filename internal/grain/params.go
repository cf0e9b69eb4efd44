package grain

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbegin/grainfm-go/internal/lfo"
	"github.com/cbegin/grainfm-go/internal/trigger"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

var ErrInvalidParams = errors.New("invalid grain engine parameters")

const (
	// MaxVoices bounds the pool so a config typo cannot allocate gigabytes.
	MaxVoices = 4096

	minDerivedFreq  = 100
	derivedFreqSpan = 5901
)

// Params configures an Engine. Frequencies are in Hz, lengths in samples and
// levels are linear with 1.0 as full scale.
type Params struct {
	SampleRate float64 `toml:"sample_rate"`
	Seed       uint32  `toml:"seed"`
	// Density bounds the countdown reloaded after each grain onset, in
	// samples. Larger values give sparser onsets. The minimum is
	// trigger.MinDensity.
	Density    uint32 `toml:"density"`
	FirstOnset uint32 `toml:"first_onset"`

	GrainSamples   uint32 `toml:"grain_samples"`
	GrainsPerGroup int    `toml:"grains_per_group"`
	// Groups is only used when CarrierFreqs is empty; group frequencies are
	// then drawn from the trigger register.
	Groups       int       `toml:"groups"`
	CarrierFreqs []float64 `toml:"carrier_freqs"`
	ModFreqs     []float64 `toml:"mod_freqs"`

	ModDepthStartHz float64 `toml:"mod_depth_start_hz"`
	ModDepthEndHz   float64 `toml:"mod_depth_end_hz"`
	ModRampSeconds  float64 `toml:"mod_ramp_seconds"`

	FoldRateHz float64 `toml:"fold_rate_hz"`
	FoldDepth  float64 `toml:"fold_depth"`
	OutputGain float64 `toml:"output_gain"`
	NoiseLevel float64 `toml:"noise_level"`

	DelaySamples int     `toml:"delay_samples"`
	FeedbackGain float64 `toml:"feedback_gain"`
	DelayWet     float64 `toml:"delay_wet"`
	Diffusion    float64 `toml:"diffusion"`
	Drive        float64 `toml:"drive"`

	// LimitThreshold enables the output limiter when positive.
	LimitThreshold float64 `toml:"limit_threshold"`

	TableSize int    `toml:"table_size"`
	Wave      string `toml:"wave"`
}

func DefaultParams() Params {
	return Params{
		SampleRate:      44100,
		Seed:            0x2545F491,
		Density:         882,
		FirstOnset:      0,
		GrainSamples:    882,
		GrainsPerGroup:  32,
		Groups:          5,
		ModDepthStartHz: 0,
		ModDepthEndHz:   2000,
		ModRampSeconds:  5,
		FoldRateHz:      20,
		FoldDepth:       1,
		OutputGain:      0.1,
		NoiseLevel:      0,
		DelaySamples:    1000,
		FeedbackGain:    0.6,
		DelayWet:        0.4,
		Diffusion:       0,
		Drive:           0,
		TableSize:       wavetable.DefaultSize,
		Wave:            "sine",
	}
}

// GroupCount returns the number of voice groups the params describe.
func (p Params) GroupCount() int {
	if len(p.CarrierFreqs) > 0 {
		return len(p.CarrierFreqs)
	}
	return p.Groups
}

// Validate reports the first problem with p, wrapped in ErrInvalidParams.
func (p Params) Validate() error {
	switch {
	case !(p.SampleRate > 0) || math.IsInf(p.SampleRate, 0):
		return invalid("sample rate must be positive, got %v", p.SampleRate)
	case p.Seed == 0:
		return invalid("seed must be nonzero")
	case p.Density < trigger.MinDensity:
		return invalid("density must be at least %d, got %d", trigger.MinDensity, p.Density)
	case p.GrainSamples == 0:
		return invalid("grain length must be positive")
	case p.GrainsPerGroup <= 0:
		return invalid("grains per group must be positive, got %d", p.GrainsPerGroup)
	case len(p.ModFreqs) != len(p.CarrierFreqs):
		return invalid("%d carrier frequencies but %d modulator frequencies", len(p.CarrierFreqs), len(p.ModFreqs))
	case p.GroupCount() <= 0:
		return invalid("no voice groups configured")
	case p.GroupCount()*p.GrainsPerGroup > MaxVoices:
		return invalid("%d voices exceeds the limit of %d", p.GroupCount()*p.GrainsPerGroup, MaxVoices)
	case p.DelaySamples <= 0:
		return invalid("delay length must be positive, got %d", p.DelaySamples)
	case !(p.FeedbackGain >= 0 && p.FeedbackGain < 1):
		return invalid("feedback gain must be in [0, 1), got %v", p.FeedbackGain)
	case !(p.DelayWet >= 0 && p.DelayWet <= 1):
		return invalid("delay wet must be in [0, 1], got %v", p.DelayWet)
	case !(p.Diffusion >= 0 && p.Diffusion < 1):
		return invalid("diffusion must be in [0, 1), got %v", p.Diffusion)
	case !(p.Drive >= 0) || math.IsInf(p.Drive, 0):
		return invalid("drive must be non-negative, got %v", p.Drive)
	case !(p.LimitThreshold >= 0 && p.LimitThreshold <= 1):
		return invalid("limit threshold must be in [0, 1], got %v", p.LimitThreshold)
	case !(p.ModRampSeconds >= 0) || math.IsInf(p.ModRampSeconds, 0):
		return invalid("modulation ramp must be non-negative, got %v", p.ModRampSeconds)
	case math.Round(p.ModRampSeconds*p.SampleRate) > lfo.MaxRampSamples:
		return invalid("modulation ramp of %v seconds exceeds %d samples", p.ModRampSeconds, lfo.MaxRampSamples)
	case !(p.FoldDepth >= 0) || math.IsInf(p.FoldDepth, 0):
		return invalid("fold depth must be non-negative, got %v", p.FoldDepth)
	case p.TableSize < wavetable.MinSize || p.TableSize > wavetable.MaxSize || p.TableSize&(p.TableSize-1) != 0:
		return invalid("table size %d is not a power of two in [%d, %d]", p.TableSize, wavetable.MinSize, wavetable.MaxSize)
	}
	for i, f := range p.CarrierFreqs {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.IsNaN(p.ModFreqs[i]) || math.IsInf(p.ModFreqs[i], 0) {
			return invalid("group %d has a non-finite frequency", i)
		}
	}
	for _, v := range []float64{p.OutputGain, p.NoiseLevel, p.FoldRateHz, p.ModDepthStartHz, p.ModDepthEndHz} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("non-finite level or rate %v", v)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// deriveFrequencies draws carrier and modulator frequencies for n groups from
// the register, carrier first, in [100, 6000] Hz.
func deriveFrequencies(rng *trigger.LFSR, n int) (carriers, mods []float64) {
	carriers = make([]float64, n)
	mods = make([]float64, n)
	for i := 0; i < n; i++ {
		carriers[i] = float64(minDerivedFreq + rng.Intn(derivedFreqSpan))
		mods[i] = float64(minDerivedFreq + rng.Intn(derivedFreqSpan))
	}
	return carriers, mods
}
