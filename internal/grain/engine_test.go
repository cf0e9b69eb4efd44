package grain

import (
	"errors"
	"testing"

	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/lfo"
	"github.com/cbegin/grainfm-go/internal/trigger"
)

// scenarioParams describes one voice group whose carrier sits at a quarter of
// the sample rate, so the first carrier sample is the table peak. Seed 1 with
// density 4096 fires at ticks 100 and 2848.
func scenarioParams() Params {
	p := DefaultParams()
	p.Seed = 1
	p.Density = 4096
	p.FirstOnset = 100
	p.GrainSamples = 50
	p.GrainsPerGroup = 8
	p.CarrierFreqs = []float64{p.SampleRate / 4}
	p.ModFreqs = []float64{0}
	p.ModDepthStartHz = 0
	p.ModDepthEndHz = 0
	p.FoldDepth = 0
	p.OutputGain = 1
	p.DelayWet = 0
	p.TableSize = 1024
	return p
}

func TestEngineEndToEndScenario(t *testing.T) {
	e, err := New(scenarioParams())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if e.Capacity() != 8 {
		t.Fatalf("capacity = %d, want 8", e.Capacity())
	}
	for tick := 0; tick < 200; tick++ {
		f := e.Tick()
		switch {
		case tick < 100:
			if f.Mix != 0 || f.Left != 0 || f.Right != 0 || f.Active != 0 || f.Triggered {
				t.Fatalf("tick %d: expected idle frame, got %+v", tick, f)
			}
		case tick == 100:
			if !f.Triggered {
				t.Fatal("expected trigger at tick 100")
			}
			// peak carrier (32767) times the first window sample (31), in Q15.
			if f.Mix != 30 {
				t.Fatalf("tick 100: mix = %d, want 30", f.Mix)
			}
			if f.Left != 30 || f.Right != 30 {
				t.Fatalf("tick 100: output = %d/%d, want 30", f.Left, f.Right)
			}
			fallthrough
		case tick < 150:
			if f.Active != 1 {
				t.Fatalf("tick %d: active = %d, want 1", tick, f.Active)
			}
		default:
			if f.Active != 0 || f.Mix != 0 {
				t.Fatalf("tick %d: expected released voice, got %+v", tick, f)
			}
		}
	}
	if e.ActiveVoices() != 0 {
		t.Fatalf("pool should be empty, %d active", e.ActiveVoices())
	}
	s := e.Stats()
	if s.Ticks != 200 || s.Triggers != 1 || s.Started != 1 || s.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestEngineStaticFold(t *testing.T) {
	p := scenarioParams()
	p.FoldRateHz = 0
	p.FoldDepth = 16.0 / 32768
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	var f Frame
	for tick := 0; tick <= 100; tick++ {
		f = e.Tick()
	}
	// 30 reflected at the upper bound 16.
	if f.Mix != 30 || f.Folded != 2 {
		t.Fatalf("mix %d folded %d, want 30 and 2", f.Mix, f.Folded)
	}
}

func TestEngineDropsGrainsWhenFull(t *testing.T) {
	p := scenarioParams()
	p.Density = 64
	p.FirstOnset = 0
	p.GrainsPerGroup = 1
	p.GrainSamples = 1000
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	for i := 0; i < 1000; i++ {
		if f := e.Tick(); f.Active > 1 {
			t.Fatalf("tick %d: %d active voices in a pool of one", i, f.Active)
		}
	}
	s := e.Stats()
	if s.Triggers != 32 || s.Started != 1 || s.Dropped != 31 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestEngineDeterministic(t *testing.T) {
	p := DefaultParams()
	p.NoiseLevel = 0.05
	p.Drive = 2
	p.Diffusion = 0.5
	p.LimitThreshold = 0.5
	a, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	b, _ := New(p)
	bufA := make([]int16, 8192)
	bufB := make([]int16, 8192)
	a.ProcessPCM16(bufA)
	b.ProcessPCM16(bufB)
	var nonzero bool
	for i := range bufA {
		if bufA[i] != bufB[i] {
			t.Fatalf("engines diverged at sample %d", i)
		}
		if bufA[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("expected audible output")
	}

	a.Reset()
	a.ProcessPCM16(bufA)
	for i := range bufA {
		if bufA[i] != bufB[i] {
			t.Fatalf("reset engine diverged at sample %d", i)
		}
	}
}

func TestEngineDerivedFrequencies(t *testing.T) {
	p := DefaultParams()
	p.Groups = 3
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if e.Groups() != 3 || e.Capacity() != 3*p.GrainsPerGroup {
		t.Fatalf("groups %d capacity %d", e.Groups(), e.Capacity())
	}
	for g := 0; g < e.Groups(); g++ {
		c, m := e.GroupFrequencies(g)
		for _, f := range []float64{c, m} {
			if f < 100 || f > 6000 {
				t.Fatalf("group %d frequency %v outside [100, 6000]", g, f)
			}
		}
	}
	again, _ := New(p)
	for g := 0; g < e.Groups(); g++ {
		c1, m1 := e.GroupFrequencies(g)
		c2, m2 := again.GroupFrequencies(g)
		if c1 != c2 || m1 != m2 {
			t.Fatalf("group %d not reproducible", g)
		}
	}
}

func TestEngineProcessBounded(t *testing.T) {
	p := DefaultParams()
	p.OutputGain = 4
	p.FeedbackGain = 0.95
	p.DelayWet = 1
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	buf := make([]float32, 4096)
	for block := 0; block < 8; block++ {
		e.Process(buf)
		for i, v := range buf {
			if v > 1 || v < -1 {
				t.Fatalf("sample %d out of range: %v", i, v)
			}
		}
	}
}

func TestEngineSetters(t *testing.T) {
	e, err := New(DefaultParams())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	for _, d := range []uint32{0, 1, 2, 3} {
		if err := e.SetDensity(d); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("SetDensity(%d): expected ErrInvalidParams, got %v", d, err)
		}
	}
	if err := e.SetDensity(100); err != nil {
		t.Errorf("SetDensity(100): %v", err)
	}
	if err := e.SetFeedback(1); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("SetFeedback(1): expected ErrInvalidParams, got %v", err)
	}
	if err := e.SetFeedback(0.3); err != nil {
		t.Errorf("SetFeedback(0.3): %v", err)
	}
	if err := e.SetGroupFrequencies(e.Groups(), 440, 880); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("group out of range: expected ErrInvalidParams, got %v", err)
	}
	if err := e.SetGroupFrequencies(0, 440, 880); err != nil {
		t.Fatalf("SetGroupFrequencies: %v", err)
	}
	p := e.Params()
	if p.Density != 100 || p.FeedbackGain != 0.3 || p.CarrierFreqs[0] != 440 || p.ModFreqs[0] != 880 {
		t.Fatalf("params not updated: %+v", p)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero sample rate", func(p *Params) { p.SampleRate = 0 }},
		{"zero seed", func(p *Params) { p.Seed = 0 }},
		{"zero density", func(p *Params) { p.Density = 0 }},
		{"density one", func(p *Params) { p.Density = 1 }},
		{"density two", func(p *Params) { p.Density = 2 }},
		{"density three", func(p *Params) { p.Density = 3 }},
		{"ramp too long", func(p *Params) { p.ModRampSeconds = 1e12 }},
		{"zero grain length", func(p *Params) { p.GrainSamples = 0 }},
		{"zero delay", func(p *Params) { p.DelaySamples = 0 }},
		{"feedback one", func(p *Params) { p.FeedbackGain = 1 }},
		{"negative feedback", func(p *Params) { p.FeedbackGain = -0.1 }},
		{"mismatched frequencies", func(p *Params) {
			p.CarrierFreqs = []float64{100, 200}
			p.ModFreqs = []float64{300}
		}},
		{"no groups", func(p *Params) { p.Groups = 0 }},
		{"too many voices", func(p *Params) { p.GrainsPerGroup = MaxVoices }},
		{"table not power of two", func(p *Params) { p.TableSize = 1000 }},
		{"bad wave", func(p *Params) { p.Wave = "zz" }},
		{"wet above one", func(p *Params) { p.DelayWet = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			if _, err := New(p); !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestEngineMinimumDensityKeepsTriggering(t *testing.T) {
	p := DefaultParams()
	p.Density = trigger.MinDensity
	p.GrainsPerGroup = 1
	p.Groups = 1
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	for i := 0; i < 1000; i++ {
		e.Tick()
	}
	if s := e.Stats(); s.Triggers < 100 {
		t.Fatalf("only %d triggers in 1000 ticks at the minimum density", s.Triggers)
	}
}

func TestNewAcceptsLongestRamp(t *testing.T) {
	p := DefaultParams()
	p.ModRampSeconds = float64(lfo.MaxRampSamples-1000) / p.SampleRate
	if _, err := New(p); err != nil {
		t.Fatalf("longest ramp rejected: %v", err)
	}
}

func TestNewAcceptsTriangleWave(t *testing.T) {
	p := scenarioParams()
	p.Wave = "triangle"
	e, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	var f Frame
	for tick := 0; tick <= 100; tick++ {
		f = e.Tick()
	}
	if f.Mix <= 0 || f.Mix > fixed.One {
		t.Fatalf("unexpected triangle mix %d", f.Mix)
	}
}

func BenchmarkEngineTick(b *testing.B) {
	p := DefaultParams()
	p.Density = 32
	e, err := New(p)
	if err != nil {
		b.Fatalf("new engine: %v", err)
	}
	buf := make([]float32, 1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf)
	}
}
