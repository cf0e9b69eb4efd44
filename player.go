// Package grainfm plays and renders a fixed-point granular FM engine.
package grainfm

import (
	"fmt"
	"math"
	"sync"

	intaudio "github.com/cbegin/grainfm-go/internal/audio"
	"github.com/cbegin/grainfm-go/internal/grain"
)

// Backend names an audio output driver.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
	BackendBeep   Backend = "beep"
)

// ParseBackend accepts a backend name as given on a command line.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendEbiten, BackendOto, BackendBeep:
		return b, nil
	case "":
		return BackendEbiten, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q", name)
	}
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	params    grain.Params
	backend   Backend
	sampleTap func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{params: grain.DefaultParams(), backend: BackendEbiten}
}

func WithParams(p grain.Params) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.params = p
	}
}

func WithBackend(b Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = b
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// Player owns one engine and, while started, one audio backend. Host updates
// are serialised against rendering by engineMu, so they land between audio
// buffers and never inside a tick.
type Player struct {
	mu         sync.Mutex
	backend    Backend
	sampleRate int
	audio      intaudio.Backend

	engineMu  sync.Mutex
	engine    *grain.Engine
	volume    float64
	sampleTap func([]float32)
}

// engineSource is what the backend pulls from.
type engineSource struct {
	p *Player
}

func (s engineSource) Process(dst []float32) {
	s.p.render(dst)
}

func NewPlayer(opts ...PlayerOption) (*Player, error) {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	if cfg.params.SampleRate != math.Trunc(cfg.params.SampleRate) {
		return nil, fmt.Errorf("%w: playback needs an integral sample rate, got %v", grain.ErrInvalidParams, cfg.params.SampleRate)
	}
	engine, err := grain.New(cfg.params)
	if err != nil {
		return nil, err
	}
	return &Player{
		backend:    cfg.backend,
		sampleRate: int(cfg.params.SampleRate),
		engine:     engine,
		volume:     1,
		sampleTap:  cfg.sampleTap,
	}, nil
}

func (p *Player) render(dst []float32) {
	p.engineMu.Lock()
	p.engine.Process(dst)
	if p.volume != 1 {
		v := float32(p.volume)
		for i := range dst {
			dst[i] = min(max(dst[i]*v, -1), 1)
		}
	}
	tap := p.sampleTap
	p.engineMu.Unlock()
	if tap != nil {
		tap(dst)
	}
}

// Render fills dst with interleaved stereo frames without an audio device.
func (p *Player) Render(dst []float32) {
	p.render(dst)
}

// Start opens the configured backend and begins playback. Calling Start
// while playing restarts the device but keeps engine state.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	backend, err := newBackend(p.backend, p.sampleRate, engineSource{p: p})
	if err != nil {
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func newBackend(b Backend, sampleRate int, src intaudio.SampleSource) (intaudio.Backend, error) {
	switch b {
	case BackendOto:
		return intaudio.NewOtoPlayer(sampleRate, src)
	case BackendBeep:
		return intaudio.NewBeepPlayer(sampleRate, src)
	default:
		return intaudio.NewPlayer(sampleRate, src)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

// Stop closes the backend. The engine keeps its state; call Reset to start
// over from the seed.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// Reset rewinds the engine to its initial state.
func (p *Player) Reset() {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	p.engine.Reset()
}

func (p *Player) SetDensity(density uint32) error {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.SetDensity(density)
}

func (p *Player) SetFeedback(gain float64) error {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.SetFeedback(gain)
}

func (p *Player) SetGroupFrequencies(group int, carrier, mod float64) error {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.SetGroupFrequencies(group, carrier, mod)
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 || math.IsNaN(volume) {
		volume = 0
	}
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	p.volume = volume
}

func (p *Player) MasterVolume() float64 {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.volume
}

func (p *Player) Stats() grain.Stats {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.Stats()
}

func (p *Player) ActiveVoices() int {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.ActiveVoices()
}

func (p *Player) Params() grain.Params {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()
	return p.engine.Params()
}

func (p *Player) SampleRate() int {
	return p.sampleRate
}

// PlaybackPosition returns the current output position of the audio driver
// in frames, i.e. what the listener actually hears right now. Returns 0 if
// not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
