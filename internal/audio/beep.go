package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Streamer adapts a SampleSource to beep.Streamer. It never drains.
type Streamer struct {
	source SampleSource
	buf    []float32
	frames atomic.Int64
}

func NewStreamer(source SampleSource) *Streamer {
	return &Streamer{source: source}
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	s.buf = s.buf[:need]
	s.source.Process(s.buf)
	for i := range samples {
		samples[i][0] = float64(s.buf[2*i])
		samples[i][1] = float64(s.buf[2*i+1])
	}
	s.frames.Add(int64(len(samples)))
	return len(samples), true
}

func (s *Streamer) Err() error { return nil }

// Frames returns the number of frames streamed so far.
func (s *Streamer) Frames() int64 {
	return s.frames.Load()
}

// beep's speaker is a process-wide singleton that can be initialized only
// once, so every BeepPlayer shares it and must use the same sample rate.
var (
	speakerMu         sync.Mutex
	speakerReady      bool
	speakerSampleRate int
)

const speakerLatency = 100 * time.Millisecond

func sharedSpeaker(sampleRate int) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if speakerReady {
		if speakerSampleRate != sampleRate {
			return fmt.Errorf("beep speaker already initialized at %d Hz (requested %d Hz)", speakerSampleRate, sampleRate)
		}
		return nil
	}
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(speakerLatency)); err != nil {
		return fmt.Errorf("failed to initialize beep speaker: %w", err)
	}
	speakerReady = true
	speakerSampleRate = sampleRate
	return nil
}

type BeepPlayer struct {
	ctrl       *beep.Ctrl
	streamer   *Streamer
	sampleRate int
	latency    time.Duration
}

func NewBeepPlayer(sampleRate int, source SampleSource) (*BeepPlayer, error) {
	if err := sharedSpeaker(sampleRate); err != nil {
		return nil, err
	}
	s := NewStreamer(source)
	ctrl := &beep.Ctrl{Streamer: s, Paused: true}
	speaker.Play(ctrl)
	return &BeepPlayer{ctrl: ctrl, streamer: s, sampleRate: sampleRate, latency: speakerLatency}, nil
}

func (p *BeepPlayer) Play()  { p.setPaused(false) }
func (p *BeepPlayer) Pause() { p.setPaused(true) }

func (p *BeepPlayer) setPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Position is approximate: the speaker buffer is assumed full.
func (p *BeepPlayer) Position() time.Duration {
	pos := framesToDuration(p.streamer.Frames(), p.sampleRate) - p.latency
	return max(pos, 0)
}

// Stop detaches this player's stream from the shared speaker. The speaker
// stays open for the next BeepPlayer, and streams of other players keep
// playing.
func (p *BeepPlayer) Stop() error {
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
	return nil
}
