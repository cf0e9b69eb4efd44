package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	otoMu         sync.Mutex
	otoContext    *oto.Context
	otoSampleRate int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoContext != nil {
		if otoSampleRate != sampleRate {
			return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
		}
		return otoContext, nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready
	otoContext = ctx
	otoSampleRate = sampleRate
	return ctx, nil
}

// OtoPlayer plays through an oto context directly, without ebiten.
type OtoPlayer struct {
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
}

func NewOtoPlayer(sampleRate int, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	return &OtoPlayer{
		player:     ctx.NewPlayer(reader),
		reader:     reader,
		sampleRate: sampleRate,
	}, nil
}

func (p *OtoPlayer) Play()  { p.player.Play() }
func (p *OtoPlayer) Pause() { p.player.Pause() }

// Position is the rendered frame count minus what is still queued in the
// device buffer.
func (p *OtoPlayer) Position() time.Duration {
	heard := p.reader.Frames() - int64(p.player.BufferedSize()/bytesPerFrame)
	return framesToDuration(max(heard, 0), p.sampleRate)
}

func (p *OtoPlayer) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}

func framesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
