package grainfm

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/grainfm-go/internal/grain"
)

// RenderPCM16 runs a fresh engine for frames ticks and returns interleaved
// stereo 16-bit samples.
func RenderPCM16(p grain.Params, frames int) ([]int16, error) {
	if frames < 0 {
		return nil, fmt.Errorf("frame count must be non-negative, got %d", frames)
	}
	engine, err := grain.New(p)
	if err != nil {
		return nil, err
	}
	out := make([]int16, frames*2)
	engine.ProcessPCM16(out)
	return out, nil
}

// RenderSamples is RenderPCM16 in float32, sized in seconds.
func RenderSamples(p grain.Params, seconds float64) ([]float32, error) {
	engine, err := grain.New(p)
	if err != nil {
		return nil, err
	}
	frames := int(p.SampleRate * seconds)
	if frames < 0 {
		return nil, fmt.Errorf("duration must be non-negative, got %v", seconds)
	}
	out := make([]float32, frames*2)
	engine.Process(out)
	return out, nil
}

// WriteWAV encodes interleaved stereo 16-bit PCM as a WAV file.
func WriteWAV(w io.WriteSeeker, sampleRate int, pcm []int16) error {
	if sampleRate <= 0 {
		return errors.New("sampleRate must be positive")
	}
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
