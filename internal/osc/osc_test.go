package osc

import (
	"math"
	"testing"

	"github.com/cbegin/grainfm-go/internal/wavetable"
)

func mustSine(t testing.TB) *wavetable.Table {
	t.Helper()
	tab, err := wavetable.NewSine(1024)
	if err != nil {
		t.Fatalf("sine table: %v", err)
	}
	return tab
}

func TestAdvanceReturnsToZero(t *testing.T) {
	tab := mustSine(t)
	for _, inc := range []uint32{1 << 10, 1 << 20, 1 << 28, 1 << 31} {
		a := Accumulator{Increment: inc}
		steps := (uint64(1) << 32) / uint64(inc)
		for i := uint64(0); i < steps; i++ {
			a.Advance(tab)
		}
		if a.Phase != 0 {
			t.Errorf("increment %d: phase after %d steps = %d, want 0", inc, steps, a.Phase)
		}
	}
}

func TestIncrementFor(t *testing.T) {
	for _, tc := range []struct {
		name       string
		freq, rate float64
		want       uint32
	}{
		{"quarter rate", 11025, 44100, 1 << 30},
		{"half rate", 24000, 48000, 1 << 31},
		{"zero", 0, 48000, 0},
		{"full rate wraps to zero", 48000, 48000, 0},
		{"negative runs backwards", -12000, 48000, 3 << 30},
		{"bad rate", 440, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := IncrementFor(tc.freq, tc.rate); got != tc.want {
				t.Errorf("IncrementFor(%v, %v) = %d, want %d", tc.freq, tc.rate, got, tc.want)
			}
		})
	}
}

func TestSetFrequencyRoundTrip(t *testing.T) {
	var a Accumulator
	a.SetFrequency(440, 44100)
	if got := a.Frequency(44100); math.Abs(got-440) > 1e-4 {
		t.Fatalf("frequency round trip = %f, want 440", got)
	}
}

func TestAdvanceByAddsModulation(t *testing.T) {
	tab := mustSine(t)
	a := Accumulator{Increment: 100}
	b := Accumulator{Increment: 100}
	a.Advance(tab)
	b.AdvanceBy(tab, 1<<30)
	if b.Phase-a.Phase != 1<<30 {
		t.Fatalf("AdvanceBy offset = %d, want %d", b.Phase-a.Phase, 1<<30)
	}
	// Offsets wrap like the phase itself.
	c := Accumulator{Phase: math.MaxUint32, Increment: 1}
	c.AdvanceBy(tab, math.MaxUint32)
	if c.Phase != math.MaxUint32 {
		t.Fatalf("wrapped phase = %d, want %d", c.Phase, uint32(math.MaxUint32))
	}
}

func TestQuarterRateSineSequence(t *testing.T) {
	tab := mustSine(t)
	a := Accumulator{Increment: 1 << 30}
	want := []int32{32767, 0, -32767, 0}
	for i, w := range want {
		if got := a.Advance(tab); int32(got) != w {
			t.Errorf("step %d = %d, want %d", i, got, w)
		}
	}
}

func TestReset(t *testing.T) {
	a := Accumulator{Phase: 1234, Increment: 99}
	a.Reset()
	if a.Phase != 0 || a.Increment != 99 {
		t.Fatalf("reset = %+v", a)
	}
}

func BenchmarkAdvance(b *testing.B) {
	tab := mustSine(b)
	a := Accumulator{}
	a.SetFrequency(440, 48000)
	for i := 0; i < b.N; i++ {
		a.Advance(tab)
	}
}
