package lfo

import (
	"math"
	"testing"

	"github.com/cbegin/grainfm-go/internal/fixed"
	"github.com/cbegin/grainfm-go/internal/wavetable"
)

func sine(t *testing.T) *wavetable.Table {
	t.Helper()
	tab, err := wavetable.NewSine(1024)
	if err != nil {
		t.Fatalf("sine: %v", err)
	}
	return tab
}

func TestLFOSineBasicShape(t *testing.T) {
	// 1 Hz at 4 samples per second: quarter-cycle steps.
	l := New(sine(t), fixed.One, 1, 4)
	want := []fixed.Sample{32767, 0, -32767, 0}
	for i, w := range want {
		if got := l.Sample(); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestLFODepthScales(t *testing.T) {
	l := New(sine(t), fixed.Half, 1, 4)
	if got := l.Sample(); got != 16383 {
		t.Errorf("half-depth peak = %d, want 16383", got)
	}
}

func TestLFOZeroDepthReturnsZero(t *testing.T) {
	l := New(sine(t), 0, 5, 44100)
	if v := l.Sample(); v != 0 {
		t.Errorf("zero depth should return 0, got %d", v)
	}
}

func TestLFOZeroRateReturnsZero(t *testing.T) {
	l := New(sine(t), fixed.One, 0, 44100)
	if v := l.Sample(); v != 0 {
		t.Errorf("zero rate should return 0, got %d", v)
	}
}

func TestLFOActive(t *testing.T) {
	l := &LFO{}
	if l.Active() {
		t.Error("default LFO should not be active")
	}
	l = New(sine(t), fixed.One, 5, 44100)
	if !l.Active() {
		t.Error("configured LFO should be active")
	}
	l.Set(0, 5, 44100)
	if l.Active() {
		t.Error("zero-depth LFO should not be active")
	}
}

func TestLFOReset(t *testing.T) {
	l := New(sine(t), fixed.One, 1, 4)
	first := l.Sample()
	l.Sample()
	l.Reset()
	if got := l.Sample(); got != first {
		t.Errorf("after reset got %d, want %d", got, first)
	}
}

func TestRampEndpoints(t *testing.T) {
	r := NewRamp(0, 100, 4)
	want := []int64{0, 25, 50, 75, 100, 100, 100}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("step %d = %d, want %d", i, got, w)
		}
	}
	if !r.Done() {
		t.Fatal("ramp should be done")
	}
	r.Reset()
	if r.Done() || r.Value() != 0 {
		t.Fatalf("reset ramp: done=%v value=%d", r.Done(), r.Value())
	}
}

func TestRampDescendingAndLong(t *testing.T) {
	r := NewRamp(1000, -1000, 3)
	if got := r.Next(); got != 1000 {
		t.Fatalf("first = %d, want 1000", got)
	}
	for i := 0; i < 2; i++ {
		r.Next()
	}
	if got := r.Next(); got != -1000 {
		t.Fatalf("end = %d, want -1000", got)
	}

	// A slope below one unit per sample still gets there.
	long := NewRamp(0, 10, 48000*5)
	var last int64
	for i := 0; i < 48000*5; i++ {
		v := long.Next()
		if v < last {
			t.Fatalf("ramp went backwards at %d: %d < %d", i, v, last)
		}
		last = v
	}
	if got := long.Next(); got != 10 {
		t.Fatalf("long ramp end = %d, want 10", got)
	}
}

func TestRampZeroLength(t *testing.T) {
	r := NewRamp(5, 9, 0)
	if got := r.Next(); got != 9 {
		t.Fatalf("zero-length ramp = %d, want 9", got)
	}
}

func TestRampClampsLength(t *testing.T) {
	r := NewRamp(0, 1<<40, math.MaxUint64)
	if got := r.Next(); got != 0 {
		t.Fatalf("first = %d, want 0", got)
	}
	if got := r.Next(); got <= 0 {
		t.Fatalf("oversized ramp moved the wrong way: %d", got)
	}
	if r.Done() {
		t.Fatal("clamped ramp finished early")
	}
}
