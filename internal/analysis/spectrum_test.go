package analysis

import (
	"math"
	"testing"
)

func TestDominantFrequencyOfSine(t *testing.T) {
	const (
		n  = 256
		dt = 0.01
	)
	// 16 whole cycles over the window, so the tone sits on a bin
	want := 16.0 / (n * dt)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 3.0 + 0.5*math.Sin(2*math.Pi*want*float64(i)*dt)
	}

	freq, amp := DominantFrequency(samples, dt)
	if math.Abs(freq-want) > 1e-9 {
		t.Errorf("dominant frequency = %g, want %g", freq, want)
	}
	if math.Abs(amp-0.5) > 1e-6 {
		t.Errorf("amplitude = %g, want 0.5", amp)
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	samples := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	_, power := PowerSpectrum(samples, 0.1)
	if len(power) == 0 {
		t.Fatal("no spectrum for constant input")
	}
	for i, p := range power {
		if p > 1e-9 {
			t.Errorf("bin %d = %g for constant input", i, p)
		}
	}
}

func TestPowerSpectrumDegenerateInput(t *testing.T) {
	if f, p := PowerSpectrum([]float64{1}, 0.1); f != nil || p != nil {
		t.Error("expected no spectrum for a single sample")
	}
	if f, p := PowerSpectrum([]float64{1, 2, 3}, 0); f != nil || p != nil {
		t.Error("expected no spectrum for zero sample spacing")
	}
	if f, a := DominantFrequency(nil, 0.1); f != 0 || a != 0 {
		t.Error("expected zero dominant frequency for empty input")
	}
}
