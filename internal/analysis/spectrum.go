// Package analysis provides offline diagnostics over recorded runs.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// PowerSpectrum returns the one-sided amplitude spectrum of uniformly
// sampled data with sample spacing dt, together with the physical
// frequency of each bin. The mean is removed first, so the DC bin stays
// near zero and a driven run's spectrum peaks at the drive frequency.
func PowerSpectrum(samples []float64, dt float64) (freqs, power []float64) {
	n := len(samples)
	if n < 2 || dt <= 0 {
		return nil, nil
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	seq := make([]float64, n)
	for i, v := range samples {
		seq[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, seq)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		re, im := real(c), imag(c)
		power[i] = 2.0 * math.Sqrt(re*re+im*im) / float64(n)
	}
	power[0] /= 2.0
	return freqs, power
}

// DominantFrequency returns the frequency of the strongest non-DC bin
// and its amplitude. Zeroes mean the input was too short to analyze.
func DominantFrequency(samples []float64, dt float64) (freq, amplitude float64) {
	freqs, power := PowerSpectrum(samples, dt)
	if len(power) < 2 {
		return 0, 0
	}
	best := 1
	for i := 2; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	return freqs[best], power[best]
}
