package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// ErrShortSeries is returned when a series has too few samples to analyse.
var ErrShortSeries = errors.New("analysis: series too short")

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// FFT returns the complex spectrum of data zero-padded to a power of two.
// Only the non-negative frequencies are returned, n/2+1 of them.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	n := nextPow2(len(data))
	padded := make([]float64, n)
	copy(padded, data)
	return fourier.NewFFT(n).Coefficients(nil, padded)
}

// PowerSpectrum returns |X(k)| of data after removing its mean, so a
// constant offset does not swamp bin zero. Bin k is k/(n·dt) Hz where n is
// the padded length.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}
	coeff := FFT(centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-zero
// bin of a series sampled every sampleDt seconds.
func DominantFrequency(series []float64, sampleDt float64) (float64, error) {
	if len(series) < 4 {
		return 0, fmt.Errorf("%w: need at least 4 samples, got %d", ErrShortSeries, len(series))
	}
	if !(sampleDt > 0) {
		return 0, fmt.Errorf("analysis: sample interval must be positive, got %g", sampleDt)
	}
	ps := PowerSpectrum(series)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	n := nextPow2(len(series))
	return float64(best) / (float64(n) * sampleDt), nil
}
