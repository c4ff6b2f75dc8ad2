package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"
)

// MinTuneSamples is the shortest signal Tune accepts.
const MinTuneSamples = 8

var ErrShortSignal = errors.New("analysis: signal too short")

// PowerSpectrum returns the amplitude of bins 0..n/2 of the Hann-windowed,
// mean-subtracted signal.
func PowerSpectrum(signal []float64) []float64 {
	if len(signal) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(prepare(signal))
	ps := make([]float64, len(coeffs)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// Tune returns the fractional tune in [0, 0.5] of a turn-by-turn signal:
// the frequency of the largest spectral peak in units of the revolution
// frequency, refined by a parabola through the peak and its neighbours.
func Tune(signal []float64) (float64, error) {
	n := len(signal)
	if n < MinTuneSamples {
		return 0, fmt.Errorf("%w: %d samples, need %d", ErrShortSignal, n, MinTuneSamples)
	}

	ps := PowerSpectrum(signal)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, nil
	}

	pos := float64(peak)
	if peak > 0 && peak < len(ps)-1 {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if den := a - 2*b + c; den != 0 {
			pos += 0.5 * (a - c) / den
		}
	}
	q := pos / float64(n)
	if q < 0 {
		q = 0
	}
	if q > 0.5 {
		q = 0.5
	}
	return q, nil
}

func prepare(signal []float64) []float64 {
	mean := stat.Mean(signal, nil)
	x := make([]float64, len(signal))
	for i, v := range signal {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)
	return x
}
