// Package analysis extracts beam-dynamics quantities from tracking data.
//
// The package includes:
//
//   - [Tune]: fractional betatron tune of a turn-by-turn signal
//   - [PowerSpectrum]: windowed amplitude spectrum of a signal
//   - [ScanTunes]: tune of a probe particle as one parameter is swept
//   - [PhaseRecorder]: tracking observer collecting (x, px) per turn
//
// # Tune Shift
//
// An electron lens shifts the tune of the particles it kicks. Tracking a
// probe with and without the lens and comparing the tunes shows the effect:
//
//	q0, _ := analysis.Tune(bare.CentroidX())
//	q1, _ := analysis.Tune(withLens.CentroidX())
//	shift := q1 - q0
package analysis
