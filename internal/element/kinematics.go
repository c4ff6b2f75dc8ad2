package element

import (
	"math"

	"github.com/san-kum/elens/internal/constants"
)

// ElectronBeta returns the relativistic beta of electrons accelerated
// through voltage [V]. The sign is negative: the electron beam travels
// against the tracked beam.
func ElectronBeta(voltage float64) (float64, error) {
	if !(voltage > 0) || math.IsInf(voltage, 0) {
		return 0, invalid("voltage", voltage, "must be positive and finite")
	}
	etot := voltage + constants.ElectronMassEV
	pe := math.Sqrt(etot*etot - constants.ElectronMassEV*constants.ElectronMassEV)
	if !(pe > 0) {
		return 0, invalid("voltage", voltage, "electron momentum is not positive")
	}
	return -pe / etot, nil
}

// KickFactor converts an interpolated potential gradient into a change of
// normalized transverse momentum for a particle with reference charge q0,
// rest mass mass0 [eV], beta0 and gamma0 crossing a lens of the given
// current [A] and length [m] whose electrons move with betaE.
func KickFactor(current, length, q0, mass0, beta0, gamma0, betaE float64) float64 {
	// leading sign: counter-rotating electron beam
	return -(current * length * constants.QElem * q0) /
		(mass0 * constants.QElem * beta0 * gamma0 * constants.CLight) *
		(1 - beta0*betaE) / betaE
}
