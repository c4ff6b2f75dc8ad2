// Package constants holds the physical and numerical constants shared by the
// field-map and beam-element packages. All values are compile-time constants.
package constants

const (
	CLight   = 299792458.0        // [m/s]
	Epsilon0 = 8.854187817620e-12 // [F/m]
	QElem    = 1.60217662e-19     // [C]

	Pi            = 3.1415926535897932384626433832795028841971693993751
	Deg2Rad       = 0.0174532925199432957692369076848861271344287188854
	Rad2Deg       = 57.29577951308232087679815481410517033240547246656442
	SqrtPi        = 1.7724538509055160272981674833411451827975494561224
	TwoOverSqrtPi = 1.128379167095512573896158903121545171688101258657997713688171443418
	SqrtTwo       = 1.414213562373095048801688724209698078569671875376948073176679738

	RealEpsilon = 2.22044604925031e-16
)

// Rest-mass energies in eV.
const (
	ElectronMassEV = 510998.928
	ProtonMassEV   = 938272088.16
)
