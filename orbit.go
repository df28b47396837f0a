package pconic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 1e-3                         // simulation length units
	// minRadius is the smallest distance at which any inverse square term is evaluated.
	minRadius = 1.0
	// parabolicξ is the energy band around zero treated as parabolic.
	parabolicξ = 1e-3
)

// OrbitalElements defines a planar Keplerian orbit with respect to its reference body.
// When Valid is false, all other fields are undefined.
type OrbitalElements struct {
	A          float64 // Semi-major axis (negative for hyperbolic orbits)
	B          float64 // Semi-minor axis
	E          float64 // Eccentricity
	Omega      float64 // Argument of periapsis ω
	Nu         float64 // True anomaly ν, in (-π, π]
	Energy     float64 // Specific mechanical energy ξ
	H          float64 // Signed specific angular momentum (positive is counter-clockwise)
	Periapsis  float64 // |a|·|1-e|, the closest approach for every conic
	Apoapsis   float64 // +Inf unless elliptical
	Period     float64 // +Inf unless bound
	MeanMotion float64 // 0 unless bound
	Mu         float64 // Gravitational parameter of the reference body
	Valid      bool
}

// IsBound returns whether the orbit is a closed ellipse.
func (o OrbitalElements) IsBound() bool {
	return o.Valid && o.E < 1 && o.A > 0
}

// IsCircular returns whether the eccentricity is negligible.
func (o OrbitalElements) IsCircular() bool {
	return o.Valid && o.E < eccentricityε
}

// IsElliptical returns whether 0 < e < 1.
func (o OrbitalElements) IsElliptical() bool {
	return o.Valid && o.E >= eccentricityε && o.E < 1-eccentricityε
}

// IsParabolic returns whether the eccentricity is within tolerance of one.
func (o OrbitalElements) IsParabolic() bool {
	return o.Valid && scalar.EqualWithinAbs(o.E, 1, eccentricityε)
}

// IsHyperbolic returns whether e > 1.
func (o OrbitalElements) IsHyperbolic() bool {
	return o.Valid && o.E > 1+eccentricityε
}

// IsRetrograde returns whether the orbit is flown clockwise.
func (o OrbitalElements) IsRetrograde() bool {
	return o.H < 0
}

// SemiParameter returns the semi-latus rectum p.
func (o OrbitalElements) SemiParameter() float64 {
	return o.A * (1 - o.E*o.E)
}

// Radius returns the orbital radius at the provided true anomaly.
func (o OrbitalElements) Radius(ν float64) float64 {
	return o.SemiParameter() / (1 + o.E*math.Cos(ν))
}

// String implements the stringer interface (hence the value receiver)
func (o OrbitalElements) String() string {
	if !o.Valid {
		return "invalid orbit"
	}
	if o.E < eccentricityε {
		return fmt.Sprintf("a=%.1f e=%.4f λ=%.3f", o.A, o.E, Rad2deg(o.Omega+o.Nu))
	}
	return fmt.Sprintf("a=%.1f e=%.4f ω=%.3f ν=%.3f", o.A, o.E, Rad2deg(o.Omega), Rad2deg(o.Nu))
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o OrbitalElements) Equals(o1 OrbitalElements) (bool, error) {
	if !o.Valid || !o1.Valid {
		return false, errors.New("invalid orbit")
	}
	if !scalar.EqualWithinAbs(o.A, o1.A, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.E, o1.E, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if sign(o.H) != sign(o1.H) {
		return false, errors.New("direction invalid")
	}
	if o.E >= eccentricityε && !anglesClose(o.Omega, o1.Omega) {
		return false, errors.New("argument of periapsis invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical.
func (o OrbitalElements) StrictlyEquals(o1 OrbitalElements) (bool, error) {
	if o.E < eccentricityε {
		// Circular orbit: only the true longitude is meaningful.
		if !anglesClose(o.Omega+o.Nu, o1.Omega+o1.Nu) {
			return false, errors.New("true longitude invalid")
		}
	} else if !anglesClose(o.Nu, o1.Nu) {
		return false, errors.New("true anomaly invalid")
	}
	return o.Equals(o1)
}

func anglesClose(a, b float64) bool {
	return math.Abs(normalizeAngle(a-b)) < angleε
}
