package pconic

import (
	"math"

	"github.com/soniakeys/meeus/v3/kepler"
	meeusunit "github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// keplerPlaces is the number of decimal places Kepler's equation is solved to.
	keplerPlaces = 10
	// asymptoteε bounds 1+e·cos(ν) away from zero on open orbits.
	asymptoteε = 1e-3
)

// DeriveElements returns the orbital elements from the R and V vectors, both relative to
// the reference body. The result is flagged invalid when |R| < 1, μ <= 0, or when the
// orbit is too close to parabolic for a finite semi-major axis.
func DeriveElements(R, V r2.Vec, μ float64) OrbitalElements {
	r := r2.Norm(R)
	if r < minRadius || μ <= 0 {
		return OrbitalElements{}
	}
	v := r2.Norm(V)
	ξ := (v*v)/2 - μ/r
	h := cross(R, V)
	if math.Abs(ξ) <= parabolicξ {
		return OrbitalElements{Energy: ξ, H: h, Mu: μ}
	}
	a := -μ / (2 * ξ)
	// e = (v × h)/μ - R/r with h along +z.
	eVec := r2.Sub(r2.Scale(h/μ, r2.Vec{X: V.Y, Y: -V.X}), r2.Scale(1/r, R))
	e := r2.Norm(eVec)
	ω := math.Atan2(eVec.Y, eVec.X)
	ν := normalizeAngle(math.Atan2(R.Y, R.X) - ω)

	o := OrbitalElements{
		A:      a,
		E:      e,
		Omega:  ω,
		Nu:     ν,
		Energy: ξ,
		H:      h,
		Mu:     μ,
		Valid:  true,
	}
	if e < 1 {
		o.B = a * math.Sqrt(1-e*e)
		o.Apoapsis = a * (1 + e)
	} else {
		o.B = math.Abs(a) * math.Sqrt(math.Abs(e*e-1))
		o.Apoapsis = math.Inf(1)
	}
	o.Periapsis = math.Abs(a) * math.Abs(1-e)
	if e < 1 && a > 0 {
		o.Period = 2 * math.Pi * math.Sqrt(math.Pow(a, 3)/μ)
		o.MeanMotion = 2 * math.Pi / o.Period
	} else {
		o.Period = math.Inf(1)
		o.MeanMotion = 0
	}
	return o
}

// PositionAtTrueAnomaly returns the position on the conic at true anomaly ν, relative to
// the reference body. Invalid elements return the zero vector; points beyond the
// asymptotes of an open orbit are returned as +Inf.
func PositionAtTrueAnomaly(o OrbitalElements, ν float64) r2.Vec {
	if !o.Valid {
		return r2.Vec{}
	}
	denom := 1 + o.E*math.Cos(ν)
	if o.E >= 1 && denom <= asymptoteε {
		return infVec()
	}
	r := o.SemiParameter() / denom
	if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return infVec()
	}
	return polar(r, ν+o.Omega)
}

// VelocityAtTrueAnomaly returns the velocity on the conic at true anomaly ν, relative to
// the reference body.
func VelocityAtTrueAnomaly(o OrbitalElements, ν float64) r2.Vec {
	if !o.Valid {
		return r2.Vec{}
	}
	p := o.SemiParameter()
	if p <= 0 {
		return infVec()
	}
	sinν, cosν := math.Sincos(ν)
	k := sign(o.H) * math.Sqrt(o.Mu/p)
	return rotate(r2.Vec{X: -k * sinν, Y: k * (o.E + cosν)}, o.Omega)
}

// TrueToMeanAnomaly converts a true anomaly to the mean anomaly of an elliptical orbit.
// The result is in (-π, π].
func TrueToMeanAnomaly(ν, e float64) float64 {
	sinHalfν, cosHalfν := math.Sincos(ν / 2)
	E := 2 * math.Atan2(math.Sqrt(1-e)*sinHalfν, math.Sqrt(1+e)*cosHalfν)
	return normalizeAngle(E - e*math.Sin(E))
}

// MeanToTrueAnomaly converts a mean anomaly to the true anomaly of an elliptical orbit
// by solving Kepler's equation. The result is in (-π, π].
func MeanToTrueAnomaly(M, e float64) float64 {
	E := EccentricAnomaly(M, e)
	sinHalfE, cosHalfE := math.Sincos(E / 2)
	return normalizeAngle(2 * math.Atan2(math.Sqrt(1+e)*sinHalfE, math.Sqrt(1-e)*cosHalfE))
}

// EccentricAnomaly solves Kepler's equation M = E - e·sin(E) for E, with 0 <= e < 1.
func EccentricAnomaly(M, e float64) float64 {
	M = wrapTwoPi(M)
	if e < eccentricityε {
		return M
	}
	E, err := kepler.Kepler2(e, meeusunit.Angle(M), keplerPlaces)
	if err != nil {
		// Newton's method did not converge (high eccentricity): Meeus' bisection always does.
		E = kepler.Kepler3(e, meeusunit.Angle(M))
	}
	return E.Rad()
}

// MeanAnomaly returns the mean anomaly at the current true anomaly.
func (o OrbitalElements) MeanAnomaly() float64 {
	return TrueToMeanAnomaly(o.Nu, o.E)
}

// PositionAtTime returns the position, relative to the reference body, after t time units
// of Keplerian motion from the current true anomaly. Only bound orbits are supported:
// open or invalid orbits return the current position.
func (o OrbitalElements) PositionAtTime(t float64) r2.Vec {
	R, _ := o.StateAtTime(t)
	return R
}

// StateAtTime returns the relative position and velocity after t time units of Keplerian
// motion. Open or invalid orbits return the current state.
func (o OrbitalElements) StateAtTime(t float64) (R, V r2.Vec) {
	ν := o.Nu
	if o.IsBound() {
		ν = MeanToTrueAnomaly(o.MeanAnomaly()+sign(o.H)*o.MeanMotion*t, o.E)
	}
	return PositionAtTrueAnomaly(o, ν), VelocityAtTrueAnomaly(o, ν)
}

// ElementsFromKeplerian returns the elements of a counter-clockwise orbit of semi-major
// axis a, eccentricity e and argument of periapsis ω, at true anomaly ν.
// Use a negative h to flip the orbit clockwise.
func ElementsFromKeplerian(a, e, ω, ν, μ, h float64) OrbitalElements {
	if h == 0 {
		h = 1
	}
	seed := OrbitalElements{A: a, E: e, Omega: ω, H: h, Mu: μ, Valid: μ > 0}
	return DeriveElements(PositionAtTrueAnomaly(seed, ν), VelocityAtTrueAnomaly(seed, ν), μ)
}
