package pconic

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	deg2rad = math.Pi / 180
	twoPi   = 2 * math.Pi
)

// unit returns the unit vector of a given vector.
func unit(a r2.Vec) r2.Vec {
	n := r2.Norm(a)
	if scalar.EqualWithinAbs(n, 0, 1e-12) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, a)
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if scalar.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// cross returns the z component of the cross product of two planar vectors.
func cross(a, b r2.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// rotate rotates the provided vector counter-clockwise by θ radians.
func rotate(v r2.Vec, θ float64) r2.Vec {
	sinθ, cosθ := math.Sincos(θ)
	return r2.Vec{X: v.X*cosθ - v.Y*sinθ, Y: v.X*sinθ + v.Y*cosθ}
}

// polar returns the vector of length r at angle θ.
func polar(r, θ float64) r2.Vec {
	sinθ, cosθ := math.Sincos(θ)
	return r2.Vec{X: r * cosθ, Y: r * sinθ}
}

// distance returns |a-b|.
func distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// isFinite returns whether both components are finite numbers.
func isFinite(v r2.Vec) bool {
	return !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsNaN(v.X) && !math.IsNaN(v.Y)
}

// infVec is returned where a conic has no finite point.
func infVec() r2.Vec {
	return r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
}

// normalizeAngle brings θ into (-π, π].
func normalizeAngle(θ float64) float64 {
	if math.IsNaN(θ) || math.IsInf(θ, 0) {
		return θ
	}
	for θ > math.Pi {
		θ -= twoPi
	}
	for θ <= -math.Pi {
		θ += twoPi
	}
	return θ
}

// wrapTwoPi brings θ into [0, 2π).
func wrapTwoPi(θ float64) float64 {
	θ = math.Mod(θ, twoPi)
	if θ < 0 {
		θ += twoPi
	}
	return θ
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}
