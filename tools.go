package pconic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// TransferType defines the type of Lambert transfer
type TransferType uint8

// Longway returns whether or not this is the long way.
func (t TransferType) Longway() bool {
	switch t {
	case TType1:
		return false
	case TType2:
		return true
	default:
		panic(fmt.Errorf("cannot determine whether long or short way for %s", t))
	}
}

func (t TransferType) String() string {
	switch t {
	case TTypeAuto:
		return "auto"
	case TType1:
		return "type-1"
	case TType2:
		return "type-2"
	default:
		panic("unknown transfer type")
	}
}

const (
	// TTypeAuto lets the Lambert solver determine the type
	TTypeAuto TransferType = iota + 1
	// TType1 is transfer of type 1 (zero revolution, short way)
	TType1
	// TType2 is transfer of type 2 (zero revolution, long way)
	TType2
	lambertε         = 1e-4                   // General epsilon
	lambertTlambertε = 1e-4                   // Time epsilon
	lambertνlambertε = (5e-5 / 180) * math.Pi // 0.00005 degrees
	lambertMaxIter   = 10000
)

// CircularVelocity returns the speed of a circular orbit of radius r.
func CircularVelocity(μ, r float64) float64 {
	if μ <= 0 || r <= 0 {
		return 0
	}
	return math.Sqrt(μ / r)
}

// Hohmann computes an Hohmann transfer between two coplanar circular orbits. It returns the
// tangential Δv at departure and arrival, and the time of flight. A negative Δv is a
// retrograde burn.
func Hohmann(μ, rI, rF float64) (ΔvDeparture, ΔvArrival, tof float64, err error) {
	if μ <= 0 {
		err = errors.New("gravitational parameter must be positive")
		return
	}
	if rI < minRadius || rF < minRadius {
		err = fmt.Errorf("radii must be at least %.1f (got %f and %f)", minRadius, rI, rF)
		return
	}
	aTransfer := 0.5 * (rI + rF)
	vDeparture := math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival := math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	ΔvDeparture = vDeparture - CircularVelocity(μ, rI)
	ΔvArrival = CircularVelocity(μ, rF) - vArrival
	tof = math.Pi * math.Sqrt(math.Pow(aTransfer, 3)/μ)
	return
}

// Lambert solves the Lambert boundary problem with universal variables:
// Given the initial and final radii and a central body, it returns the needed initial and final velocities
// along with φ which is the square of the difference in eccentric anomaly. Only zero revolution transfers
// are supported.
func Lambert(Ri, Rf r2.Vec, Δt0 float64, ttype TransferType, μ float64) (Vi, Vf r2.Vec, φ float64, err error) {
	if μ <= 0 || !(Δt0 > 0) {
		err = errors.New("gravitational parameter and time of flight must be positive")
		return
	}
	rI := r2.Norm(Ri)
	rF := r2.Norm(Rf)
	if rI < minRadius || rF < minRadius {
		err = errors.New("initial and final radii must be away from the central body")
		return
	}
	cosΔν := r2.Dot(Ri, Rf) / (rI * rF)
	// Compute the direction of motion
	νI := math.Atan2(Ri.Y, Ri.X)
	νF := math.Atan2(Rf.Y, Rf.X)
	dm := 1.0
	switch ttype {
	case TType1:
	case TType2:
		dm = -1.0
	case TTypeAuto:
		if wrapTwoPi(νF-νI) > math.Pi {
			dm = -1.0
		}
	default:
		err = fmt.Errorf("unsupported transfer type %d", ttype)
		return
	}

	A := dm * math.Sqrt(rI*rF*(1+cosΔν))
	if νF-νI < lambertνlambertε && scalar.EqualWithinAbs(A, 0, lambertε) {
		err = errors.New("cannot compute trajectory: Δν ~=0 and A ~=0")
		return
	}

	φup := 4 * math.Pow(math.Pi, 2)
	φlow := -4 * math.Pi
	// Initial guesses for c2 and c3
	c2 := 1 / 2.
	c3 := 1 / 6.
	var Δt, y float64
	var iteration uint
	for math.Abs(Δt-Δt0) > lambertTlambertε {
		if iteration > lambertMaxIter {
			err = fmt.Errorf("did not converge after %d iterations", lambertMaxIter)
			return
		}
		iteration++
		y = rI + rF + A*(φ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			tmpIt := 0
			for y < 0 {
				φ += 0.1
				y = rI + rF + A*(φ*c3-1)/math.Sqrt(c2)
				if tmpIt > lambertMaxIter {
					err = fmt.Errorf("did not converge after %d attempts to increase φ", lambertMaxIter)
					return
				}
				tmpIt++
			}
		}
		χ := math.Sqrt(y / c2)
		Δt = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / math.Sqrt(μ)
		if Δt <= Δt0 {
			φlow = φ
		} else {
			φup = φ
		}
		φ = (φup + φlow) / 2
		if φ > lambertε {
			sφ := math.Sqrt(φ)
			ssφ, csφ := math.Sincos(sφ)
			c2 = (1 - csφ) / φ
			c3 = (sφ - ssφ) / math.Sqrt(math.Pow(φ, 3))
		} else if φ < -lambertε {
			sφ := math.Sqrt(-φ)
			c2 = (1 - math.Cosh(sφ)) / φ
			c3 = (math.Sinh(sφ) - sφ) / math.Sqrt(math.Pow(-φ, 3))
		} else {
			c2 = 1 / 2.
			c3 = 1 / 6.
		}
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/μ)
	// Compute velocities
	Vi = r2.Scale(1/g, r2.Sub(Rf, r2.Scale(f, Ri)))
	Vf = r2.Scale(1/g, r2.Sub(r2.Scale(gDot, Rf), Ri))
	return
}
