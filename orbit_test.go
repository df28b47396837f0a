package pconic

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

const testμ = 500000.0 * 20.0

func TestDeriveElementsInvalid(t *testing.T) {
	R, V := circularState(testμ, 1000, 0)
	for _, μ := range []float64{0, -1, -testμ} {
		if o := DeriveElements(R, V, μ); o.Valid {
			t.Fatalf("μ=%f should be invalid", μ)
		}
	}
	for _, R := range []r2.Vec{{}, {X: 0.5}, {X: 0.5, Y: -0.5}} {
		if o := DeriveElements(R, V, testμ); o.Valid {
			t.Fatalf("|R|=%f should be invalid", r2.Norm(R))
		}
	}
	// Exactly at escape velocity the energy is zero.
	Vesc := r2.Vec{Y: math.Sqrt(2 * testμ / 1000)}
	if o := DeriveElements(R, Vesc, testμ); o.Valid {
		t.Fatalf("parabolic orbit should be invalid: %s", o)
	}
	if o := DeriveElements(R, Vesc, testμ); o.String() != "invalid orbit" {
		t.Fatalf("unexpected string %s", o)
	}
}

func TestDeriveElementsCircular(t *testing.T) {
	for _, θ := range []float64{0, 0.3, math.Pi / 2, 2.5, -2} {
		R, V := circularState(testμ, 1000, θ)
		o := DeriveElements(R, V, testμ)
		if !o.Valid {
			t.Fatalf("θ=%f: orbit should be valid", θ)
		}
		if !o.IsCircular() || !o.IsBound() || o.IsElliptical() || o.IsHyperbolic() {
			t.Fatalf("θ=%f: orbit should be circular: %s", θ, o)
		}
		if !scalar.EqualWithinAbs(o.A, 1000, 1e-6) {
			t.Fatalf("a=%f", o.A)
		}
		if !scalar.EqualWithinAbs(o.Periapsis, o.Apoapsis, 1e-3) {
			t.Fatalf("rP=%f rA=%f", o.Periapsis, o.Apoapsis)
		}
		if !scalar.EqualWithinAbs(o.B, o.A, 1e-3) {
			t.Fatalf("b=%f a=%f", o.B, o.A)
		}
		if o.IsRetrograde() {
			t.Fatal("orbit should be prograde")
		}
		expPeriod := 2 * math.Pi * math.Sqrt(math.Pow(1000, 3)/testμ)
		if !scalar.EqualWithinAbs(o.Period, expPeriod, 1e-9) {
			t.Fatalf("period=%f expected %f", o.Period, expPeriod)
		}
		if !scalar.EqualWithinAbs(o.MeanMotion*o.Period, 2*math.Pi, 1e-12) {
			t.Fatalf("mean motion %f inconsistent with period", o.MeanMotion)
		}
		for ν := -math.Pi; ν <= math.Pi; ν += math.Pi / 12 {
			R := PositionAtTrueAnomaly(o, ν)
			if !scalar.EqualWithinAbs(r2.Norm(R), o.Periapsis, 1e-3) {
				t.Fatalf("|R(ν=%f)|=%f expected %f", ν, r2.Norm(R), o.Periapsis)
			}
		}
	}
}

func TestDeriveElementsElliptical(t *testing.T) {
	// At periapsis on the +x axis with 20% more than circular velocity.
	r := 5000.0
	V := r2.Vec{Y: 1.2 * math.Sqrt(testμ/r)}
	o := DeriveElements(r2.Vec{X: r}, V, testμ)
	if !o.Valid || !o.IsElliptical() {
		t.Fatalf("orbit should be elliptical: %s", o)
	}
	// vP² = μ(1+e)/rP
	expE := 1.44 - 1
	if !scalar.EqualWithinAbs(o.E, expE, 1e-9) {
		t.Fatalf("e=%f expected %f", o.E, expE)
	}
	if !scalar.EqualWithinAbs(o.Periapsis, r, 1e-6) {
		t.Fatalf("rP=%f expected %f", o.Periapsis, r)
	}
	if !scalar.EqualWithinAbs(o.Apoapsis, o.A*(1+o.E), 1e-6) {
		t.Fatalf("rA=%f", o.Apoapsis)
	}
	if ok, err := anglesEqual(o.Omega, 0); !ok {
		t.Fatalf("ω invalid: %s", err)
	}
	if ok, err := anglesEqual(o.Nu, 0); !ok {
		t.Fatalf("ν invalid: %s", err)
	}
	if !scalar.EqualWithinAbs(o.Energy, -testμ/(2*o.A), 1e-9) {
		t.Fatalf("ξ=%f", o.Energy)
	}
	if !scalar.EqualWithinAbs(o.B, o.A*math.Sqrt(1-o.E*o.E), 1e-9) {
		t.Fatalf("b=%f", o.B)
	}
}

func TestDeriveElementsHyperbolic(t *testing.T) {
	r := 2000.0
	V := r2.Vec{Y: 2 * math.Sqrt(testμ/r)}
	o := DeriveElements(r2.Vec{X: r}, V, testμ)
	if !o.Valid || !o.IsHyperbolic() || o.IsBound() {
		t.Fatalf("orbit should be hyperbolic: %s", o)
	}
	if o.A >= 0 {
		t.Fatalf("a=%f should be negative", o.A)
	}
	if !math.IsInf(o.Apoapsis, 1) || !math.IsInf(o.Period, 1) || o.MeanMotion != 0 {
		t.Fatalf("open orbit has rA=%f T=%f n=%f", o.Apoapsis, o.Period, o.MeanMotion)
	}
	if !scalar.EqualWithinAbs(o.Periapsis, r, 1e-6) {
		t.Fatalf("rP=%f expected %f", o.Periapsis, r)
	}
	if !scalar.EqualWithinAbs(o.B, math.Abs(o.A)*math.Sqrt(o.E*o.E-1), 1e-9) {
		t.Fatalf("b=%f", o.B)
	}
	// Beyond the asymptote there is no point on the conic.
	νInf := math.Acos(-1 / o.E)
	if isFinite(PositionAtTrueAnomaly(o, νInf+0.01)) {
		t.Fatal("position past the asymptote should be infinite")
	}
	if !isFinite(PositionAtTrueAnomaly(o, νInf-0.1)) {
		t.Fatal("position before the asymptote should be finite")
	}
}

func TestTrueAnomalyNormalization(t *testing.T) {
	for θ := -math.Pi + 0.01; θ < math.Pi; θ += 0.1 {
		R := polar(3000, θ)
		V := rotate(r2.Vec{X: 10, Y: 40}, θ)
		o := DeriveElements(R, V, testμ)
		if !o.Valid {
			t.Fatalf("θ=%f: invalid orbit", θ)
		}
		if o.Nu <= -math.Pi || o.Nu > math.Pi {
			t.Fatalf("θ=%f: ν=%f not normalized", θ, o.Nu)
		}
	}
}

func TestElementsRoundTrip(t *testing.T) {
	cases := []struct {
		R, V r2.Vec
	}{
		{r2.Vec{X: 3000, Y: 1200}, r2.Vec{X: -20, Y: 50}},
		{r2.Vec{X: -4000, Y: 100}, r2.Vec{X: 5, Y: 45}},   // retrograde
		{r2.Vec{X: 100, Y: -2500}, r2.Vec{X: 90, Y: 10}},  // hyperbolic
		{r2.Vec{X: -700, Y: -700}, r2.Vec{X: -80, Y: 80}}, // retrograde, elliptical
	}
	for i, c := range cases {
		o := DeriveElements(c.R, c.V, testμ)
		if !o.Valid {
			t.Fatalf("#%d invalid", i)
		}
		R := PositionAtTrueAnomaly(o, o.Nu)
		if !vectorsEqual(R, c.R, 1e-6) {
			t.Fatalf("#%d R round trip failed:\n%+v\n%+v\n%s", i, R, c.R, o)
		}
		V := VelocityAtTrueAnomaly(o, o.Nu)
		if !vectorsEqual(V, c.V, 1e-6) {
			t.Fatalf("#%d V round trip failed:\n%+v\n%+v\n%s", i, V, c.V, o)
		}
		o1 := DeriveElements(R, V, testμ)
		if ok, err := o.StrictlyEquals(o1); !ok {
			t.Fatalf("#%d orbits differ: %s", i, err)
		}
	}
}

func TestPositionAtTrueAnomalyInvalid(t *testing.T) {
	if R := PositionAtTrueAnomaly(OrbitalElements{}, 1); R.X != 0 || R.Y != 0 {
		t.Fatalf("invalid elements should give zero vector, got %+v", R)
	}
	if V := VelocityAtTrueAnomaly(OrbitalElements{}, 1); V.X != 0 || V.Y != 0 {
		t.Fatalf("invalid elements should give zero vector, got %+v", V)
	}
}

func TestOrbitEquals(t *testing.T) {
	R, V := circularState(testμ, 1000, 0)
	o0 := DeriveElements(R, V, testμ)
	if ok, err := o0.Equals(OrbitalElements{}); ok || err == nil {
		t.Fatal("invalid orbit should never be equal")
	}
	o1 := DeriveElements(R, r2.Scale(1.1, V), testμ)
	if ok, _ := o0.Equals(o1); ok {
		t.Fatal("different orbits should not be equal")
	}
	o2 := DeriveElements(R, r2.Scale(-1, V), testμ)
	if ok, _ := o0.Equals(o2); ok {
		t.Fatal("orbits flown in opposite directions should not be equal")
	}
	R1, V1 := circularState(testμ, 1000, 1)
	o3 := DeriveElements(R1, V1, testμ)
	if ok, err := o0.Equals(o3); !ok {
		t.Fatalf("same circular orbit with different phase should be equal: %s", err)
	}
	if ok, _ := o0.StrictlyEquals(o3); ok {
		t.Fatal("different phase should not be strictly equal")
	}
}
