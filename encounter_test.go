package pconic

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestFindSOIEntryTransfer(t *testing.T) {
	μ := 500000.0 * 20
	// Transfer orbit from periapsis toward a planet on a circular outer orbit.
	ship := ElementsFromKeplerian(7000, 0.15, 0, 0, μ, 1)
	target := ElementsFromKeplerian(8000, 0, 0, Deg2rad(100), μ, 1)
	if !ship.Valid || !target.Valid {
		t.Fatal("invalid orbits")
	}
	enc, ok := FindSOIEntry(ship, target, 1500, 2*ship.Period, 500)
	if !ok {
		t.Fatal("expected an encounter")
	}
	if !scalar.EqualWithinAbs(enc.Time, 1376.135, 5e-2) {
		t.Fatalf("entry time %f", enc.Time)
	}
	if !scalar.EqualWithinAbs(enc.Distance, 1500, 1) {
		t.Fatalf("entry should be on the SOI: %s", enc)
	}
	if !vectorsEqual(enc.Position, r2.Vec{X: 880.22, Y: 6652.49}, 2) {
		t.Fatalf("entry point %+v", enc.Position)
	}
	if !vectorsEqual(enc.TargetPosition, r2.Vec{X: 215.47, Y: 7997.10}, 2) {
		t.Fatalf("target position %+v", enc.TargetPosition)
	}
}

func TestFindSOIEntryMiss(t *testing.T) {
	μ := 500000.0 * 20
	ship := ElementsFromKeplerian(7500, 0.1, 0, Deg2rad(-30), μ, 1)
	target := ElementsFromKeplerian(8000, 0, 0, Deg2rad(60), μ, 1)
	if enc, ok := FindSOIEntry(ship, target, 1200, 2*ship.Period, 500); ok {
		t.Fatalf("no encounter expected within two periods, got %s", enc)
	}
}

func TestFindSOIEntryAlreadyInside(t *testing.T) {
	μ := 500000.0 * 20
	ship := ElementsFromKeplerian(8000, 0.01, 0, Deg2rad(99), μ, 1)
	target := ElementsFromKeplerian(8000, 0, 0, Deg2rad(100), μ, 1)
	enc, ok := FindSOIEntry(ship, target, 1500, 1000, 100)
	if !ok || enc.Time != 0 {
		t.Fatalf("expected an encounter at time zero, got %s (%v)", enc, ok)
	}
}

func TestFindSOIEntryInvalid(t *testing.T) {
	μ := 500000.0 * 20
	ship := ElementsFromKeplerian(7000, 0.15, 0, 0, μ, 1)
	target := ElementsFromKeplerian(8000, 0, 0, Deg2rad(100), μ, 1)
	hyperbola := DeriveElements(r2.Vec{X: 7000}, r2.Vec{Y: 100}, μ)
	if hyperbola.IsBound() {
		t.Fatal("expected an open orbit")
	}
	for i, f := range []func() bool{
		func() bool { _, ok := FindSOIEntry(OrbitalElements{}, target, 1500, 1000, 100); return ok },
		func() bool { _, ok := FindSOIEntry(hyperbola, target, 1500, 1000, 100); return ok },
		func() bool { _, ok := FindSOIEntry(ship, target, 1500, 1000, 0); return ok },
		func() bool { _, ok := FindSOIEntry(ship, target, 1500, math.NaN(), 100); return ok },
		func() bool { _, ok := FindSOIEntry(ship, target, 0, 1000, 100); return ok },
	} {
		if f() {
			t.Fatalf("#%d: no encounter expected", i)
		}
	}
}

func TestElementsFromKeplerian(t *testing.T) {
	μ := 500000.0 * 20
	o := ElementsFromKeplerian(7000, 0.15, Deg2rad(45), Deg2rad(-120), μ, 1)
	if !scalar.EqualWithinAbs(o.A, 7000, 1e-6) || !scalar.EqualWithinAbs(o.E, 0.15, 1e-9) {
		t.Fatalf("unexpected shape: %s", o)
	}
	if ok, err := anglesEqual(o.Omega, Deg2rad(45)); !ok {
		t.Fatalf("ω: %s", err)
	}
	if ok, err := anglesEqual(o.Nu, Deg2rad(-120)); !ok {
		t.Fatalf("ν: %s", err)
	}
	if o.IsRetrograde() {
		t.Fatal("should be prograde")
	}
	if retro := ElementsFromKeplerian(7000, 0.15, 0, 0, μ, -1); !retro.IsRetrograde() {
		t.Fatal("should be retrograde")
	}
}
