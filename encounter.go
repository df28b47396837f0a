package pconic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	encounterIterations = 20
	encounterTolerance  = 0.01 // time units
)

// Encounter is where and when a craft enters the SOI of a target. Positions are relative
// to the central body both orbits are about.
type Encounter struct {
	Time           float64
	Position       r2.Vec
	TargetPosition r2.Vec
	Distance       float64
}

func (e Encounter) String() string {
	return fmt.Sprintf("t=%.3f at (%.3f, %.3f), %.3f from target", e.Time, e.Position.X, e.Position.Y, e.Distance)
}

// FindSOIEntry returns the first entry of the ship into the SOI of the target within
// maxTime, if any. Both orbits must be bound and about the same body. The search samples
// samples+1 instants and refines the first outside to inside transition by bisection.
// A ship already inside the SOI encounters it at time zero.
func FindSOIEntry(ship, target OrbitalElements, targetSOI, maxTime float64, samples int) (Encounter, bool) {
	if !ship.Valid || !target.Valid || !ship.IsBound() || !target.IsBound() {
		return Encounter{}, false
	}
	if samples <= 0 || !(maxTime > 0) || !(targetSOI > 0) {
		return Encounter{}, false
	}
	encounterAt := func(t float64) (Encounter, bool) {
		R, tgt := ship.PositionAtTime(t), target.PositionAtTime(t)
		if !isFinite(R) || !isFinite(tgt) {
			return Encounter{}, false
		}
		return Encounter{Time: t, Position: R, TargetPosition: tgt, Distance: distance(R, tgt)}, true
	}

	dt := maxTime / float64(samples)
	wasOutside := false
	for i := 0; i <= samples; i++ {
		t := float64(i) * dt
		enc, ok := encounterAt(t)
		if !ok {
			continue
		}
		inside := enc.Distance < targetSOI
		if inside && i == 0 {
			return enc, true
		}
		if inside && wasOutside {
			lo, hi := t-dt, t
			for j := 0; j < encounterIterations; j++ {
				mid := (lo + hi) / 2
				if midEnc, ok := encounterAt(mid); ok && midEnc.Distance < targetSOI {
					hi = mid
				} else {
					lo = mid
				}
				if math.Abs(hi-lo) < encounterTolerance {
					break
				}
			}
			return encounterAt((lo + hi) / 2)
		}
		wasOutside = !inside
	}
	return Encounter{}, false
}
