package pconic

import (
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"gonum.org/v1/gonum/spatial/r2"
)

// SOIHierarchyState is the snapshot of the reference frame hierarchy for one position.
// It is recomputed every tick and references, but does not own, the bodies.
type SOIHierarchyState struct {
	Reference         *Body // nil in free space
	Parent            *Body
	Grandparent       *Body
	ReferenceSOI      float64 // +Inf in free space
	DistanceToSOIEdge float64 // positive inside the SOI
	Exiting           bool    // set by hosts which track SOI exits; resolution leaves it false
	// Bodies is the candidate set this state was resolved from.
	Bodies []*Body

	elements    OrbitalElements
	hasElements bool
}

// FreeSpace returns whether no body dominates this position.
func (s SOIHierarchyState) FreeSpace() bool {
	return s.Reference == nil
}

// AttachElements derives and caches the orbital elements of the provided absolute state
// with respect to the reference body. Free space yields invalid elements.
func (s *SOIHierarchyState) AttachElements(R, V r2.Vec, G float64) OrbitalElements {
	if s.Reference == nil {
		s.elements = OrbitalElements{}
	} else {
		relR, relV := s.Reference.Relative(R, V)
		s.elements = DeriveElements(relR, relV, s.Reference.GM(G))
	}
	s.hasElements = true
	return s.elements
}

// Elements returns the attached orbital elements, if AttachElements was called.
func (s SOIHierarchyState) Elements() (OrbitalElements, bool) {
	return s.elements, s.hasElements
}

// Resolver determines the dominant body of a position.
type Resolver struct {
	GravitationalConstant float64
	SOIMultiplier         float64
	logger                kitlog.Logger
}

// NewResolver returns a resolver from the provided configuration.
func NewResolver(conf Config, logger kitlog.Logger) Resolver {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return Resolver{conf.Physics.GravitationalConstant, conf.Physics.SOIMultiplier, kitlog.With(logger, "subsys", "soi")}
}

// ResolveSOI resolves the hierarchy with the default SOI multiplier.
func ResolveSOI(ship r2.Vec, bodies []*Body, G float64) SOIHierarchyState {
	return Resolver{GravitationalConstant: G, SOIMultiplier: DefaultSOIMultiplier}.Resolve(ship, bodies)
}

// Resolve returns the SOI hierarchy at the ship position.
// The innermost SOI of all orbiting, non-static bodies wins, which picks a moon over its
// planet. Otherwise the first body, in input order, whose SOI contains the ship is used.
func (r Resolver) Resolve(ship r2.Vec, bodies []*Body) SOIHierarchyState {
	state := SOIHierarchyState{
		ReferenceSOI:      math.Inf(1),
		DistanceToSOIEdge: math.Inf(1),
		Bodies:            bodies,
	}

	var best *Body
	bestSOI, bestDist := math.Inf(1), 0.0
	for _, b := range bodies {
		if b == nil || b.Static || b.Parent == nil {
			continue
		}
		soi := b.SOI(r.GravitationalConstant, r.SOIMultiplier)
		dist := distance(ship, b.Position)
		if dist <= soi && soi < bestSOI {
			best, bestSOI, bestDist = b, soi, dist
		}
	}

	if best == nil {
		for i, b := range bodies {
			if b == nil {
				continue
			}
			dist := distance(ship, b.Position)
			if dist < minRadius {
				continue
			}
			soi := b.SOI(r.GravitationalConstant, r.SOIMultiplier)
			if dist <= soi {
				best, bestSOI, bestDist = b, soi, dist
				r.warnOverlap(ship, bodies[i+1:], b)
				break
			}
		}
	}

	if best == nil {
		return state
	}
	state.Reference = best
	state.Parent = best.Parent
	state.Grandparent = best.Grandparent()
	state.ReferenceSOI = bestSOI
	state.DistanceToSOIEdge = bestSOI - bestDist
	return state
}

// warnOverlap logs when the fallback choice depends on the order of the bodies.
func (r Resolver) warnOverlap(ship r2.Vec, rest []*Body, chosen *Body) {
	if r.logger == nil {
		return
	}
	for _, b := range rest {
		if b == nil || b == chosen.Parent || b.Parent == chosen {
			continue
		}
		dist := distance(ship, b.Position)
		if dist >= minRadius && dist <= b.SOI(r.GravitationalConstant, r.SOIMultiplier) {
			level.Debug(r.logger).Log("status", "ambiguous", "chosen", chosen.Name, "ignored", b.Name)
		}
	}
}
