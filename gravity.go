package pconic

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// GravityMode selects a gravity strategy.
type GravityMode uint8

const (
	// PatchedConicsMode only uses the dominant body, plus frame dragging.
	PatchedConicsMode GravityMode = iota + 1
	// HybridMode adds attenuated gravity from every other body.
	HybridMode
)

func (m GravityMode) String() string {
	switch m {
	case PatchedConicsMode:
		return "patched"
	case HybridMode:
		return "hybrid"
	}
	panic("cannot stringify unknown gravity mode")
}

// GravityModeFromString returns the mode from its name.
func GravityModeFromString(name string) (GravityMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "patched", "patched_conics", "patched-conics":
		return PatchedConicsMode, nil
	case "hybrid":
		return HybridMode, nil
	default:
		return 0, fmt.Errorf("unknown gravity mode '%s'", name)
	}
}

// GravityStrategy updates the velocity of a craft given its SOI hierarchy.
type GravityStrategy interface {
	// Acceleration returns the acceleration at the position for the provided hierarchy.
	Acceleration(R r2.Vec, state SOIHierarchyState) r2.Vec
	// ApplyGravity returns the velocity after dt of gravity.
	ApplyGravity(R, V r2.Vec, state SOIHierarchyState, dt float64) r2.Vec
	Mode() GravityMode
}

// NewGravityStrategy returns the strategy selected in the configuration.
func NewGravityStrategy(conf Config) (GravityStrategy, error) {
	mode, err := GravityModeFromString(conf.Physics.GravityMode)
	if err != nil {
		return nil, err
	}
	pc := PatchedConics{GravitationalConstant: conf.Physics.GravitationalConstant}
	if mode == HybridMode {
		return Hybrid{PatchedConics: pc, Attenuation: conf.Physics.ParentGravityAttenuation}, nil
	}
	return pc, nil
}

// pull returns the acceleration of an object at `from` toward `to` due to a body of
// gravitational parameter μ. No pull is computed within minRadius.
func pull(from, to r2.Vec, μ float64) r2.Vec {
	d := r2.Sub(to, from)
	dist := r2.Norm(d)
	if dist <= minRadius {
		return r2.Vec{}
	}
	return r2.Scale(μ/(dist*dist*dist), d)
}

// PatchedConics is the pure two-body strategy.
type PatchedConics struct {
	GravitationalConstant float64
}

// Mode implements the GravityStrategy interface.
func (g PatchedConics) Mode() GravityMode {
	return PatchedConicsMode
}

// frameAcceleration returns the acceleration of the reference frame itself: the reference
// body pulled by its parent, and the parent pulled by the grandparent.
func (g PatchedConics) frameAcceleration(state SOIHierarchyState) r2.Vec {
	var acc r2.Vec
	if state.Parent == nil {
		return acc
	}
	acc = pull(state.Reference.Position, state.Parent.Position, state.Parent.GM(g.GravitationalConstant))
	if state.Grandparent != nil {
		acc = r2.Add(acc, pull(state.Parent.Position, state.Grandparent.Position, state.Grandparent.GM(g.GravitationalConstant)))
	}
	return acc
}

// Acceleration implements the GravityStrategy interface.
func (g PatchedConics) Acceleration(R r2.Vec, state SOIHierarchyState) r2.Vec {
	if state.Reference == nil {
		return r2.Vec{}
	}
	acc := g.frameAcceleration(state)
	if dist := distance(R, state.Reference.Position); dist > minRadius && dist <= state.ReferenceSOI {
		acc = r2.Add(acc, pull(R, state.Reference.Position, state.Reference.GM(g.GravitationalConstant)))
	}
	return acc
}

// ApplyGravity implements the GravityStrategy interface.
func (g PatchedConics) ApplyGravity(R, V r2.Vec, state SOIHierarchyState, dt float64) r2.Vec {
	return r2.Add(V, r2.Scale(dt, g.Acceleration(R, state)))
}

// Hybrid adds an attenuated pull from every non-reference body to the patched conics.
type Hybrid struct {
	PatchedConics
	// Attenuation scales the pull of every body which is not the reference.
	Attenuation float64
}

// Mode implements the GravityStrategy interface.
func (g Hybrid) Mode() GravityMode {
	return HybridMode
}

// Acceleration implements the GravityStrategy interface.
func (g Hybrid) Acceleration(R r2.Vec, state SOIHierarchyState) r2.Vec {
	if state.Reference == nil {
		return r2.Vec{}
	}
	acc := g.PatchedConics.Acceleration(R, state)
	var pert r2.Vec
	for _, b := range state.Bodies {
		if b == nil || b == state.Reference {
			continue
		}
		pert = r2.Add(pert, pull(R, b.Position, b.GM(g.GravitationalConstant)))
	}
	return r2.Add(acc, r2.Scale(g.Attenuation, pert))
}

// ApplyGravity implements the GravityStrategy interface.
func (g Hybrid) ApplyGravity(R, V r2.Vec, state SOIHierarchyState, dt float64) r2.Vec {
	return r2.Add(V, r2.Scale(dt, g.Acceleration(R, state)))
}
