package pconic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultGravitationalConstant is the simulation's gravitational constant.
	DefaultGravitationalConstant = 500000.0
	// DefaultSOIMultiplier scales the sphere of influence of every body.
	DefaultSOIMultiplier = 50.0
	// soiMassScale is the mass normalization inside the SOI radius formula.
	soiMassScale = 10000.0
)

// Body defines a gravitating body as provided by the host scene. The core only reads bodies.
type Body struct {
	Name     string
	Position r2.Vec
	Velocity r2.Vec
	Mass     float64
	// Parent is the body this one orbits around, if any. Only two levels are ever followed.
	Parent *Body
	// GravitationalConstant overrides the global constant when strictly positive.
	GravitationalConstant float64
	Static                bool
	Target                bool
}

// String implements the Stringer interface.
func (b *Body) String() string {
	if b == nil {
		return "free space"
	}
	return b.Name + " body"
}

// G returns the gravitational constant applicable to this body.
func (b *Body) G(global float64) float64 {
	if b.GravitationalConstant > 0 {
		return b.GravitationalConstant
	}
	return global
}

// GM returns μ of this body given the global gravitational constant.
func (b *Body) GM(global float64) float64 {
	return b.G(global) * b.Mass
}

// SOI returns the sphere of influence radius of this body.
func (b *Body) SOI(global, multiplier float64) float64 {
	return SOIRadius(b.GM(global), multiplier)
}

// Grandparent returns the parent of this body's parent, if any.
func (b *Body) Grandparent() *Body {
	if b.Parent == nil {
		return nil
	}
	return b.Parent.Parent
}

// SOIRadius returns the sphere of influence radius for a body of gravitational parameter μ.
func SOIRadius(μ, multiplier float64) float64 {
	if μ <= 0 {
		return 0
	}
	return multiplier * math.Sqrt(μ/soiMassScale)
}

// Relative returns the position and velocity of the provided state with respect to this body.
func (b *Body) Relative(R, V r2.Vec) (r2.Vec, r2.Vec) {
	return r2.Sub(R, b.Position), r2.Sub(V, b.Velocity)
}

// AdvanceBodies moves the bodies by dt, as a host would between two ticks. Static bodies
// do not move. Bodies with a bound orbit about their parent follow it analytically, and
// all others drift with their velocity relative to their parent.
func AdvanceBodies(bodies []*Body, dt, G float64) {
	type relState struct{ R, V r2.Vec }
	rel := make(map[*Body]relState, len(bodies))
	for _, b := range bodies {
		if b == nil || b.Static || b.Parent == nil {
			continue
		}
		relR, relV := b.Parent.Relative(b.Position, b.Velocity)
		if o := DeriveElements(relR, relV, b.Parent.GM(G)); o.Valid && o.IsBound() {
			relR, relV = o.StateAtTime(dt)
		} else {
			relR = r2.Add(relR, r2.Scale(dt, relV))
		}
		rel[b] = relState{relR, relV}
	}
	done := make(map[*Body]bool, len(bodies))
	in := make(map[*Body]bool, len(bodies))
	for _, b := range bodies {
		in[b] = true
	}
	var move func(b *Body, depth int)
	move = func(b *Body, depth int) {
		if !in[b] || done[b] || b.Static || depth > len(bodies) {
			return
		}
		done[b] = true
		st, orbiting := rel[b]
		if !orbiting {
			b.Position = r2.Add(b.Position, r2.Scale(dt, b.Velocity))
			return
		}
		move(b.Parent, depth+1)
		b.Position = r2.Add(b.Parent.Position, st.R)
		b.Velocity = r2.Add(b.Parent.Velocity, st.V)
	}
	for _, b := range bodies {
		if b != nil {
			move(b, 0)
		}
	}
}
