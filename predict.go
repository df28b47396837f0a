package pconic

import (
	"fmt"
	"math"
	"strings"

	"github.com/ChristopherRabotin/pconic/integrator"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"gonum.org/v1/gonum/spatial/r2"
)

// IntegrationMethod defines how the general trajectory path is propagated.
type IntegrationMethod uint8

const (
	// EulerMethod is the semi-implicit Euler step used by the host tick.
	EulerMethod IntegrationMethod = iota + 1
	// RK4Method uses the fixed step Runge Kutta integrator.
	RK4Method
)

func (m IntegrationMethod) String() string {
	switch m {
	case EulerMethod:
		return "euler"
	case RK4Method:
		return "rk4"
	}
	panic("cannot stringify unknown integration method")
}

// IntegrationMethodFromString returns the integration method from its name.
func IntegrationMethodFromString(name string) (IntegrationMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euler":
		return EulerMethod, nil
	case "rk4":
		return RK4Method, nil
	default:
		return 0, fmt.Errorf("unknown integration method '%s'", name)
	}
}

// TrajectoryPatch is a sequence of positions relative to the center of the Reference
// body. Positions are absolute when Reference is nil.
type TrajectoryPatch struct {
	Reference *Body
	Points    []r2.Vec
}

func (p TrajectoryPatch) String() string {
	return fmt.Sprintf("%s (%d points)", p.Reference, len(p.Points))
}

// Predictor computes the future trajectory of a craft for display.
type Predictor struct {
	Resolver Resolver
	Gravity  GravityStrategy
	Method   IntegrationMethod
	Metrics  *Metrics // optional
	logger   kitlog.Logger
}

// NewPredictor returns a predictor from the provided configuration.
func NewPredictor(conf Config, logger kitlog.Logger) (Predictor, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	gravity, err := NewGravityStrategy(conf)
	if err != nil {
		return Predictor{}, err
	}
	meth, err := IntegrationMethodFromString(conf.Prediction.Method)
	if err != nil {
		return Predictor{}, err
	}
	return Predictor{
		Resolver: NewResolver(conf, logger),
		Gravity:  gravity,
		Method:   meth,
		logger:   kitlog.With(logger, "subsys", "predict"),
	}, nil
}

// PredictTrajectory predicts with patched conics gravity, semi-implicit Euler and the
// provided gravitational constant.
func PredictTrajectory(R, V r2.Vec, bodies []*Body, maxTime float64, numPoints int, G float64) []TrajectoryPatch {
	p := Predictor{
		Resolver: Resolver{GravitationalConstant: G, SOIMultiplier: DefaultSOIMultiplier},
		Gravity:  PatchedConics{G},
		Method:   EulerMethod,
	}
	return p.Predict(R, V, bodies, maxTime, numPoints)
}

// Predict returns the trajectory patches from the provided absolute state.
// A bound orbit yields a single analytic patch of numPoints+1 samples, clipped to the
// SOI of its reference. Anything else is propagated for maxTime in numPoints steps and
// split in a new patch every time the reference body changes.
func (p Predictor) Predict(R, V r2.Vec, bodies []*Body, maxTime float64, numPoints int) []TrajectoryPatch {
	if numPoints <= 0 || !(maxTime > 0) || math.IsInf(maxTime, 1) || !isFinite(R) || !isFinite(V) {
		return nil
	}
	state := p.Resolver.Resolve(R, bodies)
	o := state.AttachElements(R, V, p.Resolver.GravitationalConstant)
	if o.Valid && o.IsBound() {
		p.Metrics.predicted("analytic")
		patch := analyticPatch(o, state, numPoints)
		p.debug("path", "analytic", "reference", state.Reference, "points", len(patch.Points))
		return []TrajectoryPatch{patch}
	}
	p.Metrics.predicted("integrated")
	prop := &propagation{
		gravity:  p.Gravity,
		resolver: p.Resolver,
		bodies:   bodies,
		R:        R,
		V:        V,
		steps:    numPoints,
	}
	prop.current.Reference = state.Reference
	prop.record(state)
	h := maxTime / float64(numPoints)
	meth := EulerMethod
	if p.Method == RK4Method {
		meth = RK4Method
		if _, _, err := integrator.NewRK4(0, h, prop).Solve(); err != nil {
			p.log("level", "warning", "path", "integrated", "err", err)
		}
	} else {
		prop.euler(h)
	}
	patches := prop.close()
	p.debug("path", "integrated", "method", meth, "patches", len(patches))
	return patches
}

func (p Predictor) log(keyvals ...interface{}) {
	if p.logger != nil {
		p.logger.Log(keyvals...)
	}
}

func (p Predictor) debug(keyvals ...interface{}) {
	if p.logger != nil {
		level.Debug(p.logger).Log(keyvals...)
	}
}

// analyticPatch samples the conic over [0, 2π], or over [-ν_exit, ν_exit] when the
// apoapsis lies beyond the SOI of the reference.
func analyticPatch(o OrbitalElements, state SOIHierarchyState, numPoints int) TrajectoryPatch {
	νStart, νEnd := 0.0, twoPi
	if soi := state.ReferenceSOI; !math.IsInf(soi, 1) && o.Apoapsis > soi && o.E > 0 {
		cosν := (o.SemiParameter()/soi - 1) / o.E
		νExit := math.Acos(math.Max(-1, math.Min(1, cosν)))
		νStart, νEnd = -νExit, νExit
	}
	patch := TrajectoryPatch{Reference: state.Reference, Points: make([]r2.Vec, numPoints+1)}
	for i := 0; i <= numPoints; i++ {
		ν := νStart + (νEnd-νStart)*float64(i)/float64(numPoints)
		patch.Points[i] = PositionAtTrueAnomaly(o, ν)
	}
	return patch
}

// propagation integrates a trajectory and splits it in patches. The hierarchy is
// resolved at the start of each step and kept for the whole step.
type propagation struct {
	gravity  GravityStrategy
	resolver Resolver
	bodies   []*Body
	R, V     r2.Vec
	state    SOIHierarchyState
	steps    int // remaining steps
	current  TrajectoryPatch
	patches  []TrajectoryPatch
}

// record appends the current position to the patch of its reference body.
func (p *propagation) record(state SOIHierarchyState) {
	p.state = state
	if state.Reference != p.current.Reference {
		p.flush()
		p.current = TrajectoryPatch{Reference: state.Reference}
	}
	pt := p.R
	if state.Reference != nil {
		pt = r2.Sub(p.R, state.Reference.Position)
	}
	p.current.Points = append(p.current.Points, pt)
}

// flush keeps the current patch only if it has more than one point.
func (p *propagation) flush() {
	if len(p.current.Points) > 1 {
		p.patches = append(p.patches, p.current)
	}
}

func (p *propagation) close() []TrajectoryPatch {
	p.flush()
	p.current = TrajectoryPatch{}
	return p.patches
}

func (p *propagation) euler(h float64) {
	for ; p.steps > 0; p.steps-- {
		p.V = p.gravity.ApplyGravity(p.R, p.V, p.state, h)
		p.R = r2.Add(p.R, r2.Scale(h, p.V))
		if !isFinite(p.R) {
			return
		}
		p.record(p.resolver.Resolve(p.R, p.bodies))
	}
}

// GetState implements the integrator.Integrable interface.
func (p *propagation) GetState() []float64 {
	return []float64{p.R.X, p.R.Y, p.V.X, p.V.Y}
}

// SetState implements the integrator.Integrable interface.
func (p *propagation) SetState(t float64, s []float64) {
	p.R = r2.Vec{X: s[0], Y: s[1]}
	p.V = r2.Vec{X: s[2], Y: s[3]}
	p.steps--
	p.record(p.resolver.Resolve(p.R, p.bodies))
}

// Stop implements the integrator.Integrable interface.
func (p *propagation) Stop(t float64) bool {
	return p.steps <= 0
}

// Func implements the integrator.Integrable interface.
func (p *propagation) Func(t float64, s []float64) []float64 {
	acc := p.gravity.Acceleration(r2.Vec{X: s[0], Y: s[1]}, p.state)
	return []float64{s[2], s[3], acc.X, acc.Y}
}
