package pconic

import (
	"errors"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"gonum.org/v1/gonum/spatial/r2"
)

// CraftState is the state of a craft at the end of a tick.
type CraftState struct {
	Name      string
	Time      float64
	Position  r2.Vec // absolute
	Velocity  r2.Vec // absolute
	Reference *Body
	Elements  OrbitalElements // relative to the reference body at the start of the tick
}

// Craft is a thrust capable vessel flying among the bodies.
// It is not safe for concurrent use.
type Craft struct {
	Name               string
	Position, Velocity r2.Vec
	Time               float64 // simulated time
	// OnReferenceChange is called when the reference body changes, with the new hierarchy.
	OnReferenceChange func(from, to *Body, state SOIHierarchyState)
	// OnPrediction is called with every new trajectory prediction.
	OnPrediction func(patches []TrajectoryPatch)

	resolver       Resolver
	gravity        GravityStrategy
	predictor      Predictor
	conf           PredictionConfig
	impulses       []r2.Vec
	state          SOIHierarchyState
	prediction     []TrajectoryPatch
	lastPrediction float64
	started        bool
	metrics        *Metrics
	logger         kitlog.Logger
}

// NewCraft returns a new craft at the provided absolute state. The metrics may be nil.
func NewCraft(name string, R, V r2.Vec, conf Config, metrics *Metrics, logger kitlog.Logger) (*Craft, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	if !isFinite(R) || !isFinite(V) {
		return nil, errors.New("initial state must be finite")
	}
	predictor, err := NewPredictor(conf, logger)
	if err != nil {
		return nil, err
	}
	predictor.Metrics = metrics
	return &Craft{
		Name:      name,
		Position:  R,
		Velocity:  V,
		resolver:  NewResolver(conf, logger),
		gravity:   predictor.Gravity,
		predictor: predictor,
		conf:      conf.Prediction,
		metrics:   metrics,
		logger:    kitlog.With(logger, "subsys", "craft", "craft", name),
	}, nil
}

// Thrust queues an instantaneous velocity change, applied at the next tick.
func (c *Craft) Thrust(Δv r2.Vec) {
	c.impulses = append(c.impulses, Δv)
}

// Tick resolves the hierarchy, applies queued impulses and gravity for dt, and moves the
// craft with its new velocity. The bodies are only read.
func (c *Craft) Tick(bodies []*Body, dt float64) (CraftState, error) {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return c.snapshot(), fmt.Errorf("invalid time step %f", dt)
	}
	state := c.resolver.Resolve(c.Position, bodies)
	o := state.AttachElements(c.Position, c.Velocity, c.resolver.GravitationalConstant)
	state.Exiting = exiting(state, o, c.Position, c.Velocity)
	prev := c.state.Reference
	c.state = state
	if !c.started || state.Reference != prev {
		if c.started {
			c.metrics.transition(state.Reference)
			c.logger.Log("level", "info", "status", "soi change", "from", prev, "to", state.Reference, "time", c.Time)
			if c.OnReferenceChange != nil {
				c.OnReferenceChange(prev, state.Reference, state)
			}
		}
		c.started = true
		c.predict(bodies)
	}

	for _, Δv := range c.impulses {
		c.Velocity = r2.Add(c.Velocity, Δv)
	}
	c.impulses = c.impulses[:0]
	c.Velocity = c.gravity.ApplyGravity(c.Position, c.Velocity, state, dt)
	c.Position = r2.Add(c.Position, r2.Scale(dt, c.Velocity))
	c.Time += dt
	c.metrics.distance(state.DistanceToSOIEdge)

	if c.Time-c.lastPrediction >= c.conf.Interval {
		c.predict(bodies)
	}
	return c.snapshot(), nil
}

func (c *Craft) predict(bodies []*Body) {
	c.prediction = c.predictor.Predict(c.Position, c.Velocity, bodies, c.conf.MaxTime, c.conf.Points)
	c.lastPrediction = c.Time
	if c.OnPrediction != nil {
		c.OnPrediction(c.prediction)
	}
}

func (c *Craft) snapshot() CraftState {
	o, _ := c.state.Elements()
	return CraftState{Name: c.Name, Time: c.Time, Position: c.Position, Velocity: c.Velocity, Reference: c.state.Reference, Elements: o}
}

// State returns the hierarchy resolved at the last tick.
func (c *Craft) State() SOIHierarchyState {
	return c.state
}

// Prediction returns the latest trajectory prediction.
func (c *Craft) Prediction() []TrajectoryPatch {
	return c.prediction
}

// LogStatus logs the status of the craft.
func (c *Craft) LogStatus() {
	o, _ := c.state.Elements()
	c.logger.Log("level", "info", "time", c.Time, "reference", c.state.Reference, "orbit", o)
}

// exiting returns whether the craft is moving outward on a trajectory which leaves the
// SOI of its reference.
func exiting(state SOIHierarchyState, o OrbitalElements, R, V r2.Vec) bool {
	if state.Reference == nil {
		return false
	}
	relR, relV := state.Reference.Relative(R, V)
	if r2.Dot(relR, relV) <= 0 {
		return false
	}
	return !o.Valid || !o.IsBound() || o.Apoapsis > state.ReferenceSOI
}
