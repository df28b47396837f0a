package pconic

import (
	"errors"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r2"
)

// Burn is an impulsive maneuver. V is along the velocity relative to the reference body
// and N is normal to it, positive to the left of the velocity.
type Burn struct {
	Time float64
	V, N float64
}

// Δv returns the absolute velocity change of this burn for the provided relative velocity.
func (b Burn) Δv(relV r2.Vec) r2.Vec {
	dir := unit(relV)
	return r2.Add(r2.Scale(b.V, dir), r2.Scale(b.N, rotate(dir, math.Pi/2)))
}

func (b Burn) String() string {
	return fmt.Sprintf("burn @%.3f V=%.3f N=%.3f", b.Time, b.V, b.N)
}

// CraftSetup is the initial state of the craft of a scenario.
type CraftSetup struct {
	Name               string
	Position, Velocity r2.Vec
}

// Scenario is a set of bodies and a craft, flown with a given configuration.
type Scenario struct {
	Config   Config
	Bodies   []*Body
	Craft    CraftSetup
	Burns    []Burn
	Step     float64
	Duration float64
}

// Body returns the body of the provided name, or nil.
func (s Scenario) Body(name string) *Body {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// NewCraft returns the craft of this scenario.
func (s Scenario) NewCraft(metrics *Metrics, logger kitlog.Logger) (*Craft, error) {
	return NewCraft(s.Craft.Name, s.Craft.Position, s.Craft.Velocity, s.Config, metrics, logger)
}

// LoadScenario reads a scenario TOML file. The physics and prediction sections of the file
// override the default configuration.
func LoadScenario(path string) (Scenario, error) {
	v := NewViper()
	v.SetDefault("simulation.step", 0.01)
	v.SetDefault("simulation.duration", 30.0)
	v.SetDefault("craft.name", "craft")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return scenarioFromViper(v)
}

func scenarioFromViper(v *viper.Viper) (s Scenario, err error) {
	if s.Config, err = FromViper(v); err != nil {
		return
	}
	s.Step = v.GetFloat64("simulation.step")
	s.Duration = v.GetFloat64("simulation.duration")
	if !(s.Step > 0) || !(s.Duration > 0) {
		err = errors.New("simulation step and duration must be positive")
		return
	}
	if s.Bodies, err = readBodies(v, s.Config.Physics.GravitationalConstant); err != nil {
		return
	}
	if s.Craft, err = readCraft(v, s); err != nil {
		return
	}
	for burnNo := 0; v.IsSet(fmt.Sprintf("burns.%d", burnNo)); burnNo++ {
		key := fmt.Sprintf("burns.%d", burnNo)
		burn := Burn{Time: v.GetFloat64(key + ".time"), V: v.GetFloat64(key + ".V"), N: v.GetFloat64(key + ".N")}
		if burn.Time < 0 || burn.Time > s.Duration {
			err = fmt.Errorf("%s scheduled out of the simulation time", burn)
			return
		}
		s.Burns = append(s.Burns, burn)
	}
	return
}

type bodyEntry struct {
	body       *Body
	parent     string
	radius     float64
	angle      float64 // degrees
	retrograde bool
	placed     bool
}

func readBodies(v *viper.Viper, G float64) ([]*Body, error) {
	var entries []*bodyEntry
	byName := make(map[string]*bodyEntry)
	for bodyNo := 0; v.IsSet(fmt.Sprintf("bodies.%d", bodyNo)); bodyNo++ {
		key := fmt.Sprintf("bodies.%d.", bodyNo)
		entry := &bodyEntry{
			body: &Body{
				Name:                  v.GetString(key + "name"),
				Mass:                  v.GetFloat64(key + "mass"),
				Position:              r2.Vec{X: v.GetFloat64(key + "x"), Y: v.GetFloat64(key + "y")},
				Velocity:              r2.Vec{X: v.GetFloat64(key + "vx"), Y: v.GetFloat64(key + "vy")},
				GravitationalConstant: v.GetFloat64(key + "gravitational_constant"),
				Static:                v.GetBool(key + "static"),
				Target:                v.GetBool(key + "target"),
			},
			parent:     v.GetString(key + "parent"),
			radius:     v.GetFloat64(key + "radius"),
			angle:      v.GetFloat64(key + "angle"),
			retrograde: v.GetBool(key + "retrograde"),
		}
		if entry.body.Name == "" {
			return nil, fmt.Errorf("body #%d has no name", bodyNo)
		}
		if _, dup := byName[entry.body.Name]; dup {
			return nil, fmt.Errorf("body `%s` is defined twice", entry.body.Name)
		}
		if !(entry.body.Mass > 0) {
			return nil, fmt.Errorf("body `%s` must have a positive mass", entry.body.Name)
		}
		entries = append(entries, entry)
		byName[entry.body.Name] = entry
	}
	for _, entry := range entries {
		if entry.parent == "" {
			if entry.radius > 0 {
				return nil, fmt.Errorf("body `%s` has an orbit radius but no parent", entry.body.Name)
			}
			continue
		}
		parent, found := byName[entry.parent]
		if !found {
			return nil, fmt.Errorf("body `%s` orbits unknown body `%s`", entry.body.Name, entry.parent)
		}
		entry.body.Parent = parent.body
	}
	bodies := make([]*Body, len(entries))
	for i, entry := range entries {
		if err := place(entry, byName, G, len(entries)); err != nil {
			return nil, err
		}
		bodies[i] = entry.body
	}
	return bodies, nil
}

// place puts a body on a circular orbit about its parent when an orbit radius is set,
// after its parent has been placed.
func place(entry *bodyEntry, byName map[string]*bodyEntry, G float64, depth int) error {
	if entry.placed {
		return nil
	}
	if depth < 0 {
		return fmt.Errorf("body `%s` is part of a parent cycle", entry.body.Name)
	}
	if entry.parent != "" {
		parent := byName[entry.parent]
		if err := place(parent, byName, G, depth-1); err != nil {
			return err
		}
		if entry.radius > 0 {
			entry.body.Position, entry.body.Velocity = circularAbout(parent.body, entry.radius, entry.angle, entry.retrograde, G)
		}
	}
	entry.placed = true
	return nil
}

// circularAbout returns the absolute state of a circular orbit about the body.
func circularAbout(b *Body, radius, angleDeg float64, retrograde bool, G float64) (R, V r2.Vec) {
	θ := Deg2rad(angleDeg)
	dir := math.Pi / 2
	if retrograde {
		dir = -dir
	}
	R = r2.Add(b.Position, polar(radius, θ))
	V = r2.Add(b.Velocity, polar(CircularVelocity(b.GM(G), radius), θ+dir))
	return
}

func readCraft(v *viper.Viper, s Scenario) (CraftSetup, error) {
	craft := CraftSetup{
		Name:     v.GetString("craft.name"),
		Position: r2.Vec{X: v.GetFloat64("craft.x"), Y: v.GetFloat64("craft.y")},
		Velocity: r2.Vec{X: v.GetFloat64("craft.vx"), Y: v.GetFloat64("craft.vy")},
	}
	if name := v.GetString("craft.orbit"); name != "" {
		b := s.Body(name)
		if b == nil {
			return craft, fmt.Errorf("craft orbits unknown body `%s`", name)
		}
		radius := v.GetFloat64("craft.radius")
		if radius < minRadius {
			return craft, fmt.Errorf("craft orbit radius about `%s` must be at least %.1f", name, minRadius)
		}
		craft.Position, craft.Velocity = circularAbout(b, radius, v.GetFloat64("craft.angle"), v.GetBool("craft.retrograde"), s.Config.Physics.GravitationalConstant)
	}
	return craft, nil
}
