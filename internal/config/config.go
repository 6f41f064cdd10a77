// Package config defines the YAML scenario format describing a
// multibody model (bodies, joints, applied forces) together with the
// run settings, and builds a simulation-ready system from it.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/joint"
	"github.com/hjelmeland/mbdsim/internal/quat"
	"github.com/hjelmeland/mbdsim/internal/system"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 2.0
	DefaultAlpha    = 5.0
	DefaultBeta     = 5.0
)

// GroundName refers to the fixed world frame in a joint's body slot.
const GroundName = "ground"

type Scenario struct {
	Name        string        `yaml:"name"`
	Gravity     [3]float64    `yaml:"gravity"`
	Dt          float64       `yaml:"dt"`
	Duration    float64       `yaml:"duration"`
	Integrator  string        `yaml:"integrator"`
	Baumgarte   BaumgarteSpec `yaml:"baumgarte"`
	RenormEvery int           `yaml:"renorm_every"`
	Bodies      []BodySpec    `yaml:"bodies"`
	Joints      []JointSpec   `yaml:"joints"`
	Forces      []ForceSpec   `yaml:"forces"`
	Torques     []TorqueSpec  `yaml:"torques"`
}

type BaumgarteSpec struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
}

type BodySpec struct {
	Name        string         `yaml:"name"`
	Mass        float64        `yaml:"mass"`
	InertiaDiag [3]float64     `yaml:"inertia_diag"`
	Position    [3]float64     `yaml:"position"`
	Quaternion  *[4]float64    `yaml:"quaternion"`
	AxisAngle   *AxisAngleSpec `yaml:"axis_angle"`
	Omega       [3]float64     `yaml:"omega"`
	Velocity    [3]float64     `yaml:"velocity"`
}

type AxisAngleSpec struct {
	Axis     [3]float64 `yaml:"axis"`
	AngleDeg float64    `yaml:"angle_deg"`
}

type JointSpec struct {
	Type       string     `yaml:"type"` // spherical, revolute, universal, constant_angle, constant_projection, simple, driving
	BodyA      string     `yaml:"body_a"`
	BodyB      string     `yaml:"body_b"`
	PointA     [3]float64 `yaml:"point_a"`
	PointB     [3]float64 `yaml:"point_b"`
	AxisA      [3]float64 `yaml:"axis_a"`
	AxisB      [3]float64 `yaml:"axis_b"`
	AngleDeg   float64    `yaml:"angle_deg"`
	Value      float64    `yaml:"value"`
	Coordinate int        `yaml:"coordinate"`
	Drive      *DriveSpec `yaml:"drive"`
}

// DriveSpec is a harmonic time law f(t) = offset + amp·sin(freq·t + phase).
type DriveSpec struct {
	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Phase     float64 `yaml:"phase"`
	Offset    float64 `yaml:"offset"`
}

type ForceSpec struct {
	Body  string     `yaml:"body"`
	Force [3]float64 `yaml:"force"`
	Point [3]float64 `yaml:"point"`
}

type TorqueSpec struct {
	Body   string     `yaml:"body"`
	Moment [3]float64 `yaml:"moment"`
}

func Default() *Scenario {
	return &Scenario{
		Gravity:     [3]float64{0, 0, -9.81},
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Integrator:  "rk4",
		Baumgarte:   BaumgarteSpec{Alpha: DefaultAlpha, Beta: DefaultBeta},
		RenormEvery: 1,
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Default()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RunConfig translates the scenario's run settings.
func (sc *Scenario) RunConfig() dyn.Config {
	cfg := dyn.DefaultConfig()
	cfg.Dt = sc.Dt
	cfg.Duration = sc.Duration
	cfg.Alpha = sc.Baumgarte.Alpha
	cfg.Beta = sc.Baumgarte.Beta
	cfg.RenormEvery = sc.RenormEvery
	return cfg
}

// Build constructs the multibody system from the scenario. Joint body
// references are resolved by body name; "ground" (or an empty body_b)
// refers to the fixed world frame.
func (sc *Scenario) Build() (*system.System, error) {
	sys := system.New()
	sys.Gravity = vec3(sc.Gravity)

	index := make(map[string]int, len(sc.Bodies))
	for _, bs := range sc.Bodies {
		if bs.Name == "" || bs.Name == GroundName {
			return nil, fmt.Errorf("config: body name %q is reserved or empty", bs.Name)
		}
		if _, dup := index[bs.Name]; dup {
			return nil, fmt.Errorf("config: duplicate body name %q", bs.Name)
		}
		b := body.New()
		b.Mass = bs.Mass
		b.Inertia = mgl64.Diag3(vec3(bs.InertiaDiag))
		b.Pos = vec3(bs.Position)
		b.Omega = vec3(bs.Omega)
		b.Vel = vec3(bs.Velocity)
		switch {
		case bs.Quaternion != nil:
			b.Orient = quat.Quaternion(*bs.Quaternion)
		case bs.AxisAngle != nil:
			b.Orient = quat.FromAxisAngle(vec3(bs.AxisAngle.Axis), bs.AxisAngle.AngleDeg*math.Pi/180)
		}
		index[bs.Name] = sys.AddBody(b)
	}

	for i, js := range sc.Joints {
		a, err := resolveBody(index, js.BodyA, false)
		if err != nil {
			return nil, fmt.Errorf("config: joint %d: %w", i, err)
		}
		b, err := resolveBody(index, js.BodyB, true)
		if err != nil {
			return nil, fmt.Errorf("config: joint %d: %w", i, err)
		}
		c, err := js.constraint()
		if err != nil {
			return nil, fmt.Errorf("config: joint %d: %w", i, err)
		}
		sys.Connect(a, b, c)
	}

	for i, fs := range sc.Forces {
		idx, err := resolveBody(index, fs.Body, false)
		if err != nil {
			return nil, fmt.Errorf("config: force %d: %w", i, err)
		}
		sys.Forces = append(sys.Forces, system.PointForce{Body: idx, Force: vec3(fs.Force), Point: vec3(fs.Point)})
	}
	for i, ts := range sc.Torques {
		idx, err := resolveBody(index, ts.Body, false)
		if err != nil {
			return nil, fmt.Errorf("config: torque %d: %w", i, err)
		}
		sys.Torques = append(sys.Torques, system.Torque{Body: idx, Moment: vec3(ts.Moment)})
	}

	return sys, nil
}

func (js *JointSpec) constraint() (joint.Constraint, error) {
	switch js.Type {
	case "spherical":
		return joint.Spherical(vec3(js.PointA), vec3(js.PointB)), nil
	case "revolute":
		return joint.Revolute(vec3(js.PointA), vec3(js.PointB), vec3(js.AxisA), vec3(js.AxisB)), nil
	case "universal":
		return joint.Universal(vec3(js.PointA), vec3(js.PointB), vec3(js.AxisA), vec3(js.AxisB)), nil
	case "constant_angle":
		return joint.AtAngle(vec3(js.AxisA), vec3(js.AxisB), js.AngleDeg*math.Pi/180), nil
	case "constant_projection":
		return &joint.ConstantProjection{
			Axis:   vec3(js.AxisA),
			PointA: vec3(js.PointA),
			PointB: vec3(js.PointB),
			Value:  js.Value,
		}, nil
	case "simple":
		return &joint.SimpleCoordinate{
			Point: vec3(js.PointA),
			Index: js.Coordinate,
			Value: js.Value,
		}, nil
	case "driving":
		if js.Drive == nil {
			return nil, fmt.Errorf("driving joint requires a drive law")
		}
		return &joint.DrivingCoordinate{
			Point: vec3(js.PointA),
			Index: js.Coordinate,
			Law:   joint.Harmonic(js.Drive.Amplitude, js.Drive.Frequency, js.Drive.Phase, js.Drive.Offset),
		}, nil
	default:
		return nil, fmt.Errorf("unknown joint type %q", js.Type)
	}
}

func resolveBody(index map[string]int, name string, groundOK bool) (int, error) {
	if name == "" || name == GroundName {
		if groundOK {
			return system.Ground, nil
		}
		return 0, fmt.Errorf("body slot may not be ground")
	}
	idx, ok := index[name]
	if !ok {
		return 0, fmt.Errorf("unknown body %q", name)
	}
	return idx, nil
}

func vec3(a [3]float64) mgl64.Vec3 {
	return mgl64.Vec3{a[0], a[1], a[2]}
}
