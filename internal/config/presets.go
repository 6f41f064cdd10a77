package config

import "fmt"

// Built-in scenarios, usable directly from the CLI without a file.

func Presets() []string {
	return []string{"projectile", "pendulum", "double_pendulum", "crank"}
}

func Preset(name string) (*Scenario, error) {
	switch name {
	case "projectile":
		return projectile(), nil
	case "pendulum":
		return pendulum(), nil
	case "double_pendulum":
		return doublePendulum(), nil
	case "crank":
		return crank(), nil
	default:
		return nil, fmt.Errorf("config: unknown preset %q (have %v)", name, Presets())
	}
}

// projectile is a single unconstrained body: closed-form ballistic
// motion, the assembler/integrator pipeline check.
func projectile() *Scenario {
	sc := Default()
	sc.Name = "projectile"
	sc.Duration = 1.0
	sc.Bodies = []BodySpec{{
		Name:        "ball",
		Mass:        1,
		InertiaDiag: [3]float64{0.01, 0.01, 0.01},
		Velocity:    [3]float64{5, 0, 5},
		Omega:       [3]float64{0, 3, 0},
	}}
	return sc
}

// pendulum is a rod pinned to ground through a spherical joint at one
// end, swinging under gravity.
func pendulum() *Scenario {
	sc := Default()
	sc.Name = "pendulum"
	sc.Bodies = []BodySpec{{
		Name:        "rod",
		Mass:        1,
		InertiaDiag: [3]float64{0.001, 0.0833, 0.0833},
		Position:    [3]float64{0.5, 0, 0},
	}}
	sc.Joints = []JointSpec{{
		Type:   "spherical",
		BodyA:  "rod",
		BodyB:  GroundName,
		PointA: [3]float64{-0.5, 0, 0},
	}}
	return sc
}

func doublePendulum() *Scenario {
	sc := pendulum()
	sc.Name = "double_pendulum"
	sc.Bodies = append(sc.Bodies, BodySpec{
		Name:        "rod2",
		Mass:        1,
		InertiaDiag: [3]float64{0.001, 0.0833, 0.0833},
		Position:    [3]float64{1.5, 0, 0},
	})
	sc.Joints = append(sc.Joints, JointSpec{
		Type:   "spherical",
		BodyA:  "rod2",
		BodyB:  "rod",
		PointA: [3]float64{-0.5, 0, 0},
		PointB: [3]float64{0.5, 0, 0},
	})
	return sc
}

// crank drives the free end of a ground-pinned rod up and down through
// a harmonic driving coordinate: the rheonomic exercise.
func crank() *Scenario {
	sc := pendulum()
	sc.Name = "crank"
	sc.Duration = 4.0
	sc.Joints = append(sc.Joints, JointSpec{
		Type:       "driving",
		BodyA:      "rod",
		PointA:     [3]float64{0.5, 0, 0},
		Coordinate: 2,
		Drive:      &DriveSpec{Amplitude: 0.2, Frequency: 3},
	})
	return sc
}
