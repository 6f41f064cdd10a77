package system

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/hjelmeland/mbdsim/internal/body"
	"github.com/hjelmeland/mbdsim/internal/dyn"
	"github.com/hjelmeland/mbdsim/internal/joint"
	"github.com/hjelmeland/mbdsim/internal/quat"
)

// pinnedRod is a unit rod pinned to ground at its left end, hanging
// along +x.
func pinnedRod(c joint.Constraint) *System {
	s := New()
	rod := body.New()
	rod.Pos = mgl64.Vec3{0.5, 0, 0}
	rod.Inertia = mgl64.Diag3(mgl64.Vec3{0.001, 0.0833, 0.0833})
	i := s.AddBody(rod)
	s.Connect(i, Ground, c)
	return s
}

func TestRevoluteRank(t *testing.T) {
	s := pinnedRod(joint.Revolute(
		mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0},
	))

	if rows := s.ConstraintRows(); rows != 5 {
		t.Fatalf("rows = %d, want 5", rows)
	}
	if rank := s.RankCq(); rank != 5 {
		t.Errorf("rank = %d, want 5 (one rotational DOF left)", rank)
	}
}

func TestSphericalRank(t *testing.T) {
	s := pinnedRod(joint.Spherical(mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0}))
	if rank := s.RankCq(); rank != 3 {
		t.Errorf("rank = %d, want 3", rank)
	}
}

func TestResidualZeroAtConsistentConfiguration(t *testing.T) {
	s := pinnedRod(joint.Spherical(mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0}))
	for i, v := range s.Residual(0) {
		if math.Abs(v) > 1e-14 {
			t.Errorf("g[%d] = %g, want 0", i, v)
		}
	}
}

func TestJacobianScatter(t *testing.T) {
	// Two bodies, one joint between them: the pair Jacobian must land in
	// the correct body columns and nowhere else.
	s := New()
	a := body.New()
	b := body.New()
	b.Pos = mgl64.Vec3{1, 0, 0}
	ia := s.AddBody(a)
	ib := s.AddBody(b)
	s.Connect(ia, ib, joint.Spherical(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{-0.5, 0, 0}))

	cq := s.Jacobian()
	r, c := cq.Dims()
	if r != 3 || c != 12 {
		t.Fatalf("dims = %dx%d, want 3x12", r, c)
	}

	pairJ := s.Constraints[0].C.TwistJacobian(&s.Bodies[0], &s.Bodies[1])
	for i := 0; i < 3; i++ {
		for k := 0; k < 12; k++ {
			if cq.At(i, k) != pairJ.At(i, k) {
				t.Fatalf("scatter mismatch at (%d,%d)", i, k)
			}
		}
	}
}

func TestGroundConstraintSkipsGroundColumns(t *testing.T) {
	s := pinnedRod(joint.Spherical(mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0}))
	cq := s.Jacobian()
	if _, c := cq.Dims(); c != 6 {
		t.Fatalf("cols = %d, want 6", c)
	}
}

func TestVerifyJacobians(t *testing.T) {
	s := pinnedRod(joint.Revolute(
		mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0},
	))
	// A generic configuration with motion.
	s.Bodies[0].Orient = quat.FromAxisAngle(mgl64.Vec3{0, 1, 0}, 0.4)
	s.Bodies[0].Omega = mgl64.Vec3{0, 1.2, 0}
	s.Bodies[0].Vel = mgl64.Vec3{0, 0, -0.6}

	if err := s.VerifyJacobians(0, 1e-4); err != nil {
		t.Errorf("VerifyJacobians: %v", err)
	}
}

func TestPackApplyRoundTrip(t *testing.T) {
	s := New()
	a := body.New()
	a.Orient = quat.FromAxisAngle(mgl64.Vec3{1, 0, 1}, 0.8)
	a.Pos = mgl64.Vec3{1, 2, 3}
	a.Omega = mgl64.Vec3{0.1, 0.2, 0.3}
	a.Vel = mgl64.Vec3{-1, -2, -3}
	s.AddBody(a)
	s.AddBody(body.New())

	x := s.PackState()
	if len(x) != 2*dyn.BodyStride {
		t.Fatalf("len = %d, want %d", len(x), 2*dyn.BodyStride)
	}

	clone := s.Clone()
	clone.Bodies[0] = body.New()
	if err := clone.ApplyState(x); err != nil {
		t.Fatalf("ApplyState: %v", err)
	}
	if clone.Bodies[0].Orient != a.Orient || clone.Bodies[0].Pos != a.Pos ||
		clone.Bodies[0].Omega != a.Omega || clone.Bodies[0].Vel != a.Vel {
		t.Errorf("round trip lost state: %+v", clone.Bodies[0])
	}

	if err := s.ApplyState(x[:5]); err != dyn.ErrDimensionMismatch {
		t.Errorf("short state: err = %v, want ErrDimensionMismatch", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := pinnedRod(joint.Spherical(mgl64.Vec3{-0.5, 0, 0}, mgl64.Vec3{0, 0, 0}))
	c := s.Clone()
	c.Bodies[0].Pos = mgl64.Vec3{9, 9, 9}
	if s.Bodies[0].Pos == c.Bodies[0].Pos {
		t.Error("clone shares body storage")
	}
}
