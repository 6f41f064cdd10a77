package joint

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/hjelmeland/mbdsim/internal/body"
)

// The two Jacobian representations describe the same velocity map. These
// specs pin down the algebra connecting them: composition of the bridge
// maps acts as the identity on physical velocities, and both
// representations predict the same residual rate.
var _ = Describe("constraint representations", func() {
	var (
		rng  *rand.Rand
		a, b body.State
	)

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(GinkgoRandomSeed()))
		a = randomBody(rng)
		b = randomBody(rng)
	})

	Describe("the bridge maps", func() {
		It("compose to the identity on twist space", func() {
			toRates := CoordToTwistMap(a.Orient, b.Orient)
			toTwist := TwistToCoordMap(a.Orient, b.Orient)

			// twist -> coordinate rates -> twist leaves any physical
			// velocity untouched.
			var prod mat.Dense
			prod.Mul(toTwist, toRates)

			r, c := prod.Dims()
			Expect(r).To(Equal(12))
			Expect(c).To(Equal(12))
			for i := 0; i < 12; i++ {
				for j := 0; j < 12; j++ {
					want := 0.0
					if i == j {
						want = 1.0
					}
					Expect(prod.At(i, j)).To(BeNumerically("~", want, 1e-12))
				}
			}
		})

		It("round-trips a twist Jacobian exactly", func() {
			c := &CoincidentPoint{PointA: mgl64.Vec3{0.2, 0.1, -0.3}, PointB: mgl64.Vec3{0, 0.4, 0}}
			aw := c.TwistJacobian(&a, &b)
			rt := TwistFromCoord(CoordFromTwist(aw, a.Orient, b.Orient), a.Orient, b.Orient)

			for i := 0; i < c.Rows(); i++ {
				for j := 0; j < 12; j++ {
					Expect(rt.At(i, j)).To(BeNumerically("~", aw.At(i, j), 1e-12))
				}
			}
		})
	})

	Describe("residual rates", func() {
		It("agree between the coordinate and twist paths", func() {
			c := Revolute(
				mgl64.Vec3{0.3, 0, 0}, mgl64.Vec3{-0.3, 0, 0},
				mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1},
			)
			aq := c.CoordJacobian(&a, &b)
			aw := c.TwistJacobian(&a, &b)

			qd := coordRates(&a, &b)
			tw := pairTwist(&a, &b)
			for i := 0; i < c.Rows(); i++ {
				var viaQ, viaW float64
				for k := 0; k < 14; k++ {
					viaQ += aq.At(i, k) * qd[k]
				}
				for k := 0; k < 12; k++ {
					viaW += aw.At(i, k) * tw[k]
				}
				Expect(viaQ).To(BeNumerically("~", viaW, 1e-10))
			}
		})

		It("match the numeric residual derivative along the flow", func() {
			c := &ConstantProjection{
				Axis:   mgl64.Vec3{1, 0, 0},
				PointA: mgl64.Vec3{0, 0.2, 0},
				PointB: mgl64.Vec3{0.1, 0, -0.2},
			}
			aw := c.TwistJacobian(&a, &b)
			tw := pairTwist(&a, &b)

			var predicted float64
			for k := 0; k < 12; k++ {
				predicted += aw.At(0, k) * tw[k]
			}

			h := 1e-6
			ga := func(s float64) float64 {
				sa, sb := flow(&a, s), flow(&b, s)
				return c.Residual(&sa, &sb, 0)[0]
			}
			numeric := (ga(h) - ga(-h)) / (2 * h)
			Expect(predicted).To(BeNumerically("~", numeric, 1e-5))
		})
	})

	Describe("gamma", func() {
		It("is the free acceleration of the residual under constant velocities", func() {
			c := Spherical(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, -0.5, 0})
			gm := c.Gamma(&a, &b, 0)
			ref := NumericGamma(c, &a, &b, 0)
			for i := range gm {
				Expect(gm[i]).To(BeNumerically("~", ref[i], 1e-4*(1+math.Abs(ref[i]))))
			}
		})
	})
})
