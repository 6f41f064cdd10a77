package body

// Configuration packing. Position-level constraints are functions of
// (p, r) only, so the packed vector carries 7 slots per body; velocities
// ride through Unpack unchanged from the templates. Differentiating a
// residual against this packed vector is how the coordinate-space
// Jacobian reference is obtained.

// Pack returns [p; r] ∈ ℝ⁷.
func Pack(s *State) []float64 {
	return []float64{
		s.Orient[0], s.Orient[1], s.Orient[2], s.Orient[3],
		s.Pos.X(), s.Pos.Y(), s.Pos.Z(),
	}
}

// PackPair returns [pA; rA; pB; rB] ∈ ℝ¹⁴.
func PackPair(a, b *State) []float64 {
	return append(Pack(a), Pack(b)...)
}

// Unpack writes the (p, r) portion of a packed 7-vector into a copy of
// the template, keeping the template's velocities and mass properties.
func Unpack(x []float64, template *State) State {
	s := *template
	s.Orient[0], s.Orient[1], s.Orient[2], s.Orient[3] = x[0], x[1], x[2], x[3]
	s.Pos[0], s.Pos[1], s.Pos[2] = x[4], x[5], x[6]
	return s
}

// UnpackPair is the inverse of PackPair for the configuration portion.
func UnpackPair(x []float64, ta, tb *State) (State, State) {
	return Unpack(x[:7], ta), Unpack(x[7:], tb)
}
