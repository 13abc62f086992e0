package kernel

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mat3 is a 3x3 rotation matrix, row major.
type Mat3 [3][3]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat3) IsIdentity() bool {
	return m == Identity3()
}

// MulVec applies the matrix to a vector.
func (m Mat3) MulVec(p v3.Vec) v3.Vec {
	return v3.Vec{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z,
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z,
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z,
	}
}

// Mul returns the matrix product m * o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

// Transpose returns the transposed matrix. For a rotation this is the
// inverse.
func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// RotationX returns the rotation matrix around the X axis by the given angle
// in degrees.
func RotationX(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

// RotationY returns the rotation matrix around the Y axis by the given angle
// in degrees.
func RotationY(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

// RotationZ returns the rotation matrix around the Z axis by the given angle
// in degrees.
func RotationZ(deg float64) Mat3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Mat3{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// Transform is an affine transform mapping daughter-frame coordinates to
// mother-frame coordinates as p' = R p + t. The zero value is the identity.
type Transform struct {
	rot        Mat3
	trans      v3.Vec
	rotated    bool
	translated bool
}

// NewTranslation returns a pure translation.
func NewTranslation(t v3.Vec) Transform {
	return Transform{trans: t, translated: t != (v3.Vec{})}
}

// NewTransform returns a rotation followed by a translation.
func NewTransform(rot Mat3, t v3.Vec) Transform {
	return Transform{
		rot:        rot,
		trans:      t,
		rotated:    !rot.IsIdentity(),
		translated: t != (v3.Vec{}),
	}
}

// IsRotated reports whether the transform carries a rotation.
func (t Transform) IsRotated() bool { return t.rotated }

// IsTranslated reports whether the transform carries a translation.
func (t Transform) IsTranslated() bool { return t.translated }

// IsIdentity reports whether the transform is the identity.
func (t Transform) IsIdentity() bool { return !t.rotated && !t.translated }

// NetRotation returns the rotation part.
func (t Transform) NetRotation() Mat3 {
	if !t.rotated {
		return Identity3()
	}
	return t.rot
}

// NetTranslation returns the translation part.
func (t Transform) NetTranslation() v3.Vec { return t.trans }

// Apply maps a point from the daughter frame to the mother frame.
func (t Transform) Apply(p v3.Vec) v3.Vec {
	if t.rotated {
		p = t.rot.MulVec(p)
	}
	if t.translated {
		p = p.Add(t.trans)
	}
	return p
}

// ApplyAxis maps a direction (rotation only, no translation).
func (t Transform) ApplyAxis(a v3.Vec) v3.Vec {
	if t.rotated {
		return t.rot.MulVec(a)
	}
	return a
}

// ApplyInverse maps a point from the mother frame back to the daughter
// frame.
func (t Transform) ApplyInverse(p v3.Vec) v3.Vec {
	if t.translated {
		p = p.Sub(t.trans)
	}
	if t.rotated {
		p = t.rot.Transpose().MulVec(p)
	}
	return p
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	if t.IsIdentity() {
		return Transform{}
	}
	rt := t.rot.Transpose()
	inv := Transform{rotated: t.rotated, translated: t.translated}
	if t.rotated {
		inv.rot = rt
		inv.trans = rt.MulVec(t.trans).Neg()
	} else {
		inv.trans = t.trans.Neg()
	}
	return inv
}

// Compose returns the transform that applies u first, then t:
// (t.Compose(u))(p) == t.Apply(u.Apply(p)).
func (t Transform) Compose(u Transform) Transform {
	if t.IsIdentity() {
		return u
	}
	if u.IsIdentity() {
		return t
	}
	rot := t.NetRotation().Mul(u.NetRotation())
	trans := t.Apply(u.trans)
	return NewTransform(rot, trans)
}
