package kernel

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func vecNear(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestTransformZeroValueIsIdentity(t *testing.T) {
	var tr Transform
	if !tr.IsIdentity() {
		t.Fatal("zero transform should be the identity")
	}
	p := v3.Vec{X: 1, Y: -2, Z: 3}
	if got := tr.Apply(p); got != p {
		t.Fatalf("identity moved the point: got %v", got)
	}
}

func TestTransformApplyInverseRoundTrip(t *testing.T) {
	tr := NewTransform(RotationZ(30), v3.Vec{X: 5, Y: -1, Z: 2})
	p := v3.Vec{X: 1.5, Y: 2.5, Z: -0.5}
	q := tr.ApplyInverse(tr.Apply(p))
	if !vecNear(p, q, 1e-12) {
		t.Fatalf("round trip failed: %v != %v", p, q)
	}
}

func TestTransformInverse(t *testing.T) {
	tr := NewTransform(RotationY(45), v3.Vec{X: 1, Y: 2, Z: 3})
	inv := tr.Inverse()
	p := v3.Vec{X: -2, Y: 0.5, Z: 4}
	if got, want := inv.Apply(tr.Apply(p)), p; !vecNear(got, want, 1e-12) {
		t.Fatalf("inverse after forward: got %v want %v", got, want)
	}
	if got, want := tr.Apply(inv.Apply(p)), p; !vecNear(got, want, 1e-12) {
		t.Fatalf("forward after inverse: got %v want %v", got, want)
	}
}

func TestTransformCompose(t *testing.T) {
	a := NewTransform(RotationZ(90), v3.Vec{X: 10, Y: 0, Z: 0})
	b := NewTranslation(v3.Vec{X: 1, Y: 0, Z: 0})
	// b first, then a.
	c := a.Compose(b)
	p := v3.Vec{X: 0, Y: 0, Z: 0}
	want := a.Apply(b.Apply(p))
	if got := c.Apply(p); !vecNear(got, want, 1e-12) {
		t.Fatalf("compose mismatch: got %v want %v", got, want)
	}
	if !vecNear(want, v3.Vec{X: 10, Y: 1, Z: 0}, 1e-12) {
		t.Fatalf("unexpected composed point: %v", want)
	}
}

func TestRotationMatrices(t *testing.T) {
	x := v3.Vec{X: 1, Y: 0, Z: 0}
	if got := RotationZ(90).MulVec(x); !vecNear(got, v3.Vec{X: 0, Y: 1, Z: 0}, 1e-12) {
		t.Fatalf("RotationZ(90) on x: got %v", got)
	}
	if got := RotationY(90).MulVec(x); !vecNear(got, v3.Vec{X: 0, Y: 0, Z: -1}, 1e-12) {
		t.Fatalf("RotationY(90) on x: got %v", got)
	}
	z := v3.Vec{X: 0, Y: 0, Z: 1}
	if got := RotationX(90).MulVec(z); !vecNear(got, v3.Vec{X: 0, Y: -1, Z: 0}, 1e-12) {
		t.Fatalf("RotationX(90) on z: got %v", got)
	}
}

func TestMat3TransposeIsInverse(t *testing.T) {
	m := RotationX(17).Mul(RotationY(-42)).Mul(RotationZ(113))
	r := m.Mul(m.Transpose())
	id := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(r[i][j]-id[i][j]) > 1e-12 {
				t.Fatalf("R Rt != I at (%d,%d): %v", i, j, r[i][j])
			}
		}
	}
}
