package kernel

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// displacedField applies an affine transform to a field. Used for displaced
// solids and for positioning the subtrahend of a boolean subtraction.
type displacedField struct {
	inner sdf.SDF3
	t     Transform
	bb    sdf.Box3
}

func displace(inner sdf.SDF3, t Transform) sdf.SDF3 {
	if t.IsIdentity() {
		return inner
	}
	local := inner.BoundingBox()
	min := v3.Vec{X: +1e300, Y: +1e300, Z: +1e300}
	max := min.Neg()
	for i := 0; i < 8; i++ {
		c := local.Min
		if i&1 != 0 {
			c.X = local.Max.X
		}
		if i&2 != 0 {
			c.Y = local.Max.Y
		}
		if i&4 != 0 {
			c.Z = local.Max.Z
		}
		p := t.Apply(c)
		min = min.Min(p)
		max = max.Max(p)
	}
	return &displacedField{inner: inner, t: t, bb: sdf.Box3{Min: min, Max: max}}
}

func (f *displacedField) Evaluate(p v3.Vec) float64 {
	return f.inner.Evaluate(f.t.ApplyInverse(p))
}

func (f *displacedField) BoundingBox() sdf.Box3 {
	return f.bb
}

// tubsField is a cylinder section: outer radius, optional inner radius and
// optional azimuthal wedge. Angles are radians. The sign of the field is
// exact; inside the wedge cut the magnitude is approximate.
type tubsField struct {
	rmin, rmax float64
	halfZ      float64
	phi0, dphi float64 // dphi >= twoPi means full circle
}

const twoPi = 2 * math.Pi

func (f *tubsField) Evaluate(p v3.Vec) float64 {
	r := math.Hypot(p.X, p.Y)
	d := r - f.rmax
	if f.rmin > 0 {
		d = math.Max(d, f.rmin-r)
	}
	d = math.Max(d, math.Abs(p.Z)-f.halfZ)
	if f.dphi < twoPi {
		d = math.Max(d, wedgeDistance(p.X, p.Y, f.phi0, f.dphi))
	}
	return d
}

func (f *tubsField) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: -f.rmax, Y: -f.rmax, Z: -f.halfZ},
		Max: v3.Vec{X: f.rmax, Y: f.rmax, Z: f.halfZ},
	}
}

// wedgeDistance is negative inside the azimuthal wedge [phi0, phi0+dphi].
// The wedge is the intersection of two half planes for dphi <= pi and their
// union otherwise.
func wedgeDistance(x, y, phi0, dphi float64) float64 {
	phi1 := phi0 + dphi
	s0, c0 := math.Sincos(phi0)
	s1, c1 := math.Sincos(phi1)
	// Outward normals of the two cut planes.
	d0 := s0*x - c0*y
	d1 := -s1*x + c1*y
	if dphi <= math.Pi {
		return math.Max(d0, d1)
	}
	return math.Min(d0, d1)
}

// sphereField is a spherical section: outer radius, optional inner radius,
// azimuthal wedge and zenith (polar) section. Angles are radians.
type sphereField struct {
	rmin, rmax     float64
	phi0, dphi     float64
	theta0, theta1 float64
}

func (f *sphereField) Evaluate(p v3.Vec) float64 {
	r := p.Length()
	d := r - f.rmax
	if f.rmin > 0 {
		d = math.Max(d, f.rmin-r)
	}
	if f.dphi < twoPi {
		d = math.Max(d, wedgeDistance(p.X, p.Y, f.phi0, f.dphi))
	}
	if f.theta0 > 0 || f.theta1 < math.Pi {
		theta := math.Pi / 2
		if r > 0 {
			theta = math.Acos(p.Z / r)
		}
		// Arc-length distance to the zenith section.
		dt := math.Max(f.theta0-theta, theta-f.theta1)
		d = math.Max(d, dt*r)
	}
	return d
}

func (f *sphereField) BoundingBox() sdf.Box3 {
	return sdf.Box3{
		Min: v3.Vec{X: -f.rmax, Y: -f.rmax, Z: -f.rmax},
		Max: v3.Vec{X: f.rmax, Y: f.rmax, Z: f.rmax},
	}
}
