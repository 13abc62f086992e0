package kernel

import (
	"math"
	"math/rand"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// box is an axis-aligned box defined by its half extents.
type box struct {
	name  string
	half  v3.Vec
	field sdf.SDF3
}

// NewBox builds a box solid from half extents, in native units.
func NewBox(name string, half v3.Vec) (Solid, error) {
	field, err := sdf.Box3D(half.MulScalar(2), 0)
	if err != nil {
		return nil, err
	}
	return &box{name: name, half: half, field: field}, nil
}

func (b *box) Name() string        { return b.name }
func (b *box) EntityType() string  { return "Box" }
func (b *box) Field() sdf.SDF3     { return b.field }
func (b *box) Inside(p v3.Vec) Side {
	return classify(b.field.Evaluate(p))
}
func (b *box) Extent() sdf.Box3 {
	return sdf.Box3{Min: b.half.Neg(), Max: b.half}
}
func (b *box) CubicVolume() float64 {
	return 8 * b.half.X * b.half.Y * b.half.Z
}
func (b *box) SurfaceArea() float64 {
	return 8 * (b.half.X*b.half.Y + b.half.Y*b.half.Z + b.half.Z*b.half.X)
}

// BoxHalfSize reports whether s is a box and, if so, returns its half
// extents.
func BoxHalfSize(s Solid) (v3.Vec, bool) {
	b, ok := s.(*box)
	if !ok {
		return v3.Vec{}, false
	}
	return b.half, true
}

// tubs is a cylinder section along the Z axis.
type tubs struct {
	name       string
	rmin, rmax float64
	halfZ      float64
	phi0, dphi float64
	field      sdf.SDF3
}

// NewTubs builds a cylinder-section solid. Radii and the half length are in
// native units; phi0 and dphi in radians. A dphi of 2*pi (or more) means a
// full circle and rmin of zero a solid cylinder.
func NewTubs(name string, rmin, rmax, halfZ, phi0, dphi float64) (Solid, error) {
	t := &tubs{name: name, rmin: rmin, rmax: rmax, halfZ: halfZ, phi0: phi0, dphi: dphi}
	if rmin <= 0 && dphi >= twoPi {
		field, err := sdf.Cylinder3D(2*halfZ, rmax, 0)
		if err != nil {
			return nil, err
		}
		t.field = field
	} else {
		t.field = &tubsField{rmin: rmin, rmax: rmax, halfZ: halfZ, phi0: phi0, dphi: dphi}
	}
	return t, nil
}

func (t *tubs) Name() string       { return t.name }
func (t *tubs) EntityType() string { return "Tubs" }
func (t *tubs) Field() sdf.SDF3    { return t.field }
func (t *tubs) Inside(p v3.Vec) Side {
	return classify(t.field.Evaluate(p))
}
func (t *tubs) Extent() sdf.Box3 {
	return t.field.BoundingBox()
}
func (t *tubs) CubicVolume() float64 {
	dphi := math.Min(t.dphi, twoPi)
	return 0.5 * dphi * (t.rmax*t.rmax - t.rmin*t.rmin) * 2 * t.halfZ
}
func (t *tubs) SurfaceArea() float64 {
	dphi := math.Min(t.dphi, twoPi)
	ring := 0.5 * dphi * (t.rmax*t.rmax - t.rmin*t.rmin)
	area := 2*ring + dphi*t.rmax*2*t.halfZ
	if t.rmin > 0 {
		area += dphi * t.rmin * 2 * t.halfZ
	}
	if dphi < twoPi {
		area += 2 * (t.rmax - t.rmin) * 2 * t.halfZ
	}
	return area
}

// TubsParams reports whether s is a cylinder section and, if so, returns
// its parameters (radii and half length in native units, angles in
// radians).
func TubsParams(s Solid) (rmin, rmax, halfZ, phi0, dphi float64, ok bool) {
	t, isTubs := s.(*tubs)
	if !isTubs {
		return 0, 0, 0, 0, 0, false
	}
	return t.rmin, t.rmax, t.halfZ, t.phi0, t.dphi, true
}

// orb is a full solid sphere.
type orb struct {
	name   string
	radius float64
	field  sdf.SDF3
}

// NewOrb builds a full solid sphere.
func NewOrb(name string, radius float64) (Solid, error) {
	field, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, err
	}
	return &orb{name: name, radius: radius, field: field}, nil
}

func (o *orb) Name() string       { return o.name }
func (o *orb) EntityType() string { return "Orb" }
func (o *orb) Field() sdf.SDF3    { return o.field }
func (o *orb) Inside(p v3.Vec) Side {
	return classify(o.field.Evaluate(p))
}
func (o *orb) Extent() sdf.Box3 {
	r := v3.Vec{X: o.radius, Y: o.radius, Z: o.radius}
	return sdf.Box3{Min: r.Neg(), Max: r}
}
func (o *orb) CubicVolume() float64 {
	return 4 * math.Pi * o.radius * o.radius * o.radius / 3
}
func (o *orb) SurfaceArea() float64 {
	return 4 * math.Pi * o.radius * o.radius
}

// OrbRadius reports whether s is a full sphere and, if so, returns its
// radius.
func OrbRadius(s Solid) (float64, bool) {
	o, ok := s.(*orb)
	if !ok {
		return 0, false
	}
	return o.radius, true
}

// sphere is a spherical section (shell, azimuthal wedge, zenith section).
type sphere struct {
	name           string
	rmin, rmax     float64
	phi0, dphi     float64
	theta0, theta1 float64
	field          sdf.SDF3
}

// NewSphere builds a spherical-section solid. Radii are in native units,
// angles in radians.
func NewSphere(name string, rmin, rmax, phi0, dphi, theta0, theta1 float64) (Solid, error) {
	s := &sphere{
		name: name, rmin: rmin, rmax: rmax,
		phi0: phi0, dphi: dphi, theta0: theta0, theta1: theta1,
	}
	s.field = &sphereField{
		rmin: rmin, rmax: rmax,
		phi0: phi0, dphi: dphi, theta0: theta0, theta1: theta1,
	}
	return s, nil
}

func (s *sphere) Name() string       { return s.name }
func (s *sphere) EntityType() string { return "Sphere" }
func (s *sphere) Field() sdf.SDF3    { return s.field }
func (s *sphere) Inside(p v3.Vec) Side {
	return classify(s.field.Evaluate(p))
}
func (s *sphere) Extent() sdf.Box3 {
	return s.field.BoundingBox()
}
func (s *sphere) CubicVolume() float64 {
	dphi := math.Min(s.dphi, twoPi)
	dcos := math.Cos(s.theta0) - math.Cos(s.theta1)
	return dphi * dcos * (s.rmax*s.rmax*s.rmax - s.rmin*s.rmin*s.rmin) / 3
}
func (s *sphere) SurfaceArea() float64 {
	dphi := math.Min(s.dphi, twoPi)
	dcos := math.Cos(s.theta0) - math.Cos(s.theta1)
	area := dphi * dcos * (s.rmax*s.rmax + s.rmin*s.rmin)
	face := 0.5 * (s.rmax*s.rmax - s.rmin*s.rmin)
	if dphi < twoPi {
		area += 2 * face * (s.theta1 - s.theta0)
	}
	if s.theta0 > 0 {
		area += dphi * face * math.Sin(s.theta0)
	}
	if s.theta1 < math.Pi {
		area += dphi * face * math.Sin(s.theta1)
	}
	return area
}

// SphereParams reports whether s is a spherical section and, if so,
// returns its parameters (radii in native units, angles in radians).
func SphereParams(s Solid) (rmin, rmax, phi0, dphi, theta0, theta1 float64, ok bool) {
	sp, isSphere := s.(*sphere)
	if !isSphere {
		return 0, 0, 0, 0, 0, 0, false
	}
	return sp.rmin, sp.rmax, sp.phi0, sp.dphi, sp.theta0, sp.theta1, true
}

// displaced wraps a solid with an affine transform. Used to re-center
// auto-sized envelopes and to displace a translated or rotated root.
type displaced struct {
	name  string
	inner Solid
	t     Transform
	field sdf.SDF3
}

// NewDisplaced wraps a solid with a transform. The wrapper does not own the
// inner solid: the caller keeps track of it (as an orphan) for teardown.
func NewDisplaced(name string, inner Solid, t Transform) Solid {
	return &displaced{name: name, inner: inner, t: t, field: displace(inner.Field(), t)}
}

func (d *displaced) Name() string       { return d.name }
func (d *displaced) EntityType() string { return "Displaced" }
func (d *displaced) Field() sdf.SDF3    { return d.field }
func (d *displaced) Inside(p v3.Vec) Side {
	return classify(d.field.Evaluate(p))
}
func (d *displaced) Extent() sdf.Box3 {
	return d.field.BoundingBox()
}
func (d *displaced) CubicVolume() float64 { return d.inner.CubicVolume() }
func (d *displaced) SurfaceArea() float64 { return d.inner.SurfaceArea() }

// Inner returns the wrapped solid and its displacement.
func (d *displaced) Inner() (Solid, Transform) { return d.inner, d.t }

// Displacement reports whether s is a displaced wrapper and, if so, returns
// the wrapped solid and the transform.
func Displacement(s Solid) (Solid, Transform, bool) {
	d, ok := s.(*displaced)
	if !ok {
		return nil, Transform{}, false
	}
	return d.inner, d.t, true
}

// subtraction is the boolean difference base - subtrahend, with the
// subtrahend placed by a relative transform in the base frame.
type subtraction struct {
	name  string
	base  Solid
	sub   Solid
	t     Transform
	field sdf.SDF3

	volume float64 // lazy Monte Carlo estimate, NaN until computed
	area   float64
}

// NewSubtraction builds a boolean subtraction. The relative transform maps
// subtrahend-local coordinates into the base solid's frame. Neither operand
// is owned by the result; the caller tracks replaced solids as orphans.
func NewSubtraction(name string, base, sub Solid, rel Transform) Solid {
	field := sdf.Difference3D(base.Field(), displace(sub.Field(), rel))
	return &subtraction{
		name: name, base: base, sub: sub, t: rel, field: field,
		volume: math.NaN(), area: math.NaN(),
	}
}

func (s *subtraction) Name() string       { return s.name }
func (s *subtraction) EntityType() string { return "Subtraction" }
func (s *subtraction) Field() sdf.SDF3    { return s.field }
func (s *subtraction) Inside(p v3.Vec) Side {
	return classify(s.field.Evaluate(p))
}
func (s *subtraction) Extent() sdf.Box3 {
	return s.base.Extent()
}

// Operands returns the base and subtrahend solids and the relative
// transform of the subtrahend.
func (s *subtraction) Operands() (Solid, Solid, Transform) {
	return s.base, s.sub, s.t
}

// SubtractionOperands reports whether s is a boolean subtraction and, if
// so, returns its operands.
func SubtractionOperands(s Solid) (base, sub Solid, rel Transform, ok bool) {
	b, isSub := s.(*subtraction)
	if !isSub {
		return nil, nil, Transform{}, false
	}
	return b.base, b.sub, b.t, true
}

// mcSamples sets the sample count of stochastic volume and area estimates.
const mcSamples = 100000

func (s *subtraction) CubicVolume() float64 {
	if !math.IsNaN(s.volume) {
		return s.volume
	}
	s.volume = estimateVolume(s.field)
	return s.volume
}

func (s *subtraction) SurfaceArea() float64 {
	if !math.IsNaN(s.area) {
		return s.area
	}
	s.area = estimateArea(s.field)
	return s.area
}

// estimateVolume computes a Monte Carlo estimate of the field's interior
// volume by sampling its bounding box. The generator is seeded so repeated
// queries agree.
func estimateVolume(field sdf.SDF3) float64 {
	bb := field.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	rng := rand.New(rand.NewSource(1))
	hits := 0
	for i := 0; i < mcSamples; i++ {
		p := v3.Vec{
			X: bb.Min.X + rng.Float64()*size.X,
			Y: bb.Min.Y + rng.Float64()*size.Y,
			Z: bb.Min.Z + rng.Float64()*size.Z,
		}
		if field.Evaluate(p) < 0 {
			hits++
		}
	}
	return float64(hits) / mcSamples * size.X * size.Y * size.Z
}

// estimateArea computes a Monte Carlo estimate of the surface area from the
// fraction of samples falling in a thin shell around the surface.
func estimateArea(field sdf.SDF3) float64 {
	bb := field.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	shell := 1e-3 * size.Length()
	rng := rand.New(rand.NewSource(2))
	hits := 0
	for i := 0; i < mcSamples; i++ {
		p := v3.Vec{
			X: bb.Min.X + rng.Float64()*size.X,
			Y: bb.Min.Y + rng.Float64()*size.Y,
			Z: bb.Min.Z + rng.Float64()*size.Z,
		}
		if math.Abs(field.Evaluate(p)) < shell {
			hits++
		}
	}
	return float64(hits) / mcSamples * size.X * size.Y * size.Z / (2 * shell)
}
