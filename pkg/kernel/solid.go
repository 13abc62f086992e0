// Package kernel implements the native solid / logical-volume / placement
// layer of the transport kernel. Solids are backed by signed-distance
// fields from the github.com/deadsy/sdfx library: the sign of the field
// classifies points, while extents, volumes and surface areas are analytic
// wherever the shape allows it.
//
// The native length unit is the millimetre. Callers working in centimetres
// (the public geometry API) scale by CM.
package kernel

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CM is the native-unit (mm) value of one centimetre.
const CM = 10.0

// Tolerance is the half thickness, in native units, of the shell considered
// to be "on surface" by containment queries.
const Tolerance = 1e-6

// Side is the result of a containment query.
type Side int8

const (
	SideOutside Side = -1
	SideSurface Side = 0
	SideInside  Side = 1
)

func (s Side) String() string {
	switch s {
	case SideOutside:
		return "outside"
	case SideSurface:
		return "surface"
	case SideInside:
		return "inside"
	default:
		return "unknown"
	}
}

// SideFromDistance maps a signed distance to a Side, using the Tolerance
// band for the surface. External solid implementations share this so all
// containment queries classify alike.
func SideFromDistance(d float64) Side {
	return classify(d)
}

// classify maps a signed distance to a Side.
func classify(d float64) Side {
	switch {
	case d > Tolerance:
		return SideOutside
	case d < -Tolerance:
		return SideInside
	default:
		return SideSurface
	}
}

// Solid is a pure geometric shape: extent, containment and measures,
// independent of material or placement.
type Solid interface {
	// Name is the dotted path name the solid was built under.
	Name() string

	// EntityType identifies the concrete shape kind ("Box", "Tubs", ...).
	EntityType() string

	// Field returns the backing signed-distance field. The sign is exact;
	// the magnitude may be a lower bound on the true distance.
	Field() sdf.SDF3

	// Inside classifies a point given in the solid's local frame.
	Inside(p v3.Vec) Side

	// Extent returns the local-frame axis-aligned bounding box.
	Extent() sdf.Box3

	// CubicVolume returns the solid's volume in native units cubed.
	CubicVolume() float64

	// SurfaceArea returns the solid's surface area in native units squared.
	SurfaceArea() float64
}

// TransformedExtent returns an axis-aligned bounding box of the solid under
// the given transform, by transforming the corners of the local extent. For
// rotated solids the result is conservative rather than tight.
func TransformedExtent(s Solid, t Transform) sdf.Box3 {
	if t.IsIdentity() {
		return s.Extent()
	}
	local := s.Extent()
	min := v3.Vec{X: +1e300, Y: +1e300, Z: +1e300}
	max := min.Neg()
	for i := 0; i < 8; i++ {
		c := v3.Vec{X: local.Min.X, Y: local.Min.Y, Z: local.Min.Z}
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
	return sdf.Box3{Min: min, Max: max}
}
