// Package geometry turns declarative volume descriptions into the transport
// kernel's solid / logical-volume / placement graph, manages the lifetime of
// that graph across independent lease holders, and answers transform and
// containment queries over the built tree.
//
// Descriptions use centimetres and degrees; the kernel layer underneath
// works in millimetres and radians.
package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/kernel"
	"github.com/niess/calzone/pkg/tessellate"
)

// VolumeSpec describes one volume of the geometry: its shape, material,
// placement inside the mother volume, sensitivity, daughter volumes and
// declared boolean patches. It is read-only during assembly.
type VolumeSpec struct {
	// Name of the volume. Must be alphanumeric and capitalised; unique
	// among its siblings.
	Name string

	// Shape of the volume. Exactly one concrete shape type.
	Shape Shape

	// Material name, resolved through the material registry. Empty means
	// the mother's material (the top volume must name one).
	Material string

	// Position of the volume in the mother's frame, in cm.
	Position v3.Vec

	// Rotation as extrinsic Euler angles in degrees, applied around X,
	// then Y, then Z.
	Rotation [3]float64

	// Roles configures the volume's sensitivity, by action keyword.
	Roles RoleSpec

	// Volumes are the daughter volumes.
	Volumes []*VolumeSpec

	// Subtract lists pairs of direct daughter names [base, hole]: the
	// base daughter's solid is replaced by its boolean difference with
	// the hole daughter's solid.
	Subtract [][2]string

	// Overlap lists pairs of direct daughter names allowed to overlap;
	// the overlap is patched by carving the second out of the first.
	Overlap [][2]string
}

// RoleSpec holds sensitivity actions as keywords ("", "ignore", "record",
// "catch", "kill").
type RoleSpec struct {
	Deposits string
	Ingoing  string
	Outgoing string
}

// IsNone reports whether no role is configured.
func (r RoleSpec) IsNone() bool {
	return (r == RoleSpec{}) || r == RoleSpec{Deposits: "ignore", Ingoing: "ignore", Outgoing: "ignore"}
}

// transform returns the volume's local placement transform, in native
// units.
func (v *VolumeSpec) transform() kernel.Transform {
	rot := kernel.Identity3()
	if v.Rotation != [3]float64{} {
		rot = kernel.RotationZ(v.Rotation[2]).
			Mul(kernel.RotationY(v.Rotation[1])).
			Mul(kernel.RotationX(v.Rotation[0]))
	}
	return kernel.NewTransform(rot, v.Position.MulScalar(kernel.CM))
}

// child returns the direct daughter with the given name, or nil.
func (v *VolumeSpec) child(name string) *VolumeSpec {
	for _, d := range v.Volumes {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Shape is the closed set of volume shapes.
type Shape interface {
	shapeNode()

	// Kind names the shape ("Box", "Cylinder", ...).
	Kind() string
}

// BoxShape is an axis-aligned box given by half extents, in cm.
type BoxShape struct {
	HalfSize v3.Vec
}

// CylinderShape is a cylinder along the Z axis. Thickness > 0 hollows the
// cylinder (inner radius = Radius - Thickness). The angular section is
// given in degrees; a zero section means a full circle.
type CylinderShape struct {
	Radius    float64
	Length    float64
	Thickness float64
	Section   [2]float64
}

// SphereShape is a sphere, optionally hollow and sectioned. Azimuth and
// Zenith bounds are degrees; zero values mean the full sphere.
type SphereShape struct {
	Radius    float64
	Thickness float64
	Azimuth   [2]float64
	Zenith    [2]float64
}

// EnvelopeShape is an auto-sized bounding solid: its extent is computed
// from the union extent of the daughter volumes plus a safety margin
// (cm, on every side). File-based definitions default the margin to
// DefaultSafety; the zero value here means none.
type EnvelopeShape struct {
	Shape  EnvelopeKind
	Safety float64
}

// EnvelopeKind selects the envelope's bounding shape.
type EnvelopeKind int

const (
	EnvelopeBox EnvelopeKind = iota
	EnvelopeCylinder
	EnvelopeSphere
)

// DefaultSafety is the envelope safety margin applied when none is given,
// in cm.
const DefaultSafety = 0.01

// TessellationShape is a triangle-mesh solid. Facets hold 9 floats per
// triangle, in cm; alternatively Path names an STL file to load. Scale
// multiplies file units (default 1).
type TessellationShape struct {
	Facets    []float64
	Path      string
	Scale     float64
	Algorithm tessellate.Algorithm
}

func (BoxShape) shapeNode()          {}
func (CylinderShape) shapeNode()     {}
func (SphereShape) shapeNode()       {}
func (EnvelopeShape) shapeNode()     {}
func (TessellationShape) shapeNode() {}

func (BoxShape) Kind() string          { return "Box" }
func (CylinderShape) Kind() string     { return "Cylinder" }
func (SphereShape) Kind() string       { return "Sphere" }
func (EnvelopeShape) Kind() string     { return "Envelope" }
func (TessellationShape) Kind() string { return "Tessellation" }

// section converts a [start, stop] pair in degrees to radians, mapping the
// zero value to the given full range.
func section(bounds [2]float64, full float64) (start, delta float64) {
	if bounds == [2]float64{} {
		return 0, full
	}
	start = bounds[0] * math.Pi / 180
	delta = (bounds[1] - bounds[0]) * math.Pi / 180
	return start, delta
}
