package geometry

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/kernel"
)

// resolveFrame maps a frame path to its node. The empty path designates
// the world volume.
func (g *Geometry) resolveFrame(frame string) (*kernel.Placement, error) {
	if frame == "" {
		return g.data.world, nil
	}
	node, ok := g.data.elements[frame]
	if !ok {
		return nil, valueErrorf("unknown volume '%s'", frame)
	}
	return node, nil
}

// resolveTransform composes the transform mapping volume-local coordinates
// to frame coordinates, by walking the mother index from the volume up to
// the frame and composing the collected placements root to leaf.
func (g *geometryData) resolveTransform(volume, frame *kernel.Placement) (kernel.Transform, error) {
	if volume == frame {
		return kernel.Transform{}, nil
	}
	var chain []*kernel.Placement
	for node := volume; node != frame; node = g.mothers[node] {
		if node == nil {
			return kernel.Transform{}, valueErrorf(
				"'%s' does not contain '%s'", frame.Name(), volume.Name())
		}
		chain = append(chain, node)
	}
	var t kernel.Transform
	for i := len(chain) - 1; i >= 0; i-- {
		t = t.Compose(chain[i].Transform())
	}
	return t, nil
}

// ComputeTransform returns the affine transform mapping this volume's
// local coordinates to the frame's coordinates. The empty frame is the
// world volume.
func (v *Volume) ComputeTransform(frame string) (kernel.Transform, error) {
	node, err := v.resolveFrame(frame)
	if err != nil {
		return kernel.Transform{}, err
	}
	return v.data.resolveTransform(v.node, node)
}

// ComputeBox returns the volume's axis-aligned bounding box in the frame's
// coordinates, as [xmin, xmax, ymin, ymax, zmin, zmax] in cm. On error the
// box is zeroed.
func (v *Volume) ComputeBox(frame string) ([6]float64, error) {
	t, err := v.ComputeTransform(frame)
	if err != nil {
		return [6]float64{}, err
	}
	solid := v.node.Logical().Solid()
	bb := solid.Extent()
	if !t.IsIdentity() {
		bb = kernel.TransformedExtent(solid, t)
	}
	return [6]float64{
		bb.Min.X / kernel.CM, bb.Max.X / kernel.CM,
		bb.Min.Y / kernel.CM, bb.Max.Y / kernel.CM,
		bb.Min.Z / kernel.CM, bb.Max.Z / kernel.CM,
	}, nil
}

// ComputeOrigin returns the frame-relative coordinates of the volume's
// local origin, in cm. On error the origin is zeroed.
func (v *Volume) ComputeOrigin(frame string) (v3.Vec, error) {
	t, err := v.ComputeTransform(frame)
	if err != nil {
		return v3.Vec{}, err
	}
	return t.Apply(v3.Vec{}).MulScalar(1 / kernel.CM), nil
}

// ComputeVolume returns the volume's cubic volume in cm3. Without
// daughters, the daughters' cubic volumes are subtracted and the result
// clamped at zero.
func (v *Volume) ComputeVolume(includeDaughters bool) float64 {
	logical := v.node.Logical()
	volume := logical.Solid().CubicVolume()
	if !includeDaughters {
		for _, d := range logical.Daughters() {
			volume -= d.Logical().Solid().CubicVolume()
		}
		if volume < 0 {
			volume = 0
		}
	}
	return volume / (kernel.CM * kernel.CM * kernel.CM)
}

// ComputeSurface returns the solid's surface area in cm2.
func (v *Volume) ComputeSurface() float64 {
	return v.node.Logical().Solid().SurfaceArea() / (kernel.CM * kernel.CM)
}

// Inside classifies a point given in the frame's coordinates, in cm. With
// includeDaughters set, points inside a daughter volume are reported
// outside this one and points on a daughter's boundary on-surface.
func (v *Volume) Inside(p v3.Vec, frame string, includeDaughters bool) (kernel.Side, error) {
	t, err := v.ComputeTransform(frame)
	if err != nil {
		return kernel.SideOutside, err
	}
	local := t.ApplyInverse(p.MulScalar(kernel.CM))
	return v.node.Logical().Locate(local, includeDaughters), nil
}

// DaughterInfo is one entry of a structural description.
type DaughterInfo struct {
	Name  string
	Solid string
}

// Description is a read-only structural snapshot of a volume.
type Description struct {
	Path      string
	Material  string
	Solid     string
	Mother    string
	Daughters []DaughterInfo
}

// Describe returns the volume's structural description: material, solid
// kind, mother path (empty for the world) and direct daughters.
func (v *Volume) Describe() Description {
	logical := v.node.Logical()
	desc := Description{
		Path:     v.node.Name(),
		Material: logical.Material().Name,
		Solid:    logical.Solid().EntityType(),
	}
	if mother := v.data.mothers[v.node]; mother != nil {
		desc.Mother = mother.Name()
	}
	for _, d := range logical.Daughters() {
		desc.Daughters = append(desc.Daughters, DaughterInfo{
			Name:  lastSegment(d.Name()),
			Solid: d.Logical().Solid().EntityType(),
		})
	}
	return desc
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}
