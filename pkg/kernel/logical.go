package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/materials"
)

// Logical is a solid bound to a material, together with the placements of
// its daughter volumes. Logical volumes form the construction-side tree;
// placements form the navigation-side tree.
type Logical struct {
	name      string
	solid     Solid
	material  *materials.Material
	daughters []*Placement
	roles     Roles
	detector  Detector
	voxels    *VoxelHeader
}

// NewLogical binds a solid to a material under the given path name.
func NewLogical(name string, solid Solid, material *materials.Material) *Logical {
	return &Logical{name: name, solid: solid, material: material}
}

func (l *Logical) Name() string                  { return l.name }
func (l *Logical) Solid() Solid                  { return l.solid }
func (l *Logical) Material() *materials.Material { return l.material }
func (l *Logical) Daughters() []*Placement       { return l.daughters }

// Roles returns the volume's sensitivity configuration.
func (l *Logical) Roles() Roles { return l.roles }

// SetRoles configures the volume's sensitivity and attaches (or detaches)
// the detector implementing it.
func (l *Logical) SetRoles(r Roles, d Detector) {
	l.roles = r
	l.detector = d
}

// Detector returns the attached sensitive detector, or nil.
func (l *Logical) Detector() Detector { return l.detector }

// Voxels returns the volume's smart-voxel header, or nil if the volume has
// not been optimized.
func (l *Logical) Voxels() *VoxelHeader { return l.voxels }

// Place adds a daughter placement with a daughter-to-mother transform and
// returns the new placement.
func (l *Logical) Place(name string, daughter *Logical, t Transform) *Placement {
	p := &Placement{name: name, logical: daughter, transform: t}
	l.daughters = append(l.daughters, p)
	return p
}

// Locate classifies a point, given in the volume's local frame, against the
// volume's solid. With carveDaughters set, a point strictly inside a
// daughter is reported as outside this volume and a point on a daughter's
// boundary as on-surface.
func (l *Logical) Locate(p v3.Vec, carveDaughters bool) Side {
	side := l.solid.Inside(p)
	if side != SideInside || !carveDaughters {
		return side
	}
	for _, d := range l.daughters {
		q := d.transform.ApplyInverse(p)
		switch d.logical.solid.Inside(q) {
		case SideInside:
			return SideOutside
		case SideSurface:
			return SideSurface
		}
	}
	return SideInside
}

// Placement is a placed instance of a logical volume inside its mother. The
// transform maps daughter-frame coordinates to mother-frame coordinates.
type Placement struct {
	name      string
	logical   *Logical
	transform Transform
}

// NewPlacement returns an unattached placement, used for the root volume
// which has no mother.
func NewPlacement(name string, logical *Logical, t Transform) *Placement {
	return &Placement{name: name, logical: logical, transform: t}
}

func (p *Placement) Name() string         { return p.name }
func (p *Placement) Logical() *Logical    { return p.logical }
func (p *Placement) Transform() Transform { return p.transform }

// Dispose tears down the placement tree depth first: daughters are popped
// and disposed before the volume's own resources are released. After
// Dispose the placement must not be used.
func (p *Placement) Dispose() {
	l := p.logical
	if l == nil {
		return
	}
	for len(l.daughters) > 0 {
		last := len(l.daughters) - 1
		d := l.daughters[last]
		l.daughters = l.daughters[:last]
		d.Dispose()
	}
	l.voxels = nil
	l.solid = nil
	l.detector = nil
	p.logical = nil
}
