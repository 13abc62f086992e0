package geometry

import (
	"sort"
	"strings"

	"github.com/niess/calzone/pkg/kernel"
)

// Geometry is the caller-facing handle on a built geometry. It holds one
// lease on the underlying container, released by Close. Handles must not
// be copied; use Clone to take another lease.
type Geometry struct {
	data   *geometryData
	closed bool
}

// newGeometry wraps a container, taking a lease.
func newGeometry(data *geometryData) *Geometry {
	return &Geometry{data: data.clone()}
}

// Close releases the handle's lease. The native tree is torn down when the
// last lease goes. Close is idempotent.
func (g *Geometry) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.data.drop()
	return nil
}

// Clone returns a new handle holding its own lease on the same geometry.
func (g *Geometry) Clone() *Geometry {
	return newGeometry(g.data)
}

// ID returns the container's construction-order identity.
func (g *Geometry) ID() uint64 { return g.data.id }

// Root returns a handle on the world volume.
func (g *Geometry) Root() *Volume {
	return &Volume{Geometry: *newGeometry(g.data), node: g.data.world}
}

// Volume returns a handle on the volume with the given dotted path.
func (g *Geometry) Volume(path string) (*Volume, error) {
	node, ok := g.data.elements[path]
	if !ok {
		return nil, valueErrorf("unknown volume '%s'", path)
	}
	return &Volume{Geometry: *newGeometry(g.data), node: node}, nil
}

// Find returns a handle on the unique volume whose trailing path segment
// is stem. A full path also matches. Ambiguous stems are an error.
func (g *Geometry) Find(stem string) (*Volume, error) {
	if node, ok := g.data.elements[stem]; ok {
		return &Volume{Geometry: *newGeometry(g.data), node: node}, nil
	}
	var matches []string
	for path := range g.data.elements {
		if path == stem || strings.HasSuffix(path, "."+stem) {
			matches = append(matches, path)
		}
	}
	switch len(matches) {
	case 0:
		return nil, valueErrorf("unknown volume '%s'", stem)
	case 1:
		return g.Volume(matches[0])
	default:
		sort.Strings(matches)
		return nil, valueErrorf(
			"ambiguous volume '%s' (matches '%s')", stem, strings.Join(matches, "', '"))
	}
}

// Paths returns the sorted dotted paths of every volume.
func (g *Geometry) Paths() []string {
	paths := make([]string, 0, len(g.data.elements))
	for path := range g.data.elements {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Volume is a handle on one volume of a built geometry. It embeds its own
// geometry lease so the node reference stays valid until Close.
type Volume struct {
	Geometry
	node *kernel.Placement
}

// Clone returns a new handle on the same volume with its own lease.
func (v *Volume) Clone() *Volume {
	return &Volume{Geometry: *newGeometry(v.data), node: v.node}
}

// Path returns the volume's dotted path.
func (v *Volume) Path() string { return v.node.Name() }

// Name returns the volume's own name, the last path segment.
func (v *Volume) Name() string {
	path := v.node.Name()
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Material returns the volume's material name.
func (v *Volume) Material() string {
	return v.node.Logical().Material().Name
}

// SolidType returns the kind of the volume's solid ("Box", "Tubs", ...).
func (v *Volume) SolidType() string {
	return v.node.Logical().Solid().EntityType()
}

// GetRoles returns the volume's sensitivity configuration.
func (v *Volume) GetRoles() kernel.Roles {
	return v.node.Logical().Roles()
}

// SetRoles reconfigures the volume's sensitivity in place, attaching a
// fresh detector. No geometry is rebuilt.
func (v *Volume) SetRoles(roles kernel.Roles) error {
	if roles.IsNone() {
		v.ClearRoles()
		return nil
	}
	detector, err := v.data.detectors.NewDetector(v.node.Name(), roles)
	if err != nil {
		return asValueError(err)
	}
	v.node.Logical().SetRoles(roles, detector)
	return nil
}

// ClearRoles removes the volume's sensitivity and detaches its detector.
func (v *Volume) ClearRoles() {
	v.node.Logical().SetRoles(kernel.Roles{}, nil)
}

// Detector returns the volume's attached detector, or nil.
func (v *Volume) Detector() kernel.Detector {
	return v.node.Logical().Detector()
}

// Mesh extracts a triangle mesh of the volume's solid by marching cubes.
// Zero cells selects the default resolution.
func (v *Volume) Mesh(cells int) *kernel.Mesh {
	return kernel.ToMesh(v.node.Logical().Solid(), cells)
}
