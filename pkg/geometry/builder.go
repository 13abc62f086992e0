package geometry

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/niess/calzone/pkg/kernel"
	"github.com/niess/calzone/pkg/materials"
	"github.com/niess/calzone/pkg/sampler"
	"github.com/niess/calzone/pkg/tessellate"
)

// Builder assembles a geometry from a description tree. The zero-argument
// defaults are the standard material table, the sampler detector factory,
// BVH tessellations and no logging.
type Builder struct {
	root      *VolumeSpec
	materials materials.Registry
	detectors kernel.DetectorFactory
	algorithm tessellate.Algorithm
	log       *zap.Logger
}

// NewBuilder returns a builder for the given description tree.
func NewBuilder(root *VolumeSpec) *Builder {
	return &Builder{
		root:      root,
		materials: materials.Standard(),
		detectors: sampler.Factory{},
		algorithm: tessellate.AlgorithmBVH,
		log:       zap.NewNop(),
	}
}

// WithMaterials sets the material registry.
func (b *Builder) WithMaterials(r materials.Registry) *Builder {
	b.materials = r
	return b
}

// WithDetectorFactory sets the sensitive-detector factory.
func (b *Builder) WithDetectorFactory(f kernel.DetectorFactory) *Builder {
	b.detectors = f
	return b
}

// WithAlgorithm sets the default tessellation point-query strategy.
func (b *Builder) WithAlgorithm(a tessellate.Algorithm) *Builder {
	b.algorithm = a
	return b
}

// WithLogger sets the construction logger.
func (b *Builder) WithLogger(log *zap.Logger) *Builder {
	b.log = log
	return b
}

// Build assembles the geometry end to end: validation, solids bottom-up,
// volumes top-down, then indexing and registration. On failure nothing is
// registered and no partial tree survives.
func (b *Builder) Build() (*Geometry, error) {
	if b.root == nil {
		return nil, valueErrorf("empty geometry")
	}
	if err := Validate(b.root); err != nil {
		return nil, err
	}

	state := &assembly{
		table: make(map[string]kernel.Solid),
		algo:  b.algorithm,
		log:   b.log,
	}
	if err := state.buildSolids(b.root, ""); err != nil {
		return nil, err
	}

	// A translated or rotated top volume is carried by its solid, not by
	// the root placement.
	rootPath := b.root.Name
	if t := b.root.transform(); !t.IsIdentity() {
		inner := state.table[rootPath]
		state.orphans = append(state.orphans, inner)
		state.table[rootPath] = kernel.NewDisplaced(rootPath, inner, t)
	}

	vb := &volumeBuilder{assembly: state, materials: b.materials, detectors: b.detectors}
	world, err := vb.buildVolumes(b.root, "", "")
	if err != nil {
		return nil, err
	}
	if len(state.table) != 0 {
		panic(fmt.Sprintf("geometry: %d undrained solids after assembly", len(state.table)))
	}

	data := newGeometryData(kernel.NewPlacement(rootPath, world, kernel.Transform{}), b.detectors)
	data.orphans = state.orphans
	b.log.Debug("built geometry",
		zap.Uint64("id", data.id), zap.Int("volumes", len(data.elements)))
	return newGeometry(data), nil
}

// NewGeometry builds a geometry from a description tree with the default
// builder settings.
func NewGeometry(root *VolumeSpec) (*Geometry, error) {
	return NewBuilder(root).Build()
}

// resolveSpec walks the description tree to the node with the given dotted
// path, returning the node and its mother (nil for the root).
func (b *Builder) resolveSpec(path string) (node, mother *VolumeSpec, err error) {
	segments := strings.Split(path, ".")
	if b.root == nil || segments[0] != b.root.Name {
		return nil, nil, valueErrorf("unknown volume '%s'", path)
	}
	node = b.root
	for _, name := range segments[1:] {
		next := node.child(name)
		if next == nil {
			return nil, nil, valueErrorf("unknown volume '%s'", path)
		}
		mother, node = node, next
	}
	return node, mother, nil
}

// Place adds a daughter description under the volume with the given path.
func (b *Builder) Place(spec *VolumeSpec, motherPath string) error {
	mother, _, err := b.resolveSpec(motherPath)
	if err != nil {
		return err
	}
	if mother.child(spec.Name) != nil {
		return valueErrorf(
			"bad '%s' volume (duplicated '%s' daughter)", motherPath, spec.Name)
	}
	mother.Volumes = append(mother.Volumes, spec)
	return nil
}

// Modify edits a volume description in place through fn.
func (b *Builder) Modify(path string, fn func(*VolumeSpec) error) error {
	node, _, err := b.resolveSpec(path)
	if err != nil {
		return err
	}
	return fn(node)
}

// Move reparents a volume description under a new mother. The root cannot
// move and a volume cannot move into its own subtree.
func (b *Builder) Move(path, motherPath string) error {
	node, mother, err := b.resolveSpec(path)
	if err != nil {
		return err
	}
	if mother == nil {
		return valueErrorf("cannot move the '%s' volume", path)
	}
	if motherPath == path || strings.HasPrefix(motherPath, path+".") {
		return valueErrorf("cannot move '%s' into itself", path)
	}
	target, _, err := b.resolveSpec(motherPath)
	if err != nil {
		return err
	}
	if target.child(node.Name) != nil {
		return valueErrorf(
			"bad '%s' volume (duplicated '%s' daughter)", motherPath, node.Name)
	}
	b.detach(mother, node)
	target.Volumes = append(target.Volumes, node)
	return nil
}

// Delete removes a volume description and its subtree. The root cannot be
// deleted.
func (b *Builder) Delete(path string) error {
	node, mother, err := b.resolveSpec(path)
	if err != nil {
		return err
	}
	if mother == nil {
		return valueErrorf("cannot delete the '%s' volume", path)
	}
	b.detach(mother, node)
	return nil
}

// detach removes a daughter and any boolean pairs referencing it.
func (b *Builder) detach(mother, node *VolumeSpec) {
	for i, d := range mother.Volumes {
		if d == node {
			mother.Volumes = append(mother.Volumes[:i], mother.Volumes[i+1:]...)
			break
		}
	}
	filter := func(pairs [][2]string) [][2]string {
		out := pairs[:0]
		for _, p := range pairs {
			if p[0] != node.Name && p[1] != node.Name {
				out = append(out, p)
			}
		}
		return out
	}
	mother.Subtract = filter(mother.Subtract)
	mother.Overlap = filter(mother.Overlap)
}
