package geometry

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/niess/calzone/pkg/kernel"
	"github.com/niess/calzone/pkg/materials"
	"github.com/niess/calzone/pkg/sampler"
)

// volumeBuilder drives the top-down pass: it drains the solid table filled
// by buildSolids, resolving materials and attaching detectors on the way
// down.
type volumeBuilder struct {
	*assembly
	materials materials.Registry
	detectors kernel.DetectorFactory
}

// buildVolumes creates the logical volume for one description node and,
// recursively, its daughters. On any daughter failure the partially built
// subtree is disposed before the error propagates, so the caller never
// sees a half-built tree.
func (b *volumeBuilder) buildVolumes(v *VolumeSpec, prefix, motherMaterial string) (*kernel.Logical, error) {
	path := joinPath(prefix, v.Name)

	matName := v.Material
	if matName == "" {
		matName = motherMaterial
	}
	material := b.materials.Lookup(matName)
	if material == nil {
		return nil, valueErrorf("bad '%s' volume (undefined '%s' material)", path, matName)
	}

	solid, ok := b.table[path]
	if !ok {
		panic(fmt.Sprintf("geometry: no solid for '%s'", path))
	}
	delete(b.table, path)

	logical := kernel.NewLogical(path, solid, material)
	if !v.Roles.IsNone() {
		roles, err := sampler.ParseRoles(v.Roles.Deposits, v.Roles.Ingoing, v.Roles.Outgoing)
		if err != nil {
			return nil, valueErrorf("bad '%s' volume (%s)", path, err)
		}
		detector, err := b.detectors.NewDetector(path, roles)
		if err != nil {
			return nil, asValueError(err)
		}
		logical.SetRoles(roles, detector)
	}

	for _, d := range v.Volumes {
		daughter, err := b.buildVolumes(d, path, matName)
		if err != nil {
			kernel.NewPlacement(path, logical, kernel.Transform{}).Dispose()
			return nil, err
		}
		logical.Place(joinPath(path, d.Name), daughter, d.transform())
	}
	b.log.Debug("built volume",
		zap.String("path", path), zap.String("material", matName))
	return logical, nil
}
