package geometry

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"go.uber.org/zap"

	"github.com/niess/calzone/pkg/kernel"
	"github.com/niess/calzone/pkg/tessellate"
)

// assembly is the working state of one construction call: the path-keyed
// solid table produced bottom-up and drained top-down, and the orphan
// solids replaced by boolean or displaced wrappers.
type assembly struct {
	table   map[string]kernel.Solid
	orphans []kernel.Solid
	algo    tessellate.Algorithm
	log     *zap.Logger
}

// buildSolids walks the description depth first, children before parents,
// and leaves one solid per node in the table, keyed by dotted path. The
// children-first order is what allows envelopes to auto-size and boolean
// patches to reference built daughters.
func (a *assembly) buildSolids(v *VolumeSpec, prefix string) error {
	path := joinPath(prefix, v.Name)
	for _, d := range v.Volumes {
		if err := a.buildSolids(d, path); err != nil {
			return err
		}
	}

	for _, pair := range append(normalizePairs(v.Subtract), normalizePairs(v.Overlap)...) {
		if err := a.patchPair(v, path, pair); err != nil {
			return err
		}
	}

	solid, err := a.buildShape(v, path)
	if err != nil {
		return err
	}
	if solid == nil {
		return valueErrorf("bad '%s' volume (could not create solid)", path)
	}
	a.table[path] = solid
	a.log.Debug("built solid", zap.String("path", path), zap.String("type", solid.EntityType()))
	return nil
}

// patchPair replaces the base daughter's solid with its boolean difference
// with the hole daughter's solid. The hole is mapped into the base's frame
// by inverting the base's own placement and composing the hole's placement
// onto it.
func (a *assembly) patchPair(v *VolumeSpec, path string, pair [2]string) error {
	base, hole := v.child(pair[0]), v.child(pair[1])
	basePath := joinPath(path, pair[0])
	holePath := joinPath(path, pair[1])
	baseSolid := a.table[basePath]
	holeSolid := a.table[holePath]
	if baseSolid == nil || holeSolid == nil {
		return valueErrorf("bad '%s' volume (could not create solid)", basePath)
	}
	rel := base.transform().Inverse().Compose(hole.transform())
	a.orphans = append(a.orphans, baseSolid)
	a.table[basePath] = kernel.NewSubtraction(basePath, baseSolid, holeSolid, rel)
	return nil
}

// buildShape constructs one node's solid from its shape description,
// converting cm to native units and degrees to radians.
func (a *assembly) buildShape(v *VolumeSpec, path string) (kernel.Solid, error) {
	switch shape := v.Shape.(type) {
	case BoxShape:
		s, err := kernel.NewBox(path, shape.HalfSize.MulScalar(kernel.CM))
		return s, asValueError(err)

	case CylinderShape:
		rmax := shape.Radius * kernel.CM
		rmin := 0.0
		if shape.Thickness > 0 {
			rmin = rmax - shape.Thickness*kernel.CM
		}
		phi0, dphi := section(shape.Section, 2*math.Pi)
		s, err := kernel.NewTubs(path, rmin, rmax, 0.5*shape.Length*kernel.CM, phi0, dphi)
		return s, asValueError(err)

	case SphereShape:
		rmax := shape.Radius * kernel.CM
		rmin := 0.0
		if shape.Thickness > 0 {
			rmin = rmax - shape.Thickness*kernel.CM
		}
		phi0, dphi := section(shape.Azimuth, 2*math.Pi)
		if rmin <= 0 && dphi >= 2*math.Pi && shape.Zenith == [2]float64{} {
			s, err := kernel.NewOrb(path, rmax)
			return s, asValueError(err)
		}
		theta0, dtheta := section(shape.Zenith, math.Pi)
		s, err := kernel.NewSphere(path, rmin, rmax, phi0, dphi, theta0, theta0+dtheta)
		return s, asValueError(err)

	case EnvelopeShape:
		return a.buildEnvelope(v, path, shape)

	case TessellationShape:
		facets := shape.Facets
		if shape.Path != "" {
			read, err := tessellate.ReadSTLFile(shape.Path)
			if err != nil {
				return nil, asValueError(err)
			}
			facets = read
		} else {
			facets = append([]float64(nil), facets...)
		}
		scale := shape.Scale
		if scale == 0 {
			scale = 1
		}
		s, err := tessellate.New(path, tessellate.Scale(facets, scale*kernel.CM), a.pickAlgorithm(shape))
		if err != nil {
			return nil, valueErrorf("bad '%s' volume (%s)", path, err)
		}
		return s, nil

	default:
		return nil, notImplementedf("bad '%s' volume (unsupported shape)", path)
	}
}

func (a *assembly) pickAlgorithm(shape TessellationShape) tessellate.Algorithm {
	if shape.Algorithm != 0 {
		return shape.Algorithm
	}
	return a.algo
}

// buildEnvelope sizes a bounding solid to the union extent of the already
// built daughters plus the safety margin, and re-centers it through a
// displaced wrapper when the union center is off origin.
func (a *assembly) buildEnvelope(v *VolumeSpec, path string, shape EnvelopeShape) (kernel.Solid, error) {
	if len(v.Volumes) == 0 {
		return nil, valueErrorf("bad '%s' volume (empty envelope)", path)
	}
	min := v3.Vec{X: +math.MaxFloat64, Y: +math.MaxFloat64, Z: +math.MaxFloat64}
	max := min.Neg()
	for _, d := range v.Volumes {
		solid := a.table[joinPath(path, d.Name)]
		if solid == nil {
			return nil, valueErrorf("bad '%s' volume (could not create solid)", path)
		}
		bb := kernel.TransformedExtent(solid, d.transform())
		min = min.Min(bb.Min)
		max = max.Max(bb.Max)
	}
	margin := shape.Safety * kernel.CM
	min = min.Sub(v3.Vec{X: margin, Y: margin, Z: margin})
	max = max.Add(v3.Vec{X: margin, Y: margin, Z: margin})
	center := min.Add(max).MulScalar(0.5)
	half := max.Sub(min).MulScalar(0.5)

	var inner kernel.Solid
	var err error
	switch shape.Shape {
	case EnvelopeBox:
		inner, err = kernel.NewBox(path, half)
	case EnvelopeCylinder:
		inner, err = kernel.NewTubs(path, 0, math.Hypot(half.X, half.Y), half.Z, 0, 2*math.Pi)
	case EnvelopeSphere:
		inner, err = kernel.NewOrb(path, half.Length())
	default:
		return nil, notImplementedf("bad '%s' volume (unsupported envelope)", path)
	}
	if err != nil {
		return nil, asValueError(err)
	}
	if center == (v3.Vec{}) {
		return inner, nil
	}
	a.orphans = append(a.orphans, inner)
	return kernel.NewDisplaced(path, inner, kernel.NewTranslation(center)), nil
}
