package geometry

import (
	"math/rand"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/kernel"
)

// Check verifies the built tree for overlaps by sampling: every daughter
// must lie within its mother and clear of its sisters. Resolution is the
// number of interior points tested per daughter (0 selects a default).
// The check walks the tree recursively and stops at the first offence.
func (g *Geometry) Check(resolution int) error {
	if resolution <= 0 {
		resolution = 1000
	}
	rng := rand.New(rand.NewSource(42))
	return checkVolume(g.data.world, resolution, rng)
}

func checkVolume(node *kernel.Placement, resolution int, rng *rand.Rand) error {
	logical := node.Logical()
	daughters := logical.Daughters()
	samples := make([][]v3.Vec, len(daughters))
	for i, d := range daughters {
		samples[i] = samplePoints(d, resolution, rng)
	}

	for i, d := range daughters {
		for _, p := range samples[i] {
			if logical.Solid().Inside(p) == kernel.SideOutside {
				return valueErrorf("'%s' protrudes from '%s'", d.Name(), node.Name())
			}
		}
		for _, sister := range daughters[:i] {
			inv := sister.Transform()
			for _, p := range samples[i] {
				if sister.Logical().Solid().Inside(inv.ApplyInverse(p)) == kernel.SideInside {
					return valueErrorf(
						"overlapping '%s' and '%s' volumes", sister.Name(), d.Name())
				}
			}
		}
	}

	for _, d := range daughters {
		if err := checkVolume(d, resolution, rng); err != nil {
			return err
		}
	}
	return nil
}

// samplePoints draws points strictly inside a daughter's solid, expressed
// in the mother's frame.
func samplePoints(d *kernel.Placement, resolution int, rng *rand.Rand) []v3.Vec {
	solid := d.Logical().Solid()
	bb := solid.Extent()
	size := bb.Max.Sub(bb.Min)
	points := make([]v3.Vec, 0, resolution)
	// Rejection sampling, bounded so empty-ish solids cannot spin.
	for tries := 0; len(points) < resolution && tries < 20*resolution; tries++ {
		p := v3.Vec{
			X: bb.Min.X + rng.Float64()*size.X,
			Y: bb.Min.Y + rng.Float64()*size.Y,
			Z: bb.Min.Z + rng.Float64()*size.Z,
		}
		if solid.Inside(p) == kernel.SideInside {
			points = append(points, d.Transform().Apply(p))
		}
	}
	return points
}
