// Package tessellate implements tessellated solids: watertight triangle
// meshes usable anywhere a parametric solid is. Containment queries are
// answered by ray parity over the facets, either brute force or through a
// bounding-volume hierarchy.
package tessellate

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/kernel"
)

// Algorithm selects the point-query strategy of a tessellated solid.
type Algorithm int

const (
	// AlgorithmBVH answers queries through a bounding-volume hierarchy.
	AlgorithmBVH Algorithm = iota

	// AlgorithmLinear scans all facets. Slow, used as a reference.
	AlgorithmLinear
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmBVH:
		return "bvh"
	case AlgorithmLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// Mesh is a tessellated solid. Facets are stored flat, 9 floats per
// triangle (three vertices in order), in native units.
type Mesh struct {
	name   string
	facets []float64
	algo   Algorithm
	tree   *bvhNode
	bb     sdf.Box3
	volume float64
	area   float64
}

// Compile-time interface checks.
var (
	_ kernel.Solid = (*Mesh)(nil)
	_ sdf.SDF3     = (*Mesh)(nil)
)

// New builds a tessellated solid from a flat facet buffer. The buffer
// length must be a multiple of 9 and every facet must have a non-zero
// area.
func New(name string, facets []float64, algo Algorithm) (*Mesh, error) {
	if len(facets) == 0 || len(facets)%9 != 0 {
		return nil, fmt.Errorf(
			"bad facets (expected a multiple of 9 floats, found %d)", len(facets))
	}
	m := &Mesh{name: name, facets: facets, algo: algo}
	min := v3.Vec{X: +math.MaxFloat64, Y: +math.MaxFloat64, Z: +math.MaxFloat64}
	max := min.Neg()
	for i := 0; i < m.FacetCount(); i++ {
		a, b, c := m.facet(i)
		area2 := b.Sub(a).Cross(c.Sub(a)).Length()
		if area2 == 0 {
			return nil, fmt.Errorf("bad facet (degenerate triangle at index %d)", i)
		}
		m.area += 0.5 * area2
		m.volume += a.Dot(b.Cross(c)) / 6
		for _, p := range []v3.Vec{a, b, c} {
			min = min.Min(p)
			max = max.Max(p)
		}
	}
	m.volume = math.Abs(m.volume)
	m.bb = sdf.Box3{Min: min, Max: max}
	if algo == AlgorithmBVH {
		idx := make([]int, m.FacetCount())
		for i := range idx {
			idx[i] = i
		}
		m.tree = buildBVH(m, idx)
	}
	return m, nil
}

// Scale multiplies every coordinate of a facet buffer in place and returns
// it. Used to convert file units to native units.
func Scale(facets []float64, factor float64) []float64 {
	for i := range facets {
		facets[i] *= factor
	}
	return facets
}

// FacetCount returns the number of triangles.
func (m *Mesh) FacetCount() int { return len(m.facets) / 9 }

// Facets returns the flat facet buffer. The caller must not modify it.
func (m *Mesh) Facets() []float64 { return m.facets }

// Algorithm returns the point-query strategy in use.
func (m *Mesh) Algorithm() Algorithm { return m.algo }

func (m *Mesh) facet(i int) (a, b, c v3.Vec) {
	f := m.facets[i*9 : i*9+9]
	a = v3.Vec{X: f[0], Y: f[1], Z: f[2]}
	b = v3.Vec{X: f[3], Y: f[4], Z: f[5]}
	c = v3.Vec{X: f[6], Y: f[7], Z: f[8]}
	return a, b, c
}

func (m *Mesh) Name() string       { return m.name }
func (m *Mesh) EntityType() string { return "Tessellation" }
func (m *Mesh) Field() sdf.SDF3    { return m }

// CubicVolume returns the enclosed volume, computed exactly from the
// facets by the divergence theorem.
func (m *Mesh) CubicVolume() float64 { return m.volume }

// SurfaceArea returns the summed facet area.
func (m *Mesh) SurfaceArea() float64 { return m.area }

func (m *Mesh) Extent() sdf.Box3      { return m.bb }
func (m *Mesh) BoundingBox() sdf.Box3 { return m.bb }

// rayDir is the fixed parity-ray direction. Irrational components make
// grazing hits on edges and vertices unlikely.
var rayDir = v3.Vec{X: 0.5773502691896258, Y: 0.5773502691896261, Z: 0.5773502691896255}

// Inside classifies a point against the mesh: on a facet within the
// tolerance band, or by parity of facet crossings along a fixed ray.
func (m *Mesh) Inside(p v3.Vec) kernel.Side {
	return kernel.SideFromDistance(m.Evaluate(p))
}

// Evaluate returns a signed pseudo distance: the unsigned distance to the
// nearest facet, negative when the parity ray reports the point enclosed.
func (m *Mesh) Evaluate(p v3.Vec) float64 {
	var d float64
	var crossings int
	if m.tree != nil {
		d = math.Sqrt(m.tree.nearest(m, p, math.MaxFloat64))
		crossings = m.tree.crossings(m, p)
	} else {
		best := math.MaxFloat64
		for i := 0; i < m.FacetCount(); i++ {
			a, b, c := m.facet(i)
			if q := triangleDistance2(p, a, b, c); q < best {
				best = q
			}
			if rayHitsTriangle(p, rayDir, a, b, c) {
				crossings++
			}
		}
		d = math.Sqrt(best)
	}
	if crossings%2 == 1 {
		return -d
	}
	return d
}

// rayHitsTriangle tests a ray against one triangle (Moeller-Trumbore),
// counting strictly forward hits.
func rayHitsTriangle(orig, dir, a, b, c v3.Vec) bool {
	const eps = 1e-12
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if math.Abs(det) < eps {
		return false
	}
	inv := 1 / det
	s := orig.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return false
	}
	q := s.Cross(e1)
	v := inv * dir.Dot(q)
	if v < 0 || u+v > 1 {
		return false
	}
	t := inv * e2.Dot(q)
	return t > eps
}

// triangleDistance2 returns the squared distance from a point to a
// triangle.
func triangleDistance2(p, a, b, c v3.Vec) float64 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return ap.Dot(ap)
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return bp.Dot(bp)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		q := ap.Sub(ab.MulScalar(t))
		return q.Dot(q)
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return cp.Dot(cp)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		q := ap.Sub(ac.MulScalar(t))
		return q.Dot(q)
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		q := bp.Sub(c.Sub(b).MulScalar(t))
		return q.Dot(q)
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	q := ap.Sub(ab.MulScalar(v)).Sub(ac.MulScalar(w))
	return q.Dot(q)
}

// bvhLeafSize caps the number of facets held by a leaf node.
const bvhLeafSize = 8

// bvhNode is a node of the bounding-volume hierarchy. Leaves hold facet
// indices; interior nodes hold two children.
type bvhNode struct {
	min, max    v3.Vec
	left, right *bvhNode
	facets      []int
}

func buildBVH(m *Mesh, idx []int) *bvhNode {
	n := &bvhNode{
		min: v3.Vec{X: +math.MaxFloat64, Y: +math.MaxFloat64, Z: +math.MaxFloat64},
	}
	n.max = n.min.Neg()
	for _, i := range idx {
		a, b, c := m.facet(i)
		for _, p := range []v3.Vec{a, b, c} {
			n.min = n.min.Min(p)
			n.max = n.max.Max(p)
		}
	}
	if len(idx) <= bvhLeafSize {
		n.facets = idx
		return n
	}

	// Split at the centroid median of the widest axis.
	size := n.max.Sub(n.min)
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > size.X && size.Z > size.Y {
		axis = 2
	}
	mid := 0.0
	cent := make([]float64, len(idx))
	for k, i := range idx {
		a, b, c := m.facet(i)
		s := a.Add(b).Add(c).MulScalar(1.0 / 3)
		switch axis {
		case 0:
			cent[k] = s.X
		case 1:
			cent[k] = s.Y
		default:
			cent[k] = s.Z
		}
		mid += cent[k]
	}
	mid /= float64(len(idx))

	var lo, hi []int
	for k, i := range idx {
		if cent[k] < mid {
			lo = append(lo, i)
		} else {
			hi = append(hi, i)
		}
	}
	if len(lo) == 0 || len(hi) == 0 {
		n.facets = idx
		return n
	}
	n.left = buildBVH(m, lo)
	n.right = buildBVH(m, hi)
	return n
}

// boxDistance2 returns the squared distance from a point to the node's
// bounding box, zero when inside.
func (n *bvhNode) boxDistance2(p v3.Vec) float64 {
	d := 0.0
	for _, c := range [3][3]float64{
		{p.X, n.min.X, n.max.X},
		{p.Y, n.min.Y, n.max.Y},
		{p.Z, n.min.Z, n.max.Z},
	} {
		if c[0] < c[1] {
			d += (c[1] - c[0]) * (c[1] - c[0])
		} else if c[0] > c[2] {
			d += (c[0] - c[2]) * (c[0] - c[2])
		}
	}
	return d
}

// nearest returns the squared distance from p to the nearest facet under
// the node, pruning by the running best.
func (n *bvhNode) nearest(m *Mesh, p v3.Vec, best float64) float64 {
	if n.boxDistance2(p) >= best {
		return best
	}
	if n.facets != nil {
		for _, i := range n.facets {
			a, b, c := m.facet(i)
			if q := triangleDistance2(p, a, b, c); q < best {
				best = q
			}
		}
		return best
	}
	// Descend into the nearer child first.
	first, second := n.left, n.right
	if second.boxDistance2(p) < first.boxDistance2(p) {
		first, second = second, first
	}
	best = first.nearest(m, p, best)
	return second.nearest(m, p, best)
}

// crossings counts parity-ray hits under the node.
func (n *bvhNode) crossings(m *Mesh, p v3.Vec) int {
	if !n.rayHitsBox(p) {
		return 0
	}
	if n.facets != nil {
		hits := 0
		for _, i := range n.facets {
			a, b, c := m.facet(i)
			if rayHitsTriangle(p, rayDir, a, b, c) {
				hits++
			}
		}
		return hits
	}
	return n.left.crossings(m, p) + n.right.crossings(m, p)
}

// rayHitsBox is a slab test for the fixed parity ray.
func (n *bvhNode) rayHitsBox(orig v3.Vec) bool {
	tmin := math.Inf(-1)
	tmax := math.Inf(+1)
	slabs := [3][4]float64{
		{orig.X, n.min.X, n.max.X, rayDir.X},
		{orig.Y, n.min.Y, n.max.Y, rayDir.Y},
		{orig.Z, n.min.Z, n.max.Z, rayDir.Z},
	}
	for _, s := range slabs {
		// All components of rayDir are positive, so slabs keep their order.
		inv := 1 / s[3]
		t0 := (s[1] - s[0]) * inv
		t1 := (s[2] - s[0]) * inv
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
	}
	return tmax >= tmin && tmax > 0
}
