package kernel

// VoxelHeader is a smart-voxel slicing of a mother volume: daughters are
// binned along a single axis so navigation only tests the daughters whose
// slab a point falls into.
type VoxelHeader struct {
	Axis   int // 0, 1 or 2
	Min    float64
	Max    float64
	Slices int
}

// Optimize walks the volume tree and builds a voxel header for every
// logical volume with at least two daughters that has not been voxelized
// yet. It returns the number of volumes optimized.
func Optimize(root *Logical) int {
	if root == nil {
		return 0
	}
	n := 0
	if root.voxels == nil && len(root.daughters) >= 2 {
		root.voxels = buildVoxels(root)
		n++
	}
	for _, d := range root.daughters {
		n += Optimize(d.logical)
	}
	return n
}

// buildVoxels picks the axis along which the daughter extents spread the
// most and slices it uniformly, two slices per daughter.
func buildVoxels(l *Logical) *VoxelHeader {
	var min, max [3]float64
	first := true
	for _, d := range l.daughters {
		bb := TransformedExtent(d.logical.Solid(), d.Transform())
		lo := [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
		hi := [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
		if first {
			min, max = lo, hi
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			if lo[i] < min[i] {
				min[i] = lo[i]
			}
			if hi[i] > max[i] {
				max[i] = hi[i]
			}
		}
	}
	axis := 0
	for i := 1; i < 3; i++ {
		if max[i]-min[i] > max[axis]-min[axis] {
			axis = i
		}
	}
	return &VoxelHeader{
		Axis:   axis,
		Min:    min[axis],
		Max:    max[axis],
		Slices: 2 * len(l.daughters),
	}
}
