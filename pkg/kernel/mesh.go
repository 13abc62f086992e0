package kernel

import (
	"github.com/deadsy/sdfx/render"
)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// Mesh is a triangle mesh extracted from a solid.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices  []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Normals   []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	Indices   []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
	SolidName string    `json:"solidName"` // path of the solid this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Facets flattens the mesh to 9 floats per triangle (three vertices in
// order), the layout consumed by tessellated solids and STL writers.
func (m *Mesh) Facets() []float64 {
	n := m.TriangleCount()
	out := make([]float64, 0, n*9)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			v := m.Indices[i*3+j]
			out = append(out,
				float64(m.Vertices[v*3]),
				float64(m.Vertices[v*3+1]),
				float64(m.Vertices[v*3+2]),
			)
		}
	}
	return out
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func ToMesh(s Solid, cells int) *Mesh {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s.Field(), renderer)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &Mesh{
		Vertices:  vertices,
		Normals:   normals,
		Indices:   indices,
		SolidName: s.Name(),
	}
}
