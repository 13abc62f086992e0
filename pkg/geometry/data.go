package geometry

import (
	"sync"

	"github.com/niess/calzone/pkg/kernel"
)

// geometryData owns one built native tree: the root placement, the
// path-to-node and node-to-mother indices used for transform resolution,
// the orphan solids replaced by wrappers during assembly, and the lease
// counter shared by all borrow handles.
type geometryData struct {
	id        uint64
	world     *kernel.Placement
	elements  map[string]*kernel.Placement
	mothers   map[*kernel.Placement]*kernel.Placement
	orphans   []kernel.Solid
	detectors kernel.DetectorFactory
	rc        int
}

// instances maps native root placements back to their owning container.
// The secondary transport consumer is handed only the root, so this is its
// sole way back to the lease counter. Guarded by instancesMu, together
// with every lease counter.
var (
	instancesMu sync.Mutex
	instances   = make(map[*kernel.Placement]*geometryData)
	nextID      uint64
)

// newGeometryData indexes a fully built tree and registers it. The
// container starts with no lease; the first borrow takes one.
func newGeometryData(world *kernel.Placement, detectors kernel.DetectorFactory) *geometryData {
	g := &geometryData{
		world:     world,
		elements:  make(map[string]*kernel.Placement),
		mothers:   make(map[*kernel.Placement]*kernel.Placement),
		detectors: detectors,
	}
	g.index(world, nil)

	instancesMu.Lock()
	nextID++
	g.id = nextID
	instances[world] = g
	instancesMu.Unlock()
	return g
}

// index records every node's path and its mother, walking the placement
// tree once after assembly.
func (g *geometryData) index(node, mother *kernel.Placement) {
	g.elements[node.Name()] = node
	g.mothers[node] = mother
	for _, d := range node.Logical().Daughters() {
		g.index(d, node)
	}
}

// clone takes a lease and returns the same container.
func (g *geometryData) clone() *geometryData {
	instancesMu.Lock()
	g.rc++
	instancesMu.Unlock()
	return g
}

// drop releases a lease. The last drop unregisters the container and tears
// the native tree down, daughters first, orphans after.
func (g *geometryData) drop() {
	instancesMu.Lock()
	g.rc--
	last := g.rc == 0
	if last {
		delete(instances, g.world)
	}
	instancesMu.Unlock()
	if !last {
		return
	}
	g.world.Dispose()
	g.world = nil
	g.elements = nil
	g.mothers = nil
	g.orphans = nil
}

// lookupData resolves a native root placement to its owning container, or
// nil.
func lookupData(root *kernel.Placement) *geometryData {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	return instances[root]
}

// registeredGeometries returns the number of live containers.
func registeredGeometries() int {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	return len(instances)
}
