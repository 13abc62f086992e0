package geometry

import (
	"sync"

	"github.com/niess/calzone/pkg/kernel"
)

// The secondary transport consumer holds its own leases on built
// geometries, keyed by the native root placement it is handed. The current
// designation selects which geometry its next swap picks up.
var (
	transportMu      sync.Mutex
	transportCurrent *geometryData
)

// SetTransportGeometry designates the geometry served to the secondary
// transport consumer on its next swap. A nil handle clears the
// designation. The designation itself holds no lease.
func SetTransportGeometry(g *Geometry) {
	transportMu.Lock()
	if g == nil {
		transportCurrent = nil
	} else {
		transportCurrent = g.data
	}
	transportMu.Unlock()
}

// TransportNewGeometry serves the designated geometry to the transport
// consumer: it takes a lease, runs the one-time smart-voxel optimization
// over the logical tree, and returns the native root. The caller owns the
// lease and must release it through TransportDropGeometry.
func TransportNewGeometry() (*kernel.Placement, error) {
	transportMu.Lock()
	data := transportCurrent
	transportMu.Unlock()
	if data == nil {
		return nil, valueErrorf("no transport geometry")
	}
	data.clone()
	kernel.Optimize(data.world.Logical())
	return data.world, nil
}

// TransportDropGeometry releases the transport consumer's lease on the
// geometry owning the given root.
func TransportDropGeometry(root *kernel.Placement) error {
	data := lookupData(root)
	if data == nil {
		return valueErrorf("unknown geometry")
	}
	data.drop()
	return nil
}
