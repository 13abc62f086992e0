package geometry

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestTransportProtocol(t *testing.T) {
	spec := worldSpec()
	spec.Volumes = append(spec.Volumes, &VolumeSpec{
		Name:     "Cube2",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
		Position: v3.Vec{X: -3},
	})
	g := build(t, spec)
	SetTransportGeometry(g)
	defer SetTransportGeometry(nil)

	root, err := TransportNewGeometry()
	if err != nil {
		t.Fatalf("TransportNewGeometry: %v", err)
	}
	if root != g.data.world {
		t.Fatal("served a different root")
	}
	if g.data.world.Logical().Voxels() == nil {
		t.Fatal("optimization pass skipped")
	}

	// The transport lease keeps the tree alive past the primary Close.
	before := registeredGeometries()
	g.Close()
	if registeredGeometries() != before {
		t.Fatal("container freed while the transport lease remains")
	}
	if err := TransportDropGeometry(root); err != nil {
		t.Fatalf("TransportDropGeometry: %v", err)
	}
	if registeredGeometries() != before-1 {
		t.Fatal("container not freed after the transport drop")
	}
	if err := TransportDropGeometry(root); !IsValueError(err) {
		t.Fatalf("dropped an unregistered root: %v", err)
	}
}

func TestTransportWithoutDesignation(t *testing.T) {
	SetTransportGeometry(nil)
	if _, err := TransportNewGeometry(); !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}
