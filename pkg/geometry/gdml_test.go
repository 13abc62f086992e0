package geometry

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestDumpGDML(t *testing.T) {
	spec := worldSpec()
	spec.Subtract = [][2]string{{"Cube", "Hole"}}
	spec.Volumes = append(spec.Volumes, &VolumeSpec{
		Name:     "Hole",
		Shape:    SphereShape{Radius: 0.5},
		Position: v3.Vec{X: 3},
	})
	g := build(t, spec)

	path := filepath.Join(t.TempDir(), "world.gdml")
	if err := g.Dump(path); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	var doc gdmlFile
	if err := xml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse dump: %v", err)
	}

	if doc.Setup.World.Ref != "World" {
		t.Fatalf("world ref: %q", doc.Setup.World.Ref)
	}
	if len(doc.Structure.Volumes) != 3 {
		t.Fatalf("volumes: %d", len(doc.Structure.Volumes))
	}
	if len(doc.Solids.Subtractions) != 1 {
		t.Fatalf("subtractions: %d", len(doc.Solids.Subtractions))
	}
	sub := doc.Solids.Subtractions[0]
	if sub.Name != "World.Cube" || sub.Second.Ref != "World.Hole" {
		t.Fatalf("subtraction: %+v", sub)
	}
	// World box in mm.
	found := false
	for _, box := range doc.Solids.Boxes {
		if box.Name == "World" {
			found = true
			if box.X != 100 || box.Y != 100 || box.Z != 100 {
				t.Fatalf("world box: %+v", box)
			}
		}
	}
	if !found {
		t.Fatal("world box not emitted")
	}
	if len(doc.Materials.Materials) != 2 {
		t.Fatalf("materials: %d", len(doc.Materials.Materials))
	}
}
