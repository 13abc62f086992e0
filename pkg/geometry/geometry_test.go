package geometry

import (
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/niess/calzone/pkg/kernel"
)

// worldSpec is a 10x10x10 cm air box holding a 2x2x2 cm water cube at
// (3, 0, 0) cm.
func worldSpec() *VolumeSpec {
	return &VolumeSpec{
		Name:     "World",
		Material: "G4_AIR",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 5, Y: 5, Z: 5}},
		Volumes: []*VolumeSpec{{
			Name:     "Cube",
			Material: "G4_WATER",
			Shape:    BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
			Position: v3.Vec{X: 3},
		}},
	}
}

func build(t *testing.T, spec *VolumeSpec) *Geometry {
	t.Helper()
	g, err := NewGeometry(spec)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestBuildIndexesEveryNode(t *testing.T) {
	spec := worldSpec()
	spec.Volumes = append(spec.Volumes, &VolumeSpec{
		Name:     "Ball",
		Shape:    SphereShape{Radius: 1},
		Position: v3.Vec{X: -3},
	})
	g := build(t, spec)
	paths := g.Paths()
	want := []string{"World", "World.Ball", "World.Cube"}
	if len(paths) != len(want) {
		t.Fatalf("paths: %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths: got %v want %v", paths, want)
		}
	}
}

func TestLeaseCounting(t *testing.T) {
	g := build(t, worldSpec())
	before := registeredGeometries()

	clone1 := g.Clone()
	clone2 := clone1.Clone()
	if err := clone1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Idempotent.
	if err := clone1.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if registeredGeometries() != before {
		t.Fatal("container freed while leases remain")
	}
	clone2.Close()
	if registeredGeometries() != before {
		t.Fatal("container freed while the original lease remains")
	}
	g.Close()
	if registeredGeometries() != before-1 {
		t.Fatal("container not freed after the last drop")
	}
}

func TestGeometryIDsAreDistinct(t *testing.T) {
	a := build(t, worldSpec())
	b := build(t, worldSpec())
	if a.ID() == b.ID() {
		t.Fatalf("duplicate ids: %d", a.ID())
	}
	if b.ID() < a.ID() {
		t.Fatal("ids not monotonic")
	}
}

func TestComputeBoxRoundTrip(t *testing.T) {
	g := build(t, worldSpec())
	cube, err := g.Volume("World.Cube")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer cube.Close()

	box, err := cube.ComputeBox("World.Cube")
	if err != nil {
		t.Fatalf("ComputeBox: %v", err)
	}
	want := [6]float64{-1, 1, -1, 1, -1, 1}
	for i := range want {
		if math.Abs(box[i]-want[i]) > 1e-9 {
			t.Fatalf("own-frame box: got %v want %v", box, want)
		}
	}
}

func TestComputeBoxInWorldFrame(t *testing.T) {
	g := build(t, worldSpec())
	cube, err := g.Volume("World.Cube")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer cube.Close()

	box, err := cube.ComputeBox("")
	if err != nil {
		t.Fatalf("ComputeBox: %v", err)
	}
	want := [6]float64{2, 4, -1, 1, -1, 1}
	for i := range want {
		if math.Abs(box[i]-want[i]) > 1e-9 {
			t.Fatalf("world-frame box: got %v want %v", box, want)
		}
	}
}

func TestTransformComposition(t *testing.T) {
	spec := &VolumeSpec{
		Name:     "A",
		Material: "G4_AIR",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 20, Y: 20, Z: 20}},
		Volumes: []*VolumeSpec{{
			Name:     "B",
			Shape:    BoxShape{HalfSize: v3.Vec{X: 8, Y: 8, Z: 8}},
			Position: v3.Vec{X: 5, Y: 1},
			Rotation: [3]float64{0, 0, 90},
			Volumes: []*VolumeSpec{{
				Name:     "C",
				Shape:    BoxShape{HalfSize: v3.Vec{X: 2, Y: 2, Z: 2}},
				Position: v3.Vec{X: 3, Z: -1},
			}},
		}},
	}
	g := build(t, spec)
	c, err := g.Volume("A.B.C")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer c.Close()
	b, err := g.Volume("A.B")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer b.Close()

	ca, err := c.ComputeTransform("A")
	if err != nil {
		t.Fatalf("ComputeTransform: %v", err)
	}
	cb, err := c.ComputeTransform("A.B")
	if err != nil {
		t.Fatalf("ComputeTransform: %v", err)
	}
	ba, err := b.ComputeTransform("A")
	if err != nil {
		t.Fatalf("ComputeTransform: %v", err)
	}
	composed := ba.Compose(cb)
	for _, p := range []v3.Vec{{}, {X: 1, Y: 2, Z: 3}, {X: -7, Y: 0.5, Z: 4}} {
		got := composed.Apply(p)
		want := ca.Apply(p)
		if got.Sub(want).Length() > 1e-9 {
			t.Fatalf("composition mismatch at %v: %v != %v", p, got, want)
		}
	}
}

func TestComputeOrigin(t *testing.T) {
	g := build(t, worldSpec())
	cube, err := g.Volume("World.Cube")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer cube.Close()

	origin, err := cube.ComputeOrigin("")
	if err != nil {
		t.Fatalf("ComputeOrigin: %v", err)
	}
	if origin.Sub(v3.Vec{X: 3}).Length() > 1e-9 {
		t.Fatalf("world-frame origin: %v", origin)
	}
	self, err := cube.ComputeOrigin("World.Cube")
	if err != nil {
		t.Fatalf("ComputeOrigin: %v", err)
	}
	if self != (v3.Vec{}) {
		t.Fatalf("own-frame origin: %v", self)
	}
}

func TestUnknownVolume(t *testing.T) {
	g := build(t, worldSpec())
	if _, err := g.Volume("World.Nonexistent"); !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	cube, _ := g.Volume("World.Cube")
	defer cube.Close()
	box, err := cube.ComputeBox("Nonexistent")
	if !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if box != ([6]float64{}) {
		t.Fatalf("box not zeroed on error: %v", box)
	}
}

func TestSiblingFrameDoesNotContain(t *testing.T) {
	spec := worldSpec()
	spec.Volumes = append(spec.Volumes, &VolumeSpec{
		Name:     "Other",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
		Position: v3.Vec{X: -3},
	})
	g := build(t, spec)
	cube, _ := g.Volume("World.Cube")
	defer cube.Close()

	_, err := cube.ComputeTransform("World.Other")
	if !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if got := err.Error(); !contains(got, "does not contain") {
		t.Fatalf("message: %q", got)
	}
}

func TestInsideWithDaughters(t *testing.T) {
	g := build(t, worldSpec())
	world := g.Root()
	defer world.Close()

	p := v3.Vec{X: 3}
	side, err := world.Inside(p, "World", true)
	if err != nil {
		t.Fatalf("Inside: %v", err)
	}
	if side != kernel.SideOutside {
		t.Fatalf("daughter interior: got %v want outside", side)
	}
	side, err = world.Inside(p, "World", false)
	if err != nil {
		t.Fatalf("Inside: %v", err)
	}
	if side != kernel.SideInside {
		t.Fatalf("without daughters: got %v want inside", side)
	}
	// A point on the daughter's boundary is on-surface.
	side, err = world.Inside(v3.Vec{X: 2}, "World", true)
	if err != nil {
		t.Fatalf("Inside: %v", err)
	}
	if side != kernel.SideSurface {
		t.Fatalf("daughter boundary: got %v want surface", side)
	}
}

func TestEnvelopeFitsChildren(t *testing.T) {
	spec := &VolumeSpec{
		Name:     "Envelope",
		Material: "G4_AIR",
		Shape:    EnvelopeShape{Shape: EnvelopeBox},
		Volumes: []*VolumeSpec{
			{
				Name:  "Near",
				Shape: BoxShape{HalfSize: v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}},
			},
			{
				Name:     "Far",
				Shape:    BoxShape{HalfSize: v3.Vec{X: 0.5, Y: 0.5, Z: 0.5}},
				Position: v3.Vec{X: 5},
			},
		},
	}
	g := build(t, spec)
	env := g.Root()
	defer env.Close()

	box, err := env.ComputeBox("Envelope")
	if err != nil {
		t.Fatalf("ComputeBox: %v", err)
	}
	want := [6]float64{-0.5, 5.5, -0.5, 0.5, -0.5, 0.5}
	for i := range want {
		if math.Abs(box[i]-want[i]) > 1e-9 {
			t.Fatalf("envelope box: got %v want %v", box, want)
		}
	}
	if env.SolidType() != "Displaced" {
		t.Fatalf("off-center envelope solid: %q", env.SolidType())
	}
}

func TestSubtractionPair(t *testing.T) {
	spec := &VolumeSpec{
		Name:     "World",
		Material: "G4_AIR",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 10, Y: 10, Z: 10}},
		Subtract: [][2]string{{"A", "B"}},
		Volumes: []*VolumeSpec{
			{
				Name:  "A",
				Shape: BoxShape{HalfSize: v3.Vec{X: 2, Y: 2, Z: 2}},
			},
			{
				Name:  "B",
				Shape: BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
			},
		},
	}
	g := build(t, spec)
	a, err := g.Volume("World.A")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer a.Close()

	if a.SolidType() != "Subtraction" {
		t.Fatalf("solid type: %q", a.SolidType())
	}
	got := a.ComputeVolume(true)
	want := 64.0 - 8.0
	if math.Abs(got-want)/want > 0.05 {
		t.Fatalf("subtraction volume: got %v want about %v", got, want)
	}
}

func TestSubtractionBetweenDisplacedSiblings(t *testing.T) {
	// B sits at (3, 0, 0) relative to A's center at (1, 0, 0): the hole
	// lies at +2 cm along x in A's own frame.
	spec := &VolumeSpec{
		Name:     "World",
		Material: "G4_AIR",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 10, Y: 10, Z: 10}},
		Subtract: [][2]string{{"A", "B"}},
		Volumes: []*VolumeSpec{
			{
				Name:     "A",
				Shape:    BoxShape{HalfSize: v3.Vec{X: 3, Y: 3, Z: 3}},
				Position: v3.Vec{X: 1},
			},
			{
				Name:     "B",
				Shape:    BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
				Position: v3.Vec{X: 3},
			},
		},
	}
	g := build(t, spec)
	a, err := g.Volume("World.A")
	if err != nil {
		t.Fatalf("Volume: %v", err)
	}
	defer a.Close()

	side, err := a.Inside(v3.Vec{X: 2}, "World.A", false)
	if err != nil {
		t.Fatalf("Inside: %v", err)
	}
	if side != kernel.SideOutside {
		t.Fatalf("hole center: got %v want outside", side)
	}
	side, err = a.Inside(v3.Vec{X: -2}, "World.A", false)
	if err != nil {
		t.Fatalf("Inside: %v", err)
	}
	if side != kernel.SideInside {
		t.Fatalf("away from hole: got %v want inside", side)
	}
}

func TestComputeVolumeWithoutDaughters(t *testing.T) {
	g := build(t, worldSpec())
	world := g.Root()
	defer world.Close()

	with := world.ComputeVolume(true)
	if math.Abs(with-1000) > 1e-6 {
		t.Fatalf("volume with daughters: %v", with)
	}
	without := world.ComputeVolume(false)
	if math.Abs(without-992) > 1e-6 {
		t.Fatalf("volume without daughters: %v", without)
	}
}

func TestComputeSurface(t *testing.T) {
	g := build(t, worldSpec())
	world := g.Root()
	defer world.Close()
	if got := world.ComputeSurface(); math.Abs(got-600) > 1e-6 {
		t.Fatalf("surface: got %v want 600", got)
	}
}

func TestDescribe(t *testing.T) {
	g := build(t, worldSpec())
	world := g.Root()
	defer world.Close()

	desc := world.Describe()
	if desc.Material != "G4_AIR" || desc.Solid != "Box" || desc.Mother != "" {
		t.Fatalf("world description: %+v", desc)
	}
	if len(desc.Daughters) != 1 || desc.Daughters[0].Name != "Cube" {
		t.Fatalf("daughters: %+v", desc.Daughters)
	}

	cube, _ := g.Volume("World.Cube")
	defer cube.Close()
	desc = cube.Describe()
	if desc.Mother != "World" || desc.Material != "G4_WATER" {
		t.Fatalf("cube description: %+v", desc)
	}
}

func TestFind(t *testing.T) {
	g := build(t, worldSpec())
	cube, err := g.Find("Cube")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	defer cube.Close()
	if cube.Path() != "World.Cube" {
		t.Fatalf("path: %q", cube.Path())
	}
	if _, err := g.Find("Missing"); !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestFindAmbiguous(t *testing.T) {
	spec := worldSpec()
	spec.Volumes[0].Volumes = []*VolumeSpec{{
		Name:  "Inner",
		Shape: BoxShape{HalfSize: v3.Vec{X: 0.2, Y: 0.2, Z: 0.2}},
		Volumes: []*VolumeSpec{{
			Name:  "Cube",
			Shape: BoxShape{HalfSize: v3.Vec{X: 0.1, Y: 0.1, Z: 0.1}},
		}},
	}}
	g := build(t, spec)
	if _, err := g.Find("Cube"); !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestRoles(t *testing.T) {
	spec := worldSpec()
	spec.Volumes[0].Roles = RoleSpec{Deposits: "record"}
	g := build(t, spec)
	cube, _ := g.Volume("World.Cube")
	defer cube.Close()

	if got := cube.GetRoles(); got.Deposits != kernel.ActionRecord {
		t.Fatalf("built roles: %+v", got)
	}
	if cube.Detector() == nil {
		t.Fatal("no detector attached")
	}
	if err := cube.SetRoles(kernel.Roles{Ingoing: kernel.ActionCatch}); err != nil {
		t.Fatalf("SetRoles: %v", err)
	}
	if got := cube.GetRoles(); got.Ingoing != kernel.ActionCatch || got.Deposits != kernel.ActionIgnore {
		t.Fatalf("updated roles: %+v", got)
	}
	cube.ClearRoles()
	if !cube.GetRoles().IsNone() || cube.Detector() != nil {
		t.Fatal("roles not cleared")
	}
}

func TestUndefinedMaterial(t *testing.T) {
	spec := worldSpec()
	spec.Volumes[0].Material = "Unobtainium"
	_, err := NewGeometry(spec)
	if !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if got := err.Error(); !contains(got, "undefined 'Unobtainium' material") {
		t.Fatalf("message: %q", got)
	}
}

func TestCheck(t *testing.T) {
	g := build(t, worldSpec())
	if err := g.Check(200); err != nil {
		t.Fatalf("Check: %v", err)
	}

	overlapping := worldSpec()
	overlapping.Volumes = append(overlapping.Volumes, &VolumeSpec{
		Name:     "Clash",
		Shape:    BoxShape{HalfSize: v3.Vec{X: 1, Y: 1, Z: 1}},
		Position: v3.Vec{X: 2.5},
	})
	bad := build(t, overlapping)
	err := bad.Check(500)
	if !IsValueError(err) {
		t.Fatalf("expected ValueError, got %v", err)
	}
	if got := err.Error(); !contains(got, "overlapping") {
		t.Fatalf("message: %q", got)
	}
}

func TestMeshExtraction(t *testing.T) {
	g := build(t, worldSpec())
	cube, _ := g.Volume("World.Cube")
	defer cube.Close()
	mesh := cube.Mesh(24)
	if mesh.IsEmpty() {
		t.Fatal("empty mesh")
	}
	if mesh.SolidName != "World.Cube" {
		t.Fatalf("solid name: %q", mesh.SolidName)
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
