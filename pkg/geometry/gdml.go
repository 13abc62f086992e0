package geometry

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/niess/calzone/pkg/kernel"
	"github.com/niess/calzone/pkg/materials"
)

// GDML element types. Lengths are millimetres, angles degrees, matching
// the format's defaults.

type gdmlFile struct {
	XMLName   xml.Name      `xml:"gdml"`
	Define    gdmlDefine    `xml:"define"`
	Materials gdmlMaterials `xml:"materials"`
	Solids    gdmlSolids    `xml:"solids"`
	Structure gdmlStructure `xml:"structure"`
	Setup     gdmlSetup     `xml:"setup"`
}

type gdmlDefine struct {
	Positions []gdmlPosition `xml:"position"`
}

type gdmlPosition struct {
	Name string  `xml:"name,attr,omitempty"`
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
	Z    float64 `xml:"z,attr"`
}

type gdmlMaterials struct {
	Materials []gdmlMaterial `xml:"material"`
}

type gdmlMaterial struct {
	Name    string      `xml:"name,attr"`
	Z       float64     `xml:"Z,attr"`
	Density gdmlDensity `xml:"D"`
	Atom    gdmlAtom    `xml:"atom"`
}

type gdmlDensity struct {
	Value float64 `xml:"value,attr"`
}

type gdmlAtom struct {
	Value float64 `xml:"value,attr"`
}

type gdmlSolids struct {
	Boxes        []gdmlBox         `xml:"box"`
	Tubes        []gdmlTube        `xml:"tube"`
	Orbs         []gdmlOrb         `xml:"orb"`
	Spheres      []gdmlSphere      `xml:"sphere"`
	Tessellated  []gdmlTessellated `xml:"tessellated"`
	Subtractions []gdmlSubtraction `xml:"subtraction"`
}

type gdmlBox struct {
	Name string  `xml:"name,attr"`
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
	Z    float64 `xml:"z,attr"`
}

type gdmlTube struct {
	Name     string  `xml:"name,attr"`
	Rmin     float64 `xml:"rmin,attr"`
	Rmax     float64 `xml:"rmax,attr"`
	Z        float64 `xml:"z,attr"`
	StartPhi float64 `xml:"startphi,attr"`
	DeltaPhi float64 `xml:"deltaphi,attr"`
	AUnit    string  `xml:"aunit,attr"`
}

type gdmlOrb struct {
	Name string  `xml:"name,attr"`
	R    float64 `xml:"r,attr"`
}

type gdmlSphere struct {
	Name       string  `xml:"name,attr"`
	Rmin       float64 `xml:"rmin,attr"`
	Rmax       float64 `xml:"rmax,attr"`
	StartPhi   float64 `xml:"startphi,attr"`
	DeltaPhi   float64 `xml:"deltaphi,attr"`
	StartTheta float64 `xml:"starttheta,attr"`
	DeltaTheta float64 `xml:"deltatheta,attr"`
	AUnit      string  `xml:"aunit,attr"`
}

type gdmlTessellated struct {
	Name   string         `xml:"name,attr"`
	Facets []gdmlTriangle `xml:"triangular"`
}

type gdmlTriangle struct {
	V1   string `xml:"vertex1,attr"`
	V2   string `xml:"vertex2,attr"`
	V3   string `xml:"vertex3,attr"`
	Type string `xml:"type,attr"`
}

type gdmlSubtraction struct {
	Name     string       `xml:"name,attr"`
	First    gdmlRef      `xml:"first"`
	Second   gdmlRef      `xml:"second"`
	Position gdmlPosition `xml:"position"`
}

type gdmlRef struct {
	Ref string `xml:"ref,attr"`
}

type gdmlStructure struct {
	Volumes []gdmlVolume `xml:"volume"`
}

type gdmlVolume struct {
	Name        string        `xml:"name,attr"`
	MaterialRef gdmlRef       `xml:"materialref"`
	SolidRef    gdmlRef       `xml:"solidref"`
	PhysVols    []gdmlPhysVol `xml:"physvol"`
}

type gdmlPhysVol struct {
	VolumeRef gdmlRef       `xml:"volumeref"`
	Position  *gdmlPosition `xml:"position,omitempty"`
}

type gdmlSetup struct {
	Name    string  `xml:"name,attr"`
	Version string  `xml:"version,attr"`
	World   gdmlRef `xml:"world"`
}

// Dump serializes the built geometry to a GDML file.
func (g *Geometry) Dump(path string) error {
	doc := &gdmlFile{
		Setup: gdmlSetup{Name: "Default", Version: "1.0", World: gdmlRef{Ref: g.data.world.Name()}},
	}

	seen := make(map[string]*materials.Material)
	var walk func(node *kernel.Placement)
	walk = func(node *kernel.Placement) {
		logical := node.Logical()
		seen[logical.Material().Name] = logical.Material()
		emitSolid(doc, node.Name(), logical.Solid())

		volume := gdmlVolume{
			Name:        node.Name(),
			MaterialRef: gdmlRef{Ref: logical.Material().Name},
			SolidRef:    gdmlRef{Ref: node.Name()},
		}
		for _, d := range logical.Daughters() {
			pv := gdmlPhysVol{VolumeRef: gdmlRef{Ref: d.Name()}}
			if t := d.Transform(); t.IsTranslated() {
				trans := t.NetTranslation()
				pv.Position = &gdmlPosition{X: trans.X, Y: trans.Y, Z: trans.Z}
			}
			volume.PhysVols = append(volume.PhysVols, pv)
			walk(d)
		}
		doc.Structure.Volumes = append(doc.Structure.Volumes, volume)
	}
	walk(g.data.world)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		m := seen[name]
		doc.Materials.Materials = append(doc.Materials.Materials, gdmlMaterial{
			Name:    m.Name,
			Z:       m.Z,
			Density: gdmlDensity{Value: m.Density},
			Atom:    gdmlAtom{Value: m.A},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), out...), 0o644)
}

// emitSolid appends a solid description under the given name, recursing
// into boolean and displaced wrappers.
func emitSolid(doc *gdmlFile, name string, solid kernel.Solid) {
	const deg = 180 / math.Pi

	if inner, _, ok := kernel.Displacement(solid); ok {
		// The wrapper shares the volume's name; emit the inner shape
		// under it and keep the displacement on the placement side.
		emitSolid(doc, name, inner)
		return
	}
	if base, hole, rel, ok := kernel.SubtractionOperands(solid); ok {
		baseName := name + "_base"
		emitSolid(doc, baseName, base)
		trans := rel.NetTranslation()
		doc.Solids.Subtractions = append(doc.Solids.Subtractions, gdmlSubtraction{
			Name:     name,
			First:    gdmlRef{Ref: baseName},
			Second:   gdmlRef{Ref: hole.Name()},
			Position: gdmlPosition{X: trans.X, Y: trans.Y, Z: trans.Z},
		})
		return
	}
	if half, ok := kernel.BoxHalfSize(solid); ok {
		doc.Solids.Boxes = append(doc.Solids.Boxes, gdmlBox{
			Name: name, X: 2 * half.X, Y: 2 * half.Y, Z: 2 * half.Z,
		})
		return
	}
	if rmin, rmax, halfZ, phi0, dphi, ok := kernel.TubsParams(solid); ok {
		doc.Solids.Tubes = append(doc.Solids.Tubes, gdmlTube{
			Name: name, Rmin: rmin, Rmax: rmax, Z: 2 * halfZ,
			StartPhi: phi0 * deg, DeltaPhi: math.Min(dphi, 2*math.Pi) * deg,
			AUnit: "deg",
		})
		return
	}
	if r, ok := kernel.OrbRadius(solid); ok {
		doc.Solids.Orbs = append(doc.Solids.Orbs, gdmlOrb{Name: name, R: r})
		return
	}
	if rmin, rmax, phi0, dphi, theta0, theta1, ok := kernel.SphereParams(solid); ok {
		doc.Solids.Spheres = append(doc.Solids.Spheres, gdmlSphere{
			Name: name, Rmin: rmin, Rmax: rmax,
			StartPhi: phi0 * deg, DeltaPhi: math.Min(dphi, 2*math.Pi) * deg,
			StartTheta: theta0 * deg, DeltaTheta: (theta1 - theta0) * deg,
			AUnit: "deg",
		})
		return
	}
	if mesh, ok := solid.(interface{ Facets() []float64 }); ok {
		emitTessellated(doc, name, mesh.Facets())
		return
	}
	// Fall back on the solid's bounding box.
	bb := solid.Extent()
	size := bb.Max.Sub(bb.Min)
	doc.Solids.Boxes = append(doc.Solids.Boxes, gdmlBox{
		Name: name, X: size.X, Y: size.Y, Z: size.Z,
	})
}

func emitTessellated(doc *gdmlFile, name string, facets []float64) {
	prefix := strings.ReplaceAll(name, ".", "_")
	tess := gdmlTessellated{Name: name}
	for i := 0; i*9 < len(facets); i++ {
		f := facets[i*9 : i*9+9]
		var refs [3]string
		for j := 0; j < 3; j++ {
			ref := fmt.Sprintf("%s_v%d_%d", prefix, i, j)
			doc.Define.Positions = append(doc.Define.Positions, gdmlPosition{
				Name: ref, X: f[j*3], Y: f[j*3+1], Z: f[j*3+2],
			})
			refs[j] = ref
		}
		tess.Facets = append(tess.Facets, gdmlTriangle{
			V1: refs[0], V2: refs[1], V3: refs[2], Type: "ABSOLUTE",
		})
	}
	doc.Solids.Tessellated = append(doc.Solids.Tessellated, tess)
}
