// Package materials provides the lookup-by-name material registry consumed
// by the geometry builder. Materials are advisory bookkeeping for the
// transport kernel; only the name and bulk density matter here.
package materials

import (
	"fmt"
	"sync"
)

// Material describes a bulk material.
type Material struct {
	Name    string  `json:"name"`
	Density float64 `json:"density"` // g/cm3
	Z       float64 `json:"z"`       // effective atomic number
	A       float64 `json:"a"`       // effective molar mass, g/mol
}

// Registry resolves material names. Lookup returns nil for unknown names.
type Registry interface {
	Lookup(name string) *Material
}

// Table is an in-memory Registry. The zero value is not usable; call New.
type Table struct {
	mu        sync.RWMutex
	materials map[string]*Material
}

// New returns an empty material table.
func New() *Table {
	return &Table{materials: make(map[string]*Material)}
}

// Add registers a material. Redefining a name with different properties is
// an error; redefining it identically is a no-op.
func (t *Table) Add(m *Material) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.materials[m.Name]; ok {
		if *prev != *m {
			return fmt.Errorf("materials: conflicting definitions for '%s'", m.Name)
		}
		return nil
	}
	t.materials[m.Name] = m
	return nil
}

// Lookup returns the material with the given name, or nil.
func (t *Table) Lookup(name string) *Material {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.materials[name]
}

// Standard returns a table pre-loaded with a few common materials, using
// NIST-style names.
func Standard() *Table {
	t := New()
	for _, m := range []*Material{
		{Name: "G4_AIR", Density: 1.205e-3, Z: 7.37, A: 14.77},
		{Name: "G4_WATER", Density: 1.0, Z: 7.42, A: 14.33},
		{Name: "G4_Si", Density: 2.33, Z: 14, A: 28.09},
		{Name: "G4_Pb", Density: 11.35, Z: 82, A: 207.2},
		{Name: "G4_CALCIUM_CARBONATE", Density: 2.8, Z: 12.57, A: 25.03},
		{Name: "StandardRock", Density: 2.65, Z: 11, A: 22},
	} {
		_ = t.Add(m) // fresh table, no conflicts possible
	}
	return t
}
