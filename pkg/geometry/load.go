package geometry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pelletier/go-toml/v2"
)

// Load reads a geometry description from a TOML or JSON file. Capitalised
// keys define daughter volumes; lower-case keys are volume properties
// (shape, material, position, rotation, roles, subtract, overlap). The
// file must define exactly one top-level volume.
func Load(path string) (*VolumeSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	switch ext := filepath.Ext(path); ext {
	case ".toml":
		err = toml.Unmarshal(raw, &doc)
	case ".json":
		err = json.Unmarshal(raw, &doc)
	default:
		return nil, valueErrorf("bad geometry file '%s' (unsupported '%s' format)", path, ext)
	}
	if err != nil {
		return nil, valueErrorf("bad geometry file '%s' (%s)", path, err)
	}

	var roots []string
	for key := range doc {
		if isVolumeKey(key) {
			roots = append(roots, key)
		}
	}
	if len(roots) != 1 {
		return nil, valueErrorf(
			"bad geometry file '%s' (expected one top volume, found %d)", path, len(roots))
	}
	body, ok := doc[roots[0]].(map[string]any)
	if !ok {
		return nil, valueErrorf("bad '%s' volume (expected a table)", roots[0])
	}
	spec, err := parseVolume(roots[0], roots[0], body)
	if err != nil {
		return nil, err
	}
	// Relative STL paths resolve against the geometry file.
	resolveSTLPaths(spec, filepath.Dir(path))
	return spec, nil
}

func isVolumeKey(key string) bool {
	for _, r := range key {
		return unicode.IsUpper(r)
	}
	return false
}

func parseVolume(name, path string, body map[string]any) (*VolumeSpec, error) {
	spec := &VolumeSpec{Name: name}

	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := body[key]
		if isVolumeKey(key) {
			daughter, ok := value.(map[string]any)
			if !ok {
				return nil, valueErrorf("bad '%s' volume (expected a table)", joinPath(path, key))
			}
			child, err := parseVolume(key, joinPath(path, key), daughter)
			if err != nil {
				return nil, err
			}
			spec.Volumes = append(spec.Volumes, child)
			continue
		}
		if err := parseProperty(spec, path, key, value); err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func parseProperty(spec *VolumeSpec, path, key string, value any) error {
	badf := func() error {
		return valueErrorf("bad '%s' volume (invalid '%s' property)", path, key)
	}
	switch key {
	case "material":
		s, ok := value.(string)
		if !ok {
			return badf()
		}
		spec.Material = s

	case "position":
		xyz, ok := asFloats(value, 3)
		if !ok {
			return badf()
		}
		spec.Position = v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}

	case "rotation":
		xyz, ok := asFloats(value, 3)
		if !ok {
			return badf()
		}
		spec.Rotation = [3]float64{xyz[0], xyz[1], xyz[2]}

	case "box":
		if spec.Shape != nil {
			return valueErrorf("bad '%s' volume (multiple shapes)", path)
		}
		if side, ok := asFloat(value); ok {
			spec.Shape = BoxShape{HalfSize: v3.Vec{X: side / 2, Y: side / 2, Z: side / 2}}
			return nil
		}
		xyz, ok := asFloats(value, 3)
		if !ok {
			return badf()
		}
		spec.Shape = BoxShape{HalfSize: v3.Vec{X: xyz[0] / 2, Y: xyz[1] / 2, Z: xyz[2] / 2}}

	case "cylinder":
		if spec.Shape != nil {
			return valueErrorf("bad '%s' volume (multiple shapes)", path)
		}
		table, ok := value.(map[string]any)
		if !ok {
			return badf()
		}
		var shape CylinderShape
		if shape.Radius, ok = asFloat(table["radius"]); !ok {
			return badf()
		}
		if shape.Length, ok = asFloat(table["length"]); !ok {
			return badf()
		}
		if raw, present := table["thickness"]; present {
			if shape.Thickness, ok = asFloat(raw); !ok {
				return badf()
			}
		}
		if raw, present := table["section"]; present {
			bounds, ok := asFloats(raw, 2)
			if !ok {
				return badf()
			}
			shape.Section = [2]float64{bounds[0], bounds[1]}
		}
		spec.Shape = shape

	case "sphere":
		if spec.Shape != nil {
			return valueErrorf("bad '%s' volume (multiple shapes)", path)
		}
		if radius, ok := asFloat(value); ok {
			spec.Shape = SphereShape{Radius: radius}
			return nil
		}
		table, ok := value.(map[string]any)
		if !ok {
			return badf()
		}
		var shape SphereShape
		if shape.Radius, ok = asFloat(table["radius"]); !ok {
			return badf()
		}
		if raw, present := table["thickness"]; present {
			if shape.Thickness, ok = asFloat(raw); !ok {
				return badf()
			}
		}
		for keyword, dest := range map[string]*[2]float64{
			"azimuth": &shape.Azimuth, "zenith": &shape.Zenith,
		} {
			if raw, present := table[keyword]; present {
				bounds, ok := asFloats(raw, 2)
				if !ok {
					return badf()
				}
				*dest = [2]float64{bounds[0], bounds[1]}
			}
		}
		spec.Shape = shape

	case "envelope":
		if spec.Shape != nil {
			return valueErrorf("bad '%s' volume (multiple shapes)", path)
		}
		shape := EnvelopeShape{Safety: DefaultSafety}
		switch v := value.(type) {
		case string:
			kind, ok := envelopeKind(v)
			if !ok {
				return badf()
			}
			shape.Shape = kind
		case map[string]any:
			if raw, present := v["shape"]; present {
				s, isString := raw.(string)
				kind, known := envelopeKind(s)
				if !isString || !known {
					return badf()
				}
				shape.Shape = kind
			}
			if raw, present := v["safety"]; present {
				safety, ok := asFloat(raw)
				if !ok {
					return badf()
				}
				shape.Safety = safety
			}
		default:
			return badf()
		}
		spec.Shape = shape

	case "stl":
		if spec.Shape != nil {
			return valueErrorf("bad '%s' volume (multiple shapes)", path)
		}
		file, ok := value.(string)
		if !ok {
			return badf()
		}
		spec.Shape = TessellationShape{Path: file}

	case "roles":
		table, ok := value.(map[string]any)
		if !ok {
			return badf()
		}
		for keyword, dest := range map[string]*string{
			"deposits": &spec.Roles.Deposits,
			"ingoing":  &spec.Roles.Ingoing,
			"outgoing": &spec.Roles.Outgoing,
		} {
			if raw, present := table[keyword]; present {
				s, isString := raw.(string)
				if !isString {
					return badf()
				}
				*dest = s
			}
		}

	case "subtract":
		pairs, ok := asPairs(value)
		if !ok {
			return badf()
		}
		spec.Subtract = pairs

	case "overlap":
		pairs, ok := asPairs(value)
		if !ok {
			return badf()
		}
		spec.Overlap = pairs

	default:
		return valueErrorf("bad '%s' volume (unknown '%s' property)", path, key)
	}
	return nil
}

func envelopeKind(s string) (EnvelopeKind, bool) {
	switch strings.ToLower(s) {
	case "box":
		return EnvelopeBox, true
	case "cylinder":
		return EnvelopeCylinder, true
	case "sphere":
		return EnvelopeSphere, true
	default:
		return EnvelopeBox, false
	}
}

func resolveSTLPaths(spec *VolumeSpec, dir string) {
	if shape, ok := spec.Shape.(TessellationShape); ok && shape.Path != "" {
		if !filepath.IsAbs(shape.Path) {
			shape.Path = filepath.Join(dir, shape.Path)
			spec.Shape = shape
		}
	}
	for _, d := range spec.Volumes {
		resolveSTLPaths(d, dir)
	}
}

// asFloat accepts the numeric types TOML and JSON decoders produce.
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func asFloats(value any, n int) ([]float64, bool) {
	items, ok := value.([]any)
	if !ok || len(items) != n {
		return nil, false
	}
	out := make([]float64, n)
	for i, item := range items {
		f, ok := asFloat(item)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func asPairs(value any) ([][2]string, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	pairs := make([][2]string, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, false
		}
		a, okA := pair[0].(string)
		b, okB := pair[1].(string)
		if !okA || !okB {
			return nil, false
		}
		pairs = append(pairs, [2]string{a, b})
	}
	return pairs, true
}
