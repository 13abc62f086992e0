package geometry

import (
	"sort"
	"unicode"

	"go.uber.org/multierr"
)

// Validate checks a description tree before assembly: volume names, sibling
// uniqueness and the declared subtraction and overlap pairs. All findings
// are reported, combined into one error.
func Validate(v *VolumeSpec) error {
	return validateVolume(v, "")
}

func validateVolume(v *VolumeSpec, prefix string) error {
	var err error
	path := joinPath(prefix, v.Name)

	if !validName(v.Name) {
		err = multierr.Append(err, valueErrorf(
			"bad volume name ('%s' is not capitalised alphanumeric)", v.Name))
	}
	if v.Shape == nil {
		err = multierr.Append(err, valueErrorf("bad '%s' volume (missing shape)", path))
	}
	if prefix == "" && v.Material == "" {
		err = multierr.Append(err, valueErrorf("bad '%s' volume (missing material)", path))
	}

	seen := make(map[string]bool, len(v.Volumes))
	for _, d := range v.Volumes {
		if seen[d.Name] {
			err = multierr.Append(err, valueErrorf(
				"bad '%s' volume (duplicated '%s' daughter)", path, d.Name))
		}
		seen[d.Name] = true
	}

	bases := make(map[string]bool, len(v.Subtract))
	for _, pair := range v.Subtract {
		if pair[0] != pair[1] {
			bases[pair[0]] = true
		}
	}
	overlapping := make(map[string]bool, 2*len(v.Overlap))
	for _, pair := range v.Overlap {
		overlapping[pair[0]] = true
		overlapping[pair[1]] = true
	}
	for _, pair := range v.Subtract {
		err = multierr.Append(err, validatePair(v, path, pair, seen))
		if pair[0] == pair[1] {
			continue
		}
		if bases[pair[1]] {
			err = multierr.Append(err, valueErrorf(
				"bad '%s' volume (subtracting the subtracted '%s' volume)", path, pair[1]))
		}
		for _, name := range pair {
			if overlapping[name] {
				err = multierr.Append(err, valueErrorf(
					"bad '%s' volume (subtracting the overlapping '%s' volume)", path, name))
			}
		}
	}
	for _, pair := range v.Overlap {
		err = multierr.Append(err, validatePair(v, path, pair, seen))
	}

	for _, d := range v.Volumes {
		err = multierr.Append(err, validateVolume(d, path))
	}
	return err
}

func validatePair(v *VolumeSpec, path string, pair [2]string, daughters map[string]bool) error {
	var err error
	if pair[0] == pair[1] {
		err = multierr.Append(err, valueErrorf(
			"bad '%s' volume ('%s' subtracted from itself)", path, pair[0]))
	}
	for _, name := range pair {
		if !daughters[name] {
			err = multierr.Append(err, valueErrorf(
				"bad '%s' volume (undefined '%s' daughter)", path, name))
		}
	}
	return err
}

// validName accepts capitalised alphanumeric names.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// normalizePairs orders and deduplicates declared overlap pairs, so patch
// application is deterministic.
func normalizePairs(pairs [][2]string) [][2]string {
	out := make([][2]string, 0, len(pairs))
	seen := make(map[[2]string]bool, len(pairs))
	for _, p := range pairs {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
