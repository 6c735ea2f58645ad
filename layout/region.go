// Package layout splits a rom window into named application regions and
// derives the defines and per-region build profiles used to link one image
// per region.
package layout

import (
	"strconv"
	"strings"
)

const wildcard = "*"

// RegionSpec is one line of a layout file before addresses are assigned.
// When Wildcard is set Size is meaningless and the region takes whatever
// rom is left over.
type RegionSpec struct {
	Name     string
	Size     uint64
	Wildcard bool
}

// Region is a resolved span of rom.
type Region struct {
	Name string
	Addr uint64
	Size uint64
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Addr + r.Size
}

// Window is the start and size of a target's rom block.
type Window struct {
	Start uint64
	Size  uint64
}

// End returns the first address past the window.
func (w Window) End() uint64 {
	return w.Start + w.Size
}

// Parse reads a layout file. Each line holds a region name and a size,
// separated by a comma:
//
//	bootloader, 0x10000
//	main, *
//	nvstore, 4096
//
// Trailing blank lines are ignored.
func Parse(text string) ([]RegionSpec, error) {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	specs := make([]RegionSpec, 0, len(lines))
	for i, line := range lines {
		spec, err := parseLine(line, i+1)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := Validate(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func parseLine(line string, n int) (RegionSpec, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return RegionSpec{}, lineErrorf(ErrMalformedRegion, n,
			"expected 2 fields, found %d", len(fields))
	}
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return RegionSpec{}, lineErrorf(ErrMalformedRegion, n, "empty region name")
	}
	size, wild, err := parseSize(strings.TrimSpace(fields[1]))
	if err != nil {
		return RegionSpec{}, lineErrorf(ErrInvalidSize, n, "%s: %q", name, fields[1])
	}
	return RegionSpec{Name: name, Size: size, Wildcard: wild}, nil
}

func parseSize(s string) (uint64, bool, error) {
	if s == wildcard {
		return 0, true, nil
	}
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, false, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, false, err
}

// Validate reports problems in a region list that would produce a broken
// build: repeated names, names that can't become a preprocessor macro and
// explicit sizes of zero.
func Validate(specs []RegionSpec) error {
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if !isIdentifier(spec.Name) {
			return lineErrorf(ErrMalformedRegion, i+1, "%q is not a valid identifier", spec.Name)
		}
		key := strings.ToUpper(spec.Name)
		if seen[key] {
			return lineErrorf(ErrDuplicateRegion, i+1, "%s", spec.Name)
		}
		seen[key] = true
		if !spec.Wildcard && spec.Size == 0 {
			return lineErrorf(ErrInvalidSize, i+1, "%s: size is zero", spec.Name)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
