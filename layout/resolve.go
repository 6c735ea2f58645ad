package layout

import "math"

// Resolve assigns an absolute address to every region, in order, starting at
// the beginning of rom. The wildcard region, if any, receives the space the
// explicitly sized regions leave unused. The regions must exactly fill rom;
// an empty list resolves to no regions.
func Resolve(specs []RegionSpec, rom Window) ([]Region, error) {
	if len(specs) == 0 {
		return []Region{}, nil
	}
	wild := -1
	var allocated uint64
	for i, spec := range specs {
		if spec.Wildcard {
			if wild >= 0 {
				return nil, errorf(ErrMultipleWildcards, "%s and %s", specs[wild].Name, spec.Name)
			}
			wild = i
			continue
		}
		if spec.Size > math.MaxUint64-allocated {
			return nil, errorf(ErrLayoutOverflow, "total size exceeds address space")
		}
		allocated += spec.Size
	}

	var wildSize uint64
	switch {
	case wild >= 0 && allocated >= rom.Size:
		return nil, errorf(ErrLayoutOverflow,
			"0x%x allocated in 0x%x of rom, nothing left for %s", allocated, rom.Size, specs[wild].Name)
	case wild >= 0:
		wildSize = rom.Size - allocated
	case allocated != rom.Size:
		return nil, errorf(ErrLayoutOverflow,
			"regions total 0x%x, rom is 0x%x", allocated, rom.Size)
	}

	regions := make([]Region, 0, len(specs))
	offset := rom.Start
	for _, spec := range specs {
		size := spec.Size
		if spec.Wildcard {
			size = wildSize
		}
		regions = append(regions, Region{Name: spec.Name, Addr: offset, Size: size})
		offset += size
	}
	return regions, nil
}

// FindRegion returns the region called name.
func FindRegion(regions []Region, name string) (Region, error) {
	for _, r := range regions {
		if r.Name == name {
			return r, nil
		}
	}
	return Region{}, errorf(ErrMissingEntryRegion, "%s", name)
}
