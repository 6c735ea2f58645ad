package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// Profile holds the flags handed to each stage of a toolchain.
type Profile struct {
	C      []string `json:"c"`
	CXX    []string `json:"cxx"`
	LD     []string `json:"ld"`
	Common []string `json:"common"`
	ASM    []string `json:"asm"`
}

// Clone returns a copy of p that shares no backing arrays with it.
func (p Profile) Clone() Profile {
	return Profile{
		C:      slices.Clone(p.C),
		CXX:    slices.Clone(p.CXX),
		LD:     slices.Clone(p.LD),
		Common: slices.Clone(p.Common),
		ASM:    slices.Clone(p.ASM),
	}
}

// Merge appends the flags of o to p.
func (p *Profile) Merge(o Profile) {
	p.C = append(p.C, o.C...)
	p.CXX = append(p.CXX, o.CXX...)
	p.LD = append(p.LD, o.LD...)
	p.Common = append(p.Common, o.Common...)
	p.ASM = append(p.ASM, o.ASM...)
}

// profileGroups are the flag groups every toolchain entry must define.
var profileGroups = []string{"common", "c", "cxx", "asm", "ld"}

// LoadProfile reads build profiles and merges, in order, the flags each
// one defines for toolchain. A profile document maps toolchain names to
// flag groups, and each entry carries all five groups, empty or not:
//
//	{"GCC_ARM": {"common": ["-Os"], "c": [], "cxx": [], "asm": [],
//	  "ld": ["-Wl,--gc-sections"]}}
func LoadProfile(toolchain string, sources ...io.Reader) (Profile, error) {
	var profile Profile
	for i, src := range sources {
		var doc map[string]map[string][]string
		if err := json.NewDecoder(src).Decode(&doc); err != nil {
			return Profile{}, fmt.Errorf("profile %d: %w", i, err)
		}
		groups, ok := doc[toolchain]
		if !ok {
			return Profile{}, errorf(ErrUnsupportedProfile, "profile %d: %s", i, toolchain)
		}
		for _, g := range profileGroups {
			if _, ok := groups[g]; !ok {
				return Profile{}, errorf(ErrUnsupportedProfile, "profile %d: %s has no %q flags", i, toolchain, g)
			}
		}
		profile.Merge(Profile{
			C:      groups["c"],
			CXX:    groups["cxx"],
			LD:     groups["ld"],
			Common: groups["common"],
			ASM:    groups["asm"],
		})
	}
	return profile.Clone(), nil
}
