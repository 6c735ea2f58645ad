package layout

import (
	"fmt"
	"strings"
)

// Pair is a define name and its numeric value.
type Pair struct {
	Name  string
	Value uint64
}

// Define renders the pair as a preprocessor flag.
func (p Pair) Define() string {
	return "-D" + p.Name + "=" + fmtHex(p.Value)
}

func fmtHex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

// ToNamedPairs returns the address and size of every region as
// <NAME>_ADDR and <NAME>_SIZE, in region order.
func ToNamedPairs(regions []Region) []Pair {
	pairs := make([]Pair, 0, 2*len(regions))
	for _, r := range regions {
		name := strings.ToUpper(r.Name)
		pairs = append(pairs,
			Pair{Name: name + "_ADDR", Value: r.Addr},
			Pair{Name: name + "_SIZE", Value: r.Size},
		)
	}
	return pairs
}

// ToDefines is ToNamedPairs rendered as -D flags.
func ToDefines(regions []Region) []string {
	pairs := ToNamedPairs(regions)
	defines := make([]string, len(pairs))
	for i, p := range pairs {
		defines[i] = p.Define()
	}
	return defines
}

// LinkerPairs tells the linker where the image for region lives,
// relative to the start of rom.
func LinkerPairs(region Region, romStart uint64) []Pair {
	return []Pair{
		{Name: "MBED_APP_OFFSET", Value: region.Addr - romStart},
		{Name: "MBED_APP_SIZE", Value: region.Size},
	}
}
