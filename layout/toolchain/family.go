package toolchain

import (
	"encoding"
	"fmt"
)

// Family groups toolchains that share a linker and entry point convention.
type Family int

const (
	Other Family = iota
	GCC
	IAR
)

// String returns the string representation of Family
func (f Family) String() string {
	switch f {
	case GCC:
		return "GCC"
	case IAR:
		return "IAR"
	case Other:
		return "OTHER"
	}
	return fmt.Sprintf("Family(%d)", int(f))
}

var _ encoding.TextUnmarshaler = new(Family)

// UnmarshalText implements encoding.TextUnmarshaler for Family.
func (f *Family) UnmarshalText(data []byte) error {
	switch str := string(data); str {
	case "GCC":
		*f = GCC
	case "IAR":
		*f = IAR
	case "OTHER":
		*f = Other
	default:
		return fmt.Errorf(`illegal: "%s" is not a valid Family`, str)
	}
	return nil
}
