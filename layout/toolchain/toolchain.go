// Package toolchain knows the symbol mangling and linker flag syntax of the
// supported compilers.
package toolchain

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/exp/maps"
)

var ErrUnknownToolchain = errors.New("unknown toolchain")

// Adapter renders linker directives for one toolchain.
type Adapter interface {
	Name() string
	Family() Family
	// Mangle returns the linker symbol of a C++ function `void name()`.
	Mangle(name string) string
	LinkerDefine(name string, value uint64) string
	// RedirectSymbol makes references to from resolve to to.
	RedirectSymbol(from, to, buildDir string) string
}

type gccArm struct{}

func (gccArm) Name() string   { return "GCC_ARM" }
func (gccArm) Family() Family { return GCC }

func (gccArm) Mangle(name string) string {
	return itaniumMangle(name)
}

func (gccArm) LinkerDefine(name string, value uint64) string {
	return fmt.Sprintf("-D%s=0x%x", name, value)
}

func (gccArm) RedirectSymbol(from, to, _ string) string {
	return fmt.Sprintf("-Wl,--defsym=%s=%s", from, to)
}

// Arm is the armcc / armclang family. Its linker takes symbol renames from
// a steering file rather than the command line.
type Arm struct {
	name string
}

func (a Arm) Name() string { return a.name }
func (Arm) Family() Family { return Other }

func (Arm) Mangle(name string) string {
	return itaniumMangle(name)
}

func (Arm) LinkerDefine(name string, value uint64) string {
	return fmt.Sprintf(`--predefine="-D%s=0x%x"`, name, value)
}

// RedirectSymbol points the linker at the steering file for the rename.
// The file itself is produced by SteeringFile.
func (Arm) RedirectSymbol(from, to, buildDir string) string {
	return "--edit=" + SteeringPath(from, to, buildDir)
}

// SteeringPath is where the steering file renaming from to to lives.
func SteeringPath(from, to, buildDir string) string {
	return filepath.Join(buildDir, fmt.Sprintf(".edit_%s_%s.steering", from, to))
}

// SteeringFile returns the contents of the steering file for a rename.
func SteeringFile(from, to string) string {
	return fmt.Sprintf("RENAME %s AS %s\n", from, to)
}

type iar struct{}

func (iar) Name() string   { return "IAR" }
func (iar) Family() Family { return IAR }

func (iar) Mangle(name string) string {
	return "__" + name
}

func (iar) LinkerDefine(name string, value uint64) string {
	return fmt.Sprintf("--config_def %s=0x%x", name, value)
}

func (iar) RedirectSymbol(from, to, _ string) string {
	return fmt.Sprintf("--redirect %s=%s", from, to)
}

func itaniumMangle(name string) string {
	return fmt.Sprintf("_Z%d%sv", len(name), name)
}

var adapters = map[string]Adapter{
	"GCC_ARM": gccArm{},
	"ARM":     Arm{name: "ARM"},
	"ARMC6":   Arm{name: "ARMC6"},
	"uARM":    Arm{name: "uARM"},
	"IAR":     iar{},
}

// Lookup returns the adapter for a toolchain name such as GCC_ARM.
func Lookup(name string) (Adapter, error) {
	a, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToolchain, name)
	}
	return a, nil
}

// Names lists the supported toolchains in sorted order.
func Names() []string {
	names := maps.Keys(adapters)
	slices.Sort(names)
	return names
}
