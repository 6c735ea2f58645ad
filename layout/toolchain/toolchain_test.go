package toolchain

import (
	"errors"
	"slices"
	"testing"
)

func TestAdapters(t *testing.T) {
	tests := []struct {
		name     string
		family   Family
		mangle   string
		define   string
		redirect string
	}{
		{"GCC_ARM", GCC, "_Z4bootv", "-DMBED_APP_SIZE=0x1000", "-Wl,--defsym=a=b"},
		{"ARM", Other, "_Z4bootv", `--predefine="-DMBED_APP_SIZE=0x1000"`, "--edit=build/.edit_a_b.steering"},
		{"ARMC6", Other, "_Z4bootv", `--predefine="-DMBED_APP_SIZE=0x1000"`, "--edit=build/.edit_a_b.steering"},
		{"uARM", Other, "_Z4bootv", `--predefine="-DMBED_APP_SIZE=0x1000"`, "--edit=build/.edit_a_b.steering"},
		{"IAR", IAR, "__boot", "--config_def MBED_APP_SIZE=0x1000", "--redirect a=b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Lookup(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if a.Name() != tt.name {
				t.Errorf("Name: got %s", a.Name())
			}
			if a.Family() != tt.family {
				t.Errorf("Family: got %s, want %s", a.Family(), tt.family)
			}
			if got := a.Mangle("boot"); got != tt.mangle {
				t.Errorf("Mangle: got %q, want %q", got, tt.mangle)
			}
			if got := a.LinkerDefine("MBED_APP_SIZE", 0x1000); got != tt.define {
				t.Errorf("LinkerDefine: got %q, want %q", got, tt.define)
			}
			if got := a.RedirectSymbol("a", "b", "build"); got != tt.redirect {
				t.Errorf("RedirectSymbol: got %q, want %q", got, tt.redirect)
			}
		})
	}
}

func TestMangleEntryPoint(t *testing.T) {
	a, _ := Lookup("GCC_ARM")
	if got := a.Mangle("entry_point"); got != "_Z11entry_pointv" {
		t.Errorf("got %q", got)
	}
}

func TestSteeringFile(t *testing.T) {
	if got := SteeringFile("_Z11entry_pointv", "$Super$$main"); got != "RENAME _Z11entry_pointv AS $Super$$main\n" {
		t.Errorf("got %q", got)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("GCC"); !errors.Is(err, ErrUnknownToolchain) {
		t.Errorf("expected ErrUnknownToolchain, got %v", err)
	}
}

func TestNames(t *testing.T) {
	want := []string{"ARM", "ARMC6", "GCC_ARM", "IAR", "uARM"}
	if got := Names(); !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFamilyText(t *testing.T) {
	for _, f := range []Family{GCC, IAR, Other} {
		var got Family
		if err := got.UnmarshalText([]byte(f.String())); err != nil {
			t.Fatal(err)
		}
		if got != f {
			t.Errorf("got %s, want %s", got, f)
		}
	}
	var f Family
	if err := f.UnmarshalText([]byte("ARMCC")); err == nil {
		t.Error("expected error")
	}
}
