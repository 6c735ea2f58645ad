package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/q0jt/go-applayout/layout/manifest"
)

const testCatalog = `{
  "targets": {"K64F": {"device_name": "MK64FN1M0xxx12"}},
  "devices": {"MK64FN1M0xxx12": {"memory": {
    "IROM1": {"start": "0x400", "size": "0x10000"},
    "IRAM1": {"start": "0x20000000", "size": "0x30000"}
  }}}
}`

const testProfile = `{
  "GCC_ARM": {"common": ["-Os"], "c": [], "cxx": [], "asm": [], "ld": ["-Wl,--gc-sections"]},
  "ARM": {"common": ["-O3"], "c": [], "cxx": [], "asm": [], "ld": []}
}`

type fixture struct {
	dir     string
	catalog string
	layout  string
	profile string
}

func newFixture(t *testing.T, layoutText string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:     dir,
		catalog: filepath.Join(dir, "index.json"),
		layout:  filepath.Join(dir, "layout.txt"),
		profile: filepath.Join(dir, "default.json"),
	}
	for path, content := range map[string]string{
		f.catalog: testCatalog,
		f.layout:  layoutText,
		f.profile: testProfile,
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRegions(t *testing.T) {
	f := newFixture(t, "boot,0x1000\nmain,*\nnv,0x1000\n")
	code, out, errOut := runCmd(t, "regions", "-catalog", f.catalog, "-target", "K64F", "-layout", f.layout)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	want := "-DBOOT_ADDR=0x400\n-DBOOT_SIZE=0x1000\n-DMAIN_ADDR=0x1400\n-DMAIN_SIZE=0xe000\n-DNV_ADDR=0xf400\n-DNV_SIZE=0x1000\n"
	if out != want {
		t.Errorf("got\n%s\nwant\n%s", out, want)
	}
}

func TestProfiles(t *testing.T) {
	f := newFixture(t, "boot,0x1000\nmain,*\nnv,0x1000\n")
	out := filepath.Join(f.dir, "manifest.json")
	code, _, errOut := runCmd(t, "profiles", "-catalog", f.catalog, "-target", "K64F", "-layout", f.layout,
		"-toolchain", "GCC_ARM", "-profile", f.profile, "-name", "blinky", "-entry", "boot", "-entry", "main", "-o", out)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := manifest.Unmarshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 || artifacts[0].Name != "blinky_boot" || artifacts[1].Name != "blinky_main" {
		t.Fatalf("unexpected artifacts %+v", artifacts)
	}
	ld := artifacts[0].Profile.LD
	if ld[0] != "-Wl,--gc-sections" || ld[len(ld)-1] != "-Wl,--defsym=_Z11entry_pointv=_Z4bootv" {
		t.Errorf("boot ld: %q", ld)
	}
}

func TestProfilesSteeringFiles(t *testing.T) {
	f := newFixture(t, "boot,0x1000\nmain,*\n")
	build := filepath.Join(f.dir, "BUILD")
	code, out, errOut := runCmd(t, "profiles", "-catalog", f.catalog, "-target", "K64F", "-layout", f.layout,
		"-toolchain", "ARM", "-profile", f.profile, "-build-dir", build)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, `"app_main"`) {
		t.Errorf("manifest missing app_main:\n%s", out)
	}
	b, err := os.ReadFile(filepath.Join(build, ".edit__Z11entry_pointv_$Super$$main.steering"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "RENAME _Z11entry_pointv AS $Super$$main\n" {
		t.Errorf("steering file: %q", b)
	}
}

func TestProfilesErrors(t *testing.T) {
	f := newFixture(t, "boot,0x1000\nmain,*\nnv,*\n")
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"two wildcards", []string{"-toolchain", "GCC_ARM", "-target", "K64F"}, exitError, "multiple wildcard"},
		{"unknown target", []string{"-toolchain", "GCC_ARM", "-target", "LPC1768"}, exitError, "unknown target"},
		{"unknown toolchain", []string{"-toolchain", "GCC", "-target", "K64F"}, exitError, "unknown toolchain"},
		{"no toolchain", []string{"-target", "K64F"}, exitUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"profiles", "-catalog", f.catalog, "-layout", f.layout}, tt.args...)
			code, _, errOut := runCmd(t, args...)
			if code != tt.code {
				t.Fatalf("exit %d, want %d: %s", code, tt.code, errOut)
			}
			if !strings.Contains(errOut, tt.msg) {
				t.Errorf("stderr %q does not mention %q", errOut, tt.msg)
			}
		})
	}
}

func TestTargets(t *testing.T) {
	f := newFixture(t, "")
	code, out, errOut := runCmd(t, "targets", "-catalog", f.catalog)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "K64F\t0x400\t0x10000\n" {
		t.Errorf("got %q", out)
	}
}

func TestMergeSplit(t *testing.T) {
	f := newFixture(t, "boot,0x1000\nmain,*\nnv,0x1000\n")
	boot := filepath.Join(f.dir, "boot.bin")
	if err := os.WriteFile(boot, []byte{0xde, 0xad, 0xbe, 0xef}, 0644); err != nil {
		t.Fatal(err)
	}
	combined := filepath.Join(f.dir, "combined.hex")
	common := []string{"-catalog", f.catalog, "-target", "K64F", "-layout", f.layout}

	code, _, errOut := runCmd(t, append(append([]string{"merge"}, common...), "-o", combined, "boot="+boot)...)
	if code != exitOK {
		t.Fatalf("merge exit %d: %s", code, errOut)
	}
	code, out, errOut := runCmd(t, append(append([]string{"split"}, common...), combined)...)
	if code != exitOK {
		t.Fatalf("split exit %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %q", out)
	}
	if !strings.HasPrefix(lines[0], "boot\t0x400\t0x1000\t") || !strings.HasSuffix(lines[0], "used") {
		t.Errorf("boot: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "empty") || !strings.HasSuffix(lines[2], "empty") {
		t.Errorf("main and nv should be empty: %q", lines[1:])
	}
}

func TestWriteOutputRemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.hex")
	errDisk := errors.New("disk full")
	err := writeOutput(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, ":10000000"); err != nil {
			return err
		}
		return errDisk
	})
	if !errors.Is(err, errDisk) {
		t.Fatalf("expected write error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial output left behind: %v", err)
	}

	if err := writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, ":00000001FF\n")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(path); err != nil || string(b) != ":00000001FF\n" {
		t.Errorf("got %q, %v", b, err)
	}
}

func TestUsage(t *testing.T) {
	if code, _, _ := runCmd(t); code != exitUsage {
		t.Errorf("no args: exit %d", code)
	}
	if code, _, errOut := runCmd(t, "link"); code != exitUsage || !strings.Contains(errOut, "unknown command") {
		t.Errorf("unknown command: exit %d, %q", code, errOut)
	}
	if code, _, _ := runCmd(t, "regions", "-catalog", "x.json"); code != exitUsage {
		t.Errorf("missing flags: exit %d", code)
	}
}
