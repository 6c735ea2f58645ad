package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/q0jt/go-applayout/layout"
	"github.com/q0jt/go-applayout/layout/catalog"
	"github.com/q0jt/go-applayout/layout/image"
	"github.com/q0jt/go-applayout/layout/manifest"
	"github.com/q0jt/go-applayout/layout/toolchain"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

type command struct {
	name string
	run  func(env *env, args []string) error
}

var commands = []command{
	{"targets", runTargets},
	{"regions", runRegions},
	{"profiles", runProfiles},
	{"merge", runMerge},
	{"split", runSplit},
}

type env struct {
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	e := &env{stdout: stdout, stderr: stderr}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(e, args[1:])
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
			return exitUsage
		}
		fmt.Fprintf(stderr, "applayout %s: %v\n", c.name, err)
		return exitError
	}
	fmt.Fprintf(stderr, "applayout: unknown command %q\n", args[0])
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	fmt.Fprintf(w, "usage: applayout {%s} [flags]\n", strings.Join(names, "|"))
}

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// layoutFlags are shared by every command that works on a resolved layout.
type layoutFlags struct {
	catalog string
	target  string
	layout  string
	verbose bool
}

func (f *layoutFlags) register(fs *flag.FlagSet, withLayout bool) {
	fs.StringVar(&f.catalog, "catalog", "", "device catalog (.pkl or .json)")
	fs.BoolVar(&f.verbose, "v", false, "log debug output")
	if withLayout {
		fs.StringVar(&f.target, "target", "", "target name")
		fs.StringVar(&f.layout, "layout", "", "layout file")
	}
}

func (e *env) parse(fs *flag.FlagSet, f *layoutFlags, args []string, withLayout bool) error {
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	e.log = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
	missing := f.catalog == ""
	if withLayout {
		missing = missing || f.target == "" || f.layout == ""
	}
	if missing {
		fs.Usage()
		return errUsage
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if filepath.Ext(path) == ".pkl" {
		return catalog.LoadPkl(context.Background(), path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.LoadJSON(f)
}

func loadSpecs(path string) ([]layout.RegionSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	specs, err := layout.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// resolve loads the catalog and layout named by f and places the regions in
// the target's rom.
func (f *layoutFlags) resolve() ([]layout.Region, layout.Window, error) {
	cat, err := loadCatalog(f.catalog)
	if err != nil {
		return nil, layout.Window{}, err
	}
	specs, err := loadSpecs(f.layout)
	if err != nil {
		return nil, layout.Window{}, err
	}
	rom, err := cat.ROMWindow(f.target)
	if err != nil {
		return nil, layout.Window{}, err
	}
	regions, err := layout.Resolve(specs, rom)
	if err != nil {
		return nil, layout.Window{}, err
	}
	return regions, rom, nil
}

func runTargets(e *env, args []string) error {
	var f layoutFlags
	fs := flag.NewFlagSet("targets", flag.ContinueOnError)
	f.register(fs, false)
	if err := e.parse(fs, &f, args, false); err != nil {
		return err
	}
	cat, err := loadCatalog(f.catalog)
	if err != nil {
		return err
	}
	for _, name := range cat.Targets() {
		rom, err := cat.ROMWindow(name)
		if err != nil {
			fmt.Fprintf(e.stdout, "%s\t-\n", name)
			e.log.Debug("no rom window", "target", name, "err", err)
			continue
		}
		fmt.Fprintf(e.stdout, "%s\t0x%x\t0x%x\n", name, rom.Start, rom.Size)
	}
	return nil
}

func runRegions(e *env, args []string) error {
	var f layoutFlags
	fs := flag.NewFlagSet("regions", flag.ContinueOnError)
	f.register(fs, true)
	pairs := fs.Bool("pairs", false, "print NAME VALUE pairs instead of -D flags")
	if err := e.parse(fs, &f, args, true); err != nil {
		return err
	}
	regions, _, err := f.resolve()
	if err != nil {
		return err
	}
	if *pairs {
		for _, p := range layout.ToNamedPairs(regions) {
			fmt.Fprintf(e.stdout, "%s\t0x%x\n", p.Name, p.Value)
		}
		return nil
	}
	for _, d := range layout.ToDefines(regions) {
		fmt.Fprintln(e.stdout, d)
	}
	return nil
}

func runProfiles(e *env, args []string) error {
	var (
		f        layoutFlags
		profiles listFlag
		entries  listFlag
	)
	fs := flag.NewFlagSet("profiles", flag.ContinueOnError)
	f.register(fs, true)
	tcName := fs.String("toolchain", "", "toolchain ("+strings.Join(toolchain.Names(), ", ")+")")
	name := fs.String("name", "app", "artifact name prefix")
	buildDir := fs.String("build-dir", ".", "build directory")
	out := fs.String("o", "", "manifest output (default stdout)")
	fs.Var(&profiles, "profile", "build profile json, may be repeated")
	fs.Var(&entries, "entry", "region to build an image for, may be repeated (default all)")
	if err := e.parse(fs, &f, args, true); err != nil {
		return err
	}
	if *tcName == "" {
		fs.Usage()
		return errUsage
	}
	tc, err := toolchain.Lookup(*tcName)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(f.catalog)
	if err != nil {
		return err
	}
	specs, err := loadSpecs(f.layout)
	if err != nil {
		return err
	}
	base, err := loadProfiles(tc.Name(), profiles)
	if err != nil {
		return err
	}

	b := &layout.Builder{
		Catalog:   cat,
		Toolchain: tc,
		BuildDir:  *buildDir,
		Entries:   entries,
		Logger:    e.log,
	}
	artifacts, err := b.Build(specs, f.target, base, *name)
	if err != nil {
		return err
	}
	if tc.Family() == toolchain.Other {
		if err := writeSteeringFiles(*buildDir, artifacts); err != nil {
			return err
		}
	}
	m, err := manifest.Marshal(artifacts)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = fmt.Fprintln(e.stdout, string(m))
		return err
	}
	e.log.Info("wrote manifest", "path", *out, "artifacts", len(artifacts))
	return os.WriteFile(*out, m, 0644)
}

func loadProfiles(tc string, paths []string) (layout.Profile, error) {
	readers := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return layout.Profile{}, err
		}
		defer f.Close()
		readers = append(readers, f)
	}
	return layout.LoadProfile(tc, readers...)
}

func writeSteeringFiles(buildDir string, artifacts []layout.ArtifactSpec) error {
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return err
	}
	for _, a := range artifacts {
		if a.Redirect == nil {
			continue
		}
		path := toolchain.SteeringPath(a.Redirect.From, a.Redirect.To, buildDir)
		if err := os.WriteFile(path, []byte(toolchain.SteeringFile(a.Redirect.From, a.Redirect.To)), 0644); err != nil {
			return err
		}
	}
	return nil
}

func runMerge(e *env, args []string) error {
	var f layoutFlags
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	f.register(fs, true)
	out := fs.String("o", "", "output file (.hex or .bin)")
	pad := fs.Uint("pad", 0xff, "fill byte for binary output")
	if err := e.parse(fs, &f, args, true); err != nil {
		return err
	}
	if *out == "" || fs.NArg() == 0 || *pad > 0xff {
		fs.Usage()
		return errUsage
	}
	regions, rom, err := f.resolve()
	if err != nil {
		return err
	}
	parts, err := readParts(fs.Args())
	if err != nil {
		return err
	}
	img, err := image.Merge(regions, parts)
	if err != nil {
		return err
	}
	write := img.WriteHex
	if filepath.Ext(*out) == ".bin" {
		b, err := img.Binary(rom, byte(*pad))
		if err != nil {
			return err
		}
		write = func(w io.Writer) error {
			_, err := w.Write(b)
			return err
		}
	}
	if err := writeOutput(*out, write); err != nil {
		return err
	}
	e.log.Info("merged", "path", *out, "parts", len(parts))
	return nil
}

// writeOutput creates path and fills it with write. On failure the partial
// file is removed.
func writeOutput(path string, write func(io.Writer) error) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	err = write(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func readParts(args []string) ([]image.Part, error) {
	parts := make([]image.Part, 0, len(args))
	for _, arg := range args {
		region, path, ok := strings.Cut(arg, "=")
		if !ok || region == "" || path == "" {
			return nil, fmt.Errorf("%q is not REGION=IMAGE", arg)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		format := image.FormatBinary
		if filepath.Ext(path) == ".hex" {
			format = image.FormatHex
		}
		parts = append(parts, image.Part{Region: region, Data: b, Format: format})
	}
	return parts, nil
}

func runSplit(e *env, args []string) error {
	var f layoutFlags
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	f.register(fs, true)
	dir := fs.String("d", "", "write each region to DIR/<region>.bin")
	if err := e.parse(fs, &f, args, true); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	regions, _, err := f.resolve()
	if err != nil {
		return err
	}
	r, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer r.Close()
	sections, err := image.Split(r, regions)
	if err != nil {
		return err
	}
	for _, s := range sections {
		state := "used"
		if s.Empty {
			state = "empty"
		}
		fmt.Fprintf(e.stdout, "%s\t0x%x\t0x%x\t%08x\t%s\n",
			s.Region.Name, s.Region.Addr, s.Region.Size, s.CRC, state)
		if *dir == "" || s.Empty {
			continue
		}
		if err := os.WriteFile(filepath.Join(*dir, s.Region.Name+".bin"), s.Data, 0644); err != nil {
			return err
		}
	}
	return nil
}
