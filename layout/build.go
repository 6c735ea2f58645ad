package layout

import (
	"context"
	"log/slog"

	"github.com/q0jt/go-applayout/layout/toolchain"
)

const (
	// DefaultEntry is the region holding the application's real main.
	DefaultEntry = "main"

	customEntryPoint = "-DCUSTOM_ENTRY_POINT"
	entryPointSymbol = "entry_point"
)

// ROMLocator finds the rom block of a target.
type ROMLocator interface {
	ROMWindow(target string) (Window, error)
}

// Redirect is a symbol rename applied when linking a region's image.
type Redirect struct {
	From string
	To   string
}

// ArtifactSpec is everything needed to link the image for one region.
type ArtifactSpec struct {
	Name     string
	LoadAddr uint64
	Region   Region
	Profile  Profile
	Redirect *Redirect
}

// redirectPolicy decides which symbol a region's image must rename.
// ok is false when the image links against the real main unchanged.
type redirectPolicy func(tc toolchain.Adapter, region string) (r Redirect, ok bool)

var redirectPolicies = map[toolchain.Family]redirectPolicy{
	toolchain.IAR: func(tc toolchain.Adapter, region string) (Redirect, bool) {
		if region == DefaultEntry {
			return Redirect{}, false
		}
		return Redirect{From: "main", To: tc.Mangle(region)}, true
	},
	toolchain.GCC: func(tc toolchain.Adapter, region string) (Redirect, bool) {
		if region == DefaultEntry {
			return Redirect{From: tc.Mangle(entryPointSymbol), To: "__real_main"}, true
		}
		return Redirect{From: tc.Mangle(entryPointSymbol), To: tc.Mangle(region)}, true
	},
	toolchain.Other: func(tc toolchain.Adapter, region string) (Redirect, bool) {
		if region == DefaultEntry {
			return Redirect{From: tc.Mangle(entryPointSymbol), To: "$Super$$main"}, true
		}
		return Redirect{From: tc.Mangle(entryPointSymbol), To: tc.Mangle(region)}, true
	},
}

// Builder turns a layout into one build profile per entry region.
type Builder struct {
	Catalog   ROMLocator
	Toolchain toolchain.Adapter
	BuildDir  string
	// Entries restricts which regions get an image. When empty every region
	// does.
	Entries []string
	Logger  *slog.Logger
}

// Build resolves specs against the rom of target and returns the artifacts
// to link, in region order. base is never modified.
func (b *Builder) Build(specs []RegionSpec, target string, base Profile, artifactName string) ([]ArtifactSpec, error) {
	policy, ok := redirectPolicies[b.Toolchain.Family()]
	if !ok {
		return nil, errorf(toolchain.ErrUnknownToolchain, "%s: family %s", b.Toolchain.Name(), b.Toolchain.Family())
	}
	rom, err := b.Catalog.ROMWindow(target)
	if err != nil {
		return nil, err
	}
	regions, err := Resolve(specs, rom)
	if err != nil {
		return nil, err
	}
	log := b.logger()
	for _, r := range regions {
		log.Debug("region", "target", target, "name", r.Name,
			"addr", hex(r.Addr), "size", hex(r.Size))
	}

	entries, err := b.entries(regions)
	if err != nil {
		return nil, err
	}

	common := base.Clone()
	for _, p := range ToNamedPairs(regions) {
		common.Common = append(common.Common, p.Define())
	}
	common.Common = append(common.Common, customEntryPoint)

	artifacts := make([]ArtifactSpec, 0, len(entries))
	for _, region := range entries {
		profile := common.Clone()
		for _, p := range LinkerPairs(region, rom.Start) {
			profile.Common = append(profile.Common, p.Define())
			profile.LD = append(profile.LD, b.Toolchain.LinkerDefine(p.Name, p.Value))
		}
		spec := ArtifactSpec{
			Name:     artifactName + "_" + region.Name,
			LoadAddr: region.Addr,
			Region:   region,
		}
		if r, ok := policy(b.Toolchain, region.Name); ok {
			profile.LD = append(profile.LD, b.Toolchain.RedirectSymbol(r.From, r.To, b.BuildDir))
			spec.Redirect = &r
			log.Debug("redirect", "artifact", spec.Name, "from", r.From, "to", r.To)
		}
		spec.Profile = profile
		artifacts = append(artifacts, spec)
	}
	return artifacts, nil
}

func (b *Builder) entries(regions []Region) ([]Region, error) {
	if len(b.Entries) == 0 {
		return regions, nil
	}
	want := make(map[string]bool, len(b.Entries))
	for _, name := range b.Entries {
		if _, err := FindRegion(regions, name); err != nil {
			return nil, err
		}
		want[name] = true
	}
	var out []Region
	for _, r := range regions {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

type hex uint64

func (h hex) LogValue() slog.Value {
	return slog.StringValue(fmtHex(uint64(h)))
}
