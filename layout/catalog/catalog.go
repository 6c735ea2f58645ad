// Package catalog maps target names to the memory of the device they are
// built on.
package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/q0jt/go-applayout/layout"
	"github.com/q0jt/go-applayout/layout/catalog/config"
)

type memory struct {
	name string
	layout.Window
}

// Catalog is a read-only index of targets and devices. It is safe for
// concurrent use.
type Catalog struct {
	targets map[string]string
	devices map[string][]memory
}

// New indexes an evaluated catalog config.
func New(conf *config.DeviceCatalog) *Catalog {
	c := &Catalog{
		targets: map[string]string{},
		devices: map[string][]memory{},
	}
	for name, t := range conf.Targets {
		dev := ""
		if t != nil && t.DeviceName != nil {
			dev = *t.DeviceName
		}
		c.targets[name] = dev
	}
	for name, d := range conf.Devices {
		var mems []memory
		if d != nil {
			for mname, m := range d.Memory {
				if m == nil {
					continue
				}
				mems = append(mems, memory{
					name:   mname,
					Window: layout.Window{Start: uint64(m.Start), Size: uint64(m.Size)},
				})
			}
		}
		c.devices[name] = mems
	}
	return c
}

// LoadPkl evaluates a pkl catalog module.
func LoadPkl(ctx context.Context, path string) (*Catalog, error) {
	conf, err := config.LoadFromPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return New(conf), nil
}

type jsonCatalog struct {
	Targets map[string]struct {
		DeviceName string `json:"device_name"`
	} `json:"targets"`
	Devices map[string]struct {
		Memory map[string]struct {
			Start string `json:"start"`
			Size  string `json:"size"`
		} `json:"memory"`
	} `json:"devices"`
}

// LoadJSON reads a catalog in pack index form, where memory start and size
// are strings holding either 0x prefixed hex or decimal:
//
//	{
//	  "targets": {"K64F": {"device_name": "MK64FN1M0xxx12"}},
//	  "devices": {"MK64FN1M0xxx12": {"memory": {
//	    "IROM1": {"start": "0x00000000", "size": "0x100000"}}}}
//	}
func LoadJSON(r io.Reader) (*Catalog, error) {
	var doc jsonCatalog
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	conf := &config.DeviceCatalog{
		Targets: map[string]*config.Target{},
		Devices: map[string]*config.Device{},
	}
	for name, t := range doc.Targets {
		target := &config.Target{}
		if t.DeviceName != "" {
			dev := t.DeviceName
			target.DeviceName = &dev
		}
		conf.Targets[name] = target
	}
	for name, d := range doc.Devices {
		dev := &config.Device{Memory: map[string]*config.Memory{}}
		for mname, m := range d.Memory {
			start, err := parseUint32(m.Start)
			if err != nil {
				return nil, fmt.Errorf("%s %s start: %w", name, mname, err)
			}
			size, err := parseUint32(m.Size)
			if err != nil {
				return nil, fmt.Errorf("%s %s size: %w", name, mname, err)
			}
			dev.Memory[mname] = &config.Memory{Start: start, Size: size}
		}
		conf.Devices[name] = dev
	}
	return New(conf), nil
}

func parseUint32(s string) (uint32, error) {
	var (
		v   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") {
		v, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 10, 32)
	}
	return uint32(v), err
}

// Device returns the device name of target.
func (c *Catalog) Device(target string) (string, error) {
	dev, ok := c.targets[target]
	if !ok {
		return "", fmt.Errorf("%w: %s", layout.ErrUnknownTarget, target)
	}
	if dev == "" {
		return "", fmt.Errorf("%w: %s has no device name", layout.ErrUnknownTarget, target)
	}
	return dev, nil
}

// ROMWindow returns the rom block with the lowest start address of the
// device target is built on.
func (c *Catalog) ROMWindow(target string) (layout.Window, error) {
	dev, err := c.Device(target)
	if err != nil {
		return layout.Window{}, err
	}
	mems, ok := c.devices[dev]
	if !ok {
		return layout.Window{}, fmt.Errorf("%w: %s: device %s not in catalog", layout.ErrUnknownTarget, target, dev)
	}
	var roms []memory
	for _, m := range mems {
		if strings.Contains(m.name, "ROM") {
			roms = append(roms, m)
		}
	}
	if len(roms) == 0 {
		return layout.Window{}, fmt.Errorf("%w: %s (%s)", layout.ErrNoROMRegion, target, dev)
	}
	slices.SortFunc(roms, func(a, b memory) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), strings.Compare(a.name, b.name))
	})
	return roms[0].Window, nil
}

// Targets lists the catalog's targets in sorted order.
func (c *Catalog) Targets() []string {
	names := maps.Keys(c.targets)
	slices.Sort(names)
	return names
}
