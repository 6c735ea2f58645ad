// Package image combines the images linked for each region into a single
// flashable file and takes combined files apart again.
package image

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"slices"

	"github.com/marcinbor85/gohex"

	"github.com/q0jt/go-applayout/layout"
)

var (
	ErrOutOfRegion  = errors.New("image data outside region")
	ErrAddressRange = errors.New("address beyond 32 bits")
)

// Format of a region image.
type Format int

const (
	FormatBinary Format = iota
	FormatHex
)

// Part is the image linked for one region. Binary parts are placed at the
// start of their region, hex parts at the addresses they carry.
type Part struct {
	Region string
	Data   []byte
	Format Format
}

// Image is a sparse view of rom.
type Image struct {
	mem *gohex.Memory
}

// Merge places every part in its region. A region may be left out, in which
// case it stays empty.
func Merge(regions []layout.Region, parts []Part) (*Image, error) {
	mem := gohex.NewMemory()
	for _, part := range parts {
		region, err := layout.FindRegion(regions, part.Region)
		if err != nil {
			return nil, err
		}
		if !fits32(region.Addr, region.Size) {
			return nil, fmt.Errorf("%w: %s ends at 0x%x", ErrAddressRange, region.Name, region.End())
		}
		segments, err := partSegments(part, region)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part.Region, err)
		}
		for _, seg := range segments {
			if len(seg.Data) == 0 {
				continue
			}
			end := uint64(seg.Address) + uint64(len(seg.Data))
			if uint64(seg.Address) < region.Addr || end > region.End() {
				return nil, fmt.Errorf("%w: %s [0x%x, 0x%x) not in [0x%x, 0x%x)", ErrOutOfRegion,
					region.Name, seg.Address, end, region.Addr, region.End())
			}
			// gohex keeps segment ends in 32 bits, so data may not touch 2^32.
			if end == 1<<32 {
				return nil, fmt.Errorf("%w: %s data reaches 0x%x", ErrAddressRange, region.Name, end)
			}
			if err := mem.AddBinary(seg.Address, seg.Data); err != nil {
				return nil, fmt.Errorf("%s: %w", part.Region, err)
			}
		}
	}
	return &Image{mem: mem}, nil
}

func partSegments(part Part, region layout.Region) ([]gohex.DataSegment, error) {
	switch part.Format {
	case FormatBinary:
		return []gohex.DataSegment{{Address: uint32(region.Addr), Data: part.Data}}, nil
	case FormatHex:
		mem := gohex.NewMemory()
		if err := mem.ParseIntelHex(bytes.NewReader(part.Data)); err != nil {
			return nil, err
		}
		return mem.GetDataSegments(), nil
	}
	return nil, fmt.Errorf("unknown image format %d", part.Format)
}

// WriteHex writes the image as Intel HEX.
func (i *Image) WriteHex(w io.Writer) error {
	return i.mem.DumpIntelHex(w, 16)
}

// Binary returns the contents of rom, with pad filling the gaps.
func (i *Image) Binary(rom layout.Window, pad byte) ([]byte, error) {
	if !fits32(rom.Start, rom.Size) {
		return nil, fmt.Errorf("%w: rom ends at 0x%x", ErrAddressRange, rom.End())
	}
	return i.mem.ToBinary(uint32(rom.Start), uint32(rom.Size), pad), nil
}

// Section is the content of one region of a combined image.
type Section struct {
	Region layout.Region
	Data   []byte
	CRC    uint32
	// Empty is set when the image holds nothing for the region.
	Empty bool
}

// Split reads a combined Intel HEX image and cuts it into regions. Unused
// bytes read as 0xff. Data outside every region is an error.
func Split(r io.Reader, regions []layout.Region) ([]Section, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	segments := mem.GetDataSegments()
	for _, seg := range segments {
		end := uint64(seg.Address) + uint64(len(seg.Data))
		if !covered(uint64(seg.Address), end, regions) {
			return nil, fmt.Errorf("%w: [0x%x, 0x%x)", ErrOutOfRegion, seg.Address, end)
		}
	}
	sections := make([]Section, 0, len(regions))
	for _, region := range regions {
		if !fits32(region.Addr, region.Size) {
			return nil, fmt.Errorf("%w: %s ends at 0x%x", ErrAddressRange, region.Name, region.End())
		}
		data := mem.ToBinary(uint32(region.Addr), uint32(region.Size), 0xFF)
		sections = append(sections, Section{
			Region: region,
			Data:   data,
			CRC:    crc32.ChecksumIEEE(data),
			Empty:  !overlaps(region, segments),
		})
	}
	return sections, nil
}

// fits32 reports whether [addr, addr+size) lies in the 32-bit address space.
// The range may end exactly at 2^32.
func fits32(addr, size uint64) bool {
	return addr <= math.MaxUint32 && size <= math.MaxUint32 && addr+size <= 1<<32
}

func covered(addr, end uint64, regions []layout.Region) bool {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b layout.Region) int {
		return cmp.Compare(a.Addr, b.Addr)
	})
	cur := addr
	for _, r := range sorted {
		if cur >= end {
			break
		}
		if r.Addr <= cur && cur < r.End() {
			cur = r.End()
		}
	}
	return cur >= end
}

func overlaps(region layout.Region, segments []gohex.DataSegment) bool {
	for _, seg := range segments {
		end := uint64(seg.Address) + uint64(len(seg.Data))
		if uint64(seg.Address) < region.End() && end > region.Addr {
			return true
		}
	}
	return false
}
