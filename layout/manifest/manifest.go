// Package manifest records the artifacts of a layout build for the tools
// that go on to compile and link them.
package manifest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/q0jt/go-applayout/layout"
)

var ErrInvalidManifest = errors.New("invalid manifest")

// Marshal encodes artifacts as JSON. Addresses and sizes are 0x prefixed hex
// strings, since JSON numbers lose precision above 2^53:
//
//	{"artifacts": [{"name": "app_main", "load_address": "0x1400",
//	  "region": {"name": "main", "address": "0x1400", "size": "0xd000"},
//	  "profile": {"c": [], "cxx": [], "ld": [], "common": [], "asm": []},
//	  "redirect": {"from": "_Z11entry_pointv", "to": "__real_main"}}]}
func Marshal(artifacts []layout.ArtifactSpec) ([]byte, error) {
	list := make([]any, 0, len(artifacts))
	for _, a := range artifacts {
		list = append(list, artifactValue(a))
	}
	doc, err := structpb.NewStruct(map[string]any{"artifacts": list})
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(doc)
}

func artifactValue(a layout.ArtifactSpec) map[string]any {
	v := map[string]any{
		"name":         a.Name,
		"load_address": hexString(a.LoadAddr),
		"region": map[string]any{
			"name":    a.Region.Name,
			"address": hexString(a.Region.Addr),
			"size":    hexString(a.Region.Size),
		},
		"profile": map[string]any{
			"c":      flags(a.Profile.C),
			"cxx":    flags(a.Profile.CXX),
			"ld":     flags(a.Profile.LD),
			"common": flags(a.Profile.Common),
			"asm":    flags(a.Profile.ASM),
		},
	}
	if a.Redirect != nil {
		v["redirect"] = map[string]any{"from": a.Redirect.From, "to": a.Redirect.To}
	}
	return v
}

func hexString(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func hexValue(v *structpb.Value, field string) (uint64, error) {
	s := v.GetStringValue()
	digits, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return 0, fmt.Errorf("%s %q is not 0x prefixed hex", field, s)
	}
	n, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, s, err)
	}
	return n, nil
}

func flags(s []string) []any {
	out := make([]any, len(s))
	for i, f := range s {
		out[i] = f
	}
	return out
}

// Unmarshal decodes a manifest written by Marshal.
func Unmarshal(b []byte) ([]layout.ArtifactSpec, error) {
	var doc structpb.Struct
	if err := protojson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	list := doc.GetFields()["artifacts"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: no artifacts", ErrInvalidManifest)
	}
	artifacts := make([]layout.ArtifactSpec, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		a, err := artifactFrom(v.GetStructValue())
		if err != nil {
			return nil, fmt.Errorf("%w: artifact %d: %v", ErrInvalidManifest, i, err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

func artifactFrom(s *structpb.Struct) (layout.ArtifactSpec, error) {
	if s == nil {
		return layout.ArtifactSpec{}, errors.New("not an object")
	}
	f := s.GetFields()
	region := f["region"].GetStructValue()
	profile := f["profile"].GetStructValue()
	if region == nil || profile == nil {
		return layout.ArtifactSpec{}, errors.New("missing region or profile")
	}
	rf := region.GetFields()
	pf := profile.GetFields()
	load, err := hexValue(f["load_address"], "load_address")
	if err != nil {
		return layout.ArtifactSpec{}, err
	}
	addr, err := hexValue(rf["address"], "region address")
	if err != nil {
		return layout.ArtifactSpec{}, err
	}
	size, err := hexValue(rf["size"], "region size")
	if err != nil {
		return layout.ArtifactSpec{}, err
	}
	a := layout.ArtifactSpec{
		Name:     f["name"].GetStringValue(),
		LoadAddr: load,
		Region: layout.Region{
			Name: rf["name"].GetStringValue(),
			Addr: addr,
			Size: size,
		},
		Profile: layout.Profile{
			C:      stringList(pf["c"]),
			CXX:    stringList(pf["cxx"]),
			LD:     stringList(pf["ld"]),
			Common: stringList(pf["common"]),
			ASM:    stringList(pf["asm"]),
		},
	}
	if r := f["redirect"].GetStructValue(); r != nil {
		a.Redirect = &layout.Redirect{
			From: r.GetFields()["from"].GetStringValue(),
			To:   r.GetFields()["to"].GetStringValue(),
		}
	}
	return a, nil
}

func stringList(v *structpb.Value) []string {
	values := v.GetListValue().GetValues()
	out := make([]string, len(values))
	for i, s := range values {
		out[i] = s.GetStringValue()
	}
	return out
}
