package schematic

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DebugInfo returns a one-look summary of the schematic: metadata, bounds,
// per-region palette and content counts.
func (s *Schematic) DebugInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schematic %q", s.Name)
	if s.Author != "" {
		fmt.Fprintf(&b, " by %s", s.Author)
	}
	if v := s.Version(); v != "" {
		fmt.Fprintf(&b, " (mc %s, data version %d)", v, s.DataVersion)
	}
	b.WriteByte('\n')

	if bmin, bmax, ok := s.Bounds(); ok {
		w, h, l := s.Dimensions()
		fmt.Fprintf(&b, "bounds (%d,%d,%d)..(%d,%d,%d), %dx%dx%d\n",
			bmin[0], bmin[1], bmin[2], bmax[0], bmax[1], bmax[2], w, h, l)
	}

	for r := range s.Regions() {
		w, h, l := r.AbsSize()
		fmt.Fprintf(&b, "region %q: %dx%dx%d at (%d,%d,%d), %d blocks, palette %d, %d block entities, %d entities\n",
			r.Name(), w, h, l, r.origin[0], r.origin[1], r.origin[2],
			r.BlockCount(), r.Palette().Size(), len(r.blockEntities), len(r.entities))
	}
	if n := len(s.entities); n > 0 {
		fmt.Fprintf(&b, "%d world entities\n", n)
	}
	if n := len(s.defRegions); n > 0 {
		fmt.Fprintf(&b, "%d definition regions\n", n)
	}
	for _, d := range s.diagnostics {
		fmt.Fprintf(&b, "warning: %s\n", d)
	}
	return b.String()
}

// Print writes an ASCII layout of the Main region to w, one Y slice at a
// time. Each cell shows the first letter of the block's path name, '.' for
// empty.
func (s *Schematic) Print(w io.Writer) error {
	r := s.Main()
	if r == nil {
		_, err := fmt.Fprintln(w, "(no main region)")
		return err
	}
	bmin, bmax := r.Bounds()
	for y := bmin[1]; y <= bmax[1]; y++ {
		if _, err := fmt.Fprintf(w, "y=%d\n", y); err != nil {
			return err
		}
		for z := bmin[2]; z <= bmax[2]; z++ {
			var line strings.Builder
			for x := bmin[0]; x <= bmax[0]; x++ {
				line.WriteByte(cellRune(r, x, y, z))
			}
			if _, err := fmt.Fprintln(w, line.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellRune(r *Region, x, y, z int) byte {
	s := r.BlockAt(x, y, z)
	if s == nil {
		return '.'
	}
	name := s.Name
	if i := strings.IndexByte(name, ':'); i != -1 {
		name = name[i+1:]
	}
	if name == "" {
		return '?'
	}
	return name[0]
}

// jsonRegion is the JSON shape of a region in DumpJSON output.
type jsonRegion struct {
	Name          string           `json:"name"`
	Origin        [3]int           `json:"origin"`
	Size          [3]int           `json:"size"`
	Palette       []string         `json:"palette"`
	BlockCount    int              `json:"block_count"`
	BlockEntities []map[string]any `json:"block_entities,omitempty"`
	EntityCount   int              `json:"entity_count"`
}

// DumpJSON writes a JSON description of the schematic: metadata, regions
// with canonical palette strings, and diagnostics.
func (s *Schematic) DumpJSON(w io.Writer) error {
	type dump struct {
		Name        string       `json:"name"`
		Author      string       `json:"author,omitempty"`
		Description string       `json:"description,omitempty"`
		DataVersion int          `json:"data_version,omitempty"`
		MCVersion   string       `json:"mc_version,omitempty"`
		Regions     []jsonRegion `json:"regions"`
		Entities    int          `json:"entities,omitempty"`
		Warnings    []string     `json:"warnings,omitempty"`
	}

	out := dump{
		Name:        s.Name,
		Author:      s.Author,
		Description: s.Description,
		DataVersion: s.DataVersion,
		MCVersion:   s.Version(),
		Entities:    len(s.entities),
	}
	for r := range s.Regions() {
		jr := jsonRegion{
			Name:        r.Name(),
			Origin:      r.Origin(),
			Size:        r.Size(),
			BlockCount:  r.BlockCount(),
			EntityCount: len(r.entities),
		}
		for _, b := range r.Palette().Blocks() {
			jr.Palette = append(jr.Palette, b.String())
		}
		for pos, be := range r.BlockEntities() {
			jr.BlockEntities = append(jr.BlockEntities, map[string]any{
				"id":  be.ID,
				"pos": pos,
			})
		}
		out.Regions = append(out.Regions, jr)
	}
	for _, d := range s.diagnostics {
		out.Warnings = append(out.Warnings, d.String())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
