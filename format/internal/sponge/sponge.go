// Package sponge implements the Sponge Schematic .schem codec, versions 1
// through 3. All versions are big-endian NBT inside gzip with a single
// region; v1/v2 store block indices as a VarInt byte stream, v3 as a
// non-straddling packed long array.
package sponge

import (
	"fmt"
	"maps"
	"sort"

	"github.com/schem-at/nucleation/block"
	"github.com/schem-at/nucleation/schematic"
)

// parsePalette inverts a Sponge palette compound (state string → index)
// into an index-ordered state list.
func parsePalette(palette map[string]int32) ([]block.State, error) {
	states := make([]block.State, len(palette))
	seen := make([]bool, len(palette))
	for stateStr, idx := range palette {
		if idx < 0 || int(idx) >= len(states) {
			return nil, fmt.Errorf("palette index %d out of range for %d entries", idx, len(states))
		}
		if seen[idx] {
			return nil, fmt.Errorf("duplicate palette index %d", idx)
		}
		s, _, err := block.Parse(stateStr)
		if err != nil {
			return nil, fmt.Errorf("palette entry %q: %w", stateStr, err)
		}
		states[idx] = *s
		seen[idx] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("palette index %d missing", i)
		}
	}
	return states, nil
}

// grid is the flattened single-region view every Sponge version writes.
type grid struct {
	width, height, length int
	origin                [3]int
	indices               []uint32
	palette               *block.Palette
}

// flatten renders the schematic's bounding box into a single palette and
// index array, air-first.
func flatten(s *schematic.Schematic) (*grid, error) {
	bmin, bmax, ok := s.Bounds()
	if !ok {
		return nil, fmt.Errorf("schematic has no regions")
	}
	w := bmax[0] - bmin[0] + 1
	h := bmax[1] - bmin[1] + 1
	l := bmax[2] - bmin[2] + 1

	g := &grid{
		width:   w,
		height:  h,
		length:  l,
		origin:  bmin,
		indices: make([]uint32, w*h*l),
		palette: block.NewPaletteWith(block.Air),
	}
	for y := range h {
		for z := range l {
			for x := range w {
				b := s.BlockAt(bmin[0]+x, bmin[1]+y, bmin[2]+z)
				if b == nil {
					continue
				}
				g.indices[y*w*l+z*w+x] = uint32(g.palette.Add(*b))
			}
		}
	}
	return g, nil
}

// paletteMap renders the grid's palette into Sponge's string → index form.
func (g *grid) paletteMap() map[string]int32 {
	out := make(map[string]int32, g.palette.Size())
	for i, b := range g.palette.Blocks() {
		out[b.String()] = int32(i)
	}
	return out
}

// applyGrid loads a decoded grid into a fresh Main region of s.
func applyGrid(s *schematic.Schematic, g *grid, states []block.State) error {
	size := [3]int{g.width, g.height, g.length}
	reg, err := schematic.NewRegion(schematic.MainRegion, g.origin, size)
	if err != nil {
		return err
	}
	if err := reg.LoadPalette(states); err != nil {
		return err
	}
	for y := range g.height {
		for z := range g.length {
			for x := range g.width {
				idx := g.indices[y*g.width*g.length+z*g.width+x]
				if int(idx) >= len(states) {
					return fmt.Errorf("block index %d out of palette range %d", idx, len(states))
				}
				if idx != 0 {
					reg.SetIndex(g.origin[0]+x, g.origin[1]+y, g.origin[2]+z, idx)
				}
			}
		}
	}
	return s.AddRegion(reg)
}

// readBlockEntities attaches decoded block entities to the Main region.
// Positions on the wire are grid-local.
func readBlockEntities(s *schematic.Schematic, origin [3]int, entries []map[string]any) {
	reg := s.Main()
	for _, beData := range entries {
		be := &schematic.BlockEntity{Data: make(map[string]any)}
		var pos [3]int
		if p, ok := beData["Pos"].([]int32); ok && len(p) >= 3 {
			pos = [3]int{int(p[0]), int(p[1]), int(p[2])}
		} else if p, ok := beData["Pos"].([]any); ok && len(p) >= 3 {
			for i := range 3 {
				if v, ok := p[i].(int32); ok {
					pos[i] = int(v)
				}
			}
		}
		if id, ok := beData["Id"].(string); ok {
			be.ID = id
		}
		for k, v := range beData {
			switch k {
			case "Pos", "Id":
			default:
				be.Data[k] = v
			}
		}
		reg.SetBlockEntity(origin[0]+pos[0], origin[1]+pos[1], origin[2]+pos[2], be)
	}
}

// writeBlockEntities renders every region's block entities to wire form,
// sorted by position. Orphaned block entities (empty cell) are dropped.
func writeBlockEntities(s *schematic.Schematic, origin [3]int) []map[string]any {
	type entry struct {
		pos [3]int
		be  *schematic.BlockEntity
	}
	var entries []entry
	for reg := range s.Regions() {
		for pos, be := range reg.BlockEntities() {
			if reg.BlockAt(pos[0], pos[1], pos[2]) == nil {
				continue
			}
			local := [3]int{pos[0] - origin[0], pos[1] - origin[1], pos[2] - origin[2]}
			entries = append(entries, entry{pos: local, be: be})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].pos, entries[j].pos
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		return a[0] < b[0]
	})

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		data := make(map[string]any, len(e.be.Data)+2)
		data["Pos"] = []int32{int32(e.pos[0]), int32(e.pos[1]), int32(e.pos[2])}
		data["Id"] = e.be.ID
		maps.Copy(data, e.be.Data)
		out = append(out, data)
	}
	return out
}

// allEntities collects schematic-level and region-level entities; Sponge
// stores them in one absolute-coordinate list.
func allEntities(s *schematic.Schematic) []*schematic.Entity {
	out := s.Entities()
	for reg := range s.Regions() {
		out = append(out, reg.Entities()...)
	}
	return out
}
