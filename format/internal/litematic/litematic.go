// Package litematic implements the Litematica .litematic codec: big-endian
// NBT inside gzip, multiple named regions with signed sizes and
// tight-packed (boundary-straddling) block state indices.
package litematic

import (
	"compress/gzip"
	"fmt"
	"io"
	"maps"
	"sort"

	"github.com/oriumgames/nbt"

	"github.com/schem-at/nucleation/block"
	"github.com/schem-at/nucleation/format/internal/base"
	"github.com/schem-at/nucleation/schematic"
)

// WriteVersion is the container version emitted by Write. Versions 5
// through 7 are accepted on read.
const WriteVersion = 6

type litematicNBT struct {
	Version              int32 `nbt:"Version"`
	SubVersion           int32 `nbt:"SubVersion,omitempty"`
	MinecraftDataVersion int32 `nbt:"MinecraftDataVersion"`

	Metadata struct {
		Name          string `nbt:"Name"`
		Author        string `nbt:"Author"`
		Description   string `nbt:"Description"`
		TimeCreated   int64  `nbt:"TimeCreated"`
		TimeModified  int64  `nbt:"TimeModified"`
		RegionCount   int32  `nbt:"RegionCount"`
		TotalBlocks   int32  `nbt:"TotalBlocks"`
		TotalVolume   int32  `nbt:"TotalVolume"`
		EnclosingSize struct {
			X int32 `nbt:"x"`
			Y int32 `nbt:"y"`
			Z int32 `nbt:"z"`
		} `nbt:"EnclosingSize"`
		Extra map[string]any `nbt:"*"`
	} `nbt:"Metadata"`

	Regions map[string]regionNBT `nbt:"Regions"`

	Extra map[string]any `nbt:"*"`
}

type vec3NBT struct {
	X int32 `nbt:"x"`
	Y int32 `nbt:"y"`
	Z int32 `nbt:"z"`
}

type paletteEntryNBT struct {
	Name       string         `nbt:"Name"`
	Properties map[string]any `nbt:"Properties,omitempty"`
}

type regionNBT struct {
	Position vec3NBT `nbt:"Position"`
	Size     vec3NBT `nbt:"Size"`

	BlockStatePalette []paletteEntryNBT `nbt:"BlockStatePalette"`
	BlockStates       []int64           `nbt:"BlockStates,array"`

	TileEntities      []map[string]any `nbt:"TileEntities"`
	Entities          []map[string]any `nbt:"Entities"`
	PendingBlockTicks []map[string]any `nbt:"PendingBlockTicks,omitempty"`
	PendingFluidTicks []map[string]any `nbt:"PendingFluidTicks,omitempty"`

	Extra map[string]any `nbt:"*"`
}

// Read reads a Litematica file, keeping every region.
func Read(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer gz.Close()

	var data litematicNBT
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}

	if data.Version < 5 || data.Version > 7 {
		return nil, fmt.Errorf("unsupported litematica version %d", data.Version)
	}
	if len(data.Regions) == 0 {
		return nil, fmt.Errorf("no regions")
	}

	s := schematic.New(data.Metadata.Name)
	s.Author = data.Metadata.Author
	s.Description = data.Metadata.Description
	s.Created = data.Metadata.TimeCreated
	s.Modified = data.Metadata.TimeModified
	s.DataVersion = int(data.MinecraftDataVersion)
	s.LmVersion = int(data.Version)
	if data.SubVersion != 0 {
		s.SetExtra("SubVersion", data.SubVersion)
	}
	for k, v := range data.Extra {
		s.SetExtra(k, v)
	}
	for k, v := range data.Metadata.Extra {
		s.SetExtra("Metadata."+k, v)
	}

	// Region map order is not deterministic; sort names for a stable
	// region order.
	names := make([]string, 0, len(data.Regions))
	for name := range data.Regions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		reg, err := readRegion(name, data.Regions[name])
		if err != nil {
			return nil, fmt.Errorf("region %q: %w", name, err)
		}
		if err := s.AddRegion(reg); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func readRegion(name string, data regionNBT) (*schematic.Region, error) {
	origin := [3]int{int(data.Position.X), int(data.Position.Y), int(data.Position.Z)}
	size := [3]int{int(data.Size.X), int(data.Size.Y), int(data.Size.Z)}

	reg, err := schematic.NewRegion(name, origin, size)
	if err != nil {
		return nil, err
	}

	if len(data.BlockStatePalette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	states := make([]block.State, len(data.BlockStatePalette))
	for i, p := range data.BlockStatePalette {
		states[i] = block.State{Name: p.Name, Properties: propsFromNBT(p.Properties)}
	}
	if err := reg.LoadPalette(states); err != nil {
		return nil, err
	}

	w, h, l := reg.AbsSize()
	count := w * h * l
	bits := base.BitsPerEntry(len(states))
	indices, err := base.Unpack(data.BlockStates, bits, count, true)
	if err != nil {
		return nil, fmt.Errorf("unpack block states: %w", err)
	}

	bmin, _ := reg.Bounds()
	for y := range h {
		for z := range l {
			for x := range w {
				idx := indices[y*w*l+z*w+x]
				if int(idx) >= len(states) {
					return nil, fmt.Errorf("palette index %d out of range (palette size %d)", idx, len(states))
				}
				if idx != 0 {
					reg.SetIndex(bmin[0]+x, bmin[1]+y, bmin[2]+z, idx)
				}
			}
		}
	}

	for _, te := range data.TileEntities {
		be := &schematic.BlockEntity{Data: make(map[string]any)}
		var x, y, z int
		if v, ok := te["x"].(int32); ok {
			x = int(v)
		}
		if v, ok := te["y"].(int32); ok {
			y = int(v)
		}
		if v, ok := te["z"].(int32); ok {
			z = int(v)
		}
		if id, ok := te["id"].(string); ok {
			be.ID = id
		}
		for k, v := range te {
			switch k {
			case "x", "y", "z", "id":
			default:
				be.Data[k] = v
			}
		}
		reg.SetBlockEntity(bmin[0]+x, bmin[1]+y, bmin[2]+z, be)
	}

	for _, entData := range data.Entities {
		ent := base.EntityFromNBT(entData, "id")
		reg.AddEntity(base.ShiftEntity(ent, [3]float64{float64(bmin[0]), float64(bmin[1]), float64(bmin[2])}))
	}

	reg.PendingBlockTicks = data.PendingBlockTicks
	reg.PendingFluidTicks = data.PendingFluidTicks
	for k, v := range data.Extra {
		reg.SetExtra(k, v)
	}
	return reg, nil
}

// Write writes every region of the schematic as a Litematica file.
func Write(w io.Writer, s *schematic.Schematic) error {
	if s.RegionCount() == 0 {
		return fmt.Errorf("schematic has no regions")
	}

	data := litematicNBT{
		Version:              WriteVersion,
		MinecraftDataVersion: int32(s.DataVersion),
		Regions:              make(map[string]regionNBT, s.RegionCount()),
	}
	if sub, ok := s.Extra["SubVersion"].(int32); ok {
		data.SubVersion = sub
	}

	totalBlocks := 0
	totalVolume := 0
	for reg := range s.Regions() {
		data.Regions[reg.Name()] = writeRegion(reg)
		totalBlocks += reg.BlockCount()
		totalVolume += reg.Volume()
	}

	data.Metadata.Name = s.Name
	data.Metadata.Author = s.Author
	data.Metadata.Description = s.Description
	data.Metadata.TimeCreated = s.Created
	data.Metadata.TimeModified = s.Modified
	data.Metadata.RegionCount = int32(s.RegionCount())
	data.Metadata.TotalBlocks = int32(totalBlocks)
	data.Metadata.TotalVolume = int32(totalVolume)
	gw, gh, gl := s.Dimensions()
	data.Metadata.EnclosingSize.X = int32(gw)
	data.Metadata.EnclosingSize.Y = int32(gh)
	data.Metadata.EnclosingSize.Z = int32(gl)

	gz := gzip.NewWriter(w)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(data); err != nil {
		gz.Close()
		return fmt.Errorf("encode nbt: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	return nil
}

func writeRegion(reg *schematic.Region) regionNBT {
	// Compact on a copy so emitting never mutates the caller's palette.
	reg = reg.Clone()
	reg.CompactPalette()

	origin := reg.Origin()
	size := reg.Size()
	out := regionNBT{
		Position: vec3NBT{X: int32(origin[0]), Y: int32(origin[1]), Z: int32(origin[2])},
		Size:     vec3NBT{X: int32(size[0]), Y: int32(size[1]), Z: int32(size[2])},

		PendingBlockTicks: reg.PendingBlockTicks,
		PendingFluidTicks: reg.PendingFluidTicks,
		Extra:             reg.Extra,
	}

	palette := reg.Palette()
	out.BlockStatePalette = make([]paletteEntryNBT, palette.Size())
	for i, b := range palette.Blocks() {
		out.BlockStatePalette[i] = paletteEntryNBT{Name: b.Name, Properties: propsToNBT(b.Properties)}
	}

	w, h, l := reg.AbsSize()
	bmin, _ := reg.Bounds()
	indices := make([]uint32, w*h*l)
	for y := range h {
		for z := range l {
			for x := range w {
				idx, _ := reg.IndexAt(bmin[0]+x, bmin[1]+y, bmin[2]+z)
				indices[y*w*l+z*w+x] = idx
			}
		}
	}
	bits := base.BitsPerEntry(palette.Size())
	packed, _ := base.Pack(indices, bits, true)
	out.BlockStates = packed

	// Block entities sorted by local position for stable output; orphans
	// (cells whose block is the empty state) are dropped.
	type localBE struct {
		pos [3]int
		be  *schematic.BlockEntity
	}
	var bes []localBE
	for pos, be := range reg.BlockEntities() {
		if reg.BlockAt(pos[0], pos[1], pos[2]) == nil {
			continue
		}
		local := [3]int{pos[0] - bmin[0], pos[1] - bmin[1], pos[2] - bmin[2]}
		bes = append(bes, localBE{pos: local, be: be})
	}
	sort.Slice(bes, func(i, j int) bool {
		a, b := bes[i].pos, bes[j].pos
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		return a[0] < b[0]
	})
	for _, e := range bes {
		te := make(map[string]any, len(e.be.Data)+4)
		te["x"] = int32(e.pos[0])
		te["y"] = int32(e.pos[1])
		te["z"] = int32(e.pos[2])
		te["id"] = e.be.ID
		maps.Copy(te, e.be.Data)
		out.TileEntities = append(out.TileEntities, te)
	}

	for _, ent := range reg.Entities() {
		local := base.ShiftEntity(ent, [3]float64{-float64(bmin[0]), -float64(bmin[1]), -float64(bmin[2])})
		out.Entities = append(out.Entities, base.EntityToNBT(local, "id"))
	}
	return out
}

// propsFromNBT converts a decoded Properties compound (string values) to
// the model's string map.
func propsFromNBT(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// propsToNBT converts a property map back to an NBT compound.
func propsToNBT(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
