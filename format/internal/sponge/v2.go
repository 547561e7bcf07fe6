package sponge

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/oriumgames/nbt"

	"github.com/schem-at/nucleation/format/internal/base"
	"github.com/schem-at/nucleation/schematic"
)

// v2NBT is the NBT structure for Sponge Schematic Version 2.
type v2NBT struct {
	Version         int32            `nbt:"Version"`
	DataVersion     int32            `nbt:"DataVersion"`
	Width           int16            `nbt:"Width"`
	Height          int16            `nbt:"Height"`
	Length          int16            `nbt:"Length"`
	Offset          []int32          `nbt:"Offset,array,omitempty"`
	Metadata        map[string]any   `nbt:"Metadata,omitempty"`
	PaletteMax      int32            `nbt:"PaletteMax"`
	Palette         map[string]int32 `nbt:"Palette"`
	BlockData       []byte           `nbt:"BlockData,array"`
	BlockEntities   []map[string]any `nbt:"BlockEntities,omitempty"`
	Entities        []map[string]any `nbt:"Entities,omitempty"`
	BiomePaletteMax int32            `nbt:"BiomePaletteMax,omitempty"`
	BiomePalette    map[string]int32 `nbt:"BiomePalette,omitempty"`
	BiomeData       []byte           `nbt:"BiomeData,array,omitempty"`
	Extra           map[string]any   `nbt:"*"`
}

// ReadV2 reads a Sponge Schematic v2 file.
func ReadV2(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer gz.Close()

	var data v2NBT
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	if data.Version != 2 {
		return nil, fmt.Errorf("expected version 2, got %d", data.Version)
	}

	width, height, length := int(data.Width), int(data.Height), int(data.Length)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%dx%d", width, height, length)
	}

	s := schematic.New("")
	s.WeVersion = 2
	s.DataVersion = int(data.DataVersion)
	applyMetadataMap(s, data.Metadata)
	for k, v := range data.Extra {
		s.SetExtra(k, v)
	}

	states, err := parsePalette(data.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}

	count := width * height * length
	indices, err := base.DecodeVarIntArray(data.BlockData, count)
	if err != nil {
		return nil, fmt.Errorf("decode block data: %w", err)
	}

	g := &grid{width: width, height: height, length: length, indices: indices}
	if len(data.Offset) >= 3 {
		g.origin = [3]int{int(data.Offset[0]), int(data.Offset[1]), int(data.Offset[2])}
	}
	if err := applyGrid(s, g, states); err != nil {
		return nil, err
	}
	readBlockEntities(s, g.origin, data.BlockEntities)

	// Biomes are a 2D column map in v2.
	if len(data.BiomeData) > 0 && len(data.BiomePalette) > 0 {
		biomePalette := make([]string, len(data.BiomePalette))
		for name, idx := range data.BiomePalette {
			if idx >= 0 && int(idx) < len(biomePalette) {
				biomePalette[idx] = name
			}
		}
		biomeIndices, err := base.DecodeVarIntArray(data.BiomeData, width*length)
		if err != nil {
			return nil, fmt.Errorf("decode biome data: %w", err)
		}
		reg := s.Main()
		for z := range length {
			for x := range width {
				idx := biomeIndices[z*width+x]
				if int(idx) < len(biomePalette) && biomePalette[idx] != "" {
					reg.SetBiome(g.origin[0]+x, g.origin[1], g.origin[2]+z, biomePalette[idx])
				}
			}
		}
	}

	for _, entData := range data.Entities {
		s.AddEntity(base.EntityFromNBT(entData, "Id"))
	}
	return s, nil
}

// WriteV2 writes a schematic as Sponge Schematic v2.
func WriteV2(w io.Writer, s *schematic.Schematic) error {
	g, err := flatten(s)
	if err != nil {
		return err
	}

	data := v2NBT{
		Version:     2,
		DataVersion: int32(s.DataVersion),
		Width:       int16(g.width),
		Height:      int16(g.height),
		Length:      int16(g.length),
		Offset:      []int32{int32(g.origin[0]), int32(g.origin[1]), int32(g.origin[2])},
		PaletteMax:  int32(g.palette.Size() - 1),
		Palette:     g.paletteMap(),
		BlockData:   base.EncodeVarIntArray(g.indices),
		Metadata:    metadataMap(s),

		BlockEntities: writeBlockEntities(s, g.origin),
	}

	// 2D biome columns, sampled at the base of the bounding box.
	var biomePalette biomeIntern
	biomeIndices := make([]uint32, g.width*g.length)
	hasBiomes := false
	for z := range g.length {
		for x := range g.width {
			biome := biomeAt(s, g.origin[0]+x, g.origin[1], g.origin[2]+z)
			if biome != "" {
				hasBiomes = true
				biomeIndices[z*g.width+x] = biomePalette.add(biome)
			}
		}
	}
	if hasBiomes {
		data.BiomePaletteMax = int32(len(biomePalette.names) - 1)
		data.BiomePalette = biomePalette.toMap()
		data.BiomeData = base.EncodeVarIntArray(biomeIndices)
	}

	for _, ent := range allEntities(s) {
		data.Entities = append(data.Entities, base.EntityToNBT(ent, "Id"))
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(data); err != nil {
		return fmt.Errorf("encode nbt: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// biomeIntern interns biome names in first-seen order.
type biomeIntern struct {
	names []string
	index map[string]uint32
}

func (p *biomeIntern) add(name string) uint32 {
	if p.index == nil {
		p.index = make(map[string]uint32)
	}
	if idx, ok := p.index[name]; ok {
		return idx
	}
	idx := uint32(len(p.names))
	p.names = append(p.names, name)
	p.index[name] = idx
	return idx
}

func (p *biomeIntern) toMap() map[string]int32 {
	out := make(map[string]int32, len(p.names))
	for i, name := range p.names {
		out[name] = int32(i)
	}
	return out
}

// biomeAt scans regions for a biome at the world position.
func biomeAt(s *schematic.Schematic, x, y, z int) string {
	for reg := range s.Regions() {
		if reg.Contains(x, y, z) {
			if biome := reg.BiomeAt(x, y, z); biome != "" {
				return biome
			}
		}
	}
	return ""
}
