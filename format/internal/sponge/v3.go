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

// v3ReadNBT is the decode shape for Sponge Schematic Version 3. Block and
// biome payloads are declared as any: this codec writes packed long
// arrays, but other writers emit VarInt byte arrays, and both are
// accepted.
type v3ReadNBT struct {
	Version     int32 `nbt:"Version"`
	DataVersion int32 `nbt:"DataVersion"`

	Metadata struct {
		Name        string         `nbt:"Name,omitempty"`
		Author      string         `nbt:"Author,omitempty"`
		Date        int64          `nbt:"Date,omitempty"`
		Description string         `nbt:"Description,omitempty"`
		Extra       map[string]any `nbt:"*"`
	} `nbt:"Metadata"`

	Width  int16 `nbt:"Width"`
	Height int16 `nbt:"Height"`
	Length int16 `nbt:"Length"`

	Offset []int32 `nbt:"Offset,array,omitempty"`

	Blocks struct {
		Palette       map[string]int32 `nbt:"Palette"`
		Data          any              `nbt:"Data"`
		BlockEntities []map[string]any `nbt:"BlockEntities,omitempty"`
	} `nbt:"Blocks"`

	Biomes struct {
		Palette map[string]int32 `nbt:"Palette,omitempty"`
		Data    any              `nbt:"Data,omitempty"`
	} `nbt:"Biomes,omitempty"`

	Entities []map[string]any `nbt:"Entities,omitempty"`

	Extra map[string]any `nbt:"*"`
}

// v3WriteNBT is the encode shape: payloads are packed long arrays.
type v3WriteNBT struct {
	Version     int32 `nbt:"Version"`
	DataVersion int32 `nbt:"DataVersion"`

	Metadata struct {
		Name        string `nbt:"Name,omitempty"`
		Author      string `nbt:"Author,omitempty"`
		Date        int64  `nbt:"Date,omitempty"`
		Description string `nbt:"Description,omitempty"`
	} `nbt:"Metadata"`

	Width  int16 `nbt:"Width"`
	Height int16 `nbt:"Height"`
	Length int16 `nbt:"Length"`

	Offset []int32 `nbt:"Offset,array,omitempty"`

	Blocks struct {
		Palette       map[string]int32 `nbt:"Palette"`
		Data          []int64          `nbt:"Data,array"`
		BlockEntities []map[string]any `nbt:"BlockEntities,omitempty"`
	} `nbt:"Blocks"`

	Biomes *v3BiomesNBT `nbt:"Biomes,omitempty"`

	Entities []map[string]any `nbt:"Entities,omitempty"`
}

type v3BiomesNBT struct {
	Palette map[string]int32 `nbt:"Palette"`
	Data    []int64          `nbt:"Data,array"`
}

// decodeV3Indices accepts either a packed long array (this codec's output,
// non-straddling layout) or a legacy VarInt byte stream.
func decodeV3Indices(payload any, paletteSize, count int) ([]uint32, error) {
	if data, err := base.Bytes(payload); err == nil && data != nil {
		return base.DecodeVarIntArray(data, count)
	}
	longs, err := base.Longs(payload)
	if err != nil {
		return nil, err
	}
	bits := base.BitsPerEntry(paletteSize)
	return base.Unpack(longs, bits, count, false)
}

// ReadV3 reads a Sponge Schematic v3 file.
func ReadV3(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer gz.Close()

	var root struct {
		Schematic v3ReadNBT `nbt:"Schematic"`
	}
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&root); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	data := root.Schematic

	if data.Version != 3 {
		return nil, fmt.Errorf("expected version 3, got %d", data.Version)
	}

	width, height, length := int(data.Width), int(data.Height), int(data.Length)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%dx%d", width, height, length)
	}

	s := schematic.New(data.Metadata.Name)
	s.WeVersion = 3
	s.DataVersion = int(data.DataVersion)
	s.Author = data.Metadata.Author
	s.Description = data.Metadata.Description
	s.Created = data.Metadata.Date
	for k, v := range data.Metadata.Extra {
		s.SetExtra("Metadata."+k, v)
	}
	for k, v := range data.Extra {
		s.SetExtra(k, v)
	}

	states, err := parsePalette(data.Blocks.Palette)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}

	count := width * height * length
	indices, err := decodeV3Indices(data.Blocks.Data, len(states), count)
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
	readBlockEntities(s, g.origin, data.Blocks.BlockEntities)

	// Biomes are a full 3D volume in v3.
	if data.Biomes.Data != nil && len(data.Biomes.Palette) > 0 {
		biomePalette := make([]string, len(data.Biomes.Palette))
		for name, idx := range data.Biomes.Palette {
			if idx >= 0 && int(idx) < len(biomePalette) {
				biomePalette[idx] = name
			}
		}
		biomeIndices, err := decodeV3Indices(data.Biomes.Data, len(biomePalette), count)
		if err != nil {
			return nil, fmt.Errorf("decode biome data: %w", err)
		}
		reg := s.Main()
		for y := range height {
			for z := range length {
				for x := range width {
					idx := biomeIndices[y*width*length+z*width+x]
					if int(idx) < len(biomePalette) && biomePalette[idx] != "" {
						reg.SetBiome(g.origin[0]+x, g.origin[1]+y, g.origin[2]+z, biomePalette[idx])
					}
				}
			}
		}
	}

	for _, entData := range data.Entities {
		s.AddEntity(base.EntityFromNBT(entData, "Id"))
	}
	return s, nil
}

// WriteV3 writes a schematic as Sponge Schematic v3.
func WriteV3(w io.Writer, s *schematic.Schematic) error {
	g, err := flatten(s)
	if err != nil {
		return err
	}

	data := v3WriteNBT{
		Version:     3,
		DataVersion: int32(s.DataVersion),
		Width:       int16(g.width),
		Height:      int16(g.height),
		Length:      int16(g.length),
		Offset:      []int32{int32(g.origin[0]), int32(g.origin[1]), int32(g.origin[2])},
	}
	data.Metadata.Name = s.Name
	data.Metadata.Author = s.Author
	data.Metadata.Date = s.Created
	data.Metadata.Description = s.Description

	data.Blocks.Palette = g.paletteMap()
	packed, err := base.Pack(g.indices, base.BitsPerEntry(g.palette.Size()), false)
	if err != nil {
		return fmt.Errorf("pack block data: %w", err)
	}
	data.Blocks.Data = packed
	data.Blocks.BlockEntities = writeBlockEntities(s, g.origin)

	var biomePalette biomeIntern
	biomeIndices := make([]uint32, g.width*g.height*g.length)
	hasBiomes := false
	for y := range g.height {
		for z := range g.length {
			for x := range g.width {
				biome := biomeAt(s, g.origin[0]+x, g.origin[1]+y, g.origin[2]+z)
				if biome != "" {
					hasBiomes = true
					biomeIndices[y*g.width*g.length+z*g.width+x] = biomePalette.add(biome)
				}
			}
		}
	}
	if hasBiomes {
		packedBiomes, err := base.Pack(biomeIndices, base.BitsPerEntry(len(biomePalette.names)), false)
		if err != nil {
			return fmt.Errorf("pack biome data: %w", err)
		}
		data.Biomes = &v3BiomesNBT{Palette: biomePalette.toMap(), Data: packedBiomes}
	}

	for _, ent := range allEntities(s) {
		data.Entities = append(data.Entities, base.EntityToNBT(ent, "Id"))
	}

	root := struct {
		Schematic v3WriteNBT `nbt:"Schematic"`
	}{Schematic: data}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := nbt.NewEncoderWithEncoding(gz, nbt.BigEndian).Encode(root); err != nil {
		return fmt.Errorf("encode nbt: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
