package sponge

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/oriumgames/nbt"

	"github.com/schem-at/nucleation/format/internal/base"
	"github.com/schem-at/nucleation/schematic"
)

// v1NBT is the NBT structure for Sponge Schematic Version 1.
type v1NBT struct {
	Version      int32            `nbt:"Version"`
	DataVersion  int32            `nbt:"DataVersion,omitempty"`
	Width        int16            `nbt:"Width"`
	Height       int16            `nbt:"Height"`
	Length       int16            `nbt:"Length"`
	Offset       []int32          `nbt:"Offset,array,omitempty"`
	Metadata     map[string]any   `nbt:"Metadata,omitempty"`
	PaletteMax   int32            `nbt:"PaletteMax"`
	Palette      map[string]int32 `nbt:"Palette"`
	BlockData    []byte           `nbt:"BlockData,array"`
	TileEntities []map[string]any `nbt:"TileEntities,omitempty"`
	Extra        map[string]any   `nbt:"*"`
}

// ReadV1 reads a Sponge Schematic v1 file.
func ReadV1(r io.Reader) (*schematic.Schematic, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip decompress: %w", err)
	}
	defer gz.Close()

	var data v1NBT
	if err := nbt.NewDecoderWithEncoding(gz, nbt.BigEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	if data.Version != 1 {
		return nil, fmt.Errorf("expected version 1, got %d", data.Version)
	}

	width, height, length := int(data.Width), int(data.Height), int(data.Length)
	if width <= 0 || height <= 0 || length <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%dx%d", width, height, length)
	}

	s := schematic.New("")
	s.WeVersion = 1
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

	// v1 block entities use the TileEntities key with v2's shape.
	readBlockEntities(s, g.origin, data.TileEntities)
	return s, nil
}

// WriteV1 writes a schematic as Sponge Schematic v1.
func WriteV1(w io.Writer, s *schematic.Schematic) error {
	g, err := flatten(s)
	if err != nil {
		return err
	}

	data := v1NBT{
		Version:     1,
		DataVersion: int32(s.DataVersion),
		Width:       int16(g.width),
		Height:      int16(g.height),
		Length:      int16(g.length),
		Offset:      []int32{int32(g.origin[0]), int32(g.origin[1]), int32(g.origin[2])},
		PaletteMax:  int32(g.palette.Size() - 1),
		Palette:     g.paletteMap(),
		BlockData:   base.EncodeVarIntArray(g.indices),
		Metadata:    metadataMap(s),

		TileEntities: writeBlockEntities(s, g.origin),
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

// applyMetadataMap lifts the well-known Sponge metadata keys onto the
// schematic and keeps the rest verbatim.
func applyMetadataMap(s *schematic.Schematic, meta map[string]any) {
	for k, v := range meta {
		switch k {
		case "Name":
			if name, ok := v.(string); ok {
				s.Name = name
			}
		case "Author":
			if author, ok := v.(string); ok {
				s.Author = author
			}
		case "Date":
			if date, ok := v.(int64); ok {
				s.Created = date
			}
		default:
			s.SetExtra("Metadata."+k, v)
		}
	}
}

// metadataMap is the inverse of applyMetadataMap.
func metadataMap(s *schematic.Schematic) map[string]any {
	meta := make(map[string]any)
	if s.Name != "" {
		meta["Name"] = s.Name
	}
	if s.Author != "" {
		meta["Author"] = s.Author
	}
	if s.Created != 0 {
		meta["Date"] = s.Created
	}
	for k, v := range s.Extra {
		if rest, ok := strings.CutPrefix(k, "Metadata."); ok {
			meta[rest] = v
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
