// Package mcstructure implements the Bedrock .mcstructure codec:
// little-endian NBT with no gzip framing, two parallel block-index layers
// and a named palette carrying typed Bedrock states.
package mcstructure

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/oriumgames/nbt"

	"github.com/schem-at/nucleation/block"
	"github.com/schem-at/nucleation/schematic"
)

const (
	formatVersion = 1
	defaultName   = "default"

	// blockVersion is the Bedrock block state version written to palette
	// entries, 1.16.0.14 encoded as four big-endian bytes.
	blockVersion int32 = 17825806
)

const waterName = "minecraft:water"

type structureNBT struct {
	FormatVersion int32         `nbt:"format_version"`
	Size          []int32       `nbt:"size"`
	Origin        []int32       `nbt:"structure_world_origin"`
	Structure     structureData `nbt:"structure"`
	Extra         map[string]any `nbt:"*"`
}

type structureData struct {
	BlockIndices [][]int32             `nbt:"block_indices"`
	Entities     []map[string]any      `nbt:"entities"`
	Palettes     map[string]paletteNBT `nbt:"palette"`
}

type paletteNBT struct {
	BlockPalette      []blockNBT                `nbt:"block_palette"`
	BlockPositionData map[string]map[string]any `nbt:"block_position_data"`
}

type blockNBT struct {
	Name    string         `nbt:"name"`
	States  map[string]any `nbt:"states"`
	Version int32          `nbt:"version"`
}

// Read reads a .mcstructure file, translating Bedrock block names to Java
// equivalents. The second block-indices layer is kept on the region; water
// in that layer becomes waterlogged=true on the primary state.
func Read(r io.Reader) (*schematic.Schematic, error) {
	var data structureNBT
	if err := nbt.NewDecoderWithEncoding(r, nbt.LittleEndian).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode nbt: %w", err)
	}
	if data.FormatVersion != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", data.FormatVersion)
	}
	if len(data.Size) != 3 {
		return nil, fmt.Errorf("size must have 3 values, got %d", len(data.Size))
	}
	if len(data.Origin) != 3 {
		return nil, fmt.Errorf("structure_world_origin must have 3 values, got %d", len(data.Origin))
	}

	sx, sy, sz := int(data.Size[0]), int(data.Size[1]), int(data.Size[2])
	if sx <= 0 || sy <= 0 || sz <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%dx%d", sx, sy, sz)
	}
	volume := sx * sy * sz
	if len(data.Structure.BlockIndices) == 0 {
		return nil, fmt.Errorf("structure has no block index layers")
	}
	for i, layer := range data.Structure.BlockIndices {
		if len(layer) != volume {
			return nil, fmt.Errorf("layer %d has %d indices, want %d", i, len(layer), volume)
		}
	}

	palette, ok := data.Structure.Palettes[defaultName]
	if !ok {
		for _, p := range data.Structure.Palettes {
			palette = p
			break
		}
	}

	s := schematic.New("")
	origin := [3]int{int(data.Origin[0]), int(data.Origin[1]), int(data.Origin[2])}
	reg, err := schematic.NewRegion(schematic.MainRegion, origin, [3]int{sx, sy, sz})
	if err != nil {
		return nil, err
	}

	// Translate the Bedrock palette. The region keeps air at index 0;
	// remap tracks where each file palette entry landed.
	intern := block.NewPaletteWith(block.Air)
	remap := make([]int32, len(palette.BlockPalette))
	for i, entry := range palette.BlockPalette {
		java, hit := block.BedrockToJava(entry.Name)
		if !hit && !block.ValidJavaName(java) {
			s.Warn("mcstructure", nil, "unknown bedrock block %q passed through", entry.Name)
		}
		state := block.State{Name: java, Properties: statesToProps(entry.States)}
		if state.IsAir() {
			remap[i] = 0
			continue
		}
		remap[i] = int32(intern.Add(state))
	}
	states := intern.Blocks()
	if err := reg.LoadPalette(states); err != nil {
		return nil, err
	}

	primary := data.Structure.BlockIndices[0]
	var secondary []int32
	if len(data.Structure.BlockIndices) > 1 {
		secondary = data.Structure.BlockIndices[1]
	}

	regSecondary := make([]int32, volume)
	hasSecondary := false
	for x := range sx {
		for y := range sy {
			for z := range sz {
				fileIdx := x*sy*sz + y*sz + z
				cellIdx := y*sx*sz + z*sx + x

				pi := primary[fileIdx]
				if int(pi) >= len(remap) {
					return nil, fmt.Errorf("block index %d out of palette range %d", pi, len(remap))
				}
				if pi >= 0 && remap[pi] != 0 {
					reg.SetIndex(origin[0]+x, origin[1]+y, origin[2]+z, uint32(remap[pi]))
				}

				regSecondary[cellIdx] = -1
				if secondary == nil || secondary[fileIdx] < 0 {
					continue
				}
				if int(secondary[fileIdx]) >= len(remap) {
					return nil, fmt.Errorf("secondary block index %d out of palette range %d", secondary[fileIdx], len(remap))
				}
				si := remap[secondary[fileIdx]]
				if states[si].Name == waterName && pi >= 0 {
					// Waterlogging is expressed as a property on the Java side.
					b := states[remap[pi]].Clone()
					if b.Properties == nil {
						b.Properties = map[string]string{}
					}
					b.Properties["waterlogged"] = "true"
					reg.SetBlock(origin[0]+x, origin[1]+y, origin[2]+z, b)
				} else {
					regSecondary[cellIdx] = si
					hasSecondary = true
				}
			}
		}
	}
	if hasSecondary {
		reg.Secondary = regSecondary
	}

	// Block entities live under block_position_data, keyed by the linear
	// index in the file's x-major order.
	keys := make([]string, 0, len(palette.BlockPositionData))
	for k := range palette.BlockPositionData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := palette.BlockPositionData[key]
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= volume {
			s.Warn("mcstructure", nil, "bad block_position_data key %q", key)
			continue
		}
		x := idx / (sy * sz)
		y := idx / sz % sy
		z := idx % sz

		bed, ok := entry["block_entity_data"].(map[string]any)
		if !ok {
			reg.SetExtra("block_position_data."+key, entry)
			continue
		}
		be := &schematic.BlockEntity{Data: make(map[string]any)}
		if id, ok := bed["id"].(string); ok {
			be.ID = id
		}
		for k, v := range bed {
			switch k {
			case "id", "x", "y", "z":
			default:
				be.Data[k] = v
			}
		}
		reg.SetBlockEntity(origin[0]+x, origin[1]+y, origin[2]+z, be)
	}

	for _, entData := range data.Structure.Entities {
		reg.AddEntity(bedrockEntity(entData))
	}

	if err := s.AddRegion(reg); err != nil {
		return nil, err
	}
	for k, v := range data.Extra {
		s.SetExtra(k, v)
	}
	return s, nil
}

// Write writes the schematic as a .mcstructure file, translating Java
// block names back to Bedrock.
func Write(w io.Writer, s *schematic.Schematic) error {
	bmin, bmax, ok := s.Bounds()
	if !ok {
		return fmt.Errorf("schematic has no regions")
	}
	sx := bmax[0] - bmin[0] + 1
	sy := bmax[1] - bmin[1] + 1
	sz := bmax[2] - bmin[2] + 1
	volume := sx * sy * sz

	palette := []blockNBT{{Name: "minecraft:air", States: map[string]any{}, Version: blockVersion}}
	paletteIndex := map[string]int32{block.Air.Key(): 0}
	intern := func(b *block.State) int32 {
		key := b.Key()
		if idx, ok := paletteIndex[key]; ok {
			return idx
		}
		bedrock, _ := block.JavaToBedrock(b.Name)
		idx := int32(len(palette))
		palette = append(palette, blockNBT{
			Name:    bedrock,
			States:  propsToStates(b.Properties),
			Version: blockVersion,
		})
		paletteIndex[key] = idx
		return idx
	}
	waterState := block.State{Name: waterName}

	primary := make([]int32, volume)
	secondary := make([]int32, volume)
	positionData := make(map[string]map[string]any)

	for x := range sx {
		for y := range sy {
			for z := range sz {
				fileIdx := x*sy*sz + y*sz + z
				secondary[fileIdx] = -1

				wx, wy, wz := bmin[0]+x, bmin[1]+y, bmin[2]+z
				b := s.BlockAt(wx, wy, wz)
				if b == nil {
					continue
				}
				if b.Properties["waterlogged"] == "true" {
					b = b.Clone()
					delete(b.Properties, "waterlogged")
					secondary[fileIdx] = intern(&waterState)
				}
				primary[fileIdx] = intern(b)

				if be := s.BlockEntityAt(wx, wy, wz); be != nil {
					bed := make(map[string]any, len(be.Data)+4)
					bed["id"] = be.ID
					bed["x"] = int32(wx)
					bed["y"] = int32(wy)
					bed["z"] = int32(wz)
					for k, v := range be.Data {
						bed[k] = v
					}
					positionData[strconv.Itoa(fileIdx)] = map[string]any{"block_entity_data": bed}
				}
			}
		}
	}

	// Region secondary layers ride along where the cell has no
	// waterlogging-derived entry.
	for reg := range s.Regions() {
		if reg.Secondary == nil {
			continue
		}
		rw, rh, rl := reg.AbsSize()
		rmin, _ := reg.Bounds()
		for ly := range rh {
			for lz := range rl {
				for lx := range rw {
					si := reg.Secondary[ly*rw*rl+lz*rw+lx]
					if si < 0 {
						continue
					}
					b := reg.Palette().Get(int(si))
					if b == nil {
						continue
					}
					x := rmin[0] + lx - bmin[0]
					y := rmin[1] + ly - bmin[1]
					z := rmin[2] + lz - bmin[2]
					fileIdx := x*sy*sz + y*sz + z
					if secondary[fileIdx] < 0 {
						secondary[fileIdx] = intern(b)
					}
				}
			}
		}
	}

	var entities []map[string]any
	for _, ent := range allEntities(s) {
		entities = append(entities, bedrockEntityNBT(ent))
	}

	data := structureNBT{
		FormatVersion: formatVersion,
		Size:          []int32{int32(sx), int32(sy), int32(sz)},
		Origin:        []int32{int32(bmin[0]), int32(bmin[1]), int32(bmin[2])},
		Structure: structureData{
			BlockIndices: [][]int32{primary, secondary},
			Entities:     entities,
			Palettes: map[string]paletteNBT{
				defaultName: {
					BlockPalette:      palette,
					BlockPositionData: positionData,
				},
			},
		},
	}

	if err := nbt.NewEncoderWithEncoding(w, nbt.LittleEndian).Encode(data); err != nil {
		return fmt.Errorf("encode nbt: %w", err)
	}
	return nil
}

func allEntities(s *schematic.Schematic) []*schematic.Entity {
	out := s.Entities()
	for reg := range s.Regions() {
		out = append(out, reg.Entities()...)
	}
	return out
}

// statesToProps converts a typed Bedrock states compound to the model's
// string property map: bytes become booleans, numbers decimal strings.
func statesToProps(states map[string]any) map[string]string {
	if len(states) == 0 {
		return nil
	}
	out := make(map[string]string, len(states))
	for k, v := range states {
		switch val := v.(type) {
		case string:
			out[k] = val
		case byte:
			if val != 0 {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		case int32:
			out[k] = strconv.Itoa(int(val))
		case int64:
			out[k] = strconv.FormatInt(val, 10)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

// propsToStates is the inverse of statesToProps.
func propsToStates(props map[string]string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch v {
		case "true":
			out[k] = byte(1)
		case "false":
			out[k] = byte(0)
		default:
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = int32(n)
			} else {
				out[k] = v
			}
		}
	}
	return out
}

// bedrockEntity converts a Bedrock entity compound. Bedrock uses
// "identifier" and float32 positions.
func bedrockEntity(data map[string]any) *schematic.Entity {
	ent := &schematic.Entity{Data: make(map[string]any)}
	if id, ok := data["identifier"].(string); ok {
		ent.ID = id
	}
	if pos, ok := data["Pos"].([]any); ok && len(pos) >= 3 {
		for i := range 3 {
			switch v := pos[i].(type) {
			case float32:
				ent.Pos[i] = float64(v)
			case float64:
				ent.Pos[i] = v
			}
		}
	}
	if rot, ok := data["Rotation"].([]any); ok && len(rot) >= 2 {
		for i := range 2 {
			if v, ok := rot[i].(float32); ok {
				ent.Rotation[i] = v
			}
		}
	}
	for k, v := range data {
		switch k {
		case "identifier", "Pos", "Rotation":
		default:
			ent.Data[k] = v
		}
	}
	return ent
}

func bedrockEntityNBT(ent *schematic.Entity) map[string]any {
	data := make(map[string]any, len(ent.Data)+3)
	data["identifier"] = ent.ID
	data["Pos"] = []float32{float32(ent.Pos[0]), float32(ent.Pos[1]), float32(ent.Pos[2])}
	data["Rotation"] = []float32{ent.Rotation[0], ent.Rotation[1]}
	for k, v := range ent.Data {
		data[k] = v
	}
	return data
}
