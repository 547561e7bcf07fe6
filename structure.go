package nucleation

import (
	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/oriumgames/crocon"
	"github.com/sandertv/gophertunnel/minecraft/protocol"

	"github.com/schem-at/nucleation/schematic"
)

// Structure adapts a schematic to dragonfly's world.Structure so it can be
// placed in a Bedrock world with world.BuildStructure. Java block states
// are converted to Bedrock through the crocon conversion system.
type Structure struct {
	schematic *schematic.Schematic
	converter *crocon.Converter
	min       [3]int
	dims      [3]int
}

// NewStructure creates a Structure over the schematic's bounding box.
func NewStructure(s *schematic.Schematic) *Structure {
	c, _ := crocon.NewConverter()
	st := &Structure{schematic: s, converter: c}
	if bmin, bmax, ok := s.Bounds(); ok {
		st.min = bmin
		st.dims = [3]int{bmax[0] - bmin[0] + 1, bmax[1] - bmin[1] + 1, bmax[2] - bmin[2] + 1}
	}
	return st
}

// Schematic returns the underlying schematic.
func (s *Structure) Schematic() *schematic.Schematic {
	return s.schematic
}

// Dimensions implements world.Structure.
func (s *Structure) Dimensions() [3]int {
	return s.dims
}

// At implements world.Structure.
func (s *Structure) At(x, y, z int, _ func(x, y, z int) world.Block) (world.Block, world.Liquid) {
	state := s.schematic.BlockAt(s.min[0]+x, s.min[1]+y, s.min[2]+z)
	if state == nil || state.IsAir() {
		return block.Air{}, nil
	}

	fromVersion := s.schematic.Version()
	if fromVersion == "" || s.converter == nil {
		return block.Air{}, nil
	}

	states := make(map[string]any, len(state.Properties))
	for k, v := range state.Properties {
		states[k] = v
	}
	b, err := s.converter.ConvertBlock(crocon.BlockRequest{
		ConversionRequest: crocon.ConversionRequest{
			FromVersion: fromVersion,
			ToVersion:   protocol.CurrentVersion,
			FromEdition: crocon.JavaEdition,
			ToEdition:   crocon.BedrockEdition,
		},
		Block: crocon.Block{
			ID:     state.Name,
			States: states,
		},
	})
	if err != nil {
		return block.Air{}, nil
	}

	ret, ok := world.BlockByName(b.ID, b.States)
	if !ok {
		// Converted properties the runtime does not know; retry bare.
		if ret, ok = world.BlockByName(b.ID, map[string]any{}); !ok {
			return block.Air{}, nil
		}
	}

	if nbter, ok := ret.(world.NBTer); ok {
		if decoded := s.blockEntityNBT(x, y, z, fromVersion); decoded != nil {
			if converted, ok := nbter.DecodeNBT(decoded).(world.Block); ok {
				ret = converted
			}
		} else {
			if converted, ok := nbter.DecodeNBT(map[string]any{}).(world.Block); ok {
				ret = converted
			}
		}
	}

	var liquid world.Liquid
	if state.Properties["waterlogged"] == "true" {
		liquid = block.Water{}
	}
	return ret, liquid
}

// blockEntityNBT converts the Java block entity at the given structure-
// local position to a Bedrock compound, or nil.
func (s *Structure) blockEntityNBT(x, y, z int, fromVersion string) map[string]any {
	be := s.schematic.BlockEntityAt(s.min[0]+x, s.min[1]+y, s.min[2]+z)
	if be == nil {
		return nil
	}

	from := make(crocon.BlockEntity, len(be.Data)+1)
	for k, v := range be.Data {
		from[k] = v
	}
	from["id"] = be.ID

	converted, err := s.converter.ConvertBlockEntity(crocon.BlockEntityRequest{
		ConversionRequest: crocon.ConversionRequest{
			FromVersion: fromVersion,
			ToVersion:   protocol.CurrentVersion,
			FromEdition: crocon.JavaEdition,
			ToEdition:   crocon.BedrockEdition,
		},
		BlockEntity: from,
	})
	if err != nil {
		return nil
	}

	m, ok := any(converted).(*map[string]any)
	if !ok || m == nil {
		return nil
	}
	tag, ok := (*m)["tag"].(map[string]any)
	if !ok {
		return nil
	}
	return tag
}
