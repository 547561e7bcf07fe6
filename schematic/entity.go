// Package schematic implements the universal schematic model: palette-
// compressed multi-region block storage, rigid transforms, definition
// regions and diagnostics. Format codecs decode into and encode out of
// this model.
package schematic

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// BlockEntity represents a block entity (tile entity) attached to a cell.
type BlockEntity struct {
	ID   string // e.g., "minecraft:chest"
	Pos  [3]int // region-local position
	Data map[string]any
}

// Clone creates a deep copy of the BlockEntity.
func (be *BlockEntity) Clone() *BlockEntity {
	if be == nil {
		return nil
	}
	data := make(map[string]any, len(be.Data))
	for k, v := range be.Data {
		data[k] = deepCopy(v)
	}
	return &BlockEntity{ID: be.ID, Pos: be.Pos, Data: data}
}

// Entity represents a movable entity with a floating-point position.
type Entity struct {
	ID       string     // e.g., "minecraft:armor_stand"
	Pos      [3]float64 // position (x, y, z)
	Rotation [2]float32 // yaw, pitch in degrees
	Motion   [3]float64 // velocity
	UUID     *[4]int32  // int-array form, optional
	Data     map[string]any
}

// Clone creates a deep copy of the Entity.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = deepCopy(v)
	}
	entity := &Entity{
		ID:       e.ID,
		Pos:      e.Pos,
		Rotation: e.Rotation,
		Motion:   e.Motion,
		Data:     data,
	}
	if e.UUID != nil {
		id := *e.UUID
		entity.UUID = &id
	}
	return entity
}

// EnsureUUID assigns a fresh random UUID if the entity has none, and
// returns it in int-array form.
func (e *Entity) EnsureUUID() [4]int32 {
	if e.UUID == nil {
		id := uuid.New()
		var ints [4]int32
		for i := range ints {
			ints[i] = int32(binary.BigEndian.Uint32(id[i*4 : i*4+4]))
		}
		e.UUID = &ints
	}
	return *e.UUID
}

// deepCopy performs a deep copy of decoded NBT values.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		c := make(map[string]any, len(val))
		for k, v := range val {
			c[k] = deepCopy(v)
		}
		return c
	case []any:
		c := make([]any, len(val))
		for i, v := range val {
			c[i] = deepCopy(v)
		}
		return c
	case []byte:
		b := make([]byte, len(val))
		copy(b, val)
		return b
	case []int32:
		a := make([]int32, len(val))
		copy(a, val)
		return a
	case []int64:
		a := make([]int64, len(val))
		copy(a, val)
		return a
	default:
		return v
	}
}
