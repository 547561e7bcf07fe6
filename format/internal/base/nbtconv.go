package base

import (
	"maps"

	"github.com/schem-at/nucleation/schematic"
)

// EntityFromNBT builds an Entity from a decoded NBT compound. The id key
// differs between formats ("Id" for Sponge, "id" for Litematica).
func EntityFromNBT(data map[string]any, idKey string) *schematic.Entity {
	ent := &schematic.Entity{Data: make(map[string]any)}

	if id, ok := data[idKey].(string); ok {
		ent.ID = id
	}
	if pos, ok := data["Pos"].([]any); ok && len(pos) >= 3 {
		for i := range 3 {
			if v, ok := pos[i].(float64); ok {
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
	if motion, ok := data["Motion"].([]any); ok && len(motion) >= 3 {
		for i := range 3 {
			if v, ok := motion[i].(float64); ok {
				ent.Motion[i] = v
			}
		}
	}
	if id, ok := data["UUID"].([]int32); ok && len(id) == 4 {
		uuid := [4]int32{id[0], id[1], id[2], id[3]}
		ent.UUID = &uuid
	}

	for k, v := range data {
		switch k {
		case idKey, "Pos", "Rotation", "Motion", "UUID":
		default:
			ent.Data[k] = v
		}
	}
	return ent
}

// EntityToNBT is the inverse of EntityFromNBT.
func EntityToNBT(ent *schematic.Entity, idKey string) map[string]any {
	data := make(map[string]any, len(ent.Data)+4)
	data[idKey] = ent.ID
	data["Pos"] = []float64{ent.Pos[0], ent.Pos[1], ent.Pos[2]}
	data["Rotation"] = []float32{ent.Rotation[0], ent.Rotation[1]}
	data["Motion"] = []float64{ent.Motion[0], ent.Motion[1], ent.Motion[2]}
	if ent.UUID != nil {
		data["UUID"] = []int32{ent.UUID[0], ent.UUID[1], ent.UUID[2], ent.UUID[3]}
	}
	maps.Copy(data, ent.Data)
	return data
}

// ShiftEntity returns a clone of ent with its position offset by delta.
func ShiftEntity(ent *schematic.Entity, delta [3]float64) *schematic.Entity {
	c := ent.Clone()
	for i := range 3 {
		c.Pos[i] += delta[i]
	}
	return c
}
