package nucleation

import (
	"github.com/schem-at/nucleation/nucm"
	"github.com/schem-at/nucleation/schematic"
)

// Simulator is the contract a redstone simulation backend fulfils over a
// schematic. The backend owns its own world state; SyncToSchematic writes
// the simulated block states back into the schematic it was built from.
type Simulator interface {
	// Tick advances the simulation by n game ticks.
	Tick(n int)

	// Flush applies all pending block updates immediately.
	Flush()

	// OnUseBlock interacts with the block at the world position (levers,
	// buttons, doors).
	OnUseBlock(pos [3]int)

	// IsLit reports whether the lamp or emitter at pos is lit.
	IsLit(pos [3]int) bool

	// SignalStrength returns the redstone signal strength at pos, 0-15.
	SignalStrength(pos [3]int) int

	// SetSignalStrength forces the signal strength at pos, 0-15.
	SetSignalStrength(pos [3]int, strength int)

	// SyncToSchematic writes the simulated state back to the schematic.
	SyncToSchematic() (*schematic.Schematic, error)
}

// MeshChunkProducer is the contract a mesh producer fulfils: it turns a
// schematic plus resource-pack data into the mesh chunks the nucm package
// serializes.
type MeshChunkProducer interface {
	ProduceMeshChunks(s *schematic.Schematic) ([]*nucm.Chunk, error)
}
