package schematic

import (
	"fmt"
	"iter"
	"math"

	"github.com/schem-at/nucleation/block"
)

// Region is an axis-aligned block grid with a palette, block entities and
// local entities. Size components are signed, matching Litematica's layout:
// a negative component grows the region in the negative axis direction from
// its origin. Cells are stored over the absolute dimensions in
// y-major, then z, then x order.
type Region struct {
	name   string
	origin [3]int
	size   [3]int // signed

	palette *block.Palette
	cells   []uint32

	blockEntities map[[3]int]*BlockEntity // keyed by normalized local position
	entities      []*Entity

	// Secondary is the Bedrock second block-indices layer (waterlogged or
	// extra block per cell), -1 for none. Nil unless a McStructure import
	// populated it.
	Secondary []int32

	// PendingBlockTicks and PendingFluidTicks are opaque Litematica tick
	// lists preserved across round-trips.
	PendingBlockTicks []map[string]any
	PendingFluidTicks []map[string]any

	// Extra holds unrecognized per-region NBT fields verbatim.
	Extra map[string]any

	biomes map[[3]int]string // sparse, keyed by normalized local position
}

// NewRegion creates a region with the given world-space origin and signed
// size, its palette seeded with the empty state at index 0.
func NewRegion(name string, origin, size [3]int) (*Region, error) {
	return NewRegionWithEmpty(name, origin, size, block.Air)
}

// NewRegionWithEmpty creates a region whose designated empty block is the
// given state (for example minecraft:structure_void instead of air).
func NewRegionWithEmpty(name string, origin, size [3]int, empty block.State) (*Region, error) {
	for _, c := range size {
		if c == 0 {
			return nil, fmt.Errorf("region %q: zero size component %v", name, size)
		}
	}
	w, h, l := abs(size[0]), abs(size[1]), abs(size[2])
	return &Region{
		name:          name,
		origin:        origin,
		size:          size,
		palette:       block.NewPaletteWith(empty),
		cells:         make([]uint32, w*h*l),
		blockEntities: make(map[[3]int]*BlockEntity),
	}, nil
}

// Name returns the region's name.
func (r *Region) Name() string { return r.name }

// Origin returns the world-space position of the cell at local (0,0,0).
func (r *Region) Origin() [3]int { return r.origin }

// SetOrigin moves the region's origin.
func (r *Region) SetOrigin(origin [3]int) { r.origin = origin }

// Size returns the signed size of the region.
func (r *Region) Size() [3]int { return r.size }

// AbsSize returns the absolute dimensions of the region.
func (r *Region) AbsSize() (w, h, l int) {
	return abs(r.size[0]), abs(r.size[1]), abs(r.size[2])
}

// Volume returns the number of cells in the region.
func (r *Region) Volume() int {
	w, h, l := r.AbsSize()
	return w * h * l
}

// Bounds returns the inclusive world-space bounding box of the region.
func (r *Region) Bounds() (bmin, bmax [3]int) {
	for i := range 3 {
		lo := r.origin[i]
		if r.size[i] < 0 {
			lo = r.origin[i] + r.size[i] + 1
		}
		bmin[i] = lo
		bmax[i] = lo + abs(r.size[i]) - 1
	}
	return bmin, bmax
}

// Palette returns the region's palette.
func (r *Region) Palette() *block.Palette { return r.palette }

// EmptyBlock returns the region's designated empty state (palette entry 0).
func (r *Region) EmptyBlock() *block.State { return r.palette.Get(0) }

// Contains reports whether the world position falls inside the region.
func (r *Region) Contains(x, y, z int) bool {
	_, ok := r.localIndex(x, y, z)
	return ok
}

// local converts world coordinates to normalized local coordinates in
// [0, |size|). A negative size component inverts the mapping sign.
func (r *Region) local(x, y, z int) (lx, ly, lz int) {
	p := [3]int{x, y, z}
	var out [3]int
	for i := range 3 {
		d := p[i] - r.origin[i]
		if r.size[i] < 0 {
			d = -d
		}
		out[i] = d
	}
	return out[0], out[1], out[2]
}

// world converts normalized local coordinates back to world coordinates.
func (r *Region) world(lx, ly, lz int) (x, y, z int) {
	l := [3]int{lx, ly, lz}
	var out [3]int
	for i := range 3 {
		d := l[i]
		if r.size[i] < 0 {
			d = -d
		}
		out[i] = r.origin[i] + d
	}
	return out[0], out[1], out[2]
}

func (r *Region) localIndex(x, y, z int) (int, bool) {
	lx, ly, lz := r.local(x, y, z)
	w, h, l := r.AbsSize()
	if lx < 0 || lx >= w || ly < 0 || ly >= h || lz < 0 || lz >= l {
		return 0, false
	}
	return ly*w*l + lz*w + lx, true
}

// LoadPalette replaces the region's palette with the given states, entry 0
// becoming the designated empty block. Cells are not rewritten; codecs use
// this before writing raw indices.
func (r *Region) LoadPalette(states []block.State) error {
	if len(states) == 0 {
		return fmt.Errorf("region %q: empty palette", r.name)
	}
	p := block.NewPalette()
	for _, s := range states {
		p.Add(s)
	}
	if p.Size() != len(states) {
		return fmt.Errorf("region %q: duplicate palette entries", r.name)
	}
	r.palette = p
	return nil
}

// SetBlock sets the block at the given world position, interning the state
// into the palette. Passing nil sets the empty block. Returns false if the
// position is out of bounds; the region is unchanged in that case.
func (r *Region) SetBlock(x, y, z int, s *block.State) bool {
	idx, ok := r.localIndex(x, y, z)
	if !ok {
		return false
	}
	if s == nil {
		r.cells[idx] = 0
		return true
	}
	if r.cells[idx] == 0 && s.Equal(r.EmptyBlock()) {
		return true
	}
	r.cells[idx] = uint32(r.palette.Add(*s))
	return true
}

// BlockAt returns the block state at the given world position, or nil if
// the position is out of bounds or holds the empty block.
func (r *Region) BlockAt(x, y, z int) *block.State {
	idx, ok := r.localIndex(x, y, z)
	if !ok || r.cells[idx] == 0 {
		return nil
	}
	return r.palette.Get(int(r.cells[idx]))
}

// IndexAt returns the raw palette index at the given world position.
func (r *Region) IndexAt(x, y, z int) (uint32, bool) {
	idx, ok := r.localIndex(x, y, z)
	if !ok {
		return 0, false
	}
	return r.cells[idx], true
}

// SetIndex writes a raw palette index at the given world position. The
// index must be valid for the current palette.
func (r *Region) SetIndex(x, y, z int, pi uint32) bool {
	idx, ok := r.localIndex(x, y, z)
	if !ok || int(pi) >= r.palette.Size() {
		return false
	}
	r.cells[idx] = pi
	return true
}

// Fill sets every cell of the world-space cuboid [fmin, fmax] (inclusive,
// clamped to the region) to the given state. The state is interned once
// and rows are written contiguously.
func (r *Region) Fill(fmin, fmax [3]int, s *block.State) {
	bmin, bmax := r.Bounds()
	for i := range 3 {
		if fmin[i] > fmax[i] {
			fmin[i], fmax[i] = fmax[i], fmin[i]
		}
		fmin[i] = max(fmin[i], bmin[i])
		fmax[i] = min(fmax[i], bmax[i])
	}
	if fmin[0] > fmax[0] || fmin[1] > fmax[1] || fmin[2] > fmax[2] {
		return
	}

	var pi uint32
	if s != nil && !s.Equal(r.EmptyBlock()) {
		pi = uint32(r.palette.Add(*s))
	}
	w, _, l := r.AbsSize()
	for y := fmin[1]; y <= fmax[1]; y++ {
		for z := fmin[2]; z <= fmax[2]; z++ {
			// Row endpoints in local space; a negative x size reverses them.
			ax, ay, az := r.local(fmin[0], y, z)
			bx, _, _ := r.local(fmax[0], y, z)
			if ax > bx {
				ax, bx = bx, ax
			}
			row := r.cells[ay*w*l+az*w+ax : ay*w*l+az*w+bx+1]
			for i := range row {
				row[i] = pi
			}
		}
	}
}

// FillSphere sets every cell within radius of center (world coordinates,
// Euclidean distance) to the given state.
func (r *Region) FillSphere(center [3]int, radius float64, s *block.State) {
	if radius < 0 {
		return
	}
	rr := radius * radius
	ri := int(math.Ceil(radius))
	fmin := [3]int{center[0] - ri, center[1] - ri, center[2] - ri}
	fmax := [3]int{center[0] + ri, center[1] + ri, center[2] + ri}
	bmin, bmax := r.Bounds()
	for i := range 3 {
		fmin[i] = max(fmin[i], bmin[i])
		fmax[i] = min(fmax[i], bmax[i])
	}
	for y := fmin[1]; y <= fmax[1]; y++ {
		for z := fmin[2]; z <= fmax[2]; z++ {
			for x := fmin[0]; x <= fmax[0]; x++ {
				dx, dy, dz := float64(x-center[0]), float64(y-center[1]), float64(z-center[2])
				if dx*dx+dy*dy+dz*dz <= rr {
					r.SetBlock(x, y, z, s)
				}
			}
		}
	}
}

// Blocks iterates over all non-empty cells in world coordinates, in
// y-major, z, x order.
func (r *Region) Blocks() iter.Seq2[[3]int, *block.State] {
	return func(yield func([3]int, *block.State) bool) {
		w, h, l := r.AbsSize()
		for ly := range h {
			for lz := range l {
				for lx := range w {
					idx := ly*w*l + lz*w + lx
					if r.cells[idx] == 0 {
						continue
					}
					x, y, z := r.world(lx, ly, lz)
					if !yield([3]int{x, y, z}, r.palette.Get(int(r.cells[idx]))) {
						return
					}
				}
			}
		}
	}
}

// BlockCount returns the number of non-empty cells.
func (r *Region) BlockCount() int {
	n := 0
	for _, c := range r.cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// CompactPalette rebuilds the palette keeping only used entries (and the
// empty block at index 0), rewriting all cells. It returns the applied
// remap, indexed by old palette index.
func (r *Region) CompactPalette() []uint32 {
	used := make([]bool, r.palette.Size())
	used[0] = true
	for _, c := range r.cells {
		used[c] = true
	}

	remap := make([]uint32, r.palette.Size())
	compact := block.NewPaletteWith(*r.EmptyBlock())
	for i, b := range r.palette.Blocks() {
		if i == 0 || !used[i] {
			continue
		}
		remap[i] = uint32(compact.Add(b))
	}
	for i, c := range r.cells {
		r.cells[i] = remap[c]
	}
	r.palette = compact
	return remap
}

// BlockEntityAt returns the block entity at the given world position, or
// nil if none exists.
func (r *Region) BlockEntityAt(x, y, z int) *BlockEntity {
	lx, ly, lz := r.local(x, y, z)
	return r.blockEntities[[3]int{lx, ly, lz}]
}

// SetBlockEntity attaches a block entity at the given world position.
// Passing nil removes any existing block entity. Returns false if the
// position is out of bounds.
func (r *Region) SetBlockEntity(x, y, z int, be *BlockEntity) bool {
	if _, ok := r.localIndex(x, y, z); !ok {
		return false
	}
	lx, ly, lz := r.local(x, y, z)
	key := [3]int{lx, ly, lz}
	if be == nil {
		delete(r.blockEntities, key)
		return true
	}
	be.Pos = key
	r.blockEntities[key] = be
	return true
}

// BlockEntities iterates over block entities in world coordinates.
func (r *Region) BlockEntities() iter.Seq2[[3]int, *BlockEntity] {
	return func(yield func([3]int, *BlockEntity) bool) {
		for local, be := range r.blockEntities {
			x, y, z := r.world(local[0], local[1], local[2])
			if !yield([3]int{x, y, z}, be) {
				return
			}
		}
	}
}

// Entities returns a copy of the region's entity list.
func (r *Region) Entities() []*Entity {
	out := make([]*Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// AddEntity adds an entity to the region.
func (r *Region) AddEntity(e *Entity) {
	r.entities = append(r.entities, e)
}

// RemoveEntity removes an entity from the region.
func (r *Region) RemoveEntity(e *Entity) {
	for i, cur := range r.entities {
		if cur == e {
			r.entities = append(r.entities[:i], r.entities[i+1:]...)
			return
		}
	}
}

// BiomeAt returns the biome at a world position, or "" if unset.
func (r *Region) BiomeAt(x, y, z int) string {
	lx, ly, lz := r.local(x, y, z)
	return r.biomes[[3]int{lx, ly, lz}]
}

// SetBiome sets the biome at a world position. An empty biome clears it.
func (r *Region) SetBiome(x, y, z int, biome string) bool {
	if _, ok := r.localIndex(x, y, z); !ok {
		return false
	}
	lx, ly, lz := r.local(x, y, z)
	key := [3]int{lx, ly, lz}
	if biome == "" {
		delete(r.biomes, key)
		return true
	}
	if r.biomes == nil {
		r.biomes = make(map[[3]int]string)
	}
	r.biomes[key] = biome
	return true
}

// HasBiomes reports whether any biome has been set on the region.
func (r *Region) HasBiomes() bool { return len(r.biomes) > 0 }

// SetExtra records an unrecognized NBT field to be preserved on write.
func (r *Region) SetExtra(key string, value any) {
	if r.Extra == nil {
		r.Extra = make(map[string]any)
	}
	r.Extra[key] = value
}

// Clone creates a deep copy of the region.
func (r *Region) Clone() *Region {
	c := &Region{
		name:    r.name,
		origin:  r.origin,
		size:    r.size,
		palette: r.palette.Clone(),
		cells:   make([]uint32, len(r.cells)),

		blockEntities: make(map[[3]int]*BlockEntity, len(r.blockEntities)),
	}
	copy(c.cells, r.cells)
	for k, be := range r.blockEntities {
		c.blockEntities[k] = be.Clone()
	}
	c.entities = make([]*Entity, len(r.entities))
	for i, e := range r.entities {
		c.entities[i] = e.Clone()
	}
	if r.Secondary != nil {
		c.Secondary = make([]int32, len(r.Secondary))
		copy(c.Secondary, r.Secondary)
	}
	for _, t := range r.PendingBlockTicks {
		c.PendingBlockTicks = append(c.PendingBlockTicks, deepCopy(t).(map[string]any))
	}
	for _, t := range r.PendingFluidTicks {
		c.PendingFluidTicks = append(c.PendingFluidTicks, deepCopy(t).(map[string]any))
	}
	if r.Extra != nil {
		c.Extra = deepCopy(r.Extra).(map[string]any)
	}
	if r.biomes != nil {
		c.biomes = make(map[[3]int]string, len(r.biomes))
		for k, v := range r.biomes {
			c.biomes[k] = v
		}
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
