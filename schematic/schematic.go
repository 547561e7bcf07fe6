package schematic

import (
	"fmt"
	"iter"
	"slices"

	"github.com/schem-at/nucleation/block"
)

// MainRegion is the region name used by single-region formats.
const MainRegion = "Main"

// Diagnostic is a soft warning collected while decoding or transforming a
// schematic. Diagnostics never abort processing.
type Diagnostic struct {
	Source  string // format or operation that produced the warning
	Pos     *[3]int
	Message string
}

func (d Diagnostic) String() string {
	if d.Pos != nil {
		return fmt.Sprintf("%s: %s at (%d, %d, %d)", d.Source, d.Message, d.Pos[0], d.Pos[1], d.Pos[2])
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}

// Schematic is the universal container: named regions, global metadata,
// definition regions and world-space entities. It is not safe for
// concurrent mutation; share deep copies across goroutines instead.
type Schematic struct {
	Name        string
	Author      string
	Description string
	Created     int64 // ms since epoch
	Modified    int64 // ms since epoch

	DataVersion int // Minecraft data version
	LmVersion   int // Litematica container version, 0 if not applicable
	WeVersion   int // Sponge container version, 0 if not applicable

	regions     map[string]*Region
	regionOrder []string

	defRegions map[string]*DefinitionRegion

	entities    []*Entity
	diagnostics []Diagnostic

	// Extra holds unrecognized root-level NBT fields verbatim.
	Extra map[string]any
}

// New creates an empty schematic with the given name.
func New(name string) *Schematic {
	return &Schematic{
		Name:       name,
		regions:    make(map[string]*Region),
		defRegions: make(map[string]*DefinitionRegion),
	}
}

// CreateRegion creates and attaches a region. The name must be unused.
func (s *Schematic) CreateRegion(name string, origin, size [3]int) (*Region, error) {
	r, err := NewRegion(name, origin, size)
	if err != nil {
		return nil, err
	}
	if err := s.AddRegion(r); err != nil {
		return nil, err
	}
	return r, nil
}

// AddRegion attaches an existing region. Region names must be unique.
func (s *Schematic) AddRegion(r *Region) error {
	if _, exists := s.regions[r.name]; exists {
		return fmt.Errorf("duplicate region name %q", r.name)
	}
	s.regions[r.name] = r
	s.regionOrder = append(s.regionOrder, r.name)
	return nil
}

// Region returns the region with the given name, or nil.
func (s *Schematic) Region(name string) *Region {
	return s.regions[name]
}

// RemoveRegion detaches the named region. Returns false if absent.
func (s *Schematic) RemoveRegion(name string) bool {
	if _, ok := s.regions[name]; !ok {
		return false
	}
	delete(s.regions, name)
	s.regionOrder = slices.DeleteFunc(s.regionOrder, func(n string) bool { return n == name })
	return true
}

// RenameRegion renames a region, keeping its position in the region order.
func (s *Schematic) RenameRegion(from, to string) error {
	r, ok := s.regions[from]
	if !ok {
		return fmt.Errorf("no region named %q", from)
	}
	if _, taken := s.regions[to]; taken && from != to {
		return fmt.Errorf("duplicate region name %q", to)
	}
	delete(s.regions, from)
	r.name = to
	s.regions[to] = r
	for i, n := range s.regionOrder {
		if n == from {
			s.regionOrder[i] = to
		}
	}
	return nil
}

// CopyRegion duplicates the region src under the name dst.
func (s *Schematic) CopyRegion(src, dst string) (*Region, error) {
	r, ok := s.regions[src]
	if !ok {
		return nil, fmt.Errorf("no region named %q", src)
	}
	c := r.Clone()
	c.name = dst
	if err := s.AddRegion(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Regions iterates regions in insertion order.
func (s *Schematic) Regions() iter.Seq[*Region] {
	return func(yield func(*Region) bool) {
		for _, name := range s.regionOrder {
			if !yield(s.regions[name]) {
				return
			}
		}
	}
}

// RegionNames returns region names in insertion order.
func (s *Schematic) RegionNames() []string {
	return slices.Clone(s.regionOrder)
}

// RegionCount returns the number of regions.
func (s *Schematic) RegionCount() int { return len(s.regions) }

// Main returns the distinguished region: the one named "Main", or the only
// region when exactly one exists. Nil otherwise.
func (s *Schematic) Main() *Region {
	if r, ok := s.regions[MainRegion]; ok {
		return r
	}
	if len(s.regionOrder) == 1 {
		return s.regions[s.regionOrder[0]]
	}
	return nil
}

// EnsureMain returns the Main region, creating one with the given origin
// and size if the schematic has no regions yet.
func (s *Schematic) EnsureMain(origin, size [3]int) (*Region, error) {
	if r := s.Main(); r != nil {
		return r, nil
	}
	return s.CreateRegion(MainRegion, origin, size)
}

// Bounds returns the union of all region bounding boxes. ok is false when
// the schematic has no regions.
func (s *Schematic) Bounds() (bmin, bmax [3]int, ok bool) {
	first := true
	for r := range s.Regions() {
		rmin, rmax := r.Bounds()
		if first {
			bmin, bmax = rmin, rmax
			first = false
			continue
		}
		for i := range 3 {
			bmin[i] = min(bmin[i], rmin[i])
			bmax[i] = max(bmax[i], rmax[i])
		}
	}
	return bmin, bmax, !first
}

// Dimensions returns the size of the schematic's tight bounding box.
func (s *Schematic) Dimensions() (w, h, l int) {
	bmin, bmax, ok := s.Bounds()
	if !ok {
		return 0, 0, 0
	}
	return bmax[0] - bmin[0] + 1, bmax[1] - bmin[1] + 1, bmax[2] - bmin[2] + 1
}

// BlockAt returns the block at a world position, scanning regions in
// insertion order. Nil if no region covers the position or the cell is
// empty.
func (s *Schematic) BlockAt(x, y, z int) *block.State {
	for r := range s.Regions() {
		if r.Contains(x, y, z) {
			return r.BlockAt(x, y, z)
		}
	}
	return nil
}

// SetBlock sets the block in the first region covering the position.
// Returns false if no region covers it.
func (s *Schematic) SetBlock(x, y, z int, b *block.State) bool {
	for r := range s.Regions() {
		if r.Contains(x, y, z) {
			return r.SetBlock(x, y, z, b)
		}
	}
	return false
}

// BlockEntityAt returns the block entity at a world position, if any.
func (s *Schematic) BlockEntityAt(x, y, z int) *BlockEntity {
	for r := range s.Regions() {
		if r.Contains(x, y, z) {
			return r.BlockEntityAt(x, y, z)
		}
	}
	return nil
}

// TotalBlockCount returns the number of non-empty cells over all regions.
func (s *Schematic) TotalBlockCount() int {
	n := 0
	for r := range s.Regions() {
		n += r.BlockCount()
	}
	return n
}

// Entities returns a copy of the schematic's world-space entity list.
// Formats that store mobs per region keep them on the region instead.
func (s *Schematic) Entities() []*Entity {
	out := make([]*Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// AddEntity adds a world-space entity.
func (s *Schematic) AddEntity(e *Entity) {
	s.entities = append(s.entities, e)
}

// RemoveEntity removes a world-space entity.
func (s *Schematic) RemoveEntity(e *Entity) {
	for i, cur := range s.entities {
		if cur == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return
		}
	}
}

// DefinitionRegion returns the named definition region, or nil.
func (s *Schematic) DefinitionRegion(name string) *DefinitionRegion {
	return s.defRegions[name]
}

// SetDefinitionRegion attaches a definition region under the given name,
// replacing any previous one.
func (s *Schematic) SetDefinitionRegion(name string, d *DefinitionRegion) {
	s.defRegions[name] = d
}

// RemoveDefinitionRegion removes the named definition region.
func (s *Schematic) RemoveDefinitionRegion(name string) {
	delete(s.defRegions, name)
}

// DefinitionRegionNames returns the names of attached definition regions.
func (s *Schematic) DefinitionRegionNames() []string {
	names := make([]string, 0, len(s.defRegions))
	for name := range s.defRegions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Warn appends a diagnostic.
func (s *Schematic) Warn(source string, pos *[3]int, format string, args ...any) {
	s.diagnostics = append(s.diagnostics, Diagnostic{
		Source:  source,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns the collected soft warnings.
func (s *Schematic) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}

// SetExtra records an unrecognized root-level NBT field.
func (s *Schematic) SetExtra(key string, value any) {
	if s.Extra == nil {
		s.Extra = make(map[string]any)
	}
	s.Extra[key] = value
}

// Clone creates a deep copy of the schematic, safe to hand to another
// goroutine.
func (s *Schematic) Clone() *Schematic {
	c := New(s.Name)
	c.Author = s.Author
	c.Description = s.Description
	c.Created = s.Created
	c.Modified = s.Modified
	c.DataVersion = s.DataVersion
	c.LmVersion = s.LmVersion
	c.WeVersion = s.WeVersion
	for r := range s.Regions() {
		_ = c.AddRegion(r.Clone())
	}
	for name, d := range s.defRegions {
		c.defRegions[name] = d.Clone()
	}
	for _, e := range s.entities {
		c.entities = append(c.entities, e.Clone())
	}
	c.diagnostics = slices.Clone(s.diagnostics)
	if s.Extra != nil {
		c.Extra = deepCopy(s.Extra).(map[string]any)
	}
	return c
}

// Version returns the Minecraft version string corresponding to the
// schematic's data version, or "" if unknown.
func (s *Schematic) Version() string {
	switch {
	case s.DataVersion >= 4440:
		return "1.21.8"
	case s.DataVersion >= 4438:
		return "1.21.7"
	case s.DataVersion >= 4435:
		return "1.21.6"
	case s.DataVersion >= 4325:
		return "1.21.5"
	case s.DataVersion >= 4189:
		return "1.21.4"
	case s.DataVersion >= 4082:
		return "1.21.3"
	case s.DataVersion >= 4080:
		return "1.21.2"
	case s.DataVersion >= 3955:
		return "1.21.1"
	case s.DataVersion >= 3953:
		return "1.21"
	case s.DataVersion >= 3839:
		return "1.20.6"
	case s.DataVersion >= 3837:
		return "1.20.5"
	case s.DataVersion >= 3700:
		return "1.20.4"
	case s.DataVersion >= 3578:
		return "1.20.2"
	case s.DataVersion >= 3465:
		return "1.20.1"
	case s.DataVersion >= 3463:
		return "1.20"
	case s.DataVersion >= 3337:
		return "1.19.4"
	case s.DataVersion >= 3218:
		return "1.19.3"
	case s.DataVersion >= 3120:
		return "1.19.2"
	case s.DataVersion >= 3117:
		return "1.19.1"
	case s.DataVersion >= 3105:
		return "1.19"
	case s.DataVersion >= 2975:
		return "1.18.2"
	case s.DataVersion >= 2860:
		return "1.18"
	case s.DataVersion >= 2730:
		return "1.17.1"
	case s.DataVersion >= 2724:
		return "1.17"
	case s.DataVersion >= 2586:
		return "1.16.5"
	case s.DataVersion >= 2566:
		return "1.16"
	case s.DataVersion >= 2230:
		return "1.15.2"
	case s.DataVersion >= 2225:
		return "1.15"
	case s.DataVersion >= 1976:
		return "1.14.4"
	case s.DataVersion >= 1952:
		return "1.14"
	case s.DataVersion >= 1631:
		return "1.13.2"
	case s.DataVersion >= 1628:
		return "1.13.1"
	case s.DataVersion >= 1519:
		return "1.13"
	case s.DataVersion >= 1343:
		return "1.12.2"
	case s.DataVersion >= 1139:
		return "1.12"
	default:
		return ""
	}
}
