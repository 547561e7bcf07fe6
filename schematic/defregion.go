package schematic

import (
	"maps"
	"slices"

	"github.com/schem-at/nucleation/block"
)

// Box is an inclusive axis-aligned box of integer positions.
type Box struct {
	Min, Max [3]int
}

// NewBox creates a box from two opposite corners in any order.
func NewBox(a, b [3]int) Box {
	var box Box
	for i := range 3 {
		box.Min[i] = min(a[i], b[i])
		box.Max[i] = max(a[i], b[i])
	}
	return box
}

// Volume returns the number of positions in the box.
func (b Box) Volume() int {
	return (b.Max[0] - b.Min[0] + 1) * (b.Max[1] - b.Min[1] + 1) * (b.Max[2] - b.Min[2] + 1)
}

// Contains reports whether the position lies inside the box.
func (b Box) Contains(p [3]int) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Intersect returns the overlap of two boxes. ok is false if they are
// disjoint.
func (b Box) Intersect(o Box) (Box, bool) {
	var out Box
	for i := range 3 {
		out.Min[i] = max(b.Min[i], o.Min[i])
		out.Max[i] = min(b.Max[i], o.Max[i])
		if out.Min[i] > out.Max[i] {
			return Box{}, false
		}
	}
	return out, true
}

// subtractBox slices a against b, returning the parts of a outside b.
// Produces at most 6 residual slabs.
func subtractBox(a, b Box) []Box {
	overlap, ok := a.Intersect(b)
	if !ok {
		return []Box{a}
	}
	if overlap == a {
		return nil
	}
	var out []Box
	rest := a
	for axis := range 3 {
		if rest.Min[axis] < overlap.Min[axis] {
			low := rest
			low.Max[axis] = overlap.Min[axis] - 1
			out = append(out, low)
			rest.Min[axis] = overlap.Min[axis]
		}
		if rest.Max[axis] > overlap.Max[axis] {
			high := rest
			high.Min[axis] = overlap.Max[axis] + 1
			out = append(out, high)
			rest.Max[axis] = overlap.Max[axis]
		}
	}
	return out
}

// mergeable reports whether two disjoint boxes share a full face and can
// be replaced by their union.
func mergeable(a, b Box) (Box, bool) {
	matched := -1
	for axis := range 3 {
		if a.Min[axis] == b.Min[axis] && a.Max[axis] == b.Max[axis] {
			continue
		}
		if matched != -1 {
			return Box{}, false
		}
		matched = axis
	}
	if matched == -1 {
		// Identical boxes.
		return a, true
	}
	if a.Max[matched]+1 == b.Min[matched] || b.Max[matched]+1 == a.Min[matched] {
		var out Box
		out = a
		out.Min[matched] = min(a.Min[matched], b.Min[matched])
		out.Max[matched] = max(a.Max[matched], b.Max[matched])
		return out, true
	}
	return Box{}, false
}

// faceAdjacent reports whether two disjoint boxes touch along a face.
func faceAdjacent(a, b Box) bool {
	touch := -1
	for axis := range 3 {
		if a.Max[axis]+1 == b.Min[axis] || b.Max[axis]+1 == a.Min[axis] {
			if touch != -1 {
				return false
			}
			touch = axis
			continue
		}
		if a.Max[axis] < b.Min[axis] || b.Max[axis] < a.Min[axis] {
			return false
		}
	}
	return touch != -1
}

// DefinitionRegion is a finite set of integer positions represented as a
// union of disjoint axis-aligned boxes, with optional metadata, a display
// color and block-name filters.
type DefinitionRegion struct {
	boxes []Box

	Metadata     map[string]string
	Color        uint32 // 0xRRGGBBAA display color
	BlockFilters []string

	points map[[3]int]struct{} // lazy membership cache
}

// NewDefinitionRegion creates an empty definition region.
func NewDefinitionRegion() *DefinitionRegion {
	return &DefinitionRegion{Metadata: make(map[string]string)}
}

// FromBounds creates a definition region covering one box.
func FromBounds(a, b [3]int) *DefinitionRegion {
	d := NewDefinitionRegion()
	d.AddBounds(a, b)
	return d
}

// FromPoints creates a definition region from individual positions.
func FromPoints(points ...[3]int) *DefinitionRegion {
	d := NewDefinitionRegion()
	for _, p := range points {
		d.AddPoint(p)
	}
	d.Simplify()
	return d
}

// FromRegionBlocks creates a definition region of every cell in r whose
// block name matches.
func FromRegionBlocks(r *Region, name string) *DefinitionRegion {
	d := NewDefinitionRegion()
	d.BlockFilters = []string{name}
	for pos, s := range r.Blocks() {
		if s.Name == name {
			d.AddPoint(pos)
		}
	}
	d.Simplify()
	return d
}

// FromRegionProperties creates a definition region of every cell in r
// whose state carries all the given property values.
func FromRegionProperties(r *Region, props map[string]string) *DefinitionRegion {
	d := NewDefinitionRegion()
	for pos, s := range r.Blocks() {
		match := true
		for k, v := range props {
			if s.Properties[k] != v {
				match = false
				break
			}
		}
		if match {
			d.AddPoint(pos)
		}
	}
	d.Simplify()
	return d
}

// addDisjoint inserts a box minus the parts already covered, keeping the
// internal box list pairwise disjoint.
func (d *DefinitionRegion) addDisjoint(b Box) {
	pieces := []Box{b}
	for _, existing := range d.boxes {
		var next []Box
		for _, p := range pieces {
			next = append(next, subtractBox(p, existing)...)
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	d.boxes = append(d.boxes, pieces...)
	d.points = nil
}

// AddBounds adds all positions of the box spanned by two corners.
func (d *DefinitionRegion) AddBounds(a, b [3]int) {
	d.addDisjoint(NewBox(a, b))
}

// AddPoint adds a single position.
func (d *DefinitionRegion) AddPoint(p [3]int) {
	d.addDisjoint(Box{Min: p, Max: p})
}

// Merge adds every position of the other region.
func (d *DefinitionRegion) Merge(o *DefinitionRegion) {
	for _, b := range o.boxes {
		d.addDisjoint(b)
	}
	d.Simplify()
}

// Boxes returns the disjoint boxes making up the region.
func (d *DefinitionRegion) Boxes() []Box {
	return slices.Clone(d.boxes)
}

// Simplify greedily merges boxes that share a full face until no pair can
// be merged. Idempotent.
func (d *DefinitionRegion) Simplify() {
	merged := true
	for merged {
		merged = false
		for i := 0; i < len(d.boxes) && !merged; i++ {
			for j := i + 1; j < len(d.boxes); j++ {
				if m, ok := mergeable(d.boxes[i], d.boxes[j]); ok {
					d.boxes[i] = m
					d.boxes = slices.Delete(d.boxes, j, j+1)
					merged = true
					break
				}
			}
		}
	}
	d.points = nil
}

// Contains reports whether the position is in the region. The first call
// after a mutation rebuilds the point cache.
func (d *DefinitionRegion) Contains(p [3]int) bool {
	if d.points == nil {
		d.points = make(map[[3]int]struct{})
		for _, b := range d.boxes {
			for x := b.Min[0]; x <= b.Max[0]; x++ {
				for y := b.Min[1]; y <= b.Max[1]; y++ {
					for z := b.Min[2]; z <= b.Max[2]; z++ {
						d.points[[3]int{x, y, z}] = struct{}{}
					}
				}
			}
		}
	}
	_, ok := d.points[p]
	return ok
}

// Volume returns the number of distinct positions in the region.
func (d *DefinitionRegion) Volume() int {
	n := 0
	for _, b := range d.boxes {
		n += b.Volume()
	}
	return n
}

// Union returns a new region holding every position of either input.
func (d *DefinitionRegion) Union(o *DefinitionRegion) *DefinitionRegion {
	out := d.Clone()
	out.Merge(o)
	return out
}

// IntersectWith returns a new region holding positions present in both
// inputs.
func (d *DefinitionRegion) IntersectWith(o *DefinitionRegion) *DefinitionRegion {
	out := NewDefinitionRegion()
	for _, a := range d.boxes {
		for _, b := range o.boxes {
			if overlap, ok := a.Intersect(b); ok {
				out.boxes = append(out.boxes, overlap)
			}
		}
	}
	out.Simplify()
	return out
}

// SubtractFrom returns a new region holding positions of d not in o.
func (d *DefinitionRegion) SubtractFrom(o *DefinitionRegion) *DefinitionRegion {
	out := NewDefinitionRegion()
	for _, a := range d.boxes {
		pieces := []Box{a}
		for _, b := range o.boxes {
			var next []Box
			for _, p := range pieces {
				next = append(next, subtractBox(p, b)...)
			}
			pieces = next
			if len(pieces) == 0 {
				break
			}
		}
		out.boxes = append(out.boxes, pieces...)
	}
	out.Simplify()
	return out
}

// ConnectedComponents returns the number of face-connected components of
// the region.
func (d *DefinitionRegion) ConnectedComponents() int {
	n := len(d.boxes)
	if n == 0 {
		return 0
	}
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if faceAdjacent(d.boxes[i], d.boxes[j]) {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[ri] = rj
				}
			}
		}
	}
	comps := 0
	for i := range n {
		if find(i) == i {
			comps++
		}
	}
	return comps
}

// IsContiguous reports whether the region forms a single face-connected
// component.
func (d *DefinitionRegion) IsContiguous() bool {
	return d.ConnectedComponents() == 1
}

// FilterBlocks restricts the region to positions whose block in r matches
// one of the region's block filters. A region with no filters is returned
// unchanged.
func (d *DefinitionRegion) FilterBlocks(r *Region) *DefinitionRegion {
	if len(d.BlockFilters) == 0 {
		return d.Clone()
	}
	allowed := make(map[string]bool, len(d.BlockFilters))
	for _, n := range d.BlockFilters {
		allowed[n] = true
	}
	out := NewDefinitionRegion()
	out.BlockFilters = slices.Clone(d.BlockFilters)
	for _, b := range d.boxes {
		for x := b.Min[0]; x <= b.Max[0]; x++ {
			for y := b.Min[1]; y <= b.Max[1]; y++ {
				for z := b.Min[2]; z <= b.Max[2]; z++ {
					if s := r.BlockAt(x, y, z); s != nil && allowed[s.Name] {
						out.AddPoint([3]int{x, y, z})
					}
				}
			}
		}
	}
	out.Simplify()
	return out
}

// Blocks returns the distinct block states of r at the region's positions.
func (d *DefinitionRegion) Blocks(r *Region) []*block.State {
	seen := make(map[string]*block.State)
	for _, b := range d.boxes {
		for x := b.Min[0]; x <= b.Max[0]; x++ {
			for y := b.Min[1]; y <= b.Max[1]; y++ {
				for z := b.Min[2]; z <= b.Max[2]; z++ {
					if s := r.BlockAt(x, y, z); s != nil {
						seen[s.Key()] = s
					}
				}
			}
		}
	}
	out := make([]*block.State, 0, len(seen))
	for _, k := range slices.Sorted(maps.Keys(seen)) {
		out = append(out, seen[k])
	}
	return out
}

// Clone creates a deep copy.
func (d *DefinitionRegion) Clone() *DefinitionRegion {
	c := NewDefinitionRegion()
	c.boxes = slices.Clone(d.boxes)
	maps.Copy(c.Metadata, d.Metadata)
	c.Color = d.Color
	c.BlockFilters = slices.Clone(d.BlockFilters)
	return c
}
