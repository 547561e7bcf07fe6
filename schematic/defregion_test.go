package schematic

import (
	"testing"

	"github.com/schem-at/nucleation/block"
)

func TestDefinitionRegionVolume(t *testing.T) {
	d := FromBounds([3]int{0, 0, 0}, [3]int{1, 1, 1})
	if d.Volume() != 8 {
		t.Errorf("volume = %d, want 8", d.Volume())
	}
	// Overlapping add must not double count.
	d.AddBounds([3]int{1, 1, 1}, [3]int{2, 2, 2})
	if d.Volume() != 15 {
		t.Errorf("volume after overlapping add = %d, want 15", d.Volume())
	}
}

func TestDefinitionRegionContains(t *testing.T) {
	d := FromBounds([3]int{0, 0, 0}, [3]int{2, 0, 0})
	if !d.Contains([3]int{1, 0, 0}) {
		t.Error("contained point missing")
	}
	if d.Contains([3]int{3, 0, 0}) {
		t.Error("outside point contained")
	}
	d.AddPoint([3]int{3, 0, 0})
	if !d.Contains([3]int{3, 0, 0}) {
		t.Error("added point missing (cache not invalidated)")
	}
}

func TestSimplifyMergesFaces(t *testing.T) {
	d := NewDefinitionRegion()
	d.AddBounds([3]int{0, 0, 0}, [3]int{0, 1, 1})
	d.AddBounds([3]int{1, 0, 0}, [3]int{1, 1, 1})
	d.Simplify()
	if len(d.Boxes()) != 1 {
		t.Errorf("boxes after simplify = %d, want 1", len(d.Boxes()))
	}
	if d.Volume() != 8 {
		t.Errorf("volume = %d, want 8", d.Volume())
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	d := FromPoints([3]int{0, 0, 0}, [3]int{1, 0, 0}, [3]int{0, 1, 0}, [3]int{5, 5, 5})
	d.Simplify()
	boxes := len(d.Boxes())
	vol := d.Volume()
	d.Simplify()
	if len(d.Boxes()) != boxes || d.Volume() != vol {
		t.Errorf("simplify is not idempotent: %d/%d boxes, %d/%d volume",
			boxes, len(d.Boxes()), vol, d.Volume())
	}
}

func TestSetAlgebra(t *testing.T) {
	a := FromBounds([3]int{0, 0, 0}, [3]int{3, 0, 0})
	b := FromBounds([3]int{2, 0, 0}, [3]int{5, 0, 0})

	union := a.Union(b)
	inter := a.IntersectWith(b)
	diff := a.SubtractFrom(b)

	if union.Volume() != 6 {
		t.Errorf("union volume = %d, want 6", union.Volume())
	}
	if inter.Volume() != 2 {
		t.Errorf("intersection volume = %d, want 2", inter.Volume())
	}
	if diff.Volume() != 2 {
		t.Errorf("difference volume = %d, want 2", diff.Volume())
	}

	// Inclusion-exclusion.
	if union.Volume() != a.Volume()+b.Volume()-inter.Volume() {
		t.Error("inclusion-exclusion violated")
	}
	if diff.Contains([3]int{2, 0, 0}) || !diff.Contains([3]int{1, 0, 0}) {
		t.Error("difference has the wrong membership")
	}
}

func TestSubtractSlicesBoxes(t *testing.T) {
	a := FromBounds([3]int{0, 0, 0}, [3]int{2, 2, 2})
	b := FromBounds([3]int{1, 1, 1}, [3]int{1, 1, 1})
	diff := a.SubtractFrom(b)
	if diff.Volume() != 26 {
		t.Errorf("hollowed cube volume = %d, want 26", diff.Volume())
	}
	if diff.Contains([3]int{1, 1, 1}) {
		t.Error("subtracted center still contained")
	}
}

func TestConnectivity(t *testing.T) {
	joined := NewDefinitionRegion()
	joined.AddBounds([3]int{0, 0, 0}, [3]int{1, 0, 0})
	joined.AddBounds([3]int{2, 0, 0}, [3]int{3, 0, 0})
	if !joined.IsContiguous() {
		t.Error("face-adjacent boxes reported disconnected")
	}

	split := NewDefinitionRegion()
	split.AddBounds([3]int{0, 0, 0}, [3]int{1, 0, 0})
	split.AddBounds([3]int{3, 0, 0}, [3]int{4, 0, 0})
	if split.IsContiguous() {
		t.Error("gap reported contiguous")
	}
	if split.ConnectedComponents() != 2 {
		t.Errorf("components = %d, want 2", split.ConnectedComponents())
	}

	// Diagonal contact is not face connectivity.
	diag := NewDefinitionRegion()
	diag.AddPoint([3]int{0, 0, 0})
	diag.AddPoint([3]int{1, 1, 0})
	if diag.IsContiguous() {
		t.Error("diagonal contact reported contiguous")
	}
}

func TestFromRegionBlocks(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{4, 1, 1})
	stone := block.MustParse("minecraft:stone")
	r.SetBlock(0, 0, 0, stone)
	r.SetBlock(2, 0, 0, stone)
	r.SetBlock(1, 0, 0, block.MustParse("minecraft:dirt"))

	d := FromRegionBlocks(r, "minecraft:stone")
	if d.Volume() != 2 {
		t.Errorf("volume = %d, want 2", d.Volume())
	}
	if !d.Contains([3]int{2, 0, 0}) || d.Contains([3]int{1, 0, 0}) {
		t.Error("wrong membership")
	}
}

func TestFromRegionProperties(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{3, 1, 1})
	r.SetBlock(0, 0, 0, block.MustParse("minecraft:oak_stairs[facing=north]"))
	r.SetBlock(1, 0, 0, block.MustParse("minecraft:oak_stairs[facing=east]"))
	r.SetBlock(2, 0, 0, block.MustParse("minecraft:birch_stairs[facing=north]"))

	d := FromRegionProperties(r, map[string]string{"facing": "north"})
	if d.Volume() != 2 {
		t.Errorf("volume = %d, want 2", d.Volume())
	}
}
