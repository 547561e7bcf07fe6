package schematic

import (
	"testing"

	"github.com/schem-at/nucleation/block"
)

func mustRegion(t *testing.T, name string, origin, size [3]int) *Region {
	t.Helper()
	r, err := NewRegion(name, origin, size)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegionSetGet(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{10, 0, -5}, [3]int{4, 3, 4})
	stone := block.MustParse("minecraft:stone")

	if !r.SetBlock(11, 1, -4, stone) {
		t.Fatal("in-bounds set failed")
	}
	got := r.BlockAt(11, 1, -4)
	if got == nil || got.Name != "minecraft:stone" {
		t.Fatalf("got %v", got)
	}
	if r.BlockAt(10, 0, -5) != nil {
		t.Error("empty cell returned a block")
	}
	if r.BlockAt(100, 0, 0) != nil {
		t.Error("out-of-bounds returned a block")
	}
	if r.SetBlock(100, 0, 0, stone) {
		t.Error("out-of-bounds set succeeded")
	}

	// Clearing restores empty.
	r.SetBlock(11, 1, -4, nil)
	if r.BlockAt(11, 1, -4) != nil {
		t.Error("cleared cell still has a block")
	}
}

func TestRegionNegativeSize(t *testing.T) {
	// A region growing in -x from its origin, Litematica style.
	r := mustRegion(t, "neg", [3]int{0, 0, 0}, [3]int{-3, 2, 2})
	bmin, bmax := r.Bounds()
	if bmin != [3]int{-2, 0, 0} || bmax != [3]int{0, 1, 1} {
		t.Fatalf("bounds = %v..%v", bmin, bmax)
	}
	if r.Volume() != 12 {
		t.Errorf("volume = %d", r.Volume())
	}

	stone := block.MustParse("minecraft:stone")
	for x := -2; x <= 0; x++ {
		if !r.SetBlock(x, 0, 0, stone) {
			t.Fatalf("set at x=%d failed", x)
		}
	}
	for x := -2; x <= 0; x++ {
		if r.BlockAt(x, 0, 0) == nil {
			t.Errorf("block missing at x=%d", x)
		}
	}
	if r.BlockAt(1, 0, 0) != nil {
		t.Error("block beyond origin present")
	}

	r.Normalize()
	if r.Size() != [3]int{3, 2, 2} {
		t.Errorf("normalized size = %v", r.Size())
	}
	for x := -2; x <= 0; x++ {
		if r.BlockAt(x, 0, 0) == nil {
			t.Errorf("normalize moved block at x=%d", x)
		}
	}
}

func TestRegionFill(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{16, 4, 16})
	stone := block.MustParse("minecraft:stone")
	r.Fill([3]int{0, 0, 0}, [3]int{15, 0, 15}, stone)

	if r.BlockCount() != 256 {
		t.Errorf("block count = %d, want 256", r.BlockCount())
	}
	if r.BlockAt(15, 0, 15) == nil || r.BlockAt(0, 1, 0) != nil {
		t.Error("fill wrote the wrong cells")
	}

	// Fill clamps to the region.
	r.Fill([3]int{-10, 1, -10}, [3]int{2, 1, 2}, stone)
	if r.BlockAt(0, 1, 0) == nil || r.BlockAt(2, 1, 2) == nil {
		t.Error("clamped fill missed cells")
	}
}

func TestRegionFillSphere(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{9, 9, 9})
	stone := block.MustParse("minecraft:stone")
	r.FillSphere([3]int{4, 4, 4}, 2, stone)
	if r.BlockAt(4, 4, 4) == nil || r.BlockAt(4, 4, 6) == nil {
		t.Error("sphere missing center or surface cell")
	}
	if r.BlockAt(4, 4, 7) != nil || r.BlockAt(6, 6, 6) != nil {
		t.Error("sphere wrote outside the radius")
	}
}

func TestCompactPalette(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{2, 1, 1})
	stone := block.MustParse("minecraft:stone")
	dirt := block.MustParse("minecraft:dirt")

	r.SetBlock(0, 0, 0, stone)
	r.SetBlock(1, 0, 0, dirt)
	r.SetBlock(0, 0, 0, nil) // stone becomes unused
	if r.Palette().Size() != 3 {
		t.Fatalf("palette size before compact = %d", r.Palette().Size())
	}

	r.CompactPalette()
	if r.Palette().Size() != 2 {
		t.Errorf("palette size after compact = %d", r.Palette().Size())
	}
	got := r.BlockAt(1, 0, 0)
	if got == nil || got.Name != "minecraft:dirt" {
		t.Errorf("dirt lost in compaction: %v", got)
	}
	if !r.Palette().Get(0).IsAir() {
		t.Error("empty block displaced from index 0")
	}
}

func TestBlockEntities(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{0, 0, 0}, [3]int{4, 4, 4})
	be := &BlockEntity{ID: "minecraft:chest", Data: map[string]any{"Items": []any{}}}
	if !r.SetBlockEntity(1, 2, 3, be) {
		t.Fatal("set block entity failed")
	}
	got := r.BlockEntityAt(1, 2, 3)
	if got == nil || got.ID != "minecraft:chest" {
		t.Fatalf("got %v", got)
	}
	r.SetBlockEntity(1, 2, 3, nil)
	if r.BlockEntityAt(1, 2, 3) != nil {
		t.Error("block entity not removed")
	}
}

func TestBlocksIterator(t *testing.T) {
	r := mustRegion(t, "Main", [3]int{5, 5, 5}, [3]int{2, 2, 2})
	stone := block.MustParse("minecraft:stone")
	r.SetBlock(5, 5, 5, stone)
	r.SetBlock(6, 6, 6, stone)

	n := 0
	for pos, s := range r.Blocks() {
		if s.Name != "minecraft:stone" {
			t.Errorf("unexpected state at %v: %s", pos, s)
		}
		n++
	}
	if n != 2 {
		t.Errorf("iterated %d blocks, want 2", n)
	}
}

func TestSchematicRegions(t *testing.T) {
	s := New("test")
	if _, err := s.CreateRegion("a", [3]int{0, 0, 0}, [3]int{2, 2, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateRegion("a", [3]int{0, 0, 0}, [3]int{2, 2, 2}); err == nil {
		t.Error("duplicate region name accepted")
	}
	if _, err := s.CreateRegion("b", [3]int{4, 0, 0}, [3]int{2, 2, 2}); err != nil {
		t.Fatal(err)
	}

	bmin, bmax, ok := s.Bounds()
	if !ok || bmin != [3]int{0, 0, 0} || bmax != [3]int{5, 1, 1} {
		t.Errorf("bounds = %v..%v ok=%v", bmin, bmax, ok)
	}
	w, h, l := s.Dimensions()
	if w != 6 || h != 2 || l != 2 {
		t.Errorf("dimensions = %d %d %d", w, h, l)
	}

	if s.Main() != nil {
		t.Error("Main resolved with two regions and no Main name")
	}
	s.RemoveRegion("b")
	if s.Main() == nil {
		t.Error("Main nil with a single region")
	}
}

func TestSchematicClone(t *testing.T) {
	s := New("orig")
	r, _ := s.CreateRegion(MainRegion, [3]int{0, 0, 0}, [3]int{2, 2, 2})
	r.SetBlock(0, 0, 0, block.MustParse("minecraft:stone"))

	c := s.Clone()
	c.Region(MainRegion).SetBlock(0, 0, 0, block.MustParse("minecraft:dirt"))
	if got := s.BlockAt(0, 0, 0); got.Name != "minecraft:stone" {
		t.Errorf("clone mutation leaked into the original: %s", got)
	}
}
