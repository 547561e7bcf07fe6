package format_test

import (
	"bytes"
	"testing"

	"github.com/schem-at/nucleation/block"
	"github.com/schem-at/nucleation/format"
	"github.com/schem-at/nucleation/schematic"
)

// buildSample constructs the reference schematic: a 16x4x16 region with a
// stone floor and a sign with attached block-entity data.
func buildSample(t *testing.T) *schematic.Schematic {
	t.Helper()
	s := schematic.New("test")
	s.Author = "nucleation"
	s.DataVersion = 3465

	r, err := s.CreateRegion(schematic.MainRegion, [3]int{0, 0, 0}, [3]int{16, 4, 16})
	if err != nil {
		t.Fatal(err)
	}
	r.Fill([3]int{0, 0, 0}, [3]int{15, 0, 15}, block.MustParse("minecraft:stone"))
	r.SetBlock(2, 1, 2, block.MustParse("minecraft:oak_sign[rotation=4]"))
	r.SetBlockEntity(2, 1, 2, &schematic.BlockEntity{
		ID:   "minecraft:sign",
		Data: map[string]any{"Text1": "hello"},
	})
	return s
}

// checkSample verifies the §buildSample content after a round-trip.
func checkSample(t *testing.T, s *schematic.Schematic) {
	t.Helper()
	w, h, l := s.Dimensions()
	if w != 16 || h != 4 || l != 16 {
		t.Fatalf("dimensions = %d %d %d", w, h, l)
	}
	for x := range 16 {
		for z := range 16 {
			b := s.BlockAt(x, 0, z)
			if b == nil || b.Name != "minecraft:stone" {
				t.Fatalf("floor missing at (%d,0,%d): %v", x, z, b)
			}
		}
	}
	sign := s.BlockAt(2, 1, 2)
	if sign == nil || sign.Name != "minecraft:oak_sign" {
		t.Fatalf("sign missing: %v", sign)
	}
	if sign.Properties["rotation"] != "4" {
		t.Errorf("sign rotation = %q, want 4", sign.Properties["rotation"])
	}
	be := s.BlockEntityAt(2, 1, 2)
	if be == nil {
		t.Fatal("sign block entity missing")
	}
	if be.Data["Text1"] != "hello" {
		t.Errorf("Text1 = %v, want hello", be.Data["Text1"])
	}
}

func roundTrip(t *testing.T, formatID string) *schematic.Schematic {
	t.Helper()
	src := buildSample(t)

	var buf bytes.Buffer
	if err := format.WriteFormat(&buf, formatID, src); err != nil {
		t.Fatalf("write %s: %v", formatID, err)
	}

	detected, err := format.Detect(buf.Bytes())
	if err != nil {
		t.Fatalf("detect %s: %v", formatID, err)
	}
	if detected != formatID {
		t.Errorf("detected %q, want %q", detected, formatID)
	}

	got, err := format.ReadFormat(bytes.NewReader(buf.Bytes()), formatID)
	if err != nil {
		t.Fatalf("read %s: %v", formatID, err)
	}
	return got
}

func TestRoundTripLitematic(t *testing.T) {
	got := roundTrip(t, "litematic")
	checkSample(t, got)
	if got.Name != "test" || got.Author != "nucleation" {
		t.Errorf("metadata lost: %q by %q", got.Name, got.Author)
	}
	if got.DataVersion != 3465 {
		t.Errorf("data version = %d", got.DataVersion)
	}
}

func TestRoundTripSpongeV1(t *testing.T) {
	checkSample(t, roundTrip(t, "sponge_v1"))
}

func TestRoundTripSpongeV2(t *testing.T) {
	got := roundTrip(t, "sponge_v2")
	checkSample(t, got)
	if got.WeVersion != 2 {
		t.Errorf("we version = %d", got.WeVersion)
	}
}

func TestRoundTripSpongeV3(t *testing.T) {
	checkSample(t, roundTrip(t, "sponge_v3"))
}

func TestRoundTripMCStructure(t *testing.T) {
	checkSample(t, roundTrip(t, "mcstructure"))
}

// TestSpongeVersionsAgree saves the same schematic as v2 (VarInt payload)
// and v3 (packed long payload) and checks both re-import identically.
func TestSpongeVersionsAgree(t *testing.T) {
	v2 := roundTrip(t, "sponge_v2")
	v3 := roundTrip(t, "sponge_v3")

	amin, amax, _ := v2.Bounds()
	bmin, bmax, _ := v3.Bounds()
	if amin != bmin || amax != bmax {
		t.Fatalf("bounds differ: %v..%v vs %v..%v", amin, amax, bmin, bmax)
	}
	for y := amin[1]; y <= amax[1]; y++ {
		for z := amin[2]; z <= amax[2]; z++ {
			for x := amin[0]; x <= amax[0]; x++ {
				a := v2.BlockAt(x, y, z)
				b := v3.BlockAt(x, y, z)
				if (a == nil) != (b == nil) || (a != nil && !a.Equal(b)) {
					t.Fatalf("blocks differ at (%d,%d,%d): %v vs %v", x, y, z, a, b)
				}
			}
		}
	}
}

func TestRoundTripEntities(t *testing.T) {
	src := buildSample(t)
	src.AddEntity(&schematic.Entity{
		ID:   "minecraft:armor_stand",
		Pos:  [3]float64{1.5, 1, 1.5},
		Data: map[string]any{},
	})

	var buf bytes.Buffer
	if err := format.WriteFormat(&buf, "sponge_v2", src); err != nil {
		t.Fatal(err)
	}
	got, err := format.ReadFormat(&buf, "sponge_v2")
	if err != nil {
		t.Fatal(err)
	}
	ents := got.Entities()
	if len(ents) != 1 {
		t.Fatalf("entity count = %d", len(ents))
	}
	if ents[0].ID != "minecraft:armor_stand" || ents[0].Pos != [3]float64{1.5, 1, 1.5} {
		t.Errorf("entity = %+v", ents[0])
	}
}

func TestRoundTripLitematicEntities(t *testing.T) {
	src := buildSample(t)
	src.Region(schematic.MainRegion).AddEntity(&schematic.Entity{
		ID:   "minecraft:item_frame",
		Pos:  [3]float64{3.5, 1, 3.5},
		Data: map[string]any{},
	})

	var buf bytes.Buffer
	if err := format.WriteFormat(&buf, "litematic", src); err != nil {
		t.Fatal(err)
	}
	got, err := format.ReadFormat(&buf, "litematic")
	if err != nil {
		t.Fatal(err)
	}
	ents := got.Region(schematic.MainRegion).Entities()
	if len(ents) != 1 || ents[0].ID != "minecraft:item_frame" {
		t.Fatalf("entities = %+v", ents)
	}
	if ents[0].Pos != [3]float64{3.5, 1, 3.5} {
		t.Errorf("entity pos = %v", ents[0].Pos)
	}
}

func TestLitematicMultiRegion(t *testing.T) {
	src := schematic.New("multi")
	src.DataVersion = 3465
	a, _ := src.CreateRegion("a", [3]int{0, 0, 0}, [3]int{2, 2, 2})
	b, _ := src.CreateRegion("b", [3]int{10, 0, 0}, [3]int{2, 2, 2})
	a.SetBlock(0, 0, 0, block.MustParse("minecraft:stone"))
	b.SetBlock(11, 1, 1, block.MustParse("minecraft:dirt"))

	var buf bytes.Buffer
	if err := format.WriteFormat(&buf, "litematic", src); err != nil {
		t.Fatal(err)
	}
	got, err := format.ReadFormat(&buf, "litematic")
	if err != nil {
		t.Fatal(err)
	}
	if got.RegionCount() != 2 {
		t.Fatalf("region count = %d", got.RegionCount())
	}
	if s := got.BlockAt(0, 0, 0); s == nil || s.Name != "minecraft:stone" {
		t.Errorf("region a content lost: %v", s)
	}
	if s := got.BlockAt(11, 1, 1); s == nil || s.Name != "minecraft:dirt" {
		t.Errorf("region b content lost: %v", s)
	}
}

func TestMCStructureWaterlogged(t *testing.T) {
	src := schematic.New("wl")
	r, _ := src.CreateRegion(schematic.MainRegion, [3]int{0, 0, 0}, [3]int{2, 1, 1})
	r.SetBlock(0, 0, 0, block.MustParse("minecraft:oak_fence[waterlogged=true]"))

	var buf bytes.Buffer
	if err := format.WriteFormat(&buf, "mcstructure", src); err != nil {
		t.Fatal(err)
	}
	got, err := format.ReadFormat(&buf, "mcstructure")
	if err != nil {
		t.Fatal(err)
	}
	b := got.BlockAt(0, 0, 0)
	if b == nil || b.Properties["waterlogged"] != "true" {
		t.Errorf("waterlogged lost: %v", b)
	}
}

func TestAutoDetectRead(t *testing.T) {
	src := buildSample(t)
	for _, formatID := range []string{"litematic", "sponge_v2", "mcstructure"} {
		var buf bytes.Buffer
		if err := format.WriteFormat(&buf, formatID, src); err != nil {
			t.Fatalf("write %s: %v", formatID, err)
		}
		got, err := format.Read(&buf)
		if err != nil {
			t.Fatalf("auto read %s: %v", formatID, err)
		}
		checkSample(t, got)
	}
}

func TestDetectRejectsGarbage(t *testing.T) {
	if _, err := format.Detect([]byte{1, 2, 3, 4, 5, 6, 7, 8}); err == nil {
		t.Error("garbage detected as a format")
	}
	if _, err := format.Detect([]byte{1}); err == nil {
		t.Error("tiny input detected as a format")
	}
}
