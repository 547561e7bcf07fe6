package block

import "testing"

func transformed(t *testing.T, s string, tr Transform) *State {
	t.Helper()
	out, warns := TransformState(MustParse(s), tr)
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings for %q under %s: %v", s, tr, warns)
	}
	return out
}

func TestFacingRotY90(t *testing.T) {
	cases := map[string]string{"north": "east", "east": "south", "south": "west", "west": "north"}
	for from, want := range cases {
		got := transformed(t, "minecraft:oak_stairs[facing="+from+"]", RotY90)
		if got.Properties["facing"] != want {
			t.Errorf("facing=%s under rotate_y_90 = %s, want %s", from, got.Properties["facing"], want)
		}
	}
}

func TestStairRotY90(t *testing.T) {
	got := transformed(t, "minecraft:oak_stairs[facing=north,half=bottom,shape=straight]", RotY90)
	want := MustParse("minecraft:oak_stairs[facing=east,half=bottom,shape=straight]")
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestStairFlipX(t *testing.T) {
	got := transformed(t, "minecraft:oak_stairs[facing=north,half=bottom,shape=straight]", FlipX)
	if got.Properties["facing"] != "north" {
		t.Errorf("north should be preserved under flip_x, got %s", got.Properties["facing"])
	}
	got = transformed(t, "minecraft:oak_stairs[facing=east,half=bottom,shape=inner_left]", FlipX)
	if got.Properties["facing"] != "west" {
		t.Errorf("east under flip_x = %s, want west", got.Properties["facing"])
	}
	if got.Properties["shape"] != "inner_right" {
		t.Errorf("inner_left under flip_x = %s, want inner_right", got.Properties["shape"])
	}
}

func TestSignRotation(t *testing.T) {
	got := transformed(t, "minecraft:oak_sign[rotation=4]", RotY90)
	if got.Properties["rotation"] != "8" {
		t.Errorf("rotation=4 under rotate_y_90 = %s, want 8", got.Properties["rotation"])
	}
	got = transformed(t, "minecraft:oak_sign[rotation=15]", RotY90)
	if got.Properties["rotation"] != "3" {
		t.Errorf("rotation=15 under rotate_y_90 = %s, want 3", got.Properties["rotation"])
	}
	got = transformed(t, "minecraft:oak_sign[rotation=3]", FlipX)
	if got.Properties["rotation"] != "13" {
		t.Errorf("rotation=3 under flip_x = %s, want 13", got.Properties["rotation"])
	}
}

func TestAxis(t *testing.T) {
	got := transformed(t, "minecraft:oak_log[axis=x]", RotY90)
	if got.Properties["axis"] != "z" {
		t.Errorf("axis=x under rotate_y_90 = %s, want z", got.Properties["axis"])
	}
	got = transformed(t, "minecraft:oak_log[axis=y]", RotY90)
	if got.Properties["axis"] != "y" {
		t.Errorf("axis=y under rotate_y_90 = %s, want y", got.Properties["axis"])
	}
	got = transformed(t, "minecraft:oak_log[axis=y]", RotX90)
	if got.Properties["axis"] != "z" {
		t.Errorf("axis=y under rotate_x_90 = %s, want z", got.Properties["axis"])
	}
}

func TestConnectionKeys(t *testing.T) {
	got := transformed(t, "minecraft:oak_fence[east=false,north=true,south=false,west=false]", RotY90)
	if got.Properties["east"] != "true" {
		t.Errorf("north=true should move to east under rotate_y_90: %v", got.Properties)
	}
	if got.Properties["north"] != "false" {
		t.Errorf("west=false should move to north: %v", got.Properties)
	}
}

func TestRailShapes(t *testing.T) {
	cases := []struct {
		in, want string
		tr       Transform
	}{
		{"north_south", "east_west", RotY90},
		{"east_west", "north_south", RotY90},
		{"ascending_north", "ascending_east", RotY90},
		{"south_east", "south_west", RotY90},
		{"south_east", "south_west", FlipX},
		{"ascending_east", "ascending_west", FlipX},
		{"north_south", "north_south", FlipX},
	}
	for _, c := range cases {
		got := transformed(t, "minecraft:rail[shape="+c.in+"]", c.tr)
		if got.Properties["shape"] != c.want {
			t.Errorf("shape=%s under %s = %s, want %s", c.in, c.tr, got.Properties["shape"], c.want)
		}
	}
}

func TestDoorHingeAndHalf(t *testing.T) {
	got := transformed(t, "minecraft:oak_door[facing=north,half=lower,hinge=left]", FlipX)
	if got.Properties["hinge"] != "right" {
		t.Errorf("hinge=left under flip_x = %s", got.Properties["hinge"])
	}
	if got.Properties["half"] != "lower" {
		t.Errorf("half should survive a horizontal flip: %s", got.Properties["half"])
	}
	got = transformed(t, "minecraft:oak_door[half=lower]", FlipY)
	if got.Properties["half"] != "upper" {
		t.Errorf("half=lower under flip_y = %s", got.Properties["half"])
	}
}

func TestChestType(t *testing.T) {
	got := transformed(t, "minecraft:chest[facing=north,type=left]", FlipX)
	if got.Properties["type"] != "right" {
		t.Errorf("type=left under flip_x = %s", got.Properties["type"])
	}
	got = transformed(t, "minecraft:chest[facing=north,type=single]", FlipX)
	if got.Properties["type"] != "single" {
		t.Errorf("type=single should be invariant: %s", got.Properties["type"])
	}
}

func TestSlabTypeFlipY(t *testing.T) {
	got := transformed(t, "minecraft:oak_slab[type=bottom]", FlipY)
	if got.Properties["type"] != "top" {
		t.Errorf("type=bottom under flip_y = %s", got.Properties["type"])
	}
}

func TestFacingUpDown(t *testing.T) {
	got := transformed(t, "minecraft:observer[facing=up]", FlipY)
	if got.Properties["facing"] != "down" {
		t.Errorf("facing=up under flip_y = %s", got.Properties["facing"])
	}
	got = transformed(t, "minecraft:piston[facing=up]", RotY90)
	if got.Properties["facing"] != "up" {
		t.Errorf("facing=up should survive rotate_y_90: %s", got.Properties["facing"])
	}
}

func TestUnknownValuePassthrough(t *testing.T) {
	out, warns := TransformState(MustParse("minecraft:oak_stairs[facing=sideways]"), RotY90)
	if out.Properties["facing"] != "sideways" {
		t.Errorf("unknown value changed: %s", out.Properties["facing"])
	}
	if len(warns) != 1 {
		t.Errorf("want 1 warning, got %v", warns)
	}
}

func TestRotY90Involution(t *testing.T) {
	s := MustParse("minecraft:oak_stairs[facing=north,half=top,shape=outer_right]")
	cur := s.Clone()
	for range 4 {
		cur, _ = TransformState(cur, RotY90)
	}
	if !cur.Equal(s) {
		t.Errorf("four quarter turns changed the state: %s", cur)
	}

	cur, _ = TransformState(s, FlipX)
	cur, _ = TransformState(cur, FlipX)
	if !cur.Equal(s) {
		t.Errorf("double flip changed the state: %s", cur)
	}
}

func TestDims(t *testing.T) {
	w, h, l := RotY90.Dims(3, 4, 5)
	if w != 5 || h != 4 || l != 3 {
		t.Errorf("rotate_y_90 dims = %d %d %d", w, h, l)
	}
	w, h, l = FlipZ.Dims(3, 4, 5)
	if w != 3 || h != 4 || l != 5 {
		t.Errorf("flip_z dims = %d %d %d", w, h, l)
	}
}

func TestPosRoundTrip(t *testing.T) {
	const w, h, l = 3, 4, 5
	for _, tr := range []Transform{FlipX, FlipY, FlipZ, RotY180, RotX180, RotZ180} {
		nw, nh, nl := tr.Dims(w, h, l)
		x, y, z := tr.Pos(1, 2, 3, w, h, l)
		rx, ry, rz := tr.Pos(x, y, z, nw, nh, nl)
		if rx != 1 || ry != 2 || rz != 3 {
			t.Errorf("%s applied twice moved (1,2,3) to (%d,%d,%d)", tr, rx, ry, rz)
		}
	}
}

func TestBedrockNameTable(t *testing.T) {
	java, ok := BedrockToJava("minecraft:concretePowder")
	if !ok || java != "minecraft:white_concrete_powder" {
		t.Errorf("concretePowder = %q, %v", java, ok)
	}
	// Shared names pass through.
	if name, _ := BedrockToJava("minecraft:stone"); name != "minecraft:stone" {
		t.Errorf("stone = %q", name)
	}
	back, _ := JavaToBedrock("minecraft:grass_block")
	if back != "minecraft:grass" {
		t.Errorf("grass_block = %q", back)
	}
}
