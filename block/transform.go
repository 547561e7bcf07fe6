package block

import (
	"fmt"
	"strings"
)

// Transform is one of the twelve rigid primitives applied to regions and
// block-state property values. Arbitrary compositions of these reduce to
// octahedral elements; the primitives cover every operation exposed by the
// library.
type Transform uint8

const (
	FlipX Transform = iota
	FlipY
	FlipZ
	RotY90
	RotY180
	RotY270
	RotX90
	RotX180
	RotX270
	RotZ90
	RotZ180
	RotZ270
)

// String returns the transform's name.
func (t Transform) String() string {
	switch t {
	case FlipX:
		return "flip_x"
	case FlipY:
		return "flip_y"
	case FlipZ:
		return "flip_z"
	case RotY90:
		return "rotate_y_90"
	case RotY180:
		return "rotate_y_180"
	case RotY270:
		return "rotate_y_270"
	case RotX90:
		return "rotate_x_90"
	case RotX180:
		return "rotate_x_180"
	case RotX270:
		return "rotate_x_270"
	case RotZ90:
		return "rotate_z_90"
	case RotZ180:
		return "rotate_z_180"
	case RotZ270:
		return "rotate_z_270"
	default:
		return fmt.Sprintf("transform(%d)", uint8(t))
	}
}

// matrices maps each transform to the integer matrix applied to direction
// vectors: d' = M·d, rows indexed x, y, z.
var matrices = [...][3][3]int{
	FlipX:   {{-1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	FlipY:   {{1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
	FlipZ:   {{1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	RotY90:  {{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	RotY180: {{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	RotY270: {{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}},
	RotX90:  {{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	RotX180: {{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	RotX270: {{1, 0, 0}, {0, 0, 1}, {0, -1, 0}},
	RotZ90:  {{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}},
	RotZ180: {{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
	RotZ270: {{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
}

// Matrix returns the direction matrix of the transform.
func (t Transform) Matrix() [3][3]int {
	return matrices[t]
}

// Mirror reports whether the transform inverts handedness.
func (t Transform) Mirror() bool {
	m := matrices[t]
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return det < 0
}

// FlipsY reports whether the transform sends +y to -y.
func (t Transform) FlipsY() bool {
	return matrices[t][1][1] < 0
}

// Dims returns the grid dimensions after applying the transform to a grid
// of the given dimensions.
func (t Transform) Dims(w, h, l int) (int, int, int) {
	switch t {
	case RotY90, RotY270:
		return l, h, w
	case RotX90, RotX270:
		return w, l, h
	case RotZ90, RotZ270:
		return h, w, l
	default:
		return w, h, l
	}
}

// Pos returns the local position of a cell after applying the transform to
// a grid of dimensions (w, h, l).
func (t Transform) Pos(x, y, z, w, h, l int) (int, int, int) {
	switch t {
	case FlipX:
		return w - 1 - x, y, z
	case FlipY:
		return x, h - 1 - y, z
	case FlipZ:
		return x, y, l - 1 - z
	case RotY90:
		return z, y, w - 1 - x
	case RotY180:
		return w - 1 - x, y, l - 1 - z
	case RotY270:
		return l - 1 - z, y, x
	case RotX90:
		return x, l - 1 - z, y
	case RotX180:
		return x, h - 1 - y, l - 1 - z
	case RotX270:
		return x, z, h - 1 - y
	case RotZ90:
		return y, w - 1 - x, z
	case RotZ180:
		return w - 1 - x, h - 1 - y, z
	case RotZ270:
		return h - 1 - y, x, z
	default:
		return x, y, z
	}
}

var dirVec = map[string][3]int{
	"north": {0, 0, -1},
	"south": {0, 0, 1},
	"west":  {-1, 0, 0},
	"east":  {1, 0, 0},
	"up":    {0, 1, 0},
	"down":  {0, -1, 0},
}

var vecDir = map[[3]int]string{
	{0, 0, -1}: "north",
	{0, 0, 1}:  "south",
	{-1, 0, 0}: "west",
	{1, 0, 0}:  "east",
	{0, 1, 0}:  "up",
	{0, -1, 0}: "down",
}

func (t Transform) mapVec(v [3]int) [3]int {
	m := matrices[t]
	return [3]int{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// mapDir maps a cardinal direction name through the transform. ok is false
// for values that are not directions.
func (t Transform) mapDir(value string) (string, bool) {
	v, ok := dirVec[value]
	if !ok {
		return value, false
	}
	return vecDir[t.mapVec(v)], true
}

// mapAxis maps an axis property value (x, y, z) through the transform.
func (t Transform) mapAxis(value string) (string, bool) {
	var v [3]int
	switch value {
	case "x":
		v = [3]int{1, 0, 0}
	case "y":
		v = [3]int{0, 1, 0}
	case "z":
		v = [3]int{0, 0, 1}
	default:
		return value, false
	}
	m := t.mapVec(v)
	switch {
	case m[0] != 0:
		return "x", true
	case m[1] != 0:
		return "y", true
	default:
		return "z", true
	}
}

// mapRotation maps a 0-15 sign rotation (22.5° steps, 0 = south).
func (t Transform) mapRotation(r int) int {
	switch t {
	case RotY90:
		return (r + 4) % 16
	case RotY180:
		return (r + 8) % 16
	case RotY270:
		return (r + 12) % 16
	case FlipX:
		return (16 - r) % 16
	case FlipZ:
		return (24 - r) % 16
	default:
		return r
	}
}

// stairShapes and their mirrored counterparts.
var mirrorShape = map[string]string{
	"inner_left":  "inner_right",
	"inner_right": "inner_left",
	"outer_left":  "outer_right",
	"outer_right": "outer_left",
}

// directionKeys are property keys that name the direction they describe
// (fence/wall/vine/redstone connection flags). Under a transform the keys
// themselves move.
var directionKeys = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"up": true, "down": true,
}

// TransformState rewrites a block state's property values for the given
// transform. The input is not modified. Property values the table does not
// recognize are preserved unchanged and reported in warnings as
// "key=value" strings.
func TransformState(s *State, t Transform) (*State, []string) {
	if s == nil || len(s.Properties) == 0 {
		return s.Clone(), nil
	}

	out := &State{Name: s.Name, Properties: make(map[string]string, len(s.Properties))}
	var warnings []string

	for k, v := range s.Properties {
		switch {
		case k == "facing":
			if mapped, ok := t.mapDir(v); ok {
				out.Properties[k] = mapped
			} else {
				out.Properties[k] = v
				warnings = append(warnings, k+"="+v)
			}

		case k == "axis":
			if mapped, ok := t.mapAxis(v); ok {
				out.Properties[k] = mapped
			} else {
				out.Properties[k] = v
				warnings = append(warnings, k+"="+v)
			}

		case k == "rotation":
			var r int
			if _, err := fmt.Sscanf(v, "%d", &r); err == nil && r >= 0 && r < 16 {
				out.Properties[k] = fmt.Sprintf("%d", t.mapRotation(r))
			} else {
				out.Properties[k] = v
				warnings = append(warnings, k+"="+v)
			}

		case directionKeys[k]:
			if mapped, ok := t.mapDir(k); ok {
				out.Properties[mapped] = v
			} else {
				out.Properties[k] = v
			}

		case k == "hinge":
			out.Properties[k] = mapHanded(v, t.Mirror())

		case k == "shape":
			out.Properties[k] = t.mapShape(v, &warnings)

		case k == "type":
			out.Properties[k] = t.mapType(v)

		case k == "half":
			out.Properties[k] = mapHalf(v, t.FlipsY())

		case k == "orientation":
			out.Properties[k] = t.mapOrientation(v, &warnings)

		case k == "attachment", k == "face":
			out.Properties[k] = mapAttachment(v, t.FlipsY())

		default:
			out.Properties[k] = v
		}
	}
	return out, warnings
}

func mapHanded(v string, mirror bool) string {
	if !mirror {
		return v
	}
	switch v {
	case "left":
		return "right"
	case "right":
		return "left"
	default:
		return v
	}
}

func mapHalf(v string, flipY bool) string {
	if !flipY {
		return v
	}
	switch v {
	case "top":
		return "bottom"
	case "bottom":
		return "top"
	case "upper":
		return "lower"
	case "lower":
		return "upper"
	default:
		return v
	}
}

func mapAttachment(v string, flipY bool) string {
	if !flipY {
		return v
	}
	switch v {
	case "floor":
		return "ceiling"
	case "ceiling":
		return "floor"
	default:
		return v
	}
}

// mapShape handles both stair shapes (handedness under mirrors, invariant
// under rotations since facing rotates with them) and rail shapes
// (direction pairs and ascending values).
func (t Transform) mapShape(v string, warnings *[]string) string {
	switch v {
	case "straight":
		return v
	case "inner_left", "inner_right", "outer_left", "outer_right":
		if t.Mirror() {
			return mirrorShape[v]
		}
		return v
	case "north_south", "east_west":
		a, _ := t.mapDir(strings.SplitN(v, "_", 2)[0])
		if a == "north" || a == "south" {
			return "north_south"
		}
		if a == "east" || a == "west" {
			return "east_west"
		}
		return v
	case "ascending_north", "ascending_south", "ascending_east", "ascending_west":
		dir := strings.TrimPrefix(v, "ascending_")
		if mapped, ok := t.mapDir(dir); ok && mapped != "up" && mapped != "down" {
			return "ascending_" + mapped
		}
		return v
	case "north_east", "north_west", "south_east", "south_west":
		parts := strings.SplitN(v, "_", 2)
		a, _ := t.mapDir(parts[0])
		b, _ := t.mapDir(parts[1])
		return railCorner(a, b)
	default:
		*warnings = append(*warnings, "shape="+v)
		return v
	}
}

// railCorner canonicalizes a corner-rail value from its two connection
// directions (north/south first, then east/west).
func railCorner(a, b string) string {
	ns, ew := a, b
	if a == "east" || a == "west" {
		ns, ew = b, a
	}
	return ns + "_" + ew
}

// mapType handles chest halves (left/right under mirrors) and slab halves
// (top/bottom under vertical flips). Other values (single, double, normal,
// sticky) are invariant.
func (t Transform) mapType(v string) string {
	switch v {
	case "left", "right":
		return mapHanded(v, t.Mirror())
	case "top", "bottom":
		return mapHalf(v, t.FlipsY())
	default:
		return v
	}
}

// mapOrientation handles the two-direction values used by jigsaws and
// crafters ("up_north", "north_up", ...).
func (t Transform) mapOrientation(v string, warnings *[]string) string {
	first, second, ok := strings.Cut(v, "_")
	if !ok {
		*warnings = append(*warnings, "orientation="+v)
		return v
	}
	a, okA := t.mapDir(first)
	b, okB := t.mapDir(second)
	if !okA || !okB {
		*warnings = append(*warnings, "orientation="+v)
		return v
	}
	return a + "_" + b
}
