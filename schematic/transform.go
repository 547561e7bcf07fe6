package schematic

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/schem-at/nucleation/block"
)

// Normalize rewrites the region to a positive size with its origin at the
// world-space minimum corner. Cell content and world positions are
// unchanged; only the internal layout flips along previously negative axes.
func (r *Region) Normalize() {
	if r.size[0] > 0 && r.size[1] > 0 && r.size[2] > 0 {
		return
	}
	bmin, _ := r.Bounds()
	w, h, l := r.AbsSize()

	flip := func(local [3]int) [3]int {
		dims := [3]int{w, h, l}
		for i := range 3 {
			if r.size[i] < 0 {
				local[i] = dims[i] - 1 - local[i]
			}
		}
		return local
	}

	cells := make([]uint32, len(r.cells))
	for ly := range h {
		for lz := range l {
			for lx := range w {
				p := flip([3]int{lx, ly, lz})
				cells[p[1]*w*l+p[2]*w+p[0]] = r.cells[ly*w*l+lz*w+lx]
			}
		}
	}
	r.cells = cells

	if r.Secondary != nil {
		sec := make([]int32, len(r.Secondary))
		for i := range sec {
			sec[i] = -1
		}
		for ly := range h {
			for lz := range l {
				for lx := range w {
					p := flip([3]int{lx, ly, lz})
					sec[p[1]*w*l+p[2]*w+p[0]] = r.Secondary[ly*w*l+lz*w+lx]
				}
			}
		}
		r.Secondary = sec
	}

	bes := make(map[[3]int]*BlockEntity, len(r.blockEntities))
	for local, be := range r.blockEntities {
		p := flip(local)
		be.Pos = p
		bes[p] = be
	}
	r.blockEntities = bes

	r.origin = bmin
	r.size = [3]int{w, h, l}
}

// Apply transforms the region in place: cells, palette property values,
// block entities, the secondary layer, pending ticks and entity positions.
// The region's world-space minimum corner is preserved; the size becomes
// positive. Returned strings describe property values the rewrite table
// did not recognize.
func (r *Region) Apply(t block.Transform) []string {
	r.Normalize()
	w, h, l := r.AbsSize()
	nw, nh, nl := t.Dims(w, h, l)

	cells := make([]uint32, len(r.cells))
	for ly := range h {
		for lz := range l {
			for lx := range w {
				nx, ny, nz := t.Pos(lx, ly, lz, w, h, l)
				cells[ny*nw*nl+nz*nw+nx] = r.cells[ly*w*l+lz*w+lx]
			}
		}
	}
	r.cells = cells

	if r.Secondary != nil {
		sec := make([]int32, len(r.Secondary))
		for ly := range h {
			for lz := range l {
				for lx := range w {
					nx, ny, nz := t.Pos(lx, ly, lz, w, h, l)
					sec[ny*nw*nl+nz*nw+nx] = r.Secondary[ly*w*l+lz*w+lx]
				}
			}
		}
		r.Secondary = sec
	}

	// Rewrite property values across the palette. The transform is a
	// bijection on states, so indices stay stable and no duplicates can
	// appear.
	var warnings []string
	states := make([]block.State, r.palette.Size())
	for i, b := range r.palette.Blocks() {
		if i == 0 {
			states[0] = b
			continue
		}
		nb, warns := block.TransformState(&b, t)
		warnings = append(warnings, warns...)
		states[i] = *nb
	}
	_ = r.LoadPalette(states)

	bes := make(map[[3]int]*BlockEntity, len(r.blockEntities))
	for local, be := range r.blockEntities {
		nx, ny, nz := t.Pos(local[0], local[1], local[2], w, h, l)
		be.Pos = [3]int{nx, ny, nz}
		bes[be.Pos] = be
	}
	r.blockEntities = bes

	for _, ticks := range [][]map[string]any{r.PendingBlockTicks, r.PendingFluidTicks} {
		for _, tick := range ticks {
			x, okX := tick["x"].(int32)
			y, okY := tick["y"].(int32)
			z, okZ := tick["z"].(int32)
			if okX && okY && okZ {
				nx, ny, nz := t.Pos(int(x), int(y), int(z), w, h, l)
				tick["x"], tick["y"], tick["z"] = int32(nx), int32(ny), int32(nz)
			}
		}
	}

	origin := mgl64.Vec3{float64(r.origin[0]), float64(r.origin[1]), float64(r.origin[2])}
	for _, e := range r.entities {
		local := mgl64.Vec3{e.Pos[0], e.Pos[1], e.Pos[2]}.Sub(origin)
		mapped := transformVec(t, local, float64(w), float64(h), float64(l))
		world := origin.Add(mapped)
		e.Pos = [3]float64{world.X(), world.Y(), world.Z()}
		e.Rotation[0] = transformYaw(t, e.Rotation[0])
	}

	r.size = [3]int{nw, nh, nl}
	return warnings
}

// transformVec is the continuous counterpart of Transform.Pos: cell i maps
// to dim-1-i, so a continuous coordinate c maps to dim-c.
func transformVec(t block.Transform, p mgl64.Vec3, w, h, l float64) mgl64.Vec3 {
	x, y, z := p.X(), p.Y(), p.Z()
	switch t {
	case block.FlipX:
		return mgl64.Vec3{w - x, y, z}
	case block.FlipY:
		return mgl64.Vec3{x, h - y, z}
	case block.FlipZ:
		return mgl64.Vec3{x, y, l - z}
	case block.RotY90:
		return mgl64.Vec3{z, y, w - x}
	case block.RotY180:
		return mgl64.Vec3{w - x, y, l - z}
	case block.RotY270:
		return mgl64.Vec3{l - z, y, x}
	case block.RotX90:
		return mgl64.Vec3{x, l - z, y}
	case block.RotX180:
		return mgl64.Vec3{x, h - y, l - z}
	case block.RotX270:
		return mgl64.Vec3{x, z, h - y}
	case block.RotZ90:
		return mgl64.Vec3{y, w - x, z}
	case block.RotZ180:
		return mgl64.Vec3{w - x, h - y, z}
	case block.RotZ270:
		return mgl64.Vec3{h - y, x, z}
	default:
		return p
	}
}

// transformYaw adjusts an entity yaw (degrees, 0 = south, clockwise) for
// the horizontal component of the transform.
func transformYaw(t block.Transform, yaw float32) float32 {
	switch t {
	case block.RotY90:
		yaw += 90
	case block.RotY180:
		yaw += 180
	case block.RotY270:
		yaw += 270
	case block.FlipX, block.RotZ180:
		yaw = -yaw
	case block.FlipZ, block.RotX180:
		yaw = 180 - yaw
	}
	for yaw >= 180 {
		yaw -= 360
	}
	for yaw < -180 {
		yaw += 360
	}
	return yaw
}

// Apply transforms every region of the schematic about the schematic's
// bounding box, along with world-space entities. Unrecognized property
// values are recorded as diagnostics.
func (s *Schematic) Apply(t block.Transform) {
	bmin, bmax, ok := s.Bounds()
	if !ok {
		return
	}
	gw := bmax[0] - bmin[0] + 1
	gh := bmax[1] - bmin[1] + 1
	gl := bmax[2] - bmin[2] + 1

	for r := range s.Regions() {
		rmin, rmax := r.Bounds()
		for _, warn := range r.Apply(t) {
			s.Warn("transform", nil, "unknown property value %s under %s", warn, t)
		}

		// Reposition the region inside the transformed global box.
		a := [3]int{rmin[0] - bmin[0], rmin[1] - bmin[1], rmin[2] - bmin[2]}
		b := [3]int{rmax[0] - bmin[0], rmax[1] - bmin[1], rmax[2] - bmin[2]}
		ax, ay, az := t.Pos(a[0], a[1], a[2], gw, gh, gl)
		bx, by, bz := t.Pos(b[0], b[1], b[2], gw, gh, gl)
		newMin := [3]int{
			bmin[0] + min(ax, bx),
			bmin[1] + min(ay, by),
			bmin[2] + min(az, bz),
		}
		delta := [3]int{newMin[0] - r.origin[0], newMin[1] - r.origin[1], newMin[2] - r.origin[2]}
		r.SetOrigin(newMin)
		for _, e := range r.entities {
			// Region entities were mapped about the region corner; shift
			// them with the region.
			e.Pos[0] += float64(delta[0])
			e.Pos[1] += float64(delta[1])
			e.Pos[2] += float64(delta[2])
		}
	}

	origin := mgl64.Vec3{float64(bmin[0]), float64(bmin[1]), float64(bmin[2])}
	for _, e := range s.entities {
		local := mgl64.Vec3{e.Pos[0], e.Pos[1], e.Pos[2]}.Sub(origin)
		mapped := transformVec(t, local, float64(gw), float64(gh), float64(gl))
		world := origin.Add(mapped)
		e.Pos = [3]float64{world.X(), world.Y(), world.Z()}
		e.Rotation[0] = transformYaw(t, e.Rotation[0])
	}
}

// FlipX mirrors the schematic across the YZ plane.
func (s *Schematic) FlipX() { s.Apply(block.FlipX) }

// FlipY mirrors the schematic across the XZ plane.
func (s *Schematic) FlipY() { s.Apply(block.FlipY) }

// FlipZ mirrors the schematic across the XY plane.
func (s *Schematic) FlipZ() { s.Apply(block.FlipZ) }

// RotateY rotates the schematic by quarters×90° around the Y axis.
func (s *Schematic) RotateY(quarters int) {
	switch ((quarters % 4) + 4) % 4 {
	case 1:
		s.Apply(block.RotY90)
	case 2:
		s.Apply(block.RotY180)
	case 3:
		s.Apply(block.RotY270)
	}
}
