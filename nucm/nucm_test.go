package nucm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sampleAtlas() *Atlas {
	pixels := make([]byte, 4*4*4)
	for i := range pixels {
		pixels[i] = byte(i * 7)
	}
	return &Atlas{
		Width:  4,
		Height: 4,
		Pixels: pixels,
		Regions: []AtlasRegion{
			{Name: "minecraft:stone", UMin: 0, VMin: 0, UMax: 0.5, VMax: 0.5},
			{Name: "minecraft:dirt", UMin: 0.5, VMin: 0, UMax: 1, VMax: 0.5},
		},
	}
}

func sampleChunk(atlas *Atlas) *Chunk {
	coord := [3]int32{1, 0, -2}
	return &Chunk{
		BoundsMin: [3]float32{0, 0, 0},
		BoundsMax: [3]float32{16, 16, 16},
		Coord:     &coord,
		LOD:       0,
		Atlas:     atlas,
		Opaque: Layer{
			Positions: [][3]float32{{0, 0, 0}, {16, 0, 0}, {16, 16, 0}, {0, 16, 0}},
			Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
			UVs:       [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			Colors:    [][4]float32{{1, 1, 1, 1}, {1, 0.5, 0.25, 1}, {0, 0, 0, 1}, {1, 1, 1, 0.5}},
			Indices:   []uint32{0, 1, 2, 0, 2, 3},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	atlas := sampleAtlas()
	src := sampleChunk(atlas)

	var buf bytes.Buffer
	if err := Encode(&buf, []*Chunk{src}); err != nil {
		t.Fatal(err)
	}
	cache, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cache.Version != 2 || len(cache.Chunks) != 1 {
		t.Fatalf("version=%d chunks=%d", cache.Version, len(cache.Chunks))
	}
	got := cache.Chunks[0]

	if got.BoundsMin != src.BoundsMin || got.BoundsMax != src.BoundsMax {
		t.Errorf("bounds: %v..%v", got.BoundsMin, got.BoundsMax)
	}
	if got.Coord == nil || *got.Coord != *src.Coord {
		t.Errorf("coord: %v", got.Coord)
	}
	if got.Atlas == nil || got.Atlas.Width != 4 || len(got.Atlas.Regions) != 2 {
		t.Fatalf("atlas: %+v", got.Atlas)
	}
	if !bytes.Equal(got.Atlas.Pixels, atlas.Pixels) {
		t.Error("atlas pixels corrupted")
	}

	checkLayer(t, &src.Opaque, &got.Opaque, 16)
	if !got.Cutout.Empty() || !got.Transparent.Empty() {
		t.Error("empty layers came back non-empty")
	}
}

func checkLayer(t *testing.T, want, got *Layer, posRange float32) {
	t.Helper()
	if len(got.Positions) != len(want.Positions) {
		t.Fatalf("vertex count = %d, want %d", len(got.Positions), len(want.Positions))
	}
	posTol := posRange / 65535
	for i := range want.Positions {
		for c := range 3 {
			if diff := absf(got.Positions[i][c] - want.Positions[i][c]); diff > posTol {
				t.Errorf("position %d.%d off by %g (tol %g)", i, c, diff, posTol)
			}
		}
		// Axis-aligned normals reconstruct exactly.
		if got.Normals[i] != want.Normals[i] {
			t.Errorf("normal %d = %v, want %v", i, got.Normals[i], want.Normals[i])
		}
		for c := range 2 {
			if diff := absf(got.UVs[i][c] - want.UVs[i][c]); diff > 1.0/65535 {
				t.Errorf("uv %d.%d off by %g", i, c, diff)
			}
		}
		for c := range 4 {
			if diff := absf(got.Colors[i][c] - want.Colors[i][c]); diff > 1.0/255 {
				t.Errorf("color %d.%d off by %g", i, c, diff)
			}
		}
	}
	if len(got.Indices) != len(want.Indices) {
		t.Fatalf("index count = %d", len(got.Indices))
	}
	for i := range want.Indices {
		if got.Indices[i] != want.Indices[i] {
			t.Errorf("index %d = %d, want %d", i, got.Indices[i], want.Indices[i])
		}
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestNonAxisNormalsRenormalized(t *testing.T) {
	n := float32(1 / math.Sqrt(3))
	src := sampleChunk(sampleAtlas())
	for i := range src.Opaque.Normals {
		src.Opaque.Normals[i] = [3]float32{n, n, n}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, []*Chunk{src}); err != nil {
		t.Fatal(err)
	}
	cache, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for _, got := range cache.Chunks[0].Opaque.Normals {
		length := math.Sqrt(float64(got[0]*got[0] + got[1]*got[1] + got[2]*got[2]))
		if math.Abs(length-1) > 1e-5 {
			t.Errorf("normal %v has length %g", got, length)
		}
		for c := range 3 {
			if absf(got[c]-n) > 1.0/127 {
				t.Errorf("component %d off by %g", c, absf(got[c]-n))
			}
		}
	}
}

func TestSharedAtlasPromotion(t *testing.T) {
	atlas := sampleAtlas()
	shared := make([]*Chunk, 4)
	for i := range shared {
		shared[i] = sampleChunk(atlas)
	}

	var sharedBuf bytes.Buffer
	if err := Encode(&sharedBuf, shared); err != nil {
		t.Fatal(err)
	}

	// Distinct atlases force per-chunk embedding.
	perChunk := make([]*Chunk, 4)
	for i := range perChunk {
		a := sampleAtlas()
		a.Pixels[0] = byte(100 + i)
		perChunk[i] = sampleChunk(a)
	}
	var perChunkBuf bytes.Buffer
	if err := Encode(&perChunkBuf, perChunk); err != nil {
		t.Fatal(err)
	}

	if sharedBuf.Len() >= perChunkBuf.Len() {
		t.Errorf("shared atlas file (%d bytes) not smaller than per-chunk (%d bytes)",
			sharedBuf.Len(), perChunkBuf.Len())
	}

	cache, err := Decode(&sharedBuf)
	if err != nil {
		t.Fatal(err)
	}
	if cache.SharedAtlas == nil {
		t.Fatal("shared atlas missing after decode")
	}
	for i, c := range cache.Chunks {
		if c.Atlas != cache.SharedAtlas {
			t.Errorf("chunk %d atlas is not the shared atlas", i)
		}
	}
}

// TestDecodeV1 hand-builds a 12-byte-header container with one chunk whose
// atlas is always embedded (no atlas_mode byte).
func TestDecodeV1(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NUCM")
	writeU32(&buf, 1) // version
	writeU32(&buf, 1) // chunk count

	// bounds
	for _, v := range []float32{0, 0, 0, 16, 16, 16} {
		writeF32(&buf, v)
	}
	buf.WriteByte(0) // has_coord
	buf.WriteByte(3) // lod
	if err := writeAtlas(&buf, sampleAtlas()); err != nil {
		t.Fatal(err)
	}
	writeU32(&buf, 0) // anim texture count
	for range 3 {     // three empty layers
		writeU32(&buf, 0) // vertex count
		writeU32(&buf, 0) // index count
		if err := writeCompressed(&buf, nil); err != nil {
			t.Fatal(err)
		}
	}

	cache, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if cache.Version != 1 {
		t.Errorf("version = %d", cache.Version)
	}
	if cache.SharedAtlas != nil {
		t.Error("v1 has a shared atlas")
	}
	c := cache.Chunks[0]
	if c.LOD != 3 || c.Coord != nil {
		t.Errorf("chunk header: lod=%d coord=%v", c.LOD, c.Coord)
	}
	if c.Atlas == nil || c.Atlas.Width != 4 {
		t.Errorf("per-chunk atlas not populated: %+v", c.Atlas)
	}
}

func TestBadMagic(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("XXXX\x02\x00\x00\x00"))); !errors.Is(err, ErrMagic) {
		t.Errorf("error = %v", err)
	}
}

func TestUnknownVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NUCM")
	writeU32(&buf, 9)
	writeU32(&buf, 0)
	if _, err := Decode(&buf); !errors.Is(err, ErrVersion) {
		t.Errorf("error = %v", err)
	}
}

func TestSizeMismatch(t *testing.T) {
	// A field whose declared raw length disagrees with its content.
	var field bytes.Buffer
	if err := writeCompressed(&field, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	data := field.Bytes()
	binary.LittleEndian.PutUint32(data[0:], 99) // corrupt raw_len

	rd := &reader{data: data}
	if _, err := readCompressed(rd); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("error = %v", err)
	}
}

func TestEmptyContainer(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatal(err)
	}
	cache, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(cache.Chunks) != 0 || cache.SharedAtlas != nil {
		t.Errorf("cache = %+v", cache)
	}
}
