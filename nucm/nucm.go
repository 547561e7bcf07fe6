// Package nucm implements the NUCM mesh cache codec: a little-endian
// binary container of mesh chunks with quantized, delta-encoded vertex
// streams compressed as raw DEFLATE. Version 2 adds a texture atlas shared
// across chunks; version 1 files always embed one atlas per chunk and are
// still readable.
package nucm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
)

const (
	magic   = "NUCM"
	version = 2

	flagSharedAtlas uint32 = 1 << 0
)

var (
	// ErrMagic is returned when the NUCM magic is missing.
	ErrMagic = errors.New("nucm: bad magic")
	// ErrVersion is returned for container versions this codec does not
	// understand.
	ErrVersion = errors.New("nucm: unknown version")
	// ErrSizeMismatch is returned when a decompressed field length does
	// not match its declared raw length.
	ErrSizeMismatch = errors.New("nucm: decompressed size mismatch")
)

// Atlas is an RGBA8 texture atlas with named UV regions.
type Atlas struct {
	Width   uint32
	Height  uint32
	Pixels  []byte // RGBA8, len = Width*Height*4
	Regions []AtlasRegion
}

// AtlasRegion names a UV rectangle of the atlas.
type AtlasRegion struct {
	Name                   string
	UMin, VMin, UMax, VMax float32
}

// AnimatedTexture describes a flip-book animated tile of the atlas.
type AnimatedTexture struct {
	Name        string
	FrameCount  uint32
	FrameTimeMS uint32
	U, V, W, H  float32
}

// Layer holds one render layer's vertex streams and triangle indices.
type Layer struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Colors    [][4]float32
	Indices   []uint32
}

// Empty reports whether the layer has no vertices.
func (l *Layer) Empty() bool { return len(l.Positions) == 0 }

// Chunk is one mesh-output chunk.
type Chunk struct {
	BoundsMin [3]float32
	BoundsMax [3]float32
	Coord     *[3]int32
	LOD       uint8

	// Atlas is populated after decode regardless of whether the chunk
	// embedded its own atlas or referenced the container's shared one.
	Atlas *Atlas

	AnimTextures []AnimatedTexture

	Opaque      Layer
	Cutout      Layer
	Transparent Layer
}

// Cache is a decoded NUCM container.
type Cache struct {
	Version     int
	SharedAtlas *Atlas
	Chunks      []*Chunk
}

// Encode writes chunks as a NUCM v2 container. When every chunk carries an
// identical atlas (by content hash), one shared copy is written in the
// header and the chunks reference it.
func Encode(w io.Writer, chunks []*Chunk) error {
	shared := sharedAtlas(chunks)

	var buf bytes.Buffer
	buf.WriteString(magic)
	writeU32(&buf, version)
	flags := uint32(0)
	if shared != nil {
		flags |= flagSharedAtlas
	}
	writeU32(&buf, flags)
	writeU32(&buf, uint32(len(chunks)))

	if shared != nil {
		if err := writeAtlas(&buf, shared); err != nil {
			return err
		}
	}
	for i, c := range chunks {
		if err := writeChunk(&buf, c, shared != nil); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// sharedAtlas returns the common atlas if every chunk embeds an identical
// one, nil otherwise.
func sharedAtlas(chunks []*Chunk) *Atlas {
	if len(chunks) == 0 {
		return nil
	}
	var want uint64
	for i, c := range chunks {
		if c.Atlas == nil {
			return nil
		}
		h := atlasHash(c.Atlas)
		if i == 0 {
			want = h
		} else if h != want {
			return nil
		}
	}
	return chunks[0].Atlas
}

func atlasHash(a *Atlas) uint64 {
	d := xxhash.New()
	var head [8]byte
	binary.LittleEndian.PutUint32(head[0:], a.Width)
	binary.LittleEndian.PutUint32(head[4:], a.Height)
	_, _ = d.Write(head[:])
	_, _ = d.Write(a.Pixels)
	for _, r := range a.Regions {
		_, _ = d.WriteString(r.Name)
		var uv [16]byte
		binary.LittleEndian.PutUint32(uv[0:], mathFloat32bits(r.UMin))
		binary.LittleEndian.PutUint32(uv[4:], mathFloat32bits(r.VMin))
		binary.LittleEndian.PutUint32(uv[8:], mathFloat32bits(r.UMax))
		binary.LittleEndian.PutUint32(uv[12:], mathFloat32bits(r.VMax))
		_, _ = d.Write(uv[:])
	}
	return d.Sum64()
}

func writeChunk(buf *bytes.Buffer, c *Chunk, hasShared bool) error {
	for _, v := range c.BoundsMin {
		writeF32(buf, v)
	}
	for _, v := range c.BoundsMax {
		writeF32(buf, v)
	}
	if c.Coord != nil {
		buf.WriteByte(1)
		for _, v := range c.Coord {
			writeU32(buf, uint32(v))
		}
	} else {
		buf.WriteByte(0)
	}
	buf.WriteByte(c.LOD)

	embed := c.Atlas != nil && !hasShared
	if embed {
		buf.WriteByte(1)
		if err := writeAtlas(buf, c.Atlas); err != nil {
			return err
		}
	} else {
		buf.WriteByte(0)
	}

	writeAnimTextures(buf, c.AnimTextures)

	for _, layer := range []*Layer{&c.Opaque, &c.Cutout, &c.Transparent} {
		if err := writeLayer(buf, layer); err != nil {
			return err
		}
	}
	return nil
}

func writeAtlas(buf *bytes.Buffer, a *Atlas) error {
	writeU32(buf, a.Width)
	writeU32(buf, a.Height)
	if err := writeCompressed(buf, a.Pixels); err != nil {
		return fmt.Errorf("atlas pixels: %w", err)
	}
	writeU32(buf, uint32(len(a.Regions)))
	for _, r := range a.Regions {
		writeU32(buf, uint32(len(r.Name)))
		buf.WriteString(r.Name)
		writeF32(buf, r.UMin)
		writeF32(buf, r.VMin)
		writeF32(buf, r.UMax)
		writeF32(buf, r.VMax)
	}
	return nil
}

func writeAnimTextures(buf *bytes.Buffer, anims []AnimatedTexture) {
	writeU32(buf, uint32(len(anims)))
	for _, a := range anims {
		writeU32(buf, uint32(len(a.Name)))
		buf.WriteString(a.Name)
		writeU32(buf, a.FrameCount)
		writeU32(buf, a.FrameTimeMS)
		writeF32(buf, a.U)
		writeF32(buf, a.V)
		writeF32(buf, a.W)
		writeF32(buf, a.H)
	}
}

func writeLayer(buf *bytes.Buffer, l *Layer) error {
	writeU32(buf, uint32(len(l.Positions)))
	writeU32(buf, uint32(len(l.Indices)))
	if l.Empty() {
		// A single empty field stands in for the whole layer body.
		return writeCompressed(buf, nil)
	}

	posMin, posMax, posData := encodePositions(l.Positions)
	for _, v := range posMin {
		writeF32(buf, v)
	}
	for _, v := range posMax {
		writeF32(buf, v)
	}
	if err := writeCompressed(buf, posData); err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	if err := writeCompressed(buf, encodeNormals(l.Normals)); err != nil {
		return fmt.Errorf("normals: %w", err)
	}

	uvMin, uvMax, uvData := encodeUVs(l.UVs)
	for _, v := range uvMin {
		writeF32(buf, v)
	}
	for _, v := range uvMax {
		writeF32(buf, v)
	}
	if err := writeCompressed(buf, uvData); err != nil {
		return fmt.Errorf("uvs: %w", err)
	}

	if err := writeCompressed(buf, encodeColors(l.Colors)); err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	if err := writeCompressed(buf, encodeIndices(l.Indices)); err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	return nil
}

// writeCompressed writes a raw_len | compressed_len | raw-DEFLATE field.
func writeCompressed(buf *bytes.Buffer, raw []byte) error {
	var comp bytes.Buffer
	fw, err := flate.NewWriter(&comp, flate.BestSpeed)
	if err != nil {
		return err
	}
	if _, err := fw.Write(raw); err != nil {
		return err
	}
	if err := fw.Close(); err != nil {
		return err
	}
	writeU32(buf, uint32(len(raw)))
	writeU32(buf, uint32(comp.Len()))
	buf.Write(comp.Bytes())
	return nil
}

// Decode reads a NUCM v1 or v2 container.
func Decode(r io.Reader) (*Cache, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rd := &reader{data: data}

	head, err := rd.bytes(4)
	if err != nil {
		return nil, err
	}
	if string(head) != magic {
		return nil, ErrMagic
	}
	ver, err := rd.u32()
	if err != nil {
		return nil, err
	}
	if ver != 1 && ver != 2 {
		return nil, fmt.Errorf("%w: %d", ErrVersion, ver)
	}

	cache := &Cache{Version: int(ver)}
	var flags uint32
	if ver == 2 {
		if flags, err = rd.u32(); err != nil {
			return nil, err
		}
	}
	chunkCount, err := rd.u32()
	if err != nil {
		return nil, err
	}

	if flags&flagSharedAtlas != 0 {
		atlas, err := readAtlas(rd)
		if err != nil {
			return nil, fmt.Errorf("shared atlas: %w", err)
		}
		cache.SharedAtlas = atlas
	}

	for i := range chunkCount {
		c, err := readChunk(rd, int(ver), cache.SharedAtlas)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		cache.Chunks = append(cache.Chunks, c)
	}
	return cache, nil
}

func readChunk(rd *reader, ver int, shared *Atlas) (*Chunk, error) {
	c := &Chunk{}
	for i := range 3 {
		v, err := rd.f32()
		if err != nil {
			return nil, err
		}
		c.BoundsMin[i] = v
	}
	for i := range 3 {
		v, err := rd.f32()
		if err != nil {
			return nil, err
		}
		c.BoundsMax[i] = v
	}

	hasCoord, err := rd.u8()
	if err != nil {
		return nil, err
	}
	if hasCoord != 0 {
		var coord [3]int32
		for i := range 3 {
			v, err := rd.u32()
			if err != nil {
				return nil, err
			}
			coord[i] = int32(v)
		}
		c.Coord = &coord
	}
	if c.LOD, err = rd.u8(); err != nil {
		return nil, err
	}

	atlasMode := uint8(1)
	if ver >= 2 {
		if atlasMode, err = rd.u8(); err != nil {
			return nil, err
		}
	}
	switch atlasMode {
	case 0:
		c.Atlas = shared
	case 1:
		if c.Atlas, err = readAtlas(rd); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("bad atlas mode %d", atlasMode)
	}

	if c.AnimTextures, err = readAnimTextures(rd); err != nil {
		return nil, err
	}

	for _, layer := range []*Layer{&c.Opaque, &c.Cutout, &c.Transparent} {
		if err := readLayer(rd, layer); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func readAtlas(rd *reader) (*Atlas, error) {
	a := &Atlas{}
	var err error
	if a.Width, err = rd.u32(); err != nil {
		return nil, err
	}
	if a.Height, err = rd.u32(); err != nil {
		return nil, err
	}
	if a.Pixels, err = readCompressed(rd); err != nil {
		return nil, fmt.Errorf("pixels: %w", err)
	}
	regionCount, err := rd.u32()
	if err != nil {
		return nil, err
	}
	for range regionCount {
		var r AtlasRegion
		nameLen, err := rd.u32()
		if err != nil {
			return nil, err
		}
		name, err := rd.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}
		r.Name = string(name)
		if r.UMin, err = rd.f32(); err != nil {
			return nil, err
		}
		if r.VMin, err = rd.f32(); err != nil {
			return nil, err
		}
		if r.UMax, err = rd.f32(); err != nil {
			return nil, err
		}
		if r.VMax, err = rd.f32(); err != nil {
			return nil, err
		}
		a.Regions = append(a.Regions, r)
	}
	return a, nil
}

func readAnimTextures(rd *reader) ([]AnimatedTexture, error) {
	count, err := rd.u32()
	if err != nil {
		return nil, err
	}
	var out []AnimatedTexture
	for range count {
		var a AnimatedTexture
		nameLen, err := rd.u32()
		if err != nil {
			return nil, err
		}
		name, err := rd.bytes(int(nameLen))
		if err != nil {
			return nil, err
		}
		a.Name = string(name)
		if a.FrameCount, err = rd.u32(); err != nil {
			return nil, err
		}
		if a.FrameTimeMS, err = rd.u32(); err != nil {
			return nil, err
		}
		if a.U, err = rd.f32(); err != nil {
			return nil, err
		}
		if a.V, err = rd.f32(); err != nil {
			return nil, err
		}
		if a.W, err = rd.f32(); err != nil {
			return nil, err
		}
		if a.H, err = rd.f32(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func readLayer(rd *reader, l *Layer) error {
	vertexCount, err := rd.u32()
	if err != nil {
		return err
	}
	indexCount, err := rd.u32()
	if err != nil {
		return err
	}
	if vertexCount == 0 {
		_, err := readCompressed(rd)
		return err
	}

	var posMin, posMax [3]float32
	for i := range 3 {
		if posMin[i], err = rd.f32(); err != nil {
			return err
		}
	}
	for i := range 3 {
		if posMax[i], err = rd.f32(); err != nil {
			return err
		}
	}
	posData, err := readCompressed(rd)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	if l.Positions, err = decodePositions(posData, int(vertexCount), posMin, posMax); err != nil {
		return err
	}

	normalData, err := readCompressed(rd)
	if err != nil {
		return fmt.Errorf("normals: %w", err)
	}
	if l.Normals, err = decodeNormals(normalData, int(vertexCount)); err != nil {
		return err
	}

	var uvMin, uvMax [2]float32
	for i := range 2 {
		if uvMin[i], err = rd.f32(); err != nil {
			return err
		}
	}
	for i := range 2 {
		if uvMax[i], err = rd.f32(); err != nil {
			return err
		}
	}
	uvData, err := readCompressed(rd)
	if err != nil {
		return fmt.Errorf("uvs: %w", err)
	}
	if l.UVs, err = decodeUVs(uvData, int(vertexCount), uvMin, uvMax); err != nil {
		return err
	}

	colorData, err := readCompressed(rd)
	if err != nil {
		return fmt.Errorf("colors: %w", err)
	}
	if l.Colors, err = decodeColors(colorData, int(vertexCount)); err != nil {
		return err
	}

	indexData, err := readCompressed(rd)
	if err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	if l.Indices, err = decodeIndices(indexData, int(indexCount)); err != nil {
		return err
	}
	return nil
}

// readCompressed reads a raw_len | compressed_len | raw-DEFLATE field.
func readCompressed(rd *reader) ([]byte, error) {
	rawLen, err := rd.u32()
	if err != nil {
		return nil, err
	}
	compLen, err := rd.u32()
	if err != nil {
		return nil, err
	}
	comp, err := rd.bytes(int(compLen))
	if err != nil {
		return nil, err
	}
	if rawLen == 0 && compLen == 0 {
		return nil, nil
	}

	fr := flate.NewReader(bytes.NewReader(comp))
	defer fr.Close()
	raw, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(raw) != int(rawLen) {
		return nil, fmt.Errorf("%w: declared %d, got %d", ErrSizeMismatch, rawLen, len(raw))
	}
	return raw, nil
}

// reader is a bounds-checked cursor over the container bytes.
type reader struct {
	data []byte
	off  int
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, fmt.Errorf("truncated at offset %d (want %d bytes of %d)", r.off, n, len(r.data))
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return mathFloat32frombits(v), nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, mathFloat32bits(v))
}
