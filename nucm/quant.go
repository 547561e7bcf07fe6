package nucm

import (
	"encoding/binary"
	"fmt"
	"math"
)

func mathFloat32bits(v float32) uint32     { return math.Float32bits(v) }
func mathFloat32frombits(v uint32) float32 { return math.Float32frombits(v) }

// encodePositions quantizes vertex positions to u16 against their AABB and
// delta-encodes each component across the vertex stream.
func encodePositions(positions [][3]float32) (pmin, pmax [3]float32, data []byte) {
	pmin = [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	pmax = [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, p := range positions {
		for i := range 3 {
			pmin[i] = min(pmin[i], p[i])
			pmax[i] = max(pmax[i], p[i])
		}
	}

	data = make([]byte, len(positions)*6)
	var prev [3]uint16
	for k, p := range positions {
		for i := range 3 {
			q := quantizeU16(p[i], pmin[i], pmax[i])
			delta := q - prev[i]
			prev[i] = q
			binary.LittleEndian.PutUint16(data[k*6+i*2:], delta)
		}
	}
	return pmin, pmax, data
}

func decodePositions(data []byte, count int, pmin, pmax [3]float32) ([][3]float32, error) {
	if len(data) != count*6 {
		return nil, fmt.Errorf("%w: position stream %d bytes for %d vertices", ErrSizeMismatch, len(data), count)
	}
	out := make([][3]float32, count)
	var prev [3]uint16
	for k := range count {
		for i := range 3 {
			prev[i] += binary.LittleEndian.Uint16(data[k*6+i*2:])
			out[k][i] = dequantizeU16(prev[i], pmin[i], pmax[i])
		}
	}
	return out, nil
}

// encodeNormals packs each component as a signed byte in [-127, 127].
func encodeNormals(normals [][3]float32) []byte {
	data := make([]byte, len(normals)*3)
	for k, n := range normals {
		for i := range 3 {
			c := max(min(n[i], 1), -1)
			data[k*3+i] = byte(int8(math.Round(float64(c) * 127)))
		}
	}
	return data
}

func decodeNormals(data []byte, count int) ([][3]float32, error) {
	if len(data) != count*3 {
		return nil, fmt.Errorf("%w: normal stream %d bytes for %d vertices", ErrSizeMismatch, len(data), count)
	}
	out := make([][3]float32, count)
	for k := range count {
		var n [3]float32
		for i := range 3 {
			n[i] = float32(int8(data[k*3+i])) / 127
		}
		// Renormalize so axis-aligned normals reconstruct exactly.
		length := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
		if length > 0 {
			for i := range 3 {
				n[i] /= length
			}
		}
		out[k] = n
	}
	return out, nil
}

// encodeUVs quantizes texture coordinates to u16 against their AABB, with
// no delta step.
func encodeUVs(uvs [][2]float32) (umin, umax [2]float32, data []byte) {
	umin = [2]float32{math.MaxFloat32, math.MaxFloat32}
	umax = [2]float32{-math.MaxFloat32, -math.MaxFloat32}
	for _, uv := range uvs {
		for i := range 2 {
			umin[i] = min(umin[i], uv[i])
			umax[i] = max(umax[i], uv[i])
		}
	}

	data = make([]byte, len(uvs)*4)
	for k, uv := range uvs {
		for i := range 2 {
			binary.LittleEndian.PutUint16(data[k*4+i*2:], quantizeU16(uv[i], umin[i], umax[i]))
		}
	}
	return umin, umax, data
}

func decodeUVs(data []byte, count int, umin, umax [2]float32) ([][2]float32, error) {
	if len(data) != count*4 {
		return nil, fmt.Errorf("%w: uv stream %d bytes for %d vertices", ErrSizeMismatch, len(data), count)
	}
	out := make([][2]float32, count)
	for k := range count {
		for i := range 2 {
			q := binary.LittleEndian.Uint16(data[k*4+i*2:])
			out[k][i] = dequantizeU16(q, umin[i], umax[i])
		}
	}
	return out, nil
}

// encodeColors packs each component as an unsigned byte.
func encodeColors(colors [][4]float32) []byte {
	data := make([]byte, len(colors)*4)
	for k, c := range colors {
		for i := range 4 {
			v := max(min(c[i], 1), 0)
			data[k*4+i] = byte(math.Round(float64(v) * 255))
		}
	}
	return data
}

func decodeColors(data []byte, count int) ([][4]float32, error) {
	if len(data) != count*4 {
		return nil, fmt.Errorf("%w: color stream %d bytes for %d vertices", ErrSizeMismatch, len(data), count)
	}
	out := make([][4]float32, count)
	for k := range count {
		for i := range 4 {
			out[k][i] = float32(data[k*4+i]) / 255
		}
	}
	return out, nil
}

// encodeIndices delta-encodes triangle indices with wrapping u32
// subtraction.
func encodeIndices(indices []uint32) []byte {
	data := make([]byte, len(indices)*4)
	var prev uint32
	for k, idx := range indices {
		binary.LittleEndian.PutUint32(data[k*4:], idx-prev)
		prev = idx
	}
	return data
}

func decodeIndices(data []byte, count int) ([]uint32, error) {
	if len(data) != count*4 {
		return nil, fmt.Errorf("%w: index stream %d bytes for %d indices", ErrSizeMismatch, len(data), count)
	}
	out := make([]uint32, count)
	var prev uint32
	for k := range count {
		prev += binary.LittleEndian.Uint32(data[k*4:])
		out[k] = prev
	}
	return out, nil
}

// quantizeU16 maps v in [lo, hi] onto [0, 65535].
func quantizeU16(v, lo, hi float32) uint16 {
	r := hi - lo
	if r <= 0 {
		return 0
	}
	q := math.Round(float64(v-lo) / float64(r) * 65535)
	return uint16(max(min(q, 65535), 0))
}

func dequantizeU16(q uint16, lo, hi float32) float32 {
	r := hi - lo
	if r <= 0 {
		return lo
	}
	return lo + float32(q)/65535*r
}
