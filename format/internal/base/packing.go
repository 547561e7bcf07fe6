// Package base holds the wire-level helpers shared by the format codecs:
// bit-packed long arrays, VarInt streams and tolerant NBT value extraction.
package base

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrBitsTooWide is returned for bit widths above 32.
	ErrBitsTooWide = errors.New("bits per entry exceeds 32")
	// ErrUnderflow is returned when a long array is too short for the
	// requested entry count.
	ErrUnderflow = errors.New("packed long array too short")
)

// BitsPerEntry returns the palette index width for a palette of the given
// size: max(2, ceil(log2(size))).
func BitsPerEntry(paletteSize int) int {
	if paletteSize <= 1 {
		return 2
	}
	return max(bits.Len(uint(paletteSize-1)), 2)
}

// Pack packs values into a long array, least-significant-bit first. With
// straddle set, values cross long boundaries (Litematica's layout);
// without it, each long holds a whole number of values (Sponge's 1.16+
// layout).
func Pack(values []uint32, bitsPerEntry int, straddle bool) ([]int64, error) {
	if bitsPerEntry < 1 || bitsPerEntry > 32 {
		return nil, fmt.Errorf("%w: %d", ErrBitsTooWide, bitsPerEntry)
	}
	if straddle {
		return packTight(values, bitsPerEntry), nil
	}
	return packPadded(values, bitsPerEntry), nil
}

// Unpack decodes count values from a long array written by Pack.
func Unpack(longs []int64, bitsPerEntry, count int, straddle bool) ([]uint32, error) {
	if bitsPerEntry < 1 || bitsPerEntry > 32 {
		return nil, fmt.Errorf("%w: %d", ErrBitsTooWide, bitsPerEntry)
	}
	if len(longs) < LongCount(count, bitsPerEntry, straddle) {
		return nil, fmt.Errorf("%w: have %d longs, need %d for %d entries of %d bits",
			ErrUnderflow, len(longs), LongCount(count, bitsPerEntry, straddle), count, bitsPerEntry)
	}
	if straddle {
		return unpackTight(longs, bitsPerEntry, count), nil
	}
	return unpackPadded(longs, bitsPerEntry, count), nil
}

// LongCount returns the number of longs required for count entries.
func LongCount(count, bitsPerEntry int, straddle bool) int {
	if count == 0 {
		return 0
	}
	if straddle {
		return (count*bitsPerEntry + 63) / 64
	}
	perLong := 64 / bitsPerEntry
	return (count + perLong - 1) / perLong
}

func packPadded(values []uint32, bitsPerEntry int) []int64 {
	perLong := 64 / bitsPerEntry
	longs := make([]int64, LongCount(len(values), bitsPerEntry, false))
	for i, v := range values {
		longIdx := i / perLong
		bitIdx := (i % perLong) * bitsPerEntry
		longs[longIdx] |= int64(uint64(v) << bitIdx)
	}
	return longs
}

func unpackPadded(longs []int64, bitsPerEntry, count int) []uint32 {
	perLong := 64 / bitsPerEntry
	mask := uint64(1)<<bitsPerEntry - 1
	values := make([]uint32, count)
	for i := range count {
		longIdx := i / perLong
		bitIdx := (i % perLong) * bitsPerEntry
		values[i] = uint32(uint64(longs[longIdx]) >> bitIdx & mask)
	}
	return values
}

func packTight(values []uint32, bitsPerEntry int) []int64 {
	longs := make([]int64, LongCount(len(values), bitsPerEntry, true))
	bitPos := 0
	for _, v := range values {
		longIdx := bitPos / 64
		bitOffset := bitPos % 64

		longs[longIdx] |= int64(uint64(v) << bitOffset)
		if spill := bitOffset + bitsPerEntry - 64; spill > 0 {
			longs[longIdx+1] |= int64(uint64(v) >> (bitsPerEntry - spill))
		}
		bitPos += bitsPerEntry
	}
	return longs
}

func unpackTight(longs []int64, bitsPerEntry, count int) []uint32 {
	mask := uint64(1)<<bitsPerEntry - 1
	values := make([]uint32, count)
	bitPos := 0
	for i := range count {
		longIdx := bitPos / 64
		bitOffset := bitPos % 64

		v := uint64(longs[longIdx]) >> bitOffset
		if spill := bitOffset + bitsPerEntry - 64; spill > 0 && longIdx+1 < len(longs) {
			v |= uint64(longs[longIdx+1]) << (bitsPerEntry - spill)
		}
		values[i] = uint32(v & mask)
		bitPos += bitsPerEntry
	}
	return values
}
