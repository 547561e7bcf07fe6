package base

import (
	"errors"
	"testing"
)

func TestBitsPerEntry(t *testing.T) {
	cases := map[int]int{1: 2, 2: 2, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 16: 4, 17: 5, 256: 8, 257: 9}
	for size, want := range cases {
		if got := BitsPerEntry(size); got != want {
			t.Errorf("BitsPerEntry(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestPackRoundTrip(t *testing.T) {
	for _, straddle := range []bool{true, false} {
		for bits := 2; bits <= 32; bits++ {
			maxVal := uint64(1)<<bits - 1
			values := make([]uint32, 100)
			for i := range values {
				values[i] = uint32(uint64(i*2654435761) % (maxVal + 1))
			}

			longs, err := Pack(values, bits, straddle)
			if err != nil {
				t.Fatalf("pack bits=%d straddle=%v: %v", bits, straddle, err)
			}
			got, err := Unpack(longs, bits, len(values), straddle)
			if err != nil {
				t.Fatalf("unpack bits=%d straddle=%v: %v", bits, straddle, err)
			}
			for i := range values {
				if got[i] != values[i] {
					t.Fatalf("bits=%d straddle=%v: value %d = %d, want %d", bits, straddle, i, got[i], values[i])
				}
			}
		}
	}
}

func TestPackStraddleCrossesBoundaries(t *testing.T) {
	// 22 three-bit values occupy 66 bits tightly but 2 longs padded.
	values := make([]uint32, 22)
	for i := range values {
		values[i] = uint32(i % 8)
	}
	tight, err := Pack(values, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(tight) != 2 {
		t.Errorf("tight packing used %d longs, want 2", len(tight))
	}
	padded, err := Pack(values, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(padded) != 2 {
		t.Errorf("padded packing used %d longs, want 2", len(padded))
	}
	// The layouts must differ once a value straddles a boundary.
	same := true
	for i := range tight {
		if tight[i] != padded[i] {
			same = false
		}
	}
	if same {
		t.Error("straddling and padded layouts are identical")
	}
}

func TestPackErrors(t *testing.T) {
	if _, err := Pack([]uint32{1}, 33, true); !errors.Is(err, ErrBitsTooWide) {
		t.Errorf("bits=33 error = %v", err)
	}
	if _, err := Unpack([]int64{0}, 4, 17, false); !errors.Is(err, ErrUnderflow) {
		t.Errorf("short array error = %v", err)
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 65535, 1 << 20, 1<<31 - 1}
	data := EncodeVarIntArray(values)
	got, err := DecodeVarIntArray(data, len(values))
	if err != nil {
		t.Fatal(err)
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("value %d = %d, want %d", i, got[i], values[i])
		}
	}
}

func TestVarIntTruncated(t *testing.T) {
	if _, err := DecodeVarIntArray([]byte{0x80}, 1); !errors.Is(err, ErrVarIntTruncated) {
		t.Errorf("truncated error = %v", err)
	}
}

func TestLongsTolerant(t *testing.T) {
	for _, in := range []any{
		[]int64{1, 2, 3},
		[]int32{1, 2, 3},
		[]any{int64(1), int32(2), int64(3)},
	} {
		longs, err := Longs(in)
		if err != nil {
			t.Fatalf("Longs(%T): %v", in, err)
		}
		if len(longs) != 3 || longs[0] != 1 || longs[2] != 3 {
			t.Errorf("Longs(%T) = %v", in, longs)
		}
	}
	if _, err := Longs("nope"); err == nil {
		t.Error("Longs on a string succeeded")
	}
}
