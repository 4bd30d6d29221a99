package vlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodesetValidates(t *testing.T) {
	cs := CurrentCodeset()
	require.NoError(t, ValidateMagnitudeBook(cs.Magnitude))
	require.NoError(t, ValidateBook(cs.RunsBook))
}

func TestValidateBookRejectsPrefixes(t *testing.T) {
	bad := RLVBook{
		{2, 0x2, 1, 1},
		{4, 0x8, 1, 2}, // 10 is a prefix of 1000
	}
	assert.Error(t, ValidateBook(bad))

	unsorted := RLVBook{
		{4, 0xC, 1, 1},
		{2, 0x2, 1, 2},
	}
	assert.Error(t, ValidateBook(unsorted))
}

func TestRunsBookCoverage(t *testing.T) {
	cs := CurrentCodeset()

	magnitudes := make(map[int32]bool)
	runs := make(map[int]bool)
	bandEnd := 0
	for _, entry := range cs.RunsBook {
		switch {
		case entry.IsBandEnd():
			bandEnd++
		case entry.Value == 0:
			runs[entry.Count] = true
		default:
			assert.Equal(t, 1, entry.Count, "value codes cover one coefficient")
			magnitudes[entry.Value] = true
		}
	}

	assert.Equal(t, 1, bandEnd, "exactly one band-end codeword")
	for m := int32(1); m <= MaxMagnitude; m++ {
		assert.True(t, magnitudes[m], "magnitude %d missing", m)
	}
	for _, r := range []int{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, MaxRunLength} {
		assert.True(t, runs[r], "run %d missing", r)
	}
}

func TestRunTableGreedyChoice(t *testing.T) {
	cs := CurrentCodeset()
	cases := map[int]int{
		1:    1,
		2:    2,
		3:    2,
		7:    4,
		53:   32,
		255:  128,
		256:  256,
		2880: MaxRunLength,
	}
	for length, want := range cases {
		assert.Equal(t, want, cs.runTable[length].Count, "length %d", length)
	}
}

func TestSingleZeroCostsOneBit(t *testing.T) {
	cs := CurrentCodeset()
	assert.Equal(t, 1, cs.runTable[1].Size)
	assert.Equal(t, uint32(0), cs.runTable[1].Bits)
}

// The fast lookup table and the codebook search must agree on every bit
// pattern that both can handle.
func TestFastTableMatchesCodebook(t *testing.T) {
	cs := CurrentCodeset()
	for index := 0; index < 1<<fastTableBits; index++ {
		entry := cs.fastTable[index]
		if entry.kind == fastFallback {
			continue
		}

		// Find the codebook entry whose codeword is the prefix of the
		// index, by brute force.
		matched := false
		for _, code := range cs.RunsBook {
			if code.Size > fastTableBits {
				continue
			}
			prefix := uint32(index) >> uint(fastTableBits-code.Size)
			if prefix != code.Bits {
				continue
			}
			matched = true
			if code.IsBandEnd() {
				assert.Equal(t, fastBandEnd, entry.kind, "index %#x", index)
				break
			}
			if code.Value == 0 {
				assert.Equal(t, fastDirect, entry.kind, "index %#x", index)
				assert.Equal(t, int32(code.Count), entry.count, "index %#x", index)
				assert.Equal(t, int32(0), entry.value, "index %#x", index)
				assert.Equal(t, uint8(code.Size), entry.shift, "index %#x", index)
				break
			}
			// Value code: the table entry embeds the sign bit that
			// follows the codeword.
			sign := (uint32(index) >> uint(fastTableBits-code.Size-1)) & 1
			want := code.Value
			if sign == 1 {
				want = -want
			}
			assert.Equal(t, fastDirect, entry.kind, "index %#x", index)
			assert.Equal(t, want, entry.value, "index %#x", index)
			assert.Equal(t, uint8(code.Size+1), entry.shift, "index %#x", index)
			break
		}
		assert.True(t, matched, "direct entry %#x has no codebook match", index)
	}
}

func TestValueBookAgreesWithMagnitudes(t *testing.T) {
	cs := CurrentCodeset()
	for v := -128; v <= 127; v++ {
		code := cs.valueBook[uint8(int8(v))]
		if v == 0 {
			assert.Equal(t, 1, code.Size)
			continue
		}
		magnitude := v
		sign := uint32(0)
		if magnitude < 0 {
			magnitude = -magnitude
			sign = 1
		}
		mag := cs.magTable[magnitude]
		assert.Equal(t, mag.Size+1, code.Size, "value %d", v)
		assert.Equal(t, mag.Bits<<1|sign, code.Bits, "value %d", v)
	}
}

func TestMagnitudeBookIsTable1a(t *testing.T) {
	book := CurrentCodeset().Magnitude
	require.Len(t, book, 8)
	assert.Equal(t, VLC{1, 0x0000}, book[0])
	assert.Equal(t, VLC{14, 0x3F52}, book[7])
}
