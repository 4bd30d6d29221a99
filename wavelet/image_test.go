package wavelet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestNewWaveletGeometry(t *testing.T) {
	w, err := NewWavelet(30, 20, 1, WaveletTypeSpatial)
	require.NoError(t, err)

	assert.Equal(t, 4, w.NumBands)
	assert.Equal(t, 64, w.Pitch, "30 coefficients round up to the next aligned pitch")
	assert.Equal(t, 0, w.Pitch%RowAlignment)
	assert.GreaterOrEqual(t, w.Pitch, w.Width*2)

	for k := 0; k < w.NumBands; k++ {
		assert.Equal(t, BandMemoryShared, w.BandMemoryState(k))
		assert.Equal(t, 1, w.Quant[k])
		assert.Len(t, w.Row(k, 0), 30)
	}
}

func TestBandCountsByType(t *testing.T) {
	cases := map[WaveletType]int{
		WaveletTypeImage:      1,
		WaveletTypeHorizontal: 2,
		WaveletTypeVertical:   2,
		WaveletTypeTemporal:   2,
		WaveletTypeSpatial:    4,
		WaveletTypeHorzTemp:   4,
		WaveletTypeVertTemp:   4,
	}
	for wtype, want := range cases {
		assert.Equal(t, want, wtype.NumBands(), "type %d", wtype)
	}
	assert.Equal(t, WaveletTypeHorzTemp, WaveletType(WaveletTypeFrame))
}

func TestAllocateBand(t *testing.T) {
	w, err := NewWavelet(16, 16, 0, WaveletTypeHorizontal)
	require.NoError(t, err)
	assert.Equal(t, BandMemoryNone, w.BandMemoryState(2))

	require.NoError(t, w.AllocateBand(2))
	assert.Equal(t, BandMemoryAllocated, w.BandMemoryState(2))
	assert.Equal(t, 3, w.NumBands)

	// Allocating again is a no-op.
	require.NoError(t, w.AllocateBand(2))
	assert.Error(t, w.AllocateBand(9))
}

func TestRealloc(t *testing.T) {
	im, err := NewWavelet(16, 16, 0, WaveletTypeSpatial)
	require.NoError(t, err)
	im.FillRandom(0, 0, 100, 1)

	require.NoError(t, im.Realloc(32, 8))
	assert.Equal(t, 32, im.Width)
	assert.Equal(t, 8, im.Height)
	assert.Equal(t, 4, im.NumBands)
	assert.Equal(t, int16(0), im.Row(0, 0)[0], "contents are not preserved")
	assert.Error(t, im.Realloc(0, 8))
}

func TestImageFromArrayAliases(t *testing.T) {
	data := make([]int16, 16*8)
	im, err := NewImageFromArray(data, 16, 8, 32)
	require.NoError(t, err)
	assert.Equal(t, BandMemoryAliased, im.BandMemoryState(0))

	im.Row(0, 1)[0] = 42
	assert.Equal(t, int16(42), data[16], "writes land in the external buffer")

	_, err = NewImageFromArray(data, 16, 9, 32)
	assert.Error(t, err, "buffer too small for the dimensions")
}

func TestBandStatistics(t *testing.T) {
	im, err := NewImage(8, 8)
	require.NoError(t, err)

	values := []int16{5, -3, 0, 7, -9, 0, 0, 2}
	reference := make([]float64, 0, 64)
	for y := 0; y < 8; y++ {
		row := im.Row(0, y)
		for x := range row {
			row[x] = values[(y*8+x)%len(values)]
			reference = append(reference, float64(row[x]))
		}
	}

	stats := im.BandStatistics(0)
	assert.Equal(t, 24, stats.Positive)
	assert.Equal(t, 16, stats.Negative)
	assert.Equal(t, 24, stats.Zero)
	assert.Equal(t, int16(-9), stats.Min)
	assert.Equal(t, int16(7), stats.Max)
	assert.InDelta(t, stat.Mean(reference, nil), stats.Mean, 1e-9)
}

func TestFillRandomDeterministic(t *testing.T) {
	a, err := NewImage(16, 16)
	require.NoError(t, err)
	b, err := NewImage(16, 16)
	require.NoError(t, err)

	a.FillRandom(0, 0, 200, 7)
	b.FillRandom(0, 0, 200, 7)
	for y := 0; y < 16; y++ {
		assert.Equal(t, a.Row(0, y), b.Row(0, y), "row %d", y)
	}

	b.FillRandom(0, 0, 200, 8)
	different := false
	for y := 0; y < 16 && !different; y++ {
		rowA, rowB := a.Row(0, y), b.Row(0, y)
		for x := range rowA {
			if rowA[x] != rowB[x] {
				different = true
				break
			}
		}
	}
	assert.True(t, different, "different seeds produce different bands")
}

func TestCopyAndClearBand(t *testing.T) {
	src, err := NewImage(8, 8)
	require.NoError(t, err)
	src.FillRandom(0, 0, 100, 3)

	dst, err := NewImage(8, 8)
	require.NoError(t, err)
	require.NoError(t, dst.CopyBand(0, src, 0))
	assert.Equal(t, src.Row(0, 3), dst.Row(0, 3))

	dst.ClearBand(0)
	for _, v := range dst.Row(0, 3) {
		assert.Equal(t, int16(0), v)
	}
}
