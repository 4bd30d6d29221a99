package wavelet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Quantization law: with a zero midpoint the reconstruction lands within
// one step of the original.
func TestQuantizationLaw(t *testing.T) {
	for _, q := range []int32{1, 2, 3, 5, 8, 16, 100} {
		for _, c := range []int32{-32768, -32767, -1000, -17, -1, 0, 1, 17, 999, 32767} {
			restored := Dequantize(Quantize(c, q, 0), q)
			low := c - q + 1
			high := c + q - 1
			assert.GreaterOrEqual(t, restored, low, "c=%d q=%d", c, q)
			assert.LessOrEqual(t, restored, high, "c=%d q=%d", c, q)
			if diff := restored - c; diff < 0 {
				assert.LessOrEqual(t, -diff, q, "c=%d q=%d", c, q)
			} else {
				assert.LessOrEqual(t, diff, q, "c=%d q=%d", c, q)
			}
		}
	}
}

// Scenario: a random band quantized with q=8 reconstructs within 7, with
// a small mean error.
func TestQuantizedBandErrorBounds(t *testing.T) {
	im, err := NewImage(64, 64)
	require.NoError(t, err)
	im.FillRandom(0, 0, 65535, 1234)

	original := make([]int16, 0, 64*64)
	for y := 0; y < 64; y++ {
		original = append(original, im.Row(0, y)...)
	}

	im.QuantizeBand(0, 8, 0)
	assert.Equal(t, 8, im.Quant[0])
	im.DequantizeBand(0)

	maxErr := 0
	sumErr := 0
	i := 0
	for y := 0; y < 64; y++ {
		for _, v := range im.Row(0, y) {
			diff := int(original[i]) - int(v)
			if diff < 0 {
				diff = -diff
			}
			if diff > maxErr {
				maxErr = diff
			}
			sumErr += diff
			i++
		}
	}
	assert.LessOrEqual(t, maxErr, 7, "max reconstruction error")
	assert.LessOrEqual(t, sumErr/(64*64), 4, "mean error magnitude")
}

func TestMidpointBias(t *testing.T) {
	assert.Equal(t, int32(0), Midpoint(8, 0))
	assert.Equal(t, int32(4), Midpoint(8, 2))
	assert.Equal(t, int32(1), Midpoint(8, 8))
	assert.Equal(t, int32(0), Midpoint(8, 9))

	// With a q/2 midpoint the quantizer rounds to nearest.
	assert.Equal(t, int32(1), Quantize(5, 8, 4))
	assert.Equal(t, int32(0), Quantize(3, 8, 4))
	assert.Equal(t, int32(-1), Quantize(-5, 8, 4))
}

func TestQuantizerTable(t *testing.T) {
	// Lossless leaves every band untouched.
	for band := 1; band < 4; band++ {
		assert.Equal(t, 1, QuantizerForBand(QualityLossless, 1, band, WaveletTypeSpatial))
	}

	// The diagonal band at the finest level quantizes hardest.
	hh := QuantizerForBand(QualityMedium, 1, BandHighHigh, WaveletTypeSpatial)
	lh := QuantizerForBand(QualityMedium, 1, BandLowHigh, WaveletTypeSpatial)
	assert.Greater(t, hh, lh)

	// Deeper levels quantize less.
	deep := QuantizerForBand(QualityMedium, 3, BandHighHigh, WaveletTypeSpatial)
	assert.Less(t, deep, hh)

	// Divisors never fall below one.
	assert.GreaterOrEqual(t, QuantizerForBand(QualityLossless, 4, BandHighHigh, WaveletTypeSpatial), 1)
}

func TestPrescalePackRoundTrip(t *testing.T) {
	table := [MaxWavelets]int{2, 2, 1, 0, 3, 0, 0, 1}
	packed := PackPrescale(table)
	assert.Equal(t, table, UnpackPrescale(packed))
}

func TestDefaultPrescaleByPrecision(t *testing.T) {
	assert.Equal(t, [MaxWavelets]int{}, DefaultPrescale(8))
	assert.Equal(t, [MaxWavelets]int{0: 2}, DefaultPrescale(10))
	assert.Equal(t, [MaxWavelets]int{0: 2, 1: 2}, DefaultPrescale(12))
	assert.Equal(t, [MaxWavelets]int{0: 2, 1: 2, 2: 2}, DefaultPrescale(16))
}

func TestPrescaleRescaleBands(t *testing.T) {
	im, err := NewImage(8, 8)
	require.NoError(t, err)
	for y := 0; y < 8; y++ {
		row := im.Row(0, y)
		for x := range row {
			row[x] = int16(100 * (x + 1))
		}
	}
	im.PrescaleBand(0, 2)
	assert.Equal(t, int16(25), im.Row(0, 0)[0])
	im.RescaleBand(0, 2)
	assert.Equal(t, int16(100), im.Row(0, 0)[0])
}
