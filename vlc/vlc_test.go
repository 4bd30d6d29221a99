package vlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocosip/go-cineform/bitstream"
)

func encodeAtoms(t *testing.T, emit func(*bitstream.Bitstream)) *bitstream.Bitstream {
	t.Helper()
	buffer := make([]byte, 1<<16)
	writer := bitstream.NewWriter(buffer)
	emit(writer)
	writer.Flush()
	require.NoError(t, writer.Err())
	return bitstream.NewReader(buffer)
}

func TestPutValueRoundTrip(t *testing.T) {
	cs := CurrentCodeset()
	values := make([]int32, 0, 700)
	for v := int32(-300); v <= 300; v++ {
		values = append(values, v)
	}
	values = append(values, 512, -512, 1000, -1000, 4095, -4095)
	for _, v := range values {
		if v == 0 {
			continue
		}
		value := v
		reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
			saturated := cs.PutValue(w, value)
			assert.False(t, saturated, "value %d", value)
		})

		var run Run
		end, err := cs.GetRlv(reader, &run)
		require.NoError(t, err, "value %d", value)
		require.False(t, end)
		assert.Equal(t, 1, run.Count, "value %d", value)
		assert.Equal(t, value, run.Value, "value %d", value)
	}
}

func TestPutValueSaturates(t *testing.T) {
	cs := CurrentCodeset()
	reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
		assert.True(t, cs.PutValue(w, 5000))
		assert.True(t, cs.PutValue(w, -10000))
	})

	var run Run
	_, err := cs.GetRlv(reader, &run)
	require.NoError(t, err)
	assert.Equal(t, int32(MaxMagnitude), run.Value)

	_, err = cs.GetRlv(reader, &run)
	require.NoError(t, err)
	assert.Equal(t, int32(-MaxMagnitude), run.Value)
}

func TestZeroRunRoundTrip(t *testing.T) {
	cs := CurrentCodeset()
	for _, length := range []int{1, 2, 3, 5, 16, 53, 202, 255, 256, 1000, 2880, 2881, 10000} {
		runLength := length
		reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
			cs.PutZeroRun(w, runLength)
			cs.PutBandEnd(w)
		})

		total := 0
		for {
			var run Run
			end, err := cs.GetRlv(reader, &run)
			require.NoError(t, err, "length %d", runLength)
			if end {
				break
			}
			require.Equal(t, int32(0), run.Value)
			total += run.Count
		}
		assert.Equal(t, runLength, total, "length %d", runLength)
	}
}

func TestGetVlcSignedRoundTrip(t *testing.T) {
	book := CurrentCodeset().Magnitude
	for v := int32(-7); v <= 7; v++ {
		value := v
		reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
			assert.False(t, PutVlcSigned(w, value, book))
		})
		got, err := GetVlcSigned(reader, book)
		require.NoError(t, err, "value %d", value)
		assert.Equal(t, value, got)
	}
}

func TestPutVlcSignedSaturates(t *testing.T) {
	book := CurrentCodeset().Magnitude
	reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
		assert.True(t, PutVlcSigned(w, 99, book))
	})
	got, err := GetVlcSigned(reader, book)
	require.NoError(t, err)
	assert.Equal(t, int32(len(book)-1), got)
}

// Scenario: a 16x16 band of zeros is one run code covering 256 atoms,
// the band-end codeword, and padding.
func TestEmptyBandScenario(t *testing.T) {
	cs := CurrentCodeset()
	reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
		cs.PutZeroRun(w, 256)
		cs.PutBandEnd(w)
		w.PadBitsTag()
	})

	var run Run
	end, err := cs.GetRlv(reader, &run)
	require.NoError(t, err)
	require.False(t, end)
	assert.Equal(t, 256, run.Count, "a 256 zero run is a single code")
	assert.Equal(t, int32(0), run.Value)

	end, err = cs.GetRlv(reader, &run)
	require.NoError(t, err)
	assert.True(t, end)
}

// Scenario: a single impulse at row 3, column 5 of a 16x16 band.
func TestSingleImpulseScenario(t *testing.T) {
	cs := CurrentCodeset()
	const width, height = 16, 16
	band := make([]int32, width*height)
	band[3*width+5] = 7

	reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
		run := 0
		for _, v := range band {
			if v == 0 {
				run++
				continue
			}
			if run > 0 {
				cs.PutZeroRun(w, run)
				run = 0
			}
			cs.PutValue(w, v)
		}
		if run > 0 {
			cs.PutZeroRun(w, run)
		}
		cs.PutBandEnd(w)
	})

	decoded := make([]int32, width*height)
	pos := 0
	for pos < len(decoded) {
		scan := ScanState{Column: pos % width, Width: width}
		start := scan.Column
		end, err := cs.ScanRlvRow(reader, &scan)
		require.NoError(t, err)
		require.False(t, end, "band end before coverage is complete")
		advance := scan.Column - start
		require.Greater(t, advance, 0)
		if scan.Value != 0 {
			decoded[pos+advance-1] = scan.Value
		}
		pos += advance
	}

	var run Run
	end, err := cs.GetRlv(reader, &run)
	require.NoError(t, err)
	assert.True(t, end, "band end terminates the stream")

	assert.Equal(t, band, decoded)
}

func TestScanRlvRowStopsAtWidth(t *testing.T) {
	cs := CurrentCodeset()
	reader := encodeAtoms(t, func(w *bitstream.Bitstream) {
		cs.PutZeroRun(w, 64)
		cs.PutBandEnd(w)
	})

	scan := ScanState{Column: 0, Width: 16}
	end, err := cs.ScanRlvRow(reader, &scan)
	require.NoError(t, err)
	require.False(t, end)
	assert.GreaterOrEqual(t, scan.Column, 16)
	assert.Equal(t, int32(0), scan.Value)
}

func TestUnmatchedCodeword(t *testing.T) {
	cs := CurrentCodeset()
	// The pattern 11111110 11111111 indexes the sixteen-bit magnitude
	// block past its last assigned suffix.
	buffer := make([]byte, 8)
	buffer[0] = 0xFE
	buffer[1] = 0xFF
	reader := bitstream.NewReader(buffer)

	var run Run
	_, err := cs.GetRlv(reader, &run)
	assert.ErrorIs(t, err, ErrUnmatched)
}

func BenchmarkScanBand(b *testing.B) {
	cs := CurrentCodeset()
	const width, height = 64, 64
	buffer := make([]byte, 1<<18)
	writer := bitstream.NewWriter(buffer)
	for i := 0; i < height; i++ {
		cs.PutZeroRun(writer, width-1)
		cs.PutValue(writer, int32(i%17-8))
	}
	cs.PutBandEnd(writer)
	writer.Flush()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reader := bitstream.NewReader(buffer)
		pos := 0
		for pos < width*height {
			scan := ScanState{Column: pos % width, Width: width}
			start := scan.Column
			end, err := cs.ScanRlvRow(reader, &scan)
			if err != nil || end {
				break
			}
			pos += scan.Column - start
		}
	}
}
