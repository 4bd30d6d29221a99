package wavelet

// The 2/6 analysis pair. The lowpass output is the sum of each input
// pair; the highpass output is the pair difference plus a correction
// computed from the neighboring pairs, with dedicated taps at the first
// and last positions. Rounding adds four before the arithmetic shift by
// three, so halves round toward positive infinity, and every result
// saturates to 16-bit signed on store.
// These kernels are normative: bit-exact reconstruction requires this
// exact rounding and saturation.

// sat16 clamps a 32-bit intermediate to the 16-bit signed range.
func sat16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// minFilterLength is the shortest row or column the boundary taps can
// process.
const minFilterLength = 6

// forwardRow applies the 2/6 analysis filter to one row. The low output
// at position k is x[2k] + x[2k+1]; the high output is the pair
// difference corrected by the neighboring pair sums.
func forwardRow(input []int16, low, high []int16) {
	width := len(input)
	half := width / 2

	for k := 0; k < half; k++ {
		low[k] = sat16(int32(input[2*k]) + int32(input[2*k+1]))
	}

	x := func(i int) int32 { return int32(input[i]) }

	high[0] = sat16((5*x(0) - 11*x(1) + 4*x(2) + 4*x(3) - x(4) - x(5) + 4) >> 3)
	for k := 1; k < half-1; k++ {
		diff := x(2*k) - x(2*k+1)
		correction := (-x(2*k-2) - x(2*k-1) + x(2*k+2) + x(2*k+3) + 4) >> 3
		high[k] = sat16(correction + diff)
	}
	w := width
	high[half-1] = sat16((11*x(w-2) - 5*x(w-1) - 4*x(w-3) - 4*x(w-4) + x(w-5) + x(w-6) + 4) >> 3)
}

// inverseRow reconstructs one row from its low and high halves. The pair
// difference is recovered by subtracting the correction recomputed from
// the lowpass values, then the even and odd samples are restored from the
// sum and difference.
func inverseRow(low, high []int16, output []int16) {
	half := len(low)

	l := func(k int) int32 { return int32(low[k]) }

	for k := 0; k < half; k++ {
		var correction int32
		switch {
		case k == 0:
			correction = (-3*l(0) + 4*l(1) - l(2) + 4) >> 3
		case k == half-1:
			correction = (3*l(half-1) - 4*l(half-2) + l(half-3) + 4) >> 3
		default:
			correction = (-l(k-1) + l(k+1) + 4) >> 3
		}
		diff := int32(high[k]) - correction
		sum := l(k)
		output[2*k] = sat16((sum + diff + 1) >> 1)
		output[2*k+1] = sat16((sum - diff + 1) >> 1)
	}
}

// forwardColumns applies the 2/6 filter down the columns of the rows
// slice, producing half as many low and high rows. The row closures let
// the caller present band or strip storage without copying.
func forwardColumns(height, width int, input func(int) []int16, low, high func(int) []int16) {
	half := height / 2

	for k := 0; k < half; k++ {
		top := input(2 * k)
		bottom := input(2*k + 1)
		out := low(k)
		for x := 0; x < width; x++ {
			out[x] = sat16(int32(top[x]) + int32(bottom[x]))
		}
	}

	for k := 0; k < half; k++ {
		out := high(k)
		switch {
		case k == 0:
			r0, r1, r2 := input(0), input(1), input(2)
			r3, r4, r5 := input(3), input(4), input(5)
			for x := 0; x < width; x++ {
				out[x] = sat16((5*int32(r0[x]) - 11*int32(r1[x]) +
					4*int32(r2[x]) + 4*int32(r3[x]) -
					int32(r4[x]) - int32(r5[x]) + 4) >> 3)
			}
		case k == half-1:
			h := height
			r0, r1 := input(h-2), input(h-1)
			r2, r3 := input(h-3), input(h-4)
			r4, r5 := input(h-5), input(h-6)
			for x := 0; x < width; x++ {
				out[x] = sat16((11*int32(r0[x]) - 5*int32(r1[x]) -
					4*int32(r2[x]) - 4*int32(r3[x]) +
					int32(r4[x]) + int32(r5[x]) + 4) >> 3)
			}
		default:
			ra, rb := input(2*k-2), input(2*k-1)
			rc, rd := input(2*k), input(2*k+1)
			re, rf := input(2*k+2), input(2*k+3)
			for x := 0; x < width; x++ {
				diff := int32(rc[x]) - int32(rd[x])
				correction := (-int32(ra[x]) - int32(rb[x]) +
					int32(re[x]) + int32(rf[x]) + 4) >> 3
				out[x] = sat16(correction + diff)
			}
		}
	}
}

// inverseColumns reconstructs the full-height rows from half-height low
// and high rows.
func inverseColumns(half, width int, low, high func(int) []int16, output func(int) []int16) {
	for k := 0; k < half; k++ {
		sumRow := low(k)
		highRow := high(k)
		even := output(2 * k)
		odd := output(2*k + 1)

		switch {
		case k == 0:
			l0, l1, l2 := low(0), low(1), low(2)
			for x := 0; x < width; x++ {
				correction := (-3*int32(l0[x]) + 4*int32(l1[x]) - int32(l2[x]) + 4) >> 3
				diff := int32(highRow[x]) - correction
				sum := int32(sumRow[x])
				even[x] = sat16((sum + diff + 1) >> 1)
				odd[x] = sat16((sum - diff + 1) >> 1)
			}
		case k == half-1:
			l0, l1, l2 := low(half-1), low(half-2), low(half-3)
			for x := 0; x < width; x++ {
				correction := (3*int32(l0[x]) - 4*int32(l1[x]) + int32(l2[x]) + 4) >> 3
				diff := int32(highRow[x]) - correction
				sum := int32(sumRow[x])
				even[x] = sat16((sum + diff + 1) >> 1)
				odd[x] = sat16((sum - diff + 1) >> 1)
			}
		default:
			la, lb := low(k-1), low(k+1)
			for x := 0; x < width; x++ {
				correction := (-int32(la[x]) + int32(lb[x]) + 4) >> 3
				diff := int32(highRow[x]) - correction
				sum := int32(sumRow[x])
				even[x] = sat16((sum + diff + 1) >> 1)
				odd[x] = sat16((sum - diff + 1) >> 1)
			}
		}
	}
}

// ForwardHorizontal applies the 2/6 filter to every row of one band of
// src, storing the low and high halves into two bands of dst.
func ForwardHorizontal(src *Image, srcBand int, dst *Image, lowBand, highBand int) error {
	if src.Width < minFilterLength || src.Width%2 != 0 {
		return ErrBadDimensions
	}
	if dst.Width != src.Width/2 || dst.Height != src.Height {
		return ErrBadDimensions
	}
	for y := 0; y < src.Height; y++ {
		forwardRow(src.Row(srcBand, y), dst.Row(lowBand, y), dst.Row(highBand, y))
	}
	dst.Scale[lowBand] = src.Scale[srcBand] * 2
	dst.Scale[highBand] = src.Scale[srcBand]
	return nil
}

// InverseHorizontal reconstructs every row of a band of dst from the low
// and high bands of src.
func InverseHorizontal(src *Image, lowBand, highBand int, dst *Image, dstBand int) error {
	if dst.Width != src.Width*2 || dst.Height != src.Height {
		return ErrBadDimensions
	}
	for y := 0; y < src.Height; y++ {
		inverseRow(src.Row(lowBand, y), src.Row(highBand, y), dst.Row(dstBand, y))
	}
	return nil
}

// ForwardVertical applies the 2/6 filter down the columns of one band.
func ForwardVertical(src *Image, srcBand int, dst *Image, lowBand, highBand int) error {
	if src.Height < minFilterLength || src.Height%2 != 0 {
		return ErrBadDimensions
	}
	if dst.Height != src.Height/2 || dst.Width != src.Width {
		return ErrBadDimensions
	}
	forwardColumns(src.Height, src.Width,
		func(y int) []int16 { return src.Row(srcBand, y) },
		func(y int) []int16 { return dst.Row(lowBand, y) },
		func(y int) []int16 { return dst.Row(highBand, y) })
	dst.Scale[lowBand] = src.Scale[srcBand] * 2
	dst.Scale[highBand] = src.Scale[srcBand]
	return nil
}

// InverseVertical reconstructs the columns of a band of dst from the low
// and high bands of src.
func InverseVertical(src *Image, lowBand, highBand int, dst *Image, dstBand int) error {
	if dst.Height != src.Height*2 || dst.Width != src.Width {
		return ErrBadDimensions
	}
	inverseColumns(src.Height, src.Width,
		func(y int) []int16 { return src.Row(lowBand, y) },
		func(y int) []int16 { return src.Row(highBand, y) },
		func(y int) []int16 { return dst.Row(dstBand, y) })
	return nil
}

// ForwardTemporal computes the temporal transform of two aligned frames:
// the lowpass band is the sum and the highpass band the difference.
func ForwardTemporal(frame0 *Image, band0 int, frame1 *Image, band1 int, dst *Image) error {
	if frame0.Width != frame1.Width || frame0.Height != frame1.Height {
		return ErrBadDimensions
	}
	if dst.Width != frame0.Width || dst.Height != frame0.Height {
		return ErrBadDimensions
	}
	for y := 0; y < dst.Height; y++ {
		row0 := frame0.Row(band0, y)
		row1 := frame1.Row(band1, y)
		low := dst.Row(BandLowpass, y)
		high := dst.Row(BandHighpass, y)
		for x := range row0 {
			low[x] = sat16(int32(row0[x]) + int32(row1[x]))
			high[x] = sat16(int32(row0[x]) - int32(row1[x]))
		}
	}
	dst.Scale[BandLowpass] = frame0.Scale[band0] * 2
	dst.Scale[BandHighpass] = frame0.Scale[band0]
	return nil
}

// InverseTemporal restores both frames from a temporal wavelet.
func InverseTemporal(src *Image, frame0 *Image, band0 int, frame1 *Image, band1 int) error {
	if frame0.Width != src.Width || frame0.Height != src.Height ||
		frame1.Width != src.Width || frame1.Height != src.Height {
		return ErrBadDimensions
	}
	for y := 0; y < src.Height; y++ {
		low := src.Row(BandLowpass, y)
		high := src.Row(BandHighpass, y)
		row0 := frame0.Row(band0, y)
		row1 := frame1.Row(band1, y)
		for x := range low {
			sum := int32(low[x])
			diff := int32(high[x])
			row0[x] = sat16((sum + diff + 1) >> 1)
			row1[x] = sat16((sum - diff + 1) >> 1)
		}
	}
	return nil
}
