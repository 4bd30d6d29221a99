package wavelet

// ForwardSpatial computes the four-band spatial wavelet of one band: the
// horizontal filter is applied to every row producing lowpass and
// highpass strips, then the vertical filter is applied to each strip.
func ForwardSpatial(src *Image, srcBand int, dst *Image) error {
	if src.Width < minFilterLength || src.Width%2 != 0 ||
		src.Height < minFilterLength || src.Height%2 != 0 {
		return ErrBadDimensions
	}
	if dst.Width != src.Width/2 || dst.Height != src.Height/2 || dst.NumBands != 4 {
		return ErrBadDimensions
	}

	strips, err := NewWavelet(src.Width/2, src.Height, 0, WaveletTypeHorizontal)
	if err != nil {
		return err
	}
	strips.Scale[0] = src.Scale[srcBand]
	if err := ForwardHorizontal(src, srcBand, strips, BandLowpass, BandHighpass); err != nil {
		return err
	}

	// Vertical filter of the lowpass strip yields LL and HL; the highpass
	// strip yields LH and HH.
	forwardColumns(strips.Height, strips.Width,
		func(y int) []int16 { return strips.Row(BandLowpass, y) },
		func(y int) []int16 { return dst.Row(BandLowLow, y) },
		func(y int) []int16 { return dst.Row(BandHighLow, y) })
	forwardColumns(strips.Height, strips.Width,
		func(y int) []int16 { return strips.Row(BandHighpass, y) },
		func(y int) []int16 { return dst.Row(BandLowHigh, y) },
		func(y int) []int16 { return dst.Row(BandHighHigh, y) })

	base := src.Scale[srcBand]
	dst.Scale[BandLowLow] = base * 4
	dst.Scale[BandLowHigh] = base * 2
	dst.Scale[BandHighLow] = base * 2
	dst.Scale[BandHighHigh] = base
	return nil
}

// InverseSpatial reconstructs a band from a four-band spatial wavelet:
// the vertical inverse restores the lowpass and highpass strips from the
// LL/HL and LH/HH pairs, then the horizontal inverse restores each row.
func InverseSpatial(src *Image, dst *Image, dstBand int) error {
	if dst.Width != src.Width*2 || dst.Height != src.Height*2 {
		return ErrBadDimensions
	}

	strips, err := NewWavelet(src.Width, src.Height*2, 0, WaveletTypeHorizontal)
	if err != nil {
		return err
	}
	inverseColumns(src.Height, src.Width,
		func(y int) []int16 { return src.Row(BandLowLow, y) },
		func(y int) []int16 { return src.Row(BandHighLow, y) },
		func(y int) []int16 { return strips.Row(BandLowpass, y) })
	inverseColumns(src.Height, src.Width,
		func(y int) []int16 { return src.Row(BandLowHigh, y) },
		func(y int) []int16 { return src.Row(BandHighHigh, y) },
		func(y int) []int16 { return strips.Row(BandHighpass, y) })

	for y := 0; y < dst.Height; y++ {
		inverseRow(strips.Row(BandLowpass, y), strips.Row(BandHighpass, y), dst.Row(dstBand, y))
	}
	return nil
}

// ForwardInterlaced computes the frame wavelet of an interlaced frame: a
// temporal step between the even and odd fields combined with a
// horizontal step. The band layout is LL and LH from the temporal
// lowpass, HL and HH from the temporal highpass; other assignments are
// invalid.
func ForwardInterlaced(src *Image, srcBand int, dst *Image) error {
	if src.Width < minFilterLength || src.Width%2 != 0 || src.Height%2 != 0 {
		return ErrBadDimensions
	}
	if dst.Width != src.Width/2 || dst.Height != src.Height/2 || dst.NumBands != 4 {
		return ErrBadDimensions
	}

	width := src.Width
	half := width / 2
	lowRow := make([]int16, width)
	highRow := make([]int16, width)

	for k := 0; k < src.Height/2; k++ {
		even := src.Row(srcBand, 2*k)
		odd := src.Row(srcBand, 2*k+1)
		for x := 0; x < width; x++ {
			lowRow[x] = sat16(int32(even[x]) + int32(odd[x]))
			highRow[x] = sat16(int32(even[x]) - int32(odd[x]))
		}
		forwardRow(lowRow, dst.Row(BandLowLow, k)[:half], dst.Row(BandLowHigh, k)[:half])
		forwardRow(highRow, dst.Row(BandHighLow, k)[:half], dst.Row(BandHighHigh, k)[:half])
	}

	base := src.Scale[srcBand]
	dst.Scale[BandLowLow] = base * 4
	dst.Scale[BandLowHigh] = base * 2
	dst.Scale[BandHighLow] = base * 2
	dst.Scale[BandHighHigh] = base
	return nil
}

// InverseInterlaced restores an interlaced frame from its frame wavelet:
// the horizontal inverse rebuilds the temporal lowpass and highpass rows,
// then the temporal inverse restores the two field rows.
func InverseInterlaced(src *Image, dst *Image, dstBand int) error {
	if dst.Width != src.Width*2 || dst.Height != src.Height*2 {
		return ErrBadDimensions
	}

	width := dst.Width
	lowRow := make([]int16, width)
	highRow := make([]int16, width)

	for k := 0; k < src.Height; k++ {
		inverseRow(src.Row(BandLowLow, k), src.Row(BandLowHigh, k), lowRow)
		inverseRow(src.Row(BandHighLow, k), src.Row(BandHighHigh, k), highRow)
		even := dst.Row(dstBand, 2*k)
		odd := dst.Row(dstBand, 2*k+1)
		for x := 0; x < width; x++ {
			sum := int32(lowRow[x])
			diff := int32(highRow[x])
			even[x] = sat16((sum + diff + 1) >> 1)
			odd[x] = sat16((sum - diff + 1) >> 1)
		}
	}
	return nil
}
