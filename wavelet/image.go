// Package wavelet implements the spatio-temporal wavelet pyramid: the
// multi-band coefficient images, the forward and inverse 2/6 filters, the
// transform schedules, and quantization. Coefficients are 16-bit signed
// values; all filter arithmetic is performed in 32-bit and saturated on
// store.
package wavelet

import "errors"

// RowAlignment is the byte alignment of each coefficient row.
const RowAlignment = 16

// MaxBands is the largest number of bands in a wavelet image.
const MaxBands = 4

// WaveletType identifies the filters that produced a wavelet image. The
// bits record the transform dimensions: one bit set yields a two-band
// wavelet, two bits a four-band wavelet.
type WaveletType int

const (
	WaveletTypeImage      WaveletType = 0 // not a wavelet
	WaveletTypeHorizontal WaveletType = 1
	WaveletTypeVertical   WaveletType = 2
	WaveletTypeTemporal   WaveletType = 4

	WaveletTypeSpatial  = WaveletTypeHorizontal | WaveletTypeVertical
	WaveletTypeHorzTemp = WaveletTypeHorizontal | WaveletTypeTemporal
	WaveletTypeVertTemp = WaveletTypeVertical | WaveletTypeTemporal

	// Development-only quad variants.
	WaveletTypeTempQuad WaveletType = 8
	WaveletTypeHorzQuad WaveletType = 9

	// WaveletTypeFrame is the usual name for the temporal-horizontal
	// wavelet applied between the two fields of an interlaced frame.
	WaveletTypeFrame = WaveletTypeHorzTemp

	// WaveletTypeHighest is the largest type that appears in normal code.
	WaveletTypeHighest WaveletType = 5
)

// NumBands returns the number of bands a wavelet of this type carries.
func (t WaveletType) NumBands() int {
	switch t {
	case WaveletTypeImage:
		return 1
	case WaveletTypeHorizontal, WaveletTypeVertical, WaveletTypeTemporal:
		return 2
	case WaveletTypeSpatial, WaveletTypeHorzTemp, WaveletTypeVertTemp,
		WaveletTypeTempQuad, WaveletTypeHorzQuad:
		return 4
	default:
		return 0
	}
}

// Result bands for the spatial and temporal-horizontal transforms.
const (
	BandLowLow   = 0 // lowpass of the lowpass intermediate
	BandLowHigh  = 1 // lowpass of the highpass intermediate
	BandHighLow  = 2 // highpass of the lowpass intermediate
	BandHighHigh = 3 // highpass of the highpass intermediate
)

// Result bands for the two-band wavelet transforms.
const (
	BandLowpass  = 0
	BandHighpass = 1
)

// BandMemory records how the storage of a band was obtained so that
// release is unambiguous.
type BandMemory int

const (
	BandMemoryNone      BandMemory = iota
	BandMemoryShared               // part of the shared wavelet block
	BandMemoryAllocated            // allocated separately after creation
	BandMemoryAliased              // alias of an external buffer
)

var (
	// ErrBadDimensions is returned for dimensions the filters cannot
	// process.
	ErrBadDimensions = errors.New("wavelet: bad image dimensions")

	// ErrBadBand is returned for a band index outside the wavelet.
	ErrBadBand = errors.New("wavelet: bad band index")
)

// Image is a rectangular array of 16-bit signed coefficients organized as
// one, two, or four bands with a common row pitch rounded up to the row
// alignment.
type Image struct {
	Width  int // coefficients per row
	Height int // rows per band
	Pitch  int // bytes per row, identical for all bands

	Level    int         // level in the pyramid, zero is full resolution
	Type     WaveletType // filters that produced this wavelet
	NumBands int

	// Quant is the quantization divisor actually applied to each band.
	Quant [MaxBands]int

	// Scale is the cumulative amplification introduced by filtering,
	// needed to rescale the final lowpass for display.
	Scale [MaxBands]int

	band   [MaxBands][]int16
	memory [MaxBands]BandMemory
	block  []int16 // shared allocation backing the initial bands
}

// rowStride returns the row pitch in coefficients.
func (im *Image) rowStride() int { return im.Pitch / 2 }

// alignPitch rounds a row of width coefficients up to the row alignment,
// returning the pitch in bytes.
func alignPitch(width int) int {
	pitch := width * 2
	if r := pitch % RowAlignment; r != 0 {
		pitch += RowAlignment - r
	}
	return pitch
}

// NewImage creates a single-band image for pixel data entering or leaving
// the pyramid.
func NewImage(width, height int) (*Image, error) {
	return NewWavelet(width, height, 0, WaveletTypeImage)
}

// NewWavelet allocates a wavelet image with the bands required by its
// type, all backed by one shared block.
func NewWavelet(width, height, level int, wtype WaveletType) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrBadDimensions
	}
	numBands := wtype.NumBands()
	if numBands == 0 {
		return nil, ErrBadBand
	}
	im := &Image{
		Width:    width,
		Height:   height,
		Pitch:    alignPitch(width),
		Level:    level,
		Type:     wtype,
		NumBands: numBands,
	}
	bandSize := im.rowStride() * height
	im.block = make([]int16, bandSize*numBands)
	for k := 0; k < numBands; k++ {
		im.band[k] = im.block[k*bandSize : (k+1)*bandSize : (k+1)*bandSize]
		im.memory[k] = BandMemoryShared
		im.Quant[k] = 1
		im.Scale[k] = 1
	}
	return im, nil
}

// NewImageFromArray wraps an external coefficient buffer as a single-band
// image without copying. The pitch is in bytes and must be a multiple of
// two and at least the row width.
func NewImageFromArray(data []int16, width, height, pitch int) (*Image, error) {
	if width <= 0 || height <= 0 || pitch < width*2 || pitch%2 != 0 {
		return nil, ErrBadDimensions
	}
	if len(data) < (height-1)*(pitch/2)+width {
		return nil, ErrBadDimensions
	}
	im := &Image{
		Width:    width,
		Height:   height,
		Pitch:    pitch,
		Type:     WaveletTypeImage,
		NumBands: 1,
	}
	im.band[0] = data
	im.memory[0] = BandMemoryAliased
	im.Quant[0] = 1
	im.Scale[0] = 1
	return im, nil
}

// Realloc frees the image storage and allocates for new dimensions.
// The previous contents are not preserved.
func (im *Image) Realloc(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrBadDimensions
	}
	im.Width = width
	im.Height = height
	im.Pitch = alignPitch(width)
	bandSize := im.rowStride() * height
	im.block = make([]int16, bandSize*im.Type.NumBands())
	for k := 0; k < im.Type.NumBands(); k++ {
		im.band[k] = im.block[k*bandSize : (k+1)*bandSize : (k+1)*bandSize]
		im.memory[k] = BandMemoryShared
	}
	for k := im.Type.NumBands(); k < MaxBands; k++ {
		im.band[k] = nil
		im.memory[k] = BandMemoryNone
	}
	im.NumBands = im.Type.NumBands()
	return nil
}

// AllocateBand materializes an additional band outside the shared block.
func (im *Image) AllocateBand(band int) error {
	if band < 0 || band >= MaxBands {
		return ErrBadBand
	}
	if im.band[band] != nil {
		return nil
	}
	im.band[band] = make([]int16, im.rowStride()*im.Height)
	im.memory[band] = BandMemoryAllocated
	im.Quant[band] = 1
	im.Scale[band] = 1
	if band >= im.NumBands {
		im.NumBands = band + 1
	}
	return nil
}

// BandMemoryState reports how the band's storage was obtained.
func (im *Image) BandMemoryState(band int) BandMemory {
	if band < 0 || band >= MaxBands {
		return BandMemoryNone
	}
	return im.memory[band]
}

// Row returns the coefficients of one row of a band.
func (im *Image) Row(band, y int) []int16 {
	stride := im.rowStride()
	offset := y * stride
	return im.band[band][offset : offset+im.Width : offset+im.Width]
}

// Band returns the backing slice of a band including pitch padding.
func (im *Image) Band(band int) []int16 { return im.band[band] }

// ClearBand zero-fills a band.
func (im *Image) ClearBand(band int) {
	data := im.band[band]
	for i := range data {
		data[i] = 0
	}
}

// CopyBand copies the coefficients of one band of src into the band of
// im. Dimensions must match.
func (im *Image) CopyBand(band int, src *Image, srcBand int) error {
	if im.Width != src.Width || im.Height != src.Height {
		return ErrBadDimensions
	}
	for y := 0; y < im.Height; y++ {
		copy(im.Row(band, y), src.Row(srcBand, y))
	}
	return nil
}

// FillRandom fills a band with reproducible pseudo-random values centered
// on nominal and spanning the given range, for test suites.
func (im *Image) FillRandom(band int, nominal, valueRange int, seed uint32) {
	state := seed
	if state == 0 {
		state = 1
	}
	half := valueRange / 2
	for y := 0; y < im.Height; y++ {
		row := im.Row(band, y)
		for x := range row {
			// xorshift32
			state ^= state << 13
			state ^= state >> 17
			state ^= state << 5
			value := nominal - half + int(state%uint32(valueRange))
			row[x] = sat16(int32(value))
		}
	}
}
