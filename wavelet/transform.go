package wavelet

import "errors"

// Limits of the transform tree.
const (
	MaxTemporalLevels = 2
	MaxHorizontal     = 1
	MaxSpatialLevels  = 4

	MaxLevels   = MaxTemporalLevels + MaxHorizontal + MaxSpatialLevels
	MaxWavelets = MaxLevels + 1

	MaxChannels = 4
	MaxFrames   = 2
)

// TransformType selects the organization of the wavelet pyramid.
type TransformType int

const (
	TransformTypeSpatial    TransformType = iota // no temporal wavelets
	TransformTypeField                           // frames organized by field
	TransformTypeFieldPlus                       // field transform plus a wavelet on the temporal highpass
	TransformTypeFrame                           // progressive frames
	TransformTypeInterlaced                      // fields combined into interlaced frames

	TransformTypeCount
)

// FilterType identifies the filter recorded in a transform descriptor.
type FilterType int

const (
	FilterUnspecified FilterType = iota
	FilterSpatial
	FilterTemporal
	FilterInterlaced
)

// SourceFrame marks a descriptor source that is an original input frame;
// the band field then holds the frame index.
const SourceFrame = -1

// Descriptor records, for one wavelet, the filter that produced it and
// the wavelet and band it was computed from. The descriptor sequence is
// the ground truth for both the encode order and the decode order.
type Descriptor struct {
	Filter   FilterType
	Wavelet1 int
	Band1    int
	Wavelet2 int
	Band2    int
}

// Subband locates one globally numbered band within the pyramid.
// Subband zero is the apex lowpass; the rest follow in canonical
// emission order.
type Subband struct {
	Index   int
	Wavelet int
	Band    int
}

var (
	// ErrBadTransformType is returned for a transform type that is not
	// implemented.
	ErrBadTransformType = errors.New("wavelet: unsupported transform type")

	// ErrBadTransform is returned when the transform parameters are
	// inconsistent with the frame dimensions.
	ErrBadTransform = errors.New("wavelet: invalid transform parameters")
)

// Transform owns the wavelet pyramid for one color channel. Wavelets are
// held in a fixed array and cross-wavelet references are integer indices
// into the array.
type Transform struct {
	Type        TransformType
	NumFrames   int
	NumLevels   int
	NumWavelets int
	NumSpatial  int

	Width  int // dimensions of the original frames
	Height int

	// Prescale is the right shift applied to each wavelet's input before
	// filtering.
	Prescale [MaxWavelets]int

	Wavelet    [MaxWavelets]*Image
	Descriptor [MaxWavelets]Descriptor

	subbands []Subband
}

// NewTransform builds the pyramid geometry for a channel: the wavelet
// images, the descriptor sequence, and the global subband numbering.
func NewTransform(ttype TransformType, width, height, numFrames, numSpatial int) (*Transform, error) {
	t := &Transform{
		Type:       ttype,
		NumFrames:  numFrames,
		NumSpatial: numSpatial,
		Width:      width,
		Height:     height,
	}

	if numSpatial < 1 || numSpatial > MaxSpatialLevels {
		return nil, ErrBadTransform
	}

	var err error
	switch ttype {
	case TransformTypeSpatial:
		err = t.buildSpatial()
	case TransformTypeInterlaced:
		err = t.buildInterlaced()
	case TransformTypeField, TransformTypeFieldPlus:
		err = t.buildFieldPlus()
	default:
		return nil, ErrBadTransformType
	}
	if err != nil {
		return nil, err
	}

	t.NumLevels = t.Wavelet[t.NumWavelets-1].Level
	t.buildSubbands()
	return t, nil
}

// addWavelet appends a wavelet to the array with its descriptor.
func (t *Transform) addWavelet(w, h, level int, wtype WaveletType, d Descriptor) error {
	if t.NumWavelets >= MaxWavelets {
		return ErrBadTransform
	}
	if level > MaxLevels {
		return ErrBadTransform
	}
	wavelet, err := NewWavelet(w, h, level, wtype)
	if err != nil {
		return err
	}
	t.Wavelet[t.NumWavelets] = wavelet
	t.Descriptor[t.NumWavelets] = d
	t.NumWavelets++
	return nil
}

// checkHalvable verifies that a dimension pair can pass the filters.
func checkHalvable(w, h int) error {
	if w < minFilterLength || h < minFilterLength || w%2 != 0 || h%2 != 0 {
		return ErrBadTransform
	}
	return nil
}

func (t *Transform) buildSpatial() error {
	if t.NumFrames != 1 {
		return ErrBadTransform
	}
	w, h := t.Width, t.Height
	for i := 0; i < t.NumSpatial; i++ {
		if err := checkHalvable(w, h); err != nil {
			return err
		}
		d := Descriptor{Filter: FilterSpatial, Wavelet1: i - 1, Band1: BandLowLow}
		if i == 0 {
			d.Wavelet1 = SourceFrame
			d.Band1 = 0
		}
		if err := t.addWavelet(w/2, h/2, i+1, WaveletTypeSpatial, d); err != nil {
			return err
		}
		w, h = w/2, h/2
	}
	return nil
}

func (t *Transform) buildInterlaced() error {
	if t.NumFrames != 1 {
		return ErrBadTransform
	}
	w, h := t.Width, t.Height
	if err := checkHalvable(w, h); err != nil {
		return err
	}
	err := t.addWavelet(w/2, h/2, 1, WaveletTypeFrame,
		Descriptor{Filter: FilterInterlaced, Wavelet1: SourceFrame, Band1: 0})
	if err != nil {
		return err
	}
	w, h = w/2, h/2
	for i := 0; i < t.NumSpatial; i++ {
		if err := checkHalvable(w, h); err != nil {
			return err
		}
		d := Descriptor{Filter: FilterSpatial, Wavelet1: t.NumWavelets - 1, Band1: BandLowLow}
		if err := t.addWavelet(w/2, h/2, t.NumWavelets+1, WaveletTypeSpatial, d); err != nil {
			return err
		}
		w, h = w/2, h/2
	}
	return nil
}

// buildFieldPlus builds the two-frame pyramid: a frame wavelet per input
// frame, a temporal wavelet between their lowpass bands, one spatial
// wavelet over the temporal highpass (field-plus only), and a spatial
// chain over the temporal lowpass.
func (t *Transform) buildFieldPlus() error {
	if t.NumFrames != 2 {
		return ErrBadTransform
	}
	lowpassSpatial := t.NumSpatial
	if t.Type == TransformTypeFieldPlus {
		// One of the spatial wavelets sits over the temporal highpass.
		lowpassSpatial--
	}
	if lowpassSpatial < 1 {
		return ErrBadTransform
	}

	w, h := t.Width, t.Height
	if err := checkHalvable(w, h); err != nil {
		return err
	}
	for frame := 0; frame < 2; frame++ {
		err := t.addWavelet(w/2, h/2, 1, WaveletTypeFrame,
			Descriptor{Filter: FilterInterlaced, Wavelet1: SourceFrame, Band1: frame})
		if err != nil {
			return err
		}
	}
	w, h = w/2, h/2

	// Temporal wavelet between the two frame lowpass bands.
	err := t.addWavelet(w, h, 2, WaveletTypeTemporal,
		Descriptor{Filter: FilterTemporal, Wavelet1: 0, Band1: BandLowLow, Wavelet2: 1, Band2: BandLowLow})
	if err != nil {
		return err
	}
	temporal := t.NumWavelets - 1

	if t.Type == TransformTypeFieldPlus {
		if err := checkHalvable(w, h); err != nil {
			return err
		}
		err := t.addWavelet(w/2, h/2, 3, WaveletTypeSpatial,
			Descriptor{Filter: FilterSpatial, Wavelet1: temporal, Band1: BandHighpass})
		if err != nil {
			return err
		}
	}

	source := temporal
	sourceBand := BandLowpass
	level := 3
	for i := 0; i < lowpassSpatial; i++ {
		if err := checkHalvable(w, h); err != nil {
			return err
		}
		err := t.addWavelet(w/2, h/2, level, WaveletTypeSpatial,
			Descriptor{Filter: FilterSpatial, Wavelet1: source, Band1: sourceBand})
		if err != nil {
			return err
		}
		source = t.NumWavelets - 1
		sourceBand = BandLowLow
		w, h = w/2, h/2
		level++
	}
	return nil
}

// consumedBands marks every band that is the source of a later wavelet;
// such bands are reconstructed, never encoded.
func (t *Transform) consumedBands() map[[2]int]bool {
	consumed := make(map[[2]int]bool)
	for i := 0; i < t.NumWavelets; i++ {
		d := t.Descriptor[i]
		if d.Wavelet1 >= 0 {
			consumed[[2]int{d.Wavelet1, d.Band1}] = true
		}
		if d.Filter == FilterTemporal && d.Wavelet2 >= 0 {
			consumed[[2]int{d.Wavelet2, d.Band2}] = true
		}
	}
	return consumed
}

// ApexWavelet returns the index of the wavelet whose lowpass band is the
// pyramid apex.
func (t *Transform) ApexWavelet() int { return t.NumWavelets - 1 }

// buildSubbands assigns the global subband numbers in canonical emission
// order: the apex lowpass is subband zero; every other unconsumed band
// numbers upward as the encoder walks the wavelet array.
func (t *Transform) buildSubbands() {
	consumed := t.consumedBands()
	apex := t.ApexWavelet()
	t.subbands = t.subbands[:0]
	t.subbands = append(t.subbands, Subband{Index: 0, Wavelet: apex, Band: BandLowLow})
	next := 1
	for i := 0; i < t.NumWavelets; i++ {
		for band := 0; band < t.Wavelet[i].NumBands; band++ {
			if i == apex && band == BandLowLow {
				continue
			}
			if consumed[[2]int{i, band}] {
				continue
			}
			t.subbands = append(t.subbands, Subband{Index: next, Wavelet: i, Band: band})
			next++
		}
	}
}

// Subbands returns the encoded bands in canonical emission order,
// beginning with the apex lowpass.
func (t *Transform) Subbands() []Subband { return t.subbands }

// SubbandCount returns the number of encoded subbands.
func (t *Transform) SubbandCount() int { return len(t.subbands) }

// HighpassBands returns the encoded bands of one wavelet in band order,
// excluding the apex lowpass.
func (t *Transform) HighpassBands(wavelet int) []Subband {
	var bands []Subband
	for _, sb := range t.subbands {
		if sb.Wavelet == wavelet && sb.Index != 0 {
			bands = append(bands, sb)
		}
	}
	return bands
}

// FirstWaveletType returns the wavelet type of the first wavelet, written
// into the group header.
func (t *Transform) FirstWaveletType() WaveletType {
	if t.NumWavelets == 0 {
		return WaveletTypeImage
	}
	return t.Wavelet[0].Type
}

// sourceImage resolves a descriptor source reference to an image and
// band, using the input frames for references outside the pyramid.
func (t *Transform) sourceImage(wavelet, band int, frames []*Image) (*Image, int, error) {
	if wavelet == SourceFrame {
		if band < 0 || band >= len(frames) {
			return nil, 0, ErrBadTransform
		}
		return frames[band], 0, nil
	}
	if wavelet < 0 || wavelet >= t.NumWavelets {
		return nil, 0, ErrBadTransform
	}
	return t.Wavelet[wavelet], band, nil
}

// Forward computes the whole pyramid from the input frames, prescaling
// each wavelet's input and quantizing every encoded highpass band.
// The frames are single-band images that are modified in place when a
// prescale shift applies to them.
func (t *Transform) Forward(frames []*Image, quality Quality, midpointDenominator int) error {
	if len(frames) != t.NumFrames {
		return ErrBadTransform
	}
	for i := 0; i < t.NumWavelets; i++ {
		d := t.Descriptor[i]
		src, srcBand, err := t.sourceImage(d.Wavelet1, d.Band1, frames)
		if err != nil {
			return err
		}
		src.PrescaleBand(srcBand, t.Prescale[i])

		switch d.Filter {
		case FilterSpatial:
			err = ForwardSpatial(src, srcBand, t.Wavelet[i])
		case FilterInterlaced:
			err = ForwardInterlaced(src, srcBand, t.Wavelet[i])
		case FilterTemporal:
			src2, srcBand2, err2 := t.sourceImage(d.Wavelet2, d.Band2, frames)
			if err2 != nil {
				return err2
			}
			src2.PrescaleBand(srcBand2, t.Prescale[i])
			err = ForwardTemporal(src, srcBand, src2, srcBand2, t.Wavelet[i])
		default:
			err = ErrBadTransformType
		}
		if err != nil {
			return err
		}
	}

	// Quantize the encoded bands only; bands consumed by later wavelets
	// and the apex lowpass stay at full precision. A band with no
	// non-zero coefficients keeps a unit divisor.
	for _, sb := range t.subbands {
		if sb.Index == 0 {
			continue
		}
		wavelet := t.Wavelet[sb.Wavelet]
		divisor := QuantizerForBand(quality, wavelet.Level, sb.Band, wavelet.Type)
		if stats := wavelet.BandStatistics(sb.Band); stats.Positive == 0 && stats.Negative == 0 {
			divisor = 1
		}
		wavelet.QuantizeBand(sb.Band, divisor, midpointDenominator)
	}
	return nil
}

// Dequantize multiplies every encoded band back to coefficient scale,
// once, before inversion.
func (t *Transform) Dequantize() {
	for _, sb := range t.subbands {
		if sb.Index == 0 {
			continue
		}
		wavelet := t.Wavelet[sb.Wavelet]
		wavelet.DequantizeBand(sb.Band)
		wavelet.Quant[sb.Band] = 1
	}
}

// Inverse reconstructs the input frames from the pyramid, working from
// the apex down. Encoded bands must already be dequantized (see
// Dequantize). Each inverted wavelet writes the lower-level lowpass back
// into its source band and undoes the prescale shift that was applied on
// the forward pass.
func (t *Transform) Inverse(frames []*Image) error {
	if len(frames) != t.NumFrames {
		return ErrBadTransform
	}
	for i := t.NumWavelets - 1; i >= 0; i-- {
		d := t.Descriptor[i]
		dst, dstBand, err := t.sourceImage(d.Wavelet1, d.Band1, frames)
		if err != nil {
			return err
		}

		switch d.Filter {
		case FilterSpatial:
			err = InverseSpatial(t.Wavelet[i], dst, dstBand)
		case FilterInterlaced:
			err = InverseInterlaced(t.Wavelet[i], dst, dstBand)
		case FilterTemporal:
			dst2, dstBand2, err2 := t.sourceImage(d.Wavelet2, d.Band2, frames)
			if err2 != nil {
				return err2
			}
			err = InverseTemporal(t.Wavelet[i], dst, dstBand, dst2, dstBand2)
			if err == nil {
				dst2.RescaleBand(dstBand2, t.Prescale[i])
			}
		default:
			err = ErrBadTransformType
		}
		if err != nil {
			return err
		}
		dst.RescaleBand(dstBand, t.Prescale[i])
	}
	return nil
}

// SetPrescale installs a prescale table.
func (t *Transform) SetPrescale(table [MaxWavelets]int) {
	t.Prescale = table
}

// DefaultPrescaleMatches reports whether the transform's prescale table
// equals the default for the precision, in which case the table may be
// omitted from the group header.
func (t *Transform) DefaultPrescaleMatches(precision int) bool {
	return t.Prescale == DefaultPrescale(precision)
}
