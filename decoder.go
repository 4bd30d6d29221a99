package cineform

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/cocosip/go-cineform/bitstream"
	"github.com/cocosip/go-cineform/logging"
	"github.com/cocosip/go-cineform/vlc"
	"github.com/cocosip/go-cineform/wavelet"
)

// DecodedGroup is the result of decoding one group sample: the
// reconstructed frames of every channel at the transmitted precision.
type DecodedGroup struct {
	Channels  [][][]int16 // channel, frame, row-major pixels
	Width     int
	Height    int
	NumFrames int
	Precision int
}

// Decoder parses encoded samples and reconstructs pixels. A decoder
// keeps the codec state and transforms between samples of one stream;
// it must not be shared between goroutines.
type Decoder struct {
	opts    DecodeOptions
	log     logging.Logger
	codeset *vlc.Codeset

	state      CodecState
	transforms []*wavelet.Transform
}

// NewDecoder returns a decoder.
func NewDecoder(opts DecodeOptions) *Decoder {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Decoder{
		opts:    opts,
		log:     opts.Logger,
		codeset: vlc.CurrentCodeset(),
	}
}

// State returns the codec state accumulated from the most recent sample.
func (d *Decoder) State() CodecState { return d.state }

// FindNextSample reads one segment that must carry the sample tag and
// returns the sample type, or SampleTypeNone if the stream is exhausted
// or the tag is not a sample tag.
func FindNextSample(input *bitstream.Bitstream) bitstream.SampleType {
	segment := input.GetTagValue()
	if input.Error() != bitstream.ErrorOkay {
		return bitstream.SampleTypeNone
	}
	if segment.Tag != bitstream.TagSample {
		return bitstream.SampleTypeNone
	}
	return bitstream.SampleType(segment.Value)
}

// DecodeSample parses one buffer of samples. Sequence headers update the
// codec state and sequence trailers are skipped; the first group sample
// is decoded to pixels and returned.
func (d *Decoder) DecodeSample(sample []byte) (*DecodedGroup, error) {
	input := bitstream.NewReader(sample)
	input.SetAlignment(d.opts.Alignment)

	for {
		sampleType := FindNextSample(input)
		switch sampleType {
		case bitstream.SampleTypeSequenceHeader:
			if err := d.decodeSequenceHeader(input); err != nil {
				return nil, err
			}
		case bitstream.SampleTypeSequenceTrailer:
			// Nothing follows the sample type.
		case bitstream.SampleTypeGroup:
			return d.decodeGroup(input)
		case bitstream.SampleTypeNone:
			if err := input.Err(); err != nil {
				return nil, pkgerrors.Wrap(err, "cineform: searching for sample")
			}
			return nil, ErrBadSample
		default:
			return nil, pkgerrors.Wrapf(ErrBadSample, "sample type %d", sampleType)
		}
	}
}

// decodeSequenceHeader consumes the segments of a sequence header up to
// the end-of-sample tag.
func (d *Decoder) decodeSequenceHeader(input *bitstream.Bitstream) error {
	for {
		segment := input.GetSegment()
		if err := input.Err(); err != nil {
			return pkgerrors.Wrap(err, "cineform: sequence header")
		}
		tag := segment.Tag
		optional := tag.IsOptional()
		tag = tag.Required()
		if tag == bitstream.TagSampleEnd {
			return nil
		}
		if !d.state.update(tag, int(segment.Value)) && !optional {
			return pkgerrors.Wrapf(bitstream.ErrBadTag, "sequence header tag %#x", int16(tag))
		}
	}
}

// decodeGroup parses one group sample: the index block, the group
// metadata, every channel, and the trailer, then runs the inverse
// transforms.
func (d *Decoder) decodeGroup(input *bitstream.Bitstream) (*DecodedGroup, error) {
	d.state.reset()
	d.transforms = nil

	// Index block: the channel count and one size entry per channel.
	numChannels := input.GetValue(bitstream.TagIndex)
	if err := input.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "cineform: group index")
	}
	if numChannels > wavelet.MaxChannels {
		return nil, pkgerrors.Wrapf(ErrBadSampleData, "channel count %d", numChannels)
	}
	for i := 0; i < numChannels; i++ {
		input.GetLong()
	}
	// An empty index is tolerated; the channel count tag still follows.
	if numChannels > 0 {
		d.state.NumChannels = numChannels
	}

	for {
		segment := input.GetSegment()
		if err := input.Err(); err != nil {
			return nil, pkgerrors.Wrap(err, "cineform: group header")
		}
		tag := segment.Tag
		optional := tag.IsOptional()
		tag = tag.Required()
		value := int(segment.Value)

		if tag == bitstream.TagSample {
			switch bitstream.SampleType(value) {
			case bitstream.SampleTypeChannel:
				if err := d.decodeChannel(input); err != nil {
					return nil, err
				}
			case bitstream.SampleTypeGroupTrailer:
				// The trailer carries a checksum, currently zero.
				input.GetValue(bitstream.TagGroupTrailer)
				if err := input.Err(); err != nil {
					return nil, pkgerrors.Wrap(err, "cineform: group trailer")
				}
				return d.reconstruct()
			default:
				return nil, pkgerrors.Wrapf(ErrBadSample, "sample type %d inside group", value)
			}
			continue
		}

		if !d.state.update(tag, value) && !optional {
			return nil, pkgerrors.Wrapf(bitstream.ErrBadTag, "group header tag %#x", int16(tag))
		}
	}
}

// prepareTransforms rebuilds the per-channel transforms from the decoded
// group header the first time a channel sample is seen.
func (d *Decoder) prepareTransforms() error {
	if d.transforms != nil {
		return nil
	}
	state := &d.state
	if state.FrameWidth <= 0 || state.FrameHeight <= 0 {
		return pkgerrors.Wrap(ErrBadSampleData, "frame dimensions")
	}
	transforms := make([]*wavelet.Transform, state.NumChannels)
	prescale := state.prescale()
	for c := range transforms {
		t, err := wavelet.NewTransform(state.TransformType,
			state.FrameWidth, state.FrameHeight, state.NumFrames, state.NumSpatial)
		if err != nil {
			return pkgerrors.Wrapf(err, "channel %d", c)
		}
		if t.NumWavelets != state.NumWavelets || t.SubbandCount() != state.NumSubbands {
			return pkgerrors.Wrapf(ErrBadSampleData,
				"pyramid mismatch: %d wavelets %d subbands in header, %d and %d derived",
				state.NumWavelets, state.NumSubbands, t.NumWavelets, t.SubbandCount())
		}
		t.SetPrescale(prescale)
		transforms[c] = t
	}
	d.transforms = transforms
	return nil
}

// decodeChannel parses the wavelets of one channel in emission order.
func (d *Decoder) decodeChannel(input *bitstream.Bitstream) error {
	if err := d.prepareTransforms(); err != nil {
		return err
	}
	channel := input.GetValue(bitstream.TagChannel)
	if err := input.Err(); err != nil {
		return pkgerrors.Wrap(err, "cineform: channel header")
	}
	if channel < 0 || channel >= len(d.transforms) {
		return pkgerrors.Wrapf(ErrBadSampleData, "channel number %d", channel)
	}
	transform := d.transforms[channel]

	apex := transform.ApexWavelet()
	for i := 0; i < transform.NumWavelets; i++ {
		if i == apex {
			if err := d.decodeLowpassBand(input, transform); err != nil {
				return pkgerrors.Wrapf(err, "channel %d lowpass", channel)
			}
		}
		if err := d.decodeWavelet(input, transform, i); err != nil {
			return pkgerrors.Wrapf(err, "channel %d wavelet %d", channel, i)
		}
	}
	return nil
}

// expectMarker reads the next required segment and verifies the marker.
func expectMarker(input *bitstream.Bitstream, marker int) error {
	segment := input.GetTagValue()
	if err := input.Err(); err != nil {
		return err
	}
	if segment.Tag != bitstream.TagMarker || int(segment.Value) != marker {
		return ErrMissingMarker
	}
	return nil
}

// decodeLowpassBand reads the apex lowpass header and the raw 16-bit
// coefficient rows.
func (d *Decoder) decodeLowpassBand(input *bitstream.Bitstream, transform *wavelet.Transform) error {
	if err := expectMarker(input, bitstream.MarkerLowpassStart); err != nil {
		return err
	}
	apex := transform.Wavelet[transform.ApexWavelet()]

	subband := input.GetValue(bitstream.TagLowpassSubband)
	input.GetValue(bitstream.TagNumLevels)
	width := input.GetValue(bitstream.TagLowpassWidth)
	height := input.GetValue(bitstream.TagLowpassHeight)
	input.GetValue(bitstream.TagMarginLeft)
	input.GetValue(bitstream.TagMarginTop)
	input.GetValue(bitstream.TagMarginRight)
	input.GetValue(bitstream.TagMarginBottom)
	input.GetValue(bitstream.TagPixelOffset)
	quantization := input.GetValue(bitstream.TagQuantization)
	input.GetValue(bitstream.TagPixelDepth)
	if err := input.Err(); err != nil {
		return err
	}
	if subband != 0 || width != apex.Width || height != apex.Height {
		return pkgerrors.Wrapf(ErrBadSampleData, "lowpass %dx%d subband %d", width, height, subband)
	}

	// Skip the back-patched subband size.
	input.GetTagOptional()

	for y := 0; y < height; y++ {
		row := apex.Row(wavelet.BandLowLow, y)
		for x := range row {
			row[x] = int16(input.GetWord16())
		}
	}
	apex.Quant[wavelet.BandLowLow] = quantization
	if err := input.Err(); err != nil {
		return err
	}
	input.AlignBitsTag()

	return expectMarker(input, bitstream.MarkerLowpassEnd)
}

// decodeWavelet reads one highpass header and the bands it announces.
func (d *Decoder) decodeWavelet(input *bitstream.Bitstream, transform *wavelet.Transform, index int) error {
	bands := transform.HighpassBands(index)
	if len(bands) == 0 {
		return nil
	}
	if err := expectMarker(input, bitstream.MarkerHighpassStart); err != nil {
		return err
	}
	w := transform.Wavelet[index]

	waveletType := input.GetValue(bitstream.TagWaveletType)
	number := input.GetValue(bitstream.TagWaveletNumber)
	level := input.GetValue(bitstream.TagWaveletLevel)
	numBands := input.GetValue(bitstream.TagNumBands)
	width := input.GetValue(bitstream.TagHighpassWidth)
	height := input.GetValue(bitstream.TagHighpassHeight)
	input.GetValue(bitstream.TagLowpassBorder)
	input.GetValue(bitstream.TagHighpassBorder)
	input.GetValue(bitstream.TagLowpassScale)
	input.GetValue(bitstream.TagLowpassDivisor)
	if err := input.Err(); err != nil {
		return err
	}

	if number != index || level != w.Level {
		return pkgerrors.Wrapf(ErrHighpassIndex, "number %d level %d", number, level)
	}
	if wavelet.WaveletType(waveletType) != w.Type || width != w.Width || height != w.Height {
		return pkgerrors.Wrapf(ErrBadSampleData, "wavelet type %d dimensions %dx%d", waveletType, width, height)
	}
	if numBands != len(bands) {
		return pkgerrors.Wrapf(ErrBadSampleData, "band count %d", numBands)
	}

	// Skip the back-patched level size.
	input.GetTagOptional()

	for range bands {
		if err := d.decodeBand(input, w); err != nil {
			return err
		}
	}
	return expectMarker(input, bitstream.MarkerHighpassEnd)
}

// decodeBand reads one band header and scans the coefficient stream into
// the band until the band-end codeword.
func (d *Decoder) decodeBand(input *bitstream.Bitstream, w *wavelet.Image) error {
	band := input.GetValue(bitstream.TagBandNumber)
	width := input.GetValue(bitstream.TagBandWidth)
	height := input.GetValue(bitstream.TagBandHeight)
	subband := input.GetValue(bitstream.TagBandSubband)
	encoding := input.GetValue(bitstream.TagBandEncoding)
	quantization := input.GetValue(bitstream.TagBandQuant)
	input.GetValue(bitstream.TagBandScale)
	if err := input.Err(); err != nil {
		return err
	}
	if band < 0 || band >= w.NumBands || width != w.Width || height != w.Height {
		return pkgerrors.Wrapf(ErrBadSampleData, "band %d dimensions %dx%d", band, width, height)
	}

	// Skip the back-patched subband size, then the band header tag.
	input.GetTagOptional()
	input.GetValue(bitstream.TagBandHeader)
	if err := input.Err(); err != nil {
		return err
	}

	if encoding != BandEncodingRunLengths {
		return pkgerrors.Wrapf(ErrBadEncodingMethod, "subband %d encoding %d", subband, encoding)
	}

	w.ClearBand(band)
	w.Quant[band] = quantization

	if err := d.scanBand(input, w, band, width, height); err != nil {
		return pkgerrors.Wrapf(err, "subband %d", subband)
	}

	// The band trailer follows the tag-alignment padding.
	input.AlignBitsTag()
	segment := input.GetTagValue()
	if err := input.Err(); err != nil {
		return err
	}
	if segment.Tag != bitstream.TagBandTrailer {
		return ErrMissingMarker
	}
	return nil
}

// scanBand walks the coefficient stream row by row. Runs may span rows;
// the decoded position advances linearly through the band. The band-end
// codeword is the only legitimate terminator.
func (d *Decoder) scanBand(input *bitstream.Bitstream, w *wavelet.Image, band, width, height int) error {
	total := width * height
	pos := 0
	for pos < total {
		scan := vlc.ScanState{Column: pos % width, Width: width}
		start := scan.Column
		end, err := d.codeset.ScanRlvRow(input, &scan)
		if err != nil {
			return err
		}
		if end {
			// An early band end leaves the remaining coefficients zero.
			return nil
		}
		advance := scan.Column - start
		if advance <= 0 {
			return vlc.ErrUnmatched
		}
		if scan.Value != 0 {
			index := pos + advance - 1
			if index >= total {
				return pkgerrors.Wrap(ErrBadSampleData, "coefficient past end of band")
			}
			w.Row(band, index/width)[index%width] = int16(scan.Value)
		}
		pos += advance
	}

	// Every coefficient is accounted for; only the band end may follow.
	var run vlc.Run
	end, err := d.codeset.GetRlv(input, &run)
	if err != nil {
		return err
	}
	if !end {
		return ErrMissingMarker
	}
	return nil
}

// reconstruct dequantizes every channel and runs the inverse transforms.
func (d *Decoder) reconstruct() (*DecodedGroup, error) {
	if d.transforms == nil {
		return nil, pkgerrors.Wrap(ErrBadSample, "group carried no channels")
	}
	state := &d.state
	group := &DecodedGroup{
		Channels:  make([][][]int16, len(d.transforms)),
		Width:     state.FrameWidth,
		Height:    state.FrameHeight,
		NumFrames: state.NumFrames,
		Precision: state.Precision,
	}

	for c, transform := range d.transforms {
		transform.Dequantize()

		frames := make([]*wavelet.Image, transform.NumFrames)
		for i := range frames {
			image, err := wavelet.NewImage(group.Width, group.Height)
			if err != nil {
				return nil, err
			}
			frames[i] = image
		}
		if err := transform.Inverse(frames); err != nil {
			return nil, pkgerrors.Wrapf(err, "channel %d inverse", c)
		}

		pixels := make([][]int16, len(frames))
		for i, frame := range frames {
			data := make([]int16, group.Width*group.Height)
			for y := 0; y < group.Height; y++ {
				copy(data[y*group.Width:(y+1)*group.Width], frame.Row(0, y))
			}
			pixels[i] = data
		}
		group.Channels[c] = pixels
	}

	d.log.Debug("decoded group",
		"channels", len(group.Channels), "frames", group.NumFrames,
		"width", group.Width, "height", group.Height)
	return group, nil
}
