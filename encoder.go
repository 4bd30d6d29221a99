package cineform

import (
	pkgerrors "github.com/pkg/errors"

	"github.com/cocosip/go-cineform/bitstream"
	"github.com/cocosip/go-cineform/logging"
	"github.com/cocosip/go-cineform/vlc"
	"github.com/cocosip/go-cineform/wavelet"
)

// Encoder turns groups of frames into encoded samples. An encoder owns
// one transform per channel and reuses them across groups; it must not be
// shared between goroutines. Parallel encoding partitions channels or
// samples across independent encoders.
type Encoder struct {
	opts    EncodeOptions
	log     logging.Logger
	codeset *vlc.Codeset

	width      int
	height     int
	transforms []*wavelet.Transform

	wroteSequenceHeader bool

	// Count of coefficients saturated by the value codebook, for
	// diagnostics.
	saturated int

	// Post-quantization statistics of every band of the most recent
	// sample, in emission order.
	bandStats []wavelet.Statistics
}

// NewEncoder validates the options and returns an encoder.
func NewEncoder(opts EncodeOptions) (*Encoder, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{
		opts:    opts,
		log:     opts.Logger,
		codeset: vlc.CurrentCodeset(),
	}, nil
}

// SaturatedCount returns the number of coefficients saturated by the
// codebook since the encoder was created.
func (e *Encoder) SaturatedCount() int { return e.saturated }

// BandStatistics returns the post-quantization statistics of every
// highpass band of the most recent sample, in emission order across the
// channels.
func (e *Encoder) BandStatistics() []wavelet.Statistics { return e.bandStats }

// prepareTransforms builds (or rebuilds) the per-channel transforms for
// the frame dimensions.
func (e *Encoder) prepareTransforms(numChannels, width, height int) error {
	if e.transforms != nil && e.width == width && e.height == height &&
		len(e.transforms) == numChannels {
		return nil
	}
	transforms := make([]*wavelet.Transform, numChannels)
	prescale := e.opts.prescale()
	for c := range transforms {
		t, err := wavelet.NewTransform(e.opts.TransformType, width, height,
			e.opts.GOPLength, e.opts.NumSpatial)
		if err != nil {
			return pkgerrors.Wrapf(err, "channel %d", c)
		}
		t.SetPrescale(prescale)
		transforms[c] = t
	}
	e.transforms = transforms
	e.width = width
	e.height = height
	return nil
}

// EncodeGroup encodes one group of frames for every channel into a
// single sample. The first call also emits the sequence header. The
// channels slice holds, per channel, one pixel slice per frame of the
// group in row-major order.
func (e *Encoder) EncodeGroup(channels [][][]int16, width, height int) ([]byte, error) {
	if len(channels) == 0 || len(channels) > wavelet.MaxChannels {
		return nil, ErrBadFrames
	}
	for _, frames := range channels {
		if len(frames) != e.opts.GOPLength {
			return nil, ErrBadFrames
		}
		for _, frame := range frames {
			if len(frame) != width*height {
				return nil, ErrBadFrames
			}
		}
	}
	if err := e.prepareTransforms(len(channels), width, height); err != nil {
		return nil, err
	}

	buffer := make([]byte, e.sampleBufferSize(len(channels), width, height))
	output := bitstream.NewWriter(buffer)
	e.bandStats = e.bandStats[:0]

	if !e.wroteSequenceHeader {
		e.putVideoSequenceHeader(output, width, height)
		e.wroteSequenceHeader = true
	}

	if err := e.encodeGroup(output, channels, width, height); err != nil {
		return nil, err
	}
	if err := output.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "cineform: encoding sample")
	}

	e.log.Debug("encoded group",
		"bytes", output.ByteCount(), "channels", len(channels),
		"width", width, "height", height)
	return buffer[:output.ByteCount()], nil
}

// sampleBufferSize bounds the encoded size of one sample: headers plus
// the worst-case entropy-coded expansion of the pyramid.
func (e *Encoder) sampleBufferSize(numChannels, width, height int) int {
	pixels := numChannels * e.opts.GOPLength * width * height
	return pixels*6 + 16384
}

// putVideoSequenceHeader writes the once-per-stream sequence header.
func (e *Encoder) putVideoSequenceHeader(output *bitstream.Bitstream, width, height int) {
	output.PutTagPair(bitstream.TagSample, int(bitstream.SampleTypeSequenceHeader))

	output.PutTagPair(bitstream.TagVersionMajor, VersionMajor)
	output.PutTagPair(bitstream.TagVersionMinor, VersionMinor)
	output.PutTagPair(bitstream.TagVersionRev, VersionRevision)
	output.PutTagPair(bitstream.TagVersionEdit, VersionEdit)
	output.PutTagPair(bitstream.TagSequenceFlags, 0)

	output.PutTagPair(bitstream.TagFrameWidth, width)
	output.PutTagPair(bitstream.TagFrameHeight, height)
	output.PutTagPair(bitstream.TagFrameFormat, int(e.opts.EncodedFormat))

	if e.opts.InputFormat >= inputFormatRequiredThreshold {
		output.PutTagPair(bitstream.TagInputFormat, e.opts.InputFormat)
	} else {
		output.PutTagPairOptional(bitstream.TagInputFormat, e.opts.InputFormat)
	}
	if e.opts.EncodedFormat != EncodedFormatDefault {
		output.PutTagPair(bitstream.TagEncodedFormat, int(e.opts.EncodedFormat))
	}

	// Mark the end of the sample.
	output.PutTagPair(bitstream.TagSampleEnd, 0)
}

// encodeGroup writes one group sample: header, index block, group
// extension, the channels, and the group trailer, then patches the
// channel sizes into the index.
func (e *Encoder) encodeGroup(output *bitstream.Bitstream, channels [][][]int16, width, height int) error {
	transform := e.transforms[0]

	output.PutTagPair(bitstream.TagSample, int(bitstream.SampleTypeGroup))

	// Index block: one placeholder entry per channel, patched with the
	// channel sizes once they are known.
	output.PutTagPair(bitstream.TagIndex, len(channels))
	indexOffset := output.Position()
	for i := range channels {
		output.PutTagPair(bitstream.TagEntry, i)
	}

	output.PutTagPair(bitstream.TagTransformType, int(transform.Type))
	output.PutTagPair(bitstream.TagNumFrames, transform.NumFrames)
	output.PutTagPair(bitstream.TagNumChannels, len(channels))
	if e.opts.InputFormat >= inputFormatRequiredThreshold {
		output.PutTagPair(bitstream.TagInputFormat, e.opts.InputFormat)
	} else {
		output.PutTagPairOptional(bitstream.TagInputFormat, e.opts.InputFormat)
	}
	if e.opts.EncodedFormat != EncodedFormatDefault {
		output.PutTagPair(bitstream.TagEncodedFormat, int(e.opts.EncodedFormat))
	}
	if e.opts.ColorSpace != 0 {
		output.PutTagPairOptional(bitstream.TagEncodedColors, e.opts.ColorSpace)
	}
	output.PutTagPair(bitstream.TagNumWavelets, transform.NumWavelets)
	output.PutTagPair(bitstream.TagNumSubbands, transform.SubbandCount())
	output.PutTagPair(bitstream.TagNumSpatial, transform.NumSpatial)
	output.PutTagPair(bitstream.TagFirstWavelet, int(transform.FirstWaveletType()))
	output.PutTagPair(bitstream.TagFrameWidth, width)
	output.PutTagPair(bitstream.TagFrameHeight, height)
	if e.opts.FrameNumber >= 0 {
		output.PutTagPairOptional(bitstream.TagFrameNumber, e.opts.FrameNumber)
	}
	output.PutTagPair(bitstream.TagPrecision, e.opts.Precision)

	quality := uint32(e.opts.Quality)
	output.PutTagPairOptional(bitstream.TagQualityLow, int(quality&0xFFFF))
	output.PutTagPairOptional(bitstream.TagQualityHigh, int(quality>>16))

	prescale := wavelet.PackPrescale(e.opts.prescale())
	if transform.DefaultPrescaleMatches(e.opts.Precision) {
		output.PutTagPairOptional(bitstream.TagPrescaleTable, int(prescale))
	} else {
		output.PutTagPair(bitstream.TagPrescaleTable, int(prescale))
	}

	e.putVideoGroupExtension(output)

	for c, frames := range channels {
		channelStart := output.Position()
		if err := e.encodeChannel(output, c, frames, width, height); err != nil {
			return pkgerrors.Wrapf(err, "channel %d", c)
		}
		channelSize := output.Position() - channelStart
		output.PatchLong(indexOffset+4*c, uint32(channelSize))
	}

	// Group trailer with its checksum, currently zero.
	output.PutTagPair(bitstream.TagSample, int(bitstream.SampleTypeGroupTrailer))
	output.PutTagPair(bitstream.TagGroupTrailer, 0)
	output.PutTagPair(bitstream.TagSampleEnd, 0)
	return output.Err()
}

// putVideoGroupExtension writes the optional group extension tags.
func (e *Encoder) putVideoGroupExtension(output *bitstream.Bitstream) {
	if e.opts.InterlacedFlags != 0 {
		output.PutTagPairOptional(bitstream.TagInterlacedFlag, e.opts.InterlacedFlags)
	}
	output.PutTagPairOptional(bitstream.TagProtectionFlag, 0)
	if e.opts.PictureAspectX != 0 {
		output.PutTagPairOptional(bitstream.TagPictureAspectX, e.opts.PictureAspectX)
	}
	if e.opts.PictureAspectY != 0 {
		output.PutTagPairOptional(bitstream.TagPictureAspectY, e.opts.PictureAspectY)
	}
}

// encodeChannel runs the forward transform for one channel and emits its
// wavelets in index order.
func (e *Encoder) encodeChannel(output *bitstream.Bitstream, channel int, frames [][]int16, width, height int) error {
	transform := e.transforms[channel]

	images := make([]*wavelet.Image, len(frames))
	for i, frame := range frames {
		// The forward pass prescales its input in place, so the frame is
		// copied instead of aliased.
		image, err := wavelet.NewImage(width, height)
		if err != nil {
			return err
		}
		for y := 0; y < height; y++ {
			copy(image.Row(0, y), frame[y*width:(y+1)*width])
		}
		images[i] = image
	}

	err := transform.Forward(images, e.opts.Quality, e.opts.MidpointPrequant)
	if err != nil {
		return pkgerrors.Wrap(err, "forward transform")
	}

	output.PutTagPair(bitstream.TagSample, int(bitstream.SampleTypeChannel))
	output.PutTagPair(bitstream.TagChannel, channel)

	apex := transform.ApexWavelet()
	for i := 0; i < transform.NumWavelets; i++ {
		if i == apex {
			e.putVideoLowpassBand(output, transform)
		}
		if err := e.encodeWavelet(output, transform, i); err != nil {
			return pkgerrors.Wrapf(err, "wavelet %d", i)
		}
	}
	return output.Err()
}

// putVideoLowpassBand writes the apex lowpass header, the raw 16-bit
// coefficient rows, and the lowpass trailer.
func (e *Encoder) putVideoLowpassBand(output *bitstream.Bitstream, transform *wavelet.Transform) {
	apex := transform.Wavelet[transform.ApexWavelet()]

	output.PutTagMarker(bitstream.MarkerLowpassStart)

	output.PutTagPair(bitstream.TagLowpassSubband, 0)
	output.PutTagPair(bitstream.TagNumLevels, transform.NumLevels)
	output.PutTagPair(bitstream.TagLowpassWidth, apex.Width)
	output.PutTagPair(bitstream.TagLowpassHeight, apex.Height)

	// The transmitted dimensions may be less than the image dimensions.
	output.PutTagPair(bitstream.TagMarginLeft, 0)
	output.PutTagPair(bitstream.TagMarginTop, 0)
	output.PutTagPair(bitstream.TagMarginRight, 0)
	output.PutTagPair(bitstream.TagMarginBottom, 0)

	output.PutTagPair(bitstream.TagPixelOffset, 0)
	output.PutTagPair(bitstream.TagQuantization, apex.Quant[wavelet.BandLowLow])
	output.PutTagPair(bitstream.TagPixelDepth, 16)

	output.SizeTagPush(bitstream.TagSubbandSize)

	for y := 0; y < apex.Height; y++ {
		row := apex.Row(wavelet.BandLowLow, y)
		for _, value := range row {
			output.PutWord16(int(value))
		}
	}
	output.FlushAlign(4)

	output.PutTagMarker(bitstream.MarkerLowpassEnd)
	output.SizeTagPop()
}

// encodeWavelet writes the highpass header for one wavelet followed by
// each of its encoded bands.
func (e *Encoder) encodeWavelet(output *bitstream.Bitstream, transform *wavelet.Transform, index int) error {
	w := transform.Wavelet[index]
	bands := transform.HighpassBands(index)
	if len(bands) == 0 {
		return nil
	}

	output.PutTagMarker(bitstream.MarkerHighpassStart)

	output.PutTagPair(bitstream.TagWaveletType, int(w.Type))
	output.PutTagPair(bitstream.TagWaveletNumber, index)
	output.PutTagPair(bitstream.TagWaveletLevel, w.Level)
	output.PutTagPair(bitstream.TagNumBands, len(bands))
	output.PutTagPair(bitstream.TagHighpassWidth, w.Width)
	output.PutTagPair(bitstream.TagHighpassHeight, w.Height)
	output.PutTagPair(bitstream.TagLowpassBorder, 0)
	output.PutTagPair(bitstream.TagHighpassBorder, 0)
	output.PutTagPair(bitstream.TagLowpassScale, w.Scale[wavelet.BandLowLow])
	output.PutTagPair(bitstream.TagLowpassDivisor, w.Quant[wavelet.BandLowLow])

	output.SizeTagPush(bitstream.TagLevelSize)

	for _, sb := range bands {
		if err := e.encodeBand(output, w, sb); err != nil {
			return err
		}
	}

	output.PutTagMarker(bitstream.MarkerHighpassEnd)
	output.SizeTagPop()
	return output.Err()
}

// encodeBand writes one band header, the run-length coded coefficients,
// the band-end codeword, and the band trailer. The quantized band
// statistics are recorded before emission.
func (e *Encoder) encodeBand(output *bitstream.Bitstream, w *wavelet.Image, sb wavelet.Subband) error {
	stats := w.BandStatistics(sb.Band)
	e.bandStats = append(e.bandStats, stats)
	e.log.Debug("band statistics",
		"subband", sb.Index, "quant", w.Quant[sb.Band],
		"zero", stats.Zero, "positive", stats.Positive, "negative", stats.Negative,
		"min", stats.Min, "max", stats.Max)

	output.PutTagPair(bitstream.TagBandNumber, sb.Band)
	output.PutTagPair(bitstream.TagBandWidth, w.Width)
	output.PutTagPair(bitstream.TagBandHeight, w.Height)
	output.PutTagPair(bitstream.TagBandSubband, sb.Index)
	output.PutTagPair(bitstream.TagBandEncoding, BandEncodingRunLengths)
	output.PutTagPair(bitstream.TagBandQuant, w.Quant[sb.Band])
	output.PutTagPair(bitstream.TagBandScale, w.Scale[sb.Band])

	output.SizeTagPush(bitstream.TagSubbandSize)
	output.PutTagPair(bitstream.TagBandHeader, 0)

	e.encodeBandRuns(output, w, sb.Band)
	e.codeset.PutBandEnd(output)

	// Pad to the next tag boundary before the trailer.
	output.PadBitsTag()
	output.PutTagPair(bitstream.TagBandTrailer, 0)
	output.SizeTagPop()
	return output.Err()
}

// encodeBandRuns emits the band coefficients in raster order as zero
// runs and signed values.
func (e *Encoder) encodeBandRuns(output *bitstream.Bitstream, w *wavelet.Image, band int) {
	run := 0
	for y := 0; y < w.Height; y++ {
		row := w.Row(band, y)
		for _, value := range row {
			if value == 0 {
				run++
				continue
			}
			if run > 0 {
				e.codeset.PutZeroRun(output, run)
				run = 0
			}
			if e.codeset.PutValue(output, int32(value)) {
				e.saturated++
			}
		}
	}
	if run > 0 {
		e.codeset.PutZeroRun(output, run)
	}
}
