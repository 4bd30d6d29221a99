package cineform

import (
	"errors"

	"github.com/cocosip/go-cineform/logging"
	"github.com/cocosip/go-cineform/wavelet"
)

// Encoded sample formats.
type EncodedFormat int

const (
	EncodedFormatYUV422 EncodedFormat = iota
	EncodedFormatRGB444
	EncodedFormatRGBA4444
	EncodedFormatBayer

	encodedFormatCount
)

// EncodedFormatDefault is implied when the group header omits the tag.
const EncodedFormatDefault = EncodedFormatYUV422

// Color space codes stored in the optional colorspace tag.
const (
	ColorSpace601       = 1
	ColorSpace709       = 2
	ColorSpaceVideoSafe = 0x10
	ColorSpaceFullRange = 0x20
)

// Input formats at or above this value must be written as required tags;
// lower values are informational.
const inputFormatRequiredThreshold = 100

// Band encoding methods. Run-length coding is the only method this
// encoder emits; the catalog keeps the other codes so decoders can reject
// samples produced with retired methods.
const (
	BandEncodingZerotree   = 1
	BandEncodingCodebook   = 2
	BandEncodingRunLengths = 3
	BandEncoding16Bit      = 4
	BandEncodingLossless   = 5
)

// Bitstream version written into sequence headers.
const (
	VersionMajor    = 1
	VersionMinor    = 0
	VersionRevision = 0
	VersionEdit     = 0
)

var (
	// ErrBadParameters is returned when encode options fail validation.
	ErrBadParameters = errors.New("cineform: invalid encoder parameters")

	// ErrBadFrames is returned when the frame data does not match the
	// configured group length or dimensions.
	ErrBadFrames = errors.New("cineform: frame data does not match parameters")
)

// EncodeOptions selects the transform schedule, quantization, and the
// metadata written into each sample.
type EncodeOptions struct {
	// TransformType selects the pyramid schedule. The default is the
	// spatial transform for one-frame groups and field-plus for
	// two-frame groups.
	TransformType wavelet.TransformType

	// GOPLength is the number of frames per sample, 1 or 2.
	GOPLength int

	// NumSpatial is the number of spatial wavelet levels per channel.
	NumSpatial int

	// Precision of the input pixels: 8, 10, 12, or 16 bits.
	Precision int

	// InputFormat is an informational code for decoders. Values of 100
	// and above are written as required tags.
	InputFormat int

	// EncodedFormat is written when it differs from the default.
	EncodedFormat EncodedFormat

	// ColorSpace is stored optionally when nonzero.
	ColorSpace int

	// Quality selects the per-band quantizer table.
	Quality wavelet.Quality

	// PrescaleTable overrides the per-precision default prescale shifts.
	PrescaleTable *[wavelet.MaxWavelets]int

	// MidpointPrequant is the midtread midpoint denominator: zero for
	// strict floor quantization, or 2..8.
	MidpointPrequant int

	// FrameNumber, when positive, is written as an optional tag; zero
	// and negative values omit the tag.
	FrameNumber int

	// InterlacedFlags, PictureAspectX and PictureAspectY populate the
	// optional group extension when nonzero.
	InterlacedFlags int
	PictureAspectX  int
	PictureAspectY  int

	// Logger receives encoder diagnostics; nil is silent.
	Logger logging.Logger
}

// withDefaults returns a copy with unset fields resolved.
func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.GOPLength == 0 {
		o.GOPLength = 1
	}
	if o.NumSpatial == 0 {
		o.NumSpatial = 3
	}
	if o.Precision == 0 {
		o.Precision = 8
	}
	if o.TransformType == wavelet.TransformTypeSpatial && o.GOPLength == 2 {
		o.TransformType = wavelet.TransformTypeFieldPlus
	}
	if o.FrameNumber == 0 {
		o.FrameNumber = -1
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Validate checks the option combination.
func (o EncodeOptions) Validate() error {
	if o.GOPLength < 1 || o.GOPLength > wavelet.MaxFrames {
		return ErrBadParameters
	}
	if o.NumSpatial < 1 || o.NumSpatial > wavelet.MaxSpatialLevels {
		return ErrBadParameters
	}
	switch o.Precision {
	case 8, 10, 12, 16:
	default:
		return ErrBadParameters
	}
	if o.EncodedFormat < 0 || o.EncodedFormat >= encodedFormatCount {
		return ErrBadParameters
	}
	if o.MidpointPrequant != 0 && (o.MidpointPrequant < 2 || o.MidpointPrequant > 8) {
		return ErrBadParameters
	}
	switch o.TransformType {
	case wavelet.TransformTypeSpatial, wavelet.TransformTypeInterlaced:
		if o.GOPLength != 1 {
			return ErrBadParameters
		}
	case wavelet.TransformTypeField, wavelet.TransformTypeFieldPlus:
		if o.GOPLength != 2 {
			return ErrBadParameters
		}
	default:
		return ErrBadParameters
	}
	return nil
}

// prescale resolves the prescale table for the options.
func (o EncodeOptions) prescale() [wavelet.MaxWavelets]int {
	if o.PrescaleTable != nil {
		return *o.PrescaleTable
	}
	return wavelet.DefaultPrescale(o.Precision)
}

// DecodeOptions configures a decoder.
type DecodeOptions struct {
	// Alignment is the offset of the sample within an outer container,
	// 0..3, when the sample was embedded at a position that is not a
	// multiple of four bytes.
	Alignment int

	// Logger receives decoder diagnostics; nil is silent.
	Logger logging.Logger
}
