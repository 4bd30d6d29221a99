package cineform

import (
	"github.com/cocosip/go-cineform/bitstream"
	"github.com/cocosip/go-cineform/wavelet"
)

// CodecState accumulates the metadata tags of the current sample as the
// decoder reads them. The fields mirror the group header; a new group
// resets the state.
type CodecState struct {
	VersionMajor    int
	VersionMinor    int
	VersionRevision int
	SequenceFlags   int

	FrameWidth  int
	FrameHeight int
	FrameFormat int

	TransformType wavelet.TransformType
	NumFrames     int
	NumChannels   int
	NumWavelets   int
	NumSubbands   int
	NumSpatial    int
	FirstWavelet  int

	InputFormat   int
	EncodedFormat EncodedFormat
	ColorSpace    int
	Precision     int
	DisplayHeight int
	FrameNumber   int
	QualityLow    int
	QualityHigh   int

	PrescaleTable    uint16
	HasPrescaleTable bool

	InterlacedFlags int
	ProtectionFlags int
	PictureAspectX  int
	PictureAspectY  int

	Channel int
}

// reset clears per-group state while keeping sequence-level fields.
func (c *CodecState) reset() {
	sequence := CodecState{
		VersionMajor:    c.VersionMajor,
		VersionMinor:    c.VersionMinor,
		VersionRevision: c.VersionRevision,
		SequenceFlags:   c.SequenceFlags,
		FrameWidth:      c.FrameWidth,
		FrameHeight:     c.FrameHeight,
		FrameFormat:     c.FrameFormat,
	}
	*c = sequence
	c.NumFrames = 1
	c.NumChannels = 1
	c.Precision = 8
	c.EncodedFormat = EncodedFormatDefault
}

// Quality assembles the 32-bit quality code from its two halves.
func (c *CodecState) Quality() wavelet.Quality {
	return wavelet.Quality(uint32(c.QualityHigh)<<16 | uint32(c.QualityLow))
}

// update applies one metadata segment to the state and reports whether
// the tag was recognized. Callers pass optional segments in required
// form; they reject an unrecognized required tag and ignore an
// unrecognized optional one.
func (c *CodecState) update(tag bitstream.Tag, value int) bool {
	switch tag {
	case bitstream.TagVersionMajor:
		c.VersionMajor = value
	case bitstream.TagVersionMinor:
		c.VersionMinor = value
	case bitstream.TagVersionRev:
		c.VersionRevision = value
	case bitstream.TagVersionEdit, bitstream.TagVersion:
		// Accepted and ignored.
	case bitstream.TagSequenceFlags:
		c.SequenceFlags = value
	case bitstream.TagFrameWidth:
		c.FrameWidth = value
	case bitstream.TagFrameHeight:
		c.FrameHeight = value
	case bitstream.TagFrameFormat:
		c.FrameFormat = value
	case bitstream.TagTransformType:
		c.TransformType = wavelet.TransformType(value)
	case bitstream.TagNumFrames:
		c.NumFrames = value
	case bitstream.TagNumChannels:
		c.NumChannels = value
	case bitstream.TagNumWavelets:
		c.NumWavelets = value
	case bitstream.TagNumSubbands:
		c.NumSubbands = value
	case bitstream.TagNumSpatial:
		c.NumSpatial = value
	case bitstream.TagFirstWavelet:
		c.FirstWavelet = value
	case bitstream.TagInputFormat:
		c.InputFormat = value
	case bitstream.TagEncodedFormat:
		c.EncodedFormat = EncodedFormat(value)
	case bitstream.TagEncodedColors:
		c.ColorSpace = value
	case bitstream.TagPrecision:
		c.Precision = value
	case bitstream.TagDisplayHeight:
		c.DisplayHeight = value
	case bitstream.TagFrameNumber:
		c.FrameNumber = value
	case bitstream.TagQualityLow:
		c.QualityLow = value
	case bitstream.TagQualityHigh:
		c.QualityHigh = value
	case bitstream.TagPrescaleTable:
		c.PrescaleTable = uint16(value)
		c.HasPrescaleTable = true
	case bitstream.TagInterlacedFlag:
		c.InterlacedFlags = value
	case bitstream.TagProtectionFlag:
		c.ProtectionFlags = value
	case bitstream.TagPictureAspectX:
		c.PictureAspectX = value
	case bitstream.TagPictureAspectY:
		c.PictureAspectY = value
	case bitstream.TagChannel:
		c.Channel = value
	case bitstream.TagPresentWidth, bitstream.TagPresentHeight,
		bitstream.TagFrameIndex, bitstream.TagSampleFlags,
		bitstream.TagSampleEnd:
		// Informational.
	default:
		return false
	}
	return true
}

// prescale returns the per-wavelet prescale table for the group, from
// the transmitted table when present or the per-precision default.
func (c *CodecState) prescale() [wavelet.MaxWavelets]int {
	if c.HasPrescaleTable {
		return wavelet.UnpackPrescale(c.PrescaleTable)
	}
	return wavelet.DefaultPrescale(c.Precision)
}
