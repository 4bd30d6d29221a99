package bitstream

// Tag identifies a segment in the sample. Tags are positive in the
// required form; the negated value marks the segment as optional, which a
// decoder that does not recognize the tag must skip. Tags carrying the
// chunkSizeFlag declare the length of the container that follows and may
// spill the top eight bits of a 24-bit size into the tag word itself.
type Tag int16

// chunkSizeFlag marks tags whose value field is a chunk size in
// doublewords, with up to eight extra size bits carried in the tag.
const chunkSizeFlag = 0x2000

// Catalog of segment tags. The numbering is part of the wire format and
// must not change.
const (
	TagZero Tag = 0x0000

	TagSample        Tag = 0x0001 // sample type (see SampleType)
	TagSampleFlags   Tag = 0x0002
	TagSampleEnd     Tag = 0x0003 // informational end-of-sample marker
	TagVersionMajor  Tag = 0x0004
	TagVersionMinor  Tag = 0x0005
	TagVersionRev    Tag = 0x0006
	TagVersionEdit   Tag = 0x0007
	TagSequenceFlags Tag = 0x0008
	TagVersion       Tag = 0x0009 // packed encoder version

	TagFrameType      Tag = 0x000A
	TagFrameWidth     Tag = 0x000B
	TagFrameHeight    Tag = 0x000C
	TagFrameFormat    Tag = 0x000D
	TagFrameIndex     Tag = 0x000E
	TagFrameNumber    Tag = 0x000F
	TagFrameTrailer   Tag = 0x0010
	TagInputFormat    Tag = 0x0011
	TagEncodedFormat  Tag = 0x0012
	TagEncodedColors  Tag = 0x0013
	TagPrecision      Tag = 0x0014
	TagDisplayHeight  Tag = 0x0015
	TagPresentWidth   Tag = 0x0016
	TagPresentHeight  Tag = 0x0017
	TagTransformType  Tag = 0x0018
	TagNumFrames      Tag = 0x0019
	TagNumChannels    Tag = 0x001A
	TagNumWavelets    Tag = 0x001B
	TagNumSubbands    Tag = 0x001C
	TagNumSpatial     Tag = 0x001D
	TagFirstWavelet   Tag = 0x001E
	TagChannel        Tag = 0x001F
	TagQualityLow     Tag = 0x0020
	TagQualityHigh    Tag = 0x0021
	TagPrescaleTable  Tag = 0x0022
	TagIndex          Tag = 0x0023
	TagEntry          Tag = 0x0024
	TagMarker         Tag = 0x0025
	TagGroupTrailer   Tag = 0x0026
	TagInterlacedFlag Tag = 0x0027
	TagProtectionFlag Tag = 0x0028
	TagPictureAspectX Tag = 0x0029
	TagPictureAspectY Tag = 0x002A

	TagLowpassSubband Tag = 0x002B
	TagNumLevels      Tag = 0x002C
	TagLowpassWidth   Tag = 0x002D
	TagLowpassHeight  Tag = 0x002E
	TagMarginLeft     Tag = 0x002F
	TagMarginTop      Tag = 0x0030
	TagMarginRight    Tag = 0x0031
	TagMarginBottom   Tag = 0x0032
	TagPixelOffset    Tag = 0x0033
	TagQuantization   Tag = 0x0034
	TagPixelDepth     Tag = 0x0035

	TagWaveletType    Tag = 0x0036
	TagWaveletNumber  Tag = 0x0037
	TagBandTrailer    Tag = 0x0038
	TagWaveletLevel   Tag = 0x0039
	TagNumBands       Tag = 0x003A
	TagHighpassWidth  Tag = 0x003B
	TagHighpassHeight Tag = 0x003C
	TagLowpassBorder  Tag = 0x003D
	TagHighpassBorder Tag = 0x003E
	TagLowpassScale   Tag = 0x003F
	TagLowpassDivisor Tag = 0x0040

	TagBandNumber      Tag = 0x0041
	TagBandWidth       Tag = 0x0042
	TagBandHeight      Tag = 0x0043
	TagBandSubband     Tag = 0x0044
	TagBandEncoding    Tag = 0x0045
	TagBandQuant       Tag = 0x0046
	TagBandScale       Tag = 0x0047
	TagBandHeader      Tag = 0x0048
	TagBandSecondPass  Tag = 0x0049
	TagBandCodingFlags Tag = 0x004A

	TagPeakTableLow   Tag = 0x004B
	TagPeakTableHigh  Tag = 0x004C
	TagPeakLevel      Tag = 0x004D

	// Chunk-size tags. The value is the size of the enclosed chunk in
	// doublewords; the low byte of the tag holds bits 16-23 of the size.
	TagSubbandSize Tag = chunkSizeFlag | 0x0100
	TagLevelSize   Tag = chunkSizeFlag | 0x0200
	TagChannelSize Tag = chunkSizeFlag | 0x0300
	TagSampleSize  Tag = chunkSizeFlag | 0x0400
)

// Optional returns the optional (negated) form of the tag.
func (t Tag) Optional() Tag {
	if t > 0 {
		return -t
	}
	return t
}

// Required returns the required (positive) form of the tag.
func (t Tag) Required() Tag {
	if t < 0 {
		return -t
	}
	return t
}

// IsOptional reports whether the tag is in its optional form.
func (t Tag) IsOptional() bool { return t < 0 }

// IsChunkSize reports whether the tag carries a 24-bit chunk size.
func (t Tag) IsChunkSize() bool { return t.Required()&chunkSizeFlag != 0 }

// SampleType is the value of a TagSample segment.
type SampleType int

const (
	SampleTypeNone SampleType = iota
	SampleTypeFrame
	SampleTypePFrame
	SampleTypeIFrame
	SampleTypeGroup
	SampleTypeGroupTrailer
	SampleTypeChannel
	SampleTypeSequenceHeader
	SampleTypeSequenceTrailer
)

// Marker codes carried in TagMarker segments around the lowpass and
// highpass sections.
const (
	MarkerLowpassStart  = 0x1A4A
	MarkerLowpassEnd    = 0x1B4B
	MarkerHighpassStart = 0x0D0D
	MarkerHighpassEnd   = 0x0C0C
)

// TagValue is one decoded segment: a tag and its 16-bit value.
type TagValue struct {
	Tag   Tag
	Value uint16
}

// Longword packs the segment into its 32-bit wire form.
func (tv TagValue) Longword() uint32 {
	return uint32(uint16(tv.Tag))<<16 | uint32(tv.Value)
}

// segmentFromLong unpacks a 32-bit word into a tag value pair.
func segmentFromLong(word uint32) TagValue {
	return TagValue{Tag: Tag(int16(word >> 16)), Value: uint16(word)}
}

// PutTagPair outputs a required tag value segment. The stream must be on
// a tag boundary.
func (s *Bitstream) PutTagPair(tag Tag, value int) {
	s.PutLong(uint32(uint16(tag))<<16 | uint32(uint16(value)))
}

// PutTagPairOptional outputs an optional tag value segment.
func (s *Bitstream) PutTagPairOptional(tag Tag, value int) {
	s.PutTagPair(tag.Optional(), value)
}

// PutTagValue outputs a segment in either form.
func (s *Bitstream) PutTagValue(tv TagValue) {
	s.PutLong(tv.Longword())
}

// PutTagMarker outputs a marker segment used to bracket sections of the
// sample for validation.
func (s *Bitstream) PutTagMarker(marker int) {
	s.PutTagPair(TagMarker, marker)
}

// GetSegment reads the next segment whether required or optional.
func (s *Bitstream) GetSegment() TagValue {
	return segmentFromLong(s.GetLong())
}

// GetTagValue reads the next required segment, skipping any optional
// segments that precede it.
func (s *Bitstream) GetTagValue() TagValue {
	for {
		word := s.GetLong()
		if s.err != ErrorOkay {
			return TagValue{}
		}
		segment := segmentFromLong(word)
		if segment.Tag > 0 {
			return segment
		}
	}
}

// GetTagOptional examines the next segment and consumes it only if it is
// optional, returning it in required form. A zero TagValue is returned
// when the next segment is required.
func (s *Bitstream) GetTagOptional() TagValue {
	word := s.PeekLong()
	if s.err != ErrorOkay {
		return TagValue{}
	}
	segment := segmentFromLong(word)
	if segment.Tag < 0 {
		segment.Tag = -segment.Tag
		s.SkipLong()
		return segment
	}
	return TagValue{}
}

// GetValue reads the next required segment and returns its value,
// recording ErrorBadTag if the tag does not match.
func (s *Bitstream) GetValue(tag Tag) int {
	segment := s.GetTagValue()
	if s.err == ErrorOkay {
		if segment.Tag == tag {
			return int(segment.Value)
		}
		s.err = ErrorBadTag
	}
	return 0
}

// IsValidSegment reports whether the segment was read without error and
// carries the expected tag.
func (s *Bitstream) IsValidSegment(segment TagValue, tag Tag) bool {
	return s.err == ErrorOkay && segment.Tag == tag
}

// SizeTagPush emits a chunk-size tag with a placeholder value and records
// the position for back-patching. Chunks nest up to NestingLevels deep;
// the deepest open chunk is always at index zero.
func (s *Bitstream) SizeTagPush(tag Tag) {
	if s.chunkSizeOffset[0] != 0 {
		for i := NestingLevels - 1; i > 0; i-- {
			s.chunkSizeOffset[i] = s.chunkSizeOffset[i-1]
		}
	}
	s.PutTagPair(tag, 0)
	s.chunkSizeOffset[0] = s.pos
}

// SizeTagPop computes the size of the chunk opened by the matching
// SizeTagPush, in doublewords minus one, and patches it into the stored
// tag word. The patched tag is promoted to optional so that decoders
// unaware of it skip the segment; for 24-bit chunk tags the top bits of
// the size land in the low byte of the tag.
func (s *Bitstream) SizeTagPop() {
	offset := s.chunkSizeOffset[0]
	if offset != 0 && offset <= s.pos {
		tag := uint16(s.buffer[offset-4])<<8 | uint16(s.buffer[offset-3])
		size := (s.pos-offset)>>2 - 1
		if size < 0 {
			size = 0
		}
		if Tag(tag).IsChunkSize() {
			if size > 0xFFFFFF {
				// Chunks of 64 MiB or more are outside the format.
				s.SetError(ErrorOverflow)
				size &= 0xFFFFFF
			}
			tag |= uint16(size >> 16)
			size &= 0xFFFF
		} else {
			size &= 0xFFFF
		}

		// Promote the tag to optional.
		tag = uint16(-int16(tag))

		s.buffer[offset-4] = byte(tag >> 8)
		s.buffer[offset-3] = byte(tag)
		s.buffer[offset-2] = byte(size >> 8)
		s.buffer[offset-1] = byte(size)

		for i := 0; i < NestingLevels-1; i++ {
			s.chunkSizeOffset[i] = s.chunkSizeOffset[i+1]
		}
		s.chunkSizeOffset[NestingLevels-1] = 0
	} else {
		s.chunkSizeOffset[0] = 0
	}
}

// SkipSubband scans forward to the band trailer so that a damaged or
// unwanted subband can be skipped, leaving the stream positioned just
// before the trailer segment.
func (s *Bitstream) SkipSubband() {
	s.AlignBitsTag()
	for {
		segment := s.GetTagValue()
		if s.err != ErrorOkay {
			return
		}
		if segment.Tag == TagBandTrailer && segment.Value == 0 {
			break
		}
	}
	s.pos -= 4
}
