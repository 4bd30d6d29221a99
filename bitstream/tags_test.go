package bitstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagOptionalForms(t *testing.T) {
	assert.Equal(t, Tag(-0x0B), TagFrameWidth.Optional())
	assert.Equal(t, TagFrameWidth, TagFrameWidth.Optional().Required())
	assert.True(t, TagFrameWidth.Optional().IsOptional())
	assert.False(t, TagFrameWidth.IsOptional())
	assert.True(t, TagSubbandSize.IsChunkSize())
	assert.True(t, TagSubbandSize.Optional().IsChunkSize())
	assert.False(t, TagBandTrailer.IsChunkSize())
}

func TestTagPairRoundTrip(t *testing.T) {
	buffer := make([]byte, 64)
	writer := NewWriter(buffer)
	writer.PutTagPair(TagFrameWidth, 1920)
	writer.PutTagPairOptional(TagFrameNumber, 42)
	writer.PutTagPair(TagFrameHeight, 1080)
	require.NoError(t, writer.Err())

	reader := NewReader(buffer)
	segment := reader.GetSegment()
	assert.Equal(t, TagValue{Tag: TagFrameWidth, Value: 1920}, segment)

	// The required reader skips the optional segment.
	segment = reader.GetTagValue()
	assert.Equal(t, TagValue{Tag: TagFrameHeight, Value: 1080}, segment)
	require.NoError(t, reader.Err())
}

func TestGetTagOptional(t *testing.T) {
	buffer := make([]byte, 64)
	writer := NewWriter(buffer)
	writer.PutTagPairOptional(TagFrameNumber, 7)
	writer.PutTagPair(TagFrameWidth, 640)
	require.NoError(t, writer.Err())

	reader := NewReader(buffer)
	segment := reader.GetTagOptional()
	assert.Equal(t, TagValue{Tag: TagFrameNumber, Value: 7}, segment)

	// The next segment is required, so the optional reader consumes
	// nothing.
	segment = reader.GetTagOptional()
	assert.Equal(t, TagValue{}, segment)
	assert.Equal(t, 640, reader.GetValue(TagFrameWidth))
	require.NoError(t, reader.Err())
}

// A decoder looking for a required tag skips an arbitrary interleaving of
// unrecognized optional tags, accepts the match, and rejects a different
// required tag.
func TestTagOptionalitySkip(t *testing.T) {
	buffer := make([]byte, 128)
	writer := NewWriter(buffer)
	writer.PutTagPair(TagSample, int(SampleTypeGroup))
	writer.PutTagPair(TagNumFrames, 2)
	writer.PutTagPair(TagNumChannels, 3)
	writer.PutTagPairOptional(TagInterlacedFlag, 1)
	writer.PutTagPair(TagTransformType, 2)
	require.NoError(t, writer.Err())

	reader := NewReader(buffer)
	assert.Equal(t, int(SampleTypeGroup), reader.GetValue(TagSample))
	assert.Equal(t, 2, reader.GetValue(TagNumFrames))
	assert.Equal(t, 3, reader.GetValue(TagNumChannels))
	// The interlaced flag is unknown to this reader; the next required
	// read must skip it.
	assert.Equal(t, 2, reader.GetValue(TagTransformType))
	require.NoError(t, reader.Err())

	// A different required tag is an error.
	reader2 := NewReader(buffer)
	reader2.GetValue(TagSample)
	assert.Equal(t, 0, reader2.GetValue(TagNumChannels))
	assert.Equal(t, ErrorBadTag, reader2.Error())
}

func TestSizeTagBackPatch(t *testing.T) {
	buffer := make([]byte, 128)
	writer := NewWriter(buffer)
	writer.SizeTagPush(TagSubbandSize)
	for i := 0; i < 5; i++ {
		writer.PutLong(uint32(i))
	}
	writer.SizeTagPop()
	require.NoError(t, writer.Err())

	// Twenty bytes of content: the patched value is 20/4 - 1.
	reader := NewReader(buffer)
	segment := reader.GetSegment()
	assert.Equal(t, TagSubbandSize.Optional(), segment.Tag, "patched tag must be optional")
	assert.Equal(t, uint16(4), segment.Value)
}

// Scenario: open chunks A, B, C, close them in LIFO order with 12, 20,
// and 40 bytes emitted between each open and close.
func TestNestedChunkSizes(t *testing.T) {
	buffer := make([]byte, 256)
	writer := NewWriter(buffer)

	writer.SizeTagPush(TagSubbandSize) // A
	offsetA := writer.Position() - 4
	writer.SizeTagPush(TagLevelSize) // B
	offsetB := writer.Position() - 4
	writer.SizeTagPush(TagChannelSize) // C
	offsetC := writer.Position() - 4

	putZeros := func(n int) {
		for i := 0; i < n/4; i++ {
			writer.PutLong(0)
		}
	}

	putZeros(12)
	writer.SizeTagPop() // C: 12 bytes
	putZeros(4)         // B holds C's tag (4) + 12 + this 4 = 20
	writer.SizeTagPop() // B
	putZeros(12)        // A holds B's tag (4) + 20 + this 12 = wait

	// A: B tag word (4) + B content (20) + 12 more = 36; add one more
	// longword for 40.
	putZeros(4)
	writer.SizeTagPop() // A
	require.NoError(t, writer.Err())

	readSize := func(offset int) (Tag, uint16) {
		r := NewReader(buffer[offset:])
		segment := r.GetSegment()
		return segment.Tag, segment.Value
	}

	tagC, sizeC := readSize(offsetC)
	assert.True(t, tagC.IsOptional())
	assert.Equal(t, uint16(2), sizeC, "C encloses 12 bytes")

	tagB, sizeB := readSize(offsetB)
	assert.True(t, tagB.IsOptional())
	assert.Equal(t, uint16(4), sizeB, "B encloses 20 bytes")

	tagA, sizeA := readSize(offsetA)
	assert.True(t, tagA.IsOptional())
	assert.Equal(t, uint16(9), sizeA, "A encloses 40 bytes")
}

func TestChunkSizeTagCarries24Bits(t *testing.T) {
	// 0x40000 bytes of content: the size in longwords minus one is
	// 0x10000 - 1 = 0xFFFF... use one longword more to force bit 16.
	content := 0x40004
	buffer := make([]byte, content+64)
	writer := NewWriter(buffer)
	writer.SizeTagPush(TagSubbandSize)
	for i := 0; i < content/4; i++ {
		writer.PutLong(0xDEADBEEF)
	}
	writer.SizeTagPop()
	require.NoError(t, writer.Err())

	reader := NewReader(buffer)
	segment := reader.GetSegment()
	require.True(t, segment.Tag.IsOptional())
	required := segment.Tag.Required()

	size := content/4 - 1
	assert.Equal(t, uint16(size&0xFFFF), segment.Value)
	assert.Equal(t, size>>16, int(required)&0xFF, "size bits 16-23 land in the tag")
}

func TestSkipSubband(t *testing.T) {
	buffer := make([]byte, 128)
	writer := NewWriter(buffer)
	writer.PutLong(0x12345678) // coefficient noise
	writer.PutLong(0x9ABCDEF0)
	writer.PutTagPair(TagBandTrailer, 0)
	writer.PutTagPair(TagFrameWidth, 99)
	require.NoError(t, writer.Err())

	reader := NewReader(buffer)
	reader.SkipSubband()
	require.NoError(t, reader.Err())

	segment := reader.GetTagValue()
	assert.True(t, reader.IsValidSegment(segment, TagBandTrailer))
	assert.Equal(t, 99, reader.GetValue(TagFrameWidth))
}

func TestSampleTypeSegment(t *testing.T) {
	buffer := make([]byte, 16)
	writer := NewWriter(buffer)
	writer.PutTagPair(TagSample, int(SampleTypeSequenceHeader))

	reader := NewReader(buffer)
	segment := reader.GetTagValue()
	require.True(t, reader.IsValidSegment(segment, TagSample))
	assert.Equal(t, SampleTypeSequenceHeader, SampleType(segment.Value))
}

func TestMarkerSegment(t *testing.T) {
	buffer := make([]byte, 16)
	writer := NewWriter(buffer)
	writer.PutTagMarker(MarkerLowpassStart)

	reader := NewReader(buffer)
	segment := reader.GetTagValue()
	require.True(t, reader.IsValidSegment(segment, TagMarker))
	assert.Equal(t, MarkerLowpassStart, int(segment.Value))
}
