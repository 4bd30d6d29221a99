package codec

// Codec is the universal interface for all video codecs
type Codec interface {
	// Encode encodes one sample (a group of one or two frames)
	Encode(params EncodeParams) ([]byte, error)

	// Decode decodes one compressed sample
	Decode(sample []byte) (*DecodeResult, error)

	// FourCC returns the four character code of the encoded format
	FourCC() string

	// Name returns a human-readable name
	Name() string
}

// EncodeParams contains parameters for encoding one sample
type EncodeParams struct {
	Frames   [][]int16 // One or two frames of pixel data for one channel
	Width    int       // Frame width
	Height   int       // Frame height
	Channels int       // Number of color channels (1=grayscale, 3=YUV/RGB)
	BitDepth int       // Bits per sample (8, 10, 12, 16)
	Options  Options   // Codec-specific options
}

// Options is an interface for codec-specific encoding options
type Options interface {
	// Validate checks if the options are valid
	Validate() error
}

// DecodeResult contains the result of decoding one sample
type DecodeResult struct {
	Frames   [][]int16 // Decoded frames
	Width    int       // Frame width
	Height   int       // Frame height
	Channels int       // Number of color channels
	BitDepth int       // Bits per sample
}

// BaseOptions provides common options for all codecs
type BaseOptions struct {
	// Quality factor for lossy codecs (1-100, higher is better;
	// 0 selects the codec default). Not used for lossless codecs
	Quality int

	// GOPLength is the number of frames jointly encoded in one sample
	// (0 selects the codec default, otherwise 1 or 2)
	GOPLength int
}

// Validate validates base options
func (o *BaseOptions) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return ErrInvalidQuality
	}
	if o.GOPLength < 0 || o.GOPLength > 2 {
		return ErrInvalidParameter
	}
	return nil
}
