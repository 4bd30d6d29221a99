// Package cineform implements the CineForm intraframe wavelet video
// codec: the encoder and decoder for the spatio-temporal wavelet pyramid
// of each channel, serialized through the tag-value container. Samples
// are sequences of 32-bit big-endian words; coefficient payloads are
// variable-length coded bit strings between a band header and a band
// trailer.
//
// The subpackages split the core along its natural seams: bitstream (bit
// I/O and the tag-value container), vlc (codebooks and the entropy
// engine), and wavelet (the pyramid data model, filters, and
// quantization). This package assembles them into whole samples and
// registers the codec with the registry in the codec package.
package cineform

import (
	"github.com/cocosip/go-cineform/codec"
	"github.com/cocosip/go-cineform/wavelet"
)

const (
	// CodecName is the registry name of this codec.
	CodecName = "cineform"

	// CodecFourCC is the four character code of encoded samples.
	CodecFourCC = "CFHD"
)

// cineformCodec adapts the encoder and decoder to the codec registry
// interface. Each call builds a fresh encoder or decoder, so the adapter
// itself is safe for concurrent use.
type cineformCodec struct{}

func (cineformCodec) Name() string   { return CodecName }
func (cineformCodec) FourCC() string { return CodecFourCC }

// Encode compresses one group of frames for a single channel.
func (cineformCodec) Encode(params codec.EncodeParams) ([]byte, error) {
	opts := EncodeOptions{
		GOPLength: len(params.Frames),
		Precision: params.BitDepth,
	}
	if len(params.Frames) == 2 {
		opts.TransformType = wavelet.TransformTypeFieldPlus
	}
	if base, ok := params.Options.(*codec.BaseOptions); ok && base != nil {
		if err := base.Validate(); err != nil {
			return nil, err
		}
		opts.Quality = qualityFromFactor(base.Quality)
		if base.GOPLength != 0 && base.GOPLength != len(params.Frames) {
			return nil, codec.ErrInvalidParameter
		}
	}
	encoder, err := NewEncoder(opts)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeGroup([][][]int16{params.Frames}, params.Width, params.Height)
}

// Decode reconstructs the frames of one sample.
func (cineformCodec) Decode(sample []byte) (*codec.DecodeResult, error) {
	decoder := NewDecoder(DecodeOptions{})
	group, err := decoder.DecodeSample(sample)
	if err != nil {
		return nil, err
	}
	return &codec.DecodeResult{
		Frames:   group.Channels[0],
		Width:    group.Width,
		Height:   group.Height,
		Channels: len(group.Channels),
		BitDepth: group.Precision,
	}, nil
}

// qualityFromFactor maps the registry's 1-100 quality factor onto the
// preset table; zero selects lossless quantizers.
func qualityFromFactor(factor int) wavelet.Quality {
	switch {
	case factor == 0 || factor >= 90:
		return wavelet.QualityLossless
	case factor >= 75:
		return wavelet.QualityFilmScan
	case factor >= 50:
		return wavelet.QualityHigh
	case factor >= 25:
		return wavelet.QualityMedium
	default:
		return wavelet.QualityLow
	}
}

func init() {
	codec.Register(cineformCodec{})
}
