package cineform

import "errors"

// Decode error kinds. Stream-level failures (overflow, underflow, bad
// tag) surface as the bitstream package's sentinel errors; the kinds
// below are detected by the sample assembler.
var (
	// ErrBadSample is returned when the buffer does not begin with a
	// recognizable sample.
	ErrBadSample = errors.New("cineform: not a valid sample")

	// ErrMissingMarker is returned when a required delimiter (sequence,
	// group, channel, lowpass, highpass, band start or end) is absent.
	ErrMissingMarker = errors.New("cineform: missing bitstream marker")

	// ErrHighpassIndex is returned when a highpass header reports a
	// wavelet number or level inconsistent with the decoder's position
	// in the pyramid.
	ErrHighpassIndex = errors.New("cineform: wavelet index out of order")

	// ErrBadSampleData is returned when a header value fails a range
	// check against the transform geometry.
	ErrBadSampleData = errors.New("cineform: sample header value out of range")

	// ErrBadEncodingMethod is returned when a band was encoded with a
	// method this decoder does not implement.
	ErrBadEncodingMethod = errors.New("cineform: unsupported band encoding method")
)
