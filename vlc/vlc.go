package vlc

import (
	"errors"

	"github.com/cocosip/go-cineform/bitstream"
)

// Sign codes appended to non-zero magnitudes.
const (
	PositiveCode = 0x0
	NegativeCode = 0x1
	SignSize     = 1
)

// ErrUnmatched is returned when no codebook entry matches the bits at the
// current stream position.
var ErrUnmatched = errors.New("vlc: unmatched codeword")

// Run is one decoded atom: a run of Count coefficients whose final
// coefficient has the signed Value (zero for a pure run of zeros).
type Run struct {
	Count int
	Value int32
}

// ScanState tracks the decoder position within one band row.
type ScanState struct {
	Column int
	Width  int
	Value  int32
}

// PutVlc outputs the codeword for a non-negative value from the given
// magnitude book, saturating to the largest entry. It reports whether the
// value was saturated.
func PutVlc(s *bitstream.Bitstream, value int32, book VLCBook) bool {
	saturated := false
	maximum := int32(len(book) - 1)
	if value > maximum {
		value = maximum
		saturated = true
	}
	code := book[value]
	s.PutBits(code.Bits, code.Size)
	return saturated
}

// PutVlcSigned outputs the magnitude codeword followed by a one-bit sign
// for non-zero values. It reports whether the magnitude was saturated.
func PutVlcSigned(s *bitstream.Bitstream, value int32, book VLCBook) bool {
	saturated := false
	magnitude := value
	if magnitude < 0 {
		magnitude = -magnitude
	}
	maximum := int32(len(book) - 1)
	if magnitude > maximum {
		magnitude = maximum
		saturated = true
	}
	code := book[magnitude]
	bits := code.Bits
	size := code.Size
	if value != 0 {
		bits <<= SignSize
		if value < 0 {
			bits |= NegativeCode
		}
		size += SignSize
	}
	s.PutBits(bits, size)
	return saturated
}

// GetVlc reads one codeword from the magnitude book and returns its
// value, searching the book in order of increasing codeword length.
func GetVlc(s *bitstream.Bitstream, book VLCBook) (int32, error) {
	size := 0
	var bits uint32
	for value := range book {
		code := book[value]
		if size < code.Size {
			bits = s.AddBits(bits, code.Size-size)
			size = code.Size
		}
		if s.Error() != bitstream.ErrorOkay {
			return 0, s.Err()
		}
		if bits == code.Bits {
			return int32(value), nil
		}
	}
	return 0, ErrUnmatched
}

// GetVlcSigned reads a magnitude codeword and, for non-zero magnitudes,
// the trailing sign bit.
func GetVlcSigned(s *bitstream.Bitstream, book VLCBook) (int32, error) {
	value, err := GetVlc(s, book)
	if err != nil {
		return 0, err
	}
	if value != 0 {
		if s.GetBits(SignSize) == NegativeCode {
			value = -value
		}
		if s.Error() != bitstream.ErrorOkay {
			return 0, s.Err()
		}
	}
	return value, nil
}

// PutZeroRun encodes a run of zeros, repeatedly emitting the largest run
// codeword that fits until the run is exhausted. The expanded run table
// makes each step a single probe.
func (cs *Codeset) PutZeroRun(s *bitstream.Bitstream, count int) {
	for count > 0 {
		index := count
		if index >= len(cs.runTable) {
			index = len(cs.runTable) - 1
		}
		code := cs.runTable[index]
		s.PutBits(code.Bits, code.Size)
		count -= code.Count
	}
}

// PutValue encodes one non-zero coefficient as a magnitude codeword with
// the sign appended. Values within the indexed book encode with a single
// probe; larger magnitudes saturate to the limit of the codebook. It
// reports whether the value was saturated.
func (cs *Codeset) PutValue(s *bitstream.Bitstream, value int32) bool {
	if -128 <= value && value <= 127 {
		code := cs.valueBook[uint8(value)]
		s.PutBits(code.Bits, code.Size)
		return false
	}

	saturated := false
	magnitude := value
	sign := uint32(PositiveCode)
	if magnitude < 0 {
		magnitude = -magnitude
		sign = NegativeCode
	}
	if magnitude > MaxMagnitude {
		magnitude = MaxMagnitude
		saturated = true
	}
	code := cs.magTable[magnitude]
	s.PutBits(code.Bits<<SignSize|sign, code.Size+SignSize)
	return saturated
}

// PutBandEnd writes the codeword that terminates a band.
func (cs *Codeset) PutBandEnd(s *bitstream.Bitstream) {
	s.PutBits(cs.BandEnd.Bits, cs.BandEnd.Size)
}

// GetRlv decodes one atom. The fast lookup table resolves most codewords,
// including the embedded sign, in a single probe; codewords that do not
// fit the window together with their sign bit fall back to a linear
// codebook search. The boolean result
// reports the band-end codeword.
func (cs *Codeset) GetRlv(s *bitstream.Bitstream, run *Run) (bool, error) {
	index := s.PeekBits(cs.fastBits)
	if s.Error() != bitstream.ErrorOkay {
		return false, s.Err()
	}
	entry := cs.fastTable[index]
	switch entry.kind {
	case fastDirect:
		run.Count = int(entry.count)
		run.Value = entry.value
		s.SkipBits(int(entry.shift))
		return false, s.Err()
	case fastBandEnd:
		s.SkipBits(int(entry.shift))
		return true, s.Err()
	default:
		return cs.searchRlv(s, run, int(entry.value))
	}
}

// searchRlv is the codebook-search fallback: a linear scan beginning at
// the indexed entry, extending the codeword window as the entry length
// grows. A matched value codeword is followed by an explicit sign bit.
func (cs *Codeset) searchRlv(s *bitstream.Bitstream, run *Run, start int) (bool, error) {
	if start < 0 || start >= len(cs.RunsBook) {
		start = 0
	}
	size := 0
	var bits uint32
	for i := start; i < len(cs.RunsBook); {
		codesize := cs.RunsBook[i].Size
		if size < codesize {
			bits = s.AddBits(bits, codesize-size)
			size = codesize
			if s.Error() != bitstream.ErrorOkay {
				return false, s.Err()
			}
		}
		for ; i < len(cs.RunsBook) && size == cs.RunsBook[i].Size; i++ {
			entry := cs.RunsBook[i]
			if bits != entry.Bits {
				continue
			}
			if entry.IsBandEnd() {
				return true, nil
			}
			run.Count = entry.Count
			run.Value = entry.Value
			if entry.Value != 0 {
				if s.GetBits(SignSize) == NegativeCode {
					run.Value = -run.Value
				}
				if s.Error() != bitstream.ErrorOkay {
					return false, s.Err()
				}
			}
			return false, nil
		}
	}
	return false, ErrUnmatched
}

// ScanRlvRow skips runs of zeros and finds the next signed value within
// the row. The scan state records the position within the row so that
// the decoder never searches past the end of the row; the column advances
// past the decoded value, which belongs at the column before the updated
// position. The boolean result reports the band-end codeword.
func (cs *Codeset) ScanRlvRow(s *bitstream.Bitstream, scan *ScanState) (bool, error) {
	var run Run
	scan.Value = 0
	for scan.Column < scan.Width && scan.Value == 0 {
		end, err := cs.GetRlv(s, &run)
		if err != nil || end {
			return end, err
		}
		scan.Column += run.Count
		scan.Value = run.Value
	}
	return false, nil
}
