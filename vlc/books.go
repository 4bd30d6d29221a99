// Package vlc implements the variable-length coding engine: the codeset
// of prefix codes for coefficient magnitudes, zero runs, and the band-end
// codeword, together with the derived fast tables used by the encoder and
// decoder. Codebooks are process-wide constants built once at package
// initialization and safe for concurrent use.
package vlc

import "fmt"

// VLC is a single variable-length code: a bit pattern right justified in
// Bits occupying the low Size bits.
type VLC struct {
	Size int
	Bits uint32
}

// RLC is a run-length code covering Count zeros.
type RLC struct {
	Size  int
	Bits  uint32
	Count int
}

// RLV is one entry of the combined run/value codebook: the codeword
// encodes a run of Count coefficients with the unsigned magnitude Value.
// Value codes carry Count == 1; run codes carry Value == 0; the band-end
// codeword carries Count == 0 and Value == 0.
type RLV struct {
	Size  int
	Bits  uint32
	Count int
	Value int32
}

// IsBandEnd reports whether the entry is the band-end codeword.
func (r RLV) IsBandEnd() bool { return r.Count == 0 && r.Value == 0 }

// VLCBook maps a non-negative magnitude to its codeword by index.
type VLCBook []VLC

// RLVBook is a combined run/value codebook sorted by non-decreasing
// codeword length.
type RLVBook []RLV

// Codeset is a consistent set of codebooks for encoding and decoding one
// band format.
type Codeset struct {
	Title string

	// Magnitude is the codebook for small magnitudes (the original
	// table1a), for use with PutVlcSigned and GetVlcSigned. The sample
	// assembler writes the lowpass band as raw 16-bit words and does not
	// use it.
	Magnitude VLCBook

	// RunsBook is the combined run/value codebook including the band-end
	// codeword, sorted by non-decreasing codeword length.
	RunsBook RLVBook

	// BandEnd is the reserved codeword that terminates a band.
	BandEnd VLC

	// Derived tables, computed by buildTables.
	runTable  []RLC      // indexed by run length
	magTable  VLCBook    // magnitude -> code, from RunsBook value entries
	valueBook []VLC      // signed byte value -> code with sign appended
	fastTable []fastEntry
	fastBits  int // index width of the fast lookup table
}

// MaxMagnitude is the largest magnitude exactly codable by the combined
// codebook; larger magnitudes saturate.
const MaxMagnitude = 4095

// MaxRunLength is the longest zero run covered by a single run codeword.
const MaxRunLength = 2880

// magnitudeBook1a is the original table1a magnitude codebook. Codeword
// lengths are non-decreasing and no code is a prefix of a later code.
var magnitudeBook1a = VLCBook{
	{1, 0x0000},
	{2, 0x0002},
	{3, 0x0006},
	{4, 0x000E},
	{6, 0x003D},
	{9, 0x01F1},
	{12, 0x0FD7},
	{14, 0x3F52},
}

// bandEndCode is the reserved band-end codeword of codeset cg1.
var bandEndCode = VLC{Size: 16, Bits: 0xFFFF}

// Codeset cg1: the active codeset. The table layout keeps the structural
// invariants of the original codesets: a single zero coefficient costs
// one bit, the longest run code covers 2880 zeros, magnitudes up to 4095
// are exactly codable, and the band-end codeword sits alone in its
// prefix.
var cg1 = &Codeset{
	Title:     "cg1 run/value codeset",
	Magnitude: magnitudeBook1a,
	RunsBook:  buildRunsBook(),
	BandEnd:   bandEndCode,
}

// CurrentCodeset returns the codeset used by the encoder and decoder.
func CurrentCodeset() *Codeset { return cg1 }

// buildRunsBook enumerates the cg1 combined codebook. The short codes are
// listed explicitly; the two long magnitude groups are generated from
// their prefix blocks.
func buildRunsBook() RLVBook {
	book := RLVBook{
		{1, 0x0000, 1, 0}, // 0: single zero
		{2, 0x0002, 1, 1}, // 10: magnitude 1
		{4, 0x000C, 1, 2}, // 1100
		{4, 0x000D, 2, 0}, // 1101: run 2
		{6, 0x0038, 1, 3}, // 111000
		{6, 0x0039, 1, 4},
		{6, 0x003A, 4, 0},
		{6, 0x003B, 8, 0},
		{8, 0x00F0, 1, 5}, // 11110000
		{8, 0x00F1, 1, 6},
		{8, 0x00F2, 1, 7},
		{8, 0x00F3, 1, 8},
		{8, 0x00F4, 16, 0},
		{8, 0x00F5, 32, 0},
		{8, 0x00F6, 64, 0},
		{8, 0x00F7, 128, 0},
	}

	// Ten-bit group under the prefix 11111 0xxxx.
	for i := 0; i < 8; i++ {
		book = append(book, RLV{10, uint32(0x3E0 + i), 1, int32(9 + i)})
	}
	book = append(book,
		RLV{10, 0x3E8, 256, 0},
		RLV{10, 0x3E9, 512, 0},
		RLV{10, 0x3EA, 1024, 0},
		RLV{10, 0x3EB, MaxRunLength, 0},
		RLV{10, 0x3EC, 1, 17},
		RLV{10, 0x3ED, 1, 18},
		RLV{10, 0x3EE, 1, 19},
		RLV{10, 0x3EF, 1, 20},
	)

	// Thirteen-bit magnitudes 21..84 under the prefix 1111110.
	for i := 0; i < 64; i++ {
		book = append(book, RLV{13, uint32(0x7E<<6 | i), 1, int32(21 + i)})
	}

	// Sixteen-bit magnitudes 85..255 under the prefix 11111110.
	for i := 0; i <= 255-85; i++ {
		book = append(book, RLV{16, uint32(0xFE<<8 | i), 1, int32(85 + i)})
	}

	// The band-end codeword.
	book = append(book, RLV{bandEndCode.Size, bandEndCode.Bits, 0, 0})

	// Twenty-one-bit magnitudes 256..4095 under the prefix 111111110,
	// reached through the codebook search fallback.
	for i := 0; i <= MaxMagnitude-256; i++ {
		book = append(book, RLV{21, uint32(0x1FE<<12 | i), 1, int32(256 + i)})
	}
	return book
}

// ValidateBook checks that codeword lengths are non-decreasing and that
// no code is a prefix of a later code. Codebooks that fail validation are
// unusable; initialization treats a failure as fatal.
func ValidateBook(book RLVBook) error {
	for i := range book {
		if i > 0 && book[i].Size < book[i-1].Size {
			return fmt.Errorf("vlc: codebook entry %d shorter than its predecessor", i)
		}
		for j := i + 1; j < len(book); j++ {
			prefix := book[j].Bits >> uint(book[j].Size-book[i].Size)
			if prefix == book[i].Bits {
				return fmt.Errorf("vlc: entry %d is a prefix of entry %d", i, j)
			}
		}
	}
	return nil
}

// ValidateMagnitudeBook checks the same invariants for a magnitude book.
func ValidateMagnitudeBook(book VLCBook) error {
	for i := range book {
		if i > 0 && book[i].Size < book[i-1].Size {
			return fmt.Errorf("vlc: magnitude entry %d shorter than its predecessor", i)
		}
		for j := i + 1; j < len(book); j++ {
			prefix := book[j].Bits >> uint(book[j].Size-book[i].Size)
			if prefix == book[i].Bits {
				return fmt.Errorf("vlc: magnitude entry %d is a prefix of entry %d", i, j)
			}
		}
	}
	return nil
}

func init() {
	if err := ValidateMagnitudeBook(cg1.Magnitude); err != nil {
		panic(err)
	}
	if err := ValidateBook(cg1.RunsBook); err != nil {
		panic(err)
	}
	if err := cg1.buildTables(); err != nil {
		panic(err)
	}
}
