package vlc

import "fmt"

// fastEntry is one slot of the decoder's fast lookup table. Direct
// entries resolve a whole atom, including the sign of a value, in a
// single table probe; fallback entries point at the codebook index where
// a linear search must continue.
type fastEntry struct {
	kind  uint8
	shift uint8 // bits consumed by a direct hit
	count int32 // run length of a direct hit
	value int32 // signed value of a direct hit, or the fallback index
}

const (
	fastFallback uint8 = iota
	fastDirect
	fastBandEnd
)

// fastTableBits is the index width of the fast lookup table. Every atom
// whose codeword plus sign fits in the window decodes in one probe.
const fastTableBits = 16

// valueBookBits is the index width of the encoder's signed value book.
const valueBookBits = 8

// buildTables derives the encoder and decoder side tables from the
// codebooks. It is called once at package initialization; any failure is
// fatal because the codeset is a process-wide constant.
func (cs *Codeset) buildTables() error {
	if err := cs.buildMagTable(); err != nil {
		return err
	}
	cs.buildRunTable()
	cs.buildValueBook()
	return cs.buildFastTable()
}

// buildMagTable indexes the value entries of the combined codebook by
// magnitude.
func (cs *Codeset) buildMagTable() error {
	cs.magTable = make(VLCBook, MaxMagnitude+1)
	seen := make([]bool, MaxMagnitude+1)
	for _, entry := range cs.RunsBook {
		if entry.IsBandEnd() || entry.Value == 0 {
			continue
		}
		if entry.Value > MaxMagnitude || seen[entry.Value] {
			return fmt.Errorf("vlc: magnitude %d out of range or duplicated", entry.Value)
		}
		cs.magTable[entry.Value] = VLC{Size: entry.Size, Bits: entry.Bits}
		seen[entry.Value] = true
	}
	for magnitude := 1; magnitude <= MaxMagnitude; magnitude++ {
		if !seen[magnitude] {
			return fmt.Errorf("vlc: magnitude %d has no codeword", magnitude)
		}
	}
	// Magnitude zero is the single-zero run code.
	cs.magTable[0] = VLC{Size: cs.RunsBook[0].Size, Bits: cs.RunsBook[0].Bits}
	return nil
}

// buildRunTable expands the run codes so that every run length up to the
// largest covered maps directly to the largest sufficient codeword. Runs
// beyond the table are handled by the greedy loop in PutZeroRun.
func (cs *Codeset) buildRunTable() {
	cs.runTable = make([]RLC, MaxRunLength+1)
	best := RLC{}
	for length := 1; length <= MaxRunLength; length++ {
		for _, entry := range cs.RunsBook {
			if entry.Value != 0 || entry.IsBandEnd() {
				continue
			}
			if entry.Count == length {
				best = RLC{Size: entry.Size, Bits: entry.Bits, Count: entry.Count}
			}
		}
		cs.runTable[length] = best
	}
}

// buildValueBook concatenates each magnitude code with a one-bit sign
// (zero positive, one negative) so that a signed byte value encodes with
// a single table probe.
func (cs *Codeset) buildValueBook() {
	size := 1 << valueBookBits
	cs.valueBook = make([]VLC, size)
	for index := 0; index < size; index++ {
		value := int32(int8(index))
		if value == 0 {
			cs.valueBook[index] = cs.magTable[0]
			continue
		}
		magnitude := value
		sign := uint32(0)
		if magnitude < 0 {
			magnitude = -magnitude
			sign = 1
		}
		code := cs.magTable[magnitude]
		cs.valueBook[index] = VLC{Size: code.Size + 1, Bits: code.Bits<<1 | sign}
	}
}

// buildFastTable enumerates every bit pattern of the index width and
// associates it with the unique atom whose codeword (and sign, for value
// codes) it begins with, or with the codebook index where the search
// fallback must start.
func (cs *Codeset) buildFastTable() error {
	size := 1 << fastTableBits
	cs.fastBits = fastTableBits
	cs.fastTable = make([]fastEntry, size)

	// Default every slot to a search of the whole codebook; direct fills
	// and narrower fallbacks override below.
	for i := range cs.fastTable {
		cs.fastTable[i] = fastEntry{kind: fastFallback, value: 0}
	}

	// Codewords wider than the window share their leading bits; the
	// fallback slot must point at the first such codebook entry so the
	// forward search can reach every one of them.
	assigned := make([]bool, size)

	for index, entry := range cs.RunsBook {
		switch {
		case entry.IsBandEnd():
			if entry.Size > fastTableBits {
				return fmt.Errorf("vlc: band-end codeword wider than the fast table")
			}
			cs.fillFast(entry.Bits, entry.Size, fastEntry{kind: fastBandEnd, shift: uint8(entry.Size)})

		case entry.Value == 0:
			if entry.Size > fastTableBits {
				return fmt.Errorf("vlc: run codeword wider than the fast table")
			}
			cs.fillFast(entry.Bits, entry.Size, fastEntry{
				kind:  fastDirect,
				shift: uint8(entry.Size),
				count: int32(entry.Count),
			})

		default:
			// Value codes include the sign in the table entry.
			if entry.Size+1 <= fastTableBits {
				positive := entry.Bits << 1
				cs.fillFast(positive, entry.Size+1, fastEntry{
					kind:  fastDirect,
					shift: uint8(entry.Size + 1),
					count: 1,
					value: entry.Value,
				})
				cs.fillFast(positive|1, entry.Size+1, fastEntry{
					kind:  fastDirect,
					shift: uint8(entry.Size + 1),
					count: 1,
					value: -entry.Value,
				})
			} else {
				// The codeword fills or exceeds the window; the search
				// continues at this entry and reads the sign from the
				// stream.
				window := entry.Bits >> uint(entry.Size-fastTableBits)
				if !assigned[window] {
					assigned[window] = true
					cs.fastTable[window] = fastEntry{kind: fastFallback, value: int32(index)}
				}
			}
		}
	}
	return nil
}

// fillFast writes the entry into every table slot whose index begins with
// the given codeword.
func (cs *Codeset) fillFast(bits uint32, size int, entry fastEntry) {
	base := bits << uint(cs.fastBits-size)
	count := 1 << uint(cs.fastBits-size)
	for i := 0; i < count; i++ {
		cs.fastTable[base+uint32(i)] = entry
	}
}
