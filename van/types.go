// Package van implements a bit-level decoder for the VAN (Vehicle Area
// Network) field bus. It turns a logic-level sample stream into frame
// field annotations, per-bit marks and protocol conformance warnings.
//
// The pipeline is: a SampleCursor supplies samples, the BitSampler
// recovers bit timing from dominant edges against a SampleClock, the
// DestuffingFilter strips stuff bits and detects the end-of-data marker,
// and the FrameDecoder reconstructs the frame fields.
package van

// Level represents one of the two bus logic levels. Dominant is logic
// low and wins arbitration; recessive is the idle level.
type Level uint8

const (
	Dominant  Level = 0
	Recessive Level = 1
)

func (l Level) String() string {
	switch l {
	case Dominant:
		return "dominant"
	case Recessive:
		return "recessive"
	default:
		return "invalid"
	}
}

// RawBit is a sampled bus bit before de-stuffing. Index counts every
// sampled bit including stuff bits; Sample is the sample index at which
// the bit level was taken.
type RawBit struct {
	Level  Level
	Index  int
	Sample uint64
}

// BitClass classifies a raw bit after de-stuffing.
type BitClass int

const (
	BitClassLogical BitClass = iota // an actual frame bit
	BitClassStuff                   // inserted stuff bit, not frame data
	BitClassEOD                     // stuff position carrying the end-of-data marker
)

func (c BitClass) String() string {
	switch c {
	case BitClassLogical:
		return "logical"
	case BitClassStuff:
		return "stuff"
	case BitClassEOD:
		return "eod"
	default:
		return "invalid"
	}
}

// ClassifiedBit is a RawBit tagged with its de-stuffing classification.
// LogicalIndex is valid only for BitClassLogical and counts frame bits
// with stuff bits excluded.
type ClassifiedBit struct {
	RawBit
	Class        BitClass
	LogicalIndex int
}

// Canonical frame layout, in logical bit indices. The identifier/control
// split follows the final 14-bit-identifier revision of the protocol.
const (
	sofBits    = 10
	sofPattern = 0x03D // fixed sync pattern of the SOF field

	idStart = sofBits
	idBits  = 14

	formatBitIndex = idStart + idBits // format flag selecting the frame layout
	controlStart   = formatBitIndex + 1
	controlBits    = 3

	dlcStart = controlStart + controlBits
	dlcBits  = 4

	dataStartIndex = dlcStart + dlcBits

	crcDelimiterBits = 1
	ackSlotBits      = 1
	ackDelimiterBits = 1
	eofBits          = 7

	// Number of leading raw bits exempt from stuffing, and the stuffing
	// cadence: raw index r is a stuff position iff r > stuffExempt and
	// r % stuffPeriod == stuffPeriod-1.
	stuffExempt = 10
	stuffPeriod = 5

	classicPayloadLimit = 8 // max payload bytes under the classic layout
)

// extendedLengths maps DLC codes 9..15 to payload byte counts under the
// flexible-data layout.
var extendedLengths = [7]int{12, 16, 20, 24, 32, 48, 64}

// SOFPattern is the fixed value of the 10-bit start-of-frame sync field.
const SOFPattern = sofPattern

// DataLength resolves a 4-bit data length code to a payload byte count.
// DLC codes above 8 are only meaningful under the extended layout; in
// the classic layout oversized is reported and the count clamps to the
// classic limit.
func DataLength(dlc int, extended bool) (n int, oversized bool) {
	if dlc <= classicPayloadLimit {
		return dlc, false
	}
	if extended {
		return extendedLengths[dlc-9], false
	}
	return classicPayloadLimit, true
}

// CRCLength returns the CRC sequence length in bits for the given layout
// and the payload size predicted by the length code.
func CRCLength(extended bool, dataBytes int) int {
	if !extended {
		return 15
	}
	if dataBytes <= 16 {
		return 17
	}
	return 21
}

// StuffPosition reports whether raw bit index r is a stuff position.
// The start-of-frame sync field is exempt.
func StuffPosition(r int) bool {
	return r > stuffExempt && r%stuffPeriod == stuffPeriod-1
}
