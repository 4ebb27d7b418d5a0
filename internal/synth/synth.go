// Package synth builds deterministic synthetic VAN waveforms: a frame
// description is rendered to logical bits, stuff bits are inserted at
// the canonical cadence, and the raw bit sequence is expanded into a
// logic-level sample stream. Used by the decoder tests and the capture
// generator.
package synth

import (
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

// FrameSpec describes one frame to synthesize. Field values are taken
// as-is, so malformed frames (bad SOF, dominant delimiters, missing
// acknowledge) can be produced deliberately.
type FrameSpec struct {
	SOF          uint64
	Identifier   uint64
	Extended     bool
	Control      [3]uint8 // RAK/RW/RTR (classic) or res/BRS/ESI (extended)
	DLC          int
	Data         []byte
	CRC          uint64
	CRCDelimiter van.Level
	Ack          van.Level
	AckDelimiter van.Level
}

// DefaultFrame returns a well-formed empty frame: correct SOF pattern,
// recessive delimiters and a dominant (acknowledged) ACK slot.
func DefaultFrame() FrameSpec {
	return FrameSpec{
		SOF:          van.SOFPattern,
		Identifier:   0x123,
		CRC:          0x2A5C,
		CRCDelimiter: van.Recessive,
		Ack:          van.Dominant,
		AckDelimiter: van.Recessive,
	}
}

// FrameFor returns a well-formed classic frame carrying the given
// identifier and payload. The payload must fit the classic layout.
func FrameFor(id uint64, data []byte) FrameSpec {
	spec := DefaultFrame()
	spec.Identifier = id
	spec.DLC = len(data)
	spec.Data = append([]byte(nil), data...)
	return spec
}

// LogicalBits renders the frame's logical bit sequence, MSB first per
// field, without stuff bits.
func LogicalBits(spec FrameSpec) []van.Level {
	var bits []van.Level
	bits = appendValue(bits, spec.SOF, 10)
	bits = appendValue(bits, spec.Identifier, 14)
	if spec.Extended {
		bits = append(bits, van.Recessive)
	} else {
		bits = append(bits, van.Dominant)
	}
	for _, c := range spec.Control {
		bits = appendValue(bits, uint64(c), 1)
	}
	bits = appendValue(bits, uint64(spec.DLC), 4)
	for _, b := range spec.Data {
		bits = appendValue(bits, uint64(b), 8)
	}
	predicted, _ := van.DataLength(spec.DLC, spec.Extended)
	bits = appendValue(bits, spec.CRC, van.CRCLength(spec.Extended, predicted))
	bits = append(bits, spec.CRCDelimiter, spec.Ack, spec.AckDelimiter)
	for i := 0; i < 7; i++ {
		bits = append(bits, van.Recessive)
	}
	return bits
}

// StuffBits inserts a complementary stuff bit at every stuff position.
// A complementary stuff bit never forms the end-of-data raw pattern.
func StuffBits(logical []van.Level) []van.Level {
	raw := make([]van.Level, 0, len(logical)+len(logical)/(5-1)+1)
	i := 0
	for i < len(logical) {
		r := len(raw)
		if van.StuffPosition(r) {
			raw = append(raw, opposite(raw[r-1]))
			continue
		}
		raw = append(raw, logical[i])
		i++
	}
	return raw
}

// Samples expands a raw bit sequence into a sample stream: leadIn idle
// samples, each bit held for bitWidth samples, then tail idle samples.
// Fractional bit widths accumulate so the stream tracks a real bit rate
// that does not divide the sample rate.
func Samples(raw []van.Level, bitWidth float64, leadIn, tail int) []van.Level {
	samples := make([]van.Level, 0, leadIn+tail+int(float64(len(raw))*bitWidth)+1)
	for i := 0; i < leadIn; i++ {
		samples = append(samples, van.Recessive)
	}
	for i, bit := range raw {
		end := leadIn + int(float64(i+1)*bitWidth)
		for len(samples) < end {
			samples = append(samples, bit)
		}
	}
	for i := 0; i < tail; i++ {
		samples = append(samples, van.Recessive)
	}
	return samples
}

// FrameSamples renders a complete frame into a sample stream.
func FrameSamples(spec FrameSpec, bitWidth float64, leadIn, tail int) []van.Level {
	return Samples(StuffBits(LogicalBits(spec)), bitWidth, leadIn, tail)
}

// RateSwitchSamples renders a frame whose post-arbitration phase runs
// at a second bit width: every raw bit after the last control bit up to
// and including the CRC delimiter is held for dataWidth samples, the
// rest for bitWidth.
func RateSwitchSamples(spec FrameSpec, bitWidth, dataWidth float64, leadIn, tail int) []van.Level {
	raw := StuffBits(LogicalBits(spec))

	// SOF(10) + ID(14) + format(1) + control(3) put the last control bit
	// at logical 27; the CRC delimiter follows the data and CRC fields.
	n, _ := van.DataLength(spec.DLC, spec.Extended)
	crcDelimiter := 32 + 8*n + van.CRCLength(spec.Extended, n)
	fastFirst := rawIndexOf(27) + 1
	fastLast := rawIndexOf(crcDelimiter)

	samples := make([]van.Level, 0, leadIn+tail+int(float64(len(raw))*bitWidth)+1)
	for i := 0; i < leadIn; i++ {
		samples = append(samples, van.Recessive)
	}
	pos := float64(leadIn)
	for i, bit := range raw {
		if i >= fastFirst && i <= fastLast {
			pos += dataWidth
		} else {
			pos += bitWidth
		}
		for len(samples) < int(pos) {
			samples = append(samples, bit)
		}
	}
	for i := 0; i < tail; i++ {
		samples = append(samples, van.Recessive)
	}
	return samples
}

// rawIndexOf maps a logical bit index to its raw stream index under the
// canonical stuffing cadence.
func rawIndexOf(logical int) int {
	raw, l := 0, 0
	for {
		if !van.StuffPosition(raw) {
			if l == logical {
				return raw
			}
			l++
		}
		raw++
	}
}

func appendValue(dst []van.Level, value uint64, bits int) []van.Level {
	for i := bits - 1; i >= 0; i-- {
		if value>>uint(i)&1 == 1 {
			dst = append(dst, van.Recessive)
		} else {
			dst = append(dst, van.Dominant)
		}
	}
	return dst
}

func opposite(l van.Level) van.Level {
	if l == van.Dominant {
		return van.Recessive
	}
	return van.Dominant
}
