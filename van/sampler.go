package van

import (
	"github.com/xuhaojie/pulseview-van-decoder/common"
)

type samplerState int

const (
	samplerIdle samplerState = iota // waiting for the idle→active transition
	samplerSync                     // sampling bits at predicted sample points
)

// BitSampler drives the wait/advance protocol against the sample cursor.
// In the idle state it blocks until the bus leaves the recessive idle
// level; that first dominant sample forces a resync. While synchronized
// it asks the clock for the next bit's sample point and waits for either
// that sample or an earlier dominant-going edge. Edges re-anchor the
// clock but do not advance bit sampling; only reaching the sample point
// emits a bit.
type BitSampler struct {
	clock  *SampleClock
	cursor SampleCursor
	log    common.Logger

	state    samplerState
	bitIndex int // next raw bit to sample
}

// NewBitSampler creates a sampler pulling from cursor with timing from
// clock.
func NewBitSampler(clock *SampleClock, cursor SampleCursor, log common.Logger) *BitSampler {
	if log == nil {
		log = common.NewNoOpLogger()
	}
	return &BitSampler{
		clock:  clock,
		cursor: cursor,
		log:    log,
	}
}

// NextBit blocks until the next raw bit has been sampled. It returns
// false when the sample stream is exhausted.
func (s *BitSampler) NextBit() (RawBit, bool) {
	if s.state == samplerIdle {
		if !s.cursor.SeekDominant() {
			return RawBit{}, false
		}
		// Forced resync on the idle→dominant transition.
		s.clock.RecordEdge(s.cursor.Index(), s.bitIndex)
		s.state = samplerSync
		s.log.Logf(common.SeverityDebug, "bus active at sample %d", s.cursor.Index())
	}

	for {
		pos := s.clock.SamplePointFor(s.bitIndex)
		status, ok := s.cursor.AdvanceTo(pos)
		if !ok {
			return RawBit{}, false
		}
		if status.EdgeSeen {
			// Soft resync; the edge recalibrates timing even when it is
			// not itself a bit boundary. Only the most recent edge is
			// kept.
			s.clock.RecordEdge(s.cursor.Index(), s.bitIndex)
		}
		if status.TargetReached {
			bit := RawBit{
				Level:  s.cursor.Level(),
				Index:  s.bitIndex,
				Sample: s.cursor.Index(),
			}
			s.bitIndex++
			return bit, true
		}
	}
}

// BitIndex returns the raw index of the next bit to be sampled.
func (s *BitSampler) BitIndex() int {
	return s.bitIndex
}

// Reset returns the sampler to the idle state with the bit index cleared,
// ready for the next frame's idle→dominant transition.
func (s *BitSampler) Reset() {
	s.state = samplerIdle
	s.bitIndex = 0
}
