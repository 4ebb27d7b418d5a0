package van

import (
	"github.com/xuhaojie/pulseview-van-decoder/common"
)

// EventSink receives decode events in sample order, one per occurrence.
type EventSink interface {
	Emit(common.Event) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(common.Event) error

// Emit calls f(ev).
func (f EventSinkFunc) Emit(ev common.Event) error {
	return f(ev)
}

// Processor wires the sample clock, bit sampler, de-stuffing filter and
// frame decoder into a single pull loop over a sample cursor. It owns
// the reset signal: when the decoder completes or abandons a frame, the
// sampler and filter are rewound so the next frame starts from a fresh
// idle→dominant transition.
type Processor struct {
	cfg     Config
	clock   *SampleClock
	sampler *BitSampler
	filter  *DestuffingFilter
	decoder *FrameDecoder
	log     common.Logger

	frames []Frame
}

// NewProcessor creates a processor for the given configuration and
// sample source. The configuration must carry a sample rate; that is
// the one fatal error and decoding never starts without it.
func NewProcessor(cfg Config, cursor SampleCursor) (*Processor, error) {
	return NewProcessorWithLogger(cfg, cursor, common.NewNoOpLogger())
}

// NewProcessorWithLogger creates a processor with a custom logger.
func NewProcessorWithLogger(cfg Config, cursor SampleCursor, log common.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = common.NewNoOpLogger()
	}
	clock := NewSampleClock(cfg.SampleRate, cfg.NominalBitrate, cfg.SamplePointPercent)
	return &Processor{
		cfg:     cfg,
		clock:   clock,
		sampler: NewBitSampler(clock, cursor, log),
		filter:  NewDestuffingFilter(),
		decoder: NewFrameDecoder(cfg, clock, log),
		log:     log,
	}, nil
}

// Run pulls samples until the stream is exhausted, emitting every decode
// event to the sink. A sink error stops decoding and is returned.
func (p *Processor) Run(sink EventSink) error {
	for {
		raw, ok := p.sampler.NextBit()
		if !ok {
			p.log.Debug("sample stream exhausted")
			return nil
		}
		events, frame := p.decoder.Process(p.filter.Classify(raw))
		for _, ev := range events {
			if err := sink.Emit(ev); err != nil {
				return err
			}
		}
		if frame != nil {
			p.frames = append(p.frames, *frame)
			p.resetFrame()
		}
	}
}

// DecodeAll runs the processor to the end of the stream and returns the
// collected events.
func (p *Processor) DecodeAll() ([]common.Event, error) {
	var events []common.Event
	err := p.Run(EventSinkFunc(func(ev common.Event) error {
		events = append(events, ev)
		return nil
	}))
	return events, err
}

// Frames returns the frame summaries reconstructed so far.
func (p *Processor) Frames() []Frame {
	return p.frames
}

// State returns the frame decoder's current state.
func (p *Processor) State() DecodeState {
	return p.decoder.State()
}

// resetFrame rewinds the per-frame pipeline state after a completed
// frame; the decoder resets itself on EOF.
func (p *Processor) resetFrame() {
	p.sampler.Reset()
	p.filter.Reset()
	p.clock.SetBitRate(p.cfg.NominalBitrate)
}
