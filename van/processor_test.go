package van_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xuhaojie/pulseview-van-decoder/common"
	"github.com/xuhaojie/pulseview-van-decoder/internal/synth"
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

func TestProcessorEndToEnd(t *testing.T) {
	samples := synth.FrameSamples(synth.FrameFor(0x123, []byte{0x5A}), 32, 200, 200)

	p, err := van.NewProcessor(testConfig(), van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	events, err := p.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	if msgs := warningsOf(events); len(msgs) != 0 {
		t.Errorf("unexpected warnings: %v", msgs)
	}
	want := map[common.FieldKind]int{
		common.FieldSOF:          1,
		common.FieldIdentifier:   1,
		common.FieldControl:      1,
		common.FieldLength:       1,
		common.FieldData:         1,
		common.FieldCRC:          1,
		common.FieldCRCDelimiter: 1,
		common.FieldAckSlot:      1,
		common.FieldAckDelimiter: 1,
		common.FieldEOF:          1,
	}
	if diff := cmp.Diff(want, fieldCounts(events)); diff != "" {
		t.Errorf("field spans mismatch (-want +got):\n%s", diff)
	}

	frames := p.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Identifier != 0x123 || !f.Acked {
		t.Errorf("frame = id 0x%X acked %v, want 0x123 true", f.Identifier, f.Acked)
	}
	if diff := cmp.Diff([]byte{0x5A}, f.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
	if p.State() != van.StateAwaitSOF {
		t.Errorf("final state = %v, want %v", p.State(), van.StateAwaitSOF)
	}
}

func TestProcessorBitMarksOrdered(t *testing.T) {
	samples := synth.FrameSamples(synth.FrameFor(0x2A5, []byte{0x11, 0x22}), 32, 150, 100)
	p, err := van.NewProcessor(testConfig(), van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	events, err := p.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	prev := uint64(0)
	for _, ev := range events {
		if ev.Type != common.EventBitMark {
			continue
		}
		if ev.Start < prev {
			t.Fatalf("bit mark at %d..%d starts before previous mark at %d", ev.Start, ev.End, prev)
		}
		prev = ev.Start
	}
}

func TestProcessorMultipleFrames(t *testing.T) {
	first := synth.FrameSamples(synth.FrameFor(0x111, nil), 32, 200, 200)
	second := synth.FrameSamples(synth.FrameFor(0x222, []byte{0xFF}), 32, 100, 200)
	samples := append(append([]van.Level{}, first...), second...)

	p, err := van.NewProcessor(testConfig(), van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	events, err := p.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if msgs := warningsOf(events); len(msgs) != 0 {
		t.Errorf("unexpected warnings: %v", msgs)
	}

	frames := p.Frames()
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Identifier != 0x111 || frames[1].Identifier != 0x222 {
		t.Errorf("identifiers = 0x%X, 0x%X, want 0x111, 0x222",
			frames[0].Identifier, frames[1].Identifier)
	}
	if diff := cmp.Diff([]byte{0xFF}, frames[1].Data); diff != "" {
		t.Errorf("second frame data mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessorDriftedStream(t *testing.T) {
	// Rendered at ~124.6 kbit/s against a 125 kbit/s configuration.
	samples := synth.FrameSamples(synth.FrameFor(0x0F0, []byte{0xC3}), 32.1, 200, 200)

	p, err := van.NewProcessor(testConfig(), van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	events, err := p.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if msgs := warningsOf(events); len(msgs) != 0 {
		t.Errorf("unexpected warnings: %v", msgs)
	}
	frames := p.Frames()
	if len(frames) != 1 || frames[0].Identifier != 0x0F0 {
		t.Fatalf("frames = %+v, want one frame with id 0x0F0", frames)
	}
}

func TestProcessorRateSwitchedStream(t *testing.T) {
	// The data, CRC and delimiter cells of this waveform are rendered at
	// 16 samples per bit against a 32-sample nominal width, so decoding
	// only succeeds when the clock rebases at both rate changes.
	cfg := testConfig()
	cfg.DataBitrate = 250_000

	spec := synth.DefaultFrame()
	spec.Extended = true
	spec.Control = [3]uint8{0, 1, 0} // bit-rate switch requested
	spec.DLC = 1
	spec.Data = []byte{0x7F}
	spec.CRC = 0x0BEEF

	samples := synth.RateSwitchSamples(spec, 32, 16, 200, 200)
	p, err := van.NewProcessor(cfg, van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	events, err := p.DecodeAll()
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}

	if msgs := warningsOf(events); len(msgs) != 0 {
		t.Errorf("unexpected warnings: %v", msgs)
	}
	frames := p.Frames()
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if !f.Extended || !f.BRS() {
		t.Errorf("Extended = %v BRS = %v, want true true", f.Extended, f.BRS())
	}
	if diff := cmp.Diff([]byte{0x7F}, f.Data); diff != "" {
		t.Errorf("Data mismatch (-want +got):\n%s", diff)
	}
	if f.CRC != 0x0BEEF {
		t.Errorf("CRC = 0x%X, want 0xBEEF", f.CRC)
	}
	if !f.Acked {
		t.Error("Acked = false, want true")
	}
}

func TestProcessorRequiresSampleRate(t *testing.T) {
	_, err := van.NewProcessor(van.DefaultConfig(), van.NewMemoryCursor(nil))
	if !errors.Is(err, van.ErrNoSampleRate) {
		t.Errorf("NewProcessor without samplerate = %v, want ErrNoSampleRate", err)
	}
}

func TestProcessorSinkError(t *testing.T) {
	samples := synth.FrameSamples(synth.FrameFor(0x123, nil), 32, 100, 100)
	p, err := van.NewProcessor(testConfig(), van.NewMemoryCursor(samples))
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	sinkErr := fmt.Errorf("sink full")
	err = p.Run(van.EventSinkFunc(func(common.Event) error { return sinkErr }))
	if !errors.Is(err, sinkErr) {
		t.Errorf("Run with failing sink = %v, want %v", err, sinkErr)
	}
}
