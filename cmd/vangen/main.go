// Command vangen writes a synthetic VAN capture file: one or more
// well-formed frames rendered at a given sample rate, for exercising
// vandump and the decoder tests against known input.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/xuhaojie/pulseview-van-decoder/internal/capture"
	"github.com/xuhaojie/pulseview-van-decoder/internal/synth"
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

func main() {
	outPath := flag.String("out", "capture.bin", "Output capture file")
	id := flag.Uint64("id", 0x123, "Frame identifier")
	dataHex := flag.String("data", "", "Payload bytes as hex")
	extended := flag.Bool("extended", false, "Use the flexible-data layout")
	crc := flag.Uint64("crc", 0x2A5C, "CRC field value")
	count := flag.Int("count", 1, "Number of frames")
	sampleRate := flag.Float64("samplerate", 4_000_000, "Sampling rate (samples/s)")
	bitrate := flag.Float64("bitrate", van.DefaultNominalBitrate, "Nominal bitrate (bits/s)")
	gap := flag.Int("gap", 256, "Idle samples between frames")

	flag.Parse()

	payload, err := hex.DecodeString(*dataHex)
	if err != nil {
		fmt.Printf("Error: bad -data value: %v\n", err)
		os.Exit(1)
	}
	if len(payload) > 8 {
		fmt.Printf("Error: payload of %d bytes exceeds the classic limit of 8\n", len(payload))
		os.Exit(1)
	}

	spec := synth.FrameFor(*id, payload)
	spec.Extended = *extended
	spec.CRC = *crc

	bitWidth := *sampleRate / *bitrate
	var levels []van.Level
	for i := 0; i < *count; i++ {
		levels = append(levels, synth.FrameSamples(spec, bitWidth, *gap, *gap)...)
	}

	if err := capture.Save(*outPath, levels); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d samples (%d frames) to %s\n", len(levels), *count, *outPath)
}
