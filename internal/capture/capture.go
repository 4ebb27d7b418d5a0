// Package capture loads and stores raw logic captures. The on-disk
// format is one byte per sample with the bus line on bit 0, the common
// layout for single-channel logic analyzer exports.
package capture

import (
	"fmt"
	"os"

	"github.com/xuhaojie/pulseview-van-decoder/van"
)

// Load reads a capture file into a sample level slice.
func Load(path string) ([]van.Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("capture %s is empty", path)
	}
	levels := make([]van.Level, len(data))
	for i, b := range data {
		levels[i] = van.Level(b & 1)
	}
	return levels, nil
}

// Save writes a sample level slice as a capture file.
func Save(path string, levels []van.Level) error {
	data := make([]byte, len(levels))
	for i, l := range levels {
		data[i] = byte(l & 1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}
