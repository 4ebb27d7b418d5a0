package van

// SampleClock predicts the sample index of future bit sample points.
// The bus is self-clocking and not isochronous relative to the sampling
// clock, so every dominant-going edge re-anchors the prediction; drift
// then accumulates over at most one bit period instead of a whole frame.
type SampleClock struct {
	sampleRate  float64
	bitWidth    float64 // samples per bit
	samplePoint float64 // sample point offset within a bit, in samples

	samplePointPercent float64

	edgeSample uint64 // sample index of the last resynchronizing edge
	edgeBit    int    // bit index current at that edge
}

// NewSampleClock creates a clock for the given sampling rate, bit rate
// and sample point percentage.
func NewSampleClock(sampleRate, bitrate, samplePointPercent float64) *SampleClock {
	c := &SampleClock{
		sampleRate:         sampleRate,
		samplePointPercent: samplePointPercent,
	}
	c.SetBitRate(bitrate)
	return c
}

// SetBitRate recomputes the bit width and sample point offset for a new
// bit rate. It does not move the anchor; use SwitchBitRate for a
// mid-frame rate change.
func (c *SampleClock) SetBitRate(bitrate float64) {
	c.bitWidth = c.sampleRate / bitrate
	c.samplePoint = c.bitWidth / 100.0 * c.samplePointPercent
}

// SwitchBitRate changes the bit rate effective from the given bit. The
// prediction is re-anchored at that bit's cell boundary first, so the
// bits already elapsed since the last edge keep their old width.
func (c *SampleClock) SwitchBitRate(bitrate float64, bit int) {
	start := float64(c.edgeSample) + c.bitWidth*float64(bit-c.edgeBit)
	c.edgeSample = uint64(start)
	c.edgeBit = bit
	c.SetBitRate(bitrate)
}

// RecordEdge stores an observed resynchronization point: the dominant
// edge at sample index sample, while bit index bit was being awaited.
func (c *SampleClock) RecordEdge(sample uint64, bit int) {
	c.edgeSample = sample
	c.edgeBit = bit
}

// SamplePointFor returns the expected sample index of the sample point
// of the given bit, truncated to an integer sample index.
func (c *SampleClock) SamplePointFor(bit int) uint64 {
	pos := float64(c.edgeSample)
	pos += c.bitWidth * float64(bit-c.edgeBit)
	pos += c.samplePoint
	return uint64(pos)
}

// BitWidth returns the current bit width in samples.
func (c *SampleClock) BitWidth() float64 {
	return c.bitWidth
}

// Margins returns the left and right annotation margins around a bit's
// sample point. They keep a bit mark centered on the physical bit cell
// regardless of the sample point placement.
func (c *SampleClock) Margins() (left, right uint64) {
	return uint64(c.samplePoint), uint64(c.bitWidth - c.samplePoint)
}
