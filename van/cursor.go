package van

// WaitStatus reports which of the two wake conditions ended an
// AdvanceTo call. Both may be set when a dominant-going edge lands
// exactly on the requested sample.
type WaitStatus struct {
	TargetReached bool
	EdgeSeen      bool
}

// SampleCursor is the host-provided sample source. The decoder pulls
// synchronously against it; the cursor is the system's only blocking
// point. Implementations must report samples in strictly increasing
// index order.
type SampleCursor interface {
	// Index returns the current sample index.
	Index() uint64

	// Level returns the logic level of the current sample.
	Level() Level

	// SeekDominant advances to the next sample with a dominant level,
	// including the current one. It returns false when the stream ends
	// before a dominant sample is found.
	SeekDominant() bool

	// AdvanceTo advances toward the target sample index, stopping early
	// at a dominant-going edge. It returns false when the stream ends
	// before either condition is met.
	AdvanceTo(target uint64) (WaitStatus, bool)
}

// MemoryCursor is a SampleCursor over an in-memory sample buffer.
type MemoryCursor struct {
	levels []Level
	pos    int
}

// NewMemoryCursor creates a cursor positioned at the first sample.
func NewMemoryCursor(levels []Level) *MemoryCursor {
	return &MemoryCursor{levels: levels}
}

// Index returns the current sample index.
func (c *MemoryCursor) Index() uint64 {
	return uint64(c.pos)
}

// Level returns the logic level of the current sample.
func (c *MemoryCursor) Level() Level {
	if c.pos >= len(c.levels) {
		return Recessive
	}
	return c.levels[c.pos]
}

// SeekDominant advances to the next dominant sample.
func (c *MemoryCursor) SeekDominant() bool {
	for c.pos < len(c.levels) {
		if c.levels[c.pos] == Dominant {
			return true
		}
		c.pos++
	}
	return false
}

// AdvanceTo advances toward target, stopping early at a dominant-going
// edge.
func (c *MemoryCursor) AdvanceTo(target uint64) (WaitStatus, bool) {
	if uint64(c.pos) >= target {
		if c.pos >= len(c.levels) {
			return WaitStatus{}, false
		}
		return WaitStatus{TargetReached: true}, true
	}
	for uint64(c.pos) < target {
		if c.pos+1 >= len(c.levels) {
			return WaitStatus{}, false
		}
		prev := c.levels[c.pos]
		c.pos++
		curr := c.levels[c.pos]

		status := WaitStatus{
			TargetReached: uint64(c.pos) == target,
			EdgeSeen:      prev == Recessive && curr == Dominant,
		}
		if status.TargetReached || status.EdgeSeen {
			return status, true
		}
	}
	return WaitStatus{TargetReached: true}, true
}
