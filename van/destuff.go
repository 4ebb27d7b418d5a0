package van

// DestuffingFilter classifies each raw sampled bit as a stuff bit or a
// logical frame bit. Stuff positions follow a periodic rule with the
// start-of-frame sync field exempt. At every stuff position the filter
// also inspects the last five raw bits: a window whose low two bits are
// both zero is the in-band end-of-data marker rather than an ordinary
// stuff bit.
type DestuffingFilter struct {
	window       uint32 // last raw bit levels, LSB = most recent
	logicalIndex int
}

// NewDestuffingFilter creates a filter with no bits observed yet.
func NewDestuffingFilter() *DestuffingFilter {
	return &DestuffingFilter{}
}

// Classify consumes one raw bit and returns it tagged as a logical,
// stuff or end-of-data bit. Logical bits carry a strictly increasing
// logical index; stuff bits consume a raw index but not a logical one.
func (f *DestuffingFilter) Classify(rb RawBit) ClassifiedBit {
	f.window = f.window<<1 | uint32(rb.Level&1)

	cb := ClassifiedBit{RawBit: rb}
	if StuffPosition(rb.Index) {
		if f.window&3 == 0 {
			cb.Class = BitClassEOD
		} else {
			cb.Class = BitClassStuff
		}
		return cb
	}

	cb.Class = BitClassLogical
	cb.LogicalIndex = f.logicalIndex
	f.logicalIndex++
	return cb
}

// LogicalIndex returns the logical index the next frame bit will get.
func (f *DestuffingFilter) LogicalIndex() int {
	return f.logicalIndex
}

// Reset clears the raw-bit window and the logical bit counter.
func (f *DestuffingFilter) Reset() {
	f.window = 0
	f.logicalIndex = 0
}
