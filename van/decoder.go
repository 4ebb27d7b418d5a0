package van

import (
	"fmt"

	"github.com/xuhaojie/pulseview-van-decoder/common"
)

// DecodeState represents the frame decoder's position within a frame.
type DecodeState int

const (
	StateAwaitSOF DecodeState = iota
	StateSOF
	StateIdentifier
	StateControl
	StateLength
	StateData
	StateCrcSequence
	StateCrcDelimiter
	StateAckSlot
	StateAckDelimiter
	StateEof
)

func (s DecodeState) String() string {
	switch s {
	case StateAwaitSOF:
		return "AWAIT_SOF"
	case StateSOF:
		return "SOF"
	case StateIdentifier:
		return "IDENTIFIER"
	case StateControl:
		return "CONTROL"
	case StateLength:
		return "LENGTH"
	case StateData:
		return "DATA"
	case StateCrcSequence:
		return "CRC_SEQUENCE"
	case StateCrcDelimiter:
		return "CRC_DELIMITER"
	case StateAckSlot:
		return "ACK_SLOT"
	case StateAckDelimiter:
		return "ACK_DELIMITER"
	case StateEof:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// frameLayout holds the per-frame field offsets in logical bit indices.
// Everything after the data field is computed relative to the last data
// bit because both the payload length and the CRC length are data
// dependent.
type frameLayout struct {
	extended  bool
	dlc       int
	dataBytes int
	oversized bool

	crcLen       int
	crcStart     int
	crcDelimiter int
	ackSlot      int
	ackDelimiter int
	eofStart     int
	eofEnd       int // logical index of the last EOF bit
}

func computeLayout(extended bool, dlc int) frameLayout {
	n, oversized := DataLength(dlc, extended)
	l := frameLayout{
		extended:  extended,
		dlc:       dlc,
		dataBytes: n,
		oversized: oversized,
		crcLen:    CRCLength(extended, n),
	}
	l.place(dataStartIndex + 8*n)
	return l
}

// place positions the CRC and every subsequent field from the first CRC
// bit's logical index. Called again when the end-of-data marker ends the
// data field early.
func (l *frameLayout) place(crcStart int) {
	l.crcStart = crcStart
	l.crcDelimiter = crcStart + l.crcLen
	l.ackSlot = l.crcDelimiter + crcDelimiterBits
	l.ackDelimiter = l.ackSlot + ackSlotBits
	l.eofStart = l.ackDelimiter + ackDelimiterBits
	l.eofEnd = l.eofStart + eofBits - 1
}

// accBit is one accumulated logical bit with the sample it was taken at.
type accBit struct {
	value  uint8
	sample uint64
}

// fieldAccumulator collects the logical bits of the field currently
// being decoded. Its lifetime is one field; it is cleared at every field
// boundary.
type fieldAccumulator struct {
	bits []accBit
}

func (a *fieldAccumulator) add(value uint8, sample uint64) {
	a.bits = append(a.bits, accBit{value: value, sample: sample})
}

func (a *fieldAccumulator) len() int {
	return len(a.bits)
}

// value interprets the accumulated bits as an unsigned integer, MSB
// first.
func (a *fieldAccumulator) value() uint64 {
	v := uint64(0)
	for _, b := range a.bits {
		v = v<<1 | uint64(b.value)
	}
	return v
}

func (a *fieldAccumulator) first() uint64 {
	return a.bits[0].sample
}

func (a *fieldAccumulator) last() uint64 {
	return a.bits[len(a.bits)-1].sample
}

func (a *fieldAccumulator) reset() {
	a.bits = a.bits[:0]
}

// frameContext is the per-frame mutable state. Exactly one is live at a
// time: created on SOF detection, destroyed when the frame reaches EOF
// or the decoder is reset.
type frameContext struct {
	layout       frameLayout
	startSample  uint64
	identifier   uint64
	control      [1 + controlBits]uint8 // format flag plus control bits
	extended     bool
	rateSwitched bool
	data         []byte
	truncated    bool
	crc          uint64
	acked        bool
	lastLogical  int // logical index of the most recent frame bit
}

// Frame is the reconstructed summary of one decoded frame.
type Frame struct {
	Identifier uint64 `cbor:"id"`
	Extended   bool   `cbor:"extended"`
	Control    uint8  `cbor:"control"` // the three control bits, MSB first
	DLC        int    `cbor:"dlc"`
	Data       []byte `cbor:"data"`
	Truncated  bool   `cbor:"truncated"` // data ended early at the EOD marker
	CRC        uint64 `cbor:"crc"`
	Acked      bool   `cbor:"acked"`
	Start      uint64 `cbor:"start"` // first sample of the frame
	End        uint64 `cbor:"end"`   // last sample of the frame
}

// RAK reports the request-acknowledge control bit of a classic frame.
func (f Frame) RAK() bool { return f.Control&4 != 0 }

// RW reports the read/write control bit of a classic frame.
func (f Frame) RW() bool { return f.Control&2 != 0 }

// RTR reports the remote-request control bit of a classic frame.
func (f Frame) RTR() bool { return f.Control&1 != 0 }

// BRS reports the bit-rate-switch control bit of an extended frame.
func (f Frame) BRS() bool { return f.Control&2 != 0 }

// ESI reports the error-state control bit of an extended frame.
func (f Frame) ESI() bool { return f.Control&1 != 0 }

// FrameDecoder is the field state machine. It consumes classified bits
// in logical order, recognizes field boundaries by exact bit-index
// arithmetic, extracts field values, runs the conformance checks and
// emits field spans, bit marks and warnings.
//
// All in-field conformance violations are non-fatal: they produce a
// warning event and decoding proceeds, since losing synchronization
// mid-frame is costlier than reporting a questionable frame.
type FrameDecoder struct {
	cfg   Config
	clock *SampleClock
	log   common.Logger

	state DecodeState
	acc   fieldAccumulator
	ctx   *frameContext

	events []common.Event
}

// NewFrameDecoder creates a decoder in the AwaitSOF state.
func NewFrameDecoder(cfg Config, clock *SampleClock, log common.Logger) *FrameDecoder {
	if log == nil {
		log = common.NewNoOpLogger()
	}
	return &FrameDecoder{
		cfg:   cfg,
		clock: clock,
		log:   log,
		state: StateAwaitSOF,
	}
}

// State returns the decoder's current state.
func (d *FrameDecoder) State() DecodeState {
	return d.state
}

// Reset destroys any live frame context and returns to AwaitSOF. Byte
// and bit buffers never carry across frame boundaries.
func (d *FrameDecoder) Reset() {
	d.state = StateAwaitSOF
	d.ctx = nil
	d.acc.reset()
}

// Process consumes one classified bit and returns the events it
// produced. When the bit completes a frame, the reconstructed Frame is
// returned as well and the decoder is back in the AwaitSOF state.
func (d *FrameDecoder) Process(bit ClassifiedBit) ([]common.Event, *Frame) {
	d.events = nil

	switch bit.Class {
	case BitClassStuff:
		d.markBit(common.BitStuff, bit.RawBit)
		return d.events, nil
	case BitClassEOD:
		d.markBit(common.BitEOD, bit.RawBit)
		if d.state == StateData {
			d.endDataEarly()
		}
		return d.events, nil
	}

	if d.state == StateAwaitSOF {
		// First bit of a new frame.
		left, _ := d.clock.Margins()
		d.ctx = &frameContext{startSample: clampSub(bit.Sample, left)}
		d.state = StateSOF
	}
	d.ctx.lastLogical = bit.LogicalIndex

	var frame *Frame
	switch d.state {
	case StateSOF:
		d.processSOF(bit)
	case StateIdentifier:
		d.processIdentifier(bit)
	case StateControl:
		d.processControl(bit)
	case StateLength:
		d.processLength(bit)
	case StateData:
		d.processData(bit)
	case StateCrcSequence:
		d.processCRC(bit)
	case StateCrcDelimiter:
		d.processCrcDelimiter(bit)
	case StateAckSlot:
		d.processAckSlot(bit)
	case StateAckDelimiter:
		d.processAckDelimiter(bit)
	case StateEof:
		frame = d.processEOF(bit)
	}
	return d.events, frame
}

func (d *FrameDecoder) processSOF(bit ClassifiedBit) {
	d.markBit(common.BitSOF, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if bit.LogicalIndex < sofBits-1 {
		return
	}

	value := d.acc.value()
	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldSOF, ss, es, value, 0, "Start of frame")
	if value != sofPattern {
		d.warn(ss, es, "SOF = 0x%03X, should be 0x%03X", value, uint64(sofPattern))
	}
	d.acc.reset()
	d.state = StateIdentifier
}

func (d *FrameDecoder) processIdentifier(bit ClassifiedBit) {
	d.markBit(common.BitID, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if bit.LogicalIndex < idStart+idBits-1 {
		return
	}

	id := d.acc.value()
	d.ctx.identifier = id
	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldIdentifier, ss, es, id, 0, fmt.Sprintf("%d (0x%X)", id, id))
	// The all-recessive upper identifier range is reserved.
	if id>>(idBits-4) == 0xF {
		d.warn(ss, es, "identifier 0x%X uses the reserved all-recessive upper bits", id)
	}
	d.acc.reset()
	d.state = StateControl
}

func (d *FrameDecoder) processControl(bit ClassifiedBit) {
	off := bit.LogicalIndex - formatBitIndex
	var kind common.BitKind
	switch off {
	case 0:
		kind = common.BitFormat
		d.ctx.extended = bit.Level == Recessive
	case 1:
		kind = common.BitRAK
		if d.ctx.extended {
			kind = common.BitReservedCtl
		}
	case 2:
		kind = common.BitRW
		if d.ctx.extended {
			kind = common.BitBRS
		}
	case 3:
		kind = common.BitRTR
		if d.ctx.extended {
			kind = common.BitESI
		}
	}
	d.markBit(kind, bit.RawBit)
	d.ctx.control[off] = uint8(bit.Level)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if off < controlBits {
		return
	}

	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldControl, ss, es, d.acc.value(), 0, d.controlLabel())

	// A recessive bit-rate-switch bit drops the clock to the configured
	// post-arbitration data rate until the CRC delimiter. The new rate
	// takes effect at the next raw bit's cell boundary.
	if d.ctx.extended && d.ctx.control[2] == uint8(Recessive) && d.cfg.DataBitrate > 0 {
		d.clock.SwitchBitRate(d.cfg.DataBitrate, bit.Index+1)
		d.ctx.rateSwitched = true
		d.log.Logf(common.SeverityInfo, "bit rate switched to %v bits/s", d.cfg.DataBitrate)
	}
	d.acc.reset()
	d.state = StateLength
}

func (d *FrameDecoder) controlLabel() string {
	c := d.ctx.control
	if d.ctx.extended {
		return fmt.Sprintf("EXT=1 BRS=%d ESI=%d", c[2], c[3])
	}
	return fmt.Sprintf("RAK=%d R/W=%d RTR=%d", c[1], c[2], c[3])
}

func (d *FrameDecoder) processLength(bit ClassifiedBit) {
	d.markBit(common.BitDLC, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if bit.LogicalIndex < dlcStart+dlcBits-1 {
		return
	}

	dlc := int(d.acc.value())
	d.ctx.layout = computeLayout(d.ctx.extended, dlc)
	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldLength, ss, es, uint64(dlc), 0,
		fmt.Sprintf("DLC=%d (%d bytes)", dlc, d.ctx.layout.dataBytes))
	if d.ctx.layout.oversized {
		d.warn(ss, es, "DLC %d exceeds the classic payload limit of %d bytes", dlc, classicPayloadLimit)
	}
	d.acc.reset()
	if d.ctx.layout.dataBytes > 0 {
		d.state = StateData
	} else {
		d.state = StateCrcSequence
	}
}

func (d *FrameDecoder) processData(bit ClassifiedBit) {
	d.markBit(common.BitData, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if d.acc.len() < 8 {
		return
	}

	b := uint8(d.acc.value())
	index := len(d.ctx.data)
	d.ctx.data = append(d.ctx.data, b)
	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldData, ss, es, uint64(b), index, fmt.Sprintf("Data[%d]=0x%02X", index, b))
	d.acc.reset()
	if len(d.ctx.data) == d.ctx.layout.dataBytes {
		d.state = StateCrcSequence
	}
}

// endDataEarly handles the end-of-data marker: data accumulation stops
// immediately and every remaining field is repositioned from the next
// logical bit, regardless of what the length code predicted.
func (d *FrameDecoder) endDataEarly() {
	if d.acc.len() > 0 {
		ss, es := d.span(d.acc.first(), d.acc.last())
		d.warn(ss, es, "data field truncated mid-byte by the end-of-data marker")
		d.acc.reset()
	}
	d.ctx.truncated = true
	d.ctx.layout.place(d.ctx.lastLogical + 1)
	d.log.Logf(common.SeverityDebug, "end of data after %d of %d bytes",
		len(d.ctx.data), d.ctx.layout.dataBytes)
	d.state = StateCrcSequence
}

func (d *FrameDecoder) processCRC(bit ClassifiedBit) {
	d.markBit(common.BitCRC, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if bit.LogicalIndex < d.ctx.layout.crcDelimiter-1 {
		return
	}

	// The CRC value is extracted and reported; it is not validated
	// against a polynomial.
	crc := d.acc.value()
	d.ctx.crc = crc
	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldCRC, ss, es, crc, 0, fmt.Sprintf("CRC=0x%04X", crc))
	d.acc.reset()
	d.state = StateCrcDelimiter
}

func (d *FrameDecoder) processCrcDelimiter(bit ClassifiedBit) {
	d.markBit(common.BitCRCDelimiter, bit.RawBit)
	ss, es := d.span(bit.Sample, bit.Sample)
	d.fieldSpan(common.FieldCRCDelimiter, ss, es, uint64(bit.Level), 0, "CRC delimiter")
	if bit.Level != Recessive {
		d.warn(ss, es, "CRC delimiter must be a recessive bit")
	}
	if d.ctx.rateSwitched {
		d.clock.SwitchBitRate(d.cfg.NominalBitrate, bit.Index+1)
		d.ctx.rateSwitched = false
	}
	d.state = StateAckSlot
}

func (d *FrameDecoder) processAckSlot(bit ClassifiedBit) {
	d.markBit(common.BitAck, bit.RawBit)
	d.ctx.acked = bit.Level == Dominant
	label := "NAK"
	if d.ctx.acked {
		label = "ACK"
	}
	ss, es := d.span(bit.Sample, bit.Sample)
	d.fieldSpan(common.FieldAckSlot, ss, es, uint64(bit.Level), 0, label)
	if !d.ctx.acked {
		d.warn(ss, es, "frame not acknowledged")
	}
	d.state = StateAckDelimiter
}

func (d *FrameDecoder) processAckDelimiter(bit ClassifiedBit) {
	d.markBit(common.BitAckDelimiter, bit.RawBit)
	ss, es := d.span(bit.Sample, bit.Sample)
	d.fieldSpan(common.FieldAckDelimiter, ss, es, uint64(bit.Level), 0, "ACK delimiter")
	if bit.Level != Recessive {
		d.warn(ss, es, "ACK delimiter must be a recessive bit")
	}
	d.acc.reset()
	d.state = StateEof
}

func (d *FrameDecoder) processEOF(bit ClassifiedBit) *Frame {
	d.markBit(common.BitEOF, bit.RawBit)
	d.acc.add(uint8(bit.Level), bit.Sample)
	if bit.Level != Recessive {
		ss, es := d.span(bit.Sample, bit.Sample)
		d.warn(ss, es, "end of frame must be recessive")
	}
	if bit.LogicalIndex < d.ctx.layout.eofEnd {
		return nil
	}

	ss, es := d.span(d.acc.first(), d.acc.last())
	d.fieldSpan(common.FieldEOF, ss, es, d.acc.value(), 0, "End of frame")

	frame := &Frame{
		Identifier: d.ctx.identifier,
		Extended:   d.ctx.extended,
		Control: d.ctx.control[1]<<2 |
			d.ctx.control[2]<<1 |
			d.ctx.control[3],
		DLC:       d.ctx.layout.dlc,
		Data:      append([]byte(nil), d.ctx.data...),
		Truncated: d.ctx.truncated,
		CRC:       d.ctx.crc,
		Acked:     d.ctx.acked,
		Start:     d.ctx.startSample,
		End:       es,
	}
	d.log.Logf(common.SeverityInfo, "frame id=0x%X dlc=%d bytes=%d acked=%v",
		frame.Identifier, frame.DLC, len(frame.Data), frame.Acked)
	d.Reset()
	return frame
}

// span applies the annotation margins around a sample range.
func (d *FrameDecoder) span(ss, es uint64) (uint64, uint64) {
	left, right := d.clock.Margins()
	return clampSub(ss, left), es + right
}

func (d *FrameDecoder) markBit(kind common.BitKind, rb RawBit) {
	ss, es := d.span(rb.Sample, rb.Sample)
	d.events = append(d.events, common.Event{
		Type:  common.EventBitMark,
		Start: ss,
		End:   es,
		Bit:   kind,
		Value: uint64(rb.Level),
	})
}

func (d *FrameDecoder) fieldSpan(kind common.FieldKind, ss, es, value uint64, index int, label string) {
	d.events = append(d.events, common.Event{
		Type:  common.EventFieldSpan,
		Start: ss,
		End:   es,
		Field: kind,
		Value: value,
		Index: index,
		Label: label,
	})
}

func (d *FrameDecoder) warn(ss, es uint64, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.events = append(d.events, common.Event{
		Type:    common.EventWarning,
		Start:   ss,
		End:     es,
		Message: msg,
	})
	d.log.Warning(msg)
}

func clampSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
