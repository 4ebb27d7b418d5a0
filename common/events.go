package common

import "fmt"

// EventType represents the type of decode event
type EventType int

const (
	EventUnknown   EventType = iota
	EventFieldSpan           // A complete frame field over a sample range
	EventBitMark             // A single sampled bit
	EventWarning             // A protocol conformance violation
)

func (t EventType) String() string {
	switch t {
	case EventFieldSpan:
		return "FIELD"
	case EventBitMark:
		return "BIT"
	case EventWarning:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// FieldKind identifies which frame field a FieldSpan event covers.
type FieldKind int

const (
	FieldUnknown FieldKind = iota
	FieldSOF               // Start of frame sync field
	FieldIdentifier        // Frame identifier
	FieldControl           // Format flag plus control bits
	FieldLength            // Data length code
	FieldData              // One payload byte
	FieldCRC               // CRC sequence
	FieldCRCDelimiter      // CRC delimiter bit
	FieldAckSlot           // Acknowledge slot bit
	FieldAckDelimiter      // Acknowledge delimiter bit
	FieldEOF               // End of frame run
)

func (k FieldKind) String() string {
	switch k {
	case FieldSOF:
		return "SOF"
	case FieldIdentifier:
		return "ID"
	case FieldControl:
		return "CONTROL"
	case FieldLength:
		return "DLC"
	case FieldData:
		return "DATA"
	case FieldCRC:
		return "CRC"
	case FieldCRCDelimiter:
		return "CRC_DELIM"
	case FieldAckSlot:
		return "ACK"
	case FieldAckDelimiter:
		return "ACK_DELIM"
	case FieldEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// BitKind classifies a single sampled bit for BitMark events.
// Stuff and EOD bits carry a raw-only classification; all other kinds
// follow the frame field the bit belongs to.
type BitKind int

const (
	BitUnknown BitKind = iota
	BitSOF
	BitID
	BitFormat
	BitRAK
	BitRW
	BitRTR
	BitReservedCtl
	BitBRS
	BitESI
	BitDLC
	BitData
	BitCRC
	BitCRCDelimiter
	BitAck
	BitAckDelimiter
	BitEOF
	BitStuff
	BitEOD
)

func (k BitKind) String() string {
	switch k {
	case BitSOF:
		return "sof-bit"
	case BitID:
		return "id-bit"
	case BitFormat:
		return "format-bit"
	case BitRAK:
		return "rak-bit"
	case BitRW:
		return "rw-bit"
	case BitRTR:
		return "rtr-bit"
	case BitReservedCtl:
		return "res-bit"
	case BitBRS:
		return "brs-bit"
	case BitESI:
		return "esi-bit"
	case BitDLC:
		return "dlc-bit"
	case BitData:
		return "data-bit"
	case BitCRC:
		return "crc-bit"
	case BitCRCDelimiter:
		return "crc-delimiter-bit"
	case BitAck:
		return "ack-bit"
	case BitAckDelimiter:
		return "ack-delimiter-bit"
	case BitEOF:
		return "eof-bit"
	case BitStuff:
		return "stuff-bit"
	case BitEOD:
		return "eod-bit"
	default:
		return "unknown-bit"
	}
}

// Event represents a decoded annotation over a sample range.
// This is the output of the frame decoder - field spans, per-bit marks
// and human-readable warnings, emitted in non-decreasing sample order.
type Event struct {
	Type EventType `cbor:"type"`

	// Sample range covered, margins already applied so the annotation is
	// centered on the physical bit cells.
	Start uint64 `cbor:"start"`
	End   uint64 `cbor:"end"`

	// Field kind and value (for EventFieldSpan)
	Field FieldKind `cbor:"field,omitempty"`
	Value uint64    `cbor:"value,omitempty"`
	Index int       `cbor:"index,omitempty"` // payload byte index for FieldData

	// Bit classification and value (for EventBitMark)
	Bit BitKind `cbor:"bit,omitempty"`

	// Warning text (for EventWarning)
	Message string `cbor:"message,omitempty"`

	// Label carries the preformatted display text for field spans.
	Label string `cbor:"label,omitempty"`
}

// Description returns a human-readable description of the event
func (e Event) Description() string {
	switch e.Type {
	case EventFieldSpan:
		if e.Label != "" {
			return fmt.Sprintf("%s: %s", e.Field, e.Label)
		}
		return e.Field.String()

	case EventBitMark:
		return fmt.Sprintf("%s=%d", e.Bit, e.Value)

	case EventWarning:
		return e.Message

	default:
		return "UNKNOWN_EVENT"
	}
}
