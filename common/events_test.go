package common

import (
	"testing"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventFieldSpan, "FIELD"},
		{EventBitMark, "BIT"},
		{EventWarning, "WARNING"},
		{EventUnknown, "UNKNOWN"},
		{EventType(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}

func TestFieldKind_String(t *testing.T) {
	tests := []struct {
		kind FieldKind
		want string
	}{
		{FieldSOF, "SOF"},
		{FieldIdentifier, "ID"},
		{FieldControl, "CONTROL"},
		{FieldLength, "DLC"},
		{FieldData, "DATA"},
		{FieldCRC, "CRC"},
		{FieldCRCDelimiter, "CRC_DELIM"},
		{FieldAckSlot, "ACK"},
		{FieldAckDelimiter, "ACK_DELIM"},
		{FieldEOF, "EOF"},
		{FieldUnknown, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestBitKind_String(t *testing.T) {
	tests := []struct {
		kind BitKind
		want string
	}{
		{BitSOF, "sof-bit"},
		{BitID, "id-bit"},
		{BitFormat, "format-bit"},
		{BitStuff, "stuff-bit"},
		{BitEOD, "eod-bit"},
		{BitEOF, "eof-bit"},
		{BitUnknown, "unknown-bit"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestEvent_Description(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name: "field span with label",
			event: Event{
				Type:  EventFieldSpan,
				Field: FieldIdentifier,
				Value: 0x123,
				Label: "291 (0x123)",
			},
			want: "ID: 291 (0x123)",
		},
		{
			name: "field span without label",
			event: Event{
				Type:  EventFieldSpan,
				Field: FieldEOF,
			},
			want: "EOF",
		},
		{
			name: "bit mark",
			event: Event{
				Type:  EventBitMark,
				Bit:   BitStuff,
				Value: 1,
			},
			want: "stuff-bit=1",
		},
		{
			name: "warning",
			event: Event{
				Type:    EventWarning,
				Message: "frame not acknowledged",
			},
			want: "frame not acknowledged",
		},
		{
			name:  "unknown",
			event: Event{},
			want:  "UNKNOWN_EVENT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}
