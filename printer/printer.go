// Package printer formats decode events and frame summaries as text
// lines for the listing tools.
package printer

import (
	"fmt"
	"strings"

	"github.com/xuhaojie/pulseview-van-decoder/common"
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

// FormatEventLine formats one decode event as a listing line.
func FormatEventLine(ev common.Event) string {
	return fmt.Sprintf("Smp:%d..%d;\t%s : %s", ev.Start, ev.End, ev.Type, ev.Description())
}

// FormatFrameLine formats a reconstructed frame summary.
func FormatFrameLine(f van.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Smp:%d..%d;\tFRAME : ID=0x%X", f.Start, f.End, f.Identifier)
	if f.Extended {
		fmt.Fprintf(&b, "; EXT BRS=%d ESI=%d", boolBit(f.BRS()), boolBit(f.ESI()))
	} else {
		fmt.Fprintf(&b, "; RAK=%d R/W=%d RTR=%d", boolBit(f.RAK()), boolBit(f.RW()), boolBit(f.RTR()))
	}
	fmt.Fprintf(&b, "; DLC=%d; Data=[%s]; CRC=0x%04X", f.DLC, formatHexBytes(f.Data), f.CRC)
	if f.Truncated {
		b.WriteString("; EOD")
	}
	if f.Acked {
		b.WriteString("; ACK")
	} else {
		b.WriteString("; NAK")
	}
	return b.String()
}

func formatHexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("0x%02x", b)
	}
	return strings.Join(parts, " ")
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
