// Package session persists a complete decode run - configuration, frame
// summaries and the raw event stream - as a CBOR document, so a capture
// can be decoded once and compared or re-rendered later.
package session

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/xuhaojie/pulseview-van-decoder/common"
	"github.com/xuhaojie/pulseview-van-decoder/van"
)

// Session is one decode run over a capture.
type Session struct {
	Capture string         `cbor:"capture,omitempty"` // source capture path, informational
	Config  van.Config     `cbor:"config"`
	Frames  []van.Frame    `cbor:"frames"`
	Events  []common.Event `cbor:"events"`
}

// Save writes the session as a CBOR document.
func Save(path string, s *Session) error {
	data, err := cbor.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load reads a CBOR session document.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}
