package codec

import (
	"bytes"
	"fmt"
)

// LineMessage is the decoded form produced by LineCodec: a single
// newline-delimited frame tagged with the event name it was classified
// under.
type LineMessage struct {
	EventName string
	Payload   []byte
}

// LineCodec is a minimal newline-delimited codec used by tests and local
// experimentation in place of a real OpenFlow codec. Every frame is
// classified as "kyco/of.message" unless it starts with "hello", in which
// case it is classified as "kyco/of.hello" — enough structure to exercise
// pattern-based dispatch in tests without implementing wire semantics.
type LineCodec struct{}

// NewLineCodec returns a ready-to-use LineCodec.
func NewLineCodec() *LineCodec { return &LineCodec{} }

// Decode implements Codec.
func (LineCodec) Decode(b []byte) (Message, int, error) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return nil, 0, nil
	}

	payload := append([]byte(nil), b[:idx]...)
	name := "kyco/of.message"
	if bytes.HasPrefix(payload, []byte("hello")) {
		name = "kyco/of.hello"
	}

	return LineMessage{EventName: name, Payload: payload}, idx + 1, nil
}

// Encode implements Codec.
func (LineCodec) Encode(msg Message) ([]byte, error) {
	lm, ok := msg.(LineMessage)
	if !ok {
		return nil, fmt.Errorf("line codec: cannot encode %T", msg)
	}
	return append(append([]byte(nil), lm.Payload...), '\n'), nil
}

// EventNameFor implements Codec.
func (LineCodec) EventNameFor(msg Message) string {
	lm, ok := msg.(LineMessage)
	if !ok {
		return "kyco/of.message"
	}
	return lm.EventName
}
