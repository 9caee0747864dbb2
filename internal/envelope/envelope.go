// Package envelope defines the tagged frames exchanged on the greenroom
// signaling channel, and the codec that validates them at the decode
// boundary so the dispatcher never re-checks shapes.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeLayout renders timestamps as ISO-8601 UTC with millisecond
// precision, matching what browser clients produce.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is one frame on the signaling channel. After Decode, Payload
// holds a pointer to the typed payload for the tag; for encoding it may be
// any marshalable value.
type Envelope struct {
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// Wire is the undecoded form of a frame, payload left raw. Convenient for
// test clients that want to inspect hub-originated envelopes.
type Wire struct {
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// New mints an envelope stamped at the given instant.
func New(t Type, payload any, at time.Time) Envelope {
	return Envelope{Type: t, Payload: payload, Timestamp: Stamp(at)}
}

// Stamp renders an instant in the wire timestamp format.
func Stamp(at time.Time) string {
	return at.UTC().Format(TimeLayout)
}

// Encode renders the envelope as a single JSON text frame.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses one inbound (client to hub) frame and validates the
// payload shape for its tag. Unknown tags, hub-originated tags and shape
// violations are errors; the caller logs and drops the frame. Role values
// and addressing fields are not validated here - those are semantic checks
// the hub answers itself.
func Decode(data []byte) (Envelope, error) {

	var w Wire

	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}

	e := Envelope{Type: w.Type, Timestamp: w.Timestamp}

	switch w.Type {

	case TypeJoinRoom:
		p := &JoinRequest{}
		if err := json.Unmarshal(w.Payload, p); err != nil {
			return Envelope{}, fmt.Errorf("bad %s payload: %w", w.Type, err)
		}
		if p.RoomID == "" {
			return Envelope{}, fmt.Errorf("%s without room_id", w.Type)
		}
		if strings.TrimSpace(p.Username) == "" {
			return Envelope{}, fmt.Errorf("%s without username", w.Type)
		}
		e.Payload = p

	case TypeStreamReady, TypeViewerReady:
		p := &ReadySignal{}
		if err := json.Unmarshal(w.Payload, p); err != nil {
			return Envelope{}, fmt.Errorf("bad %s payload: %w", w.Type, err)
		}
		e.Payload = p

	case TypeChatMessage:
		p := &ChatRequest{}
		if err := json.Unmarshal(w.Payload, p); err != nil {
			return Envelope{}, fmt.Errorf("bad %s payload: %w", w.Type, err)
		}
		if strings.TrimSpace(p.Message.Content) == "" {
			return Envelope{}, fmt.Errorf("%s with empty content", w.Type)
		}
		switch p.Message.Kind {
		case KindPublic, KindPrivate:
		default:
			return Envelope{}, fmt.Errorf("%s with kind %q", w.Type, p.Message.Kind)
		}
		if p.Message.Kind == KindPrivate && p.Message.RecipientID == "" {
			return Envelope{}, fmt.Errorf("private %s without recipient_id", w.Type)
		}
		e.Payload = p

	case TypeOffer, TypeAnswer, TypeICECandidate:
		p := &Signal{}
		if err := json.Unmarshal(w.Payload, p); err != nil {
			return Envelope{}, fmt.Errorf("bad %s payload: %w", w.Type, err)
		}
		e.Payload = p

	default:
		return Envelope{}, fmt.Errorf("unknown envelope type %q", w.Type)
	}

	return e, nil
}
