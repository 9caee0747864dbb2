package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStamp(t *testing.T) {

	at := time.Date(2024, 1, 2, 3, 4, 5, 678000000, time.UTC)

	assert.Equal(t, "2024-01-02T03:04:05.678Z", Stamp(at))

	// non-UTC instants are rendered in UTC
	loc := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "2024-01-02T01:04:05.678Z", Stamp(at.In(loc)))
}

func TestRoundTrip(t *testing.T) {

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	payloads := map[Type]any{
		TypeJoinRoom:     &JoinRequest{RoomID: "r", Username: "Alice", Role: RoleBroadcaster},
		TypeStreamReady:  &ReadySignal{RoomID: "r", UserID: "u1"},
		TypeViewerReady:  &ReadySignal{RoomID: "r", UserID: "u2"},
		TypeChatMessage:  &ChatRequest{Message: ChatDraft{Content: "hi", Kind: KindPublic, RoomID: "r"}},
		TypeOffer:        &Signal{Sender: "u1", Receiver: "u2", RoomID: "r", Data: json.RawMessage(`{"sdp":"v=0"}`)},
		TypeAnswer:       &Signal{Sender: "u2", Receiver: "u1", RoomID: "r", Data: json.RawMessage(`{"sdp":"v=0"}`)},
		TypeICECandidate: &Signal{Sender: "u1", Receiver: "u2", RoomID: "r", Data: json.RawMessage(`{"candidate":"foo"}`)},
	}

	for typ, payload := range payloads {

		data, err := Encode(New(typ, payload, at))
		assert.NoError(t, err)

		decoded, err := Decode(data)
		assert.NoError(t, err, string(typ))

		// timestamps are informational and excluded from equality
		assert.Equal(t, typ, decoded.Type)
		assert.Equal(t, payload, decoded.Payload, string(typ))
	}
}

func TestDecodePrivateChat(t *testing.T) {

	data, err := Encode(New(TypeChatMessage, &ChatRequest{
		Message: ChatDraft{Content: "psst", Kind: KindPrivate, RecipientID: "u2", RoomID: "r"},
	}, time.Now()))
	assert.NoError(t, err)

	decoded, err := Decode(data)
	assert.NoError(t, err)

	p, ok := decoded.Payload.(*ChatRequest)
	assert.True(t, ok)
	assert.Equal(t, "u2", p.Message.RecipientID)
}

func TestDecodeKeepsUnknownRole(t *testing.T) {

	// role validity is a semantic check answered with ERROR{INVALID_ROLE},
	// so decode must let unknown roles through
	data := []byte(`{"type":"JOIN_ROOM","payload":{"room_id":"r","username":"Eve","role":"wizard"},"timestamp":"T0"}`)

	decoded, err := Decode(data)
	assert.NoError(t, err)

	p, ok := decoded.Payload.(*JoinRequest)
	assert.True(t, ok)
	assert.Equal(t, Role("wizard"), p.Role)
}

func TestDecodeRejects(t *testing.T) {

	frames := map[string]string{
		"malformed json":           `{"type":"JOIN_ROOM"`,
		"unknown type":             `{"type":"DANCE","payload":{},"timestamp":"T0"}`,
		"hub-originated type":      `{"type":"ROOM_JOINED","payload":{},"timestamp":"T0"}`,
		"missing payload":          `{"type":"JOIN_ROOM","timestamp":"T0"}`,
		"payload wrong shape":      `{"type":"JOIN_ROOM","payload":"r","timestamp":"T0"}`,
		"join without room":        `{"type":"JOIN_ROOM","payload":{"username":"Alice","role":"viewer"},"timestamp":"T0"}`,
		"join without username":    `{"type":"JOIN_ROOM","payload":{"room_id":"r","username":"  ","role":"viewer"},"timestamp":"T0"}`,
		"chat empty content":       `{"type":"CHAT_MESSAGE","payload":{"message":{"content":" ","kind":"public","room_id":"r"}},"timestamp":"T0"}`,
		"chat bad kind":            `{"type":"CHAT_MESSAGE","payload":{"message":{"content":"hi","kind":"shout","room_id":"r"}},"timestamp":"T0"}`,
		"private chat unaddressed": `{"type":"CHAT_MESSAGE","payload":{"message":{"content":"hi","kind":"private","room_id":"r"}},"timestamp":"T0"}`,
	}

	for name, frame := range frames {
		_, err := Decode([]byte(frame))
		assert.Error(t, err, name)
	}
}

func TestEncodeErrorEnvelope(t *testing.T) {

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := Encode(New(TypeError, &Error{Code: CodeRoomNotFound, Message: "room q does not exist"}, at))
	assert.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "ERROR",
		"payload": {"code":"ROOM_NOT_FOUND","message":"room q does not exist"},
		"timestamp": "2024-01-02T03:04:05.000Z"
	}`, string(data))
}
