package envelope

import "encoding/json"

// Type tags one frame on the signaling channel.
type Type string

// Envelope types. The first group travels client to hub, the second hub to
// client. VIEWER_READY appears in both groups with a different payload
// shape; direction distinguishes.
const (
	TypeJoinRoom     Type = "JOIN_ROOM"
	TypeStreamReady  Type = "STREAM_READY"
	TypeViewerReady  Type = "VIEWER_READY"
	TypeChatMessage  Type = "CHAT_MESSAGE"
	TypeOffer        Type = "OFFER"
	TypeAnswer       Type = "ANSWER"
	TypeICECandidate Type = "ICE_CANDIDATE"

	TypeRoomJoined          Type = "ROOM_JOINED"
	TypeRoomState           Type = "ROOM_STATE"
	TypeUserJoined          Type = "USER_JOINED"
	TypeUserLeft            Type = "USER_LEFT"
	TypeBroadcasterReady    Type = "BROADCASTER_READY"
	TypeChatMessageReceived Type = "CHAT_MESSAGE_RECEIVED"
	TypeError               Type = "ERROR"
)

// Role is a room member's part in the broadcast.
type Role string

// Valid roles. Anything else is refused at join with CodeInvalidRole.
const (
	RoleBroadcaster Role = "broadcaster"
	RoleViewer      Role = "viewer"
)

// Kind distinguishes public from directed chat.
type Kind string

// Valid chat kinds.
const (
	KindPublic  Kind = "public"
	KindPrivate Kind = "private"
)

// ErrorCode is the wire code carried by an ERROR envelope.
type ErrorCode string

// Join failure codes.
const (
	CodeRoomNotFound      ErrorCode = "ROOM_NOT_FOUND"
	CodeBroadcasterExists ErrorCode = "BROADCASTER_EXISTS"
	CodeUserExists        ErrorCode = "USER_EXISTS"
	CodeInvalidRole       ErrorCode = "INVALID_ROLE"
)

// User is one seated room member.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	RoomID   string `json:"room_id"`
}

// Room is the wire snapshot of a room: ids for addressing plus the resolved
// users list (broadcaster first, then viewers in join order).
type Room struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Broadcaster  string   `json:"broadcaster,omitempty"`
	Viewers      []string `json:"viewers"`
	StreamActive bool     `json:"stream_active"`
	Users        []User   `json:"users"`
}

// ChatMessage is one minted chat log entry.
type ChatMessage struct {
	ID             string `json:"id"`
	SenderID       string `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	RoomID         string `json:"room_id"`
	Content        string `json:"content"`
	Kind           Kind   `json:"kind"`
	RecipientID    string `json:"recipient_id,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// JoinRequest asks to seat a user in a room. Role is carried through
// undecoded-side validation so the hub can answer INVALID_ROLE itself.
type JoinRequest struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ReadySignal is the inbound shape of STREAM_READY and VIEWER_READY. The
// hub treats both fields as advisory; the session's bound identity is
// authoritative.
type ReadySignal struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

// ChatRequest wraps a chat draft as sent by a client.
type ChatRequest struct {
	Message ChatDraft `json:"message"`
}

// ChatDraft is the client's side of a chat message, before the hub mints
// id, timestamp and sender fields.
type ChatDraft struct {
	Content     string `json:"content"`
	Kind        Kind   `json:"kind"`
	RecipientID string `json:"recipient_id,omitempty"`
	RoomID      string `json:"room_id"`
}

// Signal is the payload of OFFER, ANSWER and ICE_CANDIDATE. Data is opaque
// to the hub and forwarded unchanged; Sender is overwritten with the
// resolved originator id before relay.
type Signal struct {
	Sender   string          `json:"sender"`
	Receiver string          `json:"receiver"`
	RoomID   string          `json:"room_id"`
	Data     json.RawMessage `json:"data"`
}

// RoomJoined confirms a join to the joiner only.
type RoomJoined struct {
	Room     Room          `json:"room"`
	User     User          `json:"user"`
	Messages []ChatMessage `json:"messages"`
}

// RoomState carries a room snapshot to every member.
type RoomState struct {
	Room Room `json:"room"`
}

// UserJoined announces a new member to the rest of the room.
type UserJoined struct {
	User User `json:"user"`
}

// UserLeft announces a departure, with the post-departure snapshot.
type UserLeft struct {
	User User `json:"user"`
	Room Room `json:"room"`
}

// BroadcasterReady tells a viewer the broadcaster has a live stream.
type BroadcasterReady struct {
	Broadcaster User `json:"broadcaster"`
}

// ViewerReady is the outbound shape of VIEWER_READY, forwarded to the
// broadcaster so it can initiate the offer.
type ViewerReady struct {
	Viewer User `json:"viewer"`
}

// ChatReceived delivers a minted chat message.
type ChatReceived struct {
	Message ChatMessage `json:"message"`
}

// Error reports a semantic join failure.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
