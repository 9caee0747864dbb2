package hub

import (
	"sync"
	"time"

	"github.com/eclesh/welford"
	"github.com/gorilla/websocket"

	"github.com/onairhq/greenroom/internal/envelope"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Signaling envelopes are
	// small; SDP offers with many candidates run to a few kB.
	maxMessageSize = 65536

	// Buffered outbound frames per client; enqueue drops when full.
	sendBufferLength = 256
)

// DefaultChatTail is how many chat entries a join or an unqualified REST
// read returns.
const DefaultChatTail = 50

// Client is one live session: the websocket connection plus its outbound
// queue. The identity (userID) is bound on a successful join; reads and
// writes of userID happen under the hub mutex.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound frames. Never closed; the write pump
	// exits when the connection drops or the hub shuts down.
	send chan []byte

	// identity registry key once joined, "" before
	userID string

	stats *Stats

	name string

	userAgent string

	remoteAddr string
}

// Hub holds the identity registry, the room registry and the set of live
// sessions, all under one mutex. The registries are semantically one unit
// of state: splitting locks would let a relay find a receiver whose room
// membership had just gone.
type Hub struct {
	mu sync.Mutex

	// identity registry: user id -> (User, session)
	members map[string]*member

	// room registry: room id -> room state (membership, stream flag, chat)
	rooms map[string]*room

	// every live session, joined or not
	sessions map[*Client]bool

	// Now stamps outbound envelopes and minted chat entries. Swap for a
	// test clock.
	Now func() time.Time

	// NewID mints user and chat message ids. Swap for deterministic ids.
	NewID func() string
}

// joinResult is everything a successful join collects under the lock for
// the dispatcher to send after release.
type joinResult struct {
	rejoin      bool // session already had an identity; drop the request
	user        envelope.User
	room        envelope.Room
	messages    []envelope.ChatMessage
	broadcaster *envelope.User // set when the joiner must be told BROADCASTER_READY
	others      []*Client      // members except the joiner, for USER_JOINED
	all         []*Client      // every member including the joiner, for ROOM_STATE
}

// partResult is what a departure collects under the lock.
type partResult struct {
	user        envelope.User
	room        envelope.Room
	roomDeleted bool
	remaining   []*Client
}

// member is one identity registry row: the User record and the session
// that owns it.
type member struct {
	user   envelope.User
	client *Client
}

// room is the registry-side room state. Wire snapshots are built from it
// under the hub mutex.
type room struct {
	id           string
	name         string
	broadcaster  string   // user id, "" when absent
	viewers      []string // join order
	streamActive bool
	chat         *chatLog
}

// Stats represents statistics for a connection
type Stats struct {
	connectedAt time.Time

	rx *Frames

	tx *Frames
}

// Frames represents statistics on envelopes sent over a connection
type Frames struct {
	last time.Time

	size *welford.Stats

	ns *welford.Stats

	mu *sync.RWMutex
}

// RxTx represents statistics for both receive and transmit
type RxTx struct {
	Tx ReportStats `json:"tx"`
	Rx ReportStats `json:"rx"`
}

// ReportStats represents statistics about what has been sent/received
type ReportStats struct {
	Last string `json:"last"` //how many seconds ago...

	Size float64 `json:"size"`

	Mps float64 `json:"mps"`
}

// ClientReport represents information about a session's connection,
// identity, and statistics
type ClientReport struct {
	Name string `json:"name"`

	Username string `json:"username,omitempty"`

	RoomID string `json:"room_id,omitempty"`

	Role string `json:"role,omitempty"`

	Connected string `json:"connected"`

	RemoteAddr string `json:"remoteAddr"`

	UserAgent string `json:"userAgent"`

	Stats RxTx `json:"stats"`
}

func newStats(at time.Time) *Stats {
	return &Stats{
		connectedAt: at,
		tx:          &Frames{size: welford.New(), ns: welford.New(), mu: &sync.RWMutex{}},
		rx:          &Frames{size: welford.New(), ns: welford.New(), mu: &sync.RWMutex{}},
	}
}
