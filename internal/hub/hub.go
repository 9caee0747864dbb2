// Package hub is the room and session coordination core: a concurrent
// in-memory state machine over the population of live signaling sessions.
// One mutex protects the identity registry, the room registry and the
// per-room chat logs; envelope sends never happen under it. Dispatch
// methods collect target clients and payloads inside the critical
// section, release the lock, then enqueue.
package hub

import (
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/onairhq/greenroom/internal/envelope"
)

// New returns a pointer to an initialised Hub with the wall clock and
// uuid minting in place. Tests swap Now and NewID for determinism.
func New() *Hub {
	return &Hub{
		members:  make(map[string]*member),
		rooms:    make(map[string]*room),
		sessions: make(map[*Client]bool),
		Now:      time.Now,
		NewID:    func() string { return uuid.New().String() },
	}
}

// addSession registers a connected but not-yet-joined session.
func (h *Hub) addSession(c *Client) {
	h.mu.Lock()
	h.sessions[c] = true
	n := len(h.sessions)
	h.mu.Unlock()

	sessionsActive.Set(float64(n))

	log.WithFields(log.Fields{"session": c.name, "remote_addr": c.remoteAddr}).Debug("session connected")
}

// join seats a username in a room under the requested role, minting the
// identity. Only the first broadcaster creates a room. Returns the join
// outcome with everything the dispatcher needs to send after unlock.
func (h *Hub) join(c *Client, req *envelope.JoinRequest) (joinResult, *envelope.Error) {

	if req.Role != envelope.RoleBroadcaster && req.Role != envelope.RoleViewer {
		return joinResult{}, &envelope.Error{Code: envelope.CodeInvalidRole,
			Message: "role must be broadcaster or viewer, not " + string(req.Role)}
	}

	username := strings.TrimSpace(req.Username)

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.userID != "" {
		// session already owns an identity; protocol misuse, not a join failure
		return joinResult{rejoin: true}, nil
	}

	r, ok := h.rooms[req.RoomID]

	if !ok {
		if req.Role != envelope.RoleBroadcaster {
			return joinResult{}, &envelope.Error{Code: envelope.CodeRoomNotFound,
				Message: "room " + req.RoomID + " does not exist"}
		}
		r = &room{id: req.RoomID, name: "Room " + req.RoomID, chat: &chatLog{}}
		h.rooms[req.RoomID] = r
	}

	if req.Role == envelope.RoleBroadcaster && r.broadcaster != "" {
		return joinResult{}, &envelope.Error{Code: envelope.CodeBroadcasterExists,
			Message: "room " + req.RoomID + " already has a broadcaster"}
	}

	for _, id := range r.memberIDs() {
		if m, ok := h.members[id]; ok && strings.EqualFold(m.user.Username, username) {
			return joinResult{}, &envelope.Error{Code: envelope.CodeUserExists,
				Message: "username " + username + " is taken in room " + req.RoomID}
		}
	}

	user := envelope.User{
		ID:       h.NewID(),
		Username: username,
		Role:     req.Role,
		RoomID:   r.id,
	}

	h.members[user.ID] = &member{user: user, client: c}
	c.userID = user.ID

	if req.Role == envelope.RoleBroadcaster {
		r.broadcaster = user.ID
	} else {
		r.viewers = append(r.viewers, user.ID)
	}

	res := joinResult{
		user:     user,
		room:     h.snapshot(r),
		messages: r.chat.tail(DefaultChatTail),
		others:   h.roomClients(r, c),
		all:      h.roomClients(r, nil),
	}

	if r.streamActive && req.Role == envelope.RoleViewer {
		if b, ok := h.members[r.broadcaster]; ok {
			res.broadcaster = &b.user
		}
	}

	roomsActive.Set(float64(len(h.rooms)))

	return res, nil
}

// part removes the session's identity, if any, and returns what the
// dispatcher should fan out. Idempotent: a session that never joined, or
// whose cleanup already ran, departs with left=false.
func (h *Hub) part(c *Client) (partResult, bool) {

	h.mu.Lock()

	delete(h.sessions, c)
	nSessions := len(h.sessions)

	if c.userID == "" {
		h.mu.Unlock()
		sessionsActive.Set(float64(nSessions))
		return partResult{}, false
	}

	m, ok := h.members[c.userID]
	delete(h.members, c.userID)
	c.userID = ""

	if !ok {
		h.mu.Unlock()
		sessionsActive.Set(float64(nSessions))
		return partResult{}, false
	}

	res := partResult{user: m.user}

	if r, ok := h.rooms[m.user.RoomID]; ok {

		if r.broadcaster == m.user.ID {
			r.broadcaster = ""
			r.streamActive = false
		} else {
			kept := r.viewers[:0]
			for _, id := range r.viewers {
				if id != m.user.ID {
					kept = append(kept, id)
				}
			}
			r.viewers = kept
		}

		if h.deleteRoomIfEmpty(r) {
			res.roomDeleted = true
		} else {
			res.room = h.snapshot(r)
			res.remaining = h.roomClients(r, nil)
		}
	}

	nRooms := len(h.rooms)
	h.mu.Unlock()

	sessionsActive.Set(float64(nSessions))
	roomsActive.Set(float64(nRooms))

	return res, true
}

// deleteRoomIfEmpty removes a room with no broadcaster and no viewers,
// discarding its chat log. Caller holds the hub mutex.
func (h *Hub) deleteRoomIfEmpty(r *room) bool {
	if r.broadcaster != "" || len(r.viewers) > 0 {
		return false
	}
	delete(h.rooms, r.id)
	log.WithField("room_id", r.id).Debug("empty room deleted")
	return true
}

// memberIDs lists broadcaster (first, if present) then viewers in join
// order.
func (r *room) memberIDs() []string {
	ids := []string{}
	if r.broadcaster != "" {
		ids = append(ids, r.broadcaster)
	}
	return append(ids, r.viewers...)
}

// snapshot builds the wire form of a room, resolving the users list.
// Dangling ids (a member with no live identity) are removed from the room
// as they are found. Caller holds the hub mutex.
func (h *Hub) snapshot(r *room) envelope.Room {

	h.heal(r)

	s := envelope.Room{
		ID:           r.id,
		Name:         r.name,
		Broadcaster:  r.broadcaster,
		Viewers:      append([]string{}, r.viewers...),
		StreamActive: r.streamActive,
		Users:        []envelope.User{},
	}

	for _, id := range r.memberIDs() {
		if m, ok := h.members[id]; ok {
			s.Users = append(s.Users, m.user)
		}
	}

	return s
}

// roomClients resolves the room's members to their sessions, skipping
// except (the originator, when excluded) and any dangling id. Caller
// holds the hub mutex.
func (h *Hub) roomClients(r *room, except *Client) []*Client {

	h.heal(r)

	clients := []*Client{}
	for _, id := range r.memberIDs() {
		m, ok := h.members[id]
		if !ok || m.client == except {
			continue
		}
		clients = append(clients, m.client)
	}
	return clients
}

// heal drops any member id with no matching identity. A dangling id
// means an invariant was violated upstream; log it and repair rather
// than fail. Caller holds the hub mutex.
func (h *Hub) heal(r *room) {

	if r.broadcaster != "" {
		if _, ok := h.members[r.broadcaster]; !ok {
			log.WithFields(log.Fields{"room_id": r.id, "user_id": r.broadcaster}).Warn("dangling broadcaster id removed")
			r.broadcaster = ""
			r.streamActive = false
		}
	}

	kept := r.viewers[:0]
	for _, id := range r.viewers {
		if _, ok := h.members[id]; ok {
			kept = append(kept, id)
			continue
		}
		log.WithFields(log.Fields{"room_id": r.id, "user_id": id}).Warn("dangling viewer id removed")
	}
	r.viewers = kept
}

// Rooms returns wire snapshots of every known room, for the REST list.
func (h *Hub) Rooms() []envelope.Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := []envelope.Room{}
	for _, r := range h.rooms {
		rooms = append(rooms, h.snapshot(r))
	}
	return rooms
}

// Messages returns the tail of a room's chat log, at most limit entries,
// most-recent-last. Absent rooms yield an empty slice.
func (h *Hub) Messages(roomID string, limit int) []envelope.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return []envelope.ChatMessage{}
	}
	return r.chat.tail(limit)
}
