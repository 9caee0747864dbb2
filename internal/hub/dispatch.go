package hub

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/onairhq/greenroom/internal/envelope"
)

// route handles one decoded inbound envelope from a session. Called
// synchronously from the session's readPump so that per-originator
// ordering is preserved. Identity checks happen inside each handler
// under the hub mutex; sends happen after release.
func (h *Hub) route(c *Client, e envelope.Envelope) {

	envelopesReceived.WithLabelValues(string(e.Type)).Inc()

	switch p := e.Payload.(type) {

	case *envelope.JoinRequest:
		h.handleJoin(c, p)

	case *envelope.ChatRequest:
		h.handleChat(c, p)

	case *envelope.ReadySignal:
		if e.Type == envelope.TypeStreamReady {
			h.handleStreamReady(c)
		} else {
			h.handleViewerReady(c)
		}

	case *envelope.Signal:
		h.relay(c, e.Type, p)

	default:
		// decode admits only the payload types above
		h.drop(c, e.Type, "unroutable payload")
	}
}

// drop records an envelope the hub will not act on.
func (h *Hub) drop(c *Client, t envelope.Type, reason string) {
	envelopesDropped.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{"session": c.name, "type": t, "reason": reason}).Debug("envelope dropped")
}

// emit stamps and enqueues one envelope to a session. Enqueue is
// non-blocking: a full send buffer drops the envelope rather than let a
// slow client stall dispatch (best-effort delivery).
func (h *Hub) emit(c *Client, t envelope.Type, payload any) {

	data, err := envelope.Encode(envelope.New(t, payload, h.Now()))
	if err != nil {
		log.WithFields(log.Fields{"type": t, "error": err.Error()}).Error("encoding outbound envelope")
		return
	}

	select {
	case c.send <- data:
	default:
		envelopesDropped.WithLabelValues("slow_client").Inc()
		log.WithFields(log.Fields{"session": c.name, "type": t}).Warn("send buffer full, envelope dropped")
	}
}

func (h *Hub) handleJoin(c *Client, req *envelope.JoinRequest) {

	res, jerr := h.join(c, req)

	if jerr != nil {
		joinFailures.WithLabelValues(string(jerr.Code)).Inc()
		log.WithFields(log.Fields{
			"session":  c.name,
			"room_id":  req.RoomID,
			"username": req.Username,
			"code":     jerr.Code,
		}).Info("join refused")
		h.emit(c, envelope.TypeError, jerr)
		return
	}

	if res.rejoin {
		h.drop(c, envelope.TypeJoinRoom, "already joined")
		return
	}

	joinsTotal.WithLabelValues(string(res.user.Role)).Inc()
	log.WithFields(log.Fields{
		"user_id":  res.user.ID,
		"username": res.user.Username,
		"role":     res.user.Role,
		"room_id":  res.user.RoomID,
	}).Info("user joined")

	// the joiner hears ROOM_JOINED before anything else
	h.emit(c, envelope.TypeRoomJoined, envelope.RoomJoined{Room: res.room, User: res.user, Messages: res.messages})

	if res.broadcaster != nil {
		h.emit(c, envelope.TypeBroadcasterReady, envelope.BroadcasterReady{Broadcaster: *res.broadcaster})
	}

	for _, o := range res.others {
		h.emit(o, envelope.TypeUserJoined, envelope.UserJoined{User: res.user})
	}

	for _, m := range res.all {
		h.emit(m, envelope.TypeRoomState, envelope.RoomState{Room: res.room})
	}
}

func (h *Hub) handleChat(c *Client, req *envelope.ChatRequest) {

	h.mu.Lock()

	m, ok := h.members[c.userID]
	if c.userID == "" || !ok {
		h.mu.Unlock()
		h.drop(c, envelope.TypeChatMessage, "not joined")
		return
	}

	r, ok := h.rooms[m.user.RoomID]
	if !ok {
		h.mu.Unlock()
		h.drop(c, envelope.TypeChatMessage, "no room")
		return
	}

	// sender identity is authoritative; the draft's room_id is advisory
	entry := envelope.ChatMessage{
		ID:             h.NewID(),
		SenderID:       m.user.ID,
		SenderUsername: m.user.Username,
		RoomID:         m.user.RoomID,
		Content:        strings.TrimSpace(req.Message.Content),
		Kind:           req.Message.Kind,
		Timestamp:      envelope.Stamp(h.Now()),
	}

	var targets []*Client

	if entry.Kind == envelope.KindPrivate {
		entry.RecipientID = req.Message.RecipientID
		targets = []*Client{c}
		if rm, ok := h.members[entry.RecipientID]; ok && rm.user.RoomID == entry.RoomID {
			if rm.client != c {
				targets = append(targets, rm.client)
			}
		} else {
			log.WithFields(log.Fields{"recipient_id": entry.RecipientID, "room_id": entry.RoomID}).Debug("private chat recipient not in room")
		}
	} else {
		targets = h.roomClients(r, nil)
	}

	r.chat.append(entry)

	h.mu.Unlock()

	chatMessagesTotal.WithLabelValues(string(entry.Kind)).Inc()

	for _, t := range targets {
		h.emit(t, envelope.TypeChatMessageReceived, envelope.ChatReceived{Message: entry})
	}
}

func (h *Hub) handleStreamReady(c *Client) {

	h.mu.Lock()

	m, ok := h.members[c.userID]
	if c.userID == "" || !ok || m.user.Role != envelope.RoleBroadcaster {
		h.mu.Unlock()
		h.drop(c, envelope.TypeStreamReady, "not broadcaster")
		return
	}

	r, ok := h.rooms[m.user.RoomID]
	if !ok || r.broadcaster != m.user.ID {
		h.mu.Unlock()
		h.drop(c, envelope.TypeStreamReady, "no room")
		return
	}

	// idempotent: repeated STREAM_READY re-emits to all viewers
	r.streamActive = true

	broadcaster := m.user
	viewers := h.roomClients(r, c)

	h.mu.Unlock()

	log.WithFields(log.Fields{"room_id": broadcaster.RoomID, "user_id": broadcaster.ID}).Info("stream ready")

	for _, v := range viewers {
		h.emit(v, envelope.TypeBroadcasterReady, envelope.BroadcasterReady{Broadcaster: broadcaster})
	}
}

func (h *Hub) handleViewerReady(c *Client) {

	h.mu.Lock()

	m, ok := h.members[c.userID]
	if c.userID == "" || !ok || m.user.Role != envelope.RoleViewer {
		h.mu.Unlock()
		h.drop(c, envelope.TypeViewerReady, "not viewer")
		return
	}

	r, ok := h.rooms[m.user.RoomID]
	if !ok || r.broadcaster == "" {
		h.mu.Unlock()
		h.drop(c, envelope.TypeViewerReady, "no broadcaster")
		return
	}

	b, ok := h.members[r.broadcaster]
	if !ok {
		h.mu.Unlock()
		h.drop(c, envelope.TypeViewerReady, "no broadcaster")
		return
	}

	viewer := m.user
	target := b.client

	h.mu.Unlock()

	h.emit(target, envelope.TypeViewerReady, envelope.ViewerReady{Viewer: viewer})
}

// relay forwards an OFFER, ANSWER or ICE_CANDIDATE to its addressed
// receiver, overwriting the in-band sender with the resolved originator
// id. Unknown or stale receivers are a silent drop; the peer-to-peer
// stack owns retransmission.
func (h *Hub) relay(c *Client, t envelope.Type, p *envelope.Signal) {

	h.mu.Lock()

	m, ok := h.members[c.userID]
	if c.userID == "" || !ok {
		h.mu.Unlock()
		h.drop(c, t, "not joined")
		return
	}

	rm, ok := h.members[p.Receiver]
	if !ok {
		h.mu.Unlock()
		h.drop(c, t, "stale receiver")
		return
	}

	sender := m.user.ID
	target := rm.client

	h.mu.Unlock()

	forwarded := envelope.Signal{
		Sender:   sender,
		Receiver: p.Receiver,
		RoomID:   p.RoomID,
		Data:     p.Data,
	}

	signalsRelayedTotal.WithLabelValues(string(t)).Inc()

	h.emit(target, t, forwarded)
}

// leave runs the departure path for a closing session: remove the
// identity, then tell the survivors. Safe to call more than once.
func (h *Hub) leave(c *Client) {

	res, left := h.part(c)

	if !left {
		return
	}

	log.WithFields(log.Fields{
		"user_id":  res.user.ID,
		"username": res.user.Username,
		"room_id":  res.user.RoomID,
	}).Info("user left")

	for _, t := range res.remaining {
		h.emit(t, envelope.TypeUserLeft, envelope.UserLeft{User: res.user, Room: res.room})
	}

	if !res.roomDeleted {
		for _, t := range res.remaining {
			h.emit(t, envelope.TypeRoomState, envelope.RoomState{Room: res.room})
		}
	}
}
