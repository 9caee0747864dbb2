package hub

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// 4096 bytes is the approx average message size; SDP offers with many
// candidates are the largest frames we see. This number does not limit
// message size. Cross-origin clients are expected (the web app is served
// elsewhere) so any origin is accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs handles a websocket signaling request: upgrade, register the
// session, start its pumps. The session has no identity until its
// JOIN_ROOM succeeds.
func (h *Hub) ServeWs(closed <-chan struct{}, w http.ResponseWriter, r *http.Request) {

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithField("error", err).Error("ServeWs failed to upgrade to websocket")
		return
	}

	remoteAddr := r.Header.Get("X-Forwarded-For")
	if remoteAddr == "" {
		remoteAddr = r.RemoteAddr
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBufferLength),
		stats:      newStats(h.Now()),
		name:       uuid.New().String(),
		userAgent:  r.UserAgent(),
		remoteAddr: remoteAddr,
	}

	h.addSession(client)

	go client.writePump(closed)
	go client.readPump()
}
