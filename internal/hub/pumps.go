package hub

import (
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/onairhq/greenroom/internal/envelope"
)

// readPump pumps frames from the websocket connection into the
// dispatcher.
//
// The application runs readPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine. Dispatch runs synchronously
// here so envelopes from one originator keep their order.
func (c *Client) readPump() {

	defer func() {
		c.hub.leave(c)
		c.conn.Close()
		log.WithField("session", c.name).Trace("readPump closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	err := c.conn.SetReadDeadline(time.Now().Add(pongWait))

	if err != nil {
		log.Errorf("readPump deadline error: %v", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		err := c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return err
	})

	for {

		_, data, err := c.conn.ReadMessage()

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Errorf("readPump error: %v", err)
			}
			break
		}

		c.stats.tx.mu.Lock()
		t := time.Now()
		if c.stats.tx.ns.Count() > 0 {
			c.stats.tx.ns.Add(float64(t.UnixNano() - c.stats.tx.last.UnixNano()))
		} else {
			c.stats.tx.ns.Add(float64(t.UnixNano() - c.stats.connectedAt.UnixNano()))
		}
		c.stats.tx.last = t
		c.stats.tx.size.Add(float64(len(data)))
		c.stats.tx.mu.Unlock()

		e, err := envelope.Decode(data)

		if err != nil {
			// protocol error: drop the frame, keep the session
			envelopesDropped.WithLabelValues("decode").Inc()
			log.WithFields(log.Fields{"session": c.name, "error": err.Error()}).Info("dropping undecodable frame")
			continue
		}

		c.hub.route(c, e)
	}
}

// writePump pumps envelopes from the send queue to the websocket
// connection, one envelope per text frame - JSON frames are never
// concatenated.
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump(closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		log.WithField("session", c.name).Trace("writePump closed")
	}()
	for {
		select {

		case data := <-c.send:
			err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err != nil {
				log.Errorf("writePump deadline error: %s", err.Error())
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Errorf("writePump writing error: %v", err)
				return
			}

			c.stats.rx.mu.Lock()
			t := time.Now()
			if c.stats.rx.ns.Count() > 0 {
				c.stats.rx.ns.Add(float64(t.UnixNano() - c.stats.rx.last.UnixNano()))
			} else {
				c.stats.rx.ns.Add(float64(t.UnixNano() - c.stats.connectedAt.UnixNano()))
			}
			c.stats.rx.last = t
			c.stats.rx.size.Add(float64(len(data)))
			c.stats.rx.mu.Unlock()

		case <-ticker.C:
			err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err != nil {
				log.Errorf("writePump ping deadline error: %v", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}
