package reconws

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echo upgrades and reflects every message back to the sender.
func echo(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}
		if err = c.WriteMessage(mt, message); err != nil {
			break
		}
	}
}

func TestDialEcho(t *testing.T) {

	var ignore bytes.Buffer
	log.SetOutput(bufio.NewWriter(&ignore))

	server := httptest.NewServer(http.HandlerFunc(echo))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New()
	go func() {
		err := r.Dial(ctx, url)
		assert.NoError(t, err)
	}()

	select {
	case <-r.Connected:
	case <-time.After(time.Second):
		t.Fatal("timeout connecting")
	}

	payload := []byte(`{"type":"ping"}`)
	r.Out <- WsMessage{Data: payload, Type: websocket.TextMessage}

	select {
	case msg := <-r.In:
		assert.Equal(t, payload, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for echo")
	}
}

func TestDialBadURL(t *testing.T) {

	var ignore bytes.Buffer
	log.SetOutput(bufio.NewWriter(&ignore))

	r := New()

	assert.Error(t, r.Dial(context.Background(), ""))
	assert.Error(t, r.Dial(context.Background(), "http://example.org"))
	assert.Error(t, r.Dial(context.Background(), "ws://user:pass@example.org"))
}
