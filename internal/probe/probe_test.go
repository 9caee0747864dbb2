package probe

import (
	"bufio"
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/phayes/freeport"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/onairhq/greenroom/internal/greenroom"
)

func TestCheck(t *testing.T) {

	var ignore bytes.Buffer
	log.SetOutput(bufio.NewWriter(&ignore))

	closed := make(chan struct{})
	var wg sync.WaitGroup

	port, err := freeport.GetFreePort()
	assert.NoError(t, err)

	wg.Add(1)
	go greenroom.Serve(closed, &wg, greenroom.Config{Listen: port})
	time.Sleep(100 * time.Millisecond)

	defer func() {
		close(closed)
		wg.Wait()
	}()

	opts := Opts{
		Target:  "http://127.0.0.1:" + strconv.Itoa(port),
		Timeout: 2 * time.Second,
	}

	assert.NoError(t, Check(context.Background(), opts))

	// a probe leaves no state behind
	assert.NoError(t, Check(context.Background(), opts))
}

func TestCheckUnreachable(t *testing.T) {

	var ignore bytes.Buffer
	log.SetOutput(bufio.NewWriter(&ignore))

	port, err := freeport.GetFreePort()
	assert.NoError(t, err)

	opts := Opts{
		Target:  "http://127.0.0.1:" + strconv.Itoa(port),
		Timeout: 500 * time.Millisecond,
	}

	assert.Error(t, Check(context.Background(), opts))
}

func TestSignalingURL(t *testing.T) {

	u, err := signalingURL("http://example.org:3000")
	assert.NoError(t, err)
	assert.Equal(t, "ws://example.org:3000/ws", u)

	u, err = signalingURL("https://hub.example.org/greenroom/")
	assert.NoError(t, err)
	assert.Equal(t, "wss://hub.example.org/greenroom/ws", u)

	_, err = signalingURL("ftp://example.org")
	assert.Error(t, err)
}
