// Package probe is a canary client for a running greenroom instance: it
// checks the health and rooms endpoints and that the signaling channel
// accepts a websocket dial, without joining a room or leaving any state
// behind.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Opts is the probe configuration, loaded from GREENROOMPROBE_<var>
// environment variables.
type Opts struct {
	Target   string        `default:"http://localhost:3000" description:"base URL of the greenroom instance"`
	Timeout  time.Duration `default:"5s" description:"per-check timeout"`
	Every    time.Duration `default:"0s" description:"watch interval; zero means check once and exit"`
	LogLevel string        `split_words:"true" default:"info"`
}

// Probe loads Opts from the environment and runs the check, once or on a
// watch interval. Exits nonzero on a failed check so it can gate
// deployment scripts.
func Probe() {

	var opts Opts

	// load configuration from environment variables GREENROOMPROBE_<var>
	if err := envconfig.Process("greenroomprobe", &opts); err != nil {
		log.Fatal("Configuration Failed", err.Error())
	}

	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(sanitiseLevel(opts.LogLevel))

	log.WithField("opts", opts).Info("greenroom-probe starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channelSignal := make(chan os.Signal, 1)
	signal.Notify(channelSignal, os.Interrupt)
	go func() {
		<-channelSignal
		cancel()
	}()

	if opts.Every <= 0 {
		if err := Check(ctx, opts); err != nil {
			log.WithField("error", err.Error()).Error("probe failed")
			os.Exit(1)
		}
		log.Info("probe ok")
		return
	}

	for {
		if err := Check(ctx, opts); err != nil {
			log.WithField("error", err.Error()).Error("probe failed")
		} else {
			log.Info("probe ok")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(opts.Every):
		}
	}
}

// Check runs the three probes against the target: GET /health must
// answer status ok, GET /rooms must answer a JSON array, and /ws must
// accept a websocket dial. A pre-join session that sends nothing leaves
// no state in the hub.
func Check(ctx context.Context, opts Opts) error {

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client := &http.Client{Timeout: opts.Timeout}

	body, err := get(ctx, client, opts.Target+"/health")
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("health: decoding %q: %w", body, err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("health: status %q", health.Status)
	}

	body, err = get(ctx, client, opts.Target+"/rooms")
	if err != nil {
		return fmt.Errorf("rooms: %w", err)
	}

	var rooms []json.RawMessage
	if err := json.Unmarshal(body, &rooms); err != nil {
		return fmt.Errorf("rooms: decoding %q: %w", body, err)
	}

	wsURL, err := signalingURL(opts.Target)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial %s: %w", wsURL, err)
	}

	err = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	if err != nil {
		return fmt.Errorf("ws close: %w", err)
	}

	return nil
}

// signalingURL maps the http(s) target base to its ws(s) /ws endpoint.
func signalingURL(target string) (string, error) {

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("target url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("target scheme must be http or https, not %s", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	return u.String(), nil
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	return body, nil
}

func sanitiseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
