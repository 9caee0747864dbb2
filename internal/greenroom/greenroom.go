// Package greenroom assembles the signaling hub behind a single-port
// HTTP surface: the websocket signaling channel plus read-only room and
// chat endpoints, session stats, and metrics.
package greenroom

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/onairhq/greenroom/internal/hub"
)

// Config represents configuration options for a greenroom instance.
type Config struct {

	// Listen is the listening port
	Listen int
}

// NewDefaultConfig returns a pointer to a Config struct with default
// parameters.
func NewDefaultConfig() *Config {
	return &Config{Listen: 3000}
}

// WithListen specifies which (int) port to listen on.
func (c *Config) WithListen(listen int) *Config {
	c.Listen = listen
	return c
}

// Serve runs the hub and its HTTP surface until closed is closed, then
// shuts the server down gracefully and signals parentwg.
func Serve(closed <-chan struct{}, parentwg *sync.WaitGroup, config Config) {

	h := hub.New()

	router := mux.NewRouter()

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		h.ServeWs(closed, w, r)
	})
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/rooms", handleRooms(h)).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room_id}/messages", handleMessages(h)).Methods(http.MethodGet)
	router.HandleFunc("/stats", handleStats(h)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// the read surface is consumed cross-origin by the web app
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(config.Listen),
		Handler: cors(router),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithField("error", err.Error()).Fatal("ListenAndServe")
		}
	}()

	log.WithField("port", config.Listen).Info("greenroom listening")

	<-closed

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("server shutdown")
	}

	parentwg.Done()
	log.Trace("greenroom done")
}
