package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenroom_sessions_active",
		Help: "Number of live signaling sessions, joined or not.",
	})

	roomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenroom_rooms_active",
		Help: "Number of rooms in the registry.",
	})

	envelopesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_envelopes_received_total",
		Help: "Inbound envelopes that decoded successfully, by type.",
	}, []string{"type"})

	envelopesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_envelopes_dropped_total",
		Help: "Envelopes the hub declined to act on or deliver, by reason.",
	}, []string{"reason"})

	joinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_joins_total",
		Help: "Successful room joins, by role.",
	}, []string{"role"})

	joinFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_join_failures_total",
		Help: "Join requests refused with an ERROR envelope, by code.",
	}, []string{"code"})

	chatMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_chat_messages_total",
		Help: "Chat messages minted and logged, by kind.",
	}, []string{"kind"})

	signalsRelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenroom_signals_relayed_total",
		Help: "Signaling envelopes relayed to a live receiver, by type.",
	}, []string{"type"})
)
