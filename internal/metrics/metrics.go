// Package metrics 보드 허브 Prometheus 수집기
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventsDropped 사유
const (
	DropRateLimited  = "rate_limited"
	DropMalformed    = "malformed"
	DropUnknownEvent = "unknown_event"
	DropUnauthorized = "unauthorized"
	DropNotFound     = "not_found"
	DropSlowClient   = "slow_client"
)

// MirrorUpdates 결과
const (
	MirrorWritten   = "written"
	MirrorCoalesced = "coalesced"
	MirrorFailed    = "failed"
)

var (
	Connections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "board_ws_connections",
			Help: "Current number of open board websocket connections",
		},
	)

	BoardsWithViewers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "board_active_boards",
			Help: "Current number of boards with at least one viewer",
		},
	)

	ActivePresentations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "board_active_presentations",
			Help: "Current number of boards in presentation mode",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_events_received_total",
			Help: "Inbound websocket events by type",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_events_dropped_total",
			Help: "Inbound events dropped without effect, by reason",
		},
		[]string{"reason"},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_messages_sent_total",
			Help: "Outbound websocket messages queued, by type",
		},
		[]string{"type"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_store_errors_total",
			Help: "Persistence failures by operation",
		},
		[]string{"operation"},
	)

	MirrorUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_presence_mirror_updates_total",
			Help: "Presence mirror updates by outcome",
		},
		[]string{"result"},
	)

	EventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "board_event_duration_seconds",
			Help:    "Time spent handling one inbound event in the hub loop",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)
