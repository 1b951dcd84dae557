// Package observability holds client metrics and the local debug endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntriesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "entries_ingested_total",
		Help:      "Log entries added to the event buffer",
	}, []string{"source"})

	PushDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "push_events_dropped_total",
		Help:      "Malformed push events discarded by the listener",
	})

	StatusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "status_polls_total",
		Help:      "Status polls by result (ok, error, discarded)",
	}, []string{"result"})

	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "actions_total",
		Help:      "Operator actions by kind and result",
	}, []string{"action", "result"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vigil",
		Name:      "action_duration_seconds",
		Help:      "Round-trip time of operator actions",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"action"})

	FramesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "stream_frames_total",
		Help:      "Video frames received from the live resource",
	})

	StreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vigil",
		Name:      "stream_errors_total",
		Help:      "Live resource failures",
	})

	ChannelConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "channel_connected",
		Help:      "1 while the push channel is connected",
	})

	BufferEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vigil",
		Name:      "buffer_entries",
		Help:      "Entries currently held by the event buffer",
	})
)
