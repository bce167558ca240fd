package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "immo",
		Subsystem: "realtime",
		Name:      "open_sessions",
		Help:      "Number of live sessions currently registered.",
	})
	eventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "immo",
		Subsystem: "realtime",
		Name:      "events_emitted_total",
		Help:      "Events emitted to rooms, by event type.",
	}, []string{"event"})
	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "immo",
		Subsystem: "realtime",
		Name:      "events_delivered_total",
		Help:      "Events handed to a session's outbound buffer.",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "immo",
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a session's buffer was full.",
	})
)
