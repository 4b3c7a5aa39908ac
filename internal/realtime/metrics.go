package realtime

import "github.com/prometheus/client_golang/prometheus"

var (
	subscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "balance_stream_subscribers",
		Help: "Open balance websocket subscriptions on this instance",
	})
	deliveredEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "balance_stream_events_delivered_total",
		Help: "Balance events queued to subscribers",
	})
	droppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "balance_stream_events_dropped_total",
		Help: "Balance events dropped for slow subscribers",
	})
)

func init() {
	prometheus.MustRegister(subscribersGauge)
	prometheus.MustRegister(deliveredEvents)
	prometheus.MustRegister(droppedEvents)
}
