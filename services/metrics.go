package services

import (
	"github.com/flashbots/onionnet/onion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "onionnet"

var (
	packetsBuiltTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "packets_built_total",
			Help:      "Total number of layered packets built by users",
		},
	)

	layersUnwrappedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "layers_unwrapped_total",
			Help:      "Total number of layers successfully peeled by relays",
		},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "failures_total",
			Help:      "Total number of failed sends and relay hops",
		},
		[]string{"class"}, // precondition, crypto, delivery, internal
	)

	forwardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "forward_duration_seconds",
			Help:      "Time a relay waits for the next hop to accept a payload",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func recordFailure(err error) {
	failuresTotal.WithLabelValues(string(onion.Classify(err))).Inc()
}
