package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/kafka"
)

// Resultados de procesar un mensaje de movimiento.
const (
	OutcomeApplied   = "applied"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

var (
	// eventsTotal mensajes procesados por resultado y tipo de evento
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warehouse_movement_events_total",
		Help: "Movement messages processed by outcome and event type",
	}, []string{"outcome", "event"})

	// processingDuration latencia del handler, incluida la transacción del ledger
	processingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warehouse_movement_processing_seconds",
		Help:    "Movement message processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms a ~4s
	}, []string{"outcome"})

	consumerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "warehouse_consumer_state",
		Help: "1 for the current consumer lifecycle state, 0 otherwise",
	}, []string{"state"})
)

// ObserveConsumerState publica el estado actual del consumer en el gauge.
func ObserveConsumerState(s kafka.State) {
	for _, st := range []kafka.State{kafka.StateStopped, kafka.StateRunning, kafka.StateDraining} {
		v := 0.0
		if st == s {
			v = 1
		}
		consumerState.WithLabelValues(st.String()).Set(v)
	}
}
