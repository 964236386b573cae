package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the SOC pipeline.
type Metrics struct {
	LogsIngestedTotal    prometheus.Counter
	IngestRejectedTotal  prometheus.Counter
	AlertsTotal          *prometheus.CounterVec
	IncidentsTotal       prometheus.Counter
	ActionsTotal         *prometheus.CounterVec
	SinkErrorsTotal      *prometheus.CounterVec
}

// NewMetrics registers all collectors against the given registerer. Tests
// pass a private registry to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LogsIngestedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "soc_logs_ingested_total",
			Help: "Total number of log records ingested",
		}),
		IngestRejectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "soc_ingest_rejected_total",
			Help: "Total number of malformed ingestion requests rejected",
		}),
		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soc_alerts_total",
			Help: "Total number of alerts produced, by detection rule",
		}, []string{"reason"}),
		IncidentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "soc_incidents_total",
			Help: "Total number of incidents created",
		}),
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soc_actions_total",
			Help: "Total number of response actions executed, by action and status",
		}, []string{"action", "status"}),
		SinkErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "soc_sink_errors_total",
			Help: "Total number of ingest sink failures, by sink",
		}, []string{"sink"}),
	}
}
