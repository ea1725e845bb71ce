package metrics

import (
	"log"

	"net/http"

	"github.com/offloadml/offloadml/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Enabled bool
var registry = prometheus.NewRegistry()
var ScrapingHandler http.Handler = nil
var predictBuckets = []float64{0.0005, 0.001, 0.002, 0.005, 0.010, 0.02, 0.05, 0.1}

const (
	DECISIONS        = "offload_decisions_total"
	PREDICT_LATENCY  = "offload_predict_latency"
	TELEMETRY_WRITES = "telemetry_writes_total"
)

var (
	metricDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: DECISIONS,
		Help: "Number of offload decisions served, by predicted label",
	}, []string{"decision"})
	metricPredictLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    PREDICT_LATENCY,
		Help:    "Predict call duration",
		Buckets: predictBuckets,
	})
	metricTelemetryWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: TELEMETRY_WRITES,
		Help: "Number of telemetry append attempts, by outcome",
	}, []string{"status"})
)

func Init() {
	if config.GetBool(config.METRICS_ENABLED, false) {
		log.Println("Metrics enabled.")
		Enabled = true
	} else {
		Enabled = false
		return
	}

	registry.MustRegister(metricDecisions)
	registry.MustRegister(metricPredictLatency)
	registry.MustRegister(metricTelemetryWrites)

	ScrapingHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true})

	if config.GetBool(config.METRICS_RETRIEVER_ENABLED, false) {
		go ServerLoadRetriever()
	}
}

func AddDecision(label string) {
	if !Enabled {
		return
	}
	metricDecisions.With(prometheus.Labels{"decision": label}).Inc()
}

func ObservePredictLatency(seconds float64) {
	if !Enabled {
		return
	}
	metricPredictLatency.Observe(seconds)
}

func AddTelemetryWrite(ok bool) {
	if !Enabled {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	metricTelemetryWrites.With(prometheus.Labels{"status": status}).Inc()
}
