package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    inferenceReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "florenceapi",
            Name:      "inference_requests_total",
            Help:      "Total inference requests by task and result",
        },
        []string{"task", "result"},
    )

    inferenceLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "florenceapi",
            Name:      "inference_duration_seconds",
            Help:      "Duration of the full inference pipeline by task",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"task"},
    )

    renderFailures = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "florenceapi",
            Name:      "render_failures_total",
            Help:      "Visualization failures recovered without failing the call, by task",
        },
        []string{"task"},
    )

    storageOps = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "florenceapi",
            Name:      "storage_operations_total",
            Help:      "Object storage operations by op and result",
        },
        []string{"op", "result"},
    )

    activeInference = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "florenceapi",
            Name:      "active_inference",
            Help:      "Inference calls currently holding a capacity slot",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(inferenceReqs, inferenceLatency, renderFailures, storageOps, activeInference)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveInference(task, result string, dur time.Duration) {
    inferenceReqs.WithLabelValues(task, result).Inc()
    inferenceLatency.WithLabelValues(task).Observe(dur.Seconds())
}

func IncRenderFailure(task string) { renderFailures.WithLabelValues(task).Inc() }

func IncStorageOp(op, result string) { storageOps.WithLabelValues(op, result).Inc() }

func InferenceStarted()  { activeInference.Inc() }
func InferenceFinished() { activeInference.Dec() }
