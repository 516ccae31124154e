// Package metrics holds the domain Prometheus collectors. HTTP request
// metrics live in internal/httpapi.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eigend",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Completed chat turns by outcome (ok, cancelled, error)",
		},
		[]string{"outcome"},
	)

	ChatToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eigend",
			Subsystem: "chat",
			Name:      "tool_calls_total",
			Help:      "Tool invocations requested by the model",
		},
		[]string{"tool", "success"},
	)

	DownloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eigend",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes written to disk by model downloads",
		},
	)

	ServerSwitchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eigend",
			Subsystem: "server",
			Name:      "switches_total",
			Help:      "Inference server start/switch attempts by outcome",
		},
		[]string{"outcome"},
	)

	ServerReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eigend",
			Subsystem: "server",
			Name:      "ready",
			Help:      "1 when the inference server passed its health probe",
		},
	)
)

func init() {
	prometheus.MustRegister(ChatTurnsTotal, ChatToolCallsTotal, DownloadBytesTotal, ServerSwitchesTotal, ServerReady)
}

// SetReady mirrors the readiness flag into the gauge.
func SetReady(v bool) {
	if v {
		ServerReady.Set(1)
		return
	}
	ServerReady.Set(0)
}

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeCancelled = "cancelled"
	OutcomeError     = "error"
)
