package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickcal",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of picker API requests broken down by endpoint and result.",
	}, []string{"endpoint", "result"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pickcal",
		Subsystem: "api",
		Name:      "latency_seconds",
		Help:      "Latency distribution for picker API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"endpoint", "result"})

	tapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickcal",
		Subsystem: "picker",
		Name:      "taps_total",
		Help:      "Taps applied to picker sessions, by mode and whether the selection changed.",
	}, []string{"mode", "changed"})

	// sessionsGauge is process-wide and tracks the most recently built
	// Server; a binary runs one.
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pickcal",
		Subsystem: "picker",
		Name:      "sessions",
		Help:      "Number of live picker sessions.",
	})

	marksRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pickcal",
		Subsystem: "ics",
		Name:      "marks_refresh_total",
		Help:      "ICS marks refreshes by result.",
	}, []string{"result"})
)

type statusRecordingResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecordingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecordingResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecordingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecordingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		result := resultLabel(rec.status)
		apiRequests.WithLabelValues(endpoint, result).Inc()
		apiLatency.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
	}
}

func resultLabel(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
