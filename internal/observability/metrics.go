package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/bitsctl/internal/eval"
	"github.com/danmuck/bitsctl/internal/packet"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitsctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bitsctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	decodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bitsctl",
			Name:      "decode_total",
			Help:      "Transmissions decoded, by outcome.",
		},
		[]string{"result"},
	)
	decodeBits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bitsctl",
			Name:      "decode_bits",
			Help:      "Bits consumed by successfully decoded transmissions.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, decodeTotal, decodeBits)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordDecode counts one transmission outcome. bits is ignored on failure.
func RecordDecode(bits int, err error) {
	RegisterMetrics()
	decodeTotal.WithLabelValues(ResultLabel(err)).Inc()
	if err == nil {
		decodeBits.Observe(float64(bits))
	}
}

// ResultLabel classifies err into the error taxonomy used for metrics.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, packet.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, packet.ErrTruncatedStream):
		return "truncated"
	case errors.Is(err, packet.ErrMalformedPacket):
		return "malformed"
	case errors.Is(err, packet.ErrLiteralOverflow), errors.Is(err, eval.ErrOverflow):
		return "overflow"
	case errors.Is(err, packet.ErrTooDeep):
		return "too_deep"
	default:
		return "error"
	}
}
