package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transport timeout phases.
const (
	PhaseHandshake  = "handshake"
	PhaseFirstByte  = "first_byte"
	PhaseTerminator = "terminator"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lx200bridge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "lx200",
			Name:      "commands_total",
			Help:      "Client commands by dispatch outcome.",
		},
		[]string{"outcome"},
	)
	forwardDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lx200bridge",
			Subsystem: "mount",
			Name:      "forward_duration_seconds",
			Help:      "Time spent on the serial link per forwarded command.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)
	transportTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "mount",
			Name:      "timeouts_total",
			Help:      "Serial link timeouts by phase.",
		},
		[]string{"phase"},
	)
	clientSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "client",
			Name:      "sessions_total",
			Help:      "Client connections by admission result.",
		},
		[]string{"result"},
	)
	sessionEnds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "client",
			Name:      "session_ends_total",
			Help:      "Client sessions by termination reason.",
		},
		[]string{"reason"},
	)
	probes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lx200bridge",
			Subsystem: "client",
			Name:      "probes_total",
			Help:      "Mount-type probe bytes answered.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			commands,
			forwardDuration,
			transportTimeouts,
			clientSessions,
			sessionEnds,
			probes,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCommand(outcome string) {
	RegisterMetrics()
	commands.WithLabelValues(outcome).Inc()
}

func RecordForward(outcome string, duration time.Duration) {
	RegisterMetrics()
	forwardDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordTransportTimeout(phase string) {
	RegisterMetrics()
	transportTimeouts.WithLabelValues(phase).Inc()
}

func RecordClientSession(result string) {
	RegisterMetrics()
	clientSessions.WithLabelValues(result).Inc()
}

func RecordSessionEnd(reason string) {
	RegisterMetrics()
	sessionEnds.WithLabelValues(reason).Inc()
}

func RecordProbe() {
	RegisterMetrics()
	probes.Inc()
}
