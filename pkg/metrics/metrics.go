// Package metrics exposes Prometheus counters for BSCP connections and
// requests.
//
// A Collector plugs into the TCP transport as a transport.ConnObserver and
// wraps the request handler:
//
//	m := metrics.New(metrics.Config{Registry: reg})
//	tcp, _ := transport.NewTCP(transport.TCPConfig{Observer: m, ...})
//	handler := m.InstrumentHandler(request.NewMux(request.MuxConfig{}))
//
// Metrics collected:
//   - bscp_connections_opened_total: connections accepted
//   - bscp_connections_active: connections currently being served
//   - bscp_connections_closed_total: closed connections by outcome
//   - bscp_connection_duration_seconds: time from accept to close
//   - bscp_requests_total: structured requests by result
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agrael11/BSCP/pkg/session"
	"github.com/Agrael11/BSCP/pkg/transport"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "bscp"

// Connection outcomes.
const (
	OutcomeOK              = "ok"
	OutcomeReset           = "reset"
	OutcomeFraming         = "framing"
	OutcomeHandshake       = "handshake"
	OutcomeVersionMismatch = "version_mismatch"
	OutcomeKeyExchange     = "key_exchange"
	OutcomeProtocol        = "protocol"
	OutcomeOther           = "other"
)

// Request results.
const (
	ResultResponded = "responded"
	ResultDropped   = "dropped"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "bscp").
	Namespace string

	// Buckets are the histogram buckets for connection duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Collector records connection and request metrics.
type Collector struct {
	opened   prometheus.Counter
	active   prometheus.Gauge
	closed   *prometheus.CounterVec
	duration prometheus.Histogram
	requests *prometheus.CounterVec
}

var _ transport.ConnObserver = (*Collector)(nil)

// New registers the metrics with config.Registry and returns the collector.
// It panics if the metrics are already registered, as promauto does.
func New(config Config) *Collector {
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		opened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "connections_opened_total",
			Help:      "Total number of accepted connections",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "connections_active",
			Help:      "Number of connections currently being served",
		}),
		closed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "connections_closed_total",
			Help:      "Total number of closed connections by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "connection_duration_seconds",
			Help:      "Connection lifetime in seconds",
			Buckets:   config.Buckets,
		}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "requests_total",
			Help:      "Total number of structured requests by result",
		}, []string{"result"}),
	}
}

// ConnOpened implements transport.ConnObserver.
func (c *Collector) ConnOpened(id string) {
	c.opened.Inc()
	c.active.Inc()
}

// ConnClosed implements transport.ConnObserver.
func (c *Collector) ConnClosed(id string, err error, elapsed time.Duration) {
	c.active.Dec()
	c.closed.WithLabelValues(Outcome(err)).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// InstrumentHandler counts the requests passing through next.
func (c *Collector) InstrumentHandler(next session.RequestHandler) session.RequestHandler {
	return session.HandlerFunc(func(text string) (string, bool) {
		response, ok := next.HandleRequest(text)
		if ok {
			c.requests.WithLabelValues(ResultResponded).Inc()
		} else {
			c.requests.WithLabelValues(ResultDropped).Inc()
		}
		return response, ok
	})
}

// Outcome classifies the error a session ended with.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, session.ErrConnectionReset):
		return OutcomeReset
	case errors.Is(err, session.ErrFraming):
		return OutcomeFraming
	case errors.Is(err, session.ErrHandshake):
		return OutcomeHandshake
	case errors.Is(err, session.ErrVersionMismatch), errors.Is(err, session.ErrUnsupportedVersion):
		return OutcomeVersionMismatch
	case errors.Is(err, session.ErrKeyImport):
		return OutcomeKeyExchange
	case errors.Is(err, session.ErrProtocol):
		return OutcomeProtocol
	default:
		return OutcomeOther
	}
}

// Handler returns the HTTP handler serving gatherer in the Prometheus text
// format. A nil gatherer serves prometheus.DefaultGatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
