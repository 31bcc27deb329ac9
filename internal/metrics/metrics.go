package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus metrics for the beacon pipeline.
type Metrics struct {
	EventsDispatched *prometheus.CounterVec
	SinkErrors       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	EnrichDuration   prometheus.Histogram
}

// NewMetrics creates and registers the beacon metrics on the given registry
// (nil registers on the default one).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		EventsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_events_dispatched_total",
				Help: "Total events dispatched by sink",
			},
			[]string{"sink"},
		),
		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_sink_errors_total",
				Help: "Total errors dispatching to a sink",
			},
			[]string{"sink"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_http_requests_total",
				Help: "Total ingest HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		EnrichDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "beacon_enrich_duration_seconds",
				Help:    "Duration of the network/geo enrichment lookup",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),
	}

	reg.MustRegister(m.EventsDispatched)
	reg.MustRegister(m.SinkErrors)
	reg.MustRegister(m.HTTPRequests)
	reg.MustRegister(m.EnrichDuration)

	return m
}

func (m *Metrics) IncrementEventsDispatched(sink string) {
	m.EventsDispatched.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementSinkErrors(sink string) {
	m.SinkErrors.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementHTTPRequests(endpoint, status string) {
	m.HTTPRequests.WithLabelValues(endpoint, status).Inc()
}

func (m *Metrics) ObserveEnrichDuration(d time.Duration) {
	m.EnrichDuration.Observe(d.Seconds())
}

// Server exposes /metrics on its own listener.
type Server struct {
	server *http.Server
	log    *zap.Logger
}

func NewServer(addr string, log *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Start runs the metrics server in the background.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Warn("metrics server error", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
