// Package metrics exposes dictation counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coleski/win-voice/internal/log"
	"github.com/coleski/win-voice/internal/record"
)

// Metrics holds the application collectors. It implements record.Observer.
type Metrics struct {
	Registry *prometheus.Registry

	SessionsStarted   prometheus.Counter
	SessionsDiscarded prometheus.Counter
	SessionsFailed    prometheus.Counter
	SessionsEmpty     prometheus.Counter
	Pastes            prometheus.Counter
	SamplesDropped    prometheus.Counter

	RecordingDuration     prometheus.Histogram
	TranscriptionDuration prometheus.Histogram
	State                 prometheus.Gauge

	EngineLoadSeconds prometheus.Gauge
	EngineInfo        *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_sessions_started_total",
			Help: "Total number of recordings started",
		}),
		SessionsDiscarded: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_sessions_discarded_total",
			Help: "Total number of recordings discarded as too short",
		}),
		SessionsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_sessions_failed_total",
			Help: "Total number of transcriptions that ended with an error",
		}),
		SessionsEmpty: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_sessions_empty_total",
			Help: "Total number of transcriptions with no text",
		}),
		Pastes: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_pastes_total",
			Help: "Total number of transcripts pasted",
		}),
		SamplesDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "winvoice_samples_dropped_total",
			Help: "Total number of samples dropped past the recording cap",
		}),
		RecordingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "winvoice_recording_duration_seconds",
			Help:    "Length of transcribed recordings",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "winvoice_transcription_duration_seconds",
			Help:    "Time spent in the inference engine per recording",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		State: f.NewGauge(prometheus.GaugeOpts{
			Name: "winvoice_state",
			Help: "Current machine state (0 idle, 1 recording, 2 processing)",
		}),
		EngineLoadSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "winvoice_engine_load_seconds",
			Help: "Time it took to load the inference engine",
		}),
		EngineInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "winvoice_engine_info",
			Help: "Loaded inference engine and provider",
		}, []string{"engine", "provider"}),
	}
}

// EngineLoaded records a successful engine load.
func (m *Metrics) EngineLoaded(engine, provider string, elapsed time.Duration) {
	m.EngineLoadSeconds.Set(elapsed.Seconds())
	m.EngineInfo.WithLabelValues(engine, provider).Set(1)
}

// ObserveTranscription records one inference duration.
func (m *Metrics) ObserveTranscription(d time.Duration) {
	m.TranscriptionDuration.Observe(d.Seconds())
}

func (m *Metrics) Started(*record.Session) {
	m.SessionsStarted.Inc()
	m.State.Set(float64(record.StateRecording))
}

func (m *Metrics) Discarded(*record.Session) {
	m.SessionsDiscarded.Inc()
	m.State.Set(float64(record.StateIdle))
}

func (m *Metrics) Processing(s *record.Session) {
	m.State.Set(float64(record.StateProcessing))
	m.RecordingDuration.Observe(s.Duration().Seconds())
	if s.Dropped > 0 {
		m.SamplesDropped.Add(float64(s.Dropped))
	}
}

func (m *Metrics) Finished(_ *record.Session, t record.Transcript, err error) {
	m.State.Set(float64(record.StateIdle))
	switch {
	case err != nil:
		m.SessionsFailed.Inc()
	case t.Delivered:
		m.Pastes.Inc()
	default:
		m.SessionsEmpty.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, lg *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
