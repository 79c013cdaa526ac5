// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smart_job_kit"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsDropped *prometheus.CounterVec

	// Caption metrics
	CaptionFragments *prometheus.CounterVec

	// Q&A metrics
	QAParses *prometheus.CounterVec
	QAPairs  prometheus.Histogram

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioFramesReceived prometheus.Counter

	// Kafka metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
	KafkaConsumed       *prometheus.CounterVec

	// Backend metrics
	BackendLatency *prometheus.HistogramVec
	BackendErrors  *prometheus.CounterVec

	// STT metrics
	STTErrors         *prometheus.CounterVec
	STTUtteranceCount prometheus.Counter

	// Archive metrics
	ArchiveUploads *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "code"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"route", "method"}),

		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caption_sessions_total",
			Help:      "Total number of caption sessions created",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "caption_sessions_active",
			Help:      "Number of currently open caption sessions",
		}),
		SessionsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caption_sessions_dropped_total",
			Help:      "Total number of caption sessions dropped",
		}, []string{"reason"}),

		CaptionFragments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caption_fragments_total",
			Help:      "Caption fragments ingested, by stabilizer decision",
		}, []string{"role", "decision"}),

		QAParses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qa_parses_total",
			Help:      "Q&A transcript parses, by the pass that produced the result",
		}, []string{"pass"}),
		QAPairs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qa_pairs",
			Help:      "Number of Q&A pairs per parsed transcript",
			Buckets:   []float64{0, 1, 3, 5, 10, 15, 20, 30, 50},
		}),

		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),
		AudioFramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_received_total",
			Help:      "Total audio frames received",
		}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
		KafkaConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_consumed_total",
			Help:      "Total number of Kafka messages consumed",
		}, []string{"topic", "result"}),

		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "AI backend request latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"operation"}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Total number of failed AI backend requests",
		}, []string{"operation"}),

		STTErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "error_type"}),
		STTUtteranceCount: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_utterances_total",
			Help:      "Total number of utterances detected",
		}),

		ArchiveUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_uploads_total",
			Help:      "Q&A document uploads to the archive",
		}, []string{"result"}),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method, code string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(route, method, code).Inc()
	m.HTTPLatency.WithLabelValues(route, method).Observe(durationSeconds)
}

// RecordSessionOpened records a new caption session.
func (m *Metrics) RecordSessionOpened() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionClosed records a caption session leaving the registry.
func (m *Metrics) RecordSessionClosed() {
	m.SessionsActive.Dec()
}

// RecordSessionDropped records a session dropped before a normal close.
func (m *Metrics) RecordSessionDropped(reason string) {
	m.SessionsDropped.WithLabelValues(reason).Inc()
}

// RecordFragment records a stabilizer decision.
func (m *Metrics) RecordFragment(role, decision string) {
	m.CaptionFragments.WithLabelValues(role, decision).Inc()
}

// RecordQAParse records which parser pass produced a result and how many
// pairs it found.
func (m *Metrics) RecordQAParse(pass string, pairs int) {
	m.QAParses.WithLabelValues(pass).Inc()
	m.QAPairs.Observe(float64(pairs))
}

// RecordAudioReceived records audio bytes and frames received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioFramesReceived.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordKafkaConsumed records a consumed message and how it was handled.
func (m *Metrics) RecordKafkaConsumed(topic, result string) {
	m.KafkaConsumed.WithLabelValues(topic, result).Inc()
}

// RecordBackendCall records an AI backend call.
func (m *Metrics) RecordBackendCall(operation string, err error, latencySeconds float64) {
	m.BackendLatency.WithLabelValues(operation).Observe(latencySeconds)
	if err != nil {
		m.BackendErrors.WithLabelValues(operation).Inc()
	}
}

// RecordSTTError records an STT error.
func (m *Metrics) RecordSTTError(provider, errorType string) {
	m.STTErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordUtterance records an utterance boundary detection.
func (m *Metrics) RecordUtterance() {
	m.STTUtteranceCount.Inc()
}

// RecordArchiveUpload records an archive upload attempt.
func (m *Metrics) RecordArchiveUpload(err error) {
	if err != nil {
		m.ArchiveUploads.WithLabelValues("error").Inc()
		return
	}
	m.ArchiveUploads.WithLabelValues("ok").Inc()
}
