package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors of the API. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  *prometheus.CounterVec
	TranscriptionDuration  prometheus.Histogram
	UploadedBytes          prometheus.Counter
	TokensDebited          prometheus.Counter

	// Billing metrics
	PaymentsStarted  *prometheus.CounterVec
	CreditsApplied   prometheus.Counter
	CreditsDuplicate prometheus.Counter
	TokensCredited   prometheus.Counter

	// Live updates
	EventSubscribers prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxscribe_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voxscribe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxscribe_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "route", "error_type"}),

		TranscriptionRequests: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_transcription_requests_total",
			Help: "Total number of upload-and-transcribe requests",
		}),
		TranscriptionSuccesses: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_transcription_successes_total",
			Help: "Total number of persisted transcriptions",
		}),
		TranscriptionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxscribe_transcription_failures_total",
			Help: "Total number of failed transcriptions by stage",
		}, []string{"stage"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxscribe_transcription_duration_seconds",
			Help:    "Duration of calls to the transcription endpoint",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17 minutes
		}),
		UploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_uploaded_bytes_total",
			Help: "Total bytes of media written to blob storage",
		}),
		TokensDebited: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_tokens_debited_total",
			Help: "Total tokens removed from balances by transcriptions",
		}),

		PaymentsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voxscribe_payments_started_total",
			Help: "Total payment intents and checkout sessions created",
		}, []string{"kind"}),
		CreditsApplied: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_credits_applied_total",
			Help: "Total purchases turned into tokens",
		}),
		CreditsDuplicate: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_credits_duplicate_total",
			Help: "Total repeated confirmations of an already credited purchase",
		}),
		TokensCredited: f.NewCounter(prometheus.CounterOpts{
			Name: "voxscribe_tokens_credited_total",
			Help: "Total tokens added to balances by purchases",
		}),

		EventSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "voxscribe_event_subscribers",
			Help: "Current number of open live update streams",
		}),
	}
}

// RecordHTTPRequest records an HTTP request and classifies error statuses.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		m.HTTPErrors.WithLabelValues(method, route, errorType).Inc()
	}
}

func (m *Metrics) RecordTranscriptionRequest() {
	if m == nil {
		return
	}
	m.TranscriptionRequests.Inc()
}

func (m *Metrics) RecordUpload(bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.UploadedBytes.Add(float64(bytes))
}

// RecordTranscriptionCall observes the time spent waiting on the endpoint.
func (m *Metrics) RecordTranscriptionCall(durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordTranscriptionSuccess(debited int64) {
	if m == nil {
		return
	}
	m.TranscriptionSuccesses.Inc()
	if debited > 0 {
		m.TokensDebited.Add(float64(debited))
	}
}

// RecordTranscriptionFailure counts a failure at stage (upload, url, token, endpoint, persist).
func (m *Metrics) RecordTranscriptionFailure(stage string) {
	if m == nil {
		return
	}
	m.TranscriptionFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordPaymentStarted(kind string) {
	if m == nil {
		return
	}
	m.PaymentsStarted.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordCredit(tokens int64, alreadyApplied bool) {
	if m == nil {
		return
	}
	if alreadyApplied {
		m.CreditsDuplicate.Inc()
		return
	}
	m.CreditsApplied.Inc()
	m.TokensCredited.Add(float64(tokens))
}

func (m *Metrics) SubscriberOpened() {
	if m == nil {
		return
	}
	m.EventSubscribers.Inc()
}

func (m *Metrics) SubscriberClosed() {
	if m == nil {
		return
	}
	m.EventSubscribers.Dec()
}

func statusLabel(status int) string {
	if status < 100 || status >= 600 {
		return "unknown"
	}
	return strconv.Itoa(status)
}
