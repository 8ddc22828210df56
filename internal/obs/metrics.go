package obs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500}
	} else {
		sort.Float64s(buckets)
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	mustRegisterCollector(reg, m.ReqTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.ReqTotal = v
		}
	})
	mustRegisterCollector(reg, m.ReqDur, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.ReqDur = v
		}
	})
	mustRegisterCollector(reg, m.InFlight, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Gauge); ok {
			m.InFlight = v
		}
	})
	return m
}

var (
	domainOnce sync.Once

	// ContactSubmissionsTotal counts contact form submissions by disposition.
	ContactSubmissionsTotal *prometheus.CounterVec
	// MailSendTotal counts SMTP send attempts by message tag and result.
	MailSendTotal *prometheus.CounterVec
	// MailSendLatency records SMTP send latency in milliseconds.
	MailSendLatency *prometheus.HistogramVec
	// AutoReplySkippedTotal counts acknowledgments withheld by the loop guard.
	AutoReplySkippedTotal *prometheus.CounterVec
	// BackgroundTaskFailures counts detached tasks that returned an error or panicked.
	BackgroundTaskFailures *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ContactSubmissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_submissions_total",
			Help:      "Count of contact form submissions by disposition.",
		}, []string{"disposition"})
		MailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_send_total",
			Help:      "Count of outbound mail attempts by message tag and result.",
		}, []string{"tag", "result"})
		MailSendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mail_send_duration_ms",
			Help:      "Latency for outbound mail attempts in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"tag"})
		AutoReplySkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_reply_skipped_total",
			Help:      "Number of acknowledgments not sent, by reason.",
		}, []string{"reason"})
		BackgroundTaskFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "background_task_failures_total",
			Help:      "Number of detached tasks that failed.",
		}, []string{"task"})

		mustRegisterCollector(reg, ContactSubmissionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ContactSubmissionsTotal = v
			}
		})
		mustRegisterCollector(reg, MailSendTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				MailSendTotal = v
			}
		})
		mustRegisterCollector(reg, MailSendLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				MailSendLatency = v
			}
		})
		mustRegisterCollector(reg, AutoReplySkippedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				AutoReplySkippedTotal = v
			}
		})
		mustRegisterCollector(reg, BackgroundTaskFailures, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BackgroundTaskFailures = v
			}
		})
	})
}

// ObserveSubmission records the disposition of a contact submission.
func ObserveSubmission(disposition string) {
	if ContactSubmissionsTotal != nil {
		ContactSubmissionsTotal.WithLabelValues(disposition).Inc()
	}
}

// ObserveMailSend records the outcome and latency of one mail attempt.
func ObserveMailSend(tag, result string, took time.Duration) {
	if MailSendTotal != nil {
		MailSendTotal.WithLabelValues(tag, result).Inc()
	}
	if MailSendLatency != nil {
		MailSendLatency.WithLabelValues(tag).Observe(DurationMillis(took))
	}
}

// ObserveAutoReplySkipped records why an acknowledgment was withheld.
func ObserveAutoReplySkipped(reason string) {
	if AutoReplySkippedTotal != nil {
		AutoReplySkippedTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveTaskFailure records a failed detached task.
func ObserveTaskFailure(task string) {
	if BackgroundTaskFailures != nil {
		BackgroundTaskFailures.WithLabelValues(task).Inc()
	}
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
