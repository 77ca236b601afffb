package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salonbook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	submissionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submission_attempts_total",
			Help:      "Upstream booking submission attempts by outcome kind.",
		},
		[]string{"outcome"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Finished booking submissions by result.",
		},
		[]string{"result"},
	)

	slotFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_fetches_total",
			Help:      "Time slot fetches by result (ok, error, stale).",
		},
		[]string{"result"},
	)

	otpEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_events_total",
			Help:      "Phone verification events.",
		},
		[]string{"event"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, submissionAttempts, submissions, slotFetches, otpEvents)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncSubmissionAttempt(outcome string) {
	submissionAttempts.WithLabelValues(outcome).Inc()
}

func IncSubmission(result string) {
	submissions.WithLabelValues(result).Inc()
}

func IncSlotFetch(result string) {
	slotFetches.WithLabelValues(result).Inc()
}

func IncOTP(event string) {
	otpEvents.WithLabelValues(event).Inc()
}
