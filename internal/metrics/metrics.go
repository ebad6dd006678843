package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notifier_batch_duration_seconds",
			Help:    "Duration of each daily notification batch in seconds.",
			Buckets: []float64{1, 10, 60, 300, 900, 1800},
		},
	)
	NotificationsCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_notifications_created_total",
			Help: "Total number of deadline notifications recorded.",
		},
	)
	EmailsSentCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_digest_emails_sent_total",
			Help: "Total number of digest emails accepted by the provider.",
		},
	)
	EmailsSkippedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_digest_emails_skipped_total",
			Help: "Total number of digest sends skipped before submission.",
		},
		[]string{"reason"},
	)
)

func StartMetricsServer() {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(BatchDuration)
	prometheus.MustRegister(NotificationsCreatedCounter)
	prometheus.MustRegister(EmailsSentCounter)
	prometheus.MustRegister(EmailsSkippedCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(":8080", nil))
	}()
}
