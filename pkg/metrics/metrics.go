package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// Check run metrics
	CheckRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_check_runs_total",
		Help: "Total number of check runs by outcome",
	}, []string{"namespace", "name", "outcome"})
	CheckRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mozalert_check_run_seconds",
		Help:    "Wall-clock duration of check runs",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"namespace", "name"})
	CheckTelemetry = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mozalert_check_telemetry",
		Help: "Telemetry values reported by check scripts via TELEMETRY log lines",
	}, []string{"namespace", "name", "key"})
	ChecksEscalated = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mozalert_check_escalated",
		Help: "Whether a check is currently in Escalated state (1) or not (0)",
	}, []string{"namespace", "name"})

	// Escalation delivery metrics
	EscalationsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_escalations_fired_total",
		Help: "Total number of escalation deliveries attempted, by type and result",
	}, []string{"type", "result"})
	EscalationsThrottled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_escalations_throttled_total",
		Help: "Total number of escalation deliveries dropped by the per-check rate limiter",
	}, []string{"namespace", "name"})

	// Mail queue metrics
	MailQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_mail_queued_total",
		Help: "Total number of mails accepted into the send queue",
	}, []string{"host"})
	MailQueueDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_mail_queue_dropped_total",
		Help: "Total number of mails dropped because the queue was full or stopped",
	}, []string{"host"})
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_mail_send_failure_total",
		Help: "Total number of mail sends that exhausted their retries",
	}, []string{"host"})

	// Reconciliation / sanity metrics
	StatusUpdateConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mozalert_status_update_conflicts_total",
		Help: "Total number of optimistic-concurrency conflicts while patching Check status",
	})
	CrashRecoveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mozalert_crash_recoveries_total",
		Help: "Total number of stale Running states converted into infrastructure errors",
	}, []string{"namespace", "name"})
	SanityCheckFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mozalert_sanity_check_failures_total",
		Help: "Total number of checks observed with next_check in the past while not Running",
	})
)

func init() {
	ctrlmetrics.Registry.MustRegister(
		CheckRuns,
		CheckRunDuration,
		CheckTelemetry,
		ChecksEscalated,
		EscalationsFired,
		EscalationsThrottled,
		MailQueued,
		MailQueueDropped,
		MailSendSuccess,
		MailSendFailure,
		StatusUpdateConflicts,
		CrashRecoveries,
		SanityCheckFailures,
	)
}
