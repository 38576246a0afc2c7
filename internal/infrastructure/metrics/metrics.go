package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	TransactionsSubmitted *prometheus.CounterVec
	TransactionsSettled   *prometheus.CounterVec
	Compensations         prometheus.Counter
	IdempotentReplays     prometheus.Counter
	TransferErrors        *prometheus.CounterVec
	TransferDuration      prometheus.Histogram
	TransferAmount        prometheus.Histogram

	// Payment metrics
	PaymentsScheduled prometheus.Counter
	PaymentsExecuted  *prometheus.CounterVec

	// Account metrics
	AccountsOpened prometheus.Counter

	// Gateway metrics
	OrdersCreated     prometheus.Counter
	OrdersPaid        prometheus.Counter
	WebhookRejections prometheus.Counter

	// Assistant metrics
	AssistantRequests *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Background work
	WorkerRuns      *prometheus.CounterVec
	OutboxPublished prometheus.Counter

	// Database
	DBRetries *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		TransactionsSubmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_transactions_submitted_total",
				Help: "Transactions recorded by the ledger, by type and initial status",
			},
			[]string{"type", "status"},
		),
		TransactionsSettled: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_transactions_settled_total",
				Help: "Pending transactions moved to a terminal status",
			},
			[]string{"status"},
		),
		Compensations: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_compensations_total",
			Help: "Compensating credits posted after a failed or cancelled debit",
		}),
		IdempotentReplays: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_idempotent_replays_total",
			Help: "Requests answered from an existing idempotency key",
		}),
		TransferErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_transfer_errors_total",
				Help: "Rejected money movements by error type",
			},
			[]string{"error_type"},
		),
		TransferDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_transfer_duration_seconds",
			Help:    "Duration of ledger mutations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankcore_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		PaymentsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_payments_scheduled_total",
			Help: "Bill payments scheduled for a future date",
		}),
		PaymentsExecuted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_payments_executed_total",
				Help: "Bill payment executions by result",
			},
			[]string{"result"},
		),

		AccountsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_accounts_opened_total",
			Help: "Accounts opened",
		}),

		OrdersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_gateway_orders_created_total",
			Help: "Checkout orders created with the payment gateway",
		}),
		OrdersPaid: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_gateway_orders_paid_total",
			Help: "Checkout orders captured and credited",
		}),
		WebhookRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_webhook_rejections_total",
			Help: "Gateway webhooks rejected for a bad signature",
		}),

		AssistantRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_assistant_requests_total",
				Help: "Assistant chat turns by result",
			},
			[]string{"result"},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankcore_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "bankcore_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		AuthAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_auth_attempts_total",
				Help: "Authentication attempts by result",
			},
			[]string{"result"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),

		WorkerRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_worker_runs_total",
				Help: "Background job runs by job and result",
			},
			[]string{"job", "result"},
		),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "bankcore_outbox_published_total",
			Help: "Outbox events delivered to the broker",
		}),

		DBRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankcore_db_retries_total",
				Help: "Database transactions retried after a transient conflict, by SQLSTATE",
			},
			[]string{"code"},
		),
	}
}
