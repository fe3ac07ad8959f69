package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Refresh engine metrics
	RefreshDurationSeconds *prometheus.HistogramVec
	AlbumWritesTotal       *prometheus.CounterVec
	ExceedFallbacksTotal   prometheus.Counter
	RecomputeSkipsTotal    prometheus.Counter

	// Transaction metrics
	TransactionRetriesTotal prometheus.Counter
	TransactionsTotal       *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec

	// Storage metrics
	StorageUsedPercent *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all required metrics registered
func NewMetrics() *Metrics {
	return &Metrics{
		RefreshDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "photostore_refresh_duration_seconds",
				Help: "Duration of album aggregate recomputes in seconds",
			},
			[]string{"mode"},
		),
		AlbumWritesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photostore_album_writes_total",
				Help: "Total album aggregate writes, by outcome",
			},
			[]string{"outcome"},
		),
		ExceedFallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "photostore_exceed_fallbacks_total",
				Help: "Total batches redirected from incremental to full recompute",
			},
		),
		RecomputeSkipsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "photostore_recompute_skips_total",
				Help: "Total per-album recomputes skipped after a query failure",
			},
		),
		TransactionRetriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "photostore_transaction_retries_total",
				Help: "Total retried transaction starts",
			},
		),
		TransactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photostore_transactions_total",
				Help: "Total transactions, by result",
			},
			[]string{"result"},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photostore_notifications_total",
				Help: "Total change notifications dispatched, by change type",
			},
			[]string{"change_type"},
		),
		StorageUsedPercent: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "photostore_storage_used_percent",
				Help: "Disk usage of the media storage volume, percent",
			},
			[]string{"path"},
		),
	}
}

// InitializeMetrics sets up default values for metrics
func InitializeMetrics() *Metrics {
	metrics := NewMetrics()

	metrics.TransactionsTotal.WithLabelValues("committed").Add(0)
	metrics.TransactionsTotal.WithLabelValues("rolled_back").Add(0)
	metrics.TransactionsTotal.WithLabelValues("busy").Add(0)

	return metrics
}
