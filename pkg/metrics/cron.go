package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records outcomes of the scheduled maintenance jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	lowStock prometheus.Gauge
	stale    prometheus.Gauge
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_success_total",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_failure_total",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "products_low_stock",
		Help: "Tracked products below the low stock threshold at the last check.",
	})
	stale := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orders_awaiting_payment_stale",
		Help: "Pix orders still awaiting payment past the configured age at the last check.",
	})
	reg.MustRegister(duration, success, failure, lowStock, stale)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		lowStock: lowStock,
		stale:    stale,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetLowStock publishes the size of the latest low stock report.
func (c *CronJobMetrics) SetLowStock(count int) {
	if c == nil || c.lowStock == nil {
		return
	}
	c.lowStock.Set(float64(count))
}

// SetStalePayments publishes how many pix orders are overdue for confirmation.
func (c *CronJobMetrics) SetStalePayments(count int) {
	if c == nil || c.stale == nil {
		return
	}
	c.stale.Set(float64(count))
}
