package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// orderAmountBuckets covers typical order totals in BRL.
var orderAmountBuckets = []float64{10, 25, 50, 75, 100, 150, 250, 500}

// CheckoutMetrics records cart and order commit outcomes.
type CheckoutMetrics struct {
	committed      *prometheus.CounterVec
	stockConflicts prometheus.Counter
	orderTotal     *prometheus.HistogramVec
	duration       *prometheus.HistogramVec
	rejections     *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_committed_total",
		Help: "Orders committed, by payment method.",
	}, []string{"payment_method"})
	stockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_stock_conflicts_total",
		Help: "Order commits rejected because a line exceeded available stock.",
	})
	orderTotal := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_total_amount",
		Help:    "Committed order totals in store currency.",
		Buckets: orderAmountBuckets,
	}, []string{"payment_method"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_rejections_total",
		Help: "Cart mutations and checkouts rejected, by reason.",
	}, []string{"reason"})
	reg.MustRegister(committed, stockConflicts, orderTotal, duration, rejections)
	return &CheckoutMetrics{
		committed:      committed,
		stockConflicts: stockConflicts,
		orderTotal:     orderTotal,
		duration:       duration,
		rejections:     rejections,
	}
}

// OrderCommitted counts the order and observes its total.
func (c *CheckoutMetrics) OrderCommitted(paymentMethod string, total float64) {
	if c == nil || c.committed == nil {
		return
	}
	method := normalizeLabel(paymentMethod)
	c.committed.WithLabelValues(method).Inc()
	c.orderTotal.WithLabelValues(method).Observe(total)
}

// StockConflict counts a commit rejected for insufficient stock.
func (c *CheckoutMetrics) StockConflict() {
	if c == nil || c.stockConflicts == nil {
		return
	}
	c.stockConflicts.Inc()
}

// ObserveCheckout records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// CartRejected counts a rejected cart mutation or checkout.
func (c *CheckoutMetrics) CartRejected(reason string) {
	if c == nil || c.rejections == nil {
		return
	}
	c.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
