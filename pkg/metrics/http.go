package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latencies per route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{requests: requests, duration: duration}
}

// Observe records one completed request.
func (h *HTTPMetrics) Observe(route, method string, status int, duration time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	route = normalizeLabel(route)
	h.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// CommerceMetrics counts storefront business events.
type CommerceMetrics struct {
	ordersPlaced   *prometheus.CounterVec
	couponsExpired prometheus.Counter
}

// NewCommerceMetrics registers the business counters on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders placed by payment method.",
	}, []string{"payment_method"})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupons_expired_total",
		Help:      "Coupons deactivated after their expiry.",
	})
	reg.MustRegister(placed, expired)
	return &CommerceMetrics{ordersPlaced: placed, couponsExpired: expired}
}

func (c *CommerceMetrics) IncOrdersPlaced(paymentMethod string) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (c *CommerceMetrics) AddCouponsExpired(n int64) {
	if c == nil || c.couponsExpired == nil || n <= 0 {
		return
	}
	c.couponsExpired.Add(float64(n))
}
