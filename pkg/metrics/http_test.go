package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/products/{slug}", "GET", 200, 15*time.Millisecond)
	m.Observe("/api/products/{slug}", "GET", 200, 5*time.Millisecond)
	m.Observe("", "GET", 404, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_http_requests_total", "route", "/api/products/{slug}"); err != nil || got != 2 {
		t.Fatalf("expected 2 requests, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_http_requests_total", "route", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown route counter, got %f err=%v", got, err)
	}
}

func TestCommerceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommerceMetrics(reg)
	m.IncOrdersPlaced("COD")
	m.AddCouponsExpired(3)
	m.AddCouponsExpired(0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_orders_placed_total", "payment_method", "COD"); err != nil || got != 1 {
		t.Fatalf("expected 1 order, got %f err=%v", got, err)
	}
	mf := findMetricFamily(mfs, "storefront_coupons_expired_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected 3 expired coupons")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewHTTPMetrics(nil).Observe("/", "GET", 200, time.Millisecond)
	NewCommerceMetrics(nil).IncOrdersPlaced("COD")
	var c *CommerceMetrics
	c.AddCouponsExpired(1)
}
