package handler

import (
	"fmt"
	"net/http"

	"github.com/santinisystems/catalog/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "catalog_product_cache_hits_total %d\n", snap.ProductCacheHits)
	writeMetric(w, "catalog_product_cache_misses_total %d\n", snap.ProductCacheMisses)
	writeMetric(w, "catalog_product_read_duration_seconds_count %d\n", snap.ProductReadDurationCount)
	writeMetric(w, "catalog_product_read_duration_seconds_sum %.6f\n", float64(snap.ProductReadDurationTotalNs)/1e9)

	writeMetric(w, "catalog_products_created_total %d\n", snap.ProductsCreated)
	writeMetric(w, "catalog_products_updated_total %d\n", snap.ProductsUpdated)
	writeMetric(w, "catalog_manufacturers_created_total %d\n", snap.ManufacturersCreated)
	writeMetric(w, "catalog_manufacturers_updated_total %d\n", snap.ManufacturersUpdated)

	writeMetric(w, "catalog_validation_failures_total %d\n", snap.ValidationFailures)
	writeMetric(w, "catalog_ownership_denials_total %d\n", snap.OwnershipDenials)

	writeMetric(w, "catalog_auth_failures_total %d\n", snap.AuthFailures)
	writeMetric(w, "catalog_tokens_issued_total %d\n", snap.TokensIssued)
	writeMetric(w, "catalog_rate_limited_total{scope=\"api\"} %d\n", snap.RateLimitedAPI)
	writeMetric(w, "catalog_rate_limited_total{scope=\"token\"} %d\n", snap.RateLimitedToken)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
