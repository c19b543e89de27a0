package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listingbridge_exports_total",
		Help: "CSV export requests by platform and outcome.",
	}, []string{"platform", "outcome"})

	exportedProducts = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listingbridge_export_products",
		Help:    "Products written per CSV export.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"platform"})

	exportsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listingbridge_exports_active",
		Help: "Export batches currently running.",
	})

	transformsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listingbridge_transforms_total",
		Help: "Single-product transformations by platform and exportability.",
	}, []string{"platform", "exportable"})
)
