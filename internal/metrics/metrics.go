package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Price API Metrics
var (
	PriceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePriceRequests,
			Help: HelpTextPriceRequests,
		},
		[]string{LabelQuality, LabelOutcome},
	)

	PriceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePriceCacheLookups,
			Help: HelpTextPriceCacheLookups,
		},
		[]string{LabelResult},
	)
)

// Business Metrics
var (
	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEvaluations,
			Help: HelpTextEvaluations,
		},
		[]string{LabelOutcome},
	)
)
