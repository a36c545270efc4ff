package metrics

// Metric names
const (
	MetricNameHTTPRequestsTotal   = "craftcheck_http_requests_total"
	MetricNameHTTPRequestDuration = "craftcheck_http_request_duration_seconds"
	MetricNamePriceRequests       = "craftcheck_price_api_requests_total"
	MetricNamePriceCacheLookups   = "craftcheck_price_cache_lookups_total"
	MetricNameEvaluations         = "craftcheck_recipe_evaluations_total"
)

// Help texts
const (
	HelpTextHTTPRequestsTotal   = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration = "HTTP request latency in seconds"
	HelpTextPriceRequests       = "Requests made to the price API by quality tier and outcome"
	HelpTextPriceCacheLookups   = "Price cache lookups by result"
	HelpTextEvaluations         = "Recipe evaluations by outcome"
)

// Labels
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelQuality = "quality"
	LabelOutcome = "outcome"
	LabelResult  = "result"
)

// Label values
const (
	OutcomeSuccess        = "success"
	OutcomeError          = "error"
	OutcomeUnknownRecipe  = "unknown_recipe"
	OutcomeUnavailable    = "price_service_unavailable"
	OutcomeCannotEvaluate = "cannot_evaluate"

	CacheHit  = "hit"
	CacheMiss = "miss"

	// PathUnmatched labels requests that matched no route.
	PathUnmatched = "unmatched"
)

// HTTPLatencyBuckets covers fast cache hits up to slow two-call lookups.
var HTTPLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
