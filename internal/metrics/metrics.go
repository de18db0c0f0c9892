package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_fetch_attempts_total",
			Help: "HTML fetch attempts by route (direct or proxy)",
		},
		[]string{"route"},
	)
	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_fetch_errors_total",
			Help: "Failed fetch attempts by reason",
		},
		[]string{"reason"},
	)
	ProxyFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_proxy_fallbacks_total",
			Help: "Times the fetcher fell through to a fallback proxy",
		})
	ParseErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_parse_errors_total",
			Help: "Terminal parse failures by field",
		},
		[]string{"field"},
	)
	QuotesServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quote_requests_served_total",
			Help: "Quotes successfully returned to callers",
		})
)

func init() {
	// MustRegister panics if registration fails (e.g. duplicate)
	prometheus.MustRegister(
		FetchAttempts, FetchErrors, ProxyFallbacks,
		ParseErrors, QuotesServed,
	)
}
