package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "goomer", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goomer", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	MediaRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "goomer", Name: "media_requests_total", Help: "Media store calls."},
		[]string{"provider", "op", "result"}, // result: ok|error
	)
	MediaLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "goomer", Name: "media_request_duration_seconds",
			Help:    "Media store call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "op"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "goomer", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels/errors."},
		[]string{"cache", "event"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequests, HTTPLatency, MediaRequests, MediaLatency, CacheEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveMedia(provider, op string, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	MediaRequests.WithLabelValues(provider, op, result).Inc()
	MediaLatency.WithLabelValues(provider, op).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}
