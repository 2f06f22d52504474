// Package metrics exposes Prometheus instrumentation for provider calls and
// itinerary construction.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCacheHit = "cache_hit"
)

// Collector bundles the service metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	ProviderRequests  *prometheus.CounterVec
	ProviderDurations *prometheus.HistogramVec
	GeocodeFallbacks  prometheus.Counter
	ItinerariesBuilt  *prometheus.CounterVec
}

// NewCollector registers metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_requests_total",
		Help: "External provider calls, labeled by provider and outcome.",
	}, []string{"provider", "outcome"}), "provider_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "External provider call latency in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"}), "provider_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	fallbacks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geocode_fallbacks_total",
		Help: "Geocoding requests answered with the caller-supplied fallback coordinate.",
	}), "geocode_fallbacks_total")
	if err != nil {
		return nil, err
	}

	built, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itineraries_built_total",
		Help: "Itineraries built, labeled by topology.",
	}, []string{"topology"}), "itineraries_built_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		ProviderRequests:  requests,
		ProviderDurations: durations,
		GeocodeFallbacks:  fallbacks,
		ItinerariesBuilt:  built,
	}, nil
}

// ObserveProvider records one provider call that started at start.
func (c *Collector) ObserveProvider(provider, outcome string, start time.Time) {
	if c == nil {
		return
	}
	c.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeCacheHit {
		c.ProviderDurations.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) GeocodeFallback() {
	if c == nil {
		return
	}
	c.GeocodeFallbacks.Inc()
}

func (c *Collector) ItineraryBuilt(topology string) {
	if c == nil {
		return
	}
	c.ItinerariesBuilt.WithLabelValues(topology).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
