package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    providerReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "provider_requests_total",
            Help:      "Total provider requests by provider, model and result",
        },
        []string{"provider", "model", "result"},
    )

    providerLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "slidescript",
            Name:      "provider_request_duration_seconds",
            Help:      "Duration of provider requests by provider and model",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"provider", "model"},
    )

    allocations = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "allocations_total",
            Help:      "Allocation rounds computed, by trigger (initial, update, reset, match)",
        },
        []string{"trigger"},
    )

    matchJobs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "match_jobs_total",
            Help:      "Match jobs finished, by result (matched, fallback, cancelled, dlq)",
        },
        []string{"result"},
    )

    parseStrategy = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "match_parse_strategy_total",
            Help:      "Winning response-extraction strategy per match call",
        },
        []string{"strategy"},
    )

    retriesTotal = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "retries_total",
            Help:      "Total number of match job retries",
        },
    )

    breakerEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "slidescript",
            Name:      "breaker_events_total",
            Help:      "Circuit breaker events by provider, model and action",
        },
        []string{"provider", "model", "action"},
    )

    queueDepth = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "slidescript",
            Name:      "queue_depth",
            Help:      "Queue depth gauges for stream, delayed and dlq",
        },
        []string{"type"},
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(providerReqs, providerLatency, allocations, matchJobs, parseStrategy, retriesTotal, breakerEvents, queueDepth)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
    providerReqs.WithLabelValues(provider, model, result).Inc()
    providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func IncAllocation(trigger string) { allocations.WithLabelValues(trigger).Inc() }
func IncMatchJob(result string)    { matchJobs.WithLabelValues(result).Inc() }
func IncParseStrategy(s string)    { parseStrategy.WithLabelValues(s).Inc() }
func IncRetry()                    { retriesTotal.Inc() }

func BreakerOpened(provider, model string) { breakerEvents.WithLabelValues(provider, model, "opened").Inc() }
func BreakerClosed(provider, model string) { breakerEvents.WithLabelValues(provider, model, "closed").Inc() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }
