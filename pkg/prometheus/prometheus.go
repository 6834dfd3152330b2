// Package prometheus provides a storefront.MetricsProvider backed by
// Prometheus collectors.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zoobzio/storefront"
)

// Namespace prefixes every metric.
const Namespace = "storefront"

// Provider records holder transitions and refresh outcomes.
type Provider struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	stale       *prometheus.CounterVec
}

// New creates a Provider and registers its collectors on reg.
func New(reg prometheus.Registerer) (*Provider, error) {
	p := &Provider{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "holder",
				Name:      "state",
				Help:      "Current holder state (0 empty, 1 loading, 2 filled, 3 error).",
			},
			[]string{"holder"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "holder",
				Name:      "transitions_total",
				Help:      "Total number of holder state transitions.",
			},
			[]string{"holder", "from", "to"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "refreshes_total",
				Help:      "Total number of completed store refreshes.",
			},
			[]string{"holder", "result", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "refresh_duration_seconds",
				Help:      "Duration of store refreshes.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
			},
			[]string{"holder", "result"},
		),
		stale: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "store",
				Name:      "stale_results_total",
				Help:      "Total number of refresh results dropped for a newer refresh.",
			},
			[]string{"holder"},
		),
	}

	for _, c := range []prometheus.Collector{p.state, p.transitions, p.refreshes, p.duration, p.stale} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Handler returns an HTTP handler exposing the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (p *Provider) OnStateChange(holder string, from, to storefront.State) {
	p.state.WithLabelValues(holder).Set(float64(to))
	p.transitions.WithLabelValues(holder, from.String(), to.String()).Inc()
}

func (p *Provider) OnRefreshSuccess(holder string, d time.Duration) {
	p.refreshes.WithLabelValues(holder, "success", "").Inc()
	p.duration.WithLabelValues(holder, "success").Observe(d.Seconds())
}

func (p *Provider) OnRefreshFailure(holder string, kind storefront.ErrorKind, d time.Duration) {
	p.refreshes.WithLabelValues(holder, "failure", kind.String()).Inc()
	p.duration.WithLabelValues(holder, "failure").Observe(d.Seconds())
}

func (p *Provider) OnStaleDropped(holder string) {
	p.stale.WithLabelValues(holder).Inc()
}

var _ storefront.MetricsProvider = (*Provider)(nil)
