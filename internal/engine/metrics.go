package engine

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	commits          prometheus.Counter
	conflicts        prometheus.Counter
	retriesExhausted prometheus.Counter
	rejected         prometheus.Counter
	ticks            prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsRegistry *engineMetrics
)

func metrics() *engineMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &engineMetrics{
			commits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "devtycoon",
				Subsystem: "engine",
				Name:      "commits_total",
				Help:      "Committed transactions, including rejected-command commits.",
			}),
			conflicts: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "devtycoon",
				Subsystem: "engine",
				Name:      "conflicts_total",
				Help:      "Commit attempts that lost a write race and were retried.",
			}),
			retriesExhausted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "devtycoon",
				Subsystem: "engine",
				Name:      "retries_exhausted_total",
				Help:      "Transactions abandoned after the retry budget ran out.",
			}),
			rejected: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "devtycoon",
				Subsystem: "engine",
				Name:      "actions_rejected_total",
				Help:      "Commands committed as explicit rejections (insufficient funds, not eligible).",
			}),
			ticks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "devtycoon",
				Subsystem: "engine",
				Name:      "ticks_total",
				Help:      "Passive-income ticks applied by schedulers in this process.",
			}),
		}
		prometheus.MustRegister(
			metricsRegistry.commits,
			metricsRegistry.conflicts,
			metricsRegistry.retriesExhausted,
			metricsRegistry.rejected,
			metricsRegistry.ticks,
		)
	})
	return metricsRegistry
}
