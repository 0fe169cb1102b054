// Package metrics exposes sync engine counters and gauges to Prometheus.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notton"

// Collector 同步指标
type Collector struct {
	pendingDepth prometheus.Gauge
	online       prometheus.Gauge
	drains       *prometheus.CounterVec
	replays      *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_operations",
			Help:      "Number of operations waiting to be replayed.",
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 when the remote store is reachable.",
		}),
		drains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drains_total",
			Help:      "Drain passes by outcome (run, skipped).",
		}, []string{"outcome"}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replays_total",
			Help:      "Replayed pending operations by entity, action and result.",
		}, []string{"entity", "action", "result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Optimistic mutations by entity, action and mode (online, queued).",
		}, []string{"entity", "action", "mode"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_total",
			Help:      "Optimistic mutations rolled back after a remote failure.",
		}, []string{"entity", "action"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Remote refreshes by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(c.pendingDepth, c.online, c.drains, c.replays, c.mutations, c.rollbacks, c.refreshes)
	}
	return c
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.pendingDepth.Set(float64(n))
}

func (c *Collector) SetOnline(online bool) {
	if c == nil {
		return
	}
	v := 0.0
	if online {
		v = 1
	}
	c.online.Set(v)
}

func (c *Collector) Drain(skipped bool) {
	if c == nil {
		return
	}
	outcome := "run"
	if skipped {
		outcome = "skipped"
	}
	c.drains.WithLabelValues(outcome).Inc()
}

func (c *Collector) Replay(entity, action string, ok bool) {
	if c == nil {
		return
	}
	c.replays.WithLabelValues(entity, action, result(ok)).Inc()
}

func (c *Collector) Mutation(entity, action string, queued bool) {
	if c == nil {
		return
	}
	mode := "online"
	if queued {
		mode = "queued"
	}
	c.mutations.WithLabelValues(entity, action, mode).Inc()
}

func (c *Collector) Rollback(entity, action string) {
	if c == nil {
		return
	}
	c.rollbacks.WithLabelValues(entity, action).Inc()
}

func (c *Collector) Refresh(ok bool) {
	if c == nil {
		return
	}
	c.refreshes.WithLabelValues(result(ok)).Inc()
}
