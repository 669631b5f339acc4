// Package prom exports entitycache hook events as Prometheus counters.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/entitycache"
)

// Hooks counts cache events. Group and key labels are never used so the
// series count stays bounded.
type Hooks struct {
	lookups       *prometheus.CounterVec // scope, result
	duplicateKeys *prometheus.CounterVec // scope
	staleDropped  *prometheus.CounterVec // scope
	groupReplaced prometheus.Counter
	groupDropped  prometheus.Counter
	groupEvicted  prometheus.Counter
	evictedItems  prometheus.Counter
	genErrors     *prometheus.CounterVec // op
}

var _ entitycache.Hooks = (*Hooks)(nil)

// New creates the counters under namespace and registers them with reg.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	h := &Hooks{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by scope and result (hit, miss)",
		}, []string{"scope", "result"}),
		duplicateKeys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_duplicate_keys_total",
			Help:      "Created records whose id was already cached",
		}, []string{"scope"}),
		staleDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_stale_writes_dropped_total",
			Help:      "Remote read results not cached because their scope was invalidated",
		}, []string{"scope"}),
		groupReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_group_refreshes_total",
			Help:      "Instance groups replaced by a full list",
		}),
		groupDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_group_members_dropped_total",
			Help:      "Cached instances dropped because a refresh no longer listed them",
		}),
		groupEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_group_evictions_total",
			Help:      "Instance groups evicted after their definition was deleted",
		}),
		evictedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_group_evicted_items_total",
			Help:      "Instances removed by group evictions",
		}),
		genErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "genstore_errors_total",
			Help:      "Generation store failures by operation",
		}, []string{"op"}),
	}
	for _, c := range []prometheus.Collector{
		h.lookups, h.duplicateKeys, h.staleDropped, h.groupReplaced,
		h.groupDropped, h.groupEvicted, h.evictedItems, h.genErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(scope string)  { h.lookups.WithLabelValues(scope, "hit").Inc() }
func (h *Hooks) Miss(scope string) { h.lookups.WithLabelValues(scope, "miss").Inc() }

func (h *Hooks) DuplicateKey(scope, _ string) { h.duplicateKeys.WithLabelValues(scope).Inc() }

func (h *Hooks) StaleWriteDropped(scope, _ string) { h.staleDropped.WithLabelValues(scope).Inc() }

func (h *Hooks) GroupReplaced(_ string, _, dropped int) {
	h.groupReplaced.Inc()
	h.groupDropped.Add(float64(dropped))
}

func (h *Hooks) GroupEvicted(_ string, count int) {
	h.groupEvicted.Inc()
	h.evictedItems.Add(float64(count))
}

func (h *Hooks) GenStoreError(op string, _ error) { h.genErrors.WithLabelValues(op).Inc() }
