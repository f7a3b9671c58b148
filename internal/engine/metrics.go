package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_engine_operations_total",
			Help: "Total number of engine operations by collection, operation, mode, and outcome",
		},
		[]string{"collection", "operation", "mode", "outcome"},
	)

	engineMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_engine_merges_total",
			Help: "Total number of guest-to-account merge attempts by collection and outcome",
		},
		[]string{"collection", "outcome"},
	)

	engineMergeDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_engine_merge_dropped_items_total",
			Help: "Total number of merge lines dropped because the product no longer resolves",
		},
		[]string{"collection"},
	)
)

func recordOperation(collection, operation string, mode Mode, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	engineOperationsTotal.WithLabelValues(collection, operation, mode.String(), outcome).Inc()
}

func recordMerge(collection string, dropped int, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case dropped > 0:
		outcome = "partial"
	}
	engineMergesTotal.WithLabelValues(collection, outcome).Inc()
	if dropped > 0 {
		engineMergeDroppedTotal.WithLabelValues(collection).Add(float64(dropped))
	}
}
