package strategy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	equationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trs_strategy_equations_rejected_total",
		Help: "Equations left out of strategies because they are malformed, by error code",
	}, []string{"code"})

	strategiesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_strategy_strategies_built_total",
		Help: "Per-symbol strategies compiled",
	})
)
