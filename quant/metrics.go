package quant

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instancesRewritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_quant_instances_rewritten_total",
		Help: "Quantifier bodies rewritten for one combination of values",
	})

	fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_quant_fallbacks_total",
		Help: "Quantifiers that could not be enumerated",
	})
)
