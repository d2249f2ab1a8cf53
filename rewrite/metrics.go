package rewrite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rewriteCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_rewrite_calls_total",
		Help: "Calls to Rewrite, including those made by quantifier eliminators",
	})

	rewriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trs_rewrite_duration_seconds",
		Help:    "Time spent in calls to Rewrite",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	})

	ruleApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trs_rewrite_rule_applications_total",
		Help: "Rewrite rules applied, by head symbol",
	}, []string{"symbol"})

	betaReductions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_rewrite_beta_reductions_total",
		Help: "Lambda applications reduced",
	})

	quantifierHandOffs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trs_rewrite_quantifier_hand_offs_total",
		Help: "Quantifiers passed to the quantifier eliminator, by binder",
	}, []string{"binder"})
)
