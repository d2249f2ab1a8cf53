package term

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// termsInterned counts terms added to any Store's intern table
	termsInterned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_store_terms_interned_total",
		Help: "Total terms added to an intern table",
	})

	termsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_store_terms_collected_total",
		Help: "Total terms removed from an intern table by garbage collection",
	})

	collections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_store_collections_total",
		Help: "Total garbage collection runs",
	})

	symbolsInterned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trs_store_symbols_interned_total",
		Help: "Total function symbols added to a symbol table",
	})
)
