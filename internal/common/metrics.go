package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inkpost_cache_lookups_total",
		Help: "Cache lookups by entry kind and result.",
	},
	[]string{"kind", "result"},
)

func RecordCacheHit(kind string) {
	cacheLookups.WithLabelValues(kind, "hit").Inc()
}

func RecordCacheMiss(kind string) {
	cacheLookups.WithLabelValues(kind, "miss").Inc()
}
