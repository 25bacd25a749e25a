package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refxml_references_parsed_total",
			Help: "Number of reference entries parsed, by result.",
		},
		[]string{"result"}, // "ok", "degraded"
	)
	metricDuplicateAnchor = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refxml_duplicate_anchor_total",
			Help: "Number of documents rejected for duplicate reference anchors.",
		},
	)
	metricLibHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refxml_library_hits_total",
			Help: "Number of reference entries replaced from the citation library.",
		},
	)
)

// countOutcome updates the parse metrics for one reference entry.
func countOutcome(fallback bool) {
	if fallback {
		metricParsed.WithLabelValues("degraded").Inc()
	} else {
		metricParsed.WithLabelValues("ok").Inc()
	}
}
