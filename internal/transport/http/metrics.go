package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_redirects_total",
			Help: "Redirects served, by visit kind",
		},
		[]string{"kind"},
	)

	visitRecordFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_visit_record_failures_total",
			Help: "Visits that could not be recorded after the redirect was served",
		},
		[]string{"kind"},
	)
)
