// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talent_pipeline_redirects_total",
		Help: "Navigations ended by a redirect, by the stage that issued it.",
	}, []string{"stage"})

	PipelineUnauthorizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talent_pipeline_unauthorized_total",
		Help: "Navigations rejected by a role guard, by stage.",
	}, []string{"stage"})

	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "talent_pipeline_duration_seconds",
		Help:    "Time spent running pipeline stages before the view renders.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	AuthLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talent_auth_lookups_total",
		Help: "Current-user resolutions: anonymous (no token), ok, or error.",
	}, []string{"result"})

	StorageReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talent_storage_reads_total",
		Help: "Stored value reads by outcome (present, absent, corrupt, unavailable).",
	}, []string{"status"})

	GraphQLRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talent_graphql_requests_total",
		Help: "Requests sent to the GraphQL API, by operation and outcome.",
	}, []string{"operation", "outcome"})
)
