package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opensea_trader"

var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by endpoint.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"endpoint"})

	OrderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_attempts_total",
		Help:      "Sell order creation attempts by network and outcome.",
	}, []string{"network", "outcome"})

	Approvals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_submitted_total",
		Help:      "setApprovalForAll transactions submitted by network.",
	}, []string{"network"})

	Fulfillments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fulfillments_total",
		Help:      "Order fulfillments by network and outcome.",
	}, []string{"network", "outcome"})
)
