package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// requestOps counts request workflow operations by op and outcome.
	requestOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_requests_total",
			Help: "Request workflow operations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_orders_created_total",
		Help: "Orders created.",
	})
	notificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_notifications_failed_total",
		Help: "Best-effort notification messages that could not be stored.",
	})
	eventPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "market_event_publish_failures_total",
		Help: "Domain events that could not be published.",
	})
)

func init() {
	prometheus.MustRegister(requestOps, ordersCreated, notificationsFailed, eventPublishFailures)
}

// observeOp records the outcome of a workflow operation.
func observeOp(op string, err error) {
	requestOps.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrSelfReference):
		return "self_reference"
	case errors.Is(err, ErrAlreadySold):
		return "already_sold"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
