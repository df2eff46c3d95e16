package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_booking_uploads_total",
		Help: "Payment proof uploads by outcome (ok or the failure kind).",
	}, []string{"outcome"})

	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_booking_payment_decisions_total",
		Help: "Admin payment decisions by decision and outcome.",
	}, []string{"decision", "outcome"})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seat_booking_event_publish_failures_total",
		Help: "Workflow events that could not be published.",
	})
)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}
