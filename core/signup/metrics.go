package signup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolportal_signups_started_total",
		Help: "Signups that successfully created a payment intent",
	})
	signupsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolportal_signups_completed_total",
		Help: "Signups whose payment was approved and an account created",
	})
	signupsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolportal_signups_cancelled_total",
		Help: "Signups abandoned at the payment approval step",
	})
	signins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolportal_signins_total",
		Help: "Successful sign-ins",
	})
)
