package service

import "github.com/prometheus/client_golang/prometheus"

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_logins_total", Help: "Login attempts by outcome"},
		[]string{"outcome"},
	)
	authzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "authz_decisions_total", Help: "Authorization decisions on record mutations"},
		[]string{"action", "outcome"},
	)
)

func init() { prometheus.MustRegister(loginTotal, authzDecisions) }
