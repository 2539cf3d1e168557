package service

import "github.com/prometheus/client_golang/prometheus"

var (
	moderationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "powerfolio_moderation_total", Help: "Count of applied moderation transitions"},
		[]string{"action"},
	)
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "powerfolio_auth_logins_total", Help: "Count of login attempts by result"},
		[]string{"result"},
	)
)

func init() { prometheus.MustRegister(moderationTotal, loginTotal) }
