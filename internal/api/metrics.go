package api

import "github.com/prometheus/client_golang/prometheus"

var refreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_token_refresh_total",
		Help: "Total number of token refresh attempts by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(refreshTotal)
}
