package alerts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	triggeredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosense_alerts_triggered_total",
		Help: "Alert rules that matched live sensor data, by severity.",
	}, []string{"severity"})

	suppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrosense_alerts_suppressed_total",
		Help: "Alert matches swallowed by the re-fire suppression window.",
	})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosense_alert_actions_total",
		Help: "Alert actions dispatched, by action type and status.",
	}, []string{"action", "status"})
)
