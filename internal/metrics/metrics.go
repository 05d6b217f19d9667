package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "commands_processed",
		Help:      "The total number of processed commands",
	})
	AlertsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "alerts_created",
		Help:      "The total number of alerts created by users",
	})
	AlertsTriggered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "alerts_triggered",
		Help:      "The total number of alerts that fired",
	})
	AlertsRestored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "alerts_restored",
		Help:      "The total number of alerts restored from announcement history",
	})
	ProviderErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "provider_errors",
		Help:      "The total number of failed market-data fetches",
	})
	PollCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "poll_cycles",
		Help:      "The total number of completed poll cycles",
	})
	AlertsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pricewatch",
		Subsystem: "bot",
		Name:      "alerts_active",
		Help:      "The current number of armed alerts",
	})
)

func init() {
	prometheus.MustRegister(CommandsProcessed)
	prometheus.MustRegister(AlertsCreated)
	prometheus.MustRegister(AlertsTriggered)
	prometheus.MustRegister(AlertsRestored)
	prometheus.MustRegister(ProviderErrors)
	prometheus.MustRegister(PollCycles)
	prometheus.MustRegister(AlertsActive)
}
