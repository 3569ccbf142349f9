package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics to track
var (
	OnlinePlayers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "online_players",
			Help: "Number of players currently connected to the network",
		},
	)
	CommandCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "party_commands_total",
			Help: "Total number of party commands handled",
		},
		[]string{"command", "status"}, // Labels: command name, status (success, error)
	)
)

// InitMetrics initializes and registers Prometheus metrics
func InitMetrics() {
	prometheus.MustRegister(OnlinePlayers, CommandCount)
}

// RegisterPartyGauges registers the party gauges as functions evaluated
// at scrape time, so invitations expiring off the timing wheel show up
// without waiting for the next command.
func RegisterPartyGauges(partyCount func() float64, pendingInvites func() float64) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "party_count",
				Help: "Number of active parties",
			},
			partyCount,
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "party_pending_invites",
				Help: "Number of pending party invitations across all parties",
			},
			pendingInvites,
		),
	)
}

// ServeMetrics starts an HTTP server to expose metrics
func ServeMetrics() {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":8081", nil); err != nil {
			panic(err)
		}
	}()
}
