package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SwipesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_swipes_total",
		Help: "Swipes recorded, by action",
	}, []string{"action"})

	MatchesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dating_matches_created_total",
		Help: "Matches created from mutual likes",
	})

	Unmatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dating_unmatches_total",
		Help: "Matches removed by a participant",
	})

	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dating_messages_sent_total",
		Help: "Messages stored, by type",
	}, []string{"type"})

	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dating_ws_connections",
		Help: "Active websocket connections",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(SwipesTotal, MatchesCreated, Unmatches, MessagesSent, Connections)
}

// Handler serves the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
