/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics implements realtime.Observer and counts finished games.
type metrics struct {
	activeRooms    prometheus.Gauge
	activePlayers  prometheus.Gauge
	eventsRelayed  prometheus.Counter
	gamesCompleted *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		activeRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duetbox_active_rooms",
			Help: "Number of game rooms with at least one player.",
		}),
		activePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "duetbox_active_players",
			Help: "Number of connected players across all rooms.",
		}),
		eventsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "duetbox_events_relayed_total",
			Help: "Broadcast events relayed between peers.",
		}),
		gamesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "duetbox_games_completed_total",
			Help: "Finished sessions by game and outcome.",
		}, []string{"game", "outcome"}),
	}

	prometheus.MustRegister(
		m.activeRooms,
		m.activePlayers,
		m.eventsRelayed,
		m.gamesCompleted,
	)

	return m
}

func (m *metrics) SetRooms(n int)       { m.activeRooms.Set(float64(n)) }
func (m *metrics) SetSubscribers(n int) { m.activePlayers.Set(float64(n)) }
func (m *metrics) EventRelayed()        { m.eventsRelayed.Inc() }

func (m *metrics) GameCompleted(game, outcome string) {
	m.gamesCompleted.WithLabelValues(game, outcome).Inc()
}
