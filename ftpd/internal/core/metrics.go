package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ftpd_sessions_opened_total",
		Help: "Control connections accepted.",
	})
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ftpd_sessions_active",
		Help: "Control connections currently open.",
	})
	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftpd_transfers_total",
		Help: "Completed data transfers by command.",
	}, []string{"command"})
	transferBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ftpd_transfer_bytes_total",
		Help: "Bytes moved over data connections.",
	}, []string{"direction"})
)
