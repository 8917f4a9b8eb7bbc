package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections_active",
		Help: "Open chat channels.",
	})
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_received_total",
		Help: "Chat channel messages received, by type.",
	}, []string{"type"})
)
