package application

import (
	"strconv"

	"moderation-gateway/relay/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa os contadores do relay. Um *Metrics nil é válido e não mede nada.
type Metrics struct {
	commands      *prometheus.CounterVec
	rotations     prometheus.Counter
	archived      prometheus.Counter
	enqueued      *prometheus.CounterVec
	drained       prometheus.Counter
	notifications *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "commandlog",
			Name:      "entries_total",
			Help:      "Command log entries recorded, by command and outcome.",
		}, []string{"command", "success"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "commandlog",
			Name:      "rotations_total",
			Help:      "Archive units written by rotation or clear.",
		}),
		archived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "commandlog",
			Name:      "archived_entries_total",
			Help:      "Entries moved from the live log to archives.",
		}),
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Pending actions enqueued, by action type.",
		}, []string{"type"}),
		drained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "queue",
			Name:      "drained_total",
			Help:      "Pending actions delivered to polling game servers.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Subsystem: "notifier",
			Name:      "deliveries_total",
			Help:      "Webhook notifications by outcome (sent, failed, dropped).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.commands, m.rotations, m.archived, m.enqueued, m.drained, m.notifications)
	return m
}

func (m *Metrics) commandRecorded(command string, success bool) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) entriesArchived(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rotations.Inc()
	m.archived.Add(float64(n))
}

func (m *Metrics) actionEnqueued(t domain.ActionType) {
	if m == nil {
		return
	}
	m.enqueued.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) actionsDrained(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.drained.Add(float64(n))
}

// Notification conta o resultado de uma entrega do webhook. Tem a assinatura
// esperada por infra.WithWebhookResult.
func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
