package infra

import (
	"context"

	"moderation-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões do rate limit como métricas.
//
// Não usa Key nem Path como label para não explodir cardinalidade.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer, stats func() domain.Stats) *PrometheusStatsStore {
	s := &PrometheusStatsStore{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Admission decisions by result (allowed, denied, blocked).",
		}, []string{"result"}),
	}
	reg.MustRegister(s.decisions)

	if stats != nil {
		reg.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "tracked_clients",
				Help:      "Number of client windows currently held in memory.",
			}, func() float64 { return float64(stats().Tracked) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "gateway",
				Subsystem: "ratelimit",
				Name:      "blacklisted_clients",
				Help:      "Number of clients currently blacklisted.",
			}, func() float64 { return float64(stats().Blacklisted) }),
		)
	}
	return s
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.decisions.WithLabelValues(ev.Outcome()).Inc()
	return nil
}

// MultiStats replica cada evento para vários StatsStore, devolvendo o primeiro erro.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
