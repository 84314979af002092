package infra

import (
	"context"
	"sort"
	"sync"

	"moderation-gateway/middleware/ratelimit/domain"
)

// DefaultTopOffenders é quantos clientes o Snapshot lista em Offenders.
const DefaultTopOffenders = 10

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
	// Blocked é o subconjunto de Denied negado pela blacklist.
	Blocked int64 `json:"blocked"`
}

func (c Counters) add(ev domain.StatsEvent) Counters {
	switch ev.Outcome() {
	case domain.OutcomeAllowed:
		c.Allowed++
	case domain.OutcomeBlocked:
		c.Denied++
		c.Blocked++
	default:
		c.Denied++
	}
	return c
}

// Offender é um cliente com negações acumuladas.
type Offender struct {
	Key    string `json:"key"`
	Denied int64  `json:"denied"`
}

// AdmissionSnapshot é o que /api/status publica em "admission".
type AdmissionSnapshot struct {
	Counters
	Routes    map[string]Counters `json:"routes"`
	Offenders []Offender          `json:"offenders,omitempty"`
}

// MemoryStatsStore acumula as decisões do processo em memória.
//
// Não faz expiração: com trackKeys ligado, denied cresce com o número de
// clientes negados.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	denied  map[string]int64

	trackKeys bool
	top       int
}

type MemoryStatsOption func(*MemoryStatsStore)

// WithTrackKeys liga a contagem de negações por cliente.
func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func WithTopOffenders(n int) MemoryStatsOption {
	return func(s *MemoryStatsStore) {
		if n > 0 {
			s.top = n
		}
	}
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute: make(map[string]Counters),
		denied:  make(map[string]int64),
		top:     DefaultTopOffenders,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Route()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = s.total.add(ev)
	if route != "" {
		s.byRoute[route] = s.byRoute[route].add(ev)
	}
	if s.trackKeys && !ev.Allowed && ev.Key != "" {
		s.denied[string(ev.Key)]++
	}
	return nil
}

// Snapshot copia os totais; Offenders vem ordenado por negações, desc.
func (s *MemoryStatsStore) Snapshot() AdmissionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := AdmissionSnapshot{
		Counters: s.total,
		Routes:   make(map[string]Counters, len(s.byRoute)),
	}
	for k, v := range s.byRoute {
		out.Routes[k] = v
	}
	for k, n := range s.denied {
		out.Offenders = append(out.Offenders, Offender{Key: k, Denied: n})
	}
	sort.Slice(out.Offenders, func(i, j int) bool {
		if out.Offenders[i].Denied != out.Offenders[j].Denied {
			return out.Offenders[i].Denied > out.Offenders[j].Denied
		}
		return out.Offenders[i].Key < out.Offenders[j].Key
	})
	if len(out.Offenders) > s.top {
		out.Offenders = out.Offenders[:s.top]
	}
	return out
}
