package infra

import (
	"sync"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

// WindowStore é a tabela de janelas fixas por chave, em memória, com limpeza
// periódica. É criada no start do serviço, nunca é persistida e pode ser
// descartada em um restart sem perda de semântica.
type WindowStore struct {
	mu           sync.Mutex
	entries      map[domain.Key]*window
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
	skip         func(domain.Key) bool
}

var _ domain.WindowStore = (*WindowStore)(nil)

type window struct {
	count int
	end   time.Time
}

type WindowOption func(*WindowStore)

// WithIdleTTL define quanto tempo além do fim da janela a entrada sobrevive.
func WithIdleTTL(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio usado pela limpeza.
func WithClock(now func() time.Time) WindowOption {
	return func(s *WindowStore) { s.now = now }
}

// WithKeep faz a limpeza preservar chaves para as quais keep retorna true
// (ex.: chaves ainda na blocklist).
func WithKeep(keep func(domain.Key) bool) WindowOption {
	return func(s *WindowStore) { s.skip = keep }
}

func NewWindowStore(opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		entries:      make(map[domain.Key]*window),
		idleTTL:      time.Minute,
		cleanupEvery: time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Hit implementa domain.WindowStore.
func (s *WindowStore) Hit(key domain.Key, now time.Time, d time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.entries[key]
	if !ok {
		w = &window{}
		s.entries[key] = w
	}
	if now.After(w.end) {
		w.count = 0
		w.end = now.Add(d)
	}
	w.count++
	return w.count, w.end
}

func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove janelas encerradas há mais de idleTTL. Retorna quantas saíram.
func (s *WindowStore) Cleanup() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, w := range s.entries {
		if !w.end.Before(cutoff) {
			continue
		}
		if s.skip != nil && s.skip(k) {
			continue
		}
		delete(s.entries, k)
		removed++
	}
	return removed
}

// StartJanitor inicia uma goroutine que executa sweep periodicamente.
// Pare cancelando o contexto.
func StartJanitor(ctx DoneContext, every time.Duration, sweep func()) {
	if every <= 0 || sweep == nil {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				sweep()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
// (Permite reuso em libs sem acoplar.)
type DoneContext interface {
	Done() <-chan struct{}
}
