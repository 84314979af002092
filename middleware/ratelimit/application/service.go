package application

import (
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

const (
	DefaultLimit         = 100
	DefaultWindow        = 60 * time.Second
	DefaultBlockDuration = 900 * time.Second
)

// Service concentra a regra de aplicação do rate limit: contador de janela fixa
// com escalonamento para blocklist temporária.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Rajadas exatamente na virada da janela podem passar até 2x o limite nominal;
// isso é aceito pelo algoritmo de janela fixa.
type Service struct {
	Windows   domain.WindowStore
	Blocklist domain.Blocklist

	Limit         int
	Window        time.Duration
	BlockDuration time.Duration

	// Now permite injetar um relógio nos testes. Se nil, usa time.Now.
	Now func() time.Time
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Windows == nil {
		return domain.Decision{Allowed: true}
	}
	s = s.withDefaults()
	now := s.Now()

	if s.Blocklist != nil {
		if until, ok := s.Blocklist.Blocked(key, now); ok {
			return domain.Decision{
				Allowed:    false,
				Blocked:    true,
				Limit:      s.Limit,
				ResetAt:    until,
				RetryAfter: until.Sub(now),
			}
		}
	}

	count, windowEnd := s.Windows.Hit(key, now, s.Window)
	if count > s.Limit {
		until := now.Add(s.BlockDuration)
		if s.Blocklist != nil {
			s.Blocklist.Block(key, until)
		}
		return domain.Decision{
			Allowed:    false,
			Blocked:    s.Blocklist != nil,
			Limit:      s.Limit,
			ResetAt:    until,
			RetryAfter: s.BlockDuration,
		}
	}

	return domain.Decision{
		Allowed:   true,
		Limit:     s.Limit,
		Remaining: s.Limit - count,
		ResetAt:   windowEnd,
	}
}

// Stats retorna o tamanho da tabela de janelas e da blocklist.
func (s Service) Stats() domain.Stats {
	s = s.withDefaults()
	st := domain.Stats{}
	if s.Windows != nil {
		st.Tracked = s.Windows.Len()
	}
	if s.Blocklist != nil {
		st.Blacklisted = s.Blocklist.Len(s.Now())
	}
	return st
}

func (s Service) withDefaults() Service {
	if s.Limit <= 0 {
		s.Limit = DefaultLimit
	}
	if s.Window <= 0 {
		s.Window = DefaultWindow
	}
	if s.BlockDuration <= 0 {
		s.BlockDuration = DefaultBlockDuration
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}
