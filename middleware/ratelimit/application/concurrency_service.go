package application

import (
	"context"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"
)

// ConcurrencyService aplica o teto de requisições em voo do gateway.
// Pool nil desliga o teto.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga até AcquireTimeout (ou até ctx encerrar, se o
// timeout for <= 0). ok=false significa que nenhuma vaga foi ocupada e que
// o release não deve ser chamado.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}

// InFlight devolve quantas requisições estão ocupando vaga agora.
func (s ConcurrencyService) InFlight() int {
	if s.Pool == nil {
		return 0
	}
	return s.Pool.InUse()
}
