package infra

import (
	"context"
	"sync"

	"moderation-gateway/middleware/ratelimit/domain"
)

// chanPool é um semáforo sobre um channel bufferizado.
type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool com capacidade max.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.sem }) }, true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *chanPool) InUse() int { return len(p.sem) }

func (p *chanPool) Cap() int { return cap(p.sem) }
