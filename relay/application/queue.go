package application

import (
	"context"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/rs/zerolog"
)

// ActionQueue entrega ações pendentes aos servidores de jogo com semântica
// at-most-once: a ação sai da fila na mesma operação que a devolve.
type ActionQueue struct {
	Store   domain.QueueStore
	Now     func() time.Time
	Metrics *Metrics
	Logger  zerolog.Logger
}

// Enqueue valida a ação, carimba o timestamp do servidor e grava antes de retornar.
func (q *ActionQueue) Enqueue(ctx context.Context, tenant domain.TenantKey, action domain.PendingAction) (domain.PendingAction, error) {
	if tenant == "" {
		return domain.PendingAction{}, domain.ErrUnauthenticated
	}
	if err := action.Validate(); err != nil {
		return domain.PendingAction{}, err
	}
	action.Timestamp = q.now().UTC()

	if err := q.Store.Push(ctx, tenant, action); err != nil {
		q.Logger.Error().Err(err).Str("tenant", tenant.Redacted()).Str("type", string(action.Type)).Msg("enqueue failed")
		return domain.PendingAction{}, err
	}
	q.Metrics.actionEnqueued(action.Type)
	return action, nil
}

// Drain devolve e remove todas as ações do tenant, na ordem em que entraram.
// Fila vazia devolve slice vazio (nunca nil).
func (q *ActionQueue) Drain(ctx context.Context, tenant domain.TenantKey) ([]domain.PendingAction, error) {
	actions, err := q.Store.Drain(ctx, tenant)
	if err != nil {
		q.Logger.Error().Err(err).Str("tenant", tenant.Redacted()).Msg("drain failed")
		return nil, err
	}
	if actions == nil {
		actions = []domain.PendingAction{}
	}
	q.Metrics.actionsDrained(len(actions))
	if len(actions) > 0 {
		q.Logger.Debug().Str("tenant", tenant.Redacted()).Int("actions", len(actions)).Msg("queue drained")
	}
	return actions, nil
}

func (q *ActionQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}
