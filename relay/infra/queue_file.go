package infra

import (
	"context"

	"moderation-gateway/relay/domain"
)

// FileQueueStore guarda as filas de todos os tenants num único documento
// (tenant -> ações). O mutex da tabela serializa Push e Drain.
type FileQueueStore struct {
	table *Table[[]domain.PendingAction]
}

var _ domain.QueueStore = (*FileQueueStore)(nil)

func NewFileQueueStore(doc *Document) *FileQueueStore {
	return &FileQueueStore{table: NewTable[[]domain.PendingAction](doc)}
}

func (s *FileQueueStore) Push(ctx context.Context, tenant domain.TenantKey, action domain.PendingAction) error {
	return s.table.Update(ctx, func(rows map[string][]domain.PendingAction) error {
		rows[string(tenant)] = append(rows[string(tenant)], action)
		return nil
	})
}

// Drain só devolve as ações depois que a fila vazia estiver gravada.
func (s *FileQueueStore) Drain(ctx context.Context, tenant domain.TenantKey) ([]domain.PendingAction, error) {
	var out []domain.PendingAction
	err := s.table.Update(ctx, func(rows map[string][]domain.PendingAction) error {
		pending := rows[string(tenant)]
		if len(pending) == 0 {
			return errNoChange
		}
		out = pending
		delete(rows, string(tenant))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Depth devolve o tamanho da fila do tenant sem consumi-la.
func (s *FileQueueStore) Depth(ctx context.Context, tenant domain.TenantKey) int {
	return len(s.table.Snapshot(ctx)[string(tenant)])
}
