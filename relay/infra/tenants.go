package infra

import (
	"context"

	"moderation-gateway/relay/domain"
)

// FileTenantRegistry é a tabela de jogos registrados (chave -> tenant).
type FileTenantRegistry struct {
	table *Table[domain.Tenant]
}

var _ domain.TenantRegistry = (*FileTenantRegistry)(nil)

func NewFileTenantRegistry(doc *Document) *FileTenantRegistry {
	return &FileTenantRegistry{table: NewTable[domain.Tenant](doc)}
}

func (r *FileTenantRegistry) Lookup(ctx context.Context, key domain.TenantKey) (domain.Tenant, error) {
	t, ok := r.table.Get(ctx, string(key))
	if !ok {
		return domain.Tenant{}, domain.ErrUnknownTenant
	}
	t.Key = key
	return t, nil
}

func (r *FileTenantRegistry) Register(ctx context.Context, t domain.Tenant) error {
	return r.table.Update(ctx, func(rows map[string]domain.Tenant) error {
		rows[string(t.Key)] = t
		return nil
	})
}
