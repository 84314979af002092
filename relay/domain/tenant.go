package domain

import (
	"context"
	"time"
)

// TenantKey é a credencial opaca de um jogo registrado.
type TenantKey string

// Redacted devolve a chave parcialmente mascarada, segura para logs e webhooks.
func (k TenantKey) Redacted() string {
	s := string(k)
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

type Tenant struct {
	Key       TenantKey `json:"key"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TenantRegistry resolve credenciais para tenants. Lookup devolve ErrUnknownTenant
// quando a chave não existe.
type TenantRegistry interface {
	Lookup(ctx context.Context, key TenantKey) (Tenant, error)
	Register(ctx context.Context, t Tenant) error
}
