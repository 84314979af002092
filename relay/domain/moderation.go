package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Ban é a linha da tabela de bans (chave tenant:player). ExpiresAt nil = permanente.
type Ban struct {
	TenantKey TenantKey  `json:"tenantKey"`
	Player    string     `json:"player"`
	Reason    string     `json:"reason"`
	Moderator string     `json:"moderator"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Warning é a linha da tabela de avisos (chave tenant:player:unixmillis:uuid).
type Warning struct {
	TenantKey TenantKey `json:"tenantKey"`
	Player    string    `json:"player"`
	Reason    string    `json:"reason"`
	Moderator string    `json:"moderator"`
	CreatedAt time.Time `json:"createdAt"`
}

// ModerationStore é o colaborador de CRUD por entidade: carrega a tabela,
// altera a linha e grava a tabela.
type ModerationStore interface {
	PutBan(ctx context.Context, b Ban) error
	AddWarning(ctx context.Context, w Warning) error
	CountWarnings(ctx context.Context, tenant TenantKey, player string) int
}

type invalidError struct{ msg string }

func (e invalidError) Error() string { return e.msg }
func (e invalidError) Unwrap() error { return ErrInvalidAction }

func invalid(msg string) error { return invalidError{msg: msg} }

// Invalid cria um erro de validação que satisfaz errors.Is(err, ErrInvalidAction).
func Invalid(format string, args ...any) error { return invalid(fmt.Sprintf(format, args...)) }

// IsInvalid informa se err é uma falha de validação de entrada.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalidAction) }
