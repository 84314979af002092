package domain

import (
	"context"
	"time"
)

// LogEntry é um registro imutável de auditoria. Target vazio significa "sem alvo".
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	TenantKey TenantKey `json:"tenantKey"`
	Command   string    `json:"command"`
	Executor  string    `json:"executor"`
	Target    string    `json:"target,omitempty"`
	Details   string    `json:"details"`
	Success   bool      `json:"success"`
}

// LogStore persiste o log vivo e seus arquivos.
//
// Append grava entry ao fim do log vivo; se o tamanho passar de capacity, as
// entradas mais antigas excedentes vão para um arquivo novo antes do log vivo
// ser truncado. Nenhuma entrada pode ficar fora do log vivo e de algum arquivo ao
// mesmo tempo. Retorna quantas entradas foram arquivadas.
type LogStore interface {
	Append(ctx context.Context, entry LogEntry, capacity int) (archived int, err error)
	Entries(ctx context.Context) ([]LogEntry, error)
	ArchiveAll(ctx context.Context) (archived int, err error)
}

// Notifier recebe cada entrada já persistida. Entrega é best-effort e nunca
// bloqueia quem chama.
type Notifier interface {
	Notify(entry LogEntry)
}
