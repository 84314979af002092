package application

import (
	"context"
	"errors"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultLogCapacity  = 1000
	DefaultListLimit    = 50
	DefaultMaxListLimit = 500
)

// CommandLog é o log de auditoria de comandos administrativos.
//
// Record só considera a entrada registrada depois que o Store confirmou a
// gravação; a notificação vem depois disso e nunca atrasa a resposta.
type CommandLog struct {
	Store    domain.LogStore
	Notifier domain.Notifier

	// Capacity é o tamanho máximo do log vivo antes da rotação.
	Capacity     int
	DefaultLimit int
	MaxLimit     int

	// Now e NewID permitem injetar relógio e gerador de ids nos testes.
	Now   func() time.Time
	NewID func() string

	Metrics *Metrics
	Logger  zerolog.Logger
}

// Record completa entry com id e timestamp, persiste e notifica.
// Devolve a entrada como foi gravada.
func (c *CommandLog) Record(ctx context.Context, entry domain.LogEntry) (domain.LogEntry, error) {
	if c.Store == nil {
		return domain.LogEntry{}, errors.New("command log: nil store")
	}

	entry.ID = c.newID()
	entry.Timestamp = c.now().UTC()

	archived, err := c.Store.Append(ctx, entry, c.capacity())
	if err != nil {
		c.Logger.Error().Err(err).Str("command", entry.Command).Str("tenant", entry.TenantKey.Redacted()).Msg("command log append failed")
		return domain.LogEntry{}, err
	}
	c.Metrics.commandRecorded(entry.Command, entry.Success)
	if archived > 0 {
		c.Metrics.entriesArchived(archived)
		c.Logger.Info().Int("archived", archived).Msg("command log rotated")
	}

	if c.Notifier != nil {
		c.Notifier.Notify(entry)
	}
	return entry, nil
}

// List devolve até limit entradas do tenant, mais recentes primeiro.
// limit <= 0 usa DefaultLimit; acima de MaxLimit é reduzido a MaxLimit.
// Os arquivos nunca são consultados.
func (c *CommandLog) List(ctx context.Context, tenant domain.TenantKey, limit int) ([]domain.LogEntry, error) {
	limit = c.clampLimit(limit)

	entries, err := c.Store.Entries(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LogEntry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		if entries[i].TenantKey == tenant {
			out = append(out, entries[i])
		}
	}
	return out, nil
}

// Clear arquiva o log vivo inteiro e o substitui por um vazio.
func (c *CommandLog) Clear(ctx context.Context) (int, error) {
	n, err := c.Store.ArchiveAll(ctx)
	if err != nil {
		c.Logger.Error().Err(err).Msg("command log clear failed")
		return 0, err
	}
	c.Metrics.entriesArchived(n)
	c.Logger.Info().Int("archived", n).Msg("command log cleared")
	return n, nil
}

func (c *CommandLog) clampLimit(limit int) int {
	def := c.DefaultLimit
	if def <= 0 {
		def = DefaultListLimit
	}
	ceiling := c.MaxLimit
	if ceiling <= 0 {
		ceiling = DefaultMaxListLimit
	}
	if limit <= 0 {
		limit = def
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

func (c *CommandLog) capacity() int {
	if c.Capacity <= 0 {
		return DefaultLogCapacity
	}
	return c.Capacity
}

func (c *CommandLog) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *CommandLog) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	// v7: prefixo de tempo em ms + 74 bits aleatórios
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
