package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"moderation-gateway/relay/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisQueueStore guarda cada fila numa lista do Redis. Drain usa MULTI/EXEC
// (LRANGE + DEL), então vários processos podem consumir a mesma fila sem que
// uma ação seja entregue duas vezes.
type RedisQueueStore struct {
	rdb    *redis.Client
	prefix string
	log    zerolog.Logger
}

var _ domain.QueueStore = (*RedisQueueStore)(nil)

type RedisQueueOption func(*RedisQueueStore)

func WithQueuePrefix(prefix string) RedisQueueOption {
	return func(s *RedisQueueStore) { s.prefix = strings.Trim(prefix, ":") }
}

// WithQueueLogger define onde avisar sobre itens ilegíveis descartados no Drain.
func WithQueueLogger(log zerolog.Logger) RedisQueueOption {
	return func(s *RedisQueueStore) { s.log = log }
}

func NewRedisQueueStore(rdb *redis.Client, opts ...RedisQueueOption) *RedisQueueStore {
	s := &RedisQueueStore{rdb: rdb, prefix: "relay:queue", log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisQueueStore) key(tenant domain.TenantKey) string {
	return s.prefix + ":" + string(tenant)
}

func (s *RedisQueueStore) Push(ctx context.Context, tenant domain.TenantKey, action domain.PendingAction) error {
	b, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("%w: encode action: %v", domain.ErrPersistence, err)
	}
	if err := s.rdb.RPush(ctx, s.key(tenant), b).Err(); err != nil {
		return fmt.Errorf("%w: redis rpush: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *RedisQueueStore) Drain(ctx context.Context, tenant domain.TenantKey) ([]domain.PendingAction, error) {
	key := s.key(tenant)

	pipe := s.rdb.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: redis drain: %v", domain.ErrPersistence, err)
	}

	return s.decode(tenant, items.Val()), nil
}

// decode converte os itens drenados na ordem da lista. Um item ilegível já saiu
// do Redis: é descartado com um warning.
func (s *RedisQueueStore) decode(tenant domain.TenantKey, raw []string) []domain.PendingAction {
	out := make([]domain.PendingAction, 0, len(raw))
	for i, item := range raw {
		var a domain.PendingAction
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			s.log.Warn().Err(err).
				Str("tenant", tenant.Redacted()).
				Int("position", i).
				Msg("dropping undecodable pending action")
			continue
		}
		out = append(out, a)
	}
	return out
}
