package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moderation-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStatsStore soma as decisões de admissão em hashes do Redis, de modo que
// várias instâncias do gateway compartilham os mesmos totais.
//
// Layout (prefix padrão ratelimit:stats):
//
//	<prefix>:total                 allowed|denied|blocked, sem expiração
//	<prefix>:minute:<yyyymmddhhmm> idem, por minuto, expira em ttl
//	<prefix>:route                 "<METHOD> <path>:<result>"
//	<prefix>:key:<key>             por cliente, só com trackKeys, expira em ttl
type RedisStatsStore struct {
	rdb *redis.Client

	prefix    string
	ttl       time.Duration
	bucket    string // "minute" ou "none"
	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// hashIncr é um HINCRBY planejado; expire > 0 renova o TTL da chave.
type hashIncr struct {
	key    string
	field  string
	expire time.Duration
}

// plan devolve os incrementos que ev gera, sem tocar no Redis.
func (s *RedisStatsStore) plan(ev domain.StatsEvent) []hashIncr {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := ev.Outcome()

	out := []hashIncr{{key: s.prefix + ":total", field: field}}

	if s.bucket == "minute" {
		out = append(out, hashIncr{
			key:    fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504")),
			field:  field,
			expire: s.ttl,
		})
	}

	if route := ev.Route(); route != "" {
		out = append(out, hashIncr{key: s.prefix + ":route", field: route + ":" + field})
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			out = append(out, hashIncr{key: s.prefix + ":key:" + k, field: field, expire: s.ttl})
		}
	}
	return out
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	pipe := s.rdb.Pipeline()
	for _, inc := range s.plan(ev) {
		pipe.HIncrBy(ctx, inc.key, inc.field, 1)
		if inc.expire > 0 {
			pipe.Expire(ctx, inc.key, inc.expire)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}
