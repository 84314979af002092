package infra

import (
	"context"
	"fmt"

	"moderation-gateway/relay/domain"

	"github.com/google/uuid"
)

// FileModerationStore guarda bans e avisos, cada um na sua tabela.
type FileModerationStore struct {
	bans     *Table[domain.Ban]
	warnings *Table[domain.Warning]
}

var _ domain.ModerationStore = (*FileModerationStore)(nil)

func NewFileModerationStore(bans, warnings *Document) *FileModerationStore {
	return &FileModerationStore{
		bans:     NewTable[domain.Ban](bans),
		warnings: NewTable[domain.Warning](warnings),
	}
}

func banKey(tenant domain.TenantKey, player string) string {
	return fmt.Sprintf("%s:%s", tenant, player)
}

func (s *FileModerationStore) PutBan(ctx context.Context, b domain.Ban) error {
	return s.bans.Update(ctx, func(rows map[string]domain.Ban) error {
		rows[banKey(b.TenantKey, b.Player)] = b
		return nil
	})
}

// warningKey é tenant:player:unixmillis:<uuid>; o sufixo separa avisos do
// mesmo milissegundo.
func warningKey(w domain.Warning) string {
	return fmt.Sprintf("%s:%s:%d:%s", w.TenantKey, w.Player, w.CreatedAt.UnixMilli(), uuid.NewString())
}

func (s *FileModerationStore) AddWarning(ctx context.Context, w domain.Warning) error {
	return s.warnings.Update(ctx, func(rows map[string]domain.Warning) error {
		key := warningKey(w)
		for _, taken := rows[key]; taken; _, taken = rows[key] {
			key = warningKey(w)
		}
		rows[key] = w
		return nil
	})
}

// Ban devolve o ban de player no tenant, se existir.
func (s *FileModerationStore) Ban(ctx context.Context, tenant domain.TenantKey, player string) (domain.Ban, bool) {
	return s.bans.Get(ctx, banKey(tenant, player))
}

// CountWarnings conta pelos campos da linha, não pela chave: um player pode
// conter ":" no nome.
func (s *FileModerationStore) CountWarnings(ctx context.Context, tenant domain.TenantKey, player string) int {
	n := 0
	for _, w := range s.warnings.Snapshot(ctx) {
		if w.TenantKey == tenant && w.Player == player {
			n++
		}
	}
	return n
}
