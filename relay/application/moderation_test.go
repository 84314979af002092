package application

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"moderation-gateway/relay/domain"
	"moderation-gateway/relay/infra"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moderationFixture struct {
	mod   *Moderation
	queue *ActionQueue
	store *infra.FileModerationStore
	clock *clock
}

func newModerationFixture(t *testing.T) moderationFixture {
	t.Helper()
	dir := t.TempDir()
	c := newClock()
	doc := func(name string) *infra.Document { return infra.NewDocument(filepath.Join(dir, name), zerolog.Nop()) }

	store := infra.NewFileModerationStore(doc("bans.json"), doc("warnings.json"))
	q := &ActionQueue{Store: infra.NewFileQueueStore(doc("pending_actions.json")), Now: c.Now}
	return moderationFixture{
		mod:   &Moderation{Queue: q, Store: store, Now: c.Now},
		queue: q,
		store: store,
		clock: c,
	}
}

func TestModeration_ThreeBansThenPoll(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	for _, p := range []string{"A", "B", "C"} {
		_, err := f.mod.Execute(ctx, Command{Type: domain.ActionBan, Tenant: "K1", Moderator: "mod", Player: p, Reason: "griefing"})
		require.NoError(t, err)
	}

	got, err := f.queue.Drain(ctx, "K1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, p := range []string{"A", "B", "C"} {
		assert.Equal(t, domain.ActionKick, got[i].Type)
		assert.Equal(t, p, got[i].Player)
	}

	again, err := f.queue.Drain(ctx, "K1")
	require.NoError(t, err)
	assert.Empty(t, again)

	b, ok := f.store.Ban(ctx, "K1", "B")
	require.True(t, ok)
	assert.Nil(t, b.ExpiresAt)
	assert.Equal(t, "griefing", b.Reason)
}

func TestModeration_TempBanSetsExpiry(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	out, err := f.mod.Execute(ctx, Command{Type: domain.ActionTempBan, Tenant: "K1", Player: "A", Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionKick, out.Action.Type)
	assert.Equal(t, 30, out.Action.Duration)
	assert.Contains(t, out.Details, "Duration: 30m")

	b, ok := f.store.Ban(ctx, "K1", "A")
	require.True(t, ok)
	require.NotNil(t, b.ExpiresAt)
	assert.True(t, f.clock.Now().Add(30*time.Minute).Equal(*b.ExpiresAt))
}

func TestModeration_WarnCountsWarnings(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		out, err := f.mod.Execute(ctx, Command{Type: domain.ActionWarn, Tenant: "K1", Player: "A", Reason: "spam"})
		require.NoError(t, err)
		assert.Equal(t, i, out.Warnings)
		assert.Equal(t, domain.ActionWarn, out.Action.Type)
		f.clock.Advance(time.Second)
	}
}

func TestModeration_InvalidCommandDoesNotEnqueue(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	out, err := f.mod.Execute(ctx, Command{Type: domain.ActionBan, Tenant: "K1"})
	require.Error(t, err)
	assert.True(t, domain.IsInvalid(err))
	assert.Equal(t, "player is required", out.Details)

	got, err := f.queue.Drain(ctx, "K1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestModeration_TeamCommands(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()

	_, err := f.mod.Execute(ctx, Command{Type: domain.ActionTeamManage, Tenant: "K1", Player: "A", Team: "red", Operation: "add"})
	require.NoError(t, err)
	_, err = f.mod.Execute(ctx, Command{Type: domain.ActionSetLineup, Tenant: "K1", Team: "red", Lineup: []string{"A", "B"}})
	require.NoError(t, err)
	_, err = f.mod.Execute(ctx, Command{Type: domain.ActionClearTeams, Tenant: "K1"})
	require.NoError(t, err)

	got, err := f.queue.Drain(ctx, "K1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ActionTeamManage, got[0].Type)
	assert.Equal(t, []string{"A", "B"}, got[1].Lineup)
	assert.Equal(t, domain.ActionClearTeams, got[2].Type)
}

func TestModeration_BanKeptWhenKickCannotBeQueued(t *testing.T) {
	dir := t.TempDir()
	store := infra.NewFileModerationStore(
		infra.NewDocument(filepath.Join(dir, "bans.json"), zerolog.Nop()),
		infra.NewDocument(filepath.Join(dir, "warnings.json"), zerolog.Nop()),
	)
	q := newMemQueue()
	q.err = domain.ErrPersistence
	mod := &Moderation{Queue: &ActionQueue{Store: q}, Store: store}
	ctx := context.Background()

	out, err := mod.Execute(ctx, Command{Type: domain.ActionBan, Tenant: "K1", Player: "A", Reason: "cheating"})
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, out.Details, "ban stored but kick not queued")

	_, ok := store.Ban(ctx, "K1", "A")
	assert.True(t, ok, "ban row must survive the failed enqueue")
}
