package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogStore(t *testing.T) (*FileLogStore, string) {
	t.Helper()
	dir := t.TempDir()
	tick := time.Unix(1_700_000_000, 0)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	s := NewFileLogStore(filepath.Join(dir, "logs.json"), filepath.Join(dir, "archives"), zerolog.Nop(), WithLogClock(clock))
	return s, dir
}

func entry(i int) domain.LogEntry {
	return domain.LogEntry{ID: fmt.Sprintf("e%04d", i), TenantKey: "K1", Command: "kick", Executor: "mod", Success: true}
}

func readArchives(t *testing.T, s *FileLogStore) [][]domain.LogEntry {
	t.Helper()
	paths, err := s.Archives()
	require.NoError(t, err)
	out := make([][]domain.LogEntry, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		var doc logDocument
		require.NoError(t, json.Unmarshal(b, &doc))
		out = append(out, doc.Logs)
	}
	return out
}

func TestFileLogStore_AppendKeepsOrder(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := s.Append(ctx, entry(i), 10)
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	got, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e0000", got[0].ID)
	assert.Equal(t, "e0002", got[2].ID)
}

func TestFileLogStore_RotatesExcessIntoOneArchive(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, entry(i), 5)
		require.NoError(t, err)
	}
	archived, err := s.Append(ctx, entry(5), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	live, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, live, 5)
	assert.Equal(t, "e0001", live[0].ID)
	assert.Equal(t, "e0005", live[4].ID)

	archives := readArchives(t, s)
	require.Len(t, archives, 1)
	require.Len(t, archives[0], 1)
	assert.Equal(t, "e0000", archives[0][0].ID)
}

func TestFileLogStore_LiveUnionArchivesIsFullHistory(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	const total = 23
	for i := 0; i < total; i++ {
		_, err := s.Append(ctx, entry(i), 4)
		require.NoError(t, err)
	}

	var all []domain.LogEntry
	for _, a := range readArchives(t, s) {
		all = append(all, a...)
	}
	live, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, live, 4)
	all = append(all, live...)

	require.Len(t, all, total)
	for i, e := range all {
		assert.Equal(t, fmt.Sprintf("e%04d", i), e.ID)
	}
}

func TestFileLogStore_ArchiveAllEmptiesLiveLog(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, entry(i), 100)
		require.NoError(t, err)
	}

	n, err := s.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	live, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)

	archives := readArchives(t, s)
	require.Len(t, archives, 1)
	assert.Len(t, archives[0], 3)

	// log vazio: nada a arquivar
	n, err = s.ArchiveAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, readArchives(t, s), 1)
}

func TestFileLogStore_EntriesDegradesOnUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "logs.json")
	// um diretório no lugar do arquivo: ReadFile falha sem ser ErrNotExist
	require.NoError(t, os.Mkdir(live, 0o755))

	s := NewFileLogStore(live, filepath.Join(dir, "archives"), zerolog.Nop())
	got, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Append(context.Background(), entry(0), 10)
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestFileLogStore_FailedLiveWriteLeavesNoArchive(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Append(ctx, entry(i), 2)
		require.NoError(t, err)
	}

	s.writeLive = func(any) error { return fmt.Errorf("%w: disk full", domain.ErrPersistence) }
	_, err := s.Append(ctx, entry(2), 2)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, readArchives(t, s), "archive must be rolled back when the live log is not written")

	s.writeLive = s.live.Write
	n, err := s.Append(ctx, entry(3), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	archives := readArchives(t, s)
	require.Len(t, archives, 1)
	require.Len(t, archives[0], 1)
	assert.Equal(t, "e0000", archives[0][0].ID)

	live, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, "e0001", live[0].ID)
	assert.Equal(t, "e0003", live[1].ID)
}

func TestFileLogStore_FailedClearLeavesNoArchive(t *testing.T) {
	s, _ := newTestLogStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, entry(0), 10)
	require.NoError(t, err)

	s.writeLive = func(any) error { return fmt.Errorf("%w: disk full", domain.ErrPersistence) }
	_, err = s.ArchiveAll(ctx)
	require.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, readArchives(t, s))

	live, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 1)
}
