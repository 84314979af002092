package infra

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/rs/zerolog"
)

// logDocument é o formato do log vivo e de cada arquivo: {"logs": [...]}.
type logDocument struct {
	Logs []domain.LogEntry `json:"logs"`
}

// FileLogStore mantém o log vivo num documento JSON e move o excedente para
// arquivos write-once em archiveDir, nomeados pelo instante da rotação.
type FileLogStore struct {
	mu         sync.Mutex
	live       *Document
	archiveDir string
	now        func() time.Time
	log        zerolog.Logger

	// writeLive grava o log vivo; trocado nos testes para simular falha.
	writeLive func(v any) error
}

var _ domain.LogStore = (*FileLogStore)(nil)

type LogStoreOption func(*FileLogStore)

func WithLogClock(now func() time.Time) LogStoreOption {
	return func(s *FileLogStore) { s.now = now }
}

func NewFileLogStore(livePath, archiveDir string, log zerolog.Logger, opts ...LogStoreOption) *FileLogStore {
	s := &FileLogStore{
		live:       NewDocument(livePath, log),
		archiveDir: archiveDir,
		now:        time.Now,
		log:        log,
	}
	s.writeLive = s.live.Write
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileLogStore) Append(ctx context.Context, entry domain.LogEntry, capacity int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument[logDocument](s.live)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	doc.Logs = append(doc.Logs, entry)

	archived, archivePath := 0, ""
	if capacity > 0 && len(doc.Logs) > capacity {
		excess := len(doc.Logs) - capacity
		// o arquivo é gravado antes do log vivo ser truncado: só um crash entre
		// os dois passos deixa a entrada nos dois lugares, nunca em nenhum
		path, err := s.archive(doc.Logs[:excess])
		if err != nil {
			return 0, err
		}
		doc.Logs = append([]domain.LogEntry(nil), doc.Logs[excess:]...)
		archived, archivePath = excess, path
	}

	if err := s.writeLive(doc); err != nil {
		s.discardArchive(archivePath)
		return 0, err
	}
	return archived, nil
}

// Entries devolve o log vivo em ordem de criação. Falha de leitura degrada para vazio.
func (s *FileLogStore) Entries(ctx context.Context) ([]domain.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument[logDocument](s.live)
	if err != nil {
		s.log.Warn().Err(err).Msg("command log read failed, serving empty log")
		return nil, nil
	}
	return doc.Logs, nil
}

func (s *FileLogStore) ArchiveAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument[logDocument](s.live)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	n, archivePath := len(doc.Logs), ""
	if n > 0 {
		path, err := s.archive(doc.Logs)
		if err != nil {
			return 0, err
		}
		archivePath = path
	}
	if err := s.writeLive(logDocument{Logs: []domain.LogEntry{}}); err != nil {
		s.discardArchive(archivePath)
		return 0, err
	}
	return n, nil
}

// Archives lista os arquivos de rotação existentes, em ordem de nome (= de criação).
func (s *FileLogStore) Archives() ([]string, error) {
	return filepath.Glob(filepath.Join(s.archiveDir, "logs-*.json"))
}

// discardArchive desfaz um arquivo recém-criado quando o log vivo não pôde
// ser gravado; as entradas continuam no log vivo.
func (s *FileLogStore) discardArchive(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Error().Err(err).Str("archive", path).Msg("failed to remove archive after live log write failure")
	}
}

func (s *FileLogStore) archive(entries []domain.LogEntry) (string, error) {
	stamp := s.now().UTC().Format("20060102T150405.000000000Z")
	base := filepath.Join(s.archiveDir, "logs-"+stamp)

	path := base + ".json"
	for i := 1; ; i++ {
		err := writeExclusive(path, logDocument{Logs: entries})
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || i > 100 {
			return "", fmt.Errorf("%w: archive %s: %v", domain.ErrPersistence, path, err)
		}
		path = fmt.Sprintf("%s-%d.json", base, i)
	}

	s.log.Info().Str("archive", path).Int("entries", len(entries)).Msg("command log rotated")
	return path, nil
}
