package infra

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"moderation-gateway/relay/domain"

	"github.com/rs/zerolog"
)

// Document é um arquivo JSON lido e gravado inteiro.
type Document struct {
	path string
	log  zerolog.Logger
	now  func() time.Time
}

func NewDocument(path string, log zerolog.Logger) *Document {
	return &Document{path: path, log: log, now: time.Now}
}

func (d *Document) Path() string { return d.path }

// readDocument decodifica o documento num T novo.
//
// Arquivo ausente ou vazio devolve o zero de T. JSON corrompido é movido para
// <path>.corrupt-<ts> (para não ser sobrescrito) e também devolve o zero de T.
// Qualquer outro erro de leitura é devolvido.
func readDocument[T any](d *Document) (T, error) {
	var v T
	b, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(b, &v); err != nil {
		var zero T
		aside := fmt.Sprintf("%s.corrupt-%d", d.path, d.now().UnixNano())
		if rerr := os.Rename(d.path, aside); rerr != nil {
			d.log.Error().Err(rerr).Str("path", d.path).Msg("failed to move corrupt document aside")
			return zero, fmt.Errorf("decode %s: %w", d.path, err)
		}
		d.log.Warn().Err(err).Str("path", d.path).Str("moved_to", aside).Msg("corrupt document replaced with empty default")
		return zero, nil
	}
	return v, nil
}

// Write grava v de forma atômica: ou o arquivo antigo continua intacto, ou o
// novo está completo em disco.
func (d *Document) Write(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, d.path, err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", domain.ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", domain.ErrPersistence, d.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, d.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrPersistence, d.path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close %s: %v", domain.ErrPersistence, d.path, err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: rename %s: %v", domain.ErrPersistence, d.path, err)
	}
	return nil
}

// writeExclusive cria path com v, falhando com fs.ErrExist se o arquivo já existir.
func writeExclusive(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
