package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"moderation-gateway/relay/domain"
)

// errNoChange faz Update terminar com sucesso sem regravar o arquivo.
var errNoChange = errors.New("no change")

// Table é um documento JSON no formato chave -> registro. Toda leitura-alteração-
// gravação passa pelo mutex da tabela, então duas atualizações concorrentes
// nunca se sobrescrevem.
type Table[T any] struct {
	mu  sync.Mutex
	doc *Document
}

func NewTable[T any](doc *Document) *Table[T] {
	return &Table[T]{doc: doc}
}

// Snapshot devolve uma cópia da tabela. Falha de leitura degrada para tabela
// vazia (disponível, possivelmente desatualizada).
func (t *Table[T]) Snapshot(ctx context.Context) map[string]T {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := readDocument[map[string]T](t.doc)
	if err != nil {
		t.doc.log.Warn().Err(err).Str("path", t.doc.path).Msg("table read failed, serving empty table")
		return map[string]T{}
	}
	if rows == nil {
		rows = map[string]T{}
	}
	return rows
}

func (t *Table[T]) Get(ctx context.Context, key string) (T, bool) {
	v, ok := t.Snapshot(ctx)[key]
	return v, ok
}

// Update carrega a tabela, aplica fn e grava o resultado. Se fn devolver erro
// nada é gravado e o erro volta para quem chamou.
func (t *Table[T]) Update(ctx context.Context, fn func(rows map[string]T) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := readDocument[map[string]T](t.doc)
	if err != nil {
		// sem leitura confiável não dá para gravar sem apagar o que não foi lido
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if rows == nil {
		rows = map[string]T{}
	}

	if err := fn(rows); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	return t.doc.Write(rows)
}
