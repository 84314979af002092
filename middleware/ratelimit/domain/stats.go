package domain

import (
	"context"
	"strings"
	"time"
)

// Nomes dos resultados de admissão, usados como campo/label pelas stores.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeBlocked = "blocked"
)

// StatsEvent é uma decisão de admissão já tomada.
//
// Key e Path vêm do cliente: quem grava por chave ou rota precisa controlar
// a cardinalidade.
type StatsEvent struct {
	Key     Key
	Allowed bool
	// Blocked: negado pela blacklist, não por estouro da janela.
	Blocked bool

	Method string
	Path   string

	At time.Time
}

// Outcome devolve allowed, blocked ou denied.
func (ev StatsEvent) Outcome() string {
	switch {
	case ev.Allowed:
		return OutcomeAllowed
	case ev.Blocked:
		return OutcomeBlocked
	default:
		return OutcomeDenied
	}
}

// Route devolve "METHOD /path" sem query string, ou "" se não houver nada.
func (ev StatsEvent) Route() string {
	path, _, _ := strings.Cut(strings.TrimSpace(ev.Path), "?")
	return strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + path)
}

// StatsStore recebe cada decisão do middleware. Erros são best-effort: o
// middleware ignora e segue com a request.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
