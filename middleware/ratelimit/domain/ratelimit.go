package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import "time"

type Key string

// WindowStore mantém uma janela fixa por chave.
//
// Hit incrementa o contador da janela corrente de key. Se now já passou do fim
// da janela, o contador volta a zero e a janela é reaberta em now+window antes
// do incremento. A operação inteira é atômica por chave.
type WindowStore interface {
	Hit(key Key, now time.Time, window time.Duration) (count int, windowEnd time.Time)
	Len() int
}

// Blocklist representa chaves temporariamente negadas.
//
// Block é idempotente: bloquear uma chave já bloqueada mantém o maior prazo.
type Blocklist interface {
	Blocked(key Key, now time.Time) (until time.Time, ok bool)
	Block(key Key, until time.Time)
	Len(now time.Time) int
}

type Decision struct {
	Allowed bool
	// Blocked indica que a chave está (ou acabou de entrar) na blocklist.
	Blocked bool

	Limit     int
	Remaining int
	ResetAt   time.Time

	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Stats é uma fotografia do estado do limiter, usada em /api/status.
type Stats struct {
	Tracked     int `json:"tracked"`
	Blacklisted int `json:"blacklisted"`
}
