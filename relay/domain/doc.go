// Package domain define os tipos e contratos do relay de comandos de moderação:
// entradas do log de comandos, ações pendentes por tenant e as portas de
// persistência/notificação.
//
// Assim como o domínio do rate limit, não depende de net/http nem de storage concreto.
package domain
