// Package infra implementa os contratos de domain.
//
// Estado de admissão (WindowStore, Blocklist) vive só em memória e some no
// restart. Estatísticas podem ir para memória, Redis e Prometheus ao mesmo
// tempo via MultiStats.
package infra
