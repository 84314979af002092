// Package ratelimit protege a API do relay com dois middlewares net/http:
//
//   - Middleware: janela fixa por cliente com escalada para blacklist
//     (X-RateLimit-* em toda resposta, 429 + Retry-After ao negar)
//   - ConcurrencyMiddleware: teto de requests em andamento (503 ao esgotar)
//
// As regras ficam em application, os contratos em domain e as implementações
// em memória/Redis/Prometheus em infra. Este pacote só extrai a chave do
// cliente e traduz Decision para status e headers.
package ratelimit
