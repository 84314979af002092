// Package httpapi expõe o relay por HTTP: rotas gorilla/mux, resolução da
// credencial do tenant e handlers que chamam os casos de uso de relay/application.
//
// O rate limit não mora aqui; cmd/gateway embrulha o router inteiro com
// ratelimit.Middleware para que toda requisição passe por ele, inclusive 404.
package httpapi
