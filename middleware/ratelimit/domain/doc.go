// Package domain define os contratos da admissão de requisições: janela fixa
// por cliente, blocklist temporária, decisão devolvida ao middleware, vagas de
// concorrência e eventos de estatística.
//
// Nada aqui conhece net/http ou o storage concreto; a tabela de janelas e a
// blocklist são injetadas no Service por quem monta o processo.
package domain
