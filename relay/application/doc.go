// Package application contém os casos de uso do relay: o log de comandos
// (Record/List/Clear), a fila de ações (Enqueue/Drain) e o despacho dos
// comandos de moderação, que combina as duas coisas com as tabelas de bans e avisos.
//
// Depende apenas de relay/domain; quem registra o resultado de cada comando no
// log é o adaptador HTTP.
package application
