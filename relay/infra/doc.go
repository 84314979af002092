// Package infra contém as implementações concretas dos contratos de relay/domain.
//
//   - Document / Table: documentos JSON em disco, regravados inteiros a cada mutação
//     (arquivo temporário + fsync + rename), com um mutex por arquivo
//   - FileLogStore: log de comandos vivo + arquivos de rotação
//   - FileQueueStore / RedisQueueStore: fila de ações pendentes por tenant
//   - FileTenantRegistry / FileModerationStore: tabelas chave-valor dos colaboradores de CRUD
//   - WebhookNotifier: envio assíncrono e limitado das entradas do log para um webhook
package infra
