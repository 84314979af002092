package httpapi

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"moderation-gateway/relay/domain"
)

const maxBodyBytes = 1 << 20

const (
	tenantKeyField  = "apiKey"
	tenantKeyHeader = "X-API-Key"
	adminKeyField   = "adminKey"
	adminKeyHeader  = "X-Admin-Key"
)

// readBody lê o corpo inteiro (limitado a 1 MiB) para que a credencial e o
// payload possam ser decodificados do mesmo buffer.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.Invalid("request body: %v", err)
	}
	return b, nil
}

// credential procura a chave no corpo JSON, depois na query string, depois no header.
func credential(r *http.Request, body []byte, field, header string) string {
	if len(bytes.TrimSpace(body)) > 0 {
		var fields map[string]json.RawMessage
		if json.Unmarshal(body, &fields) == nil {
			var v string
			if raw, ok := fields[field]; ok && json.Unmarshal(raw, &v) == nil {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get(field)); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get(header))
}

func (h *Handler) authenticate(r *http.Request, body []byte) (domain.Tenant, error) {
	key := credential(r, body, tenantKeyField, tenantKeyHeader)
	if key == "" {
		return domain.Tenant{}, domain.ErrUnauthenticated
	}
	t, err := h.tenants.Lookup(r.Context(), domain.TenantKey(key))
	if errors.Is(err, domain.ErrUnknownTenant) {
		return domain.Tenant{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, domain.TenantKey(key).Redacted())
	}
	if err != nil {
		return domain.Tenant{}, err
	}
	return t, nil
}

func (h *Handler) authorizeOperator(r *http.Request, body []byte) error {
	key := credential(r, body, adminKeyField, adminKeyHeader)
	if key == "" {
		return domain.ErrUnauthenticated
	}
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

func decodeBody(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.Invalid("malformed JSON body: %v", err)
	}
	return nil
}
