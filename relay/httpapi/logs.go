package httpapi

import (
	"net/http"
	"strconv"
)

// ListLogs handles GET /api/logs?limit=N
//
// limit ausente ou não numérico usa o padrão; valores abaixo de 1 viram 1.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		respondErr(w, err)
		return
	}
	tenant, err := h.authenticate(r, body)
	if err != nil {
		respondErr(w, err)
		return
	}

	entries, err := h.commands.List(r.Context(), tenant.Key, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, map[string]any{"logs": entries, "count": len(entries)})
}

// ClearLogs handles POST /api/logs/clear (chave de operador)
func (h *Handler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := h.authorizeOperator(r, body); err != nil {
		respondErr(w, err)
		return
	}

	ctx, cancel := h.persistContext(r)
	defer cancel()

	n, err := h.commands.Clear(ctx)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, map[string]any{"message": "Logs archived", "archived": n})
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if n < 1 {
		return 1
	}
	return n
}
