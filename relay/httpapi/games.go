package httpapi

import (
	"net/http"
	"strings"

	"moderation-gateway/relay/domain"
)

type registerRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

// RegisterGame handles POST /api/games/register (chave de operador)
//
// A chave gerada só aparece nesta resposta.
func (h *Handler) RegisterGame(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := h.authorizeOperator(r, body); err != nil {
		respondErr(w, err)
		return
	}

	var req registerRequest
	if err := decodeBody(body, &req); err != nil {
		respondErr(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondErr(w, domain.Invalid("name is required"))
		return
	}

	ctx, cancel := h.persistContext(r)
	defer cancel()

	t := domain.Tenant{
		Key:       domain.TenantKey(h.newKey()),
		Name:      strings.TrimSpace(req.Name),
		OwnerID:   req.OwnerID,
		CreatedAt: h.now().UTC(),
	}
	err = h.tenants.Register(ctx, t)

	entry := domain.LogEntry{
		TenantKey: t.Key,
		Command:   "registerGame",
		Executor:  "operator",
		Target:    t.Name,
		Details:   "game registered",
		Success:   err == nil,
	}
	if err != nil {
		entry.Details = "registration failed: " + err.Error()
	}
	if _, rerr := h.commands.Record(ctx, entry); rerr != nil {
		h.log.Error().Err(rerr).Msg("failed to record game registration")
		if err == nil {
			err = rerr
		}
	}
	if err != nil {
		respondErr(w, err)
		return
	}

	h.log.Info().Str("tenant", t.Key.Redacted()).Str("name", t.Name).Msg("game registered")
	respondOK(w, map[string]any{"apiKey": string(t.Key), "game": t})
}

// CurrentGame handles GET /api/games/me
func (h *Handler) CurrentGame(w http.ResponseWriter, r *http.Request) {
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
	tenant.Key = domain.TenantKey(tenant.Key.Redacted())
	respondOK(w, map[string]any{"game": tenant})
}
