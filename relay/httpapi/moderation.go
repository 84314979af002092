package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"moderation-gateway/relay/application"
	"moderation-gateway/relay/domain"

	"github.com/gorilla/mux"
)

// commandRequest é o corpo comum dos comandos de moderação e de times.
type commandRequest struct {
	Player    string   `json:"player"`
	Reason    string   `json:"reason"`
	Moderator string   `json:"moderator"`
	Duration  int      `json:"duration"`
	Team      string   `json:"team"`
	Operation string   `json:"operation"`
	Lineup    []string `json:"lineup"`
}

// Moderate handles POST /api/moderation/{kick,ban,tempban,warn}
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, domain.ActionType(mux.Vars(r)["command"]))
}

// ManageTeam handles POST /api/game/teams
func (h *Handler) ManageTeam(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, domain.ActionTeamManage)
}

// ClearTeams handles POST /api/game/teams/clear
func (h *Handler) ClearTeams(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, domain.ActionClearTeams)
}

// SetLineup handles POST /api/game/lineup
func (h *Handler) SetLineup(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, domain.ActionSetLineup)
}

// Poll handles GET /api/game/poll
//
// As ações devolvidas já saíram da fila; uma falha do cliente depois disso as perde.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := h.persistContext(r)
	defer cancel()

	actions, err := h.queue.Drain(ctx, tenant.Key)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, map[string]any{"actions": actions})
}

// command autentica, executa e registra o resultado no log antes de responder.
// Falhas de validação, de storage e pânicos também viram entradas com success=false.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, typ domain.ActionType) {
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

	var req commandRequest
	decodeErr := decodeBody(body, &req)

	cmd := application.Command{
		Type:      typ,
		Tenant:    tenant.Key,
		Moderator: req.Moderator,
		Player:    req.Player,
		Reason:    req.Reason,
		Duration:  req.Duration,
		Team:      req.Team,
		Operation: req.Operation,
		Lineup:    req.Lineup,
	}
	entry := domain.LogEntry{
		TenantKey: tenant.Key,
		Command:   string(typ),
		Executor:  executor(req.Moderator),
		Target:    target(cmd),
	}

	ctx, cancel := h.persistContext(r)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			h.log.Error().Interface("panic", p).Str("command", entry.Command).Str("tenant", tenant.Key.Redacted()).Msg("command handler panicked")
			entry.Details = fmt.Sprintf("internal error: %v", p)
			entry.Success = false
			if _, err := h.commands.Record(context.WithoutCancel(ctx), entry); err != nil {
				h.log.Error().Err(err).Msg("failed to record panicked command")
			}
			respondError(w, http.StatusInternalServerError, "internal error")
		}
	}()

	var (
		out     application.Outcome
		execErr = decodeErr
	)
	if execErr == nil {
		out, execErr = h.moderation.Execute(ctx, cmd)
	}
	entry.Details = out.Details
	if execErr != nil && entry.Details == "" {
		entry.Details = execErr.Error()
	}
	entry.Success = execErr == nil

	recorded, err := h.commands.Record(ctx, entry)
	if err != nil {
		// a ação pode ter entrado na fila, mas sem registro não há sucesso confirmado
		respondErr(w, err)
		return
	}
	if execErr != nil {
		respondErr(w, execErr)
		return
	}

	fields := map[string]any{
		"message": fmt.Sprintf("%s queued", typ),
		"action":  out.Action,
		"logId":   recorded.ID,
	}
	if typ == domain.ActionWarn {
		fields["warnings"] = out.Warnings
	}
	respondOK(w, fields)
}

func (h *Handler) persistContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.persistTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.persistTimeout)
}

func executor(moderator string) string {
	if moderator == "" {
		return "api"
	}
	return moderator
}

func target(cmd application.Command) string {
	if cmd.Player != "" {
		return cmd.Player
	}
	return cmd.Team
}
