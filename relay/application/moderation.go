package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moderation-gateway/relay/domain"
)

// Command é um comando de moderação já autenticado. Os campos usados
// dependem de Type, como em domain.PendingAction.
type Command struct {
	Type      domain.ActionType
	Tenant    domain.TenantKey
	Moderator string
	Player    string
	Reason    string
	Duration  int // minutos, tempban
	Team      string
	Operation string
	Lineup    []string
}

// Outcome resume o efeito de um comando para a resposta HTTP e para o log.
type Outcome struct {
	Action   domain.PendingAction
	Warnings int
	Details  string
}

// Moderation aplica comandos: grava a linha de ban/aviso quando o comando tem
// uma e enfileira a ação para o servidor de jogo.
type Moderation struct {
	Queue *ActionQueue
	Store domain.ModerationStore
	Now   func() time.Time
}

func (m *Moderation) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	if err := (domain.PendingAction{
		Type:      cmd.Type,
		Player:    cmd.Player,
		Duration:  cmd.Duration,
		Team:      cmd.Team,
		Operation: cmd.Operation,
		Lineup:    cmd.Lineup,
	}).Validate(); err != nil {
		return Outcome{Details: err.Error()}, err
	}

	switch cmd.Type {
	case domain.ActionKick:
		return m.enqueue(ctx, cmd, domain.PendingAction{
			Type: domain.ActionKick, Player: cmd.Player, Reason: cmd.Reason, Moderator: cmd.Moderator,
		}, reasonDetails(cmd.Reason))

	case domain.ActionBan, domain.ActionTempBan:
		return m.ban(ctx, cmd)

	case domain.ActionWarn:
		return m.warn(ctx, cmd)

	case domain.ActionTeamManage:
		return m.enqueue(ctx, cmd, domain.PendingAction{
			Type: domain.ActionTeamManage, Player: cmd.Player, Team: cmd.Team, Operation: cmd.Operation, Moderator: cmd.Moderator,
		}, fmt.Sprintf("%s %s (team %s)", cmd.Operation, cmd.Player, cmd.Team))

	case domain.ActionClearTeams:
		return m.enqueue(ctx, cmd, domain.PendingAction{
			Type: domain.ActionClearTeams, Moderator: cmd.Moderator,
		}, "all teams cleared")

	case domain.ActionSetLineup:
		return m.enqueue(ctx, cmd, domain.PendingAction{
			Type: domain.ActionSetLineup, Team: cmd.Team, Lineup: cmd.Lineup, Moderator: cmd.Moderator,
		}, fmt.Sprintf("team %s: %s", cmd.Team, strings.Join(cmd.Lineup, ", ")))
	}

	err := domain.Invalid("unsupported command %q", cmd.Type)
	return Outcome{Details: err.Error()}, err
}

// ban grava a linha de ban e expulsa o jogador: o servidor de jogo recebe um kick.
func (m *Moderation) ban(ctx context.Context, cmd Command) (Outcome, error) {
	now := m.now().UTC()
	b := domain.Ban{
		TenantKey: cmd.Tenant,
		Player:    cmd.Player,
		Reason:    cmd.Reason,
		Moderator: cmd.Moderator,
		CreatedAt: now,
	}
	details := reasonDetails(cmd.Reason)
	if cmd.Type == domain.ActionTempBan {
		exp := now.Add(time.Duration(cmd.Duration) * time.Minute)
		b.ExpiresAt = &exp
		details = fmt.Sprintf("Duration: %dm; %s", cmd.Duration, details)
	}

	if m.Store != nil {
		if err := m.Store.PutBan(ctx, b); err != nil {
			return Outcome{Details: "ban not stored: " + err.Error()}, err
		}
	}

	out, err := m.enqueue(ctx, cmd, domain.PendingAction{
		Type:      domain.ActionKick,
		Player:    cmd.Player,
		Reason:    cmd.Reason,
		Moderator: cmd.Moderator,
		Duration:  cmd.Duration,
	}, details)
	if err != nil && m.Store != nil {
		// a linha de ban fica: o jogador continua banido, só o kick imediato falhou
		out.Details = "ban stored but kick not queued: " + err.Error()
	}
	return out, err
}

func (m *Moderation) warn(ctx context.Context, cmd Command) (Outcome, error) {
	count := 0
	if m.Store != nil {
		w := domain.Warning{
			TenantKey: cmd.Tenant,
			Player:    cmd.Player,
			Reason:    cmd.Reason,
			Moderator: cmd.Moderator,
			CreatedAt: m.now().UTC(),
		}
		if err := m.Store.AddWarning(ctx, w); err != nil {
			return Outcome{Details: "warning not stored: " + err.Error()}, err
		}
		count = m.Store.CountWarnings(ctx, cmd.Tenant, cmd.Player)
	}

	out, err := m.enqueue(ctx, cmd, domain.PendingAction{
		Type: domain.ActionWarn, Player: cmd.Player, Reason: cmd.Reason, Moderator: cmd.Moderator,
	}, fmt.Sprintf("%s; warnings: %d", reasonDetails(cmd.Reason), count))
	out.Warnings = count
	return out, err
}

func (m *Moderation) enqueue(ctx context.Context, cmd Command, action domain.PendingAction, details string) (Outcome, error) {
	queued, err := m.Queue.Enqueue(ctx, cmd.Tenant, action)
	if err != nil {
		return Outcome{Details: "action not queued: " + err.Error()}, err
	}
	return Outcome{Action: queued, Details: details}, nil
}

func (m *Moderation) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func reasonDetails(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "Reason: none"
	}
	return "Reason: " + reason
}
