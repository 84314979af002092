package domain

import (
	"context"
	"time"
)

type ActionType string

const (
	ActionKick       ActionType = "kick"
	ActionBan        ActionType = "ban"
	ActionTempBan    ActionType = "tempban"
	ActionWarn       ActionType = "warn"
	ActionTeamManage ActionType = "teamManage"
	ActionClearTeams ActionType = "clearTeams"
	ActionSetLineup  ActionType = "setLineup"
)

// PendingAction é um comando destinado ao processo do servidor de jogo de um tenant.
// Os campos além de Type dependem do tipo.
type PendingAction struct {
	Type      ActionType `json:"type"`
	Player    string     `json:"player,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Moderator string     `json:"moderator,omitempty"`
	Duration  int        `json:"duration,omitempty"` // minutos
	Team      string     `json:"team,omitempty"`
	Operation string     `json:"operation,omitempty"` // add/remove em teamManage
	Lineup    []string   `json:"lineup,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Validate confere os campos obrigatórios de cada tipo.
func (a PendingAction) Validate() error {
	switch a.Type {
	case ActionKick, ActionBan, ActionWarn:
		if a.Player == "" {
			return invalid("player is required")
		}
	case ActionTempBan:
		if a.Player == "" {
			return invalid("player is required")
		}
		if a.Duration <= 0 {
			return invalid("duration must be > 0")
		}
	case ActionTeamManage:
		if a.Player == "" || a.Team == "" {
			return invalid("player and team are required")
		}
		if a.Operation != "add" && a.Operation != "remove" {
			return invalid("operation must be add or remove")
		}
	case ActionClearTeams:
	case ActionSetLineup:
		if a.Team == "" {
			return invalid("team is required")
		}
		if len(a.Lineup) == 0 {
			return invalid("lineup must not be empty")
		}
	default:
		return invalid("unknown action type " + string(a.Type))
	}
	return nil
}

// QueueStore guarda a fila de ações pendentes por tenant.
//
// Drain lê e esvazia a fila do tenant numa única operação: uma ação nunca é
// devolvida a dois chamadores, e a ordem devolvida é a ordem de Push.
type QueueStore interface {
	Push(ctx context.Context, tenant TenantKey, action PendingAction) error
	Drain(ctx context.Context, tenant TenantKey) ([]PendingAction, error)
}
