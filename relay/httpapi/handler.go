package httpapi

import (
	"net/http"
	"strings"
	"time"

	ratedomain "moderation-gateway/middleware/ratelimit/domain"
	"moderation-gateway/relay/application"
	"moderation-gateway/relay/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Deps são os colaboradores do Handler. Status e Metrics são opcionais.
type Deps struct {
	Tenants    domain.TenantRegistry
	Commands   *application.CommandLog
	Queue      *application.ActionQueue
	Moderation *application.Moderation

	// Status devolve o tamanho da tabela de janelas e da blocklist.
	Status func() ratedomain.Stats
	// Admission devolve os totais de decisões do rate limit desde o start.
	Admission func() any
	Metrics   http.Handler

	AdminKey string
	// PersistTimeout limita cada gravação feita por um handler. Zero = sem limite.
	PersistTimeout time.Duration

	Now    func() time.Time
	Logger zerolog.Logger
}

type Handler struct {
	tenants    domain.TenantRegistry
	commands   *application.CommandLog
	queue      *application.ActionQueue
	moderation *application.Moderation

	status    func() ratedomain.Stats
	admission func() any
	metrics   http.Handler

	adminKey       string
	persistTimeout time.Duration
	started        time.Time
	now            func() time.Time
	newKey         func() string
	log            zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		tenants:        d.Tenants,
		commands:       d.Commands,
		queue:          d.Queue,
		moderation:     d.Moderation,
		status:         d.Status,
		admission:      d.Admission,
		metrics:        d.Metrics,
		adminKey:       d.AdminKey,
		persistTimeout: d.PersistTimeout,
		started:        now(),
		now:            now,
		newKey:         func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		log:            d.Logger,
	}
}

// NewRouter registra todas as rotas do relay.
func NewRouter(h *Handler) *mux.Router {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = methodNotAllowed

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}

	// o subrouter responde sozinho a método errado; precisa dos mesmos handlers JSON
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed
	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)

	api.HandleFunc("/logs", h.ListLogs).Methods(http.MethodGet)
	api.HandleFunc("/logs/clear", h.ClearLogs).Methods(http.MethodPost)

	api.HandleFunc("/moderation/{command:kick|ban|tempban|warn}", h.Moderate).Methods(http.MethodPost)

	api.HandleFunc("/game/poll", h.Poll).Methods(http.MethodGet)
	api.HandleFunc("/game/teams", h.ManageTeam).Methods(http.MethodPost)
	api.HandleFunc("/game/teams/clear", h.ClearTeams).Methods(http.MethodPost)
	api.HandleFunc("/game/lineup", h.SetLineup).Methods(http.MethodPost)

	api.HandleFunc("/games/register", h.RegisterGame).Methods(http.MethodPost)
	api.HandleFunc("/games/me", h.CurrentGame).Methods(http.MethodGet)
	return r
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	stats := ratedomain.Stats{}
	if h.status != nil {
		stats = h.status()
	}
	fields := map[string]any{
		"status":    "online",
		"rateLimit": stats,
		"uptime":    int64(h.now().Sub(h.started).Seconds()),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.admission != nil {
		fields["admission"] = h.admission()
	}
	respondOK(w, fields)
}
