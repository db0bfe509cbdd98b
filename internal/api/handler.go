// Package api provides the HTTP handlers for the access REST API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/middleware"
)

// grantService defines the grant operations used by the API handler.
type grantService interface {
	Grant(ctx context.Context, req domain.CreateGrantRequest) (*domain.Grant, error)
	Revoke(ctx context.Context, grantID string) (*domain.Grant, error)
	ChangeRole(ctx context.Context, req domain.ChangeRoleRequest) (*domain.Grant, error)
	Get(ctx context.Context, grantID string) (*domain.Grant, error)
	ListForEntity(ctx context.Context, ref domain.EntityRef, page domain.PageRequest) ([]domain.Grant, int64, error)
	ListForSubject(ctx context.Context, subject domain.Subject, page domain.PageRequest) ([]domain.Grant, int64, error)
}

// groupService defines the group operations used by the API handler.
type groupService interface {
	Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error)
	Get(ctx context.Context, id string) (*domain.Group, error)
	ListForTeam(ctx context.Context, teamID string, page domain.PageRequest) ([]domain.Group, int64, error)
	Archive(ctx context.Context, id string) error
	AddMember(ctx context.Context, req domain.AddGroupMemberRequest) (*domain.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string, page domain.PageRequest) ([]domain.GroupMember, int64, error)
}

// accessResolver answers access questions for the calling profile.
type accessResolver interface {
	Decide(ctx context.Context, profileID string, ref domain.EntityRef, required domain.Role) (domain.AccessDecision, error)
	ListAccessible(ctx context.Context, profileID string) ([]domain.AccessibleEntity, error)
}

// Pinger reports store liveness for /healthz.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves the /v1 API.
type Handler struct {
	grants grantService
	groups groupService
	access accessResolver
	db     Pinger
	logger *slog.Logger
}

// NewHandler creates a Handler. db may be nil, in which case /healthz does
// not check the store.
func NewHandler(grants grantService, groups groupService, access accessResolver, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		grants: grants,
		groups: groups,
		access: access,
		db:     db,
		logger: logger.With("component", "api"),
	}
}

// RouterConfig holds the middleware wrapped around the API.
type RouterConfig struct {
	Logger      *slog.Logger
	CORSOrigins []string
	// Middleware runs on every request, after request ID and logging.
	Middleware []func(http.Handler) http.Handler
	// Authenticator guards /v1. Nil leaves the routes open, which only tests do.
	Authenticator func(http.Handler) http.Handler
}

// NewRouter builds the HTTP router: public /healthz plus the authenticated
// /v1 routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         300,
		}))
	}
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", h.Healthz)
	r.Route("/v1", func(r chi.Router) {
		if cfg.Authenticator != nil {
			r.Use(cfg.Authenticator)
		}
		h.Routes(r)
	})
	return r
}

// Routes mounts the API operations on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/grants", h.CreateGrant)
	r.Route("/grants/{grantID}", func(r chi.Router) {
		r.Get("/", h.GetGrant)
		r.Patch("/", h.ChangeGrantRole)
		r.Delete("/", h.RevokeGrant)
	})

	r.Route("/entities/{entityType}/{entityID}", func(r chi.Router) {
		r.Get("/grants", h.ListEntityGrants)
		r.Get("/access", h.CheckAccess)
	})
	r.Get("/subjects/{subjectType}/{subjectID}/grants", h.ListSubjectGrants)
	r.Get("/me/access", h.ListMyAccess)

	r.Route("/teams/{teamID}/groups", func(r chi.Router) {
		r.Post("/", h.CreateGroup)
		r.Get("/", h.ListTeamGroups)
	})
	r.Route("/groups/{groupID}", func(r chi.Router) {
		r.Get("/", h.GetGroup)
		r.Post("/archive", h.ArchiveGroup)
		r.Get("/members", h.ListGroupMembers)
		r.Post("/members", h.AddGroupMember)
		r.Delete("/members/{userID}", h.RemoveGroupMember)
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Healthz reports liveness and, when a store is configured, whether it answers a ping.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.db == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorContext(r.Context(), "health check: database ping failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "error", Database: "unavailable"})
		return
	}
	resp.Database = "connected"
	writeJSON(w, http.StatusOK, resp)
}
