// Package app wires repositories, services, fixtures and the HTTP router
// into a runnable access service.
package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/api"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/config"
	internaldb "github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/db/repository"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/declarative"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/middleware"
	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/service/security"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Dialect internaldb.Dialect
	Logger  *slog.Logger
}

// Repos groups the write-pool repositories.
type Repos struct {
	Profiles  *repository.ProfileRepo
	Teams     *repository.TeamRepo
	Groups    *repository.GroupRepo
	Grants    *repository.GrantRepo
	Tracks    *repository.TrackRepo
	Subtracks *repository.SubtrackRepo
	Trackers  *repository.TrackerRepo
	Audit     *repository.AuditRepo
}

// Services groups the service pointers the API handler and CLI need.
type Services struct {
	Profiles *security.ProfileService
	Grants   *security.GrantService
	Groups   *security.GroupService
	Access   *security.AccessResolver
}

// App is the fully-wired application.
type App struct {
	Services Services
	Repos    Repos
	Fixtures *declarative.Applier

	cfg    *config.Config
	readDB *sql.DB
	logger *slog.Logger
}

// New wires repositories and services from deps. Writes go through the
// write pool; the resolver reads through the read pool.
func New(deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w, d := deps.WriteDB, deps.Dialect

	repos := Repos{
		Profiles:  repository.NewProfileRepo(w, d),
		Teams:     repository.NewTeamRepo(w, d),
		Groups:    repository.NewGroupRepo(w, d),
		Grants:    repository.NewGrantRepo(w, d),
		Tracks:    repository.NewTrackRepo(w, d),
		Subtracks: repository.NewSubtrackRepo(w, d),
		Trackers:  repository.NewTrackerRepo(w, d),
		Audit:     repository.NewAuditRepo(w, d),
	}

	readDB := deps.ReadDB
	if readDB == nil {
		readDB = w
	}
	opts := []security.ResolverOption{security.WithResolverLogger(logger)}
	if deps.Cfg != nil && deps.Cfg.RequireTeamMembership {
		opts = append(opts, security.WithTeamMembershipPolicy(repository.NewTeamRepo(readDB, d)))
	}
	resolver := security.NewAccessResolver(
		repository.NewProfileRepo(readDB, d),
		repository.EntityLoaders(readDB, d),
		repository.NewGrantRepo(readDB, d),
		repository.NewGroupRepo(readDB, d),
		opts...,
	)

	svcs := Services{
		Profiles: security.NewProfileService(repos.Profiles),
		Grants:   security.NewGrantService(repos.Grants, repos.Groups, repos.Profiles, resolver, repos.Audit, logger),
		Groups:   security.NewGroupService(repos.Groups, repos.Teams, repos.Profiles, repos.Audit, logger),
		Access:   resolver,
	}

	fixtures := declarative.NewApplier(declarative.Store{
		Profiles:  repos.Profiles,
		Teams:     repos.Teams,
		Groups:    repos.Groups,
		Grants:    repos.Grants,
		Tracks:    repos.Tracks,
		Subtracks: repos.Subtracks,
		Trackers:  repos.Trackers,
	}, logger)

	return &App{
		Services: svcs,
		Repos:    repos,
		Fixtures: fixtures,
		cfg:      deps.Cfg,
		readDB:   readDB,
		logger:   logger,
	}
}

// Router builds the HTTP handler. ctx bounds the rate limiter's sweeper.
func (a *App) Router(ctx context.Context, validator middleware.JWTValidator) http.Handler {
	h := api.NewHandler(a.Services.Grants, a.Services.Groups, a.Services.Access, a.readDB, a.logger)

	auth := middleware.AuthConfig{
		Validator: validator,
		Profiles:  a.Services.Profiles,
		Logger:    a.logger,
	}
	rc := api.RouterConfig{Logger: a.logger}
	if a.cfg != nil {
		auth.JITProvision = a.cfg.Auth.JITProvision
		auth.NameClaim = a.cfg.Auth.NameClaim
		rc.CORSOrigins = a.cfg.CORSAllowedOrigins
		rc.Middleware = append(rc.Middleware, middleware.RateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		}))
	}
	rc.Authenticator = middleware.Authenticator(auth)
	return api.NewRouter(h, rc)
}
