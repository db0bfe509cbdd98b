package security

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// GrantService shares entities with users and groups. Every mutation is
// checked against the resolver and audited.
type GrantService struct {
	grants   domain.GrantRepository
	groups   domain.GroupRepository
	profiles domain.ProfileRepository
	resolver *AccessResolver
	audit    auditor
	logger   *slog.Logger
}

// NewGrantService creates a new GrantService.
func NewGrantService(
	grants domain.GrantRepository,
	groups domain.GroupRepository,
	profiles domain.ProfileRepository,
	resolver *AccessResolver,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *GrantService {
	logger = loggerOrDefault(logger).With("component", "grant-service")
	return &GrantService{
		grants:   grants,
		groups:   groups,
		profiles: profiles,
		resolver: resolver,
		audit:    auditor{repo: audit, logger: logger},
		logger:   logger,
	}
}

// Grant gives a subject a role on an entity. The caller must own the entity
// (directly or through an owner grant). The subject must exist and a group
// subject must not be archived. A second active grant for the same entity and
// subject is a ConflictError of kind ErrDuplicateGrant; use ChangeRole instead.
func (s *GrantService) Grant(ctx context.Context, req domain.CreateGrantRequest) (*domain.Grant, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolver.Require(ctx, caller, req.Entity, domain.RoleOwner); err != nil {
		return nil, err
	}
	if err := s.checkSubject(ctx, req.Subject); err != nil {
		return nil, err
	}

	g, err := s.grants.Grant(ctx, &domain.Grant{
		Entity:    req.Entity,
		Subject:   req.Subject,
		Role:      req.Role,
		GrantedBy: caller,
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, grantAudit(caller, domain.AuditGrant, g, "role="+string(g.Role)))
	s.logger.InfoContext(ctx, "grant created",
		"grant_id", g.ID, "entity", g.Entity.String(), "subject", g.Subject.String(), "role", string(g.Role))
	return g, nil
}

// Revoke ends an active grant. Entity owners may revoke any grant on the
// entity; a user may also drop a grant held by themselves.
func (s *GrantService) Revoke(ctx context.Context, grantID string) (*domain.Grant, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.authorizedGrant(ctx, caller, grantID, domain.RoleOwner)
	if err != nil {
		return nil, err
	}

	revoked, err := s.grants.Revoke(ctx, grantID, caller)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, grantAudit(caller, domain.AuditRevoke, revoked, ""))
	s.logger.InfoContext(ctx, "grant revoked", "grant_id", grantID, "entity", g.Entity.String())
	return revoked, nil
}

// ChangeRole revokes an active grant and issues a new one with a different
// role for the same entity and subject, atomically.
func (s *GrantService) ChangeRole(ctx context.Context, req domain.ChangeRoleRequest) (*domain.Grant, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g, err := s.authorizedGrant(ctx, caller, req.GrantID, domain.RoleOwner)
	if err != nil {
		return nil, err
	}
	// Holding the grant is not enough to change it.
	if err := s.resolver.Require(ctx, caller, g.Entity, domain.RoleOwner); err != nil {
		return nil, maskGrantLookup(err, req.GrantID)
	}
	if !g.Entity.Type.CanGrant(req.Role) {
		return nil, domain.NewValidation(domain.ErrInvalidRole, "role %q cannot be granted on a %s", req.Role, g.Entity.Type)
	}
	if !g.Active() {
		return nil, domain.NewConflict(domain.ErrAlreadyRevoked, "grant %q is already revoked", g.ID)
	}
	if g.Role == req.Role {
		return g, nil
	}

	next, err := s.grants.Replace(ctx, &domain.Grant{ID: g.ID, Role: req.Role, GrantedBy: caller})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, grantAudit(caller, domain.AuditChangeRole, next,
		"from="+string(g.Role)+" to="+string(next.Role)+" replaces="+g.ID))
	return next, nil
}

// Get returns a grant visible to the caller: one they hold, or one on an
// entity they can view.
func (s *GrantService) Get(ctx context.Context, grantID string) (*domain.Grant, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	return s.authorizedGrant(ctx, caller, grantID, domain.RoleViewer)
}

// authorizedGrant loads a grant the caller holds or on whose entity the caller
// has required. A missing grant and a forbidden one fail identically.
func (s *GrantService) authorizedGrant(ctx context.Context, caller, grantID string, required domain.Role) (*domain.Grant, error) {
	g, err := s.grants.GetByID(ctx, grantID)
	if err != nil {
		return nil, maskGrantLookup(err, grantID)
	}
	if g.Subject == domain.UserSubject(caller) {
		return g, nil
	}
	if err := s.resolver.Require(ctx, caller, g.Entity, required); err != nil {
		return nil, maskGrantLookup(err, grantID)
	}
	return g, nil
}

// maskGrantLookup turns NotFound and AccessDenied into one AccessDenied error
// so a grant id's existence is not observable. Other errors pass through.
func maskGrantLookup(err error, grantID string) error {
	var (
		nf *domain.NotFoundError
		ad *domain.AccessDeniedError
	)
	if errors.As(err, &nf) || errors.As(err, &ad) {
		return domain.ErrAccessDenied("grant %q is not accessible", grantID)
	}
	return err
}

// ListForEntity returns a page of active grants on an entity the caller can view.
func (s *GrantService) ListForEntity(ctx context.Context, ref domain.EntityRef, page domain.PageRequest) ([]domain.Grant, int64, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.resolver.Require(ctx, caller, ref, domain.RoleViewer); err != nil {
		return nil, 0, err
	}
	return s.grants.ListActiveForEntity(ctx, ref, page)
}

// ListForSubject returns a page of active grants held by the caller or by a
// group the caller belongs to.
func (s *GrantService) ListForSubject(ctx context.Context, subject domain.Subject, page domain.PageRequest) ([]domain.Grant, int64, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := subject.Validate(); err != nil {
		return nil, 0, err
	}
	switch subject.Type {
	case domain.SubjectUser:
		if subject.ID != caller {
			return nil, 0, domain.ErrAccessDenied("cannot list grants held by another user")
		}
	case domain.SubjectGroup:
		groups, err := s.groups.ActiveGroupsForUser(ctx, caller)
		if err != nil {
			return nil, 0, err
		}
		if !containsGroup(groups, subject.ID) {
			return nil, 0, domain.ErrAccessDenied("cannot list grants of a group you do not belong to")
		}
	}
	return s.grants.ListActiveForSubject(ctx, subject, page)
}

func (s *GrantService) checkSubject(ctx context.Context, subject domain.Subject) error {
	var nf *domain.NotFoundError
	switch subject.Type {
	case domain.SubjectUser:
		if _, err := s.profiles.GetByID(ctx, subject.ID); err != nil {
			if errors.As(err, &nf) {
				return domain.ErrNotFound("user %q not found", subject.ID)
			}
			return err
		}
	case domain.SubjectGroup:
		g, err := s.groups.GetByID(ctx, subject.ID)
		if err != nil {
			if errors.As(err, &nf) {
				return domain.ErrNotFound("group %q not found", subject.ID)
			}
			return err
		}
		if g.Archived() {
			return domain.ErrValidation("group %q is archived", subject.ID)
		}
	}
	return nil
}

func containsGroup(groups []domain.Group, id string) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}
