// Package security implements access resolution and the grant, group and
// profile services that sit on top of it.
package security

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// AccessResolver decides whether a profile holds at least a required role on
// an entity.
//
// Ownership and archive state come from the per-type EntityLoader, which reads
// entity columns directly. Grant and group checks go through the grant and
// group repositories only. Neither path calls back into the resolver.
type AccessResolver struct {
	profiles domain.ProfileRepository
	loaders  map[domain.EntityType]domain.EntityLoader
	grants   domain.GrantRepository
	groups   domain.GroupRepository
	teams    domain.TeamMembershipChecker
	logger   *slog.Logger
}

// ResolverOption configures an AccessResolver.
type ResolverOption func(*AccessResolver)

// WithTeamMembershipPolicy makes group paths count only while the user is
// still a member of the group's team.
func WithTeamMembershipPolicy(teams domain.TeamMembershipChecker) ResolverOption {
	return func(r *AccessResolver) { r.teams = teams }
}

// WithResolverLogger sets the logger used for decision tracing.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *AccessResolver) { r.logger = l }
}

// NewAccessResolver creates an AccessResolver.
func NewAccessResolver(
	profiles domain.ProfileRepository,
	loaders map[domain.EntityType]domain.EntityLoader,
	grants domain.GrantRepository,
	groups domain.GroupRepository,
	opts ...ResolverOption,
) *AccessResolver {
	r := &AccessResolver{
		profiles: profiles,
		loaders:  loaders,
		grants:   grants,
		groups:   groups,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "access-resolver")
	return r
}

// HasAccess resolves an identity provider subject to its profile and reports
// whether that profile holds at least required on ref. An unknown identity
// or entity is a plain false.
func (r *AccessResolver) HasAccess(ctx context.Context, authID string, ref domain.EntityRef, required domain.Role) (bool, error) {
	d, err := r.DecideForAuthID(ctx, authID, ref, required)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// CheckProfile is HasAccess for callers that already hold a profile id.
func (r *AccessResolver) CheckProfile(ctx context.Context, profileID string, ref domain.EntityRef, required domain.Role) (bool, error) {
	d, err := r.Decide(ctx, profileID, ref, required)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// DecideForAuthID is Decide keyed by identity provider subject.
func (r *AccessResolver) DecideForAuthID(ctx context.Context, authID string, ref domain.EntityRef, required domain.Role) (domain.AccessDecision, error) {
	if authID == "" {
		return r.deny(ref, required, "", domain.PathNoProfile), nil
	}
	p, err := r.profiles.GetByAuthID(ctx, authID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return r.deny(ref, required, "", domain.PathNoProfile), nil
		}
		return domain.AccessDecision{}, fmt.Errorf("resolve profile: %w", err)
	}
	return r.Decide(ctx, p.ID, ref, required)
}

// Decide evaluates ownership, then direct grants, then group grants, and
// reports which path allowed access or why it was denied. Archived entities
// admit only their owner.
func (r *AccessResolver) Decide(ctx context.Context, profileID string, ref domain.EntityRef, required domain.Role) (domain.AccessDecision, error) {
	if err := ref.Validate(); err != nil {
		return domain.AccessDecision{}, err
	}
	if !required.Valid() {
		return domain.AccessDecision{}, domain.ErrValidation("unknown required role %q", string(required))
	}
	if profileID == "" {
		return r.deny(ref, required, "", domain.PathNoProfile), nil
	}

	entity, err := r.load(ctx, ref)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return r.deny(ref, required, profileID, domain.PathNoEntity), nil
		}
		return domain.AccessDecision{}, err
	}

	if entity.IsOwnedBy(profileID) {
		return r.allow(ref, required, domain.AccessDecision{Allowed: true, Path: domain.PathOwner, ProfileID: profileID}), nil
	}
	if entity.IsArchived() {
		return r.deny(ref, required, profileID, domain.PathArchived), nil
	}

	g, err := r.grants.HasRole(ctx, []domain.Subject{domain.UserSubject(profileID)}, ref, required)
	if err != nil {
		return domain.AccessDecision{}, fmt.Errorf("check direct grant: %w", err)
	}
	if g != nil {
		return r.allow(ref, required, domain.AccessDecision{Allowed: true, Path: domain.PathDirect, ProfileID: profileID}), nil
	}

	groupSubjects, err := r.groupSubjects(ctx, profileID)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	g, err = r.grants.HasRole(ctx, groupSubjects, ref, required)
	if err != nil {
		return domain.AccessDecision{}, fmt.Errorf("check group grant: %w", err)
	}
	if g != nil {
		return r.allow(ref, required, domain.AccessDecision{
			Allowed:   true,
			Path:      domain.PathGroup,
			ProfileID: profileID,
			GroupID:   g.Subject.ID,
		}), nil
	}

	return r.deny(ref, required, profileID, domain.PathNoGrant), nil
}

// Require returns an AccessDeniedError unless profileID holds required on
// ref. A missing entity and a denied one produce the same error.
func (r *AccessResolver) Require(ctx context.Context, profileID string, ref domain.EntityRef, required domain.Role) error {
	d, err := r.Decide(ctx, profileID, ref, required)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return domain.ErrAccessDenied("%s access to %s denied", required, ref)
	}
	return nil
}

// ListAccessible returns every non-archived entity the profile reaches
// through a direct or group grant, with the highest role per entity. Owned
// entities that also carry a grant are reported with the owner role.
func (r *AccessResolver) ListAccessible(ctx context.Context, profileID string) ([]domain.AccessibleEntity, error) {
	if profileID == "" {
		return nil, nil
	}

	var direct, viaGroups []domain.Grant
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		grants, err := r.grants.ListActiveForSubjects(gctx, []domain.Subject{domain.UserSubject(profileID)})
		if err != nil {
			return fmt.Errorf("list direct grants: %w", err)
		}
		direct = grants
		return nil
	})
	g.Go(func() error {
		subjects, err := r.groupSubjects(gctx, profileID)
		if err != nil {
			return err
		}
		grants, err := r.grants.ListActiveForSubjects(gctx, subjects)
		if err != nil {
			return fmt.Errorf("list group grants: %w", err)
		}
		viaGroups = grants
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := make(map[domain.EntityRef]domain.AccessibleEntity)
	consider := func(gr domain.Grant, path domain.AccessPath, groupID string) {
		cur, ok := best[gr.Entity]
		if ok && cur.Role.Rank() >= gr.Role.Rank() {
			return
		}
		best[gr.Entity] = domain.AccessibleEntity{Entity: gr.Entity, Role: gr.Role, Path: path, GroupID: groupID}
	}
	for _, gr := range direct {
		consider(gr, domain.PathDirect, "")
	}
	for _, gr := range viaGroups {
		consider(gr, domain.PathGroup, gr.Subject.ID)
	}

	refs := make([]domain.EntityRef, 0, len(best))
	for ref := range best {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })

	// Each goroutine writes only its own slot.
	states := make([]domain.Entity, len(refs))
	lg, lctx := errgroup.WithContext(ctx)
	lg.SetLimit(8)
	for i, ref := range refs {
		lg.Go(func() error {
			e, err := r.load(lctx, ref)
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					return nil
				}
				return err
			}
			states[i] = e
			return nil
		})
	}
	if err := lg.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.AccessibleEntity, 0, len(refs))
	for i, ref := range refs {
		e := states[i]
		if e == nil {
			continue
		}
		item := best[ref]
		switch {
		case e.IsOwnedBy(profileID):
			item.Role, item.Path, item.GroupID = domain.RoleOwner, domain.PathOwner, ""
		case e.IsArchived():
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// groupSubjects returns the user's active groups as grant subjects, dropping
// groups whose team no longer lists the user when that policy is on.
func (r *AccessResolver) groupSubjects(ctx context.Context, profileID string) ([]domain.Subject, error) {
	groups, err := r.groups.ActiveGroupsForUser(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("resolve groups for %s: %w", profileID, err)
	}
	subjects := make([]domain.Subject, 0, len(groups))
	for _, g := range groups {
		if r.teams != nil {
			ok, err := r.teams.IsMember(ctx, g.TeamID, profileID)
			if err != nil {
				return nil, fmt.Errorf("check team membership: %w", err)
			}
			if !ok {
				continue
			}
		}
		subjects = append(subjects, domain.GroupSubject(g.ID))
	}
	return subjects, nil
}

func (r *AccessResolver) load(ctx context.Context, ref domain.EntityRef) (domain.Entity, error) {
	loader, ok := r.loaders[ref.Type]
	if !ok {
		return nil, domain.ErrValidation("no loader registered for entity type %q", string(ref.Type))
	}
	return loader.Load(ctx, ref.ID)
}

func (r *AccessResolver) allow(ref domain.EntityRef, required domain.Role, d domain.AccessDecision) domain.AccessDecision {
	r.logger.Debug("access allowed",
		"entity", ref.String(), "required", string(required),
		"profile_id", d.ProfileID, "path", string(d.Path), "group_id", d.GroupID)
	return d
}

func (r *AccessResolver) deny(ref domain.EntityRef, required domain.Role, profileID string, path domain.AccessPath) domain.AccessDecision {
	r.logger.Debug("access denied",
		"entity", ref.String(), "required", string(required),
		"profile_id", profileID, "reason", string(path))
	return domain.AccessDecision{Allowed: false, Path: path, ProfileID: profileID}
}
