package security

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// GroupService manages team-scoped groups and their members. Mutations
// require the caller to be on the group's team. Users added to a group need
// not be on the team.
type GroupService struct {
	groups   domain.GroupRepository
	teams    domain.TeamRepository
	profiles domain.ProfileRepository
	audit    auditor
	logger   *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	groups domain.GroupRepository,
	teams domain.TeamRepository,
	profiles domain.ProfileRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *GroupService {
	logger = loggerOrDefault(logger).With("component", "group-service")
	return &GroupService{
		groups:   groups,
		teams:    teams,
		profiles: profiles,
		audit:    auditor{repo: audit, logger: logger},
		logger:   logger,
	}
}

// Create adds a group to a team.
func (s *GroupService) Create(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.teams.GetByID(ctx, req.TeamID); err != nil {
		return nil, err
	}
	if err := s.requireTeamMember(ctx, req.TeamID, caller); err != nil {
		return nil, err
	}

	g, err := s.groups.Create(ctx, &domain.Group{
		TeamID:      req.TeamID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   caller,
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, groupAudit(caller, domain.AuditCreateGroup, g.ID, ""))
	return g, nil
}

// Get returns a group to a member of its team or of the group itself.
func (s *GroupService) Get(ctx context.Context, id string) (*domain.Group, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireReader(ctx, g, caller); err != nil {
		return nil, err
	}
	return g, nil
}

// ListForTeam returns a page of a team's groups to a team member.
func (s *GroupService) ListForTeam(ctx context.Context, teamID string, page domain.PageRequest) ([]domain.Group, int64, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.requireTeamMember(ctx, teamID, caller); err != nil {
		return nil, 0, err
	}
	return s.groups.ListForTeam(ctx, teamID, page)
}

// Archive soft-deletes a group. Its grants stop conferring access at once;
// memberships are kept.
func (s *GroupService) Archive(ctx context.Context, id string) error {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return err
	}
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireTeamMember(ctx, g.TeamID, caller); err != nil {
		return err
	}
	if g.Archived() {
		return nil
	}
	if err := s.groups.Archive(ctx, id); err != nil {
		return err
	}
	s.audit.record(ctx, groupAudit(caller, domain.AuditArchiveGroup, id, ""))
	return nil
}

// AddMember puts a user into an active group.
func (s *GroupService) AddMember(ctx context.Context, req domain.AddGroupMemberRequest) (*domain.GroupMember, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTeamMember(ctx, g.TeamID, caller); err != nil {
		return nil, err
	}
	if g.Archived() {
		return nil, domain.ErrValidation("group %q is archived", g.ID)
	}
	if _, err := s.profiles.GetByID(ctx, req.UserID); err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil, domain.ErrNotFound("user %q not found", req.UserID)
		}
		return nil, err
	}

	m, err := s.groups.AddMember(ctx, &domain.GroupMember{GroupID: g.ID, UserID: req.UserID, AddedBy: caller})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, groupAudit(caller, domain.AuditAddMember, g.ID, req.UserID))
	return m, nil
}

// RemoveMember deletes a membership. Team members may remove anyone; a user
// may always leave a group.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return err
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if caller != userID {
		if err := s.requireTeamMember(ctx, g.TeamID, caller); err != nil {
			return err
		}
	}
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.audit.record(ctx, groupAudit(caller, domain.AuditRemoveMember, groupID, userID))
	return nil
}

// ListMembers returns a page of a group's members.
func (s *GroupService) ListMembers(ctx context.Context, groupID string, page domain.PageRequest) ([]domain.GroupMember, int64, error) {
	caller, err := callerProfileID(ctx)
	if err != nil {
		return nil, 0, err
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.requireReader(ctx, g, caller); err != nil {
		return nil, 0, err
	}
	return s.groups.ListMembers(ctx, groupID, page)
}

func (s *GroupService) requireTeamMember(ctx context.Context, teamID, profileID string) error {
	ok, err := s.teams.IsMember(ctx, teamID, profileID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccessDenied("caller is not a member of team %q", teamID)
	}
	return nil
}

func (s *GroupService) requireReader(ctx context.Context, g *domain.Group, profileID string) error {
	ok, err := s.teams.IsMember(ctx, g.TeamID, profileID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	groups, err := s.groups.ActiveGroupsForUser(ctx, profileID)
	if err != nil {
		return err
	}
	if containsGroup(groups, g.ID) {
		return nil
	}
	return domain.ErrAccessDenied("caller cannot view group %q", g.ID)
}
