package security

import (
	"context"
	"log/slog"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// callerProfileID returns the profile id of the authenticated caller.
func callerProfileID(ctx context.Context) (string, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok || p.ProfileID == "" {
		return "", domain.ErrUnauthenticated("authentication required")
	}
	return p.ProfileID, nil
}

// auditor writes audit entries; failures are logged and never fail the operation.
type auditor struct {
	repo   domain.AuditRepository
	logger *slog.Logger
}

func (a auditor) record(ctx context.Context, e *domain.AuditEntry) {
	if a.repo == nil {
		return
	}
	if err := a.repo.Insert(ctx, e); err != nil {
		a.logger.WarnContext(ctx, "audit write failed", "action", e.Action, "error", err)
	}
}

func grantAudit(actor, action string, g *domain.Grant, detail string) *domain.AuditEntry {
	et, eid := string(g.Entity.Type), g.Entity.ID
	st, sid := string(g.Subject.Type), g.Subject.ID
	e := &domain.AuditEntry{
		ActorID:     actor,
		Action:      action,
		EntityType:  &et,
		EntityID:    &eid,
		SubjectType: &st,
		SubjectID:   &sid,
	}
	if detail != "" {
		e.Detail = &detail
	}
	return e
}

func groupAudit(actor, action, groupID, userID string) *domain.AuditEntry {
	st, sid := string(domain.SubjectGroup), groupID
	e := &domain.AuditEntry{
		ActorID:     actor,
		Action:      action,
		SubjectType: &st,
		SubjectID:   &sid,
	}
	if userID != "" {
		d := "user_id=" + userID
		e.Detail = &d
	}
	return e
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
