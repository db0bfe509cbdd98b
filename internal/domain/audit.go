package domain

import "time"

// Audit actions.
const (
	AuditGrant        = "GRANT"
	AuditRevoke       = "REVOKE"
	AuditChangeRole   = "CHANGE_ROLE"
	AuditCreateGroup  = "CREATE_GROUP"
	AuditArchiveGroup = "ARCHIVE_GROUP"
	AuditAddMember    = "ADD_MEMBER"
	AuditRemoveMember = "REMOVE_MEMBER"
)

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID          string
	ActorID     string
	Action      string
	EntityType  *string
	EntityID    *string
	SubjectType *string
	SubjectID   *string
	Detail      *string
	CreatedAt   time.Time
}
