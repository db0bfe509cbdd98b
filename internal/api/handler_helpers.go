package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// maxBodyBytes bounds request bodies; every payload here is a handful of ids.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation("request body is required")
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	if dec.More() {
		return domain.ErrValidation("invalid request body: trailing data")
	}
	return nil
}

// pageFromQuery extracts a PageRequest from optional max_results/page_token params.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	p := domain.PageRequest{PageToken: q.Get("page_token")}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, domain.ErrValidation("max_results must be a non-negative integer (got %q)", v)
		}
		p.MaxResults = n
	}
	return p, nil
}

// Page is the envelope for list responses.
type Page[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func newPage[S, T any](items []S, conv func(S) T, page domain.PageRequest, total int64) Page[T] {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}
	return Page[T]{
		Data:          out,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	}
}

func callerProfile(r *http.Request) (string, error) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok || p.ProfileID == "" {
		return "", domain.ErrUnauthenticated("authentication required")
	}
	return p.ProfileID, nil
}

func entityRefFromPath(typ, id string) (domain.EntityRef, error) {
	t, err := domain.ParseEntityType(typ)
	if err != nil {
		return domain.EntityRef{}, err
	}
	ref := domain.EntityRef{Type: t, ID: id}
	return ref, ref.Validate()
}

func subjectFromPath(typ, id string) (domain.Subject, error) {
	t, err := domain.ParseSubjectType(typ)
	if err != nil {
		return domain.Subject{}, err
	}
	s := domain.Subject{Type: t, ID: id}
	return s, s.Validate()
}

// === Wire types ===

// Grant is the JSON form of domain.Grant.
type Grant struct {
	ID          string     `json:"id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	SubjectType string     `json:"subject_type"`
	SubjectID   string     `json:"subject_id"`
	Role        string     `json:"permission_role"`
	GrantedBy   string     `json:"granted_by"`
	GrantedAt   time.Time  `json:"granted_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	RevokedBy   *string    `json:"revoked_by,omitempty"`
}

func grantToAPI(g domain.Grant) Grant {
	return Grant{
		ID:          g.ID,
		EntityType:  string(g.Entity.Type),
		EntityID:    g.Entity.ID,
		SubjectType: string(g.Subject.Type),
		SubjectID:   g.Subject.ID,
		Role:        string(g.Role),
		GrantedBy:   g.GrantedBy,
		GrantedAt:   g.GrantedAt,
		RevokedAt:   g.RevokedAt,
		RevokedBy:   g.RevokedBy,
	}
}

// Group is the JSON form of domain.Group.
type Group struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

func groupToAPI(g domain.Group) Group {
	return Group{
		ID:          g.ID,
		TeamID:      g.TeamID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		ArchivedAt:  g.ArchivedAt,
	}
}

// GroupMember is the JSON form of domain.GroupMember.
type GroupMember struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func groupMemberToAPI(m domain.GroupMember) GroupMember {
	return GroupMember{
		ID:        m.ID,
		GroupID:   m.GroupID,
		UserID:    m.UserID,
		AddedBy:   m.AddedBy,
		CreatedAt: m.CreatedAt,
	}
}

// AccessCheck reports the caller's access to one entity.
type AccessCheck struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"`
	Allowed    bool   `json:"allowed"`
	Path       string `json:"path"`
	GroupID    string `json:"group_id,omitempty"`
}

// deniedPath is the only reason a denied access check reports.
const deniedPath = "denied"

func accessCheckToAPI(ref domain.EntityRef, role domain.Role, d domain.AccessDecision) AccessCheck {
	out := AccessCheck{
		EntityType: string(ref.Type),
		EntityID:   ref.ID,
		Role:       string(role),
		Allowed:    d.Allowed,
		Path:       deniedPath,
	}
	if d.Allowed {
		out.Path, out.GroupID = string(d.Path), d.GroupID
	}
	return out
}

// AccessibleEntity is one entry of the caller's access listing.
type AccessibleEntity struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Role       string `json:"role"`
	Path       string `json:"path"`
	GroupID    string `json:"group_id,omitempty"`
}

func accessibleToAPI(a domain.AccessibleEntity) AccessibleEntity {
	return AccessibleEntity{
		EntityType: string(a.Entity.Type),
		EntityID:   a.Entity.ID,
		Role:       string(a.Role),
		Path:       string(a.Path),
		GroupID:    a.GroupID,
	}
}
