package domain

import "strings"

// SubjectType is the kind of grant holder.
type SubjectType string

// Subject type constants.
const (
	SubjectUser  SubjectType = "user"
	SubjectGroup SubjectType = "group"
)

// ParseSubjectType converts a string into a SubjectType.
func ParseSubjectType(s string) (SubjectType, error) {
	t := SubjectType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrValidation("subject_type must be 'user' or 'group' (got %q)", s)
	}
	return t, nil
}

// Valid reports whether t is a known subject type.
func (t SubjectType) Valid() bool {
	return t == SubjectUser || t == SubjectGroup
}

// Subject is the holder of a grant: a user profile or a group.
type Subject struct {
	Type SubjectType
	ID   string
}

// UserSubject returns a subject for a user profile id.
func UserSubject(profileID string) Subject { return Subject{Type: SubjectUser, ID: profileID} }

// GroupSubject returns a subject for a group id.
func GroupSubject(groupID string) Subject { return Subject{Type: SubjectGroup, ID: groupID} }

// ParseSubject parses the "type:id" form used by the CLI.
func ParseSubject(s string) (Subject, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok {
		return Subject{}, ErrValidation("subject reference must be <type>:<id> (got %q)", s)
	}
	t, err := ParseSubjectType(typ)
	if err != nil {
		return Subject{}, err
	}
	sub := Subject{Type: t, ID: strings.TrimSpace(id)}
	return sub, sub.Validate()
}

// Validate checks that the subject is well-formed.
func (s Subject) Validate() error {
	if !s.Type.Valid() {
		return ErrValidation("subject_type must be 'user' or 'group' (got %q)", string(s.Type))
	}
	if s.ID == "" {
		return ErrValidation("subject_id is required")
	}
	return nil
}

func (s Subject) String() string { return string(s.Type) + ":" + s.ID }
