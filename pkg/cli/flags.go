package cli

import (
	"github.com/spf13/pflag"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

var (
	_ pflag.Value = (*entityRefValue)(nil)
	_ pflag.Value = (*subjectValue)(nil)
	_ pflag.Value = (*roleValue)(nil)
)

// entityRefValue is a flag holding a "<type>:<id>" entity reference.
type entityRefValue struct {
	ref domain.EntityRef
	set bool
}

func (v *entityRefValue) String() string {
	if !v.set {
		return ""
	}
	return v.ref.String()
}

func (v *entityRefValue) Set(s string) error {
	ref, err := domain.ParseEntityRef(s)
	if err != nil {
		return err
	}
	v.ref, v.set = ref, true
	return nil
}

func (v *entityRefValue) Type() string { return "type:id" }

// subjectValue is a flag holding a "user:<id>" or "group:<id>" subject.
type subjectValue struct {
	subject domain.Subject
	set     bool
}

func (v *subjectValue) String() string {
	if !v.set {
		return ""
	}
	return v.subject.String()
}

func (v *subjectValue) Set(s string) error {
	sub, err := domain.ParseSubject(s)
	if err != nil {
		return err
	}
	v.subject, v.set = sub, true
	return nil
}

func (v *subjectValue) Type() string { return "type:id" }

// roleValue is a flag holding a permission role.
type roleValue struct {
	role domain.Role
}

func (v *roleValue) String() string { return string(v.role) }

func (v *roleValue) Set(s string) error {
	r, err := domain.ParseRole(s)
	if err != nil {
		return err
	}
	v.role = r
	return nil
}

func (v *roleValue) Type() string { return "role" }

// addEntityFlag registers --entity on fs.
func addEntityFlag(fs *pflag.FlagSet, v *entityRefValue) {
	fs.Var(v, "entity", "Entity reference as <type>:<id> (track, subtrack, tracker)")
}
