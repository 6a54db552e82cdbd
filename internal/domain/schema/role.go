package schema

import "slices"

// Role selects which declaration of a role-varying attribute is active,
// typically a version label such as "v1-0-0".
type Role string

// DefaultRole is reported by Var.Resolve when no case matched and the
// default value was used instead.
const DefaultRole Role = "default"

// Matcher reports whether a declaration applies under a role.
type Matcher func(Role) bool

// AllRoles matches every role.
func AllRoles(Role) bool { return true }

// Exact matches any of the given roles.
func Exact(roles ...Role) Matcher {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return func(r Role) bool {
		_, ok := set[r]
		return ok
	}
}

// Not matches every role except the given ones.
func Not(roles ...Role) Matcher {
	in := Exact(roles...)
	return func(r Role) bool { return !in(r) }
}

type varCase[T any] struct {
	match Matcher
	value T
}

// Var is a role-varying value. Cases are checked in declaration order and the
// first matching one wins. Var is a value type: When and Otherwise return
// modified copies and never touch the receiver.
type Var[T any] struct {
	cases      []varCase[T]
	def        T
	hasDefault bool
}

// Fixed returns a Var resolving to v under every role.
func Fixed[T any](v T) Var[T] {
	return Var[T]{}.Otherwise(v)
}

// When adds a case that yields v for roles accepted by m.
func (v Var[T]) When(m Matcher, value T) Var[T] {
	out := v
	out.cases = append(slices.Clip(v.cases), varCase[T]{match: m, value: value})
	return out
}

// Otherwise sets the value used when no case matches.
func (v Var[T]) Otherwise(value T) Var[T] {
	out := v
	out.def = value
	out.hasDefault = true
	return out
}

// Resolve returns the value active under role and the role it was resolved
// for. ok is false when neither a case nor a default applies.
func (v Var[T]) Resolve(role Role) (value T, resolved Role, ok bool) {
	for _, c := range v.cases {
		if c.match(role) {
			return c.value, role, true
		}
	}
	if v.hasDefault {
		return v.def, DefaultRole, true
	}
	var zero T
	return zero, "", false
}
