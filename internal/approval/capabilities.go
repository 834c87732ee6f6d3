package approval

import "strings"

// Role names an actor's job. Only the capability set derived from it is
// consulted by the state machine.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleFinanceManager Role = "finance-manager"
	RoleAccountant     Role = "accountant"
	RoleClerk          Role = "clerk"
)

// Capabilities is resolved once per actor.
type Capabilities struct {
	CanEditAny       bool
	CanDeleteAny     bool
	CanRequestDelete bool
	CanApprove       bool
}

// Privileged reports whether the actor can bypass the request/confirm protocol.
func (c Capabilities) Privileged() bool {
	return c.CanDeleteAny
}

// ParseRole normalizes a role name such as "Finance Manager".
func ParseRole(s string) Role {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return Role(s)
}

// CapabilitiesFor returns the capability set of a role. Unknown roles get none.
func CapabilitiesFor(r Role) Capabilities {
	switch r {
	case RoleAdmin, RoleFinanceManager:
		return Capabilities{CanEditAny: true, CanDeleteAny: true, CanRequestDelete: true, CanApprove: true}
	case RoleAccountant:
		return Capabilities{CanRequestDelete: true, CanApprove: true}
	case RoleClerk:
		return Capabilities{CanRequestDelete: true}
	default:
		return Capabilities{}
	}
}

// Actor is the caller of a transition.
type Actor struct {
	Name string
	Role Role
	Caps Capabilities
}

// NewActor resolves the actor's capabilities from role.
func NewActor(name string, role Role) Actor {
	return Actor{Name: name, Role: role, Caps: CapabilitiesFor(role)}
}
