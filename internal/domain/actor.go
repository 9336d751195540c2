// internal/domain/actor.go
package domain

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleApplicant  Role = "APPLICANT"
	RoleOfficer    Role = "OFFICER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleOfficer, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated principal supplied by the identity provider.
// A nil *Actor denotes a system-initiated action.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

func (a *Actor) HasRole(roles ...Role) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the actor may read applications it does not own.
func (a *Actor) IsStaff() bool {
	return a.HasRole(RoleOfficer, RoleSupervisor, RoleAdmin)
}

// Label is the human-readable identity used in audit reasons.
func (a *Actor) Label() string {
	if a == nil {
		return "system"
	}
	if a.Email != "" {
		return a.Email
	}
	return a.ID.String()
}

// RequireRole returns a PermissionDeniedError unless the actor holds one of roles.
func RequireRole(actor *Actor, roles ...Role) error {
	if actor.HasRole(roles...) {
		return nil
	}
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	err := &PermissionDeniedError{Allowed: allowed, Role: "none", ActorID: "anonymous"}
	if actor != nil {
		err.ActorID = actor.ID.String()
		err.Role = string(actor.Role)
	}
	return err
}
