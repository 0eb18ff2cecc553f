package models

import (
	"strings"
	"time"

	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
)

// Role is a row in the open role set. Administrators create roles at
// runtime, so nothing in the core enumerates roles; callers only ever ask
// "does this actor hold capability X" or "what is this actor's highest
// police rank".
//
// Invariants:
//   - Capability is non-empty, lowercase, unique per role
//   - Rank 0 means a civilian role; Rank >= 1 means a police role
type Role struct {
	ID         id.RoleID `json:"id"`
	Name       string    `json:"name"`
	Capability string    `json:"capability"`
	Rank       int       `json:"rank"`
	CreatedAt  time.Time `json:"created_at"`
}

// Built-in police capability ladder. The set is open; these are the ranks
// every deployment seeds and the workflow gates reference.
const (
	CapabilityCadet     = "cadet"
	CapabilityOfficer   = "officer"
	CapabilityDetective = "detective"
	CapabilitySergeant  = "sergeant"
	CapabilityCaptain   = "captain"
	CapabilityChief     = "chief"
)

// Seed ranks for the built-in ladder, ascending.
const (
	RankCadet     = 1
	RankOfficer   = 2
	RankDetective = 3
	RankSergeant  = 4
	RankCaptain   = 5
	RankChief     = 6
)

// IsPolice reports whether the role carries any police rank.
func (r *Role) IsPolice() bool { return r.Rank >= 1 }

// NewRole validates and constructs a role row.
func NewRole(roleID id.RoleID, name, capability string, rank int, now time.Time) (*Role, error) {
	name = strings.TrimSpace(name)
	capability = strings.ToLower(strings.TrimSpace(capability))
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role name cannot be empty")
	}
	if capability == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role capability cannot be empty")
	}
	if rank < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role rank cannot be negative")
	}
	return &Role{
		ID:         roleID,
		Name:       name,
		Capability: capability,
		Rank:       rank,
		CreatedAt:  now,
	}, nil
}
