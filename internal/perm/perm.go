// Package perm enforces organization-scoped access control. Every check is a
// pure read against the membership store and returns a typed error; callers
// compose the checks explicitly at each endpoint entry instead of relying on
// middleware ordering.
package perm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	// RoleNone is returned by RoleOf when no membership exists.
	RoleNone Role = ""
)

var (
	ErrNoActiveOrganization = errors.New("no active organization selected")
	ErrNotAMember           = errors.New("not a member of the organization")
	ErrInsufficientRole     = errors.New("insufficient role in the organization")
)

// ValidRole reports whether a role string is one of the assignable roles.
func ValidRole(role string) bool {
	return Role(role) == RoleAdmin || Role(role) == RoleMember
}

// MembershipSource reads membership roles. An empty role with a nil error
// means no membership exists.
type MembershipSource interface {
	MembershipRole(ctx context.Context, userID, organizationID int64) (string, error)
}

type Checker struct {
	memberships MembershipSource
}

func NewChecker(memberships MembershipSource) *Checker {
	return &Checker{memberships: memberships}
}

// RoleOf returns the user's role in the organization, or RoleNone. Read paths
// may use it to render affordances, but mutations must still call one of the
// Require functions.
func (c *Checker) RoleOf(ctx context.Context, userID, organizationID int64) (Role, error) {
	role, err := c.memberships.MembershipRole(ctx, userID, organizationID)
	if err != nil {
		return RoleNone, err
	}
	return Role(role), nil
}

// RequireMember fails with ErrNotAMember unless a membership exists.
func (c *Checker) RequireMember(ctx context.Context, userID, organizationID int64) error {
	role, err := c.RoleOf(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	if role == RoleNone {
		return ErrNotAMember
	}
	return nil
}

// RequireAdmin fails with ErrNotAMember when no membership exists and with
// ErrInsufficientRole when the membership is not ADMIN.
func (c *Checker) RequireAdmin(ctx context.Context, userID, organizationID int64) error {
	role, err := c.RoleOf(ctx, userID, organizationID)
	if err != nil {
		return err
	}
	switch role {
	case RoleNone:
		return ErrNotAMember
	case RoleAdmin:
		return nil
	default:
		return ErrInsufficientRole
	}
}

// RequireActiveOrganization resolves the caller's active organization and
// re-validates the membership at the moment of use, so a stale stored
// selection can never grant access.
func (c *Checker) RequireActiveOrganization(ctx context.Context, userID int64, activeOrganizationID *int64) (int64, error) {
	if activeOrganizationID == nil {
		return 0, ErrNoActiveOrganization
	}
	if err := c.RequireMember(ctx, userID, *activeOrganizationID); err != nil {
		return 0, err
	}
	return *activeOrganizationID, nil
}
