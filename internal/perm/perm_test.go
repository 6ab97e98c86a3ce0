package perm

import (
	"context"
	"errors"
	"testing"
)

type fakeMemberships map[[2]int64]string

func (f fakeMemberships) MembershipRole(_ context.Context, userID, organizationID int64) (string, error) {
	return f[[2]int64{userID, organizationID}], nil
}

func TestRequireMember(t *testing.T) {
	checker := NewChecker(fakeMemberships{
		{1, 10}: "MEMBER",
		{2, 10}: "ADMIN",
	})
	ctx := context.Background()

	if err := checker.RequireMember(ctx, 1, 10); err != nil {
		t.Fatalf("expected member to pass, got %v", err)
	}
	if err := checker.RequireMember(ctx, 2, 10); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := checker.RequireMember(ctx, 3, 10); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
	if err := checker.RequireMember(ctx, 1, 99); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember for unknown org, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	checker := NewChecker(fakeMemberships{
		{1, 10}: "MEMBER",
		{2, 10}: "ADMIN",
	})
	ctx := context.Background()

	if err := checker.RequireAdmin(ctx, 2, 10); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := checker.RequireAdmin(ctx, 1, 10); !errors.Is(err, ErrInsufficientRole) {
		t.Fatalf("expected ErrInsufficientRole for member, got %v", err)
	}
	if err := checker.RequireAdmin(ctx, 3, 10); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember for non-member, got %v", err)
	}
}

func TestRoleOf(t *testing.T) {
	checker := NewChecker(fakeMemberships{{1, 10}: "ADMIN"})
	ctx := context.Background()

	role, err := checker.RoleOf(ctx, 1, 10)
	if err != nil || role != RoleAdmin {
		t.Fatalf("expected RoleAdmin, got %v (%v)", role, err)
	}
	role, err = checker.RoleOf(ctx, 2, 10)
	if err != nil || role != RoleNone {
		t.Fatalf("expected RoleNone, got %v (%v)", role, err)
	}
}

func TestRequireActiveOrganization(t *testing.T) {
	checker := NewChecker(fakeMemberships{{1, 10}: "MEMBER"})
	ctx := context.Background()

	if _, err := checker.RequireActiveOrganization(ctx, 1, nil); !errors.Is(err, ErrNoActiveOrganization) {
		t.Fatalf("expected ErrNoActiveOrganization, got %v", err)
	}

	orgID := int64(10)
	resolved, err := checker.RequireActiveOrganization(ctx, 1, &orgID)
	if err != nil || resolved != 10 {
		t.Fatalf("expected org 10, got %d (%v)", resolved, err)
	}

	// Membership was revoked after the selection was stored.
	stale := int64(10)
	if _, err := checker.RequireActiveOrganization(ctx, 2, &stale); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember for stale selection, got %v", err)
	}
}

func TestValidRole(t *testing.T) {
	for role, want := range map[string]bool{
		"ADMIN":  true,
		"MEMBER": true,
		"OWNER":  false,
		"admin":  false,
		"":       false,
	} {
		if got := ValidRole(role); got != want {
			t.Fatalf("ValidRole(%q) = %v, want %v", role, got, want)
		}
	}
}
