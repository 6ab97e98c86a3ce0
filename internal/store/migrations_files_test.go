package store

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	pattern := regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)
	byVersion := map[string]map[string]bool{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		version := match[1]
		direction := match[2]
		if byVersion[version] == nil {
			byVersion[version] = map[string]bool{}
		}
		if byVersion[version][direction] {
			t.Fatalf("duplicate %s migration file for version %s", direction, version)
		}
		byVersion[version][direction] = true
	}

	if len(byVersion) == 0 {
		t.Fatal("no migrations discovered")
	}

	for version, dirs := range byVersion {
		if !dirs["up"] || !dirs["down"] {
			t.Fatalf("version %s must include both up and down files", version)
		}
	}
}

// The refresh-session fallback queries in postgres.go reference a fixed set
// of columns; each must exist in the refresh_sessions DDL or every
// tokenAuth/refreshToken call fails at parse time when Redis is not
// configured.
func TestRefreshSessionsDDLCoversQueryColumns(t *testing.T) {
	ddl := tableDDL(t, "refresh_sessions")

	for _, column := range []string{"token_hash", "user_id", "expires_at", "revoked_at", "created_at"} {
		if !strings.Contains(ddl, column) {
			t.Fatalf("refresh_sessions DDL is missing column %q used by the refresh-session queries:\n%s", column, ddl)
		}
	}
}

func TestMembershipsDDLEnforcesOnePerUserAndOrganization(t *testing.T) {
	ddl := tableDDL(t, "organization_memberships")

	if !strings.Contains(ddl, "UNIQUE (user_id, organization_id)") {
		t.Fatalf("organization_memberships DDL must keep the (user_id, organization_id) uniqueness constraint:\n%s", ddl)
	}
	if !strings.Contains(ddl, "'ADMIN'") || !strings.Contains(ddl, "'MEMBER'") {
		t.Fatalf("organization_memberships DDL must constrain role to ADMIN/MEMBER:\n%s", ddl)
	}
}

// tableDDL extracts one CREATE TABLE block from the initial migration.
func tableDDL(t *testing.T, table string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("read initial migration: %v", err)
	}

	pattern := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	match := pattern.FindStringSubmatch(string(contents))
	if match == nil {
		t.Fatalf("initial migration does not create table %s", table)
	}
	return match[1]
}
