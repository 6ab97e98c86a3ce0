package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPoolConfigWithDefaults(t *testing.T) {
	cases := []struct {
		name     string
		in       PoolConfig
		wantOpen int
		wantIdle int
	}{
		{"zero values", PoolConfig{}, 20, 10},
		{"idle above open is clamped", PoolConfig{MaxOpenConns: 8, MaxIdleConns: 50}, 8, 4},
		{"explicit values kept", PoolConfig{MaxOpenConns: 30, MaxIdleConns: 5}, 30, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.withDefaults()
			if got.MaxOpenConns != tc.wantOpen || got.MaxIdleConns != tc.wantIdle {
				t.Fatalf("withDefaults(%+v) = %+v, want open=%d idle=%d", tc.in, got, tc.wantOpen, tc.wantIdle)
			}
		})
	}
}

// Runs ApplyMigrations over the real db/migrations files so a migration that
// fails to load, or a version recorded twice, is caught without a database.
func TestApplyMigrationsRunsPendingUpFiles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("expected up migrations under %s, got %v (%v)", migrationsDir, files, err)
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	for _, file := range files {
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs(filepath.Base(file)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	if err := ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyMigrationsSkipsAppliedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	migrationsDir := filepath.Join("..", "..", "db", "migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("expected up migrations under %s, got %v (%v)", migrationsDir, files, err)
	}

	versions := sqlmock.NewRows([]string{"version"})
	for _, file := range files {
		versions.AddRow(filepath.Base(file))
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(versions)

	// No Begin/Exec/Commit expected: everything is already applied.
	if err := ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
