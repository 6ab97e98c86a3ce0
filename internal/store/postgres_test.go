package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMembershipRoleReturnsEmptyWhenAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT role FROM organization_memberships").
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}))

	role, err := NewPostgresStore(db).MembershipRole(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("MembershipRole: %v", err)
	}
	if role != "" {
		t.Fatalf("expected empty role for missing membership, got %q", role)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMembershipRoleReturnsRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT role FROM organization_memberships").
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("ADMIN"))

	role, err := NewPostgresStore(db).MembershipRole(context.Background(), 7, 3)
	if err != nil {
		t.Fatalf("MembershipRole: %v", err)
	}
	if role != "ADMIN" {
		t.Fatalf("expected ADMIN, got %q", role)
	}
}

func TestListConversationsByDocumentScansNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	userID := int64(5)
	rows := sqlmock.NewRows([]string{"id", "document_id", "user_id", "question", "answer", "created_at"}).
		AddRow(int64(2), int64(9), &userID, "Second?", "Yes.", now).
		AddRow(int64(1), int64(9), &userID, "First?", "No.", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT id, document_id, user_id, question, answer, created_at").
		WithArgs(int64(9)).
		WillReturnRows(rows)

	conversations, err := NewPostgresStore(db).ListConversationsByDocument(context.Background(), 9)
	if err != nil {
		t.Fatalf("ListConversationsByDocument: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].Question != "Second?" || conversations[1].Question != "First?" {
		t.Fatalf("expected store order preserved, got %q then %q", conversations[0].Question, conversations[1].Question)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertMembershipReturnsIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO organization_memberships").
		WithArgs(int64(7), int64(3), "MEMBER").
		WillReturnRows(sqlmock.NewRows([]string{"id", "joined_at"}).AddRow(int64(11), time.Now()))

	m, err := NewPostgresStore(db).UpsertMembership(context.Background(), Membership{
		UserID:         7,
		OrganizationID: 3,
		Role:           "MEMBER",
	})
	if err != nil {
		t.Fatalf("UpsertMembership: %v", err)
	}
	if m.ID != 11 {
		t.Fatalf("expected membership id 11, got %d", m.ID)
	}
}
