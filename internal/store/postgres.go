package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, active_organization_id, created_at
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.ActiveOrganizationID, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID int64) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, active_organization_id, created_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.ActiveOrganizationID, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SetActiveOrganization(ctx context.Context, userID, organizationID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET active_organization_id = $2 WHERE id = $1
	`, userID, organizationID)
	if err != nil {
		return fmt.Errorf("set active organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetOrganization(ctx context.Context, organizationID int64) (Organization, error) {
	var org Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM organizations WHERE id = $1
	`, organizationID).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (s *PostgresStore) ListOrganizationsForUser(ctx context.Context, userID int64) ([]Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.name, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_memberships m ON m.organization_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	items := make([]Organization, 0)
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		items = append(items, org)
	}
	return items, rows.Err()
}

// MembershipRole returns the caller's role in an organization, or the empty
// string when no membership exists.
func (s *PostgresStore) MembershipRole(ctx context.Context, userID, organizationID int64) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT role FROM organization_memberships
		WHERE user_id = $1 AND organization_id = $2
	`, userID, organizationID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read membership role: %w", err)
	}
	return role, nil
}

func (s *PostgresStore) ListMemberships(ctx context.Context, organizationID int64) ([]Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, u.email, m.organization_id, m.role, m.joined_at
		FROM organization_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.joined_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	items := make([]Membership, 0)
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.UserEmail, &m.OrganizationID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// UpsertMembership creates a membership or updates the role of an existing
// one. The unique (user_id, organization_id) constraint makes this the only
// write path for the invariant of one membership per pair.
func (s *PostgresStore) UpsertMembership(ctx context.Context, m Membership) (Membership, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO organization_memberships (user_id, organization_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, organization_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING id, joined_at
	`, m.UserID, m.OrganizationID, m.Role).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		return Membership{}, fmt.Errorf("upsert membership: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListDocumentsByOrganization(ctx context.Context, organizationID int64) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.organization_id, o.name, d.title, d.content, d.created_by, COALESCE(u.email, ''), d.created_at
		FROM documents d
		JOIN organizations o ON o.id = d.organization_id
		LEFT JOIN users u ON u.id = d.created_by
		WHERE d.organization_id = $1
		ORDER BY d.created_at DESC
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.OrganizationName, &d.Title, &d.Content, &d.CreatedBy, &d.CreatedByEmail, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// ListDocumentRecords returns the id/title/content/organization of every
// document, used to rebuild the search index at startup.
func (s *PostgresStore) ListDocumentRecords(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, title, content
		FROM documents
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list document records: %w", err)
	}
	defer rows.Close()

	items := make([]Document, 0)
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.Title, &d.Content); err != nil {
			return nil, fmt.Errorf("scan document record: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *PostgresStore) GetDocument(ctx context.Context, documentID int64) (Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.organization_id, o.name, d.title, d.content, d.created_by, COALESCE(u.email, ''), d.created_at
		FROM documents d
		JOIN organizations o ON o.id = d.organization_id
		LEFT JOIN users u ON u.id = d.created_by
		WHERE d.id = $1
	`, documentID).Scan(&d.ID, &d.OrganizationID, &d.OrganizationName, &d.Title, &d.Content, &d.CreatedBy, &d.CreatedByEmail, &d.CreatedAt)
	if err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *PostgresStore) InsertDocument(ctx context.Context, d Document) (Document, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (organization_id, title, content, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, d.OrganizationID, d.Title, d.Content, d.CreatedBy).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListConversationsByDocument(ctx context.Context, documentID int64) ([]AIConversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, user_id, question, answer, created_at
		FROM ai_conversations
		WHERE document_id = $1
		ORDER BY created_at DESC, id DESC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]AIConversation, 0)
	for rows.Next() {
		var c AIConversation
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.Question, &c.Answer, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *PostgresStore) InsertConversation(ctx context.Context, c AIConversation) (AIConversation, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO ai_conversations (document_id, user_id, question, answer)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.DocumentID, c.UserID, c.Question, c.Answer).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return AIConversation{}, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// Refresh sessions: Postgres fallback used when Redis is not configured.

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_sessions
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
