package store

import "time"

type User struct {
	ID                   int64
	Email                string
	PasswordHash         string
	ActiveOrganizationID *int64
	CreatedAt            time.Time
}

type Organization struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership binds a user to an organization with a role. At most one
// membership exists per (user, organization) pair.
type Membership struct {
	ID             int64
	UserID         int64
	UserEmail      string
	OrganizationID int64
	Role           string
	JoinedAt       time.Time
}

type Document struct {
	ID               int64
	OrganizationID   int64
	OrganizationName string
	Title            string
	Content          string
	CreatedBy        *int64
	CreatedByEmail   string
	CreatedAt        time.Time
}

// AIConversation is a persisted question/answer pair tied to a document.
// Rows are immutable once written.
type AIConversation struct {
	ID         int64
	DocumentID int64
	UserID     *int64
	Question   string
	Answer     string
	CreatedAt  time.Time
}
