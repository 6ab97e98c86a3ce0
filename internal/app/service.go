package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/email"
	"folio/api/internal/llm"
	"folio/api/internal/mcp"
	"folio/api/internal/perm"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

// Session is the authenticated viewer carried through a request. The active
// organization travels with the session and is re-validated by the permission
// checker on every use.
type Session struct {
	Token                string
	RefreshToken         string
	UserID               int64
	Email                string
	ActiveOrganizationID *int64
	JTI                  string
	ExpiresAt            time.Time
}

type dataStore interface {
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, int64) (store.User, error)
	CreateUser(context.Context, store.User) (store.User, error)
	SetActiveOrganization(ctx context.Context, userID, organizationID int64) error
	GetOrganization(context.Context, int64) (store.Organization, error)
	ListOrganizationsForUser(context.Context, int64) ([]store.Organization, error)
	MembershipRole(ctx context.Context, userID, organizationID int64) (string, error)
	ListMemberships(context.Context, int64) ([]store.Membership, error)
	UpsertMembership(context.Context, store.Membership) (store.Membership, error)
	ListDocumentsByOrganization(context.Context, int64) ([]store.Document, error)
	GetDocument(context.Context, int64) (store.Document, error)
	InsertDocument(context.Context, store.Document) (store.Document, error)
	ListConversationsByDocument(context.Context, int64) ([]store.AIConversation, error)
	InsertConversation(context.Context, store.AIConversation) (store.AIConversation, error)
	Ping(ctx context.Context) error
}

type refreshSessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, userID int64, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (int64, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

type documentSearcher interface {
	Search(q search.Query) search.Response
	IndexDocument(doc search.DocumentRecord)
}

type inviteNotifier interface {
	IsConfigured() bool
	SendInviteNotification(to, organizationName, role, invitedBy string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions refreshSessionStore
	perms    *perm.Checker
	llm      llm.Provider
	search   documentSearcher
	email    inviteNotifier
}

// New wires a service over Postgres for both data and refresh sessions.
// provider, searcher, and mailer may be nil when the respective subsystem is
// not configured.
func New(cfg config.Config, dataStore *store.PostgresStore, provider llm.Provider, searcher *search.Service, mailer *email.Service) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		perms:    perm.NewChecker(dataStore),
		llm:      provider,
	}
	if searcher != nil {
		s.search = searcher
	}
	if mailer != nil {
		s.email = mailer
	}
	return s
}

// NewWithSessionStore is New with refresh sessions held elsewhere (Redis).
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions refreshSessionStore, provider llm.Provider, searcher *search.Service, mailer *email.Service) *Service {
	s := New(cfg, dataStore, provider, searcher, mailer)
	s.sessions = sessions
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingSessions checks the refresh-session backend (Redis when configured,
// Postgres otherwise).
func (s *Service) PingSessions(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

// Register creates a user account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, emailAddr, password string) (store.User, error) {
	emailAddr = authpw.NormalizeEmail(emailAddr)
	if !authpw.ValidEmail(emailAddr) {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "A valid email address is required.", nil)
	}
	hash, err := authpw.HashPassword(password)
	if err != nil {
		return store.User{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	if _, err := s.store.GetUserByEmail(ctx, emailAddr); err == nil {
		return store.User{}, domainError(http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists.", nil)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return store.User{}, err
	}
	return s.store.CreateUser(ctx, store.User{Email: emailAddr, PasswordHash: hash})
}

// TokenAuth authenticates email/password credentials and issues a session.
func (s *Service) TokenAuth(ctx context.Context, emailAddr, password string) (Session, error) {
	user, err := s.store.GetUserByEmail(ctx, authpw.NormalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password.", nil)
		}
		return Session{}, err
	}
	if err := authpw.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password.", nil)
	}
	return s.issueSession(ctx, user)
}

// Refresh rotates a refresh token and issues a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired refresh token.", nil)
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

// VerifyToken validates an access token and returns its claims.
func (s *Service) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	return auth.ParseToken([]byte(s.cfg.JWTSecret), token)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewJTI()

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		JTI:       jti,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewRefreshToken()
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:                token,
		RefreshToken:         refresh,
		UserID:               user.ID,
		Email:                user.Email,
		ActiveOrganizationID: user.ActiveOrganizationID,
		JTI:                  jti,
		ExpiresAt:            expiresAt,
	}, nil
}

// SessionFromToken resolves an access token to a viewer session, loading the
// user's current active organization from the store.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	return Session{
		Token:                token,
		UserID:               user.ID,
		Email:                user.Email,
		ActiveOrganizationID: user.ActiveOrganizationID,
		JTI:                  claims.JTI,
		ExpiresAt:            claims.ExpiresAt,
	}, nil
}

// CurrentUser returns the viewer's user row and active organization, if any.
func (s *Service) CurrentUser(ctx context.Context, viewer Session) (store.User, *store.Organization, error) {
	user, err := s.store.GetUserByID(ctx, viewer.UserID)
	if err != nil {
		return store.User{}, nil, err
	}
	if user.ActiveOrganizationID == nil {
		return user, nil, nil
	}
	org, err := s.store.GetOrganization(ctx, *user.ActiveOrganizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, nil, nil
		}
		return store.User{}, nil, err
	}
	return user, &org, nil
}

// Organizations lists the organizations the viewer belongs to.
func (s *Service) Organizations(ctx context.Context, viewer Session) ([]store.Organization, error) {
	return s.store.ListOrganizationsForUser(ctx, viewer.UserID)
}

// RoleOf reports the viewer's role in an organization, or empty when none.
// Read paths may render affordances from it; mutations never trust it alone.
func (s *Service) RoleOf(ctx context.Context, viewer Session, organizationID int64) (string, error) {
	role, err := s.perms.RoleOf(ctx, viewer.UserID, organizationID)
	if err != nil {
		return "", err
	}
	return string(role), nil
}

// OrganizationMembers lists memberships of an organization the viewer belongs to.
func (s *Service) OrganizationMembers(ctx context.Context, viewer Session, organizationID int64) ([]store.Membership, error) {
	if err := s.perms.RequireMember(ctx, viewer.UserID, organizationID); err != nil {
		return nil, err
	}
	return s.store.ListMemberships(ctx, organizationID)
}

// Documents lists documents in the viewer's active organization.
func (s *Service) Documents(ctx context.Context, viewer Session) ([]store.Document, error) {
	organizationID, err := s.perms.RequireActiveOrganization(ctx, viewer.UserID, viewer.ActiveOrganizationID)
	if err != nil {
		return nil, err
	}
	return s.store.ListDocumentsByOrganization(ctx, organizationID)
}

// Document loads one document, enforcing membership in its organization.
func (s *Service) Document(ctx context.Context, viewer Session, documentID int64) (store.Document, error) {
	doc, err := s.getDocument(ctx, documentID)
	if err != nil {
		return store.Document{}, err
	}
	if err := s.perms.RequireMember(ctx, viewer.UserID, doc.OrganizationID); err != nil {
		return store.Document{}, err
	}
	return doc, nil
}

func (s *Service) getDocument(ctx context.Context, documentID int64) (store.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Document{}, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found.", map[string]any{"documentId": documentID})
		}
		return store.Document{}, err
	}
	return doc, nil
}

// Conversations lists a document's question/answer pairs, newest first.
func (s *Service) Conversations(ctx context.Context, viewer Session, documentID int64) ([]store.AIConversation, error) {
	if _, err := s.Document(ctx, viewer, documentID); err != nil {
		return nil, err
	}
	return s.store.ListConversationsByDocument(ctx, documentID)
}

// CreateDocument creates a document in the viewer's active organization.
// ADMIN only.
func (s *Service) CreateDocument(ctx context.Context, viewer Session, title, content string) (store.Document, error) {
	organizationID, err := s.perms.RequireActiveOrganization(ctx, viewer.UserID, viewer.ActiveOrganizationID)
	if err != nil {
		return store.Document{}, err
	}
	if err := s.perms.RequireAdmin(ctx, viewer.UserID, organizationID); err != nil {
		return store.Document{}, err
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Document title cannot be empty.", nil)
	}
	if content == "" {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Document content cannot be empty.", nil)
	}

	createdBy := viewer.UserID
	inserted, err := s.store.InsertDocument(ctx, store.Document{
		OrganizationID: organizationID,
		Title:          title,
		Content:        content,
		CreatedBy:      &createdBy,
	})
	if err != nil {
		return store.Document{}, err
	}

	// Re-read for the joined organization and creator fields.
	doc, err := s.store.GetDocument(ctx, inserted.ID)
	if err != nil {
		return store.Document{}, err
	}

	if s.search != nil {
		s.search.IndexDocument(search.DocumentRecord{
			ID:             doc.ID,
			Title:          doc.Title,
			Content:        doc.Content,
			OrganizationID: doc.OrganizationID,
		})
	}
	return doc, nil
}

// DocumentContext renders the formatted context block for a document after
// enforcing membership in its organization.
func (s *Service) DocumentContext(ctx context.Context, viewer Session, documentID int64) (string, error) {
	doc, err := s.Document(ctx, viewer, documentID)
	if err != nil {
		return "", err
	}
	return mcp.Format(mcp.DocumentContext{
		DocumentID:       doc.ID,
		Title:            doc.Title,
		Content:          doc.Content,
		OrganizationID:   doc.OrganizationID,
		OrganizationName: doc.OrganizationName,
		CreatedBy:        doc.CreatedByEmail,
		CreatedAt:        doc.CreatedAt,
	}), nil
}

// AskQuestion runs one blocking LLM round trip over the document context and
// persists the resulting conversation. Nothing is persisted when the provider
// call fails.
func (s *Service) AskQuestion(ctx context.Context, viewer Session, documentID int64, question string) (store.AIConversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return store.AIConversation{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Question cannot be empty.", nil)
	}

	contextBlock, err := s.DocumentContext(ctx, viewer, documentID)
	if err != nil {
		return store.AIConversation{}, err
	}

	if s.llm == nil {
		return store.AIConversation{}, domainError(http.StatusServiceUnavailable, "LLM_PROVIDER_ERROR", "LLM provider is not configured.", nil)
	}

	answer, err := s.llm.Complete(ctx, mcp.SystemPrompt, mcp.Prompt(contextBlock, question))
	if err != nil {
		return store.AIConversation{}, err
	}

	userID := viewer.UserID
	return s.store.InsertConversation(ctx, store.AIConversation{
		DocumentID: documentID,
		UserID:     &userID,
		Question:   question,
		Answer:     answer,
	})
}

// InviteUser adds an existing user to an organization, or updates their role.
// ADMIN only. When SMTP is configured a notification is sent best-effort.
func (s *Service) InviteUser(ctx context.Context, viewer Session, organizationID int64, userEmail, role string) (store.Membership, error) {
	if err := s.perms.RequireAdmin(ctx, viewer.UserID, organizationID); err != nil {
		return store.Membership{}, err
	}
	org, err := s.store.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Membership{}, domainError(http.StatusNotFound, "NOT_FOUND", "Organization not found.", nil)
		}
		return store.Membership{}, err
	}
	if !perm.ValidRole(role) {
		return store.Membership{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid role. Must be one of: ADMIN, MEMBER.", nil)
	}
	invitee, err := s.store.GetUserByEmail(ctx, authpw.NormalizeEmail(userEmail))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Membership{}, domainError(http.StatusNotFound, "USER_NOT_FOUND", "User with this email does not exist.", nil)
		}
		return store.Membership{}, err
	}

	membership, err := s.store.UpsertMembership(ctx, store.Membership{
		UserID:         invitee.ID,
		UserEmail:      invitee.Email,
		OrganizationID: organizationID,
		Role:           role,
	})
	if err != nil {
		return store.Membership{}, err
	}

	if s.email != nil && s.email.IsConfigured() {
		go func(to, orgName, role, invitedBy string) {
			if err := s.email.SendInviteNotification(to, orgName, role, invitedBy); err != nil {
				log.Printf("email: invite notification to %s: %v", to, err)
			}
		}(invitee.Email, org.Name, role, viewer.Email)
	}
	return membership, nil
}

// SetActiveOrganization switches the viewer's active organization, validating
// membership at the moment of selection.
func (s *Service) SetActiveOrganization(ctx context.Context, viewer Session, organizationID int64) (store.Organization, error) {
	if err := s.perms.RequireMember(ctx, viewer.UserID, organizationID); err != nil {
		return store.Organization{}, err
	}
	org, err := s.store.GetOrganization(ctx, organizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Organization{}, domainError(http.StatusNotFound, "NOT_FOUND", "Organization not found.", nil)
		}
		return store.Organization{}, err
	}
	if err := s.store.SetActiveOrganization(ctx, viewer.UserID, organizationID); err != nil {
		return store.Organization{}, err
	}
	return org, nil
}

// SearchDocuments searches documents in the viewer's active organization.
func (s *Service) SearchDocuments(ctx context.Context, viewer Session, query string, limit int) (search.Response, error) {
	organizationID, err := s.perms.RequireActiveOrganization(ctx, viewer.UserID, viewer.ActiveOrganizationID)
	if err != nil {
		return search.Response{}, err
	}
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: query}, nil
	}
	return s.search.Search(search.Query{
		Text:           query,
		OrganizationID: organizationID,
		Limit:          limit,
	}), nil
}
