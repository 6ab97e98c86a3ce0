package app

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"folio/api/internal/auth"
	"folio/api/internal/llm"
	"folio/api/internal/perm"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Extensions surfaces the error code in the GraphQL error payload, mirroring
// the extensions.code convention clients key on.
func (e *DomainError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// mapError converts any error raised below the API boundary into a
// DomainError so no raw failure ever leaks to a client.
func mapError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required.", nil)
	case errors.Is(err, perm.ErrNoActiveOrganization):
		return domainError(http.StatusForbidden, "NO_ACTIVE_ORGANIZATION",
			"No active organization selected. Please select an organization first.", nil)
	case errors.Is(err, perm.ErrNotAMember):
		return domainError(http.StatusForbidden, "NOT_A_MEMBER",
			"User is not a member of the organization. Access denied.", nil)
	case errors.Is(err, perm.ErrInsufficientRole):
		return domainError(http.StatusForbidden, "INSUFFICIENT_ROLE",
			"User must be an ADMIN in the organization to perform this action.", nil)
	case errors.Is(err, llm.ErrProvider):
		return domainError(http.StatusBadGateway, "LLM_PROVIDER_ERROR",
			fmt.Sprintf("Error calling LLM: %v", err), nil)
	default:
		return domainError(http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil)
	}
}
