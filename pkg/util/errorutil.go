package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Domain error codes surfaced to clients.
const (
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeDuplicateInvite   = "DUPLICATE_INVITE"
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyProcessed  = "ALREADY_PROCESSED"
	CodeUserAlreadyInTeam = "USER_ALREADY_IN_TEAM"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeConflict          = "CONFLICT"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewDuplicateRequest(teamID, userID string) error {
	return NewDomainError(CodeDuplicateRequest, "a pending request for this team already exists",
		http.StatusConflict, map[string]any{"team_id": teamID, "user_id": userID})
}

func NewDuplicateInvite(teamID, userID string) error {
	return NewDomainError(CodeDuplicateInvite, "a pending invite for this user already exists",
		http.StatusConflict, map[string]any{"team_id": teamID, "user_id": userID})
}

func NewAlreadyProcessed(entity string) error {
	return NewDomainError(CodeAlreadyProcessed, fmt.Sprintf("%s has already been processed", entity),
		http.StatusConflict, nil)
}

func NewUserAlreadyInTeam(userID string) error {
	return NewDomainError(CodeUserAlreadyInTeam, "user already belongs to a team",
		http.StatusConflict, map[string]any{"user_id": userID})
}

func NewRateLimited(resetSeconds int64) error {
	return NewDomainError(CodeRateLimited, "too many requests",
		http.StatusTooManyRequests, map[string]any{"retry_after_seconds": resetSeconds})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError. Unrecognized errors
// collapse to an opaque internal failure.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
