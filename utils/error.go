package utils

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrorRecordNotFound   = errors.New("record not found")
	ErrNotLoggedIn        = errors.New("you must be logged in")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrDuplicateItemCode  = errors.New("item code already exists")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrImportLockNotFree  = errors.New("another import is running for this price list")
	ErrStoreNotReady      = errors.New("store is not connected")
)

// ValidationError carries per-field messages from input validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid input (" + strings.Join(parts, ", ") + ")"
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
