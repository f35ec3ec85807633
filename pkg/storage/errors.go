package storage

import "errors"

// StoreError represents a domain error from storage and share operations.
//
// These are business outcomes (share not found, link expired, wrong
// password) as opposed to infrastructure errors (network failure, disk
// error). Transport handlers translate the Code into a protocol-specific
// status; infrastructure errors are wrapped normally and surface as
// ErrInternal at the boundary.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// ErrorCode represents the category of a storage or share error.
//
// The categories are deliberately specific: callers must be able to
// distinguish "ask for a password" from "link dead", so validation
// failures are never collapsed into a generic code.
type ErrorCode int

const (
	// ErrNotFound indicates the file or share does not exist. Deactivated
	// shares and shares over deleted files also report ErrNotFound so that
	// nonexistent and revoked share ids are indistinguishable to callers.
	ErrNotFound ErrorCode = iota

	// ErrExpired indicates the share's expiration time has passed.
	// Distinct from ErrNotFound so callers can say "link expired"
	// rather than "link invalid".
	ErrExpired

	// ErrAccessLimitReached indicates the share's access cap is exhausted.
	ErrAccessLimitReached

	// ErrPasswordRequired indicates the share is password-protected and no
	// password was supplied. Distinct from ErrInvalidPassword so a client
	// can prompt and retry.
	ErrPasswordRequired

	// ErrInvalidPassword indicates the supplied password digest does not
	// match the stored digest.
	ErrInvalidPassword

	// ErrForbidden indicates a permission failure: the requester may not
	// perform the operation, or the share does not allow downloads.
	ErrForbidden

	// ErrInvalidArgument indicates malformed input (expiration hours out
	// of range, non-positive access cap, empty filename, oversized upload).
	ErrInvalidArgument

	// ErrUnauthenticated indicates missing or invalid identity claims.
	ErrUnauthenticated

	// ErrInternal indicates an infrastructure failure on a primary read or
	// write. Best-effort secondary updates never surface this code.
	ErrInternal
)

// String returns the canonical name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrExpired:
		return "expired"
	case ErrAccessLimitReached:
		return "access_limit_reached"
	case ErrPasswordRequired:
		return "password_required"
	case ErrInvalidPassword:
		return "invalid_password"
	case ErrForbidden:
		return "forbidden"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUnauthenticated:
		return "unauthenticated"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// NotFound constructs a StoreError with ErrNotFound.
func NotFound(message string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: message}
}

// InvalidArgument constructs a StoreError with ErrInvalidArgument.
func InvalidArgument(message string) *StoreError {
	return &StoreError{Code: ErrInvalidArgument, Message: message}
}

// Forbidden constructs a StoreError with ErrForbidden.
func Forbidden(message string) *StoreError {
	return &StoreError{Code: ErrForbidden, Message: message}
}

// CodeOf extracts the ErrorCode from err. Infrastructure errors and nil
// report ErrInternal; callers should check err != nil first.
func CodeOf(err error) ErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrInternal
}
