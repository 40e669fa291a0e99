// Package common defines shared sentinel errors and the closed set of error
// codes surfaced to clients. Callers should use errors.Is / errors.As to match
// these values.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrNoPasswordChange is returned by the password change step of a
	// profile save when no new password was submitted. It is a control
	// signal and is never sent to clients.
	ErrNoPasswordChange = errors.New("no password change requested")
)

// Profile update failures.
var (
	ErrEmailFailCriteria    = NewCodedError(CodeEmailFailCriteria, "email does not satisfy the email pattern")
	ErrInvalidEmail         = NewCodedError(CodeInvalidEmail, "old email does not match stored email")
	ErrPasswordFailCriteria = NewCodedError(CodePasswordFailCriteria, "password does not satisfy the password policy")
	ErrInvalidPassword      = NewCodedError(CodeInvalidPassword, "old password does not match")
)

// Credential store failures.
var (
	ErrUserExists        = NewCodedError(CodeUserExists, "user already exists")
	ErrMissingPassword   = NewCodedError(CodeMissingPassword, "no password given")
	ErrIncorrectPassword = NewCodedError(CodeIncorrectPassword, "username or password is incorrect")
	ErrInvalidCode       = NewCodedError(CodeInvalidCode, "invalid or expired code")
)

// Flight and scoresheet failures.
var (
	ErrFlightNotFound       = NewCodedError(CodeFlightNotFound, "flight not found")
	ErrFlightExists         = NewCodedError(CodeFlightExists, "flight already exists")
	ErrFlightSubmitted      = NewCodedError(CodeFlightSubmitted, "flight already submitted")
	ErrFlightIncomplete     = NewCodedError(CodeFlightIncomplete, "flight has unvalidated scoresheets")
	ErrScoresheetNotFound   = NewCodedError(CodeScoresheetNotFound, "scoresheet not found")
	ErrScoresheetExists     = NewCodedError(CodeScoresheetExists, "scoresheet already exists")
	ErrScoresheetLocked     = NewCodedError(CodeScoresheetLocked, "scoresheet is locked")
	ErrScoresheetIncomplete = NewCodedError(CodeScoresheetIncomplete, "scoresheet is incomplete")
	ErrInvalidField         = NewCodedError(CodeInvalidField, "invalid field")
	ErrForbidden            = NewCodedError(CodeForbidden, "forbidden")
)
