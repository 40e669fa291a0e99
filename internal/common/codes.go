package common

import (
	"errors"
	"strings"
)

// ErrorCode is the stable identifier of a classified failure. The set of
// codes is closed: new failures get a new constant here.
type ErrorCode string

const (
	CodeEmailFailCriteria    ErrorCode = "EMAIL_FAIL_CRITERIA"
	CodeInvalidEmail         ErrorCode = "INVALID_EMAIL"
	CodePasswordFailCriteria ErrorCode = "PASSWORD_FAIL_CRITERIA"
	CodeInvalidPassword      ErrorCode = "INVALID_PASSWORD"

	CodeUserExists        ErrorCode = "USER_EXISTS"
	CodeMissingPassword   ErrorCode = "MISSING_PASSWORD"
	CodeIncorrectPassword ErrorCode = "INCORRECT_PASSWORD"
	CodeInvalidCode       ErrorCode = "INVALID_CODE"

	CodeFlightNotFound       ErrorCode = "FLIGHT_NOT_FOUND"
	CodeFlightExists         ErrorCode = "FLIGHT_EXISTS"
	CodeFlightSubmitted      ErrorCode = "FLIGHT_SUBMITTED"
	CodeFlightIncomplete     ErrorCode = "FLIGHT_INCOMPLETE"
	CodeScoresheetNotFound   ErrorCode = "SCORESHEET_NOT_FOUND"
	CodeScoresheetExists     ErrorCode = "SCORESHEET_EXISTS"
	CodeScoresheetLocked     ErrorCode = "SCORESHEET_LOCKED"
	CodeScoresheetIncomplete ErrorCode = "SCORESHEET_INCOMPLETE"
	CodeInvalidField         ErrorCode = "INVALID_FIELD"
	CodeForbidden            ErrorCode = "FORBIDDEN"
)

// CodedError carries an ErrorCode through the service layer. Two coded
// errors match under errors.Is when their codes are equal.
type CodedError struct {
	Code ErrorCode
	msg  string
}

func NewCodedError(code ErrorCode, msg string) *CodedError {
	return &CodedError{Code: code, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Is(target error) bool {
	t, ok := target.(*CodedError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first CodedError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

// FieldError is a single form validation failure.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors accumulates validation failures for one request. Create a new
// value per request; it is never shared.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Err returns fe as an error, or nil when nothing was accumulated.
func (fe FieldErrors) Err() error {
	if fe.Empty() {
		return nil
	}
	return fe
}

func (fe FieldErrors) Messages() []string {
	out := make([]string, 0, len(fe))
	for _, f := range fe {
		out = append(out, f.Message)
	}
	return out
}

func (fe FieldErrors) Error() string {
	return "validation failed: " + strings.Join(fe.Messages(), "; ")
}
