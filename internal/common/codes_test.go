package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("update email: %w", ErrInvalidEmail)

	assert.True(t, errors.Is(wrapped, ErrInvalidEmail))
	assert.True(t, errors.Is(wrapped, NewCodedError(CodeInvalidEmail, "other text")))
	assert.False(t, errors.Is(wrapped, ErrEmailFailCriteria))
	assert.False(t, errors.Is(wrapped, ErrorNotFound))
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(fmt.Errorf("x: %w", ErrPasswordFailCriteria))
	require.True(t, ok)
	assert.Equal(t, CodePasswordFailCriteria, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestFieldErrors(t *testing.T) {
	var fe FieldErrors
	assert.True(t, fe.Empty())
	assert.NoError(t, fe.Err())

	fe.Add("username", "Username does not match")
	fe.Add("password", "Passwords do not match")

	require.Error(t, fe.Err())
	assert.Equal(t, []string{"Username does not match", "Passwords do not match"}, fe.Messages())

	var target FieldErrors
	require.True(t, errors.As(fmt.Errorf("save: %w", fe.Err()), &target))
	assert.Len(t, target, 2)
}

func TestFieldErrors_Independent(t *testing.T) {
	var a, b FieldErrors
	a.Add("x", "first")
	assert.True(t, b.Empty())
}
