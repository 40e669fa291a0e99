package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	code, err := GenerateCode("user-123", PurposeVerifyEmail, Stamp("judge@bjcp.org"), secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseCode(code, PurposeVerifyEmail, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, Stamp("judge@bjcp.org"), claims.Stamp)
}

func TestParseCode_Failures(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	expired, err := GenerateCode("u1", PurposeResetPassword, "s", secret, -time.Second)
	require.NoError(t, err)

	verify, err := GenerateCode("u1", PurposeVerifyEmail, "s", secret, time.Hour)
	require.NoError(t, err)

	noUser, err := GenerateCode("", PurposeResetPassword, "s", secret, time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1", Purpose: PurposeResetPassword})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		code   string
		secret []byte
	}{
		{"expired", expired, secret},
		{"wrong purpose", verify, secret},
		{"wrong secret", verify, []byte("other")},
		{"empty user", noUser, secret},
		{"alg none", unsigned, secret},
		{"garbage", "not-a-jwt", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCode(tt.code, PurposeResetPassword, tt.secret)
			assert.ErrorIs(t, err, common.ErrInvalidCode)
		})
	}
}

func TestStamp(t *testing.T) {
	assert.Equal(t, Stamp("a"), Stamp("a"))
	assert.NotEqual(t, Stamp("a"), Stamp("b"))
	assert.Len(t, Stamp("a"), 16)
}
