// Package auth issues and verifies the signed one-time codes mailed to users
// for email verification and password reset.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose scopes a code to one flow so a verification code cannot be used
// to reset a password.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify-email"
	PurposeResetPassword Purpose = "reset-password"
)

// Claims are the registered claims plus the account the code was issued for.
// Stamp ties the code to account state (see Stamp); once that state changes
// the code stops verifying.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string  `json:"uid"`
	Purpose Purpose `json:"purpose"`
	Stamp   string  `json:"stamp"`
}

// Stamp fingerprints a piece of account state. Codes embed the stamp of the
// email (verification) or the password hash (reset) current at issue time.
func Stamp(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:8])
}

// GenerateCode signs a code for userID valid for ttl.
func GenerateCode(userID string, purpose Purpose, stamp string, secretKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  userID,
		Purpose: purpose,
		Stamp:   stamp,
	})

	return token.SignedString(secretKey)
}

// ParseCode verifies the signature, expiry and purpose of code. Every
// failure is reported as common.ErrInvalidCode.
func ParseCode(code string, purpose Purpose, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(code, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, common.ErrInvalidCode
	}

	if !token.Valid || claims.Purpose != purpose || claims.UserID == "" {
		return nil, common.ErrInvalidCode
	}

	return claims, nil
}
