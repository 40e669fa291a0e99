// Package services contains the server-side business logic: registration and
// login, profile updates, flights and scoresheets.
package services

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

// Hasher hashes and checks passwords. Compare returns cryptox.ErrMismatch
// when the password is wrong.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Validator checks candidate passwords and emails against the configured
// policy.
type Validator interface {
	ValidatePassword(password string) error
	ValidateEmail(email string) error
}

// Mailer delivers account emails. Delivery is asynchronous and failures are
// logged by the implementation, never returned.
type Mailer interface {
	SendUserVerificationEmail(ctx context.Context, recipient, code string)
	SendPasswordResetEmail(ctx context.Context, recipient, code string)
}

const (
	maxAttributeLength   = 128
	maxDescriptionLength = 1000
	maxJudgingYears      = 99
)

// validateAttributes appends attribute problems to fe and returns the parsed
// judging years.
func validateAttributes(fe *common.FieldErrors, a models.ProfileAttributes) int {
	if strings.TrimSpace(a.Forename) == "" {
		fe.Add("forename", "Forename is required")
	}
	if strings.TrimSpace(a.Surname) == "" {
		fe.Add("surname", "Surname is required")
	}

	short := []struct{ field, label, value string }{
		{"forename", "Forename", a.Forename},
		{"surname", "Surname", a.Surname},
		{"bjcpId", "BJCP ID", a.BJCPID},
		{"bjcpRank", "BJCP rank", a.BJCPRank},
		{"ciceroneRank", "Cicerone rank", a.CiceroneRank},
		{"proBrewerBrewery", "Brewery", a.ProBrewerBrewery},
	}
	for _, f := range short {
		if utf8.RuneCountInString(f.value) > maxAttributeLength {
			fe.Add(f.field, f.label+" is too long")
		}
	}
	if utf8.RuneCountInString(a.IndustryDescription) > maxDescriptionLength {
		fe.Add("industryDescription", "Industry description is too long")
	}

	years := 0
	if s := strings.TrimSpace(a.JudgingYears); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxJudgingYears {
			fe.Add("judgingYears", "Judging years must be a whole number between 0 and 99")
		} else {
			years = n
		}
	}
	return years
}

func applyAttributes(u *models.User, a models.ProfileAttributes, years int) {
	u.Forename = strings.TrimSpace(a.Forename)
	u.Surname = strings.TrimSpace(a.Surname)
	u.BJCPID = strings.TrimSpace(a.BJCPID)
	u.BJCPRank = strings.TrimSpace(a.BJCPRank)
	u.CiceroneRank = strings.TrimSpace(a.CiceroneRank)
	u.ProBrewerBrewery = strings.TrimSpace(a.ProBrewerBrewery)
	u.IndustryDescription = strings.TrimSpace(a.IndustryDescription)
	u.JudgingYears = years
}
