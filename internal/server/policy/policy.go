// Package policy validates candidate passwords and email addresses against the
// configured rules. Validation is pure: no store access, no side effects.
package policy

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
)

// DefaultEmailPattern accepts anything of the form local@domain.tld.
const DefaultEmailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

// Rules describes what a password must satisfy.
type Rules struct {
	MinLength     int
	MaxLength     int
	RequireDigit  bool
	RequireUpper  bool
	RequireLower  bool
	RequireSymbol bool
	// Pattern is an optional extra RE2 expression the whole password must match.
	Pattern string
}

type Policy struct {
	rules   Rules
	pattern *regexp.Regexp
	email   *regexp.Regexp
}

// New compiles the rules. An empty emailPattern means DefaultEmailPattern.
func New(rules Rules, emailPattern string) (*Policy, error) {
	if rules.MinLength < 1 {
		rules.MinLength = 1
	}
	if rules.MaxLength > 0 && rules.MaxLength < rules.MinLength {
		return nil, fmt.Errorf("password max length %d below min length %d", rules.MaxLength, rules.MinLength)
	}

	p := &Policy{rules: rules}

	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			return nil, fmt.Errorf("password pattern: %w", err)
		}
		p.pattern = re
	}

	if emailPattern == "" {
		emailPattern = DefaultEmailPattern
	}
	re, err := regexp.Compile(emailPattern)
	if err != nil {
		return nil, fmt.Errorf("email pattern: %w", err)
	}
	p.email = re

	return p, nil
}

// FromConfig builds a Policy from the server configuration.
func FromConfig(cfg *config.Config) (*Policy, error) {
	return New(Rules{
		MinLength:     cfg.PasswordMinLength,
		MaxLength:     cfg.PasswordMaxLength,
		RequireDigit:  cfg.PasswordRequireDigit,
		RequireUpper:  cfg.PasswordRequireUpper,
		RequireLower:  cfg.PasswordRequireLower,
		RequireSymbol: cfg.PasswordRequireSymbol,
		Pattern:       cfg.PasswordPattern,
	}, cfg.EmailPattern)
}

// ValidatePassword returns nil or common.ErrPasswordFailCriteria. Empty and
// undersized input is rejected before any other rule runs.
func (p *Policy) ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n == 0 || n < p.rules.MinLength {
		return common.ErrPasswordFailCriteria
	}
	// bcrypt only looks at the first 72 bytes
	if p.rules.MaxLength > 0 && len(password) > p.rules.MaxLength {
		return common.ErrPasswordFailCriteria
	}

	var digit, upper, lower, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if (p.rules.RequireDigit && !digit) ||
		(p.rules.RequireUpper && !upper) ||
		(p.rules.RequireLower && !lower) ||
		(p.rules.RequireSymbol && !symbol) {
		return common.ErrPasswordFailCriteria
	}

	if p.pattern != nil && !p.pattern.MatchString(password) {
		return common.ErrPasswordFailCriteria
	}
	return nil
}

// ValidateEmail returns nil or common.ErrEmailFailCriteria.
func (p *Policy) ValidateEmail(email string) error {
	if email == "" || !p.email.MatchString(email) {
		return common.ErrEmailFailCriteria
	}
	return nil
}
