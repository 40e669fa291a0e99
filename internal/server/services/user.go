package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/auth"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
)

// UserService handles account lifecycle:
//   - Register / Authenticate
//   - email verification
//   - password reset by emailed code
//   - operator helpers (CreateAccount, SetAdmin)
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	validator     Validator
	hasher        Hasher
	mailer        Mailer
	logger        logging.Logger
	secret        []byte
	verifyCodeTTL time.Duration
	resetCodeTTL  time.Duration

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, v Validator, h Hasher, mailer Mailer,
	l logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		validator:     v,
		hasher:        h,
		mailer:        mailer,
		logger:        l.With("module", "user_service"),
		secret:        []byte(cfg.SecretKey),
		verifyCodeTTL: cfg.VerifyCodeTTL,
		resetCodeTTL:  cfg.ResetCodeTTL,
	}
}

// Register creates an account from the sign-up form and mails a
// verification link. Form problems come back together as FieldErrors.
func (s *UserService) Register(ctx context.Context, form models.RegistrationForm) (*models.User, error) {
	var fe common.FieldErrors

	email := strings.TrimSpace(form.Username)
	if s.validator.ValidateEmail(email) != nil {
		fe.Add("username", "Please enter a valid email address")
	}
	if form.Password != "" && form.Password != form.PasswordConfirm {
		fe.Add("passwordConfirm", "Passwords do not match")
	}
	years := validateAttributes(&fe, form.ProfileAttributes)

	if err := fe.Err(); err != nil {
		return nil, err
	}
	if form.Password == "" {
		return nil, common.ErrMissingPassword
	}
	if err := s.validator.ValidatePassword(form.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	applyAttributes(user, form.ProfileAttributes, years)

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	s.sendVerification(ctx, user)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield common.ErrIncorrectPassword.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if password == "" {
		return nil, common.ErrMissingPassword
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// same work as a real check so timing does not reveal the account
			_ = s.hasher.Compare(s.dummy(), password)
			return nil, common.ErrIncorrectPassword
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return nil, common.ErrIncorrectPassword
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return user, nil
}

// GetUser loads an account by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// CountUsers returns the number of accounts.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	return s.repomanager.Users(s.db).Count(ctx)
}

// VerifyEmail marks the account's email verified. The code must have been
// issued for the account's current email.
func (s *UserService) VerifyEmail(ctx context.Context, code string) (*models.User, error) {
	claims, err := auth.ParseCode(code, auth.PurposeVerifyEmail, s.secret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCode
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if auth.Stamp(user.Email) != claims.Stamp {
		return nil, common.ErrInvalidCode
	}

	if err := repo.SetEmailVerified(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	user.EmailVerified = true
	return user, nil
}

// RequestPasswordReset mails a reset link when the email belongs to an
// account. Unknown emails are ignored so callers cannot probe for accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "password reset for unknown email")
			return nil
		}
		return fmt.Errorf("load user: %w", err)
	}

	code, err := auth.GenerateCode(user.ID, auth.PurposeResetPassword, auth.Stamp(user.PasswordHash), s.secret, s.resetCodeTTL)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	s.mailer.SendPasswordResetEmail(ctx, user.Email, code)
	return nil
}

// ResetPassword sets a new password using an emailed reset code. The code
// stops working once the password has changed.
func (s *UserService) ResetPassword(ctx context.Context, code, password, confirm string) error {
	claims, err := auth.ParseCode(code, auth.PurposeResetPassword, s.secret)
	if err != nil {
		return err
	}
	if password == "" {
		return common.ErrMissingPassword
	}
	if password != confirm {
		var fe common.FieldErrors
		fe.Add("passwordConfirm", "Passwords do not match")
		return fe
	}
	if err := s.validator.ValidatePassword(password); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidCode
		}
		return fmt.Errorf("load user: %w", err)
	}
	if auth.Stamp(user.PasswordHash) != claims.Stamp {
		return common.ErrInvalidCode
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}

// CreateAccount creates a verified account directly, for operators.
func (s *UserService) CreateAccount(ctx context.Context, email, password string, admin bool) (*models.User, error) {
	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validator.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, IsAdmin: admin})
	if err != nil {
		return nil, err
	}
	if err := repo.SetEmailVerified(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	user.EmailVerified = true
	return user, nil
}

// SetAdmin grants or revokes the admin role for the account with email.
func (s *UserService) SetAdmin(ctx context.Context, email string, admin bool) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return repo.SetAdmin(ctx, user.ID, admin)
}

func (s *UserService) sendVerification(ctx context.Context, user *models.User) {
	code, err := auth.GenerateCode(user.ID, auth.PurposeVerifyEmail, auth.Stamp(user.Email), s.secret, s.verifyCodeTTL)
	if err != nil {
		s.logger.Error(ctx, "generate verification code", "user_id", user.ID, "error", err)
		return
	}
	s.mailer.SendUserVerificationEmail(ctx, user.Email, code)
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
