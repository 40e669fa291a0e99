package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/auth"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/users"
)

// ProfileService changes the email, password and attributes of an existing
// account. Every call works on one request's data only; lookups and writes
// are separate store calls, so concurrent updates to one account may
// interleave.
type ProfileService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	validator     Validator
	hasher        Hasher
	mailer        Mailer
	logger        logging.Logger
	secret        []byte
	verifyCodeTTL time.Duration
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, v Validator, h Hasher, mailer Mailer,
	l logging.Logger, cfg *config.Config) *ProfileService {
	return &ProfileService{
		db:            db,
		repomanager:   m,
		validator:     v,
		hasher:        h,
		mailer:        mailer,
		logger:        l.With("module", "profile_service"),
		secret:        []byte(cfg.SecretKey),
		verifyCodeTTL: cfg.VerifyCodeTTL,
	}
}

// UpdateEmail replaces the account email. The new address must satisfy the
// email pattern and oldEmail must equal the stored address exactly. A
// missing account is an internal error.
func (s *ProfileService) UpdateEmail(ctx context.Context, userID, oldEmail, newEmail string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.validator.ValidateEmail(newEmail); err != nil {
		return err
	}

	if oldEmail != user.Email {
		return common.ErrInvalidEmail
	}

	if err := repo.UpdateEmail(ctx, user.ID, newEmail); err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return err
		}
		return fmt.Errorf("update email: %w", err)
	}

	s.sendVerification(ctx, user.ID, newEmail)
	return nil
}

// UpdatePassword replaces the account password. The new password is checked
// against the policy before the old one is compared, so a weak new password
// never reveals whether the old one was right.
func (s *ProfileService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	// empty and undersized passwords never reach the store
	if err := s.validator.ValidatePassword(newPassword); err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	return s.setPassword(ctx, repo, user, oldPassword, newPassword)
}

// SaveProfile validates the whole form, then applies an optional password
// change and the attribute changes in one transaction. Validation failures
// are returned together as common.FieldErrors and nothing is written.
//
// A password change is requested when either new-password field is filled.
// CurrentPassword alone does not request one and is ignored.
func (s *ProfileService) SaveProfile(ctx context.Context, userID string, form models.ProfileForm) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var fe common.FieldErrors

	if form.Username != user.Email {
		fe.Add("username", "Username does not match your account")
	}
	if form.NewPassword != "" || form.NewPasswordConfirm != "" {
		switch {
		case form.NewPassword == "" || form.NewPasswordConfirm == "":
			fe.Add("password", "Please enter the new password twice")
		case form.NewPassword != form.NewPasswordConfirm:
			fe.Add("password", "Passwords do not match")
		}
	}
	years := validateAttributes(&fe, form.ProfileAttributes)

	if err := fe.Err(); err != nil {
		return nil, err
	}

	updated := *user
	applyAttributes(&updated, form.ProfileAttributes, years)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		err := s.tryPasswordChange(ctx, repo, &updated, form.CurrentPassword, form.NewPassword)
		if err != nil && !errors.Is(err, common.ErrNoPasswordChange) {
			return err
		}

		if err := repo.UpdateProfile(ctx, &updated); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// tryPasswordChange returns common.ErrNoPasswordChange when newPassword is
// empty and otherwise behaves like setPassword.
func (s *ProfileService) tryPasswordChange(ctx context.Context, repo users.Repository, user *models.User, oldPassword, newPassword string) error {
	if newPassword == "" {
		return common.ErrNoPasswordChange
	}
	return s.setPassword(ctx, repo, user, oldPassword, newPassword)
}

func (s *ProfileService) setPassword(ctx context.Context, repo users.Repository, user *models.User, oldPassword, newPassword string) error {
	if err := s.validator.ValidatePassword(newPassword); err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return common.ErrInvalidPassword
		}
		return fmt.Errorf("compare password: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash

	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (s *ProfileService) sendVerification(ctx context.Context, userID, email string) {
	code, err := auth.GenerateCode(userID, auth.PurposeVerifyEmail, auth.Stamp(email), s.secret, s.verifyCodeTTL)
	if err != nil {
		s.logger.Error(ctx, "generate verification code", "user_id", userID, "error", err)
		return
	}
	s.mailer.SendUserVerificationEmail(ctx, email, code)
}
