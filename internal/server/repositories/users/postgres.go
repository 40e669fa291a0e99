package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, forename, surname, bjcp_id, bjcp_rank,
		 cicerone_rank, pro_brewer_brewery, industry_description, judging_years,
		 is_admin, email_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Forename, &u.Surname, &u.BJCPID, &u.BJCPRank,
		&u.CiceroneRank, &u.ProBrewerBrewery, &u.IndustryDescription, &u.JudgingYears,
		&u.IsAdmin, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, forename, surname, bjcp_id, bjcp_rank,
		 cicerone_rank, pro_brewer_brewery, industry_description, judging_years, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Forename, user.Surname, user.BJCPID, user.BJCPRank,
		user.CiceroneRank, user.ProBrewerBrewery, user.IndustryDescription, user.JudgingYears, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrUserExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id, email string) error {
	query := `UPDATE users SET email = $2, email_verified = FALSE, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, email)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, hash)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	query :=
		`UPDATE users SET forename = $2, surname = $3, bjcp_id = $4, bjcp_rank = $5,
		 cicerone_rank = $6, pro_brewer_brewery = $7, industry_description = $8,
		 judging_years = $9, updated_at = now()
		 WHERE id = $1`
	return r.exec(ctx, query, u.ID, u.Forename, u.Surname, u.BJCPID, u.BJCPRank,
		u.CiceroneRank, u.ProBrewerBrewery, u.IndustryDescription, u.JudgingYears)
}

func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string, verified bool) error {
	query := `UPDATE users SET email_verified = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, verified)
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	query := `UPDATE users SET is_admin = $2, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, id, admin)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// exec runs a single-row update and maps zero affected rows to ErrorNotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrUserExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
