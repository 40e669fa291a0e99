package flights

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

const flightColumns = `id, name, created_by, submitted, submitted_at, created_at`

func scanFlight(row interface{ Scan(...any) error }) (*models.Flight, error) {
	f := &models.Flight{}
	var submittedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.Name, &f.CreatedBy, &f.Submitted, &submittedAt, &f.CreatedAt); err != nil {
		return nil, err
	}
	if submittedAt.Valid {
		f.SubmittedAt = &submittedAt.Time
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Flight) (*models.Flight, error) {
	query :=
		`INSERT INTO flights (name, created_by)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, f.Name, f.CreatedBy).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrFlightExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Flight, error) {
	return r.getOne(ctx, `SELECT `+flightColumns+` FROM flights WHERE name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Flight, error) {
	f, err := scanFlight(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		// malformed ids cannot match any row
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrFlightNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Flight, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id, name string) error {
	return r.exec(ctx, `UPDATE flights SET name = $2 WHERE id = $1`, id, name)
}

func (r *PostgresRepository) MarkSubmitted(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE flights SET submitted = TRUE, submitted_at = now() WHERE id = $1`, id)
}

// Delete removes the flight; its scoresheets go with it (ON DELETE CASCADE).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM flights WHERE id = $1`, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrFlightExists
		}
		if dbx.IsInvalidText(err) {
			return common.ErrFlightNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrFlightNotFound
	}
	return nil
}
