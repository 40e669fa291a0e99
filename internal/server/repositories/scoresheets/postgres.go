package scoresheets

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

const scoresheetColumns = `id, judge_id, flight_id, entry_number, category, subcategory,
		 aroma, appearance, flavor, mouthfeel, overall,
		 aroma_comments, appearance_comments, flavor_comments, mouthfeel_comments, overall_comments,
		 status, created_at, updated_at`

func scanScoresheet(row interface{ Scan(...any) error }) (*models.Scoresheet, error) {
	s := &models.Scoresheet{}
	err := row.Scan(&s.ID, &s.JudgeID, &s.FlightID, &s.EntryNumber, &s.Category, &s.Subcategory,
		&s.Aroma, &s.Appearance, &s.Flavor, &s.Mouthfeel, &s.Overall,
		&s.AromaComments, &s.AppearanceComments, &s.FlavorComments, &s.MouthfeelComments, &s.OverallComments,
		&s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Scoresheet) (*models.Scoresheet, error) {
	query :=
		`INSERT INTO scoresheets (judge_id, flight_id, entry_number, category, subcategory, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`

	if s.Status == "" {
		s.Status = models.ScoresheetDraft
	}
	err := r.db.QueryRowContext(ctx, query, s.JudgeID, s.FlightID, s.EntryNumber, s.Category, s.Subcategory, s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrScoresheetExists
		}
		if dbx.IsInvalidText(err) || dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrFlightNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Scoresheet, error) {
	s, err := scanScoresheet(r.db.QueryRowContext(ctx, `SELECT `+scoresheetColumns+` FROM scoresheets WHERE id = $1`, id))
	if err != nil {
		// malformed ids cannot match any row
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidText(err) {
			return nil, common.ErrScoresheetNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByJudge(ctx context.Context, judgeID string) ([]*models.Scoresheet, error) {
	return r.list(ctx, `SELECT `+scoresheetColumns+` FROM scoresheets WHERE judge_id = $1 ORDER BY created_at`, judgeID)
}

func (r *PostgresRepository) ListByFlight(ctx context.Context, flightID string) ([]*models.Scoresheet, error) {
	return r.list(ctx, `SELECT `+scoresheetColumns+` FROM scoresheets WHERE flight_id = $1 ORDER BY entry_number`, flightID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.Scoresheet, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		if dbx.IsInvalidText(err) {
			return []*models.Scoresheet{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Scoresheet, 0)
	for rows.Next() {
		s, err := scanScoresheet(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateField(ctx context.Context, id, field string, value any) error {
	column, ok := Fields[field]
	if !ok {
		return common.ErrInvalidField
	}
	// column comes from the fixed Fields map, never from input
	query := fmt.Sprintf(`UPDATE scoresheets SET %s = $2, updated_at = now() WHERE id = $1`, column)
	return r.exec(ctx, query, id, value)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status models.ScoresheetStatus) error {
	return r.exec(ctx, `UPDATE scoresheets SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, flightID string, status models.ScoresheetStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scoresheets WHERE flight_id = $1 AND status = $2`,
		flightID, string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsInvalidText(err) {
			return common.ErrScoresheetNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrScoresheetNotFound
	}
	return nil
}
