package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/migrations"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/flights"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/scoresheets"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs
// the embedded schema migrations.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Flights(db dbx.DBTX) flights.Repository {
	return flights.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Scoresheets(db dbx.DBTX) scoresheets.Repository {
	return scoresheets.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// OpenDB opens a pgx-backed *sql.DB and verifies the connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
