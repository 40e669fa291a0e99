package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

var userCols = []string{"id", "email", "password_hash", "forename", "surname", "bjcp_id", "bjcp_rank",
	"cicerone_rank", "pro_brewer_brewery", "industry_description", "judging_years",
	"is_admin", "email_verified", "created_at", "updated_at"}

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow("u-1", "judge@bjcp.org", "$2a$hash", "Ann", "Brewer", "A1234",
		"National", "Certified", "", "", 4, false, true, now, now)
}

var dbDown = errors.New("db down")

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,.*RETURNING\s+id,\s*created_at,\s*updated_at$`).
		WithArgs("judge@bjcp.org", "$2a$hash", "Ann", "Brewer", "", "", "", "", "", 0, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))

	got, err := repo.Create(context.Background(), &models.User{
		Email: "judge@bjcp.org", PasswordHash: "$2a$hash", Forename: "Ann", Surname: "Brewer",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, now, got.CreatedAt)
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "dup@bjcp.org"})
	assert.ErrorIs(t, err, common.ErrUserExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(dbDown)

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(userRow(now))

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "judge@bjcp.org", got.Email)
	assert.Equal(t, 4, got.JudgingYears)
	assert.True(t, got.EmailVerified)
}

func TestGetByEmail_CaseInsensitive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)`).
		WithArgs("Judge@BJCP.org").
		WillReturnRows(userRow(time.Now()))

	got, err := repo.GetByEmail(context.Background(), "Judge@BJCP.org")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
}

func TestGet_NotFoundAndError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+lower`).WithArgs("x@y.z").WillReturnError(dbDown)
	_, err = repo.GetByEmail(context.Background(), "x@y.z")
	assert.ErrorIs(t, err, dbDown)
}

func TestUpdateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `^UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*email_verified\s*=\s*FALSE`

	mock.ExpectExec(q).WithArgs("u-1", "new@bjcp.org").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateEmail(context.Background(), "u-1", "new@bjcp.org"))

	mock.ExpectExec(q).WithArgs("u-1", "taken@bjcp.org").WillReturnError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, repo.UpdateEmail(context.Background(), "u-1", "taken@bjcp.org"), common.ErrUserExists)

	mock.ExpectExec(q).WithArgs("ghost", "a@b.c").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateEmail(context.Background(), "ghost", "a@b.c"), common.ErrorNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2`).
		WithArgs("u-1", "$2a$new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePasswordHash(context.Background(), "u-1", "$2a$new"))

	mock.ExpectExec(`^UPDATE\s+users\s+SET\s+password_hash`).WillReturnError(dbDown)
	assert.ErrorIs(t, repo.UpdatePasswordHash(context.Background(), "u-1", "x"), dbDown)
}

func TestUpdateProfile(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	u := &models.User{ID: "u-1", Forename: "Ann", Surname: "Brewer", BJCPID: "A1", BJCPRank: "Master",
		CiceroneRank: "Advanced", ProBrewerBrewery: "Hop Co", IndustryDescription: "brewer", JudgingYears: 7}

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+forename\s*=\s*\$2.*judging_years\s*=\s*\$9`).
		WithArgs("u-1", "Ann", "Brewer", "A1", "Master", "Advanced", "Hop Co", "brewer", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), u))
}

func TestFlags(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`SET\s+email_verified\s*=\s*\$2`).WithArgs("u-1", true).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetEmailVerified(context.Background(), "u-1", true))

	mock.ExpectExec(`SET\s+is_admin\s*=\s*\$2`).WithArgs("u-1", true).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetAdmin(context.Background(), "u-1", true))
}

func TestCount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mock.ExpectQuery(`SELECT\s+COUNT`).WillReturnError(dbDown)
	_, err = repo.Count(context.Background())
	assert.ErrorIs(t, err, dbDown)
}
