package server

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RunMigrations = false
	if mutate != nil {
		mutate(cfg)
	}
	return &App{config: cfg, logger: logging.Nop{}, db: db}, mock
}

func TestInit_MemorySessions(t *testing.T) {
	app, mock := newTestApp(t, nil)
	mock.ExpectClose()

	require.NoError(t, app.init(context.Background()))
	assert.NotNil(t, app.http)
	assert.Equal(t, ":8080", app.http.Addr)
	assert.Nil(t, app.redis)
	assert.NotNil(t, app.mail)

	app.close(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInit_RedisSessionsAddChecker(t *testing.T) {
	app, mock := newTestApp(t, func(c *config.Config) {
		c.SessionBackend = "redis"
		c.RedisAddr = "127.0.0.1:1"
	})
	mock.ExpectClose()

	require.NoError(t, app.init(context.Background()))
	require.NotNil(t, app.redis)

	report := app.health.Report(context.Background())
	assert.Contains(t, report, "postgres")
	assert.Contains(t, report, "redis")
	assert.NotEqual(t, "ok", report["redis"])

	app.close(context.Background())
}

func TestInit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown session backend", func(c *config.Config) { c.SessionBackend = "memcached" }},
		{"unknown mail backend", func(c *config.Config) { c.MailBackend = "pigeon" }},
		{"bad password pattern", func(c *config.Config) { c.PasswordPattern = "([" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t, tt.mutate)
			assert.Error(t, app.init(context.Background()))
		})
	}
}

func TestNewApp_RefusesDefaultSecretInProduction(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AppEnv = "production"
	// never dialled: validation fails first
	cfg.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none"

	app, err := NewApp(context.Background(), cfg)
	assert.Nil(t, app)
	assert.ErrorIs(t, err, config.ErrDefaultSecretKey)
}
