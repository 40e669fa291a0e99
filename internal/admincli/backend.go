package admincli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/classify"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/mail"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/policy"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/services"
)

// dbBackend runs commands against the configured PostgreSQL database.
type dbBackend struct {
	db         *sql.DB
	rm         repomanager.RepositoryManager
	users      *services.UserService
	classifier *classify.Classifier
}

// PostgresOpener returns an Opener backed by cfg. Logs go to l.
func PostgresOpener(cfg *config.Config, l logging.Logger) Opener {
	return func(ctx context.Context, dsn string) (Backend, error) {
		if dsn == "" {
			dsn = cfg.DatabaseDSN
		}
		pol, err := policy.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("password policy: %w", err)
		}
		db, err := repomanager.OpenDB(ctx, dsn)
		if err != nil {
			return nil, err
		}

		rm := repomanager.NewPostgresRepositoryManager()
		// operator-created accounts are verified up front, nothing is mailed
		mailer := mail.NewService(mail.NewLogSender(l), cfg.Domain, l)
		return &dbBackend{
			db:         db,
			rm:         rm,
			users:      services.NewUserService(db, rm, pol, cryptox.NewBcryptHasher(cfg.BcryptCost), mailer, l, cfg),
			classifier: classify.New(classify.DefaultRegistry, l),
		}, nil
	}
}

func (b *dbBackend) Accounts() Accounts { return b.users }

func (b *dbBackend) Migrate(ctx context.Context) error {
	return b.rm.RunMigrations(ctx, b.db)
}

func (b *dbBackend) Describe(ctx context.Context, err error) string {
	return describe(ctx, b.classifier, err)
}

func (b *dbBackend) Close() error {
	return b.db.Close()
}

// describe joins the user-facing messages for err; unclassified errors keep
// their own text since the operator can act on it.
func describe(ctx context.Context, c *classify.Classifier, err error) string {
	resp := c.Classify(ctx, err)
	if resp.Body == nil || len(resp.Body.Errors) == 0 {
		return err.Error()
	}
	msg := resp.Body.Errors[0].Message
	for _, d := range resp.Body.Errors[1:] {
		msg += "; " + d.Message
	}
	return msg
}
