// Package repomanager vends repositories bound to a DBTX so services can use
// the same code with a plain connection or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/dbx"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/flights"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/scoresheets"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Flights(db dbx.DBTX) flights.Repository
	Scoresheets(db dbx.DBTX) scoresheets.Repository
}
