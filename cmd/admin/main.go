package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/admincli"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
)

func main() {
	cfg := config.LoadEnvConfig()

	logger, err := logging.New(cfg.LogBackend, "warn", os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := admincli.NewRootCmd(admincli.PostgresOpener(cfg, logger), os.Stdin)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
