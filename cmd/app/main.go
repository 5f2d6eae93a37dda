package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mbs-manager/internal/config"
	"mbs-manager/internal/db"
	"mbs-manager/internal/logger"
	"mbs-manager/internal/store"
)

// env is what every subcommand shares: configuration, logger and a pool
// opened lazily by connect.
type env struct {
	cfg  *config.Config
	log  *zap.Logger
	pool *pgxpool.Pool
}

func (e *env) connect(ctx context.Context) (*store.Client, error) {
	if e.pool == nil {
		pool, err := db.NewPool(ctx, e.cfg.Database)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	return store.NewClient(e.pool), nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	_ = e.log.Sync()
}

func main() {
	_ = godotenv.Load()

	cfg := config.LoadEnv()
	e := &env{cfg: cfg, log: logger.New(cfg)}

	root := newRootCmd(e)
	err := root.Execute()
	e.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "mbs",
		Short:         "MBS Manager - wine and spirits distribution back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), e)
		},
	}
	root.PersistentFlags().StringVar(&e.cfg.Database.URL, "db", e.cfg.Database.URL, "Database connection URL (defaults to DATABASE_URL)")
	root.AddCommand(
		newReplCmd(e),
		newMigrateCmd(e),
		newStockCmd(e),
		newNotifyCmd(e),
	)
	return root
}
