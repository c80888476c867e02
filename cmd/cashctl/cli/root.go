// Package cli implements the cashctl operator commands.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/app"
	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/platform/db"
)

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "cashctl",
		Short:         "Operator tooling for the cash ledger and tax engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")

	root.AddCommand(
		newMigrateCommand(),
		newSeedChartCommand(),
		newReportCommand(),
		newJobsCommand(),
	)
	return root
}

// Execute runs the root command with process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// env holds the configuration and database pool a command needs.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: app.NewLogger(cfg)}
	e.pool, err = db.Open(ctx, cfg.PGDSN, cfg.PoolOptions())
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}
