package admin

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/mymee/internal/server/config"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Env is what the commands need from the outside world.
type Env struct {
	Open    func(ctx context.Context) (*sql.DB, error)
	Manager repomanager.RepositoryManager
	Out     io.Writer
}

// DefaultEnv connects to the database named by the server configuration.
func DefaultEnv() (*Env, error) {
	cfg := config.LoadConfig()
	m, err := repomanager.NewPostgresRepositoryManager(nil)
	if err != nil {
		return nil, err
	}
	return &Env{
		Open: func(ctx context.Context) (*sql.DB, error) {
			db, err := sql.Open("pgx", cfg.DatabaseDSN)
			if err != nil {
				return nil, err
			}
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("connect: %w", err)
			}
			return db, nil
		},
		Manager: m,
		Out:     os.Stdout,
	}, nil
}

func NewRootCmd(env *Env) *cobra.Command {
	root := &cobra.Command{
		Use:           "mymee-admin",
		Short:         "Maintenance commands for the mymee server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(env), seedTokensCmd(env), listTokensCmd(env))
	return root
}

// withDB opens the database for the duration of fn.
func withDB(cmd *cobra.Command, env *Env, fn func(ctx context.Context, db *sql.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := env.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}

func migrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, env, func(ctx context.Context, db *sql.DB) error {
				if err := env.Manager.RunMigrations(ctx, db); err != nil {
					return fmt.Errorf("migrations error: %w", err)
				}
				fmt.Fprintln(env.Out, "migrations applied")
				return nil
			})
		},
	}
}

func seedTokensCmd(env *Env) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed-tokens",
		Short: "Create unused invite tokens and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, env, func(ctx context.Context, db *sql.DB) error {
				codes, err := SeedTokens(ctx, env.Manager.InviteTokens(db), count)
				for _, c := range codes {
					fmt.Fprintln(env.Out, c)
				}
				if err != nil {
					return fmt.Errorf("seed tokens: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", DefaultSeedCount, "number of tokens to create")
	return cmd
}

func listTokensCmd(env *Env) *cobra.Command {
	var unused bool
	cmd := &cobra.Command{
		Use:   "list-tokens",
		Short: "List invite tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, env, func(ctx context.Context, db *sql.DB) error {
				tokens, err := env.Manager.InviteTokens(db).List(ctx, unused)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CODE\tUSED\tUSED BY\tUSED AT\tCREATED")
				for _, t := range tokens {
					usedBy, usedAt := "-", "-"
					if t.UsedBy != nil {
						usedBy = *t.UsedBy
					}
					if t.UsedAt != nil {
						usedAt = t.UsedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\n", t.Code, t.IsUsed, usedBy, usedAt, t.CreatedAt.UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&unused, "unused", false, "show only unused tokens")
	return cmd
}
