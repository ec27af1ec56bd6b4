// Package cli implements rpgctl, the operator tool of the gymrpg service.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/2beens/gymrpg/internal/config"
	"github.com/2beens/gymrpg/internal/db"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/internal/training/postgres"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Env        string
	ConfigPath string
	Format     string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// StoreOpener returns the store commands work against and a func releasing it.
type StoreOpener func(ctx context.Context, opts *RootOptions) (training.Store, func(), error)

func NewRootCommand(openStore StoreOpener) *cobra.Command {
	if openStore == nil {
		openStore = OpenConfiguredStore
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rpgctl",
		Short: "rpgctl - gymrpg operator tool",
		Long:  "Inspect progression formulas and manage owners, exercises and tokens of a gymrpg deployment.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Env, "env", "development", "environment section of the config file")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "./config.toml", "path for the TOML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLevelCommand(opts))
	cmd.AddCommand(NewOneRepMaxCommand(opts))
	cmd.AddCommand(NewUserCommand(opts, openStore))
	cmd.AddCommand(NewRecalcCommand(opts, openStore))
	cmd.AddCommand(NewSeedCommand(opts, openStore))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// output writes v as indented JSON, or the text form otherwise.
func output(w io.Writer, opts *RootOptions, v any, text string) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

// OpenConfiguredStore opens the store named in the config file; postgres
// credentials come from GYMRPG_POSTGRES_PASS.
func OpenConfiguredStore(ctx context.Context, opts *RootOptions) (training.Store, func(), error) {
	cfg, err := config.Load(opts.Env, opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store == config.StoreMemory {
		return training.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:     cfg.PostgresHost,
		DBPort:     cfg.PostgresPort,
		DBName:     cfg.PostgresDBName,
		DBUser:     cfg.PostgresUser,
		DBPassword: os.Getenv("GYMRPG_POSTGRES_PASS"),
		MaxConns:   2,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("new db pool: %w", err)
	}

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate db: %w", err)
	}
	return store, pool.Close, nil
}
