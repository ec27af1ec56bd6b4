package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/config"
	"github.com/2beens/gymrpg/pkg"

	"github.com/spf13/cobra"
)

const defaultIssuer = "gymrpg"

type tokenOptions struct {
	secret string
	ttl    time.Duration
}

// NewTokenCommand issues a bearer token; the secret defaults to GYMRPG_JWT_SECRET.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token <owner-key>",
		Short: "Issue a bearer token for an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := opts.secret
			if secret == "" {
				secret = os.Getenv("GYMRPG_JWT_SECRET")
			}
			if secret == "" {
				return errors.New("no secret: set --secret or GYMRPG_JWT_SECRET")
			}

			tokenConfig := auth.Config{Secret: secret, Issuer: defaultIssuer, TTL: opts.ttl}
			if exists, _ := pkg.PathExists(rootOpts.ConfigPath, false); exists {
				cfg, err := config.Load(rootOpts.Env, rootOpts.ConfigPath)
				if err != nil {
					return err
				}
				tokenConfig.Issuer = cfg.TokenIssuer
				if tokenConfig.TTL == 0 {
					tokenConfig.TTL = cfg.TokenTTL.Duration
				}
			}

			now := time.Now()
			token, err := auth.IssueToken(args[0], tokenConfig, now)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			return output(cmd.OutOrStdout(), rootOpts, map[string]string{
				"owner_key": args[0],
				"token":     token,
			}, token)
		},
	}

	cmd.Flags().StringVar(&opts.secret, "secret", "", "signing secret")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "token lifetime, defaults to the configured one")
	return cmd
}
