package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/pkg"

	"github.com/spf13/cobra"
)

type userOptions struct {
	username string
	email    string
	password string
}

func NewUserCommand(rootOpts *RootOptions, openStore StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage owners",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts, openStore))
	return cmd
}

func newUserAddCommand(rootOpts *RootOptions, openStore StoreOpener) *cobra.Command {
	opts := &userOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			hash, err := pkg.HashPassword(opts.password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			store, release, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer release()

			user, err := store.CreateUser(cmd.Context(), &training.User{
				Username:     strings.TrimSpace(opts.username),
				Email:        strings.TrimSpace(opts.email),
				PasswordHash: hash,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			text := fmt.Sprintf("created owner %s (%s)", user.Key, user.Username)
			return output(cmd.OutOrStdout(), rootOpts, map[string]string{
				"key":      user.Key,
				"username": user.Username,
				"email":    user.Email,
			}, text)
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "owner username")
	cmd.Flags().StringVar(&opts.email, "email", "", "owner email")
	cmd.Flags().StringVar(&opts.password, "password", "", "owner password")
	return cmd
}

func (o *userOptions) validate() error {
	if strings.TrimSpace(o.username) == "" {
		return errors.New("--username is required")
	}
	if !strings.Contains(o.email, "@") {
		return errors.New("--email must be an email address")
	}
	if len(o.password) < pkg.MinPasswordLength {
		return fmt.Errorf("--password must have at least %d characters", pkg.MinPasswordLength)
	}
	return nil
}
