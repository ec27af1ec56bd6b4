package cli

import (
	"fmt"

	"github.com/2beens/gymrpg/internal/exercises"

	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions, openStore StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the default global exercises that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer release()

			added, err := store.SeedExercises(cmd.Context(), exercises.DefaultCatalog())
			if err != nil {
				return fmt.Errorf("seed exercises: %w", err)
			}
			return output(cmd.OutOrStdout(), rootOpts, map[string]int{"added": added},
				fmt.Sprintf("added %d global exercises", added))
		},
	}
}
