package cli

import (
	"context"
	"fmt"

	"github.com/2beens/gymrpg/internal/aggregation"
	"github.com/2beens/gymrpg/internal/stats"
	"github.com/2beens/gymrpg/internal/training"

	"github.com/spf13/cobra"
)

type recalcResult struct {
	OwnerKey        string `json:"owner_key"`
	Workouts        int    `json:"workouts"`
	TotalExperience int    `json:"total_experience"`
	PreviousLevel   int    `json:"previous_level"`
	Level           int    `json:"level"`
}

// NewRecalcCommand rebuilds every rollup of an owner, then the owner level.
func NewRecalcCommand(rootOpts *RootOptions, openStore StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "recalc <owner-key>",
		Short: "Recompute all workout totals and the level of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, release, err := openStore(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer release()

			res, err := recalc(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			text := fmt.Sprintf("owner %s: %d workouts, %d xp, level %d -> %d",
				res.OwnerKey, res.Workouts, res.TotalExperience, res.PreviousLevel, res.Level)
			return output(cmd.OutOrStdout(), rootOpts, res, text)
		},
	}
}

func recalc(ctx context.Context, store training.Store, ownerKey string) (*recalcResult, error) {
	updater := aggregation.NewUpdater()
	var res *recalcResult
	err := store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		workouts, err := tx.Workouts(ctx)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}
		for _, w := range workouts {
			if _, err := updater.RecomputeWorkout(ctx, tx, w.ID); err != nil {
				return err
			}
		}

		recalculation, err := stats.NewRecalculator().Recalculate(ctx, tx)
		if err != nil {
			return err
		}
		res = &recalcResult{
			OwnerKey:        ownerKey,
			Workouts:        len(workouts),
			TotalExperience: recalculation.Owner.TotalExperience,
			PreviousLevel:   recalculation.PreviousLevel,
			Level:           recalculation.Level.Level,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recalc owner %s: %w", ownerKey, err)
	}
	return res, nil
}
