package cli

import (
	"fmt"
	"strconv"

	"github.com/2beens/gymrpg/internal/progression"

	"github.com/spf13/cobra"
)

func NewLevelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "level <experience>",
		Short: "Show the level reached with the given total experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xp, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid experience %q: %w", args[0], err)
			}
			data := progression.LevelFor(xp)
			text := fmt.Sprintf("level %d (%d/%d xp into level, %.1f%%)",
				data.Level, data.ExperienceIntoLevel, data.ExperienceForNextLevel, data.Progress)
			return output(cmd.OutOrStdout(), rootOpts, data, text)
		},
	}
}

type oneRepMax struct {
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	Volume       float64 `json:"volume"`
	EstimatedMax float64 `json:"estimated_1rm"`
	DeloadWeight float64 `json:"deload_weight"`
}

func NewOneRepMaxCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onerm <weight> <reps>",
		Short: "Estimate the one rep max of a set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := strconv.ParseFloat(args[0], 64)
			if err != nil || weight < 0 {
				return fmt.Errorf("invalid weight %q", args[0])
			}
			reps, err := strconv.Atoi(args[1])
			if err != nil || reps <= 0 {
				return fmt.Errorf("invalid reps %q", args[1])
			}

			res := oneRepMax{
				Weight:       weight,
				Reps:         reps,
				Volume:       progression.Volume(weight, reps),
				EstimatedMax: progression.EstimatedOneRepMax(weight, reps),
				DeloadWeight: progression.DeloadWeight(weight),
			}
			text := fmt.Sprintf("%gx%d: estimated 1rm %.2f, volume %g, deload weight %g",
				weight, reps, res.EstimatedMax, res.Volume, res.DeloadWeight)
			return output(cmd.OutOrStdout(), rootOpts, res, text)
		},
	}
}
