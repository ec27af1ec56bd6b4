// Package stats derives owner level statistics and the read-only views built
// on top of the stored training history.
package stats

import (
	"context"
	"fmt"

	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

// Recalculation is the owner state after a recalculation.
type Recalculation struct {
	Owner         *training.User
	Level         progression.LevelData
	PreviousLevel int
}

func (r Recalculation) LeveledUp() bool {
	return r.Level.Level > r.PreviousLevel
}

type Recalculator struct{}

func NewRecalculator() *Recalculator {
	return &Recalculator{}
}

// Recalculate sums the experience of the owner's completed workouts, derives the
// level from it and stores the owner. Any other change already made to the
// owner returned by tx.Owner is stored along with it.
func (r *Recalculator) Recalculate(ctx context.Context, tx training.Tx) (_ Recalculation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stats.recalculate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	owner := tx.Owner()
	previousLevel := owner.Level

	workouts, err := tx.Workouts(ctx)
	if err != nil {
		return Recalculation{}, fmt.Errorf("list workouts: %w", err)
	}

	totalExperience := 0
	for _, w := range workouts {
		if w.Completed {
			totalExperience = progression.AddExperience(totalExperience, w.ExperienceEarned)
		}
	}

	levelData := progression.LevelFor(totalExperience)
	owner.TotalExperience = totalExperience
	owner.Level = levelData.Level
	span.SetAttributes(
		attribute.Int("experience", totalExperience),
		attribute.Int("level", levelData.Level),
	)

	if err := tx.SaveOwner(ctx, owner); err != nil {
		return Recalculation{}, fmt.Errorf("save owner: %w", err)
	}

	return Recalculation{
		Owner:         owner,
		Level:         levelData,
		PreviousLevel: previousLevel,
	}, nil
}
