package aggregation

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Updater recomputes stored rollups inside a unit of work.
type Updater struct{}

func NewUpdater() *Updater {
	return &Updater{}
}

// RecomputeWorkout refreshes every set, then every workout exercise, then the
// workout itself. A workout that no longer exists is not an error.
func (u *Updater) RecomputeWorkout(ctx context.Context, tx training.Tx, workoutID int64) (_ *training.Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aggregation.workout.recompute")
	span.SetAttributes(attribute.Int64("workout", workoutID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workout, err := tx.WorkoutByID(ctx, workoutID)
	if errors.Is(err, training.ErrNotFound) {
		log.Tracef("workout %d gone, nothing to recompute", workoutID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workout %d: %w", workoutID, err)
	}

	wes, err := tx.WorkoutExercises(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("list workout exercises: %w", err)
	}

	records := NewSessionRecords()
	for i := range wes {
		if err := u.recomputeWorkoutExercise(ctx, tx, &wes[i], records); err != nil {
			return nil, err
		}
	}

	multipliers := make(map[int64]float64)
	var lookupErr error
	volume, experience := WorkoutTotals(wes, func(exerciseID int64) (float64, bool) {
		if m, ok := multipliers[exerciseID]; ok {
			return m, true
		}
		exercise, err := tx.ExerciseByID(ctx, exerciseID)
		if err != nil {
			if !errors.Is(err, training.ErrNotFound) && lookupErr == nil {
				lookupErr = err
			}
			return 0, false
		}
		multipliers[exerciseID] = exercise.ExperienceMultiplier
		return exercise.ExperienceMultiplier, true
	})
	if lookupErr != nil {
		return nil, fmt.Errorf("resolve exercise multiplier: %w", lookupErr)
	}

	if workout.TotalVolume != volume || workout.ExperienceEarned != experience {
		workout.TotalVolume = volume
		workout.ExperienceEarned = experience
		if err := tx.SaveWorkout(ctx, workout); err != nil {
			return nil, fmt.Errorf("save workout %d: %w", workoutID, err)
		}
	}

	return workout, nil
}

func (u *Updater) recomputeWorkoutExercise(ctx context.Context, tx training.Tx, we *training.WorkoutExercise, records *SessionRecords) error {
	sets, err := tx.ExerciseSets(ctx, we.ID)
	if err != nil {
		return fmt.Errorf("list sets of workout exercise %d: %w", we.ID, err)
	}

	for i := range sets {
		before := sets[i]
		DeriveSet(&sets[i])
		records.Mark(we.ExerciseID, &sets[i])
		if setChanged(before, sets[i]) {
			if err := tx.SaveExerciseSet(ctx, &sets[i]); err != nil {
				return fmt.Errorf("save set %d: %w", sets[i].ID, err)
			}
		}
	}

	totals := SummarizeSets(sets)
	if totals.Sets == we.TotalSets &&
		totals.Reps == we.TotalReps &&
		totals.Volume == we.TotalVolume &&
		sameMax(totals.BestEstimatedMax, we.BestEstimatedMax) {
		return nil
	}

	we.TotalSets = totals.Sets
	we.TotalReps = totals.Reps
	we.TotalVolume = totals.Volume
	we.BestEstimatedMax = totals.BestEstimatedMax
	if err := tx.SaveWorkoutExercise(ctx, we); err != nil {
		return fmt.Errorf("save workout exercise %d: %w", we.ID, err)
	}
	return nil
}

func setChanged(a, b training.ExerciseSet) bool {
	return a.Volume != b.Volume || a.EstimatedMax != b.EstimatedMax || a.PersonalRecord != b.PersonalRecord
}

func sameMax(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
