package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

type PullOwner struct {
	Key             string                `json:"key"`
	Username        string                `json:"username"`
	TotalExperience int                   `json:"total_experience"`
	Level           int                   `json:"level"`
	LastSyncTime    *time.Time            `json:"last_sync_time"`
	LevelProgress   progression.LevelData `json:"level_progress"`
}

type PullSet struct {
	Key            string    `json:"entity_key"`
	SetNumber      int       `json:"set_number"`
	Weight         float64   `json:"weight"`
	Reps           int       `json:"reps"`
	RPE            *float64  `json:"rpe"`
	Volume         float64   `json:"volume"`
	EstimatedMax   float64   `json:"estimated_1rm"`
	Warmup         bool      `json:"is_warmup"`
	PersonalRecord bool      `json:"is_pr"`
	RestSeconds    *int      `json:"rest_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

type PullWorkoutExercise struct {
	Key              string    `json:"entity_key"`
	ExerciseKey      string    `json:"exercise_key"`
	ExerciseName     string    `json:"exercise_name"`
	OrderIndex       int       `json:"order_index"`
	TotalSets        int       `json:"total_sets"`
	TotalReps        int       `json:"total_reps"`
	TotalVolume      float64   `json:"total_volume"`
	BestEstimatedMax *float64  `json:"best_estimated_1rm"`
	Notes            string    `json:"notes"`
	Sets             []PullSet `json:"sets"`
}

type PullWorkout struct {
	Key              string                `json:"entity_key"`
	Name             string                `json:"name"`
	WorkoutDate      time.Time             `json:"workout_date"`
	DurationMinutes  *int                  `json:"duration_minutes"`
	TotalVolume      float64               `json:"total_volume"`
	ExperienceEarned int                   `json:"experience_earned"`
	Completed        bool                  `json:"is_completed"`
	Notes            string                `json:"notes"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Exercises        []PullWorkoutExercise `json:"exercises"`
}

type PullResult struct {
	Owner         PullOwner     `json:"owner"`
	Workouts      []PullWorkout `json:"workouts"`
	TotalWorkouts int           `json:"total_workouts"`
}

// Pull returns the owner snapshot and every workout of the owner, most recent
// first, expanded down to the sets.
func (r *Reconciler) Pull(ctx context.Context, ownerKey string) (_ *PullResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sync.pull")
	span.SetAttributes(attribute.String("owner", ownerKey))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var result *PullResult
	err = r.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		owner := tx.Owner()
		workouts, err := tx.Workouts(ctx)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}

		exercises := make(map[int64]*training.Exercise)
		pulled := make([]PullWorkout, 0, len(workouts))
		for _, w := range workouts {
			pw, err := pullWorkout(ctx, tx, w, exercises)
			if err != nil {
				return err
			}
			pulled = append(pulled, pw)
		}

		result = &PullResult{
			Owner: PullOwner{
				Key:             owner.Key,
				Username:        owner.Username,
				TotalExperience: owner.TotalExperience,
				Level:           owner.Level,
				LastSyncTime:    owner.LastSyncAt,
				LevelProgress:   progression.LevelFor(owner.TotalExperience),
			},
			Workouts:      pulled,
			TotalWorkouts: len(pulled),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workouts", result.TotalWorkouts))
	return result, nil
}

func pullWorkout(ctx context.Context, tx training.Tx, w training.Workout, exercises map[int64]*training.Exercise) (PullWorkout, error) {
	wes, err := tx.WorkoutExercises(ctx, w.ID)
	if err != nil {
		return PullWorkout{}, fmt.Errorf("list exercises of workout %s: %w", w.Key, err)
	}

	pw := PullWorkout{
		Key:              w.Key,
		Name:             w.Name,
		WorkoutDate:      w.Date,
		DurationMinutes:  w.DurationMinutes,
		TotalVolume:      w.TotalVolume,
		ExperienceEarned: w.ExperienceEarned,
		Completed:        w.Completed,
		Notes:            w.Notes,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		Exercises:        make([]PullWorkoutExercise, 0, len(wes)),
	}

	for _, we := range wes {
		exercise, ok := exercises[we.ExerciseID]
		if !ok {
			exercise, err = tx.ExerciseByID(ctx, we.ExerciseID)
			if err != nil && !errors.Is(err, training.ErrNotFound) {
				return PullWorkout{}, fmt.Errorf("get exercise %d: %w", we.ExerciseID, err)
			}
			exercises[we.ExerciseID] = exercise
		}

		sets, err := tx.ExerciseSets(ctx, we.ID)
		if err != nil {
			return PullWorkout{}, fmt.Errorf("list sets of %s: %w", we.Key, err)
		}

		pwe := PullWorkoutExercise{
			Key:              we.Key,
			OrderIndex:       we.OrderIndex,
			TotalSets:        we.TotalSets,
			TotalReps:        we.TotalReps,
			TotalVolume:      we.TotalVolume,
			BestEstimatedMax: we.BestEstimatedMax,
			Notes:            we.Notes,
			Sets:             make([]PullSet, 0, len(sets)),
		}
		if exercise != nil {
			pwe.ExerciseKey = exercise.Key
			pwe.ExerciseName = exercise.Name
		}
		for _, s := range sets {
			pwe.Sets = append(pwe.Sets, PullSet{
				Key:            s.Key,
				SetNumber:      s.SetNumber,
				Weight:         s.Weight,
				Reps:           s.Reps,
				RPE:            s.RPE,
				Volume:         s.Volume,
				EstimatedMax:   s.EstimatedMax,
				Warmup:         s.Warmup,
				PersonalRecord: s.PersonalRecord,
				RestSeconds:    s.RestSeconds,
				CreatedAt:      s.CreatedAt,
			})
		}
		pw.Exercises = append(pw.Exercises, pwe)
	}

	return pw, nil
}
