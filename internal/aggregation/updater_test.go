package aggregation_test

import (
	"context"
	"testing"

	"github.com/2beens/gymrpg/internal/aggregation"
	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSets_IgnoresWarmups(t *testing.T) {
	sets := []training.ExerciseSet{
		{Weight: 60, Reps: 10, Warmup: true},
		{Weight: 100, Reps: 5},
		{Weight: 90, Reps: 8},
	}
	for i := range sets {
		aggregation.DeriveSet(&sets[i])
	}

	totals := aggregation.SummarizeSets(sets)
	assert.Equal(t, 2, totals.Sets)
	assert.Equal(t, 13, totals.Reps)
	assert.Equal(t, 1220.0, totals.Volume)
	require.NotNil(t, totals.BestEstimatedMax)
	assert.InDelta(t, progression.EstimatedOneRepMax(100, 5), *totals.BestEstimatedMax, 1e-9)

	onlyWarmups := aggregation.SummarizeSets(sets[:1])
	assert.Equal(t, 0, onlyWarmups.Sets)
	assert.Nil(t, onlyWarmups.BestEstimatedMax)
}

func TestWorkoutTotals_DefaultMultiplier(t *testing.T) {
	wes := []training.WorkoutExercise{
		{ExerciseID: 1, TotalVolume: 1000},
		{ExerciseID: 2, TotalVolume: 333},
	}
	volume, experience := aggregation.WorkoutTotals(wes, func(id int64) (float64, bool) {
		if id == 1 {
			return 1.5, true
		}
		return 0, false
	})
	assert.Equal(t, 1333.0, volume)
	assert.Equal(t, 1500+333, experience)
}

func TestSessionRecords(t *testing.T) {
	records := aggregation.NewSessionRecords()
	sets := []training.ExerciseSet{
		{Weight: 60, Reps: 10, Warmup: true},
		{Weight: 100, Reps: 5},
		{Weight: 100, Reps: 5},
		{Weight: 95, Reps: 5},
	}
	for i := range sets {
		aggregation.DeriveSet(&sets[i])
		records.Mark(7, &sets[i])
	}
	assert.False(t, sets[0].PersonalRecord)
	assert.True(t, sets[1].PersonalRecord)
	// ties count as a record
	assert.True(t, sets[2].PersonalRecord)
	assert.False(t, sets[3].PersonalRecord)

	// a different exercise starts its own comparison
	other := training.ExerciseSet{Weight: 20, Reps: 5}
	aggregation.DeriveSet(&other)
	records.Mark(8, &other)
	assert.True(t, other.PersonalRecord)
}

func TestUpdater_RecomputeWorkout(t *testing.T) {
	ctx := context.Background()
	store := training.NewMemoryStore()
	owner, err := store.CreateUser(ctx, &training.User{Username: "lifter", Email: "lifter@example.com"})
	require.NoError(t, err)
	_, err = store.SeedExercises(ctx, []training.Exercise{
		{Key: "ex-bench-press", Name: "Bench Press", ExperienceMultiplier: 1.5, StatType: training.StatStrength},
	})
	require.NoError(t, err)

	updater := aggregation.NewUpdater()
	err = store.RunInOwnerTx(ctx, owner.Key, func(ctx context.Context, tx training.Tx) error {
		bench, err := tx.ExerciseByKey(ctx, "ex-bench-press")
		require.NoError(t, err)

		// client provided totals are only provisional
		w := &training.Workout{Key: "w", OwnerID: owner.ID, TotalVolume: 99999, ExperienceEarned: 99999, Completed: true}
		require.NoError(t, tx.SaveWorkout(ctx, w))
		we := &training.WorkoutExercise{Key: "we", WorkoutID: w.ID, ExerciseID: bench.ID, TotalSets: 42}
		require.NoError(t, tx.SaveWorkoutExercise(ctx, we))

		for i, s := range []training.ExerciseSet{
			{Weight: 60, Reps: 10, Warmup: true, PersonalRecord: true},
			{Weight: 100, Reps: 5},
			{Weight: 102.5, Reps: 5},
			{Weight: 95, Reps: 5, Volume: 1, PersonalRecord: true},
		} {
			s.Key = "s" + string(rune('a'+i))
			s.WorkoutExerciseID = we.ID
			s.SetNumber = i + 1
			require.NoError(t, tx.SaveExerciseSet(ctx, &s))
		}

		recomputed, err := updater.RecomputeWorkout(ctx, tx, w.ID)
		require.NoError(t, err)
		require.NotNil(t, recomputed)
		assert.Equal(t, 1487.5, recomputed.TotalVolume)
		assert.Equal(t, 2231, recomputed.ExperienceEarned)

		stored, err := tx.WorkoutByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, 1487.5, stored.TotalVolume)

		storedWE, err := tx.WorkoutExerciseByKey(ctx, "we")
		require.NoError(t, err)
		assert.Equal(t, 3, storedWE.TotalSets)
		assert.Equal(t, 15, storedWE.TotalReps)
		assert.Equal(t, 1487.5, storedWE.TotalVolume)
		require.NotNil(t, storedWE.BestEstimatedMax)
		assert.InDelta(t, 102.5/(1.0278-0.0278*5), *storedWE.BestEstimatedMax, 1e-9)

		sets, err := tx.ExerciseSets(ctx, we.ID)
		require.NoError(t, err)
		require.Len(t, sets, 4)
		assert.False(t, sets[0].PersonalRecord)
		assert.Equal(t, 600.0, sets[0].Volume)
		assert.True(t, sets[1].PersonalRecord)
		assert.True(t, sets[2].PersonalRecord)
		assert.False(t, sets[3].PersonalRecord)
		assert.Equal(t, 475.0, sets[3].Volume)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdater_RecomputeWorkout_Missing(t *testing.T) {
	ctx := context.Background()
	store := training.NewMemoryStore()
	owner, err := store.CreateUser(ctx, &training.User{Username: "lifter", Email: "lifter@example.com"})
	require.NoError(t, err)

	err = store.RunInOwnerTx(ctx, owner.Key, func(ctx context.Context, tx training.Tx) error {
		w, err := aggregation.NewUpdater().RecomputeWorkout(ctx, tx, 12345)
		assert.NoError(t, err)
		assert.Nil(t, w)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdater_EmptyWorkoutResetsTotals(t *testing.T) {
	ctx := context.Background()
	store := training.NewMemoryStore()
	owner, err := store.CreateUser(ctx, &training.User{Username: "lifter", Email: "lifter@example.com"})
	require.NoError(t, err)

	err = store.RunInOwnerTx(ctx, owner.Key, func(ctx context.Context, tx training.Tx) error {
		w := &training.Workout{Key: "w", OwnerID: owner.ID, TotalVolume: 500, ExperienceEarned: 500}
		require.NoError(t, tx.SaveWorkout(ctx, w))

		recomputed, err := aggregation.NewUpdater().RecomputeWorkout(ctx, tx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, recomputed.TotalVolume)
		assert.Equal(t, 0, recomputed.ExperienceEarned)
		return nil
	})
	require.NoError(t, err)
}
