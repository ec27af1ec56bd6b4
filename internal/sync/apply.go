package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymrpg/internal/aggregation"
	"github.com/2beens/gymrpg/internal/training"
)

// batch applies the changes of one push and remembers, in first touch order,
// which workouts need their rollups recomputed.
type batch struct {
	tx      training.Tx
	owner   *training.User
	touched []int64
	seen    map[int64]struct{}
}

func newBatch(tx training.Tx) *batch {
	return &batch{
		tx:    tx,
		owner: tx.Owner(),
		seen:  make(map[int64]struct{}),
	}
}

func (b *batch) touch(workoutIDs ...int64) {
	for _, id := range workoutIDs {
		if _, ok := b.seen[id]; ok {
			continue
		}
		b.seen[id] = struct{}{}
		b.touched = append(b.touched, id)
	}
}

// item is the outcome of applying one change. touched workouts are only
// merged into the batch once the item succeeded.
type item struct {
	status  Status
	touched []int64
}

func (b *batch) apply(ctx context.Context, tx training.Tx, change Change, action Action) (item, error) {
	switch change.EntityType {
	case EntityWorkout:
		if action == ActionDelete {
			return b.deleteWorkout(ctx, tx, change.EntityKey)
		}
		return b.upsertWorkout(ctx, tx, change)
	case EntityWorkoutExercise:
		if action == ActionDelete {
			return b.deleteWorkoutExercise(ctx, tx, change.EntityKey)
		}
		return b.upsertWorkoutExercise(ctx, tx, change)
	case EntityExerciseSet:
		if action == ActionDelete {
			return b.deleteExerciseSet(ctx, tx, change.EntityKey)
		}
		return b.upsertExerciseSet(ctx, tx, change)
	case EntityExercise:
		if action == ActionDelete {
			return b.deleteExercise(ctx, tx, change.EntityKey)
		}
		return b.upsertExercise(ctx, tx, change)
	default:
		return item{status: StatusSkipped}, nil
	}
}

// ownWorkout resolves a workout of the pushing owner. Workouts of other owners
// are reported as not owned.
func (b *batch) ownWorkout(ctx context.Context, tx training.Tx, key string) (*training.Workout, error) {
	w, err := tx.WorkoutByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if w.OwnerID != b.owner.ID {
		return nil, training.ErrNotOwned
	}
	return w, nil
}

// ownWorkoutExercise checks ownership through the workout holding it.
func (b *batch) ownWorkoutExercise(ctx context.Context, tx training.Tx, key string) (*training.WorkoutExercise, error) {
	we, err := tx.WorkoutExerciseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	w, err := tx.WorkoutByID(ctx, we.WorkoutID)
	if err != nil {
		return nil, fmt.Errorf("get workout of %s: %w", key, err)
	}
	if w.OwnerID != b.owner.ID {
		return nil, training.ErrNotOwned
	}
	return we, nil
}

func (b *batch) visibleExercise(ctx context.Context, tx training.Tx, key string) (*training.Exercise, error) {
	e, err := tx.ExerciseByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !e.IsGlobal() && !e.OwnedBy(b.owner.ID) {
		return nil, training.ErrNotFound
	}
	return e, nil
}

func (b *batch) upsertWorkout(ctx context.Context, tx training.Tx, change Change) (item, error) {
	var p workoutPayload
	if err := decode(change.Data, &p); err != nil {
		return item{}, err
	}
	if err := p.validate(); err != nil {
		return item{}, err
	}
	date, err := p.date()
	if err != nil {
		return item{}, err
	}

	w, err := b.ownWorkout(ctx, tx, change.EntityKey)
	switch {
	case errors.Is(err, training.ErrNotFound):
		w = &training.Workout{
			Key:     change.EntityKey,
			OwnerID: b.owner.ID,
		}
	case err != nil:
		return item{}, err
	}

	w.Name = p.Name
	w.Date = date
	w.DurationMinutes = p.DurationMinutes
	w.Completed = p.Completed
	w.Notes = p.Notes
	// provisional until the workout is recomputed
	if p.TotalVolume != nil {
		w.TotalVolume = *p.TotalVolume
	}
	if p.ExperienceEarned != nil {
		w.ExperienceEarned = *p.ExperienceEarned
	}

	if err := tx.SaveWorkout(ctx, w); err != nil {
		return item{}, fmt.Errorf("save workout: %w", err)
	}
	return item{status: StatusSynced, touched: []int64{w.ID}}, nil
}

func (b *batch) deleteWorkout(ctx context.Context, tx training.Tx, key string) (item, error) {
	w, err := b.ownWorkout(ctx, tx, key)
	if errors.Is(err, training.ErrNotFound) {
		return item{status: StatusDeleted}, nil
	}
	if err != nil {
		return item{}, err
	}
	if err := tx.DeleteWorkout(ctx, w.ID); err != nil {
		return item{}, fmt.Errorf("delete workout: %w", err)
	}
	return item{status: StatusDeleted}, nil
}

func (b *batch) upsertWorkoutExercise(ctx context.Context, tx training.Tx, change Change) (item, error) {
	var p workoutExercisePayload
	if err := decode(change.Data, &p); err != nil {
		return item{}, err
	}
	if err := p.validate(); err != nil {
		return item{}, err
	}

	workout, err := b.ownWorkout(ctx, tx, p.WorkoutKey)
	if errors.Is(err, training.ErrNotFound) {
		return item{}, fmt.Errorf("%w: workout %s", ErrReferenceMissing, p.WorkoutKey)
	}
	if err != nil {
		return item{}, err
	}
	exercise, err := b.visibleExercise(ctx, tx, p.ExerciseKey)
	if errors.Is(err, training.ErrNotFound) {
		return item{}, fmt.Errorf("%w: exercise %s", ErrReferenceMissing, p.ExerciseKey)
	}
	if err != nil {
		return item{}, err
	}

	touched := []int64{workout.ID}
	we, err := b.ownWorkoutExercise(ctx, tx, change.EntityKey)
	switch {
	case errors.Is(err, training.ErrNotFound):
		we = &training.WorkoutExercise{Key: change.EntityKey}
	case err != nil:
		return item{}, err
	default:
		if we.WorkoutID != workout.ID {
			touched = append(touched, we.WorkoutID)
		}
	}

	we.WorkoutID = workout.ID
	we.ExerciseID = exercise.ID
	we.OrderIndex = p.OrderIndex
	we.TotalSets = p.TotalSets
	we.TotalReps = p.TotalReps
	we.TotalVolume = p.TotalVolume
	we.BestEstimatedMax = p.BestEstimatedMax
	we.Notes = p.Notes

	if err := tx.SaveWorkoutExercise(ctx, we); err != nil {
		return item{}, fmt.Errorf("save workout exercise: %w", err)
	}
	return item{status: StatusSynced, touched: touched}, nil
}

func (b *batch) deleteWorkoutExercise(ctx context.Context, tx training.Tx, key string) (item, error) {
	we, err := b.ownWorkoutExercise(ctx, tx, key)
	if errors.Is(err, training.ErrNotFound) {
		return item{status: StatusDeleted}, nil
	}
	if err != nil {
		return item{}, err
	}
	if err := tx.DeleteWorkoutExercise(ctx, we.ID); err != nil {
		return item{}, fmt.Errorf("delete workout exercise: %w", err)
	}
	return item{status: StatusDeleted, touched: []int64{we.WorkoutID}}, nil
}

func (b *batch) upsertExerciseSet(ctx context.Context, tx training.Tx, change Change) (item, error) {
	var p exerciseSetPayload
	if err := decode(change.Data, &p); err != nil {
		return item{}, err
	}
	if err := p.validate(); err != nil {
		return item{}, err
	}

	parent, err := b.ownWorkoutExercise(ctx, tx, p.WorkoutExerciseKey)
	if errors.Is(err, training.ErrNotFound) {
		return item{}, fmt.Errorf("%w: workout exercise %s", ErrReferenceMissing, p.WorkoutExerciseKey)
	}
	if err != nil {
		return item{}, err
	}

	touched := []int64{parent.WorkoutID}
	set, err := tx.ExerciseSetByKey(ctx, change.EntityKey)
	switch {
	case errors.Is(err, training.ErrNotFound):
		set = &training.ExerciseSet{Key: change.EntityKey}
	case err != nil:
		return item{}, err
	default:
		// the set may move between workout exercises, refresh where it came from too
		previousWorkout, err := b.setWorkout(ctx, tx, set)
		if err != nil {
			return item{}, err
		}
		if previousWorkout != parent.WorkoutID {
			touched = append(touched, previousWorkout)
		}
	}

	set.WorkoutExerciseID = parent.ID
	set.SetNumber = p.SetNumber
	set.Weight = p.Weight
	set.Reps = p.Reps
	set.RPE = p.RPE
	set.Warmup = p.Warmup
	set.PersonalRecord = p.PersonalRecord
	set.RestSeconds = p.RestSeconds
	aggregation.DeriveSet(set)

	if err := tx.SaveExerciseSet(ctx, set); err != nil {
		return item{}, fmt.Errorf("save exercise set: %w", err)
	}
	return item{status: StatusSynced, touched: touched}, nil
}

// setWorkout resolves the workout an existing set belongs to and checks it is
// the pushing owner's.
func (b *batch) setWorkout(ctx context.Context, tx training.Tx, set *training.ExerciseSet) (int64, error) {
	we, err := tx.WorkoutExerciseByID(ctx, set.WorkoutExerciseID)
	if err != nil {
		return 0, fmt.Errorf("get workout exercise of set %s: %w", set.Key, err)
	}
	w, err := tx.WorkoutByID(ctx, we.WorkoutID)
	if err != nil {
		return 0, fmt.Errorf("get workout of set %s: %w", set.Key, err)
	}
	if w.OwnerID != b.owner.ID {
		return 0, training.ErrNotOwned
	}
	return w.ID, nil
}

func (b *batch) deleteExerciseSet(ctx context.Context, tx training.Tx, key string) (item, error) {
	set, err := tx.ExerciseSetByKey(ctx, key)
	if errors.Is(err, training.ErrNotFound) {
		return item{status: StatusDeleted}, nil
	}
	if err != nil {
		return item{}, err
	}
	workoutID, err := b.setWorkout(ctx, tx, set)
	if err != nil {
		return item{}, err
	}
	if err := tx.DeleteExerciseSet(ctx, set.ID); err != nil {
		return item{}, fmt.Errorf("delete exercise set: %w", err)
	}
	return item{status: StatusDeleted, touched: []int64{workoutID}}, nil
}

// usedBy lists the owner's workouts referencing the exercise.
func (b *batch) usedBy(ctx context.Context, tx training.Tx, exerciseID int64) ([]int64, error) {
	wes, err := tx.WorkoutExercisesByExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("list workout exercises of exercise %d: %w", exerciseID, err)
	}
	ids := make([]int64, 0, len(wes))
	for _, we := range wes {
		ids = append(ids, we.WorkoutID)
	}
	return ids, nil
}

func (b *batch) upsertExercise(ctx context.Context, tx training.Tx, change Change) (item, error) {
	var p exercisePayload
	if err := decode(change.Data, &p); err != nil {
		return item{}, err
	}
	if err := p.validate(); err != nil {
		return item{}, err
	}

	e, err := tx.ExerciseByKey(ctx, change.EntityKey)
	switch {
	case errors.Is(err, training.ErrNotFound):
		ownerID := b.owner.ID
		e = &training.Exercise{
			Key:     change.EntityKey,
			OwnerID: &ownerID,
		}
	case err != nil:
		return item{}, err
	case e.IsGlobal():
		return item{}, ErrReadOnly
	case !e.OwnedBy(b.owner.ID):
		return item{}, training.ErrNotOwned
	}

	previousMultiplier := e.ExperienceMultiplier
	p.apply(e)
	if err := tx.SaveExercise(ctx, e); err != nil {
		return item{}, fmt.Errorf("save exercise: %w", err)
	}

	result := item{status: StatusSynced}
	if previousMultiplier != 0 && previousMultiplier != e.ExperienceMultiplier {
		if result.touched, err = b.usedBy(ctx, tx, e.ID); err != nil {
			return item{}, err
		}
	}
	return result, nil
}

func (b *batch) deleteExercise(ctx context.Context, tx training.Tx, key string) (item, error) {
	e, err := tx.ExerciseByKey(ctx, key)
	switch {
	case errors.Is(err, training.ErrNotFound):
		return item{status: StatusDeleted}, nil
	case err != nil:
		return item{}, err
	case e.IsGlobal():
		return item{status: StatusSkipped}, nil
	case !e.OwnedBy(b.owner.ID):
		return item{}, training.ErrNotOwned
	}

	touched, err := b.usedBy(ctx, tx, e.ID)
	if err != nil {
		return item{}, err
	}
	if err := tx.DeleteExercise(ctx, e.ID); err != nil {
		return item{}, fmt.Errorf("delete exercise: %w", err)
	}
	return item{status: StatusDeleted, touched: touched}, nil
}
