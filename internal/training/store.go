// Package training defines the workout entities and the storage contract
// the sync reconciler and the statistics services work against.
package training

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrOwnerNotFound = errors.New("owner not found")
	ErrDuplicateUser = errors.New("username or email already taken")
	ErrNotOwned      = errors.New("entity belongs to another owner")
	ErrDuplicateKey  = errors.New("external key already in use")
)

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the durable home of all entities.
type Store interface {
	// RunInOwnerTx runs fn in one unit of work with exclusive access to the owner
	// identified by ownerKey. Everything fn writes is committed when it returns nil
	// and discarded otherwise. Units of work of different owners do not block each other.
	RunInOwnerTx(ctx context.Context, ownerKey string, fn TxFunc) error
	CreateUser(ctx context.Context, user *User) (*User, error)
	GlobalExercises(ctx context.Context) ([]Exercise, error)
	// SeedExercises stores the given global exercises whose keys are not taken yet
	// and reports how many were added.
	SeedExercises(ctx context.Context, exercises []Exercise) (int, error)
}

// Tx is the view of the store inside a unit of work. Lookups by key return
// ErrNotFound when nothing matches. Save inserts when the entity ID is zero
// (assigning the ID) and updates otherwise.
type Tx interface {
	Owner() *User
	SaveOwner(ctx context.Context, owner *User) error

	// Isolate runs fn so that a failure inside it only discards the writes fn made.
	Isolate(ctx context.Context, fn TxFunc) error

	ExerciseByKey(ctx context.Context, key string) (*Exercise, error)
	ExerciseByID(ctx context.Context, id int64) (*Exercise, error)
	// ExercisesForOwner lists global exercises and the owner's own.
	ExercisesForOwner(ctx context.Context) ([]Exercise, error)
	SaveExercise(ctx context.Context, exercise *Exercise) error
	// DeleteExercise removes the exercise along with the workout exercises using it.
	DeleteExercise(ctx context.Context, id int64) error

	WorkoutByKey(ctx context.Context, key string) (*Workout, error)
	WorkoutByID(ctx context.Context, id int64) (*Workout, error)
	// Workouts lists the owner's workouts, most recent first.
	Workouts(ctx context.Context) ([]Workout, error)
	SaveWorkout(ctx context.Context, workout *Workout) error
	// DeleteWorkout removes the workout with its exercises and their sets.
	DeleteWorkout(ctx context.Context, id int64) error

	WorkoutExerciseByKey(ctx context.Context, key string) (*WorkoutExercise, error)
	// WorkoutExercises lists the exercises of a workout by order index.
	WorkoutExercises(ctx context.Context, workoutID int64) ([]WorkoutExercise, error)
	WorkoutExercisesByExercise(ctx context.Context, exerciseID int64) ([]WorkoutExercise, error)
	SaveWorkoutExercise(ctx context.Context, we *WorkoutExercise) error
	DeleteWorkoutExercise(ctx context.Context, id int64) error
	WorkoutExerciseByID(ctx context.Context, id int64) (*WorkoutExercise, error)

	ExerciseSetByKey(ctx context.Context, key string) (*ExerciseSet, error)
	// ExerciseSets lists the sets of a workout exercise by set number.
	ExerciseSets(ctx context.Context, workoutExerciseID int64) ([]ExerciseSet, error)
	SaveExerciseSet(ctx context.Context, set *ExerciseSet) error
	DeleteExerciseSet(ctx context.Context, id int64) error

	AppendSyncLog(ctx context.Context, entries ...SyncLogEntry) error
}
