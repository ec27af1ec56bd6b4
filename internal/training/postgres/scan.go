package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/pkg"

	"github.com/jackc/pgx/v5"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*training.User, error) {
	u := &training.User{}
	err := row.Scan(
		&u.ID, &u.Key, &u.Username, &u.Email, &u.PasswordHash,
		&u.TotalExperience, &u.Level, &u.LastSyncAt, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanExercise(row scanner) (*training.Exercise, error) {
	e := &training.Exercise{}
	err := row.Scan(
		&e.ID, &e.Key, &e.OwnerID, &e.Name, &e.Category, &e.MuscleGroup,
		&e.ExperienceMultiplier, &e.StatType, &e.Custom, &e.Archived,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanWorkout(row scanner) (*training.Workout, error) {
	w := &training.Workout{}
	err := row.Scan(
		&w.ID, &w.Key, &w.OwnerID, &w.Name, &w.Date, &w.DurationMinutes,
		&w.TotalVolume, &w.ExperienceEarned, &w.Completed, &w.Notes,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func scanWorkoutExercise(row scanner) (*training.WorkoutExercise, error) {
	we := &training.WorkoutExercise{}
	err := row.Scan(
		&we.ID, &we.Key, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex,
		&we.TotalSets, &we.TotalReps, &we.TotalVolume, &we.BestEstimatedMax,
		&we.Notes, &we.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return we, nil
}

func scanExerciseSet(row scanner) (*training.ExerciseSet, error) {
	s := &training.ExerciseSet{}
	err := row.Scan(
		&s.ID, &s.Key, &s.WorkoutExerciseID, &s.SetNumber, &s.Weight, &s.Reps,
		&s.RPE, &s.Volume, &s.EstimatedMax, &s.Warmup, &s.PersonalRecord,
		&s.RestSeconds, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func oneExercise(row pgx.Row) (*training.Exercise, error) {
	e, err := scanExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, training.ErrNotFound
	}
	return e, err
}

func oneWorkout(row pgx.Row) (*training.Workout, error) {
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, training.ErrNotFound
	}
	return w, err
}

func oneWorkoutExercise(row pgx.Row) (*training.WorkoutExercise, error) {
	we, err := scanWorkoutExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, training.ErrNotFound
	}
	return we, err
}

func collectExercises(rows pgx.Rows) ([]training.Exercise, error) {
	defer rows.Close()

	var exercises []training.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

func collectWorkoutExercises(rows pgx.Rows) ([]training.WorkoutExercise, error) {
	defer rows.Close()

	var list []training.WorkoutExercise
	for rows.Next() {
		we, err := scanWorkoutExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		list = append(list, *we)
	}
	return list, rows.Err()
}

// insertErr maps constraint violations on insert to store errors.
func insertErr(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case pkg.IsUniqueViolationError(err):
		return training.ErrDuplicateKey
	case pkg.IsForeignKeyViolationError(err):
		return training.ErrNotFound
	default:
		return fmt.Errorf("insert %s: %w", entity, err)
	}
}

func updateErr(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), pkg.IsForeignKeyViolationError(err):
		return training.ErrNotFound
	default:
		return fmt.Errorf("update %s: %w", entity, err)
	}
}

// deleteByID relies on ON DELETE CASCADE for owned children.
func deleteByID(ctx context.Context, tx pgx.Tx, table string, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return training.ErrNotFound
	}
	return nil
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
