// Package postgres implements the training entity store on top of pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.sql
var schemaSQL string

const (
	userColumns            = `id, ext_key, username, email, password_hash, total_experience, level, last_sync_at, created_at`
	exerciseColumns        = `id, ext_key, owner_id, name, category, muscle_group, experience_multiplier, stat_type, is_custom, is_archived, created_at, updated_at`
	workoutColumns         = `id, ext_key, owner_id, name, workout_date, duration_minutes, total_volume, experience_earned, is_completed, notes, created_at, updated_at`
	workoutExerciseColumns = `id, ext_key, workout_id, exercise_id, order_index, total_sets, total_reps, total_volume, best_estimated_max, notes, created_at`
	exerciseSetColumns     = `id, ext_key, workout_exercise_id, set_number, weight, reps, rpe, volume, estimated_max, is_warmup, is_pr, rest_seconds, created_at`
)

var _ training.Store = (*Store)(nil)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db: db,
	}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.migrate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err = s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) RunInOwnerTx(ctx context.Context, ownerKey string, fn training.TxFunc) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.ownertx")
	span.SetAttributes(attribute.String("owner", ownerKey))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// row lock serializes units of work of the same owner
	owner, err := scanUser(tx.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM app_user
		WHERE ext_key = $1
		FOR UPDATE
	`, ownerKey))
	if errors.Is(err, pgx.ErrNoRows) {
		return training.ErrOwnerNotFound
	}
	if err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}

	return fn(ctx, &pgTx{tx: tx, owner: owner})
}

func (s *Store) CreateUser(ctx context.Context, user *training.User) (_ *training.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.user.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	created := *user
	if created.Key == "" {
		created.Key = uuid.NewString()
	}
	if created.Level < 1 {
		created.Level = 1
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO app_user (ext_key, username, email, password_hash, total_experience, level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`,
		created.Key, created.Username, created.Email, created.PasswordHash,
		created.TotalExperience, created.Level,
	).Scan(&created.ID, &created.CreatedAt)
	if pkg.IsUniqueViolationError(err) {
		return nil, training.ErrDuplicateUser
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (s *Store) GlobalExercises(ctx context.Context) (_ []training.Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.exercises.global")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := s.db.Query(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercise
		WHERE owner_id IS NULL
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	return collectExercises(rows)
}

func (s *Store) SeedExercises(ctx context.Context, exercises []training.Exercise) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.training.exercises.seed")
	span.SetAttributes(attribute.Int("count", len(exercises)))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	added := 0
	for _, e := range exercises {
		tag, err := s.db.Exec(ctx, `
			INSERT INTO exercise (ext_key, owner_id, name, category, muscle_group, experience_multiplier, stat_type, is_custom, is_archived)
			VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ext_key) DO NOTHING
		`, e.Key, e.Name, e.Category, e.MuscleGroup, e.ExperienceMultiplier, e.StatType, e.Custom, e.Archived)
		if err != nil {
			return added, fmt.Errorf("seed exercise %s: %w", e.Key, err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

// SyncLog returns the sync log entries of the owner, oldest first.
func (s *Store) SyncLog(ctx context.Context, ownerID int64) ([]training.SyncLogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, entity_type, entity_key, action, status, error, payload, synced_at
		FROM sync_log
		WHERE owner_id = $1
		ORDER BY synced_at, entity_key
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []training.SyncLogEntry
	for rows.Next() {
		var e training.SyncLogEntry
		var id uuid.UUID
		if err := rows.Scan(&id, &e.OwnerID, &e.EntityType, &e.EntityKey, &e.Action, &e.Status, &e.Error, &e.Payload, &e.SyncedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		e.ID = id.String()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type pgTx struct {
	tx    pgx.Tx
	owner *training.User
}

func (t *pgTx) Owner() *training.User {
	c := *t.owner
	return &c
}

func (t *pgTx) SaveOwner(ctx context.Context, owner *training.User) error {
	if owner.ID != t.owner.ID {
		return training.ErrNotOwned
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE app_user
		SET total_experience = $1, level = $2, last_sync_at = $3
		WHERE id = $4
	`, owner.TotalExperience, owner.Level, owner.LastSyncAt, owner.ID)
	if err != nil {
		return fmt.Errorf("update owner: %w", err)
	}
	c := *owner
	t.owner = &c
	return nil
}

func (t *pgTx) Isolate(ctx context.Context, fn training.TxFunc) (err error) {
	savepoint, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin savepoint: %w", err)
	}

	nested := &pgTx{tx: savepoint, owner: t.Owner()}
	if err := fn(ctx, nested); err != nil {
		if rollbackErr := savepoint.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("failed to rollback savepoint: %w: %w", rollbackErr, err)
		}
		return err
	}
	if err := savepoint.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	t.owner = nested.owner
	return nil
}

func (t *pgTx) ExerciseByKey(ctx context.Context, key string) (*training.Exercise, error) {
	return oneExercise(t.tx.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercise WHERE ext_key = $1`, key))
}

func (t *pgTx) ExerciseByID(ctx context.Context, id int64) (*training.Exercise, error) {
	return oneExercise(t.tx.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercise WHERE id = $1`, id))
}

func (t *pgTx) ExercisesForOwner(ctx context.Context) ([]training.Exercise, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+exerciseColumns+`
		FROM exercise
		WHERE owner_id IS NULL OR owner_id = $1
		ORDER BY name, id
	`, t.owner.ID)
	if err != nil {
		return nil, err
	}
	return collectExercises(rows)
}

func (t *pgTx) SaveExercise(ctx context.Context, e *training.Exercise) error {
	if e.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO exercise (ext_key, owner_id, name, category, muscle_group, experience_multiplier, stat_type, is_custom, is_archived)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`,
			e.Key, e.OwnerID, e.Name, e.Category, e.MuscleGroup,
			e.ExperienceMultiplier, e.StatType, e.Custom, e.Archived,
		).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
		return insertErr("exercise", err)
	}

	err := t.tx.QueryRow(ctx, `
		UPDATE exercise
		SET name = $1, category = $2, muscle_group = $3, experience_multiplier = $4,
			stat_type = $5, is_custom = $6, is_archived = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`,
		e.Name, e.Category, e.MuscleGroup, e.ExperienceMultiplier,
		e.StatType, e.Custom, e.Archived, e.ID,
	).Scan(&e.UpdatedAt)
	return updateErr("exercise", err)
}

func (t *pgTx) DeleteExercise(ctx context.Context, id int64) error {
	return deleteByID(ctx, t.tx, "exercise", id)
}

func (t *pgTx) WorkoutByKey(ctx context.Context, key string) (*training.Workout, error) {
	return oneWorkout(t.tx.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workout WHERE ext_key = $1`, key))
}

func (t *pgTx) WorkoutByID(ctx context.Context, id int64) (*training.Workout, error) {
	return oneWorkout(t.tx.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workout WHERE id = $1`, id))
}

func (t *pgTx) Workouts(ctx context.Context) ([]training.Workout, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+workoutColumns+`
		FROM workout
		WHERE owner_id = $1
		ORDER BY workout_date DESC, id DESC
	`, t.owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []training.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

func (t *pgTx) SaveWorkout(ctx context.Context, w *training.Workout) error {
	if w.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO workout (ext_key, owner_id, name, workout_date, duration_minutes, total_volume, experience_earned, is_completed, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`,
			w.Key, w.OwnerID, w.Name, w.Date, w.DurationMinutes,
			w.TotalVolume, w.ExperienceEarned, w.Completed, w.Notes,
		).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
		return insertErr("workout", err)
	}

	err := t.tx.QueryRow(ctx, `
		UPDATE workout
		SET name = $1, workout_date = $2, duration_minutes = $3, total_volume = $4,
			experience_earned = $5, is_completed = $6, notes = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`,
		w.Name, w.Date, w.DurationMinutes, w.TotalVolume,
		w.ExperienceEarned, w.Completed, w.Notes, w.ID,
	).Scan(&w.UpdatedAt)
	return updateErr("workout", err)
}

func (t *pgTx) DeleteWorkout(ctx context.Context, id int64) error {
	return deleteByID(ctx, t.tx, "workout", id)
}

func (t *pgTx) WorkoutExerciseByKey(ctx context.Context, key string) (*training.WorkoutExercise, error) {
	return oneWorkoutExercise(t.tx.QueryRow(ctx, `SELECT `+workoutExerciseColumns+` FROM workout_exercise WHERE ext_key = $1`, key))
}

func (t *pgTx) WorkoutExerciseByID(ctx context.Context, id int64) (*training.WorkoutExercise, error) {
	return oneWorkoutExercise(t.tx.QueryRow(ctx, `SELECT `+workoutExerciseColumns+` FROM workout_exercise WHERE id = $1`, id))
}

func (t *pgTx) WorkoutExercises(ctx context.Context, workoutID int64) ([]training.WorkoutExercise, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+workoutExerciseColumns+`
		FROM workout_exercise
		WHERE workout_id = $1
		ORDER BY order_index, id
	`, workoutID)
	if err != nil {
		return nil, err
	}
	return collectWorkoutExercises(rows)
}

func (t *pgTx) WorkoutExercisesByExercise(ctx context.Context, exerciseID int64) ([]training.WorkoutExercise, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+prefixed("we", workoutExerciseColumns)+`
		FROM workout_exercise we
		JOIN workout w ON w.id = we.workout_id
		WHERE we.exercise_id = $1 AND w.owner_id = $2
		ORDER BY we.order_index, we.id
	`, exerciseID, t.owner.ID)
	if err != nil {
		return nil, err
	}
	return collectWorkoutExercises(rows)
}

func (t *pgTx) SaveWorkoutExercise(ctx context.Context, we *training.WorkoutExercise) error {
	if we.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO workout_exercise (ext_key, workout_id, exercise_id, order_index, total_sets, total_reps, total_volume, best_estimated_max, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`,
			we.Key, we.WorkoutID, we.ExerciseID, we.OrderIndex, we.TotalSets,
			we.TotalReps, we.TotalVolume, we.BestEstimatedMax, we.Notes,
		).Scan(&we.ID, &we.CreatedAt)
		return insertErr("workout exercise", err)
	}

	tag, err := t.tx.Exec(ctx, `
		UPDATE workout_exercise
		SET workout_id = $1, exercise_id = $2, order_index = $3, total_sets = $4,
			total_reps = $5, total_volume = $6, best_estimated_max = $7, notes = $8
		WHERE id = $9
	`,
		we.WorkoutID, we.ExerciseID, we.OrderIndex, we.TotalSets,
		we.TotalReps, we.TotalVolume, we.BestEstimatedMax, we.Notes, we.ID,
	)
	if err != nil {
		return updateErr("workout exercise", err)
	}
	if tag.RowsAffected() == 0 {
		return training.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteWorkoutExercise(ctx context.Context, id int64) error {
	return deleteByID(ctx, t.tx, "workout_exercise", id)
}

func (t *pgTx) ExerciseSetByKey(ctx context.Context, key string) (*training.ExerciseSet, error) {
	set, err := scanExerciseSet(t.tx.QueryRow(ctx, `SELECT `+exerciseSetColumns+` FROM exercise_set WHERE ext_key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, training.ErrNotFound
	}
	return set, err
}

func (t *pgTx) ExerciseSets(ctx context.Context, workoutExerciseID int64) ([]training.ExerciseSet, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+exerciseSetColumns+`
		FROM exercise_set
		WHERE workout_exercise_id = $1
		ORDER BY set_number, id
	`, workoutExerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []training.ExerciseSet
	for rows.Next() {
		set, err := scanExerciseSet(rows)
		if err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

func (t *pgTx) SaveExerciseSet(ctx context.Context, set *training.ExerciseSet) error {
	if set.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO exercise_set (ext_key, workout_exercise_id, set_number, weight, reps, rpe, volume, estimated_max, is_warmup, is_pr, rest_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at
		`,
			set.Key, set.WorkoutExerciseID, set.SetNumber, set.Weight, set.Reps, set.RPE,
			set.Volume, set.EstimatedMax, set.Warmup, set.PersonalRecord, set.RestSeconds,
		).Scan(&set.ID, &set.CreatedAt)
		return insertErr("exercise set", err)
	}

	tag, err := t.tx.Exec(ctx, `
		UPDATE exercise_set
		SET workout_exercise_id = $1, set_number = $2, weight = $3, reps = $4, rpe = $5,
			volume = $6, estimated_max = $7, is_warmup = $8, is_pr = $9, rest_seconds = $10
		WHERE id = $11
	`,
		set.WorkoutExerciseID, set.SetNumber, set.Weight, set.Reps, set.RPE,
		set.Volume, set.EstimatedMax, set.Warmup, set.PersonalRecord, set.RestSeconds, set.ID,
	)
	if err != nil {
		return updateErr("exercise set", err)
	}
	if tag.RowsAffected() == 0 {
		return training.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteExerciseSet(ctx context.Context, id int64) error {
	return deleteByID(ctx, t.tx, "exercise_set", id)
}

func (t *pgTx) AppendSyncLog(ctx context.Context, entries ...training.SyncLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		var payload []byte
		if len(e.Payload) > 0 {
			payload = e.Payload
		}
		syncedAt := e.SyncedAt
		if syncedAt.IsZero() {
			syncedAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO sync_log (id, owner_id, entity_type, entity_key, action, status, error, payload, synced_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, id, t.owner.ID, e.EntityType, e.EntityKey, e.Action, e.Status, e.Error, payload, syncedAt)
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}
