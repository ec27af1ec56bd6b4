package training

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process and is meant for development and
// tests. Writes inside a unit of work are applied in place and undone on
// failure, so units of work run one at a time across all owners; reads outside
// of a unit of work may still observe writes that are later undone.
type MemoryStore struct {
	// held for the whole unit of work
	txMu sync.Mutex

	mu               sync.RWMutex
	lastID           int64
	users            map[int64]*User
	exercises        map[int64]*Exercise
	workouts         map[int64]*Workout
	workoutExercises map[int64]*WorkoutExercise
	sets             map[int64]*ExerciseSet
	syncLog          []SyncLogEntry

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            make(map[int64]*User),
		exercises:        make(map[int64]*Exercise),
		workouts:         make(map[int64]*Workout),
		workoutExercises: make(map[int64]*WorkoutExercise),
		sets:             make(map[int64]*ExerciseSet),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryStore) RunInOwnerTx(ctx context.Context, ownerKey string, fn TxFunc) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	owner := s.userByKey(ownerKey)
	s.mu.RUnlock()
	if owner == nil {
		return ErrOwnerNotFound
	}

	tx := &memTx{store: s, owner: owner}
	defer func() {
		if p := recover(); p != nil {
			tx.rollbackTo(0)
			panic(p)
		}
		if err != nil {
			tx.rollbackTo(0)
		}
	}()

	return fn(ctx, tx)
}

func (s *MemoryStore) userByKey(key string) *User {
	for _, u := range s.users {
		if u.Key == key {
			c := *u
			return &c
		}
	}
	return nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return nil, ErrDuplicateUser
		}
	}

	created := *user
	s.lastID++
	created.ID = s.lastID
	if created.Key == "" {
		created.Key = uuid.NewString()
	}
	if created.Level < 1 {
		created.Level = 1
	}
	created.CreatedAt = s.now()
	stored := created
	s.users[created.ID] = &stored
	return &created, nil
}

func (s *MemoryStore) GlobalExercises(_ context.Context) ([]Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []Exercise
	for _, e := range s.exercises {
		if e.IsGlobal() {
			list = append(list, *e)
		}
	}
	sortExercises(list)
	return list, nil
}

func (s *MemoryStore) SeedExercises(_ context.Context, exercises []Exercise) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range exercises {
		if s.exerciseByKey(e.Key) != nil {
			continue
		}
		seeded := e
		s.lastID++
		seeded.ID = s.lastID
		seeded.OwnerID = nil
		seeded.CreatedAt = s.now()
		seeded.UpdatedAt = seeded.CreatedAt
		s.exercises[seeded.ID] = &seeded
		added++
	}
	return added, nil
}

// SyncLog returns the sync log entries of the owner, oldest first.
func (s *MemoryStore) SyncLog(ownerID int64) []SyncLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []SyncLogEntry
	for _, e := range s.syncLog {
		if e.OwnerID == ownerID {
			entries = append(entries, e)
		}
	}
	return entries
}

func (s *MemoryStore) exerciseByKey(key string) *Exercise {
	for _, e := range s.exercises {
		if e.Key == key {
			return e
		}
	}
	return nil
}

func sortExercises(list []Exercise) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

type memTx struct {
	store *MemoryStore
	owner *User
	undo  []func()
}

// stash remembers the current value stored under id so it can be restored.
func stash[T any](tx *memTx, m map[int64]*T, id int64) {
	prev, existed := m[id]
	tx.undo = append(tx.undo, func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	})
}

func (tx *memTx) rollbackTo(mark int) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for i := len(tx.undo) - 1; i >= mark; i-- {
		tx.undo[i]()
	}
	tx.undo = tx.undo[:mark]
}

func (tx *memTx) nextID() int64 {
	tx.store.lastID++
	return tx.store.lastID
}

func (tx *memTx) Owner() *User {
	c := *tx.owner
	return &c
}

func (tx *memTx) SaveOwner(_ context.Context, owner *User) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner.ID != tx.owner.ID {
		return ErrNotOwned
	}
	stashed := *owner
	stash(tx, s.users, owner.ID)
	s.users[owner.ID] = &stashed

	prevOwner := tx.owner
	tx.undo = append(tx.undo, func() { tx.owner = prevOwner })
	c := *owner
	tx.owner = &c
	return nil
}

func (tx *memTx) Isolate(ctx context.Context, fn TxFunc) (err error) {
	mark := len(tx.undo)
	defer func() {
		if err != nil {
			tx.rollbackTo(mark)
		}
	}()
	return fn(ctx, tx)
}

func (tx *memTx) ExerciseByKey(_ context.Context, key string) (*Exercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if e := tx.store.exerciseByKey(key); e != nil {
		c := *e
		return &c, nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) ExerciseByID(_ context.Context, id int64) (*Exercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if e, ok := tx.store.exercises[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) ExercisesForOwner(_ context.Context) ([]Exercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	var list []Exercise
	for _, e := range tx.store.exercises {
		if e.IsGlobal() || e.OwnedBy(tx.owner.ID) {
			list = append(list, *e)
		}
	}
	sortExercises(list)
	return list, nil
}

func (tx *memTx) SaveExercise(_ context.Context, exercise *Exercise) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exercise.ID == 0 {
		if s.exerciseByKey(exercise.Key) != nil {
			return ErrDuplicateKey
		}
		exercise.ID = tx.nextID()
		exercise.CreatedAt = now
	} else if _, ok := s.exercises[exercise.ID]; !ok {
		return ErrNotFound
	}
	exercise.UpdatedAt = now

	stored := *exercise
	stash(tx, s.exercises, exercise.ID)
	s.exercises[exercise.ID] = &stored
	return nil
}

func (tx *memTx) DeleteExercise(_ context.Context, id int64) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exercises[id]; !ok {
		return ErrNotFound
	}
	for weID, we := range s.workoutExercises {
		if we.ExerciseID == id {
			tx.deleteWorkoutExercise(weID)
		}
	}
	stash(tx, s.exercises, id)
	delete(s.exercises, id)
	return nil
}

func (tx *memTx) WorkoutByKey(_ context.Context, key string) (*Workout, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	for _, w := range tx.store.workouts {
		if w.Key == key {
			c := *w
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) WorkoutByID(_ context.Context, id int64) (*Workout, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if w, ok := tx.store.workouts[id]; ok {
		c := *w
		return &c, nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) Workouts(_ context.Context) ([]Workout, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	var list []Workout
	for _, w := range tx.store.workouts {
		if w.OwnerID == tx.owner.ID {
			list = append(list, *w)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (tx *memTx) SaveWorkout(_ context.Context, workout *Workout) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if workout.ID == 0 {
		for _, w := range s.workouts {
			if w.Key == workout.Key {
				return ErrDuplicateKey
			}
		}
		workout.ID = tx.nextID()
		workout.CreatedAt = now
	} else if _, ok := s.workouts[workout.ID]; !ok {
		return ErrNotFound
	}
	workout.UpdatedAt = now

	stored := *workout
	stash(tx, s.workouts, workout.ID)
	s.workouts[workout.ID] = &stored
	return nil
}

func (tx *memTx) DeleteWorkout(_ context.Context, id int64) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workouts[id]; !ok {
		return ErrNotFound
	}
	for weID, we := range s.workoutExercises {
		if we.WorkoutID == id {
			tx.deleteWorkoutExercise(weID)
		}
	}
	stash(tx, s.workouts, id)
	delete(s.workouts, id)
	return nil
}

func (tx *memTx) WorkoutExerciseByKey(_ context.Context, key string) (*WorkoutExercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	for _, we := range tx.store.workoutExercises {
		if we.Key == key {
			c := *we
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) WorkoutExerciseByID(_ context.Context, id int64) (*WorkoutExercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	if we, ok := tx.store.workoutExercises[id]; ok {
		c := *we
		return &c, nil
	}
	return nil, ErrNotFound
}

func (tx *memTx) WorkoutExercises(_ context.Context, workoutID int64) ([]WorkoutExercise, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	var list []WorkoutExercise
	for _, we := range tx.store.workoutExercises {
		if we.WorkoutID == workoutID {
			list = append(list, *we)
		}
	}
	sortWorkoutExercises(list)
	return list, nil
}

func (tx *memTx) WorkoutExercisesByExercise(_ context.Context, exerciseID int64) ([]WorkoutExercise, error) {
	s := tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []WorkoutExercise
	for _, we := range s.workoutExercises {
		if we.ExerciseID != exerciseID {
			continue
		}
		if w, ok := s.workouts[we.WorkoutID]; ok && w.OwnerID == tx.owner.ID {
			list = append(list, *we)
		}
	}
	sortWorkoutExercises(list)
	return list, nil
}

func sortWorkoutExercises(list []WorkoutExercise) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
}

func (tx *memTx) SaveWorkoutExercise(_ context.Context, we *WorkoutExercise) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workouts[we.WorkoutID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.exercises[we.ExerciseID]; !ok {
		return ErrNotFound
	}
	if we.ID == 0 {
		for _, existing := range s.workoutExercises {
			if existing.Key == we.Key {
				return ErrDuplicateKey
			}
		}
		we.ID = tx.nextID()
		we.CreatedAt = s.now()
	} else if _, ok := s.workoutExercises[we.ID]; !ok {
		return ErrNotFound
	}

	stored := *we
	stash(tx, s.workoutExercises, we.ID)
	s.workoutExercises[we.ID] = &stored
	return nil
}

func (tx *memTx) DeleteWorkoutExercise(_ context.Context, id int64) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workoutExercises[id]; !ok {
		return ErrNotFound
	}
	tx.deleteWorkoutExercise(id)
	return nil
}

// deleteWorkoutExercise expects the store lock to be held.
func (tx *memTx) deleteWorkoutExercise(id int64) {
	s := tx.store
	for setID, set := range s.sets {
		if set.WorkoutExerciseID == id {
			stash(tx, s.sets, setID)
			delete(s.sets, setID)
		}
	}
	stash(tx, s.workoutExercises, id)
	delete(s.workoutExercises, id)
}

func (tx *memTx) ExerciseSetByKey(_ context.Context, key string) (*ExerciseSet, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	for _, set := range tx.store.sets {
		if set.Key == key {
			c := *set
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (tx *memTx) ExerciseSets(_ context.Context, workoutExerciseID int64) ([]ExerciseSet, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	var list []ExerciseSet
	for _, set := range tx.store.sets {
		if set.WorkoutExerciseID == workoutExerciseID {
			list = append(list, *set)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SetNumber != list[j].SetNumber {
			return list[i].SetNumber < list[j].SetNumber
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (tx *memTx) SaveExerciseSet(_ context.Context, set *ExerciseSet) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workoutExercises[set.WorkoutExerciseID]; !ok {
		return ErrNotFound
	}
	if set.ID == 0 {
		for _, existing := range s.sets {
			if existing.Key == set.Key {
				return ErrDuplicateKey
			}
		}
		set.ID = tx.nextID()
		set.CreatedAt = s.now()
	} else if _, ok := s.sets[set.ID]; !ok {
		return ErrNotFound
	}

	stored := *set
	stash(tx, s.sets, set.ID)
	s.sets[set.ID] = &stored
	return nil
}

func (tx *memTx) DeleteExerciseSet(_ context.Context, id int64) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[id]; !ok {
		return ErrNotFound
	}
	stash(tx, s.sets, id)
	delete(s.sets, id)
	return nil
}

func (tx *memTx) AppendSyncLog(_ context.Context, entries ...SyncLogEntry) error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.OwnerID = tx.owner.ID
		added[e.ID] = struct{}{}
		s.syncLog = append(s.syncLog, e)
	}
	tx.undo = append(tx.undo, func() {
		kept := s.syncLog[:0]
		for _, e := range s.syncLog {
			if _, ok := added[e.ID]; !ok {
				kept = append(kept, e)
			}
		}
		s.syncLog = kept
	})
	return nil
}
