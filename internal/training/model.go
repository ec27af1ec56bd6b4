package training

import "time"

// StatType tells which RPG attribute an exercise feeds.
type StatType string

const (
	StatStrength  StatType = "strength"
	StatEndurance StatType = "endurance"
)

func (st StatType) IsValid() bool {
	switch st {
	case StatStrength, StatEndurance:
		return true
	default:
		return false
	}
}

type User struct {
	ID              int64
	Key             string
	Username        string
	Email           string
	PasswordHash    string
	TotalExperience int
	Level           int
	LastSyncAt      *time.Time
	CreatedAt       time.Time
}

// Exercise is either global (OwnerID == nil), shared by everyone and only
// seeded server side, or personal to its owner.
type Exercise struct {
	ID                   int64
	Key                  string
	OwnerID              *int64
	Name                 string
	Category             string
	MuscleGroup          string
	ExperienceMultiplier float64
	StatType             StatType
	Custom               bool
	Archived             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (e *Exercise) IsGlobal() bool {
	return e.OwnerID == nil
}

// OwnedBy reports whether the exercise is personal to the given owner.
func (e *Exercise) OwnedBy(ownerID int64) bool {
	return e.OwnerID != nil && *e.OwnerID == ownerID
}

// Workout totals (TotalVolume, ExperienceEarned) are derived from its exercises
// and sets; values coming from a client are only kept until the next recompute.
type Workout struct {
	ID               int64
	Key              string
	OwnerID          int64
	Name             string
	Date             time.Time
	DurationMinutes  *int
	TotalVolume      float64
	ExperienceEarned int
	Completed        bool
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type WorkoutExercise struct {
	ID               int64
	Key              string
	WorkoutID        int64
	ExerciseID       int64
	OrderIndex       int
	TotalSets        int
	TotalReps        int
	TotalVolume      float64
	BestEstimatedMax *float64
	Notes            string
	CreatedAt        time.Time
}

type ExerciseSet struct {
	ID                int64
	Key               string
	WorkoutExerciseID int64
	SetNumber         int
	Weight            float64
	Reps              int
	RPE               *float64
	Volume            float64
	EstimatedMax      float64
	Warmup            bool
	PersonalRecord    bool
	RestSeconds       *int
	CreatedAt         time.Time
}

// SyncLogEntry records the outcome of one pushed change.
type SyncLogEntry struct {
	ID         string
	OwnerID    int64
	EntityType string
	EntityKey  string
	Action     string
	Status     string
	Error      string
	Payload    []byte
	SyncedAt   time.Time
}
