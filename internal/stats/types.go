package stats

import (
	"time"

	"github.com/2beens/gymrpg/internal/progression"
)

type OwnerSummary struct {
	Key      string                `json:"key"`
	Username string                `json:"username"`
	Level    progression.LevelData `json:"level"`
}

type BestLift struct {
	Value        float64 `json:"value"`
	ExerciseKey  string  `json:"exercise_key"`
	ExerciseName string  `json:"exercise_name"`
}

type DashboardStats struct {
	TotalWorkouts     int       `json:"total_workouts"`
	TotalVolume       float64   `json:"total_volume"`
	WorkoutsThisMonth int       `json:"workouts_this_month"`
	BestEstimatedMax  *BestLift `json:"best_estimated_max"`
	CurrentStreak     int       `json:"current_streak"`
	Strength          int       `json:"strength"`
	Endurance         int       `json:"endurance"`
	DeloadRecommended bool      `json:"deload_recommended"`
}

type Dashboard struct {
	Owner OwnerSummary   `json:"owner"`
	Stats DashboardStats `json:"stats"`
}

type ExerciseRef struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type SessionSet struct {
	SetNumber      int     `json:"set_number"`
	Weight         float64 `json:"weight"`
	Reps           int     `json:"reps"`
	Volume         float64 `json:"volume"`
	EstimatedMax   float64 `json:"estimated_max"`
	PersonalRecord bool    `json:"is_pr"`
}

// Session is one completed workout as seen from a single exercise.
type Session struct {
	WorkoutKey       string       `json:"workout_key"`
	Date             time.Time    `json:"date"`
	TotalVolume      float64      `json:"total_volume"`
	BestEstimatedMax *float64     `json:"best_estimated_max"`
	TotalSets        int          `json:"total_sets"`
	Sets             []SessionSet `json:"sets"`
}

type Trends struct {
	VolumeImprovementPercent   float64 `json:"volume_improvement_percent"`
	StrengthImprovementPercent float64 `json:"strength_improvement_percent"`
}

type ExerciseProgression struct {
	Exercise      ExerciseRef `json:"exercise"`
	TotalSessions int         `json:"total_sessions"`
	Sessions      []Session   `json:"progression"`
	Trends        Trends      `json:"trends"`
}

type RecommendationType string

const (
	RecommendationDeload    RecommendationType = "deload"
	RecommendationFrequency RecommendationType = "frequency"
	RecommendationVariety   RecommendationType = "variety"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Priority    Priority           `json:"priority"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	ExerciseKey string             `json:"exercise_key,omitempty"`
}

type PersonalRecord struct {
	ExerciseKey  string    `json:"exercise_key"`
	ExerciseName string    `json:"exercise_name"`
	WorkoutKey   string    `json:"workout_key"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	EstimatedMax float64   `json:"estimated_max"`
	Date         time.Time `json:"date"`
}

type PersonalRecords struct {
	Total   int              `json:"total_prs"`
	Records []PersonalRecord `json:"records"`
}
