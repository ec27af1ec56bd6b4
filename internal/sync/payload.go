package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/training"
)

const (
	maxSetWeight            = 2000.0
	maxSetReps              = 1000
	maxExperienceMultiplier = 100.0
	// stored counters are 32 bit columns
	maxCounter = math.MaxInt32
)

type workoutPayload struct {
	Name             string   `json:"name"`
	WorkoutDate      string   `json:"workout_date"`
	DurationMinutes  *int     `json:"duration_minutes"`
	TotalVolume      *float64 `json:"total_volume"`
	ExperienceEarned *int     `json:"experience_earned"`
	Completed        bool     `json:"is_completed"`
	Notes            string   `json:"notes"`
}

type workoutExercisePayload struct {
	WorkoutKey       string   `json:"workout_key"`
	ExerciseKey      string   `json:"exercise_key"`
	OrderIndex       int      `json:"order_index"`
	TotalSets        int      `json:"total_sets"`
	TotalReps        int      `json:"total_reps"`
	TotalVolume      float64  `json:"total_volume"`
	BestEstimatedMax *float64 `json:"best_estimated_max"`
	Notes            string   `json:"notes"`
}

type exerciseSetPayload struct {
	WorkoutExerciseKey string   `json:"workout_exercise_key"`
	SetNumber          int      `json:"set_number"`
	Weight             float64  `json:"weight"`
	Reps               int      `json:"reps"`
	RPE                *float64 `json:"rpe"`
	Warmup             bool     `json:"is_warmup"`
	PersonalRecord     bool     `json:"is_pr"`
	RestSeconds        *int     `json:"rest_seconds"`
}

type exercisePayload struct {
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	MuscleGroup          string   `json:"muscle_group"`
	ExperienceMultiplier *float64 `json:"experience_multiplier"`
	StatType             string   `json:"stat_type"`
	Custom               *bool    `json:"is_custom"`
	Archived             bool     `json:"is_archived"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPayload, fmt.Sprintf(format, args...))
}

// decode rejects a missing data object, fields of the wrong type and text
// holding NUL characters.
func decode(data json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return invalid("missing data")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return invalid("%s", err)
	}
	if bytes.Contains(trimmed, escapedNUL) {
		var raw any
		if err := json.Unmarshal(trimmed, &raw); err == nil && containsNUL(raw) {
			return invalid("text must not contain NUL characters")
		}
	}
	return nil
}

func containsNUL(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.ContainsRune(t, 0)
	case []any:
		for _, e := range t {
			if containsNUL(e) {
				return true
			}
		}
	case map[string]any:
		for k, e := range t {
			if strings.ContainsRune(k, 0) || containsNUL(e) {
				return true
			}
		}
	}
	return false
}

func (p *workoutPayload) date() (time.Time, error) {
	if p.WorkoutDate == "" {
		return time.Time{}, invalid("workout_date is required")
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, p.WorkoutDate); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid("workout_date %q is not an ISO-8601 timestamp", p.WorkoutDate)
}

func (p *workoutPayload) validate() error {
	if p.DurationMinutes != nil && (*p.DurationMinutes < 0 || *p.DurationMinutes > maxCounter) {
		return invalid("duration_minutes must be between 0 and %d", maxCounter)
	}
	if p.ExperienceEarned != nil && (*p.ExperienceEarned < 0 || *p.ExperienceEarned > progression.MaxExperience) {
		return invalid("experience_earned must be between 0 and %d", progression.MaxExperience)
	}
	return nil
}

func (p *workoutExercisePayload) validate() error {
	if p.WorkoutKey == "" {
		return invalid("workout_key is required")
	}
	if p.ExerciseKey == "" {
		return invalid("exercise_key is required")
	}
	if p.OrderIndex < -maxCounter || p.OrderIndex > maxCounter {
		return invalid("order_index is out of range")
	}
	if p.TotalSets < -maxCounter || p.TotalSets > maxCounter || p.TotalReps < -maxCounter || p.TotalReps > maxCounter {
		return invalid("totals are out of range")
	}
	return nil
}

func (p *exerciseSetPayload) validate() error {
	if p.WorkoutExerciseKey == "" {
		return invalid("workout_exercise_key is required")
	}
	if p.SetNumber < 1 || p.SetNumber > maxCounter {
		return invalid("set_number must be between 1 and %d", maxCounter)
	}
	if p.Weight < 0 {
		return invalid("weight must not be negative")
	}
	if p.Weight > maxSetWeight {
		return invalid("weight must not exceed %g", maxSetWeight)
	}
	if p.Reps <= 0 {
		return invalid("reps must be positive")
	}
	if p.Reps > maxSetReps {
		return invalid("reps must not exceed %d", maxSetReps)
	}
	if p.RPE != nil && (*p.RPE < 6 || *p.RPE > 10) {
		return invalid("rpe must be between 6 and 10")
	}
	if p.RestSeconds != nil && (*p.RestSeconds < 0 || *p.RestSeconds > maxCounter) {
		return invalid("rest_seconds must be between 0 and %d", maxCounter)
	}
	return nil
}

func (p *exercisePayload) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name is required")
	}
	if p.ExperienceMultiplier != nil && *p.ExperienceMultiplier <= 0 {
		return invalid("experience_multiplier must be positive")
	}
	if p.ExperienceMultiplier != nil && *p.ExperienceMultiplier > maxExperienceMultiplier {
		return invalid("experience_multiplier must not exceed %g", maxExperienceMultiplier)
	}
	if p.StatType != "" && !training.StatType(p.StatType).IsValid() {
		return invalid("unknown stat_type %q", p.StatType)
	}
	return nil
}

func (p *exercisePayload) apply(e *training.Exercise) {
	e.Name = strings.TrimSpace(p.Name)
	e.Category = p.Category
	e.MuscleGroup = p.MuscleGroup
	e.ExperienceMultiplier = 1
	if p.ExperienceMultiplier != nil {
		e.ExperienceMultiplier = *p.ExperienceMultiplier
	}
	e.StatType = training.StatStrength
	if p.StatType != "" {
		e.StatType = training.StatType(p.StatType)
	}
	e.Custom = true
	if p.Custom != nil {
		e.Custom = *p.Custom
	}
	e.Archived = p.Archived
}
