// Package aggregation keeps the derived totals of workouts, workout exercises
// and sets consistent with the sets they are computed from.
package aggregation

import (
	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/training"
)

const defaultMultiplier = 1.0

// Totals of the working (non warm-up) sets of one workout exercise.
type Totals struct {
	Sets             int
	Reps             int
	Volume           float64
	BestEstimatedMax *float64
}

// DeriveSet overwrites the computed fields of a set from its weight and reps.
func DeriveSet(set *training.ExerciseSet) {
	set.Volume = progression.Volume(set.Weight, set.Reps)
	set.EstimatedMax = progression.EstimatedOneRepMax(set.Weight, set.Reps)
}

// SummarizeSets ignores warm-up sets entirely.
func SummarizeSets(sets []training.ExerciseSet) Totals {
	var t Totals
	for _, s := range sets {
		if s.Warmup {
			continue
		}
		t.Sets++
		t.Reps += s.Reps
		t.Volume += s.Volume
		if t.BestEstimatedMax == nil || s.EstimatedMax > *t.BestEstimatedMax {
			best := s.EstimatedMax
			t.BestEstimatedMax = &best
		}
	}
	return t
}

// WorkoutTotals sums the exercise volumes of a workout and the experience they
// award. multiplier returns ok=false for exercises it cannot resolve.
func WorkoutTotals(wes []training.WorkoutExercise, multiplier func(exerciseID int64) (float64, bool)) (float64, int) {
	volume := 0.0
	experience := 0
	for _, we := range wes {
		volume += we.TotalVolume
		m, ok := multiplier(we.ExerciseID)
		if !ok {
			m = defaultMultiplier
		}
		experience = progression.AddExperience(experience, progression.Experience(we.TotalVolume, m))
	}
	return volume, experience
}

// SessionRecords tracks the estimated maxes seen so far in one workout, per
// exercise. Sets must be fed in the order they were performed.
type SessionRecords struct {
	seen map[int64][]float64
}

func NewSessionRecords() *SessionRecords {
	return &SessionRecords{
		seen: make(map[int64][]float64),
	}
}

// Mark sets the personal record flag of the set and remembers its estimated max.
func (r *SessionRecords) Mark(exerciseID int64, set *training.ExerciseSet) {
	if set.Warmup {
		set.PersonalRecord = false
		return
	}
	previous := r.seen[exerciseID]
	set.PersonalRecord = progression.IsPersonalRecord(set.EstimatedMax, previous)
	r.seen[exerciseID] = append(previous, set.EstimatedMax)
}
