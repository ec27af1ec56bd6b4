package progression_test

import (
	"testing"
	"time"

	"github.com/2beens/gymrpg/internal/progression"

	"github.com/stretchr/testify/assert"
)

func rpe(v float64) *float64 {
	return &v
}

func TestShouldDeload(t *testing.T) {
	assert.True(t, progression.ShouldDeload([]float64{100, 90, 80}))
	assert.False(t, progression.ShouldDeload([]float64{100, 110, 120}))
	assert.False(t, progression.ShouldDeload([]float64{100, 90, 95}))
	assert.False(t, progression.ShouldDeload([]float64{100, 90}))
	assert.False(t, progression.ShouldDeload(nil))
	// only the three most recent volumes count
	assert.True(t, progression.ShouldDeload([]float64{50, 60, 100, 90, 80}))
	assert.False(t, progression.ShouldDeload([]float64{100, 90, 80, 85, 90}))
}

func TestDeloadWeight(t *testing.T) {
	assert.Equal(t, 85.0, progression.DeloadWeight(100))
	assert.Equal(t, 53.0, progression.DeloadWeight(62.5))
}

func TestSuggestRest(t *testing.T) {
	testCases := []struct {
		goal     progression.Goal
		rpe      *float64
		expected int
	}{
		{goal: progression.GoalStrength, expected: 180},
		{goal: progression.GoalStrength, rpe: rpe(9), expected: 210},
		{goal: progression.GoalStrength, rpe: rpe(6), expected: 165},
		{goal: progression.GoalHypertrophy, rpe: rpe(8), expected: 90},
		{goal: progression.GoalEndurance, rpe: rpe(10), expected: 90},
		{goal: progression.GoalCardio, expected: 30},
		{goal: progression.GoalCardio, rpe: rpe(6), expected: 30},
		{goal: "unknown", expected: 90},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, progression.SuggestRest(tc.goal, tc.rpe), "goal %s", tc.goal)
	}
}

func TestSuggestNextSet(t *testing.T) {
	s := progression.SuggestNextSet(progression.LastSet{Weight: 100, Reps: 5}, progression.EquipmentBarbell)
	assert.Equal(t, progression.Suggestion{Weight: 102.5, Reps: 5, Rationale: progression.RationaleProgressiveOverload}, s)

	s = progression.SuggestNextSet(progression.LastSet{Weight: 20, Reps: 10, RPE: rpe(6.5)}, progression.EquipmentDumbbell)
	assert.Equal(t, progression.Suggestion{Weight: 22, Reps: 10, Rationale: progression.RationaleLowExertion}, s)

	s = progression.SuggestNextSet(progression.LastSet{Weight: 80, Reps: 8, RPE: rpe(9)}, progression.EquipmentMachine)
	assert.Equal(t, progression.Suggestion{Weight: 80, Reps: 8, Rationale: progression.RationaleHighExertion}, s)

	s = progression.SuggestNextSet(progression.LastSet{Weight: 80, Reps: 8, RPE: rpe(8)}, progression.EquipmentMachine)
	assert.Equal(t, progression.Suggestion{Weight: 85, Reps: 8, Rationale: progression.RationaleProgressiveOverload}, s)

	s = progression.SuggestNextSet(progression.LastSet{Weight: 0, Reps: 12}, progression.EquipmentBodyweight)
	assert.Equal(t, 1.0, s.Weight)

	assert.Equal(t, 2.5, progression.WeightIncrement("kettlebell"))
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, 0, progression.StrengthStat(nil))
	assert.Equal(t, 250, progression.StrengthStat([]float64{90, 125.4}))
	assert.Equal(t, 999, progression.StrengthStat([]float64{700}))

	assert.Equal(t, 0, progression.EnduranceStat(nil))
	assert.Equal(t, 15, progression.EnduranceStat([]float64{1000, 550}))
	assert.Equal(t, 999, progression.EnduranceStat([]float64{200000}))

	assert.Equal(t, 24, progression.EstimateDurationMinutes(12))
}

func TestWorkoutStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 9, 30, 0, 0, time.UTC)
	}

	assert.Equal(t, 0, progression.WorkoutStreak(nil, now))
	assert.Equal(t, 3, progression.WorkoutStreak([]time.Time{day(8), day(10), day(9)}, now))
	assert.Equal(t, 2, progression.WorkoutStreak([]time.Time{day(9), day(8), day(5)}, now))
	assert.Equal(t, 0, progression.WorkoutStreak([]time.Time{day(7), day(6)}, now))
}
