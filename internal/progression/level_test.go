package progression_test

import (
	"testing"

	"github.com/2beens/gymrpg/internal/progression"

	"github.com/stretchr/testify/assert"
)

func TestExperienceForLevel(t *testing.T) {
	assert.Equal(t, 0, progression.ExperienceForLevel(0))
	assert.Equal(t, 0, progression.ExperienceForLevel(1))
	assert.Equal(t, 282, progression.ExperienceForLevel(2))
	assert.Equal(t, 519, progression.ExperienceForLevel(3))
	assert.Equal(t, 800, progression.ExperienceForLevel(4))

	for level := 2; level < progression.MaxLevel+5; level++ {
		assert.Greater(t, progression.ExperienceForLevel(level+1), progression.ExperienceForLevel(level))
	}
}

func TestLevelFor(t *testing.T) {
	testCases := []struct {
		name                   string
		experience             int
		expectedLevel          int
		expectedIntoLevel      int
		expectedForNextLevel   int
		expectedProgressApprox float64
	}{
		{
			name:                   "no experience",
			experience:             0,
			expectedLevel:          1,
			expectedIntoLevel:      0,
			expectedForNextLevel:   282,
			expectedProgressApprox: 0,
		},
		{
			name:                   "one completed workout",
			experience:             250,
			expectedLevel:          1,
			expectedIntoLevel:      250,
			expectedForNextLevel:   282,
			expectedProgressApprox: 88.65,
		},
		{
			name:                   "exactly level 2",
			experience:             282,
			expectedLevel:          2,
			expectedIntoLevel:      0,
			expectedForNextLevel:   237,
			expectedProgressApprox: 0,
		},
		{
			name:                   "inside level 3",
			experience:             600,
			expectedLevel:          3,
			expectedIntoLevel:      81,
			expectedForNextLevel:   281,
			expectedProgressApprox: 28.83,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := progression.LevelFor(tc.experience)
			assert.Equal(t, tc.expectedLevel, data.Level)
			assert.Equal(t, tc.experience, data.TotalExperience)
			assert.Equal(t, tc.expectedIntoLevel, data.ExperienceIntoLevel)
			assert.Equal(t, tc.expectedForNextLevel, data.ExperienceForNextLevel)
			assert.InDelta(t, tc.expectedProgressApprox, data.Progress, 0.01)
		})
	}
}

func TestLevelFor_Cap(t *testing.T) {
	capExperience := progression.ExperienceForLevel(progression.MaxLevel)

	data := progression.LevelFor(capExperience * 3)
	assert.Equal(t, progression.MaxLevel, data.Level)
	assert.Equal(t, 100.0, data.Progress)
	assert.Equal(t, 0, data.ExperienceForNextLevel)

	data = progression.LevelFor(capExperience - 1)
	assert.Equal(t, progression.MaxLevel-1, data.Level)
	assert.Less(t, data.Progress, 100.0)
}

func TestLevelFor_NegativeClamped(t *testing.T) {
	data := progression.LevelFor(-50)
	assert.Equal(t, 1, data.Level)
	assert.Equal(t, 0.0, data.Progress)
}
