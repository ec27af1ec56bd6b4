package progression

import "math"

const (
	MaxLevel = 100

	experienceBase     = 100
	experienceExponent = 1.5
)

// LevelData describes where a cumulative experience total sits on the level curve.
type LevelData struct {
	Level                  int     `json:"level"`
	TotalExperience        int     `json:"total_experience"`
	ExperienceIntoLevel    int     `json:"experience_into_level"`
	ExperienceForNextLevel int     `json:"experience_for_next_level"`
	Progress               float64 `json:"progress"`
}

// ExperienceForLevel returns the cumulative experience needed to reach level.
func ExperienceForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(experienceBase * math.Pow(float64(level), experienceExponent)))
}

// LevelFor finds the highest level (capped at MaxLevel) reachable with totalExperience.
func LevelFor(totalExperience int) LevelData {
	level := 1
	for level < MaxLevel && totalExperience >= ExperienceForLevel(level+1) {
		level++
	}

	data := LevelData{
		Level:               level,
		TotalExperience:     totalExperience,
		ExperienceIntoLevel: totalExperience - ExperienceForLevel(level),
	}

	if level == MaxLevel {
		data.Progress = 100
		return data
	}

	data.ExperienceForNextLevel = ExperienceForLevel(level+1) - ExperienceForLevel(level)
	progress := float64(data.ExperienceIntoLevel) / float64(data.ExperienceForNextLevel) * 100
	data.Progress = math.Max(0, math.Min(progress, 100))

	return data
}
