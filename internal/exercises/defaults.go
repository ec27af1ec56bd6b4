package exercises

import "github.com/2beens/gymrpg/internal/training"

func global(key, name, category, muscleGroup string, statType training.StatType, multiplier float64) training.Exercise {
	return training.Exercise{
		Key:                  key,
		Name:                 name,
		Category:             category,
		MuscleGroup:          muscleGroup,
		StatType:             statType,
		ExperienceMultiplier: multiplier,
	}
}

// DefaultCatalog is the set of global exercises every owner can log against.
// Compound barbell lifts award more experience than isolation work.
func DefaultCatalog() []training.Exercise {
	strength, endurance := training.StatStrength, training.StatEndurance
	return []training.Exercise{
		// push
		global("ex-bench-press", "Bench Press", "push", "chest", strength, 1.5),
		global("ex-incline-bench", "Incline Bench Press", "push", "chest", strength, 1.3),
		global("ex-dumbbell-press", "Dumbbell Press", "push", "chest", strength, 1.2),
		global("ex-overhead-press", "Overhead Press", "push", "shoulders", strength, 1.4),
		global("ex-dips", "Dips", "push", "triceps", strength, 1.3),
		global("ex-pushups", "Push-ups", "push", "chest", endurance, 0.7),

		// pull
		global("ex-deadlift", "Deadlift", "pull", "back", strength, 2.0),
		global("ex-barbell-row", "Barbell Row", "pull", "back", strength, 1.4),
		global("ex-pullups", "Pull-ups", "pull", "back", strength, 1.5),
		global("ex-lat-pulldown", "Lat Pulldown", "pull", "back", strength, 1.2),
		global("ex-barbell-curl", "Barbell Curl", "pull", "biceps", strength, 0.9),

		// legs
		global("ex-squat", "Back Squat", "legs", "quads", strength, 1.8),
		global("ex-leg-press", "Leg Press", "legs", "quads", strength, 1.3),
		global("ex-romanian-deadlift", "Romanian Deadlift", "legs", "hamstrings", strength, 1.5),
		global("ex-lunges", "Lunges", "legs", "quads", endurance, 1.0),

		// core
		global("ex-plank", "Plank", "core", "abs", endurance, 0.5),
		global("ex-hanging-leg-raise", "Hanging Leg Raise", "core", "abs", strength, 1.0),

		// cardio
		global("ex-running", "Running", "cardio", "full-body", endurance, 0.5),
	}
}
