package progression

import "math"

// Goal is the training goal a rest period is suggested for.
type Goal string

const (
	GoalStrength    Goal = "strength"
	GoalHypertrophy Goal = "hypertrophy"
	GoalEndurance   Goal = "endurance"
	GoalCardio      Goal = "cardio"
)

// Equipment decides the smallest sensible load increment.
type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentMachine    Equipment = "machine"
	EquipmentBodyweight Equipment = "bodyweight"
)

const (
	RationaleProgressiveOverload = "progressive overload"
	RationaleLowExertion         = "low exertion, increase load"
	RationaleHighExertion        = "high exertion, consolidate"
)

const (
	defaultRestSeconds    = 90
	minRestSeconds        = 30
	defaultWeightIncrease = 2.5

	deloadWindow = 3
	deloadFactor = 0.85
)

var restPresets = map[Goal]int{
	GoalStrength:    180,
	GoalHypertrophy: 90,
	GoalEndurance:   60,
	GoalCardio:      30,
}

var weightIncrements = map[Equipment]float64{
	EquipmentBarbell:    2.5,
	EquipmentDumbbell:   2.0,
	EquipmentMachine:    5.0,
	EquipmentBodyweight: 1.0,
}

// ShouldDeload looks at the total volumes of the most recent completed workouts,
// oldest first, and recommends a deload when volume dropped in at least two
// of the consecutive comparisons. Only the last three points are considered.
func ShouldDeload(volumes []float64) bool {
	if len(volumes) < deloadWindow {
		return false
	}
	recent := volumes[len(volumes)-deloadWindow:]

	decreases := 0
	for i := 1; i < len(recent); i++ {
		if recent[i] < recent[i-1] {
			decreases++
		}
	}
	return decreases >= 2
}

// DeloadWeight is the load to use for a deload week, 85% rounded down.
func DeloadWeight(weight float64) float64 {
	return math.Floor(weight * deloadFactor)
}

// SuggestRest returns the rest in seconds after a set, adjusted by perceived exertion.
func SuggestRest(goal Goal, rpe *float64) int {
	rest, ok := restPresets[goal]
	if !ok {
		rest = defaultRestSeconds
	}

	if rpe != nil {
		switch {
		case *rpe >= 9:
			rest += 30
		case *rpe <= 6:
			rest -= 15
		}
	}

	if rest < minRestSeconds {
		return minRestSeconds
	}
	return rest
}

// LastSet is the reference set a next-set suggestion is built from.
type LastSet struct {
	Weight float64
	Reps   int
	RPE    *float64
}

type Suggestion struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Rationale string  `json:"rationale"`
}

// WeightIncrement for the equipment type, 2.5 when unknown.
func WeightIncrement(equipment Equipment) float64 {
	if inc, ok := weightIncrements[equipment]; ok {
		return inc
	}
	return defaultWeightIncrease
}

// SuggestNextSet applies progressive overload to the last set.
func SuggestNextSet(last LastSet, equipment Equipment) Suggestion {
	increment := WeightIncrement(equipment)

	if last.RPE != nil {
		if *last.RPE < 7 {
			return Suggestion{
				Weight:    last.Weight + increment,
				Reps:      last.Reps,
				Rationale: RationaleLowExertion,
			}
		}
		if *last.RPE > 8.5 {
			return Suggestion{
				Weight:    last.Weight,
				Reps:      last.Reps,
				Rationale: RationaleHighExertion,
			}
		}
	}

	return Suggestion{
		Weight:    last.Weight + increment,
		Reps:      last.Reps,
		Rationale: RationaleProgressiveOverload,
	}
}
