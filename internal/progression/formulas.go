// Package progression holds the arithmetic behind workout progression:
// set volume, estimated one-rep max, experience, levels and the coaching
// heuristics. Nothing here touches storage or the network.
package progression

import "math"

const (
	// brzyckiMaxReps is the highest rep count the Brzycki estimate is applied to.
	// Above it the estimate drifts too far and the lifted weight is returned as is.
	brzyckiMaxReps = 12

	brzyckiA = 1.0278
	brzyckiB = 0.0278

	// MaxExperience is the most experience a workout or an owner can hold.
	// Sums saturate here instead of wrapping around.
	MaxExperience = math.MaxInt32
)

// Volume of a single set, weight × reps.
func Volume(weight float64, reps int) float64 {
	return weight * float64(reps)
}

// EstimatedOneRepMax estimates the one-rep max of a set using the Brzycki formula.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	if reps == 1 || reps > brzyckiMaxReps {
		return weight
	}
	return weight / (brzyckiA - brzyckiB*float64(reps))
}

// Experience awarded for the given volume, floor(volume × multiplier),
// bounded to [0, MaxExperience].
func Experience(volume, multiplier float64) int {
	xp := math.Floor(volume * multiplier)
	switch {
	case math.IsNaN(xp) || xp <= 0:
		return 0
	case xp >= MaxExperience:
		return MaxExperience
	}
	return int(xp)
}

// AddExperience adds two experience amounts, saturating at MaxExperience.
func AddExperience(a, b int) int {
	if b > MaxExperience-a {
		return MaxExperience
	}
	return a + b
}

// IsPersonalRecord reports whether estimatedMax meets or exceeds every other
// estimated max given. With nothing to compare against, any set is a record.
//
// The comparison scope is decided by the caller; today it is the sets of the
// same exercise within one workout.
func IsPersonalRecord(estimatedMax float64, others []float64) bool {
	for _, other := range others {
		if other > estimatedMax {
			return false
		}
	}
	return true
}
