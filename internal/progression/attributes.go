package progression

import (
	"math"
	"sort"
	"time"
)

const (
	attributeCap          = 999
	strengthScale         = 2
	enduranceVolumeUnit   = 100
	minutesPerSetEstimate = 2
)

// StrengthStat is derived from the best estimated one-rep max over strength exercises,
// scaled onto 0..999.
func StrengthStat(bestEstimatedMaxes []float64) int {
	best := 0.0
	for _, m := range bestEstimatedMaxes {
		best = math.Max(best, m)
	}
	return min(int(best*strengthScale), attributeCap)
}

// EnduranceStat is derived from the total lifted volume, scaled onto 0..999.
func EnduranceStat(workoutVolumes []float64) int {
	total := 0.0
	for _, v := range workoutVolumes {
		total += v
	}
	return min(int(total/enduranceVolumeUnit), attributeCap)
}

// EstimateDurationMinutes gives a rough workout length, two minutes per set including rest.
func EstimateDurationMinutes(totalSets int) int {
	return totalSets * minutesPerSetEstimate
}

// WorkoutStreak counts consecutive workouts walking back in time from now,
// as long as no more than one day separates each workout from the previous one.
func WorkoutStreak(dates []time.Time, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].After(sorted[j])
	})

	streak := 0
	current := truncateDay(now)
	for _, d := range sorted {
		day := truncateDay(d)
		if current.Sub(day) > 24*time.Hour {
			break
		}
		streak++
		current = day
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
