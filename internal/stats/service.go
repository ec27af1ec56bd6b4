package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

var ErrExerciseNotFound = errors.New("exercise not found")

const (
	recentWorkoutsWindow = 5
	deloadWorkoutsWindow = 3
	inactiveDaysNudge    = 5
)

// Service answers the read-only statistics queries of an owner. Every query runs
// in the owner's unit of work so it never observes a half applied sync push.
type Service struct {
	store training.Store
	now   func() time.Time
}

func NewService(store training.Store) *Service {
	return &Service{
		store: store,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func completedOnly(workouts []training.Workout) []training.Workout {
	var completed []training.Workout
	for _, w := range workouts {
		if w.Completed {
			completed = append(completed, w)
		}
	}
	return completed
}

// deloadRecommended looks at the most recent completed workouts, given most recent first.
func deloadRecommended(completedDesc []training.Workout) bool {
	n := min(len(completedDesc), deloadWorkoutsWindow)
	volumes := make([]float64, 0, n)
	for i := n - 1; i >= 0; i-- {
		volumes = append(volumes, completedDesc[i].TotalVolume)
	}
	return progression.ShouldDeload(volumes)
}

// exerciseCache resolves exercises by ID once per query.
type exerciseCache struct {
	tx        training.Tx
	exercises map[int64]*training.Exercise
}

func newExerciseCache(tx training.Tx) *exerciseCache {
	return &exerciseCache{tx: tx, exercises: make(map[int64]*training.Exercise)}
}

func (c *exerciseCache) get(ctx context.Context, id int64) (*training.Exercise, error) {
	if e, ok := c.exercises[id]; ok {
		return e, nil
	}
	e, err := c.tx.ExerciseByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exercise %d: %w", id, err)
	}
	c.exercises[id] = e
	return e, nil
}

func (s *Service) Dashboard(ctx context.Context, ownerKey string) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.dashboard")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var dashboard *Dashboard
	err = s.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		owner := tx.Owner()
		workouts, err := tx.Workouts(ctx)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}
		completed := completedOnly(workouts)

		now := s.now()
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		stats := DashboardStats{
			TotalWorkouts:     len(completed),
			DeloadRecommended: deloadRecommended(completed),
		}
		volumes := make([]float64, 0, len(completed))
		dates := make([]time.Time, 0, len(completed))
		for _, w := range completed {
			stats.TotalVolume += w.TotalVolume
			volumes = append(volumes, w.TotalVolume)
			dates = append(dates, w.Date)
			if !w.Date.Before(startOfMonth) {
				stats.WorkoutsThisMonth++
			}
		}
		stats.TotalVolume = round(stats.TotalVolume, 2)
		stats.CurrentStreak = progression.WorkoutStreak(dates, now)
		stats.Endurance = progression.EnduranceStat(volumes)

		exercises := newExerciseCache(tx)
		var strengthMaxes []float64
		for _, w := range workouts {
			wes, err := tx.WorkoutExercises(ctx, w.ID)
			if err != nil {
				return fmt.Errorf("list exercises of workout %d: %w", w.ID, err)
			}
			for _, we := range wes {
				if we.BestEstimatedMax == nil {
					continue
				}
				exercise, err := exercises.get(ctx, we.ExerciseID)
				if err != nil {
					return err
				}
				if exercise.StatType == training.StatStrength {
					strengthMaxes = append(strengthMaxes, *we.BestEstimatedMax)
				}
				if stats.BestEstimatedMax == nil || *we.BestEstimatedMax > stats.BestEstimatedMax.Value {
					stats.BestEstimatedMax = &BestLift{
						Value:        *we.BestEstimatedMax,
						ExerciseKey:  exercise.Key,
						ExerciseName: exercise.Name,
					}
				}
			}
		}
		if stats.BestEstimatedMax != nil {
			stats.BestEstimatedMax.Value = round(stats.BestEstimatedMax.Value, 2)
		}
		stats.Strength = progression.StrengthStat(strengthMaxes)

		dashboard = &Dashboard{
			Owner: OwnerSummary{
				Key:      owner.Key,
				Username: owner.Username,
				Level:    progression.LevelFor(owner.TotalExperience),
			},
			Stats: stats,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}

// Progression lists every completed session of the exercise, oldest first.
func (s *Service) Progression(ctx context.Context, ownerKey, exerciseKey string) (_ *ExerciseProgression, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.progression")
	span.SetAttributes(attribute.String("exercise", exerciseKey))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var result *ExerciseProgression
	err = s.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		exercise, err := tx.ExerciseByKey(ctx, exerciseKey)
		if errors.Is(err, training.ErrNotFound) {
			return ErrExerciseNotFound
		}
		if err != nil {
			return fmt.Errorf("get exercise: %w", err)
		}
		if !exercise.IsGlobal() && !exercise.OwnedBy(tx.Owner().ID) {
			return ErrExerciseNotFound
		}

		wes, err := tx.WorkoutExercisesByExercise(ctx, exercise.ID)
		if err != nil {
			return fmt.Errorf("list workout exercises: %w", err)
		}

		workouts := make(map[int64]*training.Workout)
		sessions := make([]Session, 0, len(wes))
		for _, we := range wes {
			workout, ok := workouts[we.WorkoutID]
			if !ok {
				workout, err = tx.WorkoutByID(ctx, we.WorkoutID)
				if err != nil {
					return fmt.Errorf("get workout %d: %w", we.WorkoutID, err)
				}
				workouts[we.WorkoutID] = workout
			}
			if !workout.Completed {
				continue
			}

			sets, err := tx.ExerciseSets(ctx, we.ID)
			if err != nil {
				return fmt.Errorf("list sets: %w", err)
			}
			session := Session{
				WorkoutKey:       workout.Key,
				Date:             workout.Date,
				TotalVolume:      we.TotalVolume,
				BestEstimatedMax: we.BestEstimatedMax,
				TotalSets:        we.TotalSets,
				Sets:             []SessionSet{},
			}
			for _, set := range sets {
				if set.Warmup {
					continue
				}
				session.Sets = append(session.Sets, SessionSet{
					SetNumber:      set.SetNumber,
					Weight:         set.Weight,
					Reps:           set.Reps,
					Volume:         set.Volume,
					EstimatedMax:   set.EstimatedMax,
					PersonalRecord: set.PersonalRecord,
				})
			}
			sessions = append(sessions, session)
		}

		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].Date.Before(sessions[j].Date)
		})

		result = &ExerciseProgression{
			Exercise: ExerciseRef{
				Key:      exercise.Key,
				Name:     exercise.Name,
				Category: exercise.Category,
			},
			TotalSessions: len(sessions),
			Sessions:      sessions,
			Trends:        trendsOf(sessions),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func improvementPercent(first, last float64) float64 {
	if first <= 0 {
		return 0
	}
	return round((last-first)/first*100, 1)
}

func trendsOf(sessions []Session) Trends {
	if len(sessions) < 2 {
		return Trends{}
	}
	first, last := sessions[0], sessions[len(sessions)-1]
	maxOf := func(s Session) float64 {
		if s.BestEstimatedMax == nil {
			return 0
		}
		return *s.BestEstimatedMax
	}
	return Trends{
		VolumeImprovementPercent:   improvementPercent(first.TotalVolume, last.TotalVolume),
		StrengthImprovementPercent: improvementPercent(maxOf(first), maxOf(last)),
	}
}

func (s *Service) Recommendations(ctx context.Context, ownerKey string) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.recommendations")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	recommendations := []Recommendation{}
	err = s.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		workouts, err := tx.Workouts(ctx)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}
		recent := completedOnly(workouts)
		if len(recent) > recentWorkoutsWindow {
			recent = recent[:recentWorkoutsWindow]
		}

		if deloadRecommended(recent) {
			recommendations = append(recommendations, Recommendation{
				Type:        RecommendationDeload,
				Priority:    PriorityHigh,
				Title:       "Deload recommended",
				Description: "Your volume is dropping. Reduce the loads by 15% this week.",
			})
		}

		if len(recent) > 0 {
			daysSinceLast := int(s.now().Sub(recent[0].Date).Hours() / 24)
			if daysSinceLast > inactiveDaysNudge {
				recommendations = append(recommendations, Recommendation{
					Type:        RecommendationFrequency,
					Priority:    PriorityMedium,
					Title:       "Time to train!",
					Description: fmt.Sprintf("Your last workout was %d days ago.", daysSinceLast),
				})
			}
		}

		recentExercises := make(map[int64]bool)
		for _, w := range recent {
			wes, err := tx.WorkoutExercises(ctx, w.ID)
			if err != nil {
				return fmt.Errorf("list exercises of workout %d: %w", w.ID, err)
			}
			for _, we := range wes {
				recentExercises[we.ExerciseID] = true
			}
		}

		available, err := tx.ExercisesForOwner(ctx)
		if err != nil {
			return fmt.Errorf("list exercises: %w", err)
		}
		for _, e := range available {
			if e.Archived || recentExercises[e.ID] {
				continue
			}
			recommendations = append(recommendations, Recommendation{
				Type:        RecommendationVariety,
				Priority:    PriorityLow,
				Title:       "Mix it up",
				Description: fmt.Sprintf("Try %q in your next workout.", e.Name),
				ExerciseKey: e.Key,
			})
			break
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return recommendations, nil
}

// PersonalRecords lists the sets flagged as records, most recent workout first.
func (s *Service) PersonalRecords(ctx context.Context, ownerKey string) (_ *PersonalRecords, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.personalrecords")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	records := &PersonalRecords{Records: []PersonalRecord{}}
	err = s.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		workouts, err := tx.Workouts(ctx)
		if err != nil {
			return fmt.Errorf("list workouts: %w", err)
		}

		exercises := newExerciseCache(tx)
		for _, w := range workouts {
			wes, err := tx.WorkoutExercises(ctx, w.ID)
			if err != nil {
				return fmt.Errorf("list exercises of workout %d: %w", w.ID, err)
			}
			for _, we := range wes {
				sets, err := tx.ExerciseSets(ctx, we.ID)
				if err != nil {
					return fmt.Errorf("list sets: %w", err)
				}
				for _, set := range sets {
					if !set.PersonalRecord {
						continue
					}
					exercise, err := exercises.get(ctx, we.ExerciseID)
					if err != nil {
						return err
					}
					records.Records = append(records.Records, PersonalRecord{
						ExerciseKey:  exercise.Key,
						ExerciseName: exercise.Name,
						WorkoutKey:   w.Key,
						Weight:       set.Weight,
						Reps:         set.Reps,
						EstimatedMax: round(set.EstimatedMax, 2),
						Date:         w.Date,
					})
				}
			}
		}
		records.Total = len(records.Records)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
