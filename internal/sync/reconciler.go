// Package sync applies client change batches to the entity store and serves
// the full training tree back to clients.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/2beens/gymrpg/internal/aggregation"
	"github.com/2beens/gymrpg/internal/notify"
	"github.com/2beens/gymrpg/internal/stats"
	"github.com/2beens/gymrpg/internal/telemetry/metrics"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const levelUpPublishTimeout = 2 * time.Second

//go:generate mockgen -source=reconciler.go -destination=reconciler_mocks_test.go -package=sync

type eventPublisher interface {
	PublishLevelUp(ctx context.Context, event notify.LevelUp) error
}

type Reconciler struct {
	store        training.Store
	updater      *aggregation.Updater
	recalculator *stats.Recalculator
	publisher    eventPublisher
	metrics      *metrics.Manager
	now          func() time.Time

	publishTimeout time.Duration
}

func NewReconciler(
	store training.Store,
	publisher eventPublisher,
	metricsManager *metrics.Manager,
) *Reconciler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &Reconciler{
		store:        store,
		updater:      aggregation.NewUpdater(),
		recalculator: stats.NewRecalculator(),
		publisher:    publisher,
		metrics:      metricsManager,
		now: func() time.Time {
			return time.Now().UTC()
		},
		publishTimeout: levelUpPublishTimeout,
	}
}

// Push applies the changes in order within one unit of work of the owner.
// Item failures are reported in the result; only an unknown owner or a store
// failure outside of an item fails the whole push, leaving nothing applied.
func (r *Reconciler) Push(ctx context.Context, ownerKey string, changes []Change) (_ *PushResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sync.push")
	span.SetAttributes(
		attribute.String("owner", ownerKey),
		attribute.Int("items", len(changes)),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	start := time.Now()
	result := &PushResult{
		PerItemResults: make([]ItemResult, 0, len(changes)),
		Errors:         []ItemError{},
	}
	var recalculation stats.Recalculation

	err = r.store.RunInOwnerTx(ctx, ownerKey, func(ctx context.Context, tx training.Tx) error {
		// a retried transaction starts over
		result.PerItemResults = result.PerItemResults[:0]
		result.Errors = result.Errors[:0]
		result.SyncedCount, result.ErrorCount = 0, 0

		b := newBatch(tx)
		now := r.now()
		logEntries := make([]training.SyncLogEntry, 0, len(changes))

		for _, change := range changes {
			status, itemErr := r.applyOne(ctx, b, change)
			r.record(result, change, status, itemErr)
			logEntries = append(logEntries, syncLogEntry(change, status, itemErr, now))
		}

		for _, workoutID := range b.touched {
			if _, err := r.updater.RecomputeWorkout(ctx, tx, workoutID); err != nil {
				return fmt.Errorf("recompute workout %d: %w", workoutID, err)
			}
		}

		// advanced on every push, even when every item failed
		owner := tx.Owner()
		owner.LastSyncAt = &now
		if err := tx.SaveOwner(ctx, owner); err != nil {
			return fmt.Errorf("save owner: %w", err)
		}

		var err error
		recalculation, err = r.recalculator.Recalculate(ctx, tx)
		if err != nil {
			return fmt.Errorf("recalculate owner: %w", err)
		}

		if err := tx.AppendSyncLog(ctx, logEntries...); err != nil {
			return fmt.Errorf("append sync log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	owner := recalculation.Owner
	result.OwnerSnapshot = OwnerSnapshot{
		TotalExperience: owner.TotalExperience,
		Level:           owner.Level,
		LastSyncTime:    owner.LastSyncAt,
	}
	result.LeveledUp = recalculation.LeveledUp()
	if result.LeveledUp {
		r.announceLevelUp(ctx, recalculation)
	}

	r.observe(changes, result, time.Since(start))
	log.Debugf("sync push owner [%s]: %d items, %d synced, %d failed, level %d",
		ownerKey, len(changes), result.SyncedCount, result.ErrorCount, owner.Level)

	return result, nil
}

func (r *Reconciler) applyOne(ctx context.Context, b *batch, change Change) (Status, error) {
	if change.decodeErr != nil {
		return StatusFailed, change.decodeErr
	}
	if err := validateKey(change.EntityKey); err != nil {
		return StatusFailed, err
	}
	action, ok := change.Action.normalized()
	if !ok {
		return StatusFailed, fmt.Errorf("unknown action %q", change.Action)
	}

	var applied item
	err := b.tx.Isolate(ctx, func(ctx context.Context, tx training.Tx) error {
		var err error
		applied, err = b.apply(ctx, tx, change, action)
		return err
	})
	if err != nil {
		log.Debugf("sync item %s [%s] failed: %s", change.EntityType, change.EntityKey, err)
		return StatusFailed, err
	}

	b.touch(applied.touched...)
	return applied.status, nil
}

func (r *Reconciler) record(result *PushResult, change Change, status Status, itemErr error) {
	result.PerItemResults = append(result.PerItemResults, ItemResult{
		EntityKey: change.EntityKey,
		Status:    status,
	})
	switch status {
	case StatusSynced, StatusDeleted:
		result.SyncedCount++
	case StatusFailed:
		result.ErrorCount++
		result.Errors = append(result.Errors, ItemError{
			EntityKey: change.EntityKey,
			Message:   itemMessage(itemErr),
		})
	}
}

// itemMessage keeps the item error readable for clients; ownership details of
// other owners are not leaked.
func itemMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, training.ErrNotOwned):
		return "not owned"
	case errors.Is(err, training.ErrDuplicateKey):
		return "entity key already in use"
	default:
		return err.Error()
	}
}

func (r *Reconciler) announceLevelUp(ctx context.Context, recalculation stats.Recalculation) {
	owner := recalculation.Owner
	if r.metrics != nil {
		r.metrics.CounterLevelUps.Inc()
	}

	// the push is already committed: a client hanging up does not cancel the
	// event, a slow broker only delays the response by publishTimeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.publishTimeout)
	defer cancel()

	if err := r.publisher.PublishLevelUp(ctx, notify.LevelUp{
		OwnerKey:        owner.Key,
		Username:        owner.Username,
		PreviousLevel:   recalculation.PreviousLevel,
		Level:           recalculation.Level.Level,
		TotalExperience: owner.TotalExperience,
		OccurredAt:      r.now(),
	}); err != nil {
		log.Errorf("publish level up of owner [%s]: %s", owner.Key, err)
		if r.metrics != nil {
			r.metrics.CounterPublishFailures.Inc()
		}
	}
}

func (r *Reconciler) observe(changes []Change, result *PushResult, took time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.HistPushDuration.Observe(took.Seconds())
	r.metrics.HistPushBatchSize.Observe(float64(len(changes)))
	for i, change := range changes {
		r.metrics.CounterSyncItems.WithLabelValues(
			metricEntityType(change.EntityType),
			string(result.PerItemResults[i].Status),
		).Inc()
	}
}

// metricEntityType bounds the label cardinality to the known kinds.
func metricEntityType(et EntityType) string {
	switch et {
	case EntityWorkout, EntityWorkoutExercise, EntityExerciseSet, EntityExercise:
		return string(et)
	default:
		return "unknown"
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if len(key) > maxEntityKeyLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxEntityKeyLen)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidKey)
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: contains control characters", ErrInvalidKey)
	}
	return nil
}
