// Package exercises serves the global exercise catalog.
package exercises

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var catalogCacheKey = []byte("exercises::global")

type globalSource interface {
	GlobalExercises(ctx context.Context) ([]training.Exercise, error)
	SeedExercises(ctx context.Context, exercises []training.Exercise) (int, error)
}

type CatalogEntry struct {
	Key                  string            `json:"key"`
	Name                 string            `json:"name"`
	Category             string            `json:"category"`
	MuscleGroup          string            `json:"muscle_group"`
	StatType             training.StatType `json:"stat_type"`
	ExperienceMultiplier float64           `json:"experience_multiplier"`
}

type CatalogResponse struct {
	Exercises []CatalogEntry `json:"exercises"`
	Total     int            `json:"total"`
}

// Catalog caches the encoded list of global, non archived exercises.
type Catalog struct {
	source     globalSource
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCatalog(source globalSource, ttl time.Duration, cacheSizeBytes int) *Catalog {
	ttlSeconds := int(ttl.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	return &Catalog{
		source:     source,
		cache:      freecache.NewCache(cacheSizeBytes),
		ttlSeconds: ttlSeconds,
	}
}

// JSON returns the encoded catalog response.
func (c *Catalog) JSON(ctx context.Context) (_ []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "exercises.catalog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if cached, err := c.cache.Get(catalogCacheKey); err == nil {
		log.Tracef("exercise catalog served from cache")
		return cached, nil
	}

	exercises, err := c.source.GlobalExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list global exercises: %w", err)
	}

	resp := CatalogResponse{
		Exercises: make([]CatalogEntry, 0, len(exercises)),
	}
	for _, e := range exercises {
		if e.Archived {
			continue
		}
		resp.Exercises = append(resp.Exercises, CatalogEntry{
			Key:                  e.Key,
			Name:                 e.Name,
			Category:             e.Category,
			MuscleGroup:          e.MuscleGroup,
			StatType:             e.StatType,
			ExperienceMultiplier: e.ExperienceMultiplier,
		})
	}
	resp.Total = len(resp.Exercises)

	encoded, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}

	if err := c.cache.Set(catalogCacheKey, encoded, c.ttlSeconds); err != nil {
		log.Errorf("failed to cache exercise catalog: %s", err)
	}
	return encoded, nil
}

// Seed stores the default catalog and drops the cached copy when anything was added.
func (c *Catalog) Seed(ctx context.Context) (int, error) {
	added, err := c.source.SeedExercises(ctx, DefaultCatalog())
	if err != nil {
		return 0, fmt.Errorf("seed exercises: %w", err)
	}
	if added > 0 {
		c.Invalidate()
		log.Infof("seeded %d global exercises", added)
	}
	return added, nil
}

func (c *Catalog) Invalidate() {
	c.cache.Del(catalogCacheKey)
}
