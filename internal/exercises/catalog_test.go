package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/gymrpg/internal/training"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	*training.MemoryStore
	calls int
	err   error
}

func (s *countingSource) GlobalExercises(ctx context.Context) ([]training.Exercise, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.GlobalExercises(ctx)
}

func TestDefaultCatalog(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range DefaultCatalog() {
		assert.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
		assert.LessOrEqual(t, len(e.Key), 64)
		assert.True(t, e.StatType.IsValid(), e.Key)
		assert.Greater(t, e.ExperienceMultiplier, 0.0, e.Key)
		assert.Nil(t, e.OwnerID)
	}
	assert.Len(t, seen, 18)
}

func TestCatalog_SeedAndCache(t *testing.T) {
	ctx := context.Background()
	source := &countingSource{MemoryStore: training.NewMemoryStore()}
	catalog := NewCatalog(source, time.Minute, 1024*1024)

	added, err := catalog.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 18, added)

	// seeding again adds nothing
	added, err = catalog.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	first, err := catalog.JSON(ctx)
	require.NoError(t, err)
	second, err := catalog.JSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)

	var resp CatalogResponse
	require.NoError(t, json.Unmarshal(first, &resp))
	assert.Equal(t, 18, resp.Total)
	require.Len(t, resp.Exercises, 18)
	// sorted by name
	assert.Equal(t, "Back Squat", resp.Exercises[0].Name)

	catalog.Invalidate()
	_, err = catalog.JSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCatalog_SkipsArchived(t *testing.T) {
	ctx := context.Background()
	store := training.NewMemoryStore()
	_, err := store.SeedExercises(ctx, []training.Exercise{
		{Key: "ex-a", Name: "A", StatType: training.StatStrength, ExperienceMultiplier: 1},
		{Key: "ex-b", Name: "B", StatType: training.StatStrength, ExperienceMultiplier: 1, Archived: true},
	})
	require.NoError(t, err)

	encoded, err := NewCatalog(store, time.Minute, 1024*1024).JSON(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exercises":[{"key":"ex-a","name":"A","category":"","muscle_group":"","stat_type":"strength","experience_multiplier":1}],"total":1}`, string(encoded))
}

func TestHandler_HandleList(t *testing.T) {
	source := &countingSource{MemoryStore: training.NewMemoryStore()}
	catalog := NewCatalog(source, time.Minute, 1024*1024)
	_, err := catalog.Seed(context.Background())
	require.NoError(t, err)

	r := mux.NewRouter()
	NewHandler(catalog).SetupRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exercises", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"key":"ex-deadlift"`)

	source.err = errors.New("db down")
	catalog.Invalidate()
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exercises", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
