package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/progression"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=stats_test

type service interface {
	Dashboard(ctx context.Context, ownerKey string) (*Dashboard, error)
	Progression(ctx context.Context, ownerKey, exerciseKey string) (*ExerciseProgression, error)
	Recommendations(ctx context.Context, ownerKey string) ([]Recommendation, error)
	PersonalRecords(ctx context.Context, ownerKey string) (*PersonalRecords, error)
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/stats/dashboard", h.HandleDashboard).Methods("GET", "OPTIONS").Name("stats-dashboard")
	r.HandleFunc("/stats/progression/{exerciseKey}", h.HandleProgression).Methods("GET", "OPTIONS").Name("stats-progression")
	r.HandleFunc("/stats/recommendations", h.HandleRecommendations).Methods("GET", "OPTIONS").Name("stats-recommendations")
	r.HandleFunc("/stats/personal-records", h.HandlePersonalRecords).Methods("GET", "OPTIONS").Name("stats-personal-records")
	r.HandleFunc("/coach/next-set", h.HandleNextSet).Methods("POST", "OPTIONS").Name("coach-next-set")
}

// writeServiceError maps a failed query onto a response.
func writeServiceError(w http.ResponseWriter, what string, err error) {
	switch {
	case errors.Is(err, training.ErrOwnerNotFound):
		pkg.WriteJSONError(w, "owner not found", http.StatusNotFound)
	case errors.Is(err, ErrExerciseNotFound):
		pkg.WriteJSONError(w, "exercise not found", http.StatusNotFound)
	default:
		log.Errorf("%s: %s", what, err)
		pkg.WriteJSONError(w, what+" failed", http.StatusInternalServerError)
	}
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.dashboard")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	dashboard, err := h.service.Dashboard(ctx, ownerKey)
	if err != nil {
		writeServiceError(w, "dashboard", err)
		return
	}

	pkg.WriteJSON(w, dashboard, http.StatusOK)
}

func (h *Handler) HandleProgression(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.progression")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	exerciseKey := mux.Vars(r)["exerciseKey"]
	if exerciseKey == "" {
		pkg.WriteJSONError(w, "missing exercise key", http.StatusBadRequest)
		return
	}

	progressionData, err := h.service.Progression(ctx, ownerKey, exerciseKey)
	if err != nil {
		writeServiceError(w, "progression", err)
		return
	}

	pkg.WriteJSON(w, progressionData, http.StatusOK)
}

func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.recommendations")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	recommendations, err := h.service.Recommendations(ctx, ownerKey)
	if err != nil {
		writeServiceError(w, "recommendations", err)
		return
	}

	pkg.WriteJSON(w, map[string]any{"recommendations": recommendations}, http.StatusOK)
}

func (h *Handler) HandlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.personalrecords")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	records, err := h.service.PersonalRecords(ctx, ownerKey)
	if err != nil {
		writeServiceError(w, "personal records", err)
		return
	}

	pkg.WriteJSON(w, records, http.StatusOK)
}

type NextSetRequest struct {
	Weight    float64               `json:"weight"`
	Reps      int                   `json:"reps"`
	RPE       *float64              `json:"rpe"`
	Equipment progression.Equipment `json:"equipment"`
	Goal      progression.Goal      `json:"goal"`
}

type NextSetResponse struct {
	Suggestion   progression.Suggestion `json:"suggestion"`
	RestSeconds  int                    `json:"rest_seconds"`
	DeloadWeight float64                `json:"deload_weight"`
}

func (h *Handler) HandleNextSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.nextset")
	defer span.End()

	var req NextSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("next set, unmarshal json params: %s", err)
		pkg.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Reps <= 0 || req.Weight < 0 {
		pkg.WriteJSONError(w, "weight must be >= 0 and reps > 0", http.StatusBadRequest)
		return
	}
	if req.RPE != nil && (*req.RPE < 6 || *req.RPE > 10) {
		pkg.WriteJSONError(w, "rpe must be between 6 and 10", http.StatusBadRequest)
		return
	}

	suggestion := progression.SuggestNextSet(progression.LastSet{
		Weight: req.Weight,
		Reps:   req.Reps,
		RPE:    req.RPE,
	}, req.Equipment)

	pkg.WriteJSON(w, NextSetResponse{
		Suggestion:   suggestion,
		RestSeconds:  progression.SuggestRest(req.Goal, req.RPE),
		DeloadWeight: progression.DeloadWeight(req.Weight),
	}, http.StatusOK)
}
