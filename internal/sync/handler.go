package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sync_test

type reconciler interface {
	Push(ctx context.Context, ownerKey string, changes []Change) (*PushResult, error)
	Pull(ctx context.Context, ownerKey string) (*PullResult, error)
}

type Handler struct {
	reconciler   reconciler
	maxBodyBytes int64
}

func NewHandler(reconciler reconciler, maxBodyBytes int64) *Handler {
	return &Handler{
		reconciler:   reconciler,
		maxBodyBytes: maxBodyBytes,
	}
}

// SetupRoutes registers the sync routes; pushMiddleware only wraps the push
// route (e.g. rate limiting).
func (h *Handler) SetupRoutes(r *mux.Router, pushMiddleware ...mux.MiddlewareFunc) {
	var push http.Handler = http.HandlerFunc(h.HandlePush)
	for i := len(pushMiddleware) - 1; i >= 0; i-- {
		push = pushMiddleware[i](push)
	}
	r.Handle("/sync/push", push).Methods("POST", "OPTIONS").Name("sync-push")
	r.HandleFunc("/sync/pull", h.HandlePull).Methods("GET", "OPTIONS").Name("sync-pull")
}

func (h *Handler) HandlePush(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sync.push")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req struct {
		Items *[]Change `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			pkg.WriteJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Debugf("sync push: decode body: %s", err)
		pkg.WriteJSONError(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.Items == nil {
		pkg.WriteJSONError(w, "missing items", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("items", len(*req.Items)))

	result, err := h.reconciler.Push(ctx, ownerKey, *req.Items)
	if err != nil {
		if errors.Is(err, training.ErrOwnerNotFound) {
			pkg.WriteJSONError(w, "owner not found", http.StatusNotFound)
			return
		}
		log.Errorf("sync push owner [%s]: %s", ownerKey, err)
		pkg.WriteJSONError(w, "sync failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) HandlePull(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sync.pull")
	defer span.End()

	ownerKey, ok := auth.OwnerKey(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	result, err := h.reconciler.Pull(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, training.ErrOwnerNotFound) {
			pkg.WriteJSONError(w, "owner not found", http.StatusNotFound)
			return
		}
		log.Errorf("sync pull owner [%s]: %s", ownerKey, err)
		pkg.WriteJSONError(w, "pull failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, result, http.StatusOK)
}
