package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type revoker interface {
	Revoke(ctx context.Context, claims *Claims, now time.Time) error
}

type Handler struct {
	revoker revoker
}

func NewHandler(revoker revoker) *Handler {
	return &Handler{
		revoker: revoker,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/auth/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
}

// HandleLogout revokes the token the request was authenticated with.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		pkg.WriteJSONError(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := h.revoker.Revoke(ctx, claims, time.Now()); err != nil {
		log.Errorf("logout owner [%s]: %s", claims.OwnerKey, err)
		pkg.WriteJSONError(w, "logout failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("owner [%s] logged out", claims.OwnerKey)
	pkg.WriteJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}
