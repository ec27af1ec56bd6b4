package exercises

import (
	"net/http"

	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(catalog *Catalog) *Handler {
	return &Handler{
		catalog: catalog,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/exercises", h.HandleList).Methods("GET", "OPTIONS").Name("exercises")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	catalog, err := h.catalog.JSON(ctx)
	if err != nil {
		log.Errorf("exercise catalog: %s", err)
		pkg.WriteJSONError(w, "failed to list exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, catalog, http.StatusOK)
}
