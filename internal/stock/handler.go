package stock

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grainledger/grainledger/internal/platform/httpx"
)

// Handler exposes location state reads.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers stock routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/locations/{id}", h.locationState)
	r.Get("/reconcile", h.reconcile)
}

// locationState serves the current balance of one sub-location, or the
// balance as of a given date when as_of is set.
func (h *Handler) locationState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid sub-location ID")
		return
	}

	var state State
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		state, err = h.service.ComputeState(r.Context(), id, asOf)
		if err != nil {
			h.logger.Error("compute state failed", slog.Int64("sub_location", id), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	} else {
		state, err = h.service.CurrentState(r.Context(), id)
		if err != nil {
			h.logger.Error("current state failed", slog.Int64("sub_location", id), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, state)
}

func (h *Handler) reconcile(w http.ResponseWriter, r *http.Request) {
	drifts, err := h.service.Reconcile(r.Context())
	if err != nil {
		h.logger.Error("reconcile failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"drifts": drifts, "clean": len(drifts) == 0})
}
