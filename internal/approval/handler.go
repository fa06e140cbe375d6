package approval

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/grainledger/grainledger/internal/movement"
	"github.com/grainledger/grainledger/internal/platform/httpx"
	"github.com/grainledger/grainledger/internal/shared"
)

// Handler wires JSON endpoints for the approval workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers approval routes. Bulk approval gets a tighter rate
// limit since one request can lock many rows.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Get("/{id}/history", h.history)
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/bulk-approve", h.bulkApprove)
	})
}

type resultResponse struct {
	MovementID   int64   `json:"movement_id"`
	Status       string  `json:"status,omitempty"`
	SnapshotRate float64 `json:"snapshot_rate,omitempty"`
	Error        string  `json:"error,omitempty"`
	Retryable    bool    `json:"retryable,omitempty"`
}

func toResponse(result Result) resultResponse {
	resp := resultResponse{
		MovementID:   result.MovementID,
		Status:       string(result.Status),
		SnapshotRate: result.SnapshotRate,
		Retryable:    result.Retryable,
	}
	if result.Err != nil {
		resp.Error = shared.UserSafeMessage(normalize(result.Err))
	}
	return resp
}

// normalize maps package sentinels onto the shared ones UserSafeMessage knows.
func normalize(err error) error {
	switch {
	case errors.Is(err, movement.ErrNotFound):
		return shared.ErrNotFound
	case errors.Is(err, movement.ErrInvalidState):
		return shared.ErrInvalidState
	case errors.Is(err, ErrConcurrentUpdate):
		return shared.ErrConflict
	default:
		return err
	}
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor headers missing")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement ID")
		return
	}

	result := h.service.Approve(r.Context(), id, actor)
	if !result.OK() {
		h.respondResultError(w, result)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(result))
}

type rejectRequest struct {
	Note string `json:"note" validate:"required"`
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor headers missing")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement ID")
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "rejection note required")
		return
	}

	result := h.service.Reject(r.Context(), id, actor, req.Note)
	if !result.OK() {
		h.respondResultError(w, result)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(result))
}

type bulkApproveRequest struct {
	MovementIDs  []int64 `json:"movement_ids" validate:"required,min=1,max=100,dive,gt=0"`
	AllOrNothing bool    `json:"all_or_nothing"`
}

func (h *Handler) bulkApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor headers missing")
		return
	}
	var req bulkApproveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "movement_ids must name 1 to 100 positive ids")
		return
	}

	results, err := h.service.BulkApprove(r.Context(), req.MovementIDs, actor, req.AllOrNothing)
	if err != nil {
		if errors.Is(err, ErrEmptyBatch) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("bulk approve failed", slog.Any("error", err))
		httpx.RespondError(w, normalize(err))
		return
	}

	responses := make([]resultResponse, 0, len(results))
	approved := 0
	for _, result := range results {
		if result.OK() {
			approved++
		}
		responses = append(responses, toResponse(result))
	}
	// 207 when a per-record batch partially failed
	status := http.StatusOK
	if approved < len(results) {
		status = http.StatusMultiStatus
	}
	httpx.JSON(w, status, map[string]any{
		"approved": approved,
		"total":    len(results),
		"results":  responses,
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement ID")
		return
	}
	logs, err := h.service.History(r.Context(), id)
	if err != nil {
		h.logger.Error("approval history failed", slog.Any("error", err))
		httpx.RespondError(w, normalize(err))
		return
	}
	entries := make([]map[string]any, 0, len(logs))
	for _, entry := range logs {
		entries = append(entries, map[string]any{
			"actor_id":   entry.ActorID,
			"actor_role": entry.ActorRole,
			"action":     entry.Action,
			"note":       entry.Note,
			"at":         entry.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movement_id": id, "history": entries})
}

func (h *Handler) respondResultError(w http.ResponseWriter, result Result) {
	err := normalize(result.Err)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrInvalidState):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid State", shared.UserSafeMessage(err))
	case errors.Is(err, shared.ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", shared.UserSafeMessage(err))
	default:
		httpx.Problem(w, http.StatusUnprocessableEntity, "Approval Failed", result.Err.Error())
	}
}
