package movement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/grainledger/grainledger/internal/platform/httpx"
	"github.com/grainledger/grainledger/internal/shared"
)

// Handler wires JSON endpoints for movement intake.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers movement routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/reverse", h.reverse)
}

type createRequest struct {
	Serial            string  `json:"serial"`
	Date              string  `json:"date" validate:"required,datetime=2006-01-02"`
	Type              string  `json:"type" validate:"required,oneof=PURCHASE SHIFTING PRODUCTION_SHIFTING LOADING"`
	VarietyID         int64   `json:"variety_id" validate:"required,gt=0"`
	Bags              int     `json:"bags" validate:"required,gt=0"`
	GrossWeight       float64 `json:"gross_weight" validate:"required,gt=0"`
	TareWeight        float64 `json:"tare_weight" validate:"gte=0"`
	FromSubLocationID int64   `json:"from_sub_location_id"`
	FromWarehouseID   int64   `json:"from_warehouse_id"`
	ToSubLocationID   int64   `json:"to_sub_location_id"`
	ToWarehouseID     int64   `json:"to_warehouse_id"`
	OutturnID         int64   `json:"outturn_id"`
	AcquisitionRate   float64 `json:"acquisition_rate" validate:"gte=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor headers missing")
		return
	}

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fields[fieldErr.Field()] = fieldErr.Tag()
			}
		}
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"title": "Validation Failed", "fields": fields})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}

	created, err := h.service.Create(r.Context(), CreateInput{
		Serial:            req.Serial,
		Date:              date,
		Type:              Type(req.Type),
		VarietyID:         req.VarietyID,
		Bags:              req.Bags,
		GrossWeight:       req.GrossWeight,
		TareWeight:        req.TareWeight,
		FromSubLocationID: req.FromSubLocationID,
		FromWarehouseID:   req.FromWarehouseID,
		ToSubLocationID:   req.ToSubLocationID,
		ToWarehouseID:     req.ToWarehouseID,
		OutturnID:         req.OutturnID,
		AcquisitionRate:   req.AcquisitionRate,
		ActorID:           actor.ID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement ID")
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Status: Status(q.Get("status")),
		Type:   Type(q.Get("type")),
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		filter.To = t
	}
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	movements, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}

	pagination := shared.NewPagination(page, perPage, len(movements))
	start := (pagination.Page - 1) * pagination.PerPage
	if start > len(movements) {
		start = len(movements)
	}
	end := start + pagination.PerPage
	if end > len(movements) {
		end = len(movements)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"movements":  movements[start:end],
		"pagination": pagination,
	})
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
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
	reversal, err := h.service.Reverse(r.Context(), id, actor.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "movement not found")
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid State", err.Error())
	case errors.Is(err, ErrAmbiguousClassification),
		errors.Is(err, ErrUnclassified),
		errors.Is(err, ErrUnknownType),
		errors.Is(err, ErrInvalidBags),
		errors.Is(err, ErrZeroWeight),
		errors.Is(err, ErrNegativeWeight),
		errors.Is(err, ErrMissingSource),
		errors.Is(err, ErrMissingDestination),
		errors.Is(err, ErrMissingOutturn),
		errors.Is(err, ErrSameLocation),
		errors.Is(err, ErrMissingRate):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("movement request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
