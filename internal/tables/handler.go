package tables

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jazmin7552/p2/internal/platform/httpx"
	"github.com/jazmin7552/p2/internal/statuses"
)

// Handler manages dining table endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

type createRequest struct {
	Capacity int    `json:"capacity" validate:"required,min=1,max=20"`
	Location string `json:"location" validate:"required,max=50"`
	StatusID *int64 `json:"status_id" validate:"omitempty,gt=0"`
}

type updateRequest struct {
	Capacity *int    `json:"capacity" validate:"omitempty,min=1,max=20"`
	Location *string `json:"location" validate:"omitempty,max=50"`
	StatusID *int64  `json:"status_id" validate:"omitempty,gt=0"`
}

type tableResponse struct {
	ID       int64  `json:"id"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
	StatusID int64  `json:"status_id"`
}

// ToResponses renders tables for JSON output.
func ToResponses(items []Table) []tableResponse {
	out := make([]tableResponse, 0, len(items))
	for _, t := range items {
		out = append(out, tableResponse(t))
	}
	return out
}

// MountRoutes registers table routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/available", h.available)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/status/{statusID}", h.changeStatus)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	var err error
	if filter.StatusID, err = httpx.QueryInt64(r, "status_id"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	minCap, err := httpx.QueryInt64(r, "min_capacity")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if minCap != nil {
		v := int(*minCap)
		filter.MinCapacity = &v
	}
	filter.Location = r.URL.Query().Get("location")
	items, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list tables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponses(items))
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ByStatusName(r.Context(), statuses.Available)
	if err != nil {
		h.fail(w, "list available tables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponses(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tableResponse(t))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Create(r.Context(), CreateInput(req))
	if err != nil {
		h.fail(w, "create table", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tableResponse(t))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.Update(r.Context(), id, UpdateInput(req))
	if err != nil {
		h.fail(w, "update table", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tableResponse(t))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	statusID, err := httpx.URLParamInt64(r, "statusID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	t, err := h.service.ChangeStatus(r.Context(), id, statusID)
	if err != nil {
		h.fail(w, "change table status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tableResponse(t))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete table", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(msg+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
