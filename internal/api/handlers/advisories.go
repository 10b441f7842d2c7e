// Package handlers contains the HTTP handlers for the Skywise API and its
// HTML forecast page.
//
// Handlers depend on locally declared service interfaces and are mounted by
// the entry point through core.RouteRegistrar values.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skywise/internal/advisory"
	"skywise/internal/core"
	"skywise/internal/types"
)

// AdvisoryServiceInterface is the advisory service as seen by HTTP handlers.
type AdvisoryServiceInterface interface {
	GetAdvisory(ctx context.Context, city string) (*advisory.Advisory, error)
	GetBatchAdvisories(ctx context.Context, cities []string) ([]advisory.BatchItem, error)
}

// BatchAdvisoryRequest is the body of POST /v1/advisories/batch. Individual
// city names are validated per item by the service so one bad entry does
// not reject the batch.
type BatchAdvisoryRequest struct {
	Cities []string `json:"cities" validate:"required,min=1"`
}

// BatchAdvisoryResponse reports one item per requested city, in order.
type BatchAdvisoryResponse struct {
	Items     []advisory.BatchItem `json:"items"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
}

// AdvisoryHandler serves city advisories.
type AdvisoryHandler struct {
	service   AdvisoryServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewAdvisoryHandler creates an AdvisoryHandler.
func NewAdvisoryHandler(svc AdvisoryServiceInterface, val *core.Validator, logger *slog.Logger) *AdvisoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisoryHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the advisory endpoints; the group is expected at
// /v1/advisories.
func (h *AdvisoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGet)
	r.Post("/batch", h.HandleBatch)
}

// HandleGet handles GET /v1/advisories?city=.
func (h *AdvisoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	city := types.NormalizeCity(r.URL.Query().Get("city"))
	if err := h.validator.Var("city", city, "required,city_name"); err != nil {
		core.Error(w, r, err)
		return
	}

	adv, err := h.service.GetAdvisory(r.Context(), city)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	core.JSON(w, r, http.StatusOK, adv)
}

// HandleBatch handles POST /v1/advisories/batch.
func (h *AdvisoryHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAdvisoryRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	items, err := h.service.GetBatchAdvisories(r.Context(), req.Cities)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	resp := BatchAdvisoryResponse{Items: items}
	for _, item := range items {
		if item.Error != nil {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}

	h.logger.InfoContext(r.Context(), "batch advisories served",
		"requested", len(req.Cities),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)

	w.Header().Set("Cache-Control", "no-store")
	core.JSON(w, r, http.StatusOK, resp)
}
