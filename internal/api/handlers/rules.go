package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skywise/internal/advisory"
	"skywise/internal/core"
)

// RuleServiceInterface lists the active rule table.
type RuleServiceInterface interface {
	Rules() []advisory.RuleView
}

// RuleListResponse is the body of GET /v1/rules.
type RuleListResponse struct {
	Rules []advisory.RuleView `json:"rules"`
	Count int                 `json:"count"`
}

// RuleHandler serves the rule table listing.
type RuleHandler struct {
	service RuleServiceInterface
}

// NewRuleHandler creates a RuleHandler.
func NewRuleHandler(svc RuleServiceInterface) *RuleHandler {
	return &RuleHandler{service: svc}
}

// RegisterRoutes mounts GET /rules.
func (h *RuleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rules", h.HandleList)
}

// HandleList handles GET /v1/rules.
func (h *RuleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rs := h.service.Rules()
	w.Header().Set("Cache-Control", "public, max-age=3600")
	core.JSON(w, r, http.StatusOK, RuleListResponse{Rules: rs, Count: len(rs)})
}
