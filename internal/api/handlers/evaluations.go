package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"skywise/internal/advisory"
	"skywise/internal/core"
	"skywise/internal/rules"
	"skywise/internal/types"
)

// maxFactsPerEvaluation bounds the size of a caller-supplied fact set.
const maxFactsPerEvaluation = 64

// EvaluationServiceInterface is the pure rule evaluation path.
type EvaluationServiceInterface interface {
	Evaluate(facts types.FactSet) []advisory.Conclusion
	Explain(facts types.FactSet) []rules.Match
}

// EvaluationRequest is the body of POST /v1/evaluations.
type EvaluationRequest struct {
	Facts map[string]any `json:"facts" validate:"required"`
}

// EvaluationResponse lists the conclusions and the rules that produced them,
// both in table order.
type EvaluationResponse struct {
	Conclusions  []advisory.Conclusion `json:"conclusions"`
	MatchedRules []rules.Match         `json:"matched_rules"`
}

// EvaluationHandler runs caller-supplied facts through the rule table
// without contacting any provider.
type EvaluationHandler struct {
	service   EvaluationServiceInterface
	validator *core.Validator
	logger    *slog.Logger
}

// NewEvaluationHandler creates an EvaluationHandler.
func NewEvaluationHandler(svc EvaluationServiceInterface, val *core.Validator, logger *slog.Logger) *EvaluationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluationHandler{service: svc, validator: val, logger: logger}
}

// RegisterRoutes mounts POST /evaluations.
func (h *EvaluationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/evaluations", h.HandleEvaluate)
}

// HandleEvaluate handles POST /v1/evaluations. Numbers are decoded as
// json.Number so the evaluator sees the literal the caller sent.
func (h *EvaluationHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluationRequest
	if err := core.DecodeJSON(w, r, &req, core.WithUseNumber()); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validateFactNames(req.Facts); err != nil {
		core.Error(w, r, err)
		return
	}

	facts := types.FactSet(req.Facts)
	core.JSON(w, r, http.StatusOK, EvaluationResponse{
		Conclusions:  h.service.Evaluate(facts),
		MatchedRules: h.service.Explain(facts),
	})
}

func (h *EvaluationHandler) validateFactNames(facts map[string]any) error {
	if len(facts) > maxFactsPerEvaluation {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidFacts,
			"too many facts",
			nil,
			map[string]any{"max": maxFactsPerEvaluation, "received": len(facts)},
		)
	}

	// Sorted so the reported key is stable across requests.
	names := make([]string, 0, len(facts))
	for name := range facts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.validator.Var("facts."+name, name, "fact_name"); err != nil {
			return err
		}
	}
	return nil
}
