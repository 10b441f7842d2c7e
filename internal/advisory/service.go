// Package advisory turns a city name into a weather advisory: it fetches
// current conditions, runs them through the rule table, attaches pictorials,
// and asks a narrative generator for a short human-readable report.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"skywise/internal/rules"
	"skywise/internal/types"
)

// narrativeFailurePrefix starts NarrativeError when generation fails.
const narrativeFailurePrefix = "Could not generate AI forecast: "

// WeatherProvider fetches current conditions for a city.
type WeatherProvider interface {
	CurrentConditions(ctx context.Context, city string) (*types.Observation, error)
}

// NarrativeGenerator turns a prompt into a short report.
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OutcomeRecorder receives one outcome per advisory request.
type OutcomeRecorder interface {
	RecordAdvisory(ctx context.Context, outcome types.AdvisoryOutcome)
}

// Advisory is the assembled result for one city.
type Advisory struct {
	ID             uuid.UUID     `json:"id"`
	City           string        `json:"city"`
	Country        string        `json:"country,omitempty"`
	ObservedAt     time.Time     `json:"observed_at"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Facts          types.FactSet `json:"facts"`
	Conclusions    []Conclusion  `json:"conclusions"`
	Narrative      string        `json:"narrative,omitempty"`
	NarrativeError string        `json:"narrative_error,omitempty"`
}

// Labels returns the conclusion labels in order.
func (a *Advisory) Labels() []types.Label {
	out := make([]types.Label, len(a.Conclusions))
	for i, c := range a.Conclusions {
		out[i] = c.Label
	}
	return out
}

// BatchItem is one city's slot in a batch response. Exactly one of Advisory
// and Error is set.
type BatchItem struct {
	City     string          `json:"city"`
	Advisory *Advisory       `json:"advisory,omitempty"`
	Error    *types.AppError `json:"error,omitempty"`
}

// RuleView is a display row for one rule of the table.
type RuleView struct {
	Index      int         `json:"index"`
	Name       string      `json:"name"`
	Conditions string      `json:"conditions"`
	Label      types.Label `json:"label"`
	Pictorial  string      `json:"pictorial"`
}

// Options tunes a Service. Zero values take the defaults noted per field.
type Options struct {
	BatchMax         int // default 10
	BatchConcurrency int // default 4
}

// Service assembles advisories. It is safe for concurrent use.
type Service struct {
	weather  WeatherProvider
	narrator NarrativeGenerator
	table    *rules.Table
	metrics  OutcomeRecorder
	logger   *slog.Logger
	opts     Options

	fetches singleflight.Group
	now     func() time.Time
	newID   func() uuid.UUID
}

// NewService wires a Service. A nil narrator disables narratives; a nil
// table uses rules.Default().
func NewService(
	weather WeatherProvider,
	narrator NarrativeGenerator,
	table *rules.Table,
	metrics OutcomeRecorder,
	logger *slog.Logger,
	opts Options,
) *Service {
	if table == nil {
		table = rules.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchMax <= 0 {
		opts.BatchMax = 10
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	return &Service{
		weather:  weather,
		narrator: narrator,
		table:    table,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		newID:    uuid.New,
	}
}

// BatchMax is the largest batch GetBatchAdvisories accepts.
func (s *Service) BatchMax() int {
	return s.opts.BatchMax
}

// Evaluate runs facts through the rule table. It never fails.
func (s *Service) Evaluate(facts types.FactSet) []Conclusion {
	return Decorate(s.table.Evaluate(facts))
}

// Explain reports which rules fired for facts, in table order.
func (s *Service) Explain(facts types.FactSet) []rules.Match {
	return s.table.Explain(facts)
}

// Rules lists the rule table for display.
func (s *Service) Rules() []RuleView {
	rs := s.table.Rules()
	out := make([]RuleView, len(rs))
	for i, r := range rs {
		out[i] = RuleView{
			Index:      i + 1,
			Name:       r.Name,
			Conditions: r.Conditions.String(),
			Label:      r.Conclusion,
			Pictorial:  Pictorial(r.Conclusion),
		}
	}
	return out
}

// GetAdvisory builds the advisory for city.
//
// A weather failure is returned as an error and no advisory is produced. A
// narrative failure is not: the advisory is returned with NarrativeError set.
func (s *Service) GetAdvisory(ctx context.Context, city string) (*Advisory, error) {
	city = types.NormalizeCity(city)
	if err := validateCity(city); err != nil {
		s.record(ctx, types.OutcomeValidationFailed)
		return nil, err
	}

	obs, err := s.observe(ctx, city)
	if err != nil {
		s.record(ctx, types.OutcomeWeatherFailed)
		s.logger.WarnContext(ctx, "weather fetch failed",
			"city", city,
			"error", err,
		)
		return nil, err
	}

	labels := s.table.Evaluate(obs.Facts)
	adv := &Advisory{
		ID:          s.newID(),
		City:        obs.City,
		Country:     obs.Country,
		ObservedAt:  obs.ObservedAt,
		Facts:       obs.Facts.Clone(),
		Conclusions: Decorate(labels),
	}

	outcome := types.OutcomeSuccess
	if s.narrator != nil {
		text, err := s.narrator.Generate(ctx, BuildPrompt(obs.Facts, labels))
		if err != nil {
			outcome = types.OutcomeNarrativeFailed
			adv.NarrativeError = narrativeFailurePrefix + errorMessage(err)
			s.logger.WarnContext(ctx, "narrative generation failed",
				"city", adv.City,
				"error", err,
			)
		} else {
			adv.Narrative = text
		}
	}
	adv.GeneratedAt = s.now().UTC()

	s.record(ctx, outcome)
	s.logger.InfoContext(ctx, "advisory generated",
		"city", adv.City,
		"conclusions", len(adv.Conclusions),
		"outcome", string(outcome),
	)
	return adv, nil
}

// GetBatchAdvisories builds advisories for up to BatchMax cities with bounded
// concurrency. Per-city failures are reported in the item and do not fail
// the batch. Items follow the request order.
func (s *Service) GetBatchAdvisories(ctx context.Context, cities []string) ([]BatchItem, error) {
	if len(cities) == 0 {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "at least one city is required", nil)
	}
	if len(cities) > s.opts.BatchMax {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationBatchSize,
			fmt.Sprintf("batch of %d cities exceeds the limit of %d", len(cities), s.opts.BatchMax),
			nil,
			map[string]any{"max": s.opts.BatchMax, "received": len(cities)},
		)
	}

	items := make([]BatchItem, len(cities))
	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)

	for i, city := range cities {
		g.Go(func() error {
			items[i].City = types.NormalizeCity(city)
			adv, err := s.GetAdvisory(ctx, city)
			if err != nil {
				items[i].Error = asAppError(err)
				return nil
			}
			items[i].Advisory = adv
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()

	return items, nil
}

// observe fetches conditions, collapsing concurrent requests for the same
// city into one provider call. A caller whose context ends stops waiting
// without cancelling the shared fetch for the others.
func (s *Service) observe(ctx context.Context, city string) (*types.Observation, error) {
	if s.weather == nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "no weather provider configured", nil)
	}

	key := strings.ToLower(city)
	ch := s.fetches.DoChan(key, func() (any, error) {
		return s.weather.CurrentConditions(context.WithoutCancel(ctx), city)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		obs := *res.Val.(*types.Observation)
		obs.Facts = obs.Facts.Clone()
		return &obs, nil
	case <-ctx.Done():
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "weather request cancelled", ctx.Err())
	}
}

func (s *Service) record(ctx context.Context, outcome types.AdvisoryOutcome) {
	if s.metrics != nil {
		s.metrics.RecordAdvisory(ctx, outcome)
	}
}

func validateCity(city string) error {
	if city == "" {
		return types.NewAppError(types.ErrCodeValidationMissingField, "city is required", nil)
	}
	if !types.ValidCityName(city) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidCity,
			"city name contains unsupported characters or is too long",
			nil,
			map[string]any{"max_length": types.MaxCityNameLength},
		)
	}
	return nil
}

func asAppError(err error) *types.AppError {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return types.NewAppError(types.ErrCodeInternalUnexpected, "unexpected error", err)
}

func errorMessage(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
