package advisory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"skywise/internal/types"
)

type mockWeather struct {
	mock.Mock
}

func (m *mockWeather) CurrentConditions(ctx context.Context, city string) (*types.Observation, error) {
	args := m.Called(ctx, city)
	obs, _ := args.Get(0).(*types.Observation)
	return obs, args.Error(1)
}

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []types.AdvisoryOutcome
}

func (o *outcomeLog) RecordAdvisory(_ context.Context, outcome types.AdvisoryOutcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

var (
	fixedNow = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
	fixedID  = uuid.MustParse("8a1f6a3c-52a4-4b7f-9d6e-1e2f3a4b5c6d")
)

func newTestService(w WeatherProvider, n NarrativeGenerator, rec OutcomeRecorder, opts Options) *Service {
	s := NewService(w, n, nil, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
	s.now = func() time.Time { return fixedNow }
	s.newID = func() uuid.UUID { return fixedID }
	return s
}

func hotObservation(city string) *types.Observation {
	return &types.Observation{
		City:       city,
		Country:    "AE",
		ObservedAt: fixedNow.Add(-10 * time.Minute),
		Facts: types.FactSet{
			types.FactTemp:       40.0,
			types.FactHumidity:   20.0,
			types.FactWindSpeed:  3.0,
			types.FactClouds:     5.0,
			types.FactPressure:   1008.0,
			types.FactVisibility: 10000.0,
			types.FactUVIndex:    9.0,
		},
	}
}

func TestGetAdvisory_Success(t *testing.T) {
	w := &mockWeather{}
	n := &mockNarrator{}
	rec := &outcomeLog{}

	w.On("CurrentConditions", mock.Anything, "Dubai").Return(hotObservation("Dubai"), nil).Once()
	n.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Temperature: 40°C") &&
			strings.Contains(p, "Extremely Hot, Clear Skies, Dry and Hot Conditions, High UV Index: Use Sun Protection")
	})).Return("Scorching. Stay hydrated.", nil).Once()

	s := newTestService(w, n, rec, Options{})
	adv, err := s.GetAdvisory(context.Background(), "  Dubai ")
	require.NoError(t, err)

	assert.Equal(t, fixedID, adv.ID)
	assert.Equal(t, "Dubai", adv.City)
	assert.Equal(t, "AE", adv.Country)
	assert.Equal(t, fixedNow, adv.GeneratedAt)
	assert.Equal(t, []Conclusion{
		{Label: types.LabelExtremelyHot, Pictorial: "🥵"},
		{Label: types.LabelClearSkies, Pictorial: "☀️"},
		{Label: types.LabelDryAndHot, Pictorial: DefaultPictorial},
		{Label: types.LabelHighUV, Pictorial: "😎"},
	}, adv.Conclusions)
	assert.Equal(t, "Scorching. Stay hydrated.", adv.Narrative)
	assert.Empty(t, adv.NarrativeError)
	assert.Equal(t, []types.AdvisoryOutcome{types.OutcomeSuccess}, rec.outcomes)

	w.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestGetAdvisory_NarrativeFailureIsSoft(t *testing.T) {
	w := &mockWeather{}
	n := &mockNarrator{}
	rec := &outcomeLog{}

	w.On("CurrentConditions", mock.Anything, "Dubai").Return(hotObservation("Dubai"), nil)
	n.On("Generate", mock.Anything, mock.Anything).
		Return("", types.NewAppError(types.ErrCodeUpstreamNarrative, "Gemini returned no candidates", nil))

	adv, err := newTestService(w, n, rec, Options{}).GetAdvisory(context.Background(), "Dubai")
	require.NoError(t, err)

	assert.Len(t, adv.Conclusions, 4)
	assert.Empty(t, adv.Narrative)
	assert.Equal(t, "Could not generate AI forecast: Gemini returned no candidates", adv.NarrativeError)
	assert.Equal(t, []types.AdvisoryOutcome{types.OutcomeNarrativeFailed}, rec.outcomes)
}

func TestGetAdvisory_WithoutNarrator(t *testing.T) {
	w := &mockWeather{}
	w.On("CurrentConditions", mock.Anything, "Dubai").Return(hotObservation("Dubai"), nil)

	adv, err := newTestService(w, nil, nil, Options{}).GetAdvisory(context.Background(), "Dubai")
	require.NoError(t, err)
	assert.Empty(t, adv.Narrative)
	assert.Empty(t, adv.NarrativeError)
}

func TestGetAdvisory_WeatherFailure(t *testing.T) {
	w := &mockWeather{}
	n := &mockNarrator{}
	rec := &outcomeLog{}

	notFound := types.NewAppError(types.ErrCodeNotFoundCity, `city "Atlantis" not found`, nil)
	w.On("CurrentConditions", mock.Anything, "Atlantis").Return(nil, notFound)

	adv, err := newTestService(w, n, rec, Options{}).GetAdvisory(context.Background(), "Atlantis")
	assert.Nil(t, adv)
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, []types.AdvisoryOutcome{types.OutcomeWeatherFailed}, rec.outcomes)
	n.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestGetAdvisory_Validation(t *testing.T) {
	tests := []struct {
		city string
		code types.ErrorCode
	}{
		{"", types.ErrCodeValidationMissingField},
		{"   ", types.ErrCodeValidationMissingField},
		{"Paris<script>", types.ErrCodeValidationInvalidCity},
		{strings.Repeat("x", types.MaxCityNameLength+1), types.ErrCodeValidationInvalidCity},
	}

	for _, tt := range tests {
		w := &mockWeather{}
		rec := &outcomeLog{}
		_, err := newTestService(w, nil, rec, Options{}).GetAdvisory(context.Background(), tt.city)

		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tt.code, appErr.Code)
		assert.Equal(t, []types.AdvisoryOutcome{types.OutcomeValidationFailed}, rec.outcomes)
		w.AssertNotCalled(t, "CurrentConditions", mock.Anything, mock.Anything)
	}
}

func TestGetAdvisory_FactsAreNotShared(t *testing.T) {
	obs := hotObservation("Dubai")
	w := &mockWeather{}
	w.On("CurrentConditions", mock.Anything, "Dubai").Return(obs, nil)

	adv, err := newTestService(w, nil, nil, Options{}).GetAdvisory(context.Background(), "Dubai")
	require.NoError(t, err)

	adv.Facts[types.FactTemp] = -5.0
	assert.Equal(t, 40.0, obs.Facts[types.FactTemp])
}

// gatedWeather blocks every fetch until release is closed.
type gatedWeather struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedWeather) CurrentConditions(_ context.Context, city string) (*types.Observation, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	return hotObservation(city), nil
}

func TestGetAdvisory_ConcurrentRequestsShareOneFetch(t *testing.T) {
	g := &gatedWeather{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestService(g, nil, nil, Options{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*Advisory, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = s.GetAdvisory(context.Background(), "Dubai")
	}()
	<-g.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = s.GetAdvisory(context.Background(), "dubai")
		}()
	}
	// Give the followers time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(g.release)
	wg.Wait()

	assert.Equal(t, int32(1), g.calls.Load())
	for i, r := range results {
		require.NotNil(t, r, "caller %d", i)
		assert.Len(t, r.Conclusions, 4)
	}
}

func TestGetAdvisory_CallerCancellation(t *testing.T) {
	g := &gatedWeather{started: make(chan struct{}), release: make(chan struct{})}
	defer close(g.release)
	s := newTestService(g, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-g.started
		cancel()
	}()

	_, err := s.GetAdvisory(ctx, "Dubai")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetBatchAdvisories(t *testing.T) {
	w := &mockWeather{}
	w.On("CurrentConditions", mock.Anything, "Dubai").Return(hotObservation("Dubai"), nil)
	w.On("CurrentConditions", mock.Anything, "Oslo").Return(&types.Observation{
		City:  "Oslo",
		Facts: types.FactSet{types.FactTemp: -4.0, types.FactPrecipitationProb: 80.0, types.FactMainCondition: "Snow"},
	}, nil)
	w.On("CurrentConditions", mock.Anything, "Atlantis").
		Return(nil, types.NewAppError(types.ErrCodeNotFoundCity, "not found", nil))

	s := newTestService(w, nil, nil, Options{BatchMax: 5, BatchConcurrency: 2})
	items, err := s.GetBatchAdvisories(context.Background(), []string{"Dubai", " Atlantis ", "Oslo", "bad;city"})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "Dubai", items[0].City)
	require.NotNil(t, items[0].Advisory)
	assert.Nil(t, items[0].Error)

	assert.Equal(t, "Atlantis", items[1].City)
	assert.Nil(t, items[1].Advisory)
	require.NotNil(t, items[1].Error)
	assert.Equal(t, types.ErrCodeNotFoundCity, items[1].Error.Code)

	require.NotNil(t, items[2].Advisory)
	assert.Equal(t, []types.Label{types.LabelFreezingCold, types.LabelHeavyRain, types.LabelSnowfall}, items[2].Advisory.Labels())

	require.NotNil(t, items[3].Error)
	assert.Equal(t, types.ErrCodeValidationInvalidCity, items[3].Error.Code)
}

func TestGetBatchAdvisories_SizeLimits(t *testing.T) {
	s := newTestService(&mockWeather{}, nil, nil, Options{BatchMax: 2})
	assert.Equal(t, 2, s.BatchMax())

	_, err := s.GetBatchAdvisories(context.Background(), nil)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationMissingField, appErr.Code)

	_, err = s.GetBatchAdvisories(context.Background(), []string{"a", "b", "c"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationBatchSize, appErr.Code)
	assert.Equal(t, 2, appErr.Details["max"])
}

func TestEvaluateAndRules(t *testing.T) {
	s := newTestService(nil, nil, nil, Options{})

	got := s.Evaluate(types.FactSet{types.FactTemp: 20, types.FactClouds: 5})
	assert.Equal(t, []Conclusion{
		{Label: types.LabelPleasantAndSunny, Pictorial: "😊"},
		{Label: types.LabelClearSkies, Pictorial: "☀️"},
	}, got)
	assert.NotNil(t, s.Evaluate(nil))
	assert.Empty(t, s.Evaluate(nil))

	matches := s.Explain(types.FactSet{types.FactTemp: 20, types.FactClouds: 5})
	require.Len(t, matches, 2)
	assert.Equal(t, 3, matches[0].Index)

	views := s.Rules()
	require.Len(t, views, 20)
	assert.Equal(t, RuleView{Index: 1, Name: "extreme-heat", Conditions: "temp > 35", Label: types.LabelExtremelyHot, Pictorial: "🥵"}, views[0])
}

func TestObserveWithoutProvider(t *testing.T) {
	_, err := newTestService(nil, nil, nil, Options{}).GetAdvisory(context.Background(), "Dubai")
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamWeather, appErr.Code)
}
