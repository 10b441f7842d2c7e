package external

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skywise/internal/rules"
	"skywise/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOpenWeather(t *testing.T, serverURL string, mutate ...func(*OpenWeatherConfig)) *OpenWeatherClient {
	t.Helper()
	cfg := OpenWeatherConfig{
		APIKey:            "owm-key",
		BaseURL:           serverURL,
		DefaultVisibility: 10000,
		UVIndexEnabled:    true,
		UVIndexFallback:   7,
		Logger:            discardLogger(),
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewOpenWeatherClientWithBase(newTestBase(t, fastPolicy(1)), cfg)
}

const londonPayload = `{
  "weather": [{"id": 500, "main": "Rain", "description": "light rain"}],
  "main": {"temp": 12.5, "feels_like": 11.2, "humidity": 88, "pressure": 1004},
  "visibility": 7000,
  "wind": {"speed": 6.1, "deg": 230},
  "clouds": {"all": 90},
  "dt": 1760000000,
  "sys": {"country": "GB"},
  "name": "London"
}`

func TestOpenWeatherCurrentConditions_Success(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		gotQuery = map[string]string{"q": q.Get("q"), "appid": q.Get("appid"), "units": q.Get("units")}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(londonPayload))
	}))
	defer server.Close()

	client := newTestOpenWeather(t, server.URL)
	obs, err := client.CurrentConditions(context.Background(), "  London ")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"q": "London", "appid": "owm-key", "units": "metric"}, gotQuery)
	assert.Equal(t, "London", obs.City)
	assert.Equal(t, "GB", obs.Country)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), obs.ObservedAt)

	assert.Equal(t, types.FactSet{
		types.FactTemp:              12.5,
		types.FactFeelsLike:         11.2,
		types.FactHumidity:          88.0,
		types.FactPressure:          1004.0,
		types.FactWindSpeed:         6.1,
		types.FactClouds:            90.0,
		types.FactVisibility:        7000.0,
		types.FactMainCondition:     "Rain",
		types.FactPrecipitationProb: 0.0,
		types.FactUVIndex:           7.0,
	}, obs.Facts)
}

func TestOpenWeatherCurrentConditions_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather": [], "main": {"temp": 30}, "pop": 0.45, "name": ""}`))
	}))
	defer server.Close()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newTestOpenWeather(t, server.URL, func(c *OpenWeatherConfig) {
		c.UVIndexEnabled = false
	})
	client.now = func() time.Time { return fixed }

	obs, err := client.CurrentConditions(context.Background(), "Atlantis")
	require.NoError(t, err)

	assert.Equal(t, "Atlantis", obs.City, "requested name is used when the provider omits one")
	assert.Equal(t, fixed, obs.ObservedAt)
	assert.Equal(t, 10000.0, obs.Facts[types.FactVisibility])
	assert.InDelta(t, 45.0, obs.Facts[types.FactPrecipitationProb], 1e-9)
	assert.False(t, obs.Facts.Has(types.FactMainCondition))
	assert.False(t, obs.Facts.Has(types.FactUVIndex))
	assert.False(t, obs.Facts.Has(types.FactHumidity))
}

func TestOpenWeatherCurrentConditions_ZeroConfigVisibility(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather": [{"main": "Clear"}], "main": {"temp": 18, "humidity": 50}, "name": "Lisbon"}`))
	}))
	defer server.Close()

	client := NewOpenWeatherClient(server.Client(), OpenWeatherConfig{APIKey: "k", BaseURL: server.URL})
	obs, err := client.CurrentConditions(context.Background(), "Lisbon")
	require.NoError(t, err)

	assert.Equal(t, 10000.0, obs.Facts[types.FactVisibility])
	assert.NotContains(t, rules.Default().Evaluate(obs.Facts), types.LabelLowVisibility)
}

func TestOpenWeatherCurrentConditions_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   types.ErrorCode
	}{
		{"city not found", http.StatusNotFound, types.ErrCodeNotFoundCity},
		{"bad key", http.StatusUnauthorized, types.ErrCodeUpstreamAuthRejected},
		{"bad request", http.StatusBadRequest, types.ErrCodeUpstreamWeather},
		{"server error", http.StatusInternalServerError, types.ErrCodeUpstreamWeather},
		{"rate limited", http.StatusTooManyRequests, types.ErrCodeUpstreamRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"cod":"x","message":"nope"}`))
			}))
			defer server.Close()

			_, err := newTestOpenWeather(t, server.URL).CurrentConditions(context.Background(), "Nowhere")
			requireAppError(t, err, tt.code)
		})
	}
}

func TestOpenWeatherCurrentConditions_BlankCity(t *testing.T) {
	client := newTestOpenWeather(t, "http://127.0.0.1:1")
	_, err := client.CurrentConditions(context.Background(), "   ")
	requireAppError(t, err, types.ErrCodeValidationInvalidCity)
}

func TestOpenWeatherCurrentConditions_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"main": `))
	}))
	defer server.Close()

	_, err := newTestOpenWeather(t, server.URL).CurrentConditions(context.Background(), "London")
	requireAppError(t, err, types.ErrCodeUpstreamWeather)
}
