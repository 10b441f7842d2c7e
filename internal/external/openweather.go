package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skywise/internal/types"
)

const (
	openWeatherAPIBase = "https://api.openweathermap.org"

	// defaultVisibilityMeters is reported when neither the response nor the
	// config carries a visibility value.
	defaultVisibilityMeters = 10000.0
)

// OpenWeatherConfig holds the configuration for an OpenWeatherClient.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string // defaults to openWeatherAPIBase
	Units   string // defaults to "metric"

	// DefaultVisibility is reported when the response omits visibility.
	// Values <= 0 fall back to 10000 meters.
	DefaultVisibility float64

	// The current-weather endpoint has no UV reading. When UVIndexEnabled is
	// set, UVIndexFallback is reported as uv_index.
	UVIndexEnabled  bool
	UVIndexFallback float64

	Logger *slog.Logger
}

// owmResponse is the subset of the /data/2.5/weather payload Skywise reads.
// Pointer fields distinguish an absent value from zero.
type owmResponse struct {
	Name    string `json:"name"`
	Dt      int64  `json:"dt"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
		Pressure  *float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
	Visibility *float64 `json:"visibility"`
	Pop        *float64 `json:"pop"`
	Sys        struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// OpenWeatherClient implements WeatherProvider against the OpenWeatherMap
// current weather API.
type OpenWeatherClient struct {
	base    *BaseClient
	cfg     OpenWeatherConfig
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewOpenWeatherClient creates an OpenWeatherClient with its own breaker.
func NewOpenWeatherClient(httpClient *http.Client, cfg OpenWeatherConfig, opts ...BaseClientOption) *OpenWeatherClient {
	base := NewBaseClient(httpClient, "openweather", DefaultRetryPolicy(), "Skywise/1.0", opts...)
	return NewOpenWeatherClientWithBase(base, cfg)
}

// NewOpenWeatherClientWithBase creates an OpenWeatherClient around a
// pre-configured BaseClient.
func NewOpenWeatherClientWithBase(base *BaseClient, cfg OpenWeatherConfig) *OpenWeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openWeatherAPIBase
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.DefaultVisibility <= 0 {
		cfg.DefaultVisibility = defaultVisibilityMeters
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenWeatherClient{
		base:    base,
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// Base exposes the underlying BaseClient for health reporting.
func (c *OpenWeatherClient) Base() *BaseClient {
	return c.base
}

// CurrentConditions fetches GET /data/2.5/weather?q={city}&units=metric and
// maps the response onto the fact vocabulary.
func (c *OpenWeatherClient) CurrentConditions(ctx context.Context, city string) (*types.Observation, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidCity, "city is required", nil)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	endpoint := c.baseURL + "/data/2.5/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create weather request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, wrapDoError("OpenWeather", "CurrentConditions", types.ErrCodeUpstreamWeather, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.handleErrorResponse(ctx, resp, city)
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather, "failed to decode weather response", err)
	}

	obs := c.toObservation(city, &body)
	c.logger.DebugContext(ctx, "weather observation fetched",
		"city", obs.City,
		"country", obs.Country,
		"facts", len(obs.Facts),
	)
	return obs, nil
}

func (c *OpenWeatherClient) toObservation(requested string, body *owmResponse) *types.Observation {
	facts := make(types.FactSet, 10)
	setIf := func(name string, v *float64) {
		if v != nil {
			facts[name] = *v
		}
	}

	setIf(types.FactTemp, body.Main.Temp)
	setIf(types.FactFeelsLike, body.Main.FeelsLike)
	setIf(types.FactHumidity, body.Main.Humidity)
	setIf(types.FactPressure, body.Main.Pressure)
	setIf(types.FactWindSpeed, body.Wind.Speed)
	setIf(types.FactClouds, body.Clouds.All)

	if body.Visibility != nil {
		facts[types.FactVisibility] = *body.Visibility
	} else {
		facts[types.FactVisibility] = c.cfg.DefaultVisibility
	}

	if len(body.Weather) > 0 && body.Weather[0].Main != "" {
		facts[types.FactMainCondition] = body.Weather[0].Main
	}

	pop := 0.0
	if body.Pop != nil {
		pop = *body.Pop * 100
	}
	facts[types.FactPrecipitationProb] = pop

	if c.cfg.UVIndexEnabled {
		facts[types.FactUVIndex] = c.cfg.UVIndexFallback
	}

	name := body.Name
	if name == "" {
		name = requested
	}
	observed := c.now().UTC()
	if body.Dt > 0 {
		observed = time.Unix(body.Dt, 0).UTC()
	}

	return &types.Observation{
		City:       name,
		Country:    body.Sys.Country,
		ObservedAt: observed,
		Facts:      facts,
	}
}

func (c *OpenWeatherClient) handleErrorResponse(ctx context.Context, resp *http.Response, city string) *types.AppError {
	bodyStr := readErrorBody(resp)

	c.logger.WarnContext(ctx, "OpenWeather API error",
		"city", city,
		"status_code", resp.StatusCode,
		"response_body", bodyStr,
	)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return types.NewAppErrorWithDetails(
			types.ErrCodeNotFoundCity,
			fmt.Sprintf("city %q not found", city),
			nil,
			map[string]any{"city": city},
		)
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewAppError(
			types.ErrCodeUpstreamAuthRejected,
			fmt.Sprintf("OpenWeather rejected the API key (%d)", resp.StatusCode),
			fmt.Errorf("OpenWeather returned %d: %s", resp.StatusCode, bodyStr),
		)
	default:
		return types.NewAppError(
			types.ErrCodeUpstreamWeather,
			fmt.Sprintf("OpenWeather client error (%d)", resp.StatusCode),
			fmt.Errorf("OpenWeather returned %d: %s", resp.StatusCode, bodyStr),
		)
	}
}
