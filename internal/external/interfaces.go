package external

import (
	"context"

	"skywise/internal/types"
)

// WeatherProvider fetches current conditions for a city and normalizes them
// into the fact vocabulary the rule table reads.
type WeatherProvider interface {
	// CurrentConditions returns an observation for city. An unknown city is
	// reported as types.ErrCodeNotFoundCity.
	CurrentConditions(ctx context.Context, city string) (*types.Observation, error)
}

// NarrativeGenerator turns a prompt into free-form text.
type NarrativeGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Compile-time interface checks.
var (
	_ WeatherProvider    = (*OpenWeatherClient)(nil)
	_ NarrativeGenerator = (*GeminiClient)(nil)
)
