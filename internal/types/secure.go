package types

// redactedPlaceholder replaces a secret wherever it would be formatted.
const redactedPlaceholder = "***REDACTED***"

// redactedJSON is redactedPlaceholder encoded once as a JSON string.
var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds a provider API key or similar credential. String and
// MarshalJSON return a placeholder so the value never reaches logs or JSON
// config dumps. Unmask returns the plaintext for the one place that needs it:
// building the outbound request.
type SecretString string

// String returns a redacted placeholder instead of the raw value. It covers
// %s and %v in the fmt family and slog's default text rendering of config
// values.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// GoString keeps %#v from printing the raw value.
func (s SecretString) GoString() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string. Config
// structs dumped by the JSON log handler therefore carry the placeholder in
// place of WEATHER_API_KEY and NARRATIVE_API_KEY.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
//
// The only call sites hand the key to a provider client:
//   - OpenWeatherClient puts it in the appid query parameter.
//   - GeminiClient sends it in the x-goog-api-key header.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether the secret is empty.
func (s SecretString) IsZero() bool {
	return s == ""
}
