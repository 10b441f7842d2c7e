package advisory

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"skywise/internal/types"
)

const promptText = `
Based on the following weather data and rule-based conclusions, generate a friendly and descriptive weather forecast.

**Weather Data:**
- Temperature: {{fact .Facts "temp"}}°C
- Feels Like: {{fact .Facts "feels_like"}}°C
- Humidity: {{fact .Facts "humidity"}}%
- Wind Speed: {{fact .Facts "wind_speed"}} m/s
- Cloudiness: {{fact .Facts "clouds"}}%
- Pressure: {{fact .Facts "pressure"}} hPa
- Main Condition: {{fact .Facts "main_condition"}}

**Expert System Conclusions:**
{{if .Conclusions}}{{join .Conclusions}}{{else}}No specific conclusions.{{end}}

**Your Task:**
Write a short, engaging weather report. Be conversational and helpful. For example, if there's a high UV index, advise wearing sunscreen. If it's stormy, suggest staying indoors.
`

type promptData struct {
	Facts       types.FactSet
	Conclusions []types.Label
}

var promptTemplate = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"fact": FormatFact,
	"join": func(ls []types.Label) string { return strings.Join(types.LabelStrings(ls), ", ") },
}).Parse(promptText))

// BuildPrompt renders the narrative prompt. Missing facts render as "N/A".
func BuildPrompt(facts types.FactSet, conclusions []types.Label) string {
	var sb strings.Builder
	// The template is static and every func is total, so Execute cannot fail.
	_ = promptTemplate.Execute(&sb, promptData{Facts: facts, Conclusions: conclusions})
	return sb.String()
}

// FormatFact renders a fact value for display. Floats use the shortest
// representation ("12.5", "88"); a missing fact is "N/A".
func FormatFact(facts types.FactSet, name string) string {
	v, ok := facts[name]
	if !ok || v == nil {
		return "N/A"
	}
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
