package advisory

import "skywise/internal/types"

// DefaultPictorial is shown for labels without a dedicated symbol.
const DefaultPictorial = "🌍"

var pictorials = map[types.Label]string{
	types.LabelClearSkies:       "☀️",
	types.LabelPleasantAndSunny: "😊",
	types.LabelOvercast:         "☁️",
	types.LabelLightRain:        "🌦️",
	types.LabelHeavyRain:        "🌧️",
	types.LabelThunderstorms:    "⛈️",
	types.LabelSnowfall:         "❄️",
	types.LabelStormy:           "🌪️",
	types.LabelWindy:            "💨",
	types.LabelStrongWind:       "🚩",
	types.LabelFogOrMist:        "🌫️",
	types.LabelExtremelyHot:     "🥵",
	types.LabelVeryHot:          "🔥",
	types.LabelFreezingCold:     "🥶",
	types.LabelHighUV:           "😎",
	types.LabelLowVisibility:    "👀",
}

// Pictorial returns the symbol for label, or DefaultPictorial.
func Pictorial(label types.Label) string {
	if p, ok := pictorials[label]; ok {
		return p
	}
	return DefaultPictorial
}

// Conclusion is a fired label paired with its pictorial.
type Conclusion struct {
	Label     types.Label `json:"label"`
	Pictorial string      `json:"pictorial"`
}

// Decorate pairs each label with its pictorial, preserving order.
func Decorate(labels []types.Label) []Conclusion {
	out := make([]Conclusion, len(labels))
	for i, l := range labels {
		out[i] = Conclusion{Label: l, Pictorial: Pictorial(l)}
	}
	return out
}
