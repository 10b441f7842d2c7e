package types

// Label is a qualitative weather descriptor produced when a rule fires.
type Label string

// Conclusion labels emitted by the default rule table.
const (
	LabelExtremelyHot     Label = "Extremely Hot"
	LabelVeryHot          Label = "Very Hot"
	LabelPleasantAndSunny Label = "Pleasant and Sunny"
	LabelFreezingCold     Label = "Freezing Cold"
	LabelThunderstorms    Label = "High Chance of Thunderstorms"
	LabelFogOrMist        Label = "Fog or Mist Likely"
	LabelHeavyRain        Label = "Heavy Rain Expected"
	LabelLightRain        Label = "Light Rain or Drizzle"
	LabelStrongWind       Label = "Strong Wind Warning"
	LabelWindy            Label = "Windy Conditions"
	LabelOvercast         Label = "Overcast Skies"
	LabelClearSkies       Label = "Clear Skies"
	LabelSnowfall         Label = "Snowfall Likely"
	LabelStormy           Label = "Stormy Weather"
	LabelCloudyAndWarm    Label = "Cloudy and Warm"
	LabelDryAndHot        Label = "Dry and Hot Conditions"
	LabelLowVisibility    Label = "Low Visibility"
	LabelHighUV           Label = "High UV Index: Use Sun Protection"
	LabelLowPressure      Label = "Low Pressure System: Possible Storms"
	LabelHighPressure     Label = "High Pressure System: Fair Weather Expected"
)

// LabelStrings converts labels to plain strings, preserving order.
func LabelStrings(labels []Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
