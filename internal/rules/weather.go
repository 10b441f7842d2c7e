package rules

import "skywise/internal/types"

// defaultTable is built once at package initialization and never modified.
var defaultTable = MustNewTable(weatherRules()...)

// Default returns the built-in weather rule table (20 rules).
func Default() *Table {
	return defaultTable
}

func gt(fact string, v float64) types.Condition {
	return types.Condition{Variable: fact, Operator: types.OpGreaterThan, Threshold: []float64{v}, Unit: unitOf(fact)}
}

func lt(fact string, v float64) types.Condition {
	return types.Condition{Variable: fact, Operator: types.OpLessThan, Threshold: []float64{v}, Unit: unitOf(fact)}
}

func between(fact string, lo, hi float64) types.Condition {
	return types.Condition{Variable: fact, Operator: types.OpBetween, Threshold: []float64{lo, hi}, Unit: unitOf(fact)}
}

func unitOf(fact string) string {
	switch fact {
	case types.FactTemp, types.FactFeelsLike:
		return "°C"
	case types.FactHumidity, types.FactClouds, types.FactPrecipitationProb:
		return "%"
	case types.FactWindSpeed:
		return "m/s"
	case types.FactPressure:
		return "hPa"
	case types.FactVisibility:
		return "m"
	default:
		return ""
	}
}

func rule(name string, label types.Label, conds ...types.Condition) Rule {
	return Rule{Name: name, Conditions: conds, Conclusion: label}
}

// weatherRules lists the rules in evaluation order. Grouping is informal;
// only the order matters.
func weatherRules() []Rule {
	return []Rule{
		// Temperature
		rule("extreme-heat", types.LabelExtremelyHot,
			gt(types.FactTemp, 35)),
		rule("very-hot", types.LabelVeryHot,
			between(types.FactTemp, 30, 35)),
		rule("pleasant-sunny", types.LabelPleasantAndSunny,
			between(types.FactTemp, 10, 20), lt(types.FactClouds, 20)),
		rule("freezing", types.LabelFreezingCold,
			lt(types.FactTemp, 0)),

		// Humidity and rain
		rule("thunderstorms", types.LabelThunderstorms,
			gt(types.FactHumidity, 85), gt(types.FactTemp, 25)),
		rule("fog-mist", types.LabelFogOrMist,
			gt(types.FactHumidity, 80), lt(types.FactWindSpeed, 10)),
		rule("heavy-rain", types.LabelHeavyRain,
			gt(types.FactPrecipitationProb, 70)),
		rule("light-rain", types.LabelLightRain,
			between(types.FactPrecipitationProb, 40, 70)),

		// Wind
		rule("strong-wind", types.LabelStrongWind,
			gt(types.FactWindSpeed, 50)),
		rule("windy", types.LabelWindy,
			between(types.FactWindSpeed, 25, 50)),

		// Clouds
		rule("overcast", types.LabelOvercast,
			gt(types.FactClouds, 80)),
		rule("clear-skies", types.LabelClearSkies,
			lt(types.FactClouds, 10)),

		// Combinations
		rule("snowfall", types.LabelSnowfall,
			lt(types.FactTemp, 5), gt(types.FactPrecipitationProb, 50)),
		rule("stormy", types.LabelStormy,
			gt(types.FactWindSpeed, 30), gt(types.FactPrecipitationProb, 50)),
		rule("cloudy-warm", types.LabelCloudyAndWarm,
			gt(types.FactClouds, 60), gt(types.FactTemp, 20)),
		rule("dry-hot", types.LabelDryAndHot,
			lt(types.FactHumidity, 30), gt(types.FactTemp, 25)),
		rule("low-visibility", types.LabelLowVisibility,
			lt(types.FactVisibility, 1000)),

		// UV
		rule("high-uv", types.LabelHighUV,
			gt(types.FactUVIndex, 8)),

		// Pressure
		rule("low-pressure", types.LabelLowPressure,
			lt(types.FactPressure, 1000)),
		rule("high-pressure", types.LabelHighPressure,
			gt(types.FactPressure, 1020)),
	}
}
