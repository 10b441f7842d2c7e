package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skywise/internal/types"
)

func TestDefaultTableShape(t *testing.T) {
	table := Default()
	require.Equal(t, 20, table.Len())

	want := []types.Label{
		types.LabelExtremelyHot,
		types.LabelVeryHot,
		types.LabelPleasantAndSunny,
		types.LabelFreezingCold,
		types.LabelThunderstorms,
		types.LabelFogOrMist,
		types.LabelHeavyRain,
		types.LabelLightRain,
		types.LabelStrongWind,
		types.LabelWindy,
		types.LabelOvercast,
		types.LabelClearSkies,
		types.LabelSnowfall,
		types.LabelStormy,
		types.LabelCloudyAndWarm,
		types.LabelDryAndHot,
		types.LabelLowVisibility,
		types.LabelHighUV,
		types.LabelLowPressure,
		types.LabelHighPressure,
	}
	assert.Equal(t, want, table.Labels())

	names := make(map[string]bool)
	for _, r := range table.Rules() {
		assert.NotEmpty(t, r.Conditions, "rule %s has no conditions", r.Name)
		assert.False(t, names[r.Name], "duplicate rule name %s", r.Name)
		names[r.Name] = true
	}
}

func TestDefaultTableConditionText(t *testing.T) {
	rules := Default().Rules()
	assert.Equal(t, "temp > 35", rules[0].Conditions.String())
	assert.Equal(t, "30 <= temp <= 35", rules[1].Conditions.String())
	assert.Equal(t, "10 <= temp <= 20 AND clouds < 20", rules[2].Conditions.String())
	assert.Equal(t, "wind_speed > 30 AND precipitation_prob > 50", rules[13].Conditions.String())
	assert.Equal(t, "pressure > 1020", rules[19].Conditions.String())
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestRulesReturnsCopy(t *testing.T) {
	table := Default()
	copied := table.Rules()
	copied[0].Conclusion = "Tampered"
	copied[0].Conditions[0].Threshold[0] = -100

	fresh := table.Rules()
	assert.Equal(t, types.LabelExtremelyHot, fresh[0].Conclusion)
	assert.Equal(t, 35.0, fresh[0].Conditions[0].Threshold[0])
	assert.Equal(t, 20, table.Len())
	assert.Equal(t, []types.Label{types.LabelExtremelyHot}, table.Evaluate(types.FactSet{"temp": 36}))
}

func TestNewTableCopiesInput(t *testing.T) {
	in := []Rule{rule("hot", "Hot", gt(types.FactTemp, 30))}
	table, err := NewTable(in...)
	require.NoError(t, err)

	in[0].Conditions[0].Threshold[0] = 100

	assert.Equal(t, []types.Label{"Hot"}, table.Evaluate(types.FactSet{"temp": 31}))
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{
			name: "no conditions",
			rule: Rule{Name: "empty", Conclusion: "Nothing"},
			want: ErrNoConditions,
		},
		{
			name: "no conclusion",
			rule: Rule{Name: "silent", Conditions: types.Conditions{gt(types.FactTemp, 1)}},
			want: ErrNoConclusion,
		},
		{
			name: "unknown operator",
			rule: rule("approx", "About", types.Condition{Variable: types.FactTemp, Operator: "~=", Threshold: []float64{1}}),
			want: ErrInvalidOperator,
		},
		{
			name: "missing threshold",
			rule: rule("bare", "Bare", types.Condition{Variable: types.FactTemp, Operator: types.OpGreaterThan}),
			want: ErrInvalidThreshold,
		},
		{
			name: "between with one bound",
			rule: rule("half", "Half", types.Condition{Variable: types.FactTemp, Operator: types.OpBetween, Threshold: []float64{1}}),
			want: ErrInvalidThreshold,
		},
		{
			name: "between reversed",
			rule: rule("rev", "Reversed", between(types.FactTemp, 10, 5)),
			want: ErrInvalidThreshold,
		},
		{
			name: "in without values",
			rule: rule("none", "None", types.Condition{Variable: types.FactMainCondition, Operator: types.OpIn}),
			want: ErrInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.rule)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMustNewTablePanicsOnInvalidRule(t *testing.T) {
	assert.Panics(t, func() {
		MustNewTable(Rule{Name: "empty", Conclusion: "Nothing"})
	})
}

func TestCategoricalCondition(t *testing.T) {
	table, err := NewTable(
		rule("wet", "Wet",
			types.Condition{Variable: types.FactMainCondition, Operator: types.OpIn, Values: []string{"Rain", "Drizzle"}}),
		rule("not-zero-wind", "Breezy",
			types.Condition{Variable: types.FactWindSpeed, Operator: types.OpNotEqual, Threshold: []float64{0}}),
	)
	require.NoError(t, err)

	assert.Equal(t, []types.Label{"Wet"}, table.Evaluate(types.FactSet{"main_condition": "Rain"}))
	assert.Empty(t, table.Evaluate(types.FactSet{"main_condition": "Clear"}))
	assert.Empty(t, table.Evaluate(types.FactSet{"main_condition": 3}))
	assert.Equal(t, []types.Label{"Breezy"}, table.Evaluate(types.FactSet{"wind_speed": 2}))
	assert.Empty(t, table.Evaluate(types.FactSet{"wind_speed": "2"}))
}

func TestDuplicateConclusionsAreKept(t *testing.T) {
	table := MustNewTable(
		rule("a", "Hot", gt(types.FactTemp, 30)),
		rule("b", "Hot", gt(types.FactFeelsLike, 30)),
	)
	assert.Equal(t, []types.Label{"Hot", "Hot"}, table.Evaluate(types.FactSet{"temp": 31, "feels_like": 33}))
}
