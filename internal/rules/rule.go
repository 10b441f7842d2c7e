// Package rules holds the weather rule table and its evaluator.
//
// A Rule pairs an ordered list of conditions over named facts with a single
// conclusion label. Evaluation is single-pass: every rule is tested against
// the same fact set, no rule sees another rule's conclusion, and the
// conclusions come back in table order.
package rules

import (
	"encoding/json"
	"math"
	"slices"

	"skywise/internal/types"
)

// Rule is an implication "if all Conditions hold, Conclusion applies".
type Rule struct {
	Name       string           `json:"name"`
	Conditions types.Conditions `json:"conditions"`
	Conclusion types.Label      `json:"conclusion"`
}

// Matches reports whether every condition of the rule holds for facts.
// Conditions are tested in order and evaluation stops at the first miss.
func (r Rule) Matches(facts types.FactSet) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !conditionHolds(c, facts) {
			return false
		}
	}
	return true
}

func (r Rule) clone() Rule {
	conds := make(types.Conditions, len(r.Conditions))
	for i, c := range r.Conditions {
		c.Threshold = slices.Clone(c.Threshold)
		c.Values = slices.Clone(c.Values)
		conds[i] = c
	}
	return Rule{Name: r.Name, Conditions: conds, Conclusion: r.Conclusion}
}

// conditionHolds is false when the fact is missing, when its value has a type
// the operator cannot compare, or when the comparison itself is false.
func conditionHolds(c types.Condition, facts types.FactSet) bool {
	raw, ok := facts[c.Variable]
	if !ok {
		return false
	}

	if c.Operator == types.OpIn {
		s, ok := raw.(string)
		if !ok {
			return false
		}
		return slices.Contains(c.Values, s)
	}

	v, ok := numericValue(raw)
	if !ok || len(c.Threshold) < c.Operator.Arity() {
		return false
	}

	switch c.Operator {
	case types.OpGreaterThan:
		return v > c.Threshold[0]
	case types.OpGreaterThanEq:
		return v >= c.Threshold[0]
	case types.OpLessThan:
		return v < c.Threshold[0]
	case types.OpLessThanEq:
		return v <= c.Threshold[0]
	case types.OpEqual:
		return v == c.Threshold[0]
	case types.OpNotEqual:
		return v != c.Threshold[0]
	case types.OpBetween:
		return v >= c.Threshold[0] && v <= c.Threshold[1]
	default:
		return false
	}
}

// numericValue converts a fact value to float64. Strings, bools, nil, NaN and
// anything else without a numeric reading report ok=false.
func numericValue(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int8:
		v = float64(n)
	case int16:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint8:
		v = float64(n)
	case uint16:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case *float64:
		if n == nil {
			return 0, false
		}
		v = *n
	default:
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
