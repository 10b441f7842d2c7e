package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition defines a threshold-based test of a single named fact.
//
// Numeric operators read Threshold; OpBetween is inclusive on both ends and
// expects Threshold[0] <= Threshold[1]. OpIn reads Values and only matches
// string facts.
type Condition struct {
	Variable  string            `json:"variable"`
	Operator  ConditionOperator `json:"operator"`
	Threshold []float64         `json:"threshold,omitempty"`
	Values    []string          `json:"values,omitempty"`
	Unit      string            `json:"unit,omitempty"`
}

// String renders the condition the way a forecaster would write it,
// e.g. "temp > 35" or "30 <= temp <= 35".
func (c Condition) String() string {
	switch c.Operator {
	case OpBetween:
		if len(c.Threshold) == 2 {
			return fmt.Sprintf("%s <= %s <= %s", formatThreshold(c.Threshold[0]), c.Variable, formatThreshold(c.Threshold[1]))
		}
	case OpIn:
		return fmt.Sprintf("%s in [%s]", c.Variable, strings.Join(c.Values, ", "))
	default:
		if len(c.Threshold) == 1 {
			return fmt.Sprintf("%s %s %s", c.Variable, c.Operator, formatThreshold(c.Threshold[0]))
		}
	}
	return fmt.Sprintf("%s %s %v", c.Variable, c.Operator, c.Threshold)
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Conditions is an ordered list of Condition, all of which must hold.
type Conditions []Condition

// String joins the conditions with AND.
func (c Conditions) String() string {
	parts := make([]string, len(c))
	for i, cond := range c {
		parts[i] = cond.String()
	}
	return strings.Join(parts, " AND ")
}
