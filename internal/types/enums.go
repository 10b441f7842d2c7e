package types

// ConditionOperator defines comparison operators for condition evaluation.
type ConditionOperator string

const (
	OpGreaterThan   ConditionOperator = ">"
	OpGreaterThanEq ConditionOperator = ">="
	OpLessThan      ConditionOperator = "<"
	OpLessThanEq    ConditionOperator = "<="
	OpEqual         ConditionOperator = "=="
	OpNotEqual      ConditionOperator = "!="
	OpBetween       ConditionOperator = "between"
	// OpIn matches a categorical (string) fact against a set of values.
	OpIn ConditionOperator = "in"
)

// Arity returns the number of numeric thresholds the operator consumes.
// OpIn consumes no thresholds; it compares against Condition.Values instead.
func (o ConditionOperator) Arity() int {
	switch o {
	case OpBetween:
		return 2
	case OpIn:
		return 0
	default:
		return 1
	}
}

// IsValid reports whether o is one of the known operators.
func (o ConditionOperator) IsValid() bool {
	switch o {
	case OpGreaterThan, OpGreaterThanEq, OpLessThan, OpLessThanEq,
		OpEqual, OpNotEqual, OpBetween, OpIn:
		return true
	default:
		return false
	}
}

// AdvisoryOutcome classifies the result of a single advisory request for telemetry.
type AdvisoryOutcome string

const (
	OutcomeSuccess          AdvisoryOutcome = "success"
	OutcomeNarrativeFailed  AdvisoryOutcome = "narrative_failed"
	OutcomeWeatherFailed    AdvisoryOutcome = "weather_failed"
	OutcomeValidationFailed AdvisoryOutcome = "validation_failed"
)
