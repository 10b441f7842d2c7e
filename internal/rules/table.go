package rules

import (
	"errors"
	"fmt"

	"skywise/internal/types"
)

// Table construction errors.
var (
	ErrNoConditions     = errors.New("rule has no conditions")
	ErrNoConclusion     = errors.New("rule has no conclusion")
	ErrInvalidOperator  = errors.New("unknown condition operator")
	ErrInvalidThreshold = errors.New("invalid threshold for operator")
)

// Table is an immutable, ordered collection of rules. Order is significant:
// Evaluate returns conclusions in the order their rules appear here.
// A Table is safe for concurrent use.
type Table struct {
	rules []Rule
}

// NewTable validates and copies rules into a new Table. Every rule needs at
// least one condition, a conclusion, known operators and the right number of
// thresholds for each operator.
func NewTable(rules ...Rule) (*Table, error) {
	copied := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i+1, r.Name, err)
		}
		copied = append(copied, r.clone())
	}
	return &Table{rules: copied}, nil
}

// MustNewTable is like NewTable but panics on an invalid rule. It is meant for
// tables declared in code.
func MustNewTable(rules ...Rule) *Table {
	t, err := NewTable(rules...)
	if err != nil {
		panic(err)
	}
	return t
}

func validateRule(r Rule) error {
	if len(r.Conditions) == 0 {
		return ErrNoConditions
	}
	if r.Conclusion == "" {
		return ErrNoConclusion
	}
	for _, c := range r.Conditions {
		if !c.Operator.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
		}
		if c.Operator == types.OpIn {
			if len(c.Values) == 0 {
				return fmt.Errorf("%w: %s needs at least one value", ErrInvalidThreshold, c.Variable)
			}
			continue
		}
		if len(c.Threshold) != c.Operator.Arity() {
			return fmt.Errorf("%w: %s %s expects %d threshold(s), got %d",
				ErrInvalidThreshold, c.Variable, c.Operator, c.Operator.Arity(), len(c.Threshold))
		}
		if c.Operator == types.OpBetween && c.Threshold[0] > c.Threshold[1] {
			return fmt.Errorf("%w: %s between bounds reversed", ErrInvalidThreshold, c.Variable)
		}
	}
	return nil
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the table's rules in order. Mutating the result
// does not affect the table.
func (t *Table) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.clone()
	}
	return out
}

// Labels returns every conclusion the table can produce, in table order.
func (t *Table) Labels() []types.Label {
	if t == nil {
		return nil
	}
	out := make([]types.Label, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.Conclusion
	}
	return out
}
