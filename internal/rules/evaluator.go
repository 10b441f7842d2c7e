package rules

import "skywise/internal/types"

// Match records a rule that fired during evaluation.
type Match struct {
	// Index is the 1-based position of the rule in its table.
	Index      int         `json:"index"`
	Rule       string      `json:"rule"`
	Conclusion types.Label `json:"conclusion"`
}

// Evaluate tests every rule of the table against facts and returns the
// conclusions of the rules whose conditions all hold, in table order.
//
// Evaluate never fails: a missing fact, or a value the operator cannot
// compare, makes that condition false. facts is not modified. The result is
// never nil.
func (t *Table) Evaluate(facts types.FactSet) []types.Label {
	conclusions := make([]types.Label, 0, 4)
	if t == nil {
		return conclusions
	}
	for _, r := range t.rules {
		if r.Matches(facts) {
			conclusions = append(conclusions, r.Conclusion)
		}
	}
	return conclusions
}

// Explain is Evaluate with the firing rule attached to each conclusion.
func (t *Table) Explain(facts types.FactSet) []Match {
	matches := make([]Match, 0, 4)
	if t == nil {
		return matches
	}
	for i, r := range t.rules {
		if r.Matches(facts) {
			matches = append(matches, Match{Index: i + 1, Rule: r.Name, Conclusion: r.Conclusion})
		}
	}
	return matches
}

// Evaluate runs facts against table. A nil table yields no conclusions.
func Evaluate(facts types.FactSet, table *Table) []types.Label {
	return table.Evaluate(facts)
}
