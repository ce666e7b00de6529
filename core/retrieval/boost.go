package retrieval

import (
	"strings"

	"github.com/vmaslov/docqa/model"
)

// BoostRule promotes highly specific chunks for a category of questions. If
// any trigger appears in the question, a narrowed vector query restricted to
// chunks containing all required markers runs before the general stages, and
// hits above the threshold receive the bonus on top of their similarity.
type BoostRule struct {
	// Name becomes the strategy tag of boosted results.
	Name string
	// Triggers are substrings matched against the lower-cased question.
	Triggers []string
	// RequiredMarkers must all be present in a chunk's content.
	RequiredMarkers []string
	// Threshold is the minimum raw similarity for a boosted hit.
	Threshold float64
	// Bonus is added to the similarity of every hit.
	Bonus float64
	// Limit caps the number of boosted hits.
	Limit int
}

// Triggered reports whether the rule applies to the question.
func (r BoostRule) Triggered(question string) bool {
	questionLower := strings.ToLower(question)
	for _, trigger := range r.Triggers {
		if strings.Contains(questionLower, trigger) {
			return true
		}
	}
	return false
}

// Strategy returns the strategy tag for results of this rule.
func (r BoostRule) Strategy() model.SearchStrategy {
	return model.SearchStrategy(r.Name)
}

// DefaultBoostRules covers questions about payroll dates: chunks naming the
// concrete advance and salary payout days of month outrank generic payroll
// prose.
func DefaultBoostRules() []BoostRule {
	return []BoostRule{
		{
			Name:            "salary_specific",
			Triggers:        []string{"зарплата", "заработная плата", "выплачивается", "выплата", "оплата труда"},
			RequiredMarkers: []string{"12", "27", "выплачивается"},
			Threshold:       0.3,
			Bonus:           0.2,
			Limit:           3,
		},
	}
}
