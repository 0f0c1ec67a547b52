package notify

import (
	"strings"

	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/fieldpath"
)

// Evaluate reports whether the rule's conditions hold for data.
// No conditions always matches. AND stops at the first miss, OR at the first hit.
// Comparisons are exact and case sensitive.
func Evaluate(rule *domain.NotificationRule, data fieldpath.Getter) bool {
	if rule == nil {
		return false
	}
	if len(rule.Conditions) == 0 {
		return true
	}
	if rule.ConditionLogic == domain.LogicOr {
		for _, c := range rule.Conditions {
			if Match(c, data) {
				return true
			}
		}
		return false
	}
	for _, c := range rule.Conditions {
		if !Match(c, data) {
			return false
		}
	}
	return true
}

// Match applies a single condition. Unknown operators never match.
func Match(c domain.Condition, data fieldpath.Getter) bool {
	if !c.Operator.Valid() {
		return false
	}
	actual := fieldpath.String(data, c.Field)
	switch c.Operator {
	case domain.OpEquals:
		return actual == c.Value
	case domain.OpNotEquals:
		return actual != c.Value
	case domain.OpContains:
		return strings.Contains(actual, c.Value)
	case domain.OpNotContains:
		return !strings.Contains(actual, c.Value)
	}
	return false
}
