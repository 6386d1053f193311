// pdp/engine/condition.go
package engine

import (
	"strings"

	"github.com/arbiterhq/arbiter/model"
)

// Matches evaluates a single attribute condition against a concrete
// request value. Unknown operators and incompatible value shapes are
// not errors: they evaluate to non-match, and the caller reports the
// degradation.
func Matches(cond model.AttributeCondition, actual interface{}) bool {
	switch cond.Operator {
	case model.OpEquals:
		eq, ok := valueEquals(cond.Value, actual)
		return ok && eq
	case model.OpNotEquals:
		eq, ok := valueEquals(cond.Value, actual)
		return ok && !eq
	case model.OpContains:
		return containsMatch(cond.Value, actual)
	case model.OpIn:
		in, ok := membershipMatch(cond.Value, actual)
		return ok && in
	case model.OpNotIn:
		in, ok := membershipMatch(cond.Value, actual)
		return ok && !in
	case model.OpGreaterThan:
		cmp, ok := compareOrdered(cond.Value, actual)
		return ok && cmp > 0
	case model.OpLessThan:
		cmp, ok := compareOrdered(cond.Value, actual)
		return ok && cmp < 0
	default:
		return false
	}
}

// ConditionsOverlap reports whether two conditions could be satisfied
// by the same value. Used by conflict analysis only; never consulted
// for decisions. Operator combinations without an exact overlap rule
// conservatively return true: false positives are preferred over
// missed conflicts.
func ConditionsOverlap(a, b model.AttributeCondition) bool {
	if a.Attribute != b.Attribute {
		return false
	}
	if a.Operator == model.OpEquals && b.Operator == model.OpEquals {
		return a.Value.Equal(b.Value)
	}
	if a.Operator == model.OpIn && b.Operator == model.OpIn {
		return listsIntersect(a.Value.List, b.Value.List)
	}
	return true
}

// valueEquals compares a condition value with a request value. The
// second return is false when the shapes are incomparable.
func valueEquals(v model.AttributeValue, actual interface{}) (equal, comparable bool) {
	switch v.Kind {
	case model.ValueString:
		s, ok := actual.(string)
		return ok && s == v.Str, ok
	case model.ValueNumber:
		n, ok := toFloat(actual)
		return ok && n == v.Num, ok
	case model.ValueBool:
		b, ok := actual.(bool)
		return ok && b == v.Bool, ok
	default:
		return false, false
	}
}

// containsMatch handles the substring/membership semantics of the
// contains operator: a string value is a substring test against a
// string attribute or a membership test against a list attribute; a
// list value is a membership test for a string attribute.
func containsMatch(v model.AttributeValue, actual interface{}) bool {
	switch v.Kind {
	case model.ValueString:
		switch a := actual.(type) {
		case string:
			return strings.Contains(a, v.Str)
		case []string:
			return stringInList(a, v.Str)
		case []interface{}:
			return stringInList(toStringList(a), v.Str)
		}
	case model.ValueStringList:
		if s, ok := actual.(string); ok {
			return stringInList(v.List, s)
		}
	}
	return false
}

func membershipMatch(v model.AttributeValue, actual interface{}) (in, comparable bool) {
	if v.Kind != model.ValueStringList {
		return false, false
	}
	s, ok := actual.(string)
	if !ok {
		return false, false
	}
	return stringInList(v.List, s), true
}

// compareOrdered returns the sign of actual relative to the condition
// value, for ordered shapes only.
func compareOrdered(v model.AttributeValue, actual interface{}) (cmp int, ok bool) {
	switch v.Kind {
	case model.ValueNumber:
		n, ok := toFloat(actual)
		if !ok {
			return 0, false
		}
		switch {
		case n > v.Num:
			return 1, true
		case n < v.Num:
			return -1, true
		default:
			return 0, true
		}
	case model.ValueString:
		s, ok := actual.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(s, v.Str), true
	}
	return 0, false
}

func toFloat(actual interface{}) (float64, bool) {
	switch n := actual.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toStringList(items []interface{}) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringInList(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func listsIntersect(a, b []string) bool {
	for _, item := range a {
		if stringInList(b, item) {
			return true
		}
	}
	return false
}
