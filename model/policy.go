// model/policy.go
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Policy effects.
const (
	EffectAllow = "allow"
	EffectDeny  = "deny"
)

// Policy statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDraft    = "draft"
)

// Condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
)

// ActionWildcard matches any request action.
const ActionWildcard = "*"

type Policy struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Effect          string       `json:"effect"` // "allow" or "deny"
	Priority        int          `json:"priority"`
	Status          string       `json:"status"` // "active", "inactive" or "draft"
	Rules           []PolicyRule `json:"rules"`
	ApplicableRoles []string     `json:"applicable_roles,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type PolicyRule struct {
	Subject     []AttributeCondition `json:"subject"`
	Resource    []AttributeCondition `json:"resource"`
	Actions     []string             `json:"actions"`
	Environment []AttributeCondition `json:"environment,omitempty"`
}

// AttributeCondition compares one attribute of the request against a
// fixed value. Immutable once attached to a rule.
type AttributeCondition struct {
	Attribute string         `json:"attribute"`
	Operator  string         `json:"operator"`
	Value     AttributeValue `json:"value"`
}

// ValueKind discriminates the shapes an AttributeValue can take.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueStringList
)

// AttributeValue is a tagged variant over the value shapes a condition
// may carry: string, number, boolean or string list.
type AttributeValue struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []string
}

func StringValue(s string) AttributeValue {
	return AttributeValue{Kind: ValueString, Str: s}
}

func NumberValue(n float64) AttributeValue {
	return AttributeValue{Kind: ValueNumber, Num: n}
}

func BoolValue(b bool) AttributeValue {
	return AttributeValue{Kind: ValueBool, Bool: b}
}

func ListValue(items ...string) AttributeValue {
	return AttributeValue{Kind: ValueStringList, List: items}
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueString:
		return json.Marshal(v.Str)
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueBool:
		return json.Marshal(v.Bool)
	case ValueStringList:
		return json.Marshal(v.List)
	default:
		return nil, fmt.Errorf("unknown value kind: %d", v.Kind)
	}
}

func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = StringValue(s)
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = ListValue(list...)
		return nil
	}
	return fmt.Errorf("unsupported condition value: %s", string(data))
}

// Equal reports whether two values have the same kind and content.
// List comparison is order-sensitive.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == other.Str
	case ValueNumber:
		return v.Num == other.Num
	case ValueBool:
		return v.Bool == other.Bool
	case ValueStringList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	}
	return false
}

func (v AttributeValue) String() string {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueNumber:
		return fmt.Sprintf("%g", v.Num)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueStringList:
		return fmt.Sprintf("%v", v.List)
	}
	return ""
}

// operatorShapes maps each operator to the value shapes it accepts.
var operatorShapes = map[string][]ValueKind{
	OpEquals:      {ValueString, ValueNumber, ValueBool},
	OpNotEquals:   {ValueString, ValueNumber, ValueBool},
	OpContains:    {ValueString, ValueStringList},
	OpIn:          {ValueStringList},
	OpNotIn:       {ValueStringList},
	OpGreaterThan: {ValueNumber, ValueString},
	OpLessThan:    {ValueNumber, ValueString},
}

// NewCondition builds an AttributeCondition, rejecting operator/value
// combinations that could never be evaluated instead of letting them
// degrade silently at evaluation time.
func NewCondition(attribute, operator string, value AttributeValue) (AttributeCondition, error) {
	shapes, ok := operatorShapes[operator]
	if !ok {
		return AttributeCondition{}, fmt.Errorf("unsupported operator: %q", operator)
	}
	for _, shape := range shapes {
		if value.Kind == shape {
			return AttributeCondition{Attribute: attribute, Operator: operator, Value: value}, nil
		}
	}
	return AttributeCondition{}, fmt.Errorf("operator %q does not accept value %s", operator, value)
}

// Conditions returns the rule's condition groups flattened in
// subject, resource, environment order.
func (r PolicyRule) Conditions() []AttributeCondition {
	all := make([]AttributeCondition, 0, len(r.Subject)+len(r.Resource)+len(r.Environment))
	all = append(all, r.Subject...)
	all = append(all, r.Resource...)
	all = append(all, r.Environment...)
	return all
}

// ConditionCount is the total number of conditions across all of the
// policy's rules and groups.
func (p Policy) ConditionCount() int {
	total := 0
	for _, rule := range p.Rules {
		total += len(rule.Conditions())
	}
	return total
}

// IsActive reports whether the policy participates in evaluation and
// analysis.
func (p Policy) IsActive() bool {
	return p.Status == StatusActive
}

// PolicySearchCriteria narrows a policy search. Zero-valued fields
// are ignored; a zero Limit means no limit.
type PolicySearchCriteria struct {
	Name        string `json:"name"`
	Effect      string `json:"effect"`
	MinPriority int    `json:"min_priority"`
	MaxPriority int    `json:"max_priority"`
	Status      string `json:"status"`
	Limit       int    `json:"limit"`
}

// Validate rejects criteria that could never match anything.
func (c PolicySearchCriteria) Validate() error {
	if c.Effect != "" && c.Effect != EffectAllow && c.Effect != EffectDeny {
		return fmt.Errorf("unknown effect %q", c.Effect)
	}
	if c.Status != "" && c.Status != StatusActive && c.Status != StatusInactive && c.Status != StatusDraft {
		return fmt.Errorf("unknown status %q", c.Status)
	}
	if c.MinPriority < 0 || c.MaxPriority < 0 {
		return fmt.Errorf("priority bounds must be non-negative")
	}
	if c.MaxPriority > 0 && c.MinPriority > c.MaxPriority {
		return fmt.Errorf("min_priority %d exceeds max_priority %d", c.MinPriority, c.MaxPriority)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	return nil
}
