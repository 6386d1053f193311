// audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

// Entry categories.
const (
	CategoryDecision = "decision"
	CategoryAnalysis = "analysis"
	CategoryMutation = "mutation"
)

type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Category  string          `json:"category"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	EntityID  string          `json:"entity_id,omitempty"`
	Decision  string          `json:"decision,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}
