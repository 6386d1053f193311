package model

import "time"

// AccessRequest is a fully resolved authorization question: the caller
// has already expanded subject and resource ids into concrete attribute
// values before evaluation.
type AccessRequest struct {
	Subject     Subject                `json:"subject"`
	Resource    Resource               `json:"resource"`
	Action      string                 `json:"action"`
	Environment map[string]interface{} `json:"environment,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

type Subject struct {
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

type Resource struct {
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}
