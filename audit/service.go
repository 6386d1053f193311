// audit/service.go
package audit

import (
	"context"
	"encoding/json"
	"time"

	pdp_model "github.com/arbiterhq/arbiter/pdp/model"
)

type Service interface {
	LogDecision(ctx context.Context, request *pdp_model.AccessRequest, decision *pdp_model.Decision) error
	LogAnalysis(ctx context.Context, actor string, conflicts int, failedPasses []string) error
	LogMutation(ctx context.Context, actor, action, entityID string) error
	QueryEntries(ctx context.Context, from, to time.Time, category, actor string) ([]Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogDecision(ctx context.Context, request *pdp_model.AccessRequest, decision *pdp_model.Decision) error {
	details, err := json.Marshal(decision)
	if err != nil {
		return err
	}
	return s.repo.Index(ctx, Entry{
		Timestamp: time.Now(),
		Category:  CategoryDecision,
		Actor:     request.Subject.ID,
		Action:    request.Action,
		EntityID:  request.Resource.ID,
		Decision:  decision.Decision,
		Details:   details,
	})
}

func (s *service) LogAnalysis(ctx context.Context, actor string, conflicts int, failedPasses []string) error {
	details, err := json.Marshal(map[string]interface{}{
		"conflicts":     conflicts,
		"failed_passes": failedPasses,
	})
	if err != nil {
		return err
	}
	return s.repo.Index(ctx, Entry{
		Timestamp: time.Now(),
		Category:  CategoryAnalysis,
		Actor:     actor,
		Action:    "analyze",
		Details:   details,
	})
}

func (s *service) LogMutation(ctx context.Context, actor, action, entityID string) error {
	return s.repo.Index(ctx, Entry{
		Timestamp: time.Now(),
		Category:  CategoryMutation,
		Actor:     actor,
		Action:    action,
		EntityID:  entityID,
	})
}

func (s *service) QueryEntries(ctx context.Context, from, to time.Time, category, actor string) ([]Entry, error) {
	return s.repo.Query(ctx, from, to, category, actor)
}
