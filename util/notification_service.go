// util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
)

type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyPolicyChange(ctx context.Context, changeType string, policy model.Policy) error {
	// In a real deployment this would publish to a message queue or
	// external notification channel.
	switch changeType {
	case "created", "updated", "deleted":
		logger.Info("NOTIFICATION: Policy "+changeType,
			zap.String("policyID", policy.ID),
			zap.String("policyName", policy.Name))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}
	return nil
}

// NotifyCriticalConflicts raises a notification when an analysis run
// surfaces critical findings.
func (n *NotificationService) NotifyCriticalConflicts(ctx context.Context, conflicts []model.Conflict) error {
	critical := 0
	for _, c := range conflicts {
		if c.Severity == model.SeverityCritical {
			critical++
		}
	}
	if critical == 0 {
		return nil
	}
	logger.Warn("NOTIFICATION: Critical policy conflicts detected",
		zap.Int("critical", critical),
		zap.Int("total", len(conflicts)))
	return nil
}
