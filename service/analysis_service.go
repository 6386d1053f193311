// service/analysis_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/analysis"
	"github.com/arbiterhq/arbiter/audit"
	"github.com/arbiterhq/arbiter/dao"
	logger "github.com/arbiterhq/arbiter/logging"
	"github.com/arbiterhq/arbiter/model"
	"github.com/arbiterhq/arbiter/util"
)

type IAnalysisService interface {
	RunAnalysis(ctx context.Context, actor string) (*model.AnalysisReport, error)
	BuildOverlapMatrix(ctx context.Context) ([]model.OverlapRecord, error)
}

// AnalysisService runs the conflict detection passes over a fresh
// directory snapshot and notifies on critical findings.
type AnalysisService struct {
	directoryDAO    *dao.DirectoryDAO
	auditService    audit.Service
	notificationSvc *util.NotificationService
}

func NewAnalysisService(directoryDAO *dao.DirectoryDAO, auditService audit.Service, notificationSvc *util.NotificationService) *AnalysisService {
	return &AnalysisService{
		directoryDAO:    directoryDAO,
		auditService:    auditService,
		notificationSvc: notificationSvc,
	}
}

func (s *AnalysisService) RunAnalysis(ctx context.Context, actor string) (*model.AnalysisReport, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	report, err := analysis.Run(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	if err := s.auditService.LogAnalysis(ctx, actor, len(report.Conflicts), report.FailedPasses); err != nil {
		logger.Warn("Failed to audit analysis run", zap.Error(err), zap.String("actor", actor))
	}

	critical := make([]model.Conflict, 0)
	for _, conflict := range report.Conflicts {
		if conflict.Severity == model.SeverityCritical {
			critical = append(critical, conflict)
		}
	}
	if len(critical) > 0 {
		if err := s.notificationSvc.NotifyCriticalConflicts(ctx, critical); err != nil {
			logger.Warn("Failed to notify critical conflicts", zap.Error(err), zap.Int("count", len(critical)))
		}
	}

	logger.Info("Policy analysis completed",
		zap.String("actor", actor),
		zap.Int("conflicts", len(report.Conflicts)),
		zap.Int("critical", len(critical)),
		zap.Strings("failedPasses", report.FailedPasses))
	return report, nil
}

func (s *AnalysisService) BuildOverlapMatrix(ctx context.Context) ([]model.OverlapRecord, error) {
	snapshot, err := s.directoryDAO.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.BuildOverlapMatrix(snapshot.ActivePolicies()), nil
}
