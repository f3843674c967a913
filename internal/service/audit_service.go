package service

import (
	"strings"
	"time"

	"github.com/fupan-admin/internal/logger"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/queue"
	"github.com/fupan-admin/internal/repository"
)

// AuditRecordInput 审计日志记录输入
type AuditRecordInput struct {
	AdminID     uint
	Username    string
	Action      string
	TargetTable string
	TargetID    *uint
	Description string
	RequestID   string
}

// AuditService 后台操作审计服务
// 队列可用时异步落库，不可用时同步写入。落库失败只记日志，不阻断业务操作。
type AuditService struct {
	repo        repository.AdminAuditLogRepository
	queueClient *queue.Client
}

// NewAuditService 创建审计服务
func NewAuditService(repo repository.AdminAuditLogRepository, queueClient *queue.Client) *AuditService {
	return &AuditService{
		repo:        repo,
		queueClient: queueClient,
	}
}

// Record 记录一条审计日志
func (s *AuditService) Record(input AuditRecordInput) {
	if s == nil || s.repo == nil {
		return
	}
	if input.AdminID == 0 || strings.TrimSpace(input.Action) == "" {
		return
	}

	now := time.Now()
	if s.queueClient.Enabled() {
		payload := queue.AuditLogPayload{
			AdminID:     input.AdminID,
			Username:    strings.TrimSpace(input.Username),
			Action:      strings.TrimSpace(input.Action),
			TargetTable: strings.TrimSpace(input.TargetTable),
			TargetID:    input.TargetID,
			Description: strings.TrimSpace(input.Description),
			RequestID:   strings.TrimSpace(input.RequestID),
			OccurredAt:  now,
		}
		if err := s.queueClient.EnqueueAuditLog(payload); err == nil {
			return
		}
		logger.Warnw("audit_log_enqueue_failed_fallback_sync", "action", input.Action)
	}

	if err := s.Persist(input, now); err != nil {
		logger.Errorw("audit_log_persist_failed",
			"error", err,
			"admin_id", input.AdminID,
			"action", input.Action,
		)
	}
}

// Persist 同步写入审计日志
func (s *AuditService) Persist(input AuditRecordInput, occurredAt time.Time) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	item := &models.AdminAuditLog{
		AdminID:     input.AdminID,
		Username:    strings.TrimSpace(input.Username),
		Action:      strings.TrimSpace(input.Action),
		TargetTable: strings.TrimSpace(input.TargetTable),
		TargetID:    input.TargetID,
		Description: strings.TrimSpace(input.Description),
		RequestID:   strings.TrimSpace(input.RequestID),
		CreatedAt:   occurredAt,
	}
	return s.repo.Create(item)
}

// List 查询审计日志列表
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	if s == nil || s.repo == nil {
		return []models.AdminAuditLog{}, 0, nil
	}
	logs, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrAuditLogFetchFailed
	}
	return logs, total, nil
}
