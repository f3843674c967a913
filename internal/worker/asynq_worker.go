package worker

import (
	"context"
	"encoding/json"

	"github.com/fupan-admin/internal/logger"
	"github.com/fupan-admin/internal/provider"
	"github.com/fupan-admin/internal/queue"
	"github.com/fupan-admin/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuditLog, c.handleAuditLog)
}

func (c *Consumer) handleAuditLog(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_audit_log_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AuditLogPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_audit_log_unmarshal_failed", "error", err)
		return err
	}
	if payload.AdminID == 0 || payload.Action == "" {
		logger.Debugw("worker_audit_log_skip_invalid_payload", "admin_id", payload.AdminID, "action", payload.Action)
		return nil
	}
	if c.AuditService == nil {
		logger.Warnw("worker_audit_log_skip_service_nil", "action", payload.Action)
		return nil
	}
	input := service.AuditRecordInput{
		AdminID:     payload.AdminID,
		Username:    payload.Username,
		Action:      payload.Action,
		TargetTable: payload.TargetTable,
		TargetID:    payload.TargetID,
		Description: payload.Description,
		RequestID:   payload.RequestID,
	}
	if err := c.AuditService.Persist(input, payload.OccurredAt); err != nil {
		logger.Warnw("worker_audit_log_persist_failed",
			"admin_id", payload.AdminID,
			"action", payload.Action,
			"error", err,
		)
		return err
	}
	return nil
}
