package queue

import (
	"encoding/json"
	"time"

	"github.com/fupan-admin/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditLog 审计日志落库任务
	TaskAuditLog = constants.TaskAuditLog
)

// AuditLogPayload 审计日志任务载荷
type AuditLogPayload struct {
	AdminID     uint      `json:"admin_id"`
	Username    string    `json:"username"`
	Action      string    `json:"action"`
	TargetTable string    `json:"target_table"`
	TargetID    *uint     `json:"target_id,omitempty"`
	Description string    `json:"description"`
	RequestID   string    `json:"request_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewAuditLogTask 创建审计日志任务
func NewAuditLogTask(payload AuditLogPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditLog, body), nil
}
