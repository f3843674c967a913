package models

import "time"

// AdminAuditLog 后台操作审计日志
// 说明：每个写操作产生一条记录，支持按管理员、动作与时间范围检索。
type AdminAuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AdminID     uint      `gorm:"index;not null" json:"admin_id"`
	Username    string    `gorm:"type:varchar(100);index;not null;default:''" json:"username"`
	Action      string    `gorm:"type:varchar(100);index;not null" json:"action"`
	TargetTable string    `gorm:"type:varchar(100);index;not null;default:''" json:"target_table"`
	TargetID    *uint     `gorm:"index" json:"target_id,omitempty"`
	Description string    `gorm:"type:text" json:"description"`
	RequestID   string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AdminAuditLog) TableName() string {
	return "admin_audit_logs"
}
