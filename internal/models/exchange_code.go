package models

import "time"

// ExchangeCode 兑换码表
// 批次不是独立实体：batch_no 由同一次生成请求共享，批次视图按 batch_no 聚合得出。
// expired 不是落库状态，由 expires_at 与查询时刻推导。
type ExchangeCode struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                           // 主键
	Code         string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`              // 兑换码（生成后不可变）
	BatchNo      string     `gorm:"type:varchar(48);index;not null" json:"batch_no"`                // 批次号
	FaceValue    int        `gorm:"not null" json:"face_value"`                                     // 面值（金币）
	Status       string     `gorm:"type:varchar(24);index;not null;default:'unused'" json:"status"` // 状态（unused/used）
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at"`                                        // 过期时间（为空表示永久有效）
	UsedByUserID *uint      `gorm:"index" json:"used_by_user_id,omitempty"`                         // 兑换用户ID
	UsedAt       *time.Time `gorm:"index" json:"used_at"`                                           // 兑换时间
	CreatedBy    *uint      `gorm:"index" json:"created_by,omitempty"`                              // 创建管理员ID
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (ExchangeCode) TableName() string {
	return "exchange_codes"
}

// IsExpired 判断是否已过期
func (c ExchangeCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}
