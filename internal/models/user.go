package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
// 后台只关心金币余额与统计口径，不承载前台账号体系的全部字段。
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                           // 主键
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`                              // 邮箱
	Nickname  string         `gorm:"type:varchar(64)" json:"nickname"`                               // 昵称
	Coins     int64          `gorm:"not null;default:0" json:"coins"`                                // 金币余额
	Status    string         `gorm:"type:varchar(24);index;not null;default:'active'" json:"status"` // 状态
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
