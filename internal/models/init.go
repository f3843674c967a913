package models

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fupan-admin/internal/logger"
)

// InitDefaultAdmin 初始化默认管理员账号
// 仅在表中不存在同名账号时创建；账号密码来自环境变量，便于部署时注入。
func InitDefaultAdmin() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	username := os.Getenv("FP_DEFAULT_ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("FP_DEFAULT_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		logger.Warnw("未设置 FP_DEFAULT_ADMIN_PASSWORD，使用默认密码，请尽快修改")
	}

	var existing Admin
	err := DB.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("查询默认管理员失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("生成密码哈希失败: %w", err)
	}

	admin := Admin{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := DB.Create(&admin).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}

	logger.Infow("已创建默认管理员", "username", username)
	return nil
}
