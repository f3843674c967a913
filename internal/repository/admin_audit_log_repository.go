package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fupan-admin/internal/models"

	"gorm.io/gorm"
)

// AuditLogListFilter 审计日志列表筛选
type AuditLogListFilter struct {
	AdminID     uint
	Action      string
	TargetTable string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// AdminAuditLogRepository 审计日志数据访问接口
type AdminAuditLogRepository interface {
	Create(log *models.AdminAuditLog) error
	List(filter AuditLogListFilter) ([]models.AdminAuditLog, int64, error)
}

// GormAdminAuditLogRepository GORM 实现
type GormAdminAuditLogRepository struct {
	db *gorm.DB
}

// NewAdminAuditLogRepository 创建审计日志仓库
func NewAdminAuditLogRepository(db *gorm.DB) *GormAdminAuditLogRepository {
	return &GormAdminAuditLogRepository{db: db}
}

// Create 写入审计日志
func (r *GormAdminAuditLogRepository) Create(log *models.AdminAuditLog) error {
	if log == nil {
		return errors.New("invalid audit log")
	}
	return r.db.Create(log).Error
}

// List 查询审计日志列表
func (r *GormAdminAuditLogRepository) List(filter AuditLogListFilter) ([]models.AdminAuditLog, int64, error) {
	query := r.db.Model(&models.AdminAuditLog{})
	if filter.AdminID > 0 {
		query = query.Where("admin_id = ?", filter.AdminID)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("action = ?", action)
	}
	if targetTable := strings.TrimSpace(filter.TargetTable); targetTable != "" {
		query = query.Where("target_table = ?", targetTable)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var logs []models.AdminAuditLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
