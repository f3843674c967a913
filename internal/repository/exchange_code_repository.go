package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"

	"gorm.io/gorm"
)

// ExchangeCodeListFilter 兑换码列表筛选
type ExchangeCodeListFilter struct {
	Code         string
	BatchNo      string
	Status       string // unused / used / expired（expired 为查询时刻推导）
	FaceValue    int
	UsedByUserID uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page         int
	PageSize     int
}

// BatchSummaryFilter 批次汇总筛选
type BatchSummaryFilter struct {
	BatchNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// ExchangeCodeBatchRow 批次汇总原始行
// 批次不落库，全部字段由 batch_no 聚合得出。
type ExchangeCodeBatchRow struct {
	BatchNo      string
	FaceValue    int
	TotalCount   int64
	UsedCount    int64
	ExpiredCount int64
	CreatedBy    *uint
	CreatedAt    time.Time
}

// batchSummaryScanRow 聚合查询的扫描载体
// MIN(created_at) 在 sqlite 驱动下以文本返回，无法直接扫进 time.Time，
// 先收字符串再解析；postgres 下 database/sql 会把 time.Time 转成 RFC3339 文本。
type batchSummaryScanRow struct {
	BatchNo      string
	FaceValue    int
	TotalCount   int64
	UsedCount    int64
	ExpiredCount int64
	CreatedBy    *uint
	CreatedAt    string
}

// 聚合时间列可能出现的文本格式：RFC3339（postgres 中转）、sqlite 存储格式、CURRENT_TIMESTAMP
var aggregatedTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseAggregatedTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range aggregatedTimeLayouts {
		if value, err := time.Parse(layout, raw); err == nil {
			return value, nil
		}
	}
	return time.Time{}, errors.New("无法解析聚合时间列: " + raw)
}

// ExchangeCodeRepository 兑换码仓储接口
type ExchangeCodeRepository interface {
	CreateCodes(codes []models.ExchangeCode) error
	ListExistingCodes(codes []string) ([]string, error)
	GetByCode(code string) (*models.ExchangeCode, error)
	GetByCodeForUpdate(code string) (*models.ExchangeCode, error)
	List(filter ExchangeCodeListFilter) ([]models.ExchangeCode, int64, error)
	ListByBatch(batchNo string) ([]models.ExchangeCode, error)
	CountByBatch(batchNo string) (int64, error)
	DeleteUnusedByBatch(batchNo string) (int64, error)
	MarkUsed(code string, userID uint, usedAt time.Time) (int64, error)
	BatchSummaries(filter BatchSummaryFilter) ([]ExchangeCodeBatchRow, int64, error)
	WithTx(tx *gorm.DB) *GormExchangeCodeRepository
}

// GormExchangeCodeRepository GORM 兑换码仓储实现
type GormExchangeCodeRepository struct {
	db *gorm.DB
}

// NewExchangeCodeRepository 创建兑换码仓库
func NewExchangeCodeRepository(db *gorm.DB) *GormExchangeCodeRepository {
	return &GormExchangeCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormExchangeCodeRepository) WithTx(tx *gorm.DB) *GormExchangeCodeRepository {
	if tx == nil {
		return r
	}
	return &GormExchangeCodeRepository{db: tx}
}

// CreateCodes 批量写入兑换码
// 整批一次 INSERT，任一行失败（含唯一索引冲突）则整批失败。
func (r *GormExchangeCodeRepository) CreateCodes(codes []models.ExchangeCode) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.Create(&codes).Error
}

// ListExistingCodes 返回给定候选码中已被占用的码
func (r *GormExchangeCodeRepository) ListExistingCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	existing := make([]string, 0)
	if err := r.db.Model(&models.ExchangeCode{}).
		Where("code IN ?", codes).
		Pluck("code", &existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// GetByCode 根据兑换码查询
func (r *GormExchangeCodeRepository) GetByCode(code string) (*models.ExchangeCode, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var record models.ExchangeCode
	if err := r.db.Where("code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByCodeForUpdate 根据兑换码加锁查询
func (r *GormExchangeCodeRepository) GetByCodeForUpdate(code string) (*models.ExchangeCode, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" {
		return nil, nil
	}
	var record models.ExchangeCode
	if err := applyRowLock(r.db).
		Where("code = ?", code).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 查询兑换码列表
func (r *GormExchangeCodeRepository) List(filter ExchangeCodeListFilter) ([]models.ExchangeCode, int64, error) {
	query := r.db.Model(&models.ExchangeCode{})
	if code := strings.TrimSpace(strings.ToUpper(filter.Code)); code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if batchNo := strings.TrimSpace(strings.ToUpper(filter.BatchNo)); batchNo != "" {
		query = query.Where("batch_no = ?", batchNo)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		now := time.Now()
		switch status {
		case constants.ExchangeCodeStatusExpired:
			query = query.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", constants.ExchangeCodeStatusUnused, now)
		case constants.ExchangeCodeStatusUnused:
			query = query.Where("status = ? AND (expires_at IS NULL OR expires_at >= ?)", constants.ExchangeCodeStatusUnused, now)
		default:
			query = query.Where("status = ?", status)
		}
	}
	if filter.FaceValue > 0 {
		query = query.Where("face_value = ?", filter.FaceValue)
	}
	if filter.UsedByUserID > 0 {
		query = query.Where("used_by_user_id = ?", filter.UsedByUserID)
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

	var records []models.ExchangeCode
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByBatch 查询批次下全部兑换码（导出用）
func (r *GormExchangeCodeRepository) ListByBatch(batchNo string) ([]models.ExchangeCode, error) {
	batchNo = strings.TrimSpace(strings.ToUpper(batchNo))
	if batchNo == "" {
		return []models.ExchangeCode{}, nil
	}
	var records []models.ExchangeCode
	if err := r.db.Where("batch_no = ?", batchNo).Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountByBatch 统计批次下兑换码数量
func (r *GormExchangeCodeRepository) CountByBatch(batchNo string) (int64, error) {
	batchNo = strings.TrimSpace(strings.ToUpper(batchNo))
	if batchNo == "" {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.ExchangeCode{}).
		Where("batch_no = ?", batchNo).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteUnusedByBatch 删除批次下未使用的兑换码，返回删除行数
// 已使用的行保留，保证兑换台账可追溯。
func (r *GormExchangeCodeRepository) DeleteUnusedByBatch(batchNo string) (int64, error) {
	batchNo = strings.TrimSpace(strings.ToUpper(batchNo))
	if batchNo == "" {
		return 0, nil
	}
	result := r.db.Where("batch_no = ? AND status = ?", batchNo, constants.ExchangeCodeStatusUnused).
		Delete(&models.ExchangeCode{})
	return result.RowsAffected, result.Error
}

// MarkUsed 条件更新兑换码为已使用，返回影响行数
// WHERE 带 status 条件构成 CAS：并发核销时只有一个更新能命中。
func (r *GormExchangeCodeRepository) MarkUsed(code string, userID uint, usedAt time.Time) (int64, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	if code == "" || userID == 0 {
		return 0, nil
	}
	if usedAt.IsZero() {
		usedAt = time.Now()
	}
	result := r.db.Model(&models.ExchangeCode{}).
		Where("code = ? AND status = ?", code, constants.ExchangeCodeStatusUnused).
		Updates(map[string]interface{}{
			"status":          constants.ExchangeCodeStatusUsed,
			"used_by_user_id": userID,
			"used_at":         usedAt,
			"updated_at":      usedAt,
		})
	return result.RowsAffected, result.Error
}

// BatchSummaries 按批次号聚合批次视图
func (r *GormExchangeCodeRepository) BatchSummaries(filter BatchSummaryFilter) ([]ExchangeCodeBatchRow, int64, error) {
	now := time.Now()
	base := r.db.Model(&models.ExchangeCode{})
	if batchNo := strings.TrimSpace(strings.ToUpper(filter.BatchNo)); batchNo != "" {
		base = base.Where("batch_no LIKE ?", "%"+batchNo+"%")
	}
	if filter.CreatedFrom != nil {
		base = base.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		base = base.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).
		Distinct("batch_no").
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).
		Select(`
			batch_no,
			MAX(face_value) as face_value,
			COUNT(*) as total_count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as used_count,
			SUM(CASE WHEN status = ? AND expires_at IS NOT NULL AND expires_at < ? THEN 1 ELSE 0 END) as expired_count,
			MAX(created_by) as created_by,
			MIN(created_at) as created_at
		`, constants.ExchangeCodeStatusUsed, constants.ExchangeCodeStatusUnused, now).
		Group("batch_no").
		Order("created_at desc")

	query = applyPagination(query, filter.Page, filter.PageSize)

	scanRows := make([]batchSummaryScanRow, 0)
	if err := query.Scan(&scanRows).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]ExchangeCodeBatchRow, 0, len(scanRows))
	for _, scanRow := range scanRows {
		createdAt, err := parseAggregatedTime(scanRow.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, ExchangeCodeBatchRow{
			BatchNo:      scanRow.BatchNo,
			FaceValue:    scanRow.FaceValue,
			TotalCount:   scanRow.TotalCount,
			UsedCount:    scanRow.UsedCount,
			ExpiredCount: scanRow.ExpiredCount,
			CreatedBy:    scanRow.CreatedBy,
			CreatedAt:    createdAt,
		})
	}
	return rows, total, nil
}
