package repository

import (
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview() (DashboardOverviewRow, error)
	GetDaily(startAt, endAt time.Time) (DashboardDailyRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	TotalUsers   int64
	TotalOrders  int64
	PaidOrders   int64
	TotalRevenue float64
	TotalCodes   int64
	UsedCodes    int64
	UnusedCodes  int64
	ExpiredCodes int64
	CoinsGranted int64
}

// DashboardDailyRow 单日统计结果
type DashboardDailyRow struct {
	NewUsers      int64
	NewOrders     int64
	PaidOrders    int64
	Revenue       float64
	RedeemedCodes int64
	CoinsGranted  int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func paidOrderStatuses() []string {
	return []string{
		constants.OrderStatusPaid,
		constants.OrderStatusCompleted,
	}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview() (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}
	now := time.Now()

	if err := r.db.Model(&models.User{}).Count(&result.TotalUsers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).Count(&result.TotalOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).
		Where("status IN ?", paidOrderStatuses()).
		Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).
		Where("status IN ?", paidOrderStatuses()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.TotalRevenue).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.ExchangeCode{}).Count(&result.TotalCodes).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCode{}).
		Where("status = ?", constants.ExchangeCodeStatusUsed).
		Count(&result.UsedCodes).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCode{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", constants.ExchangeCodeStatusUnused, now).
		Count(&result.ExpiredCodes).Error; err != nil {
		return result, err
	}
	result.UnusedCodes = result.TotalCodes - result.UsedCodes - result.ExpiredCodes
	if result.UnusedCodes < 0 {
		result.UnusedCodes = 0
	}

	if err := r.db.Model(&models.CoinTransaction{}).
		Where("txn_type = ?", constants.CoinTxnTypeExchangeCode).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.CoinsGranted).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetDaily 获取指定时间段的统计（通常为当日）
func (r *GormDashboardRepository) GetDaily(startAt, endAt time.Time) (DashboardDailyRow, error) {
	result := DashboardDailyRow{}

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).
		Where("paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AnalysisOrder{}).
		Where("paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.Revenue).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ExchangeCode{}).
		Where("used_at IS NOT NULL AND used_at >= ? AND used_at < ?", startAt, endAt).
		Count(&result.RedeemedCodes).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.CoinTransaction{}).
		Where("txn_type = ? AND created_at >= ? AND created_at < ?", constants.CoinTxnTypeExchangeCode, startAt, endAt).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&result.CoinsGranted).Error; err != nil {
		return result, err
	}

	return result, nil
}
