package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/fupan-admin/internal/models"

	"gorm.io/gorm"
)

// AnalysisOrderListFilter 复盘订单列表筛选
type AnalysisOrderListFilter struct {
	OrderNo     string
	UserID      uint
	StockCode   string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// AnalysisOrderRepository 复盘订单数据访问接口
type AnalysisOrderRepository interface {
	GetByID(id uint) (*models.AnalysisOrder, error)
	List(filter AnalysisOrderListFilter) ([]models.AnalysisOrder, int64, error)
}

// GormAnalysisOrderRepository GORM 实现
type GormAnalysisOrderRepository struct {
	db *gorm.DB
}

// NewAnalysisOrderRepository 创建复盘订单仓库
func NewAnalysisOrderRepository(db *gorm.DB) *GormAnalysisOrderRepository {
	return &GormAnalysisOrderRepository{db: db}
}

// GetByID 根据 ID 查询订单
func (r *GormAnalysisOrderRepository) GetByID(id uint) (*models.AnalysisOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.AnalysisOrder
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 查询订单列表
func (r *GormAnalysisOrderRepository) List(filter AnalysisOrderListFilter) ([]models.AnalysisOrder, int64, error) {
	query := r.db.Model(&models.AnalysisOrder{})
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+orderNo+"%")
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if stockCode := strings.TrimSpace(filter.StockCode); stockCode != "" {
		query = query.Where("stock_code = ?", stockCode)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
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

	var orders []models.AnalysisOrder
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
