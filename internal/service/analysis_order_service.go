package service

import (
	"strings"
	"time"

	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/repository"
)

// AnalysisOrderService 复盘订单服务
type AnalysisOrderService struct {
	repo repository.AnalysisOrderRepository
}

// AnalysisOrderListInput 订单列表输入
type AnalysisOrderListInput struct {
	OrderNo     string
	UserID      uint
	StockCode   string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// NewAnalysisOrderService 创建复盘订单服务
func NewAnalysisOrderService(repo repository.AnalysisOrderRepository) *AnalysisOrderService {
	return &AnalysisOrderService{repo: repo}
}

// ListOrders 查询订单列表
func (s *AnalysisOrderService) ListOrders(input AnalysisOrderListInput) ([]models.AnalysisOrder, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrOrderFetchFailed
	}
	filter := repository.AnalysisOrderListFilter{
		OrderNo:     strings.TrimSpace(input.OrderNo),
		UserID:      input.UserID,
		StockCode:   strings.TrimSpace(strings.ToUpper(input.StockCode)),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	orders, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetOrder 查询订单详情
func (s *AnalysisOrderService) GetOrder(id uint) (*models.AnalysisOrder, error) {
	if s == nil || s.repo == nil {
		return nil, ErrOrderFetchFailed
	}
	if id == 0 {
		return nil, ErrNotFound
	}
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}
