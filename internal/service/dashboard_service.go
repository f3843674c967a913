package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fupan-admin/internal/cache"
	"github.com/fupan-admin/internal/repository"
)

const dashboardCacheTTL = 60 * time.Second

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	TotalUsers   int64   `json:"total_users"`
	TotalOrders  int64   `json:"total_orders"`
	PaidOrders   int64   `json:"paid_orders"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCodes   int64   `json:"total_codes"`
	UnusedCodes  int64   `json:"unused_codes"`
	UsedCodes    int64   `json:"used_codes"`
	ExpiredCodes int64   `json:"expired_codes"`
	CoinsGranted int64   `json:"coins_granted"`
}

// DashboardTodayResponse 当日统计响应
type DashboardTodayResponse struct {
	Date          string  `json:"date"`
	NewUsers      int64   `json:"new_users"`
	NewOrders     int64   `json:"new_orders"`
	PaidOrders    int64   `json:"paid_orders"`
	Revenue       float64 `json:"revenue"`
	RedeemedCodes int64   `json:"redeemed_codes"`
	CoinsGranted  int64   `json:"coins_granted"`
}

// DashboardService 仪表盘服务
// 统计结果带短 TTL 缓存，避免管理端频繁刷新打到聚合查询。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetOverview 获取总览统计
func (s *DashboardService) GetOverview(ctx context.Context, forceRefresh bool) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return nil, ErrDashboardFetchFailed
	}

	cacheKey := "dashboard:overview"
	if !forceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	row, err := s.repo.GetOverview()
	if err != nil {
		return nil, ErrDashboardFetchFailed
	}
	response := &DashboardOverviewResponse{
		TotalUsers:   row.TotalUsers,
		TotalOrders:  row.TotalOrders,
		PaidOrders:   row.PaidOrders,
		TotalRevenue: row.TotalRevenue,
		TotalCodes:   row.TotalCodes,
		UnusedCodes:  row.UnusedCodes,
		UsedCodes:    row.UsedCodes,
		ExpiredCodes: row.ExpiredCodes,
		CoinsGranted: row.CoinsGranted,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetToday 获取当日统计
func (s *DashboardService) GetToday(ctx context.Context, forceRefresh bool) (*DashboardTodayResponse, error) {
	if s == nil || s.repo == nil {
		return nil, ErrDashboardFetchFailed
	}

	now := time.Now()
	startAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endAt := startAt.Add(24 * time.Hour)

	cacheKey := fmt.Sprintf("dashboard:today:%s", startAt.Format("2006-01-02"))
	if !forceRefresh {
		var cached DashboardTodayResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	row, err := s.repo.GetDaily(startAt, endAt)
	if err != nil {
		return nil, ErrDashboardFetchFailed
	}
	response := &DashboardTodayResponse{
		Date:          startAt.Format("2006-01-02"),
		NewUsers:      row.NewUsers,
		NewOrders:     row.NewOrders,
		PaidOrders:    row.PaidOrders,
		Revenue:       row.Revenue,
		RedeemedCodes: row.RedeemedCodes,
		CoinsGranted:  row.CoinsGranted,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}
