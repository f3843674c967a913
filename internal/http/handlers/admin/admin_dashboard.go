package admin

import (
	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// 仪表盘附带的最近订单条数
const dashboardRecentOrders = 8

// GetDashboardOverview 仪表盘累计统计，附带最近订单
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	forceRefresh := c.Query("refresh") == "1"

	overview, err := h.DashboardService.GetOverview(c.Request.Context(), forceRefresh)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败，请稍后重试", err)
		return
	}

	recentOrders, _, err := h.AnalysisOrderService.ListOrders(service.AnalysisOrderListInput{
		Page:     1,
		PageSize: dashboardRecentOrders,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败，请稍后重试", err)
		return
	}

	response.Success(c, gin.H{
		"stats":         overview,
		"recent_orders": recentOrders,
	})
}

// GetDashboardToday 仪表盘当日统计
func (h *Handler) GetDashboardToday(c *gin.Context) {
	forceRefresh := c.Query("refresh") == "1"

	today, err := h.DashboardService.GetToday(c.Request.Context(), forceRefresh)
	if err != nil {
		respondError(c, response.CodeInternal, "统计数据获取失败，请稍后重试", err)
		return
	}

	response.Success(c, today)
}
