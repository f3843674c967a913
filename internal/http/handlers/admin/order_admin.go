package admin

import (
	"errors"
	"strings"

	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 分页查询复盘分析订单
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, pageSize := parsePagination(c)

	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from 时间格式错误，需为 RFC3339", nil)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to 时间格式错误，需为 RFC3339", nil)
		return
	}

	userID, _, err := parseQueryUint(c, "user_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "user_id 参数无效", nil)
		return
	}

	orders, total, err := h.AnalysisOrderService.ListOrders(service.AnalysisOrderListInput{
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		UserID:      userID,
		StockCode:   strings.TrimSpace(c.Query("stock_code")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单查询失败，请稍后重试", err)
		return
	}

	response.SuccessWithPage(c, orders, buildPagination(page, pageSize, total))
}

// AdminGetOrder 查询单个订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "订单 ID 无效", nil)
		return
	}

	order, err := h.AnalysisOrderService.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单查询失败，请稍后重试", err)
		return
	}

	response.Success(c, order)
}
