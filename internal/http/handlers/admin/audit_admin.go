package admin

import (
	"strings"

	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs 分页查询后台操作审计日志
func (h *Handler) ListAuditLogs(c *gin.Context) {
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

	adminID, _, err := parseQueryUint(c, "admin_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "admin_id 参数无效", nil)
		return
	}

	logs, total, err := h.AuditService.List(repository.AuditLogListFilter{
		AdminID:     adminID,
		Action:      strings.TrimSpace(c.Query("action")),
		TargetTable: strings.TrimSpace(c.Query("target_table")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "审计日志查询失败，请稍后重试", err)
		return
	}

	response.SuccessWithPage(c, logs, buildPagination(page, pageSize, total))
}
