package admin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/http/response"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/service"

	"github.com/gin-gonic/gin"
)

type generateExchangeCodesRequest struct {
	FaceValue int    `json:"face_value" binding:"required,gt=0"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	ExpiresAt string `json:"expires_at"`
}

type redeemExchangeCodeRequest struct {
	Code   string `json:"code" binding:"required"`
	UserID uint   `json:"user_id" binding:"required"`
}

// exchangeCodeItem 列表视图，status 为结合过期时间计算后的即时状态。
type exchangeCodeItem struct {
	ID           uint       `json:"id"`
	Code         string     `json:"code"`
	BatchNo      string     `json:"batch_no"`
	FaceValue    int        `json:"face_value"`
	Status       string     `json:"status"`
	IsExpired    bool       `json:"is_expired"`
	UsedByUserID *uint      `json:"used_by_user_id,omitempty"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedBy    *uint      `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func newExchangeCodeItem(record models.ExchangeCode, now time.Time) exchangeCodeItem {
	return exchangeCodeItem{
		ID:           record.ID,
		Code:         record.Code,
		BatchNo:      record.BatchNo,
		FaceValue:    record.FaceValue,
		Status:       service.EffectiveStatus(record, now),
		IsExpired:    record.IsExpired(now),
		UsedByUserID: record.UsedByUserID,
		UsedAt:       record.UsedAt,
		ExpiresAt:    record.ExpiresAt,
		CreatedBy:    record.CreatedBy,
		CreatedAt:    record.CreatedAt,
	}
}

// GenerateExchangeCodes 批量生成兑换码
func (h *Handler) GenerateExchangeCodes(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req generateExchangeCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	expiresAt, err := parseTimeNullable(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "过期时间格式错误，需为 RFC3339", nil)
		return
	}

	batchNo, records, err := h.ExchangeCodeService.GenerateBatch(service.GenerateBatchInput{
		FaceValue: req.FaceValue,
		Quantity:  req.Quantity,
		ExpiresAt: expiresAt,
		CreatedBy: &adminID,
	})
	if err != nil {
		if errors.Is(err, service.ErrExchangeCodeInvalid) {
			respondError(c, response.CodeBadRequest, "面值需大于 0，数量需在 1 到 1000 之间，过期时间不能早于当前时间", nil)
			return
		}
		respondError(c, response.CodeInternal, "兑换码生成失败，请稍后重试", err)
		return
	}

	codes := make([]string, 0, len(records))
	for _, record := range records {
		codes = append(codes, record.Code)
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionGenerateCodes,
		TargetTable: "exchange_codes",
		Description: fmt.Sprintf("生成兑换码批次 %s，面值 %d，数量 %d", batchNo, req.FaceValue, req.Quantity),
		RequestID:   getRequestID(c),
	})

	response.Success(c, gin.H{
		"batch_no":   batchNo,
		"face_value": req.FaceValue,
		"quantity":   len(codes),
		"codes":      codes,
	})
}

// GetExchangeCodes 分页查询兑换码列表
func (h *Handler) GetExchangeCodes(c *gin.Context) {
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

	usedByUserID, _, err := parseQueryUint(c, "used_by_user_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "used_by_user_id 参数无效", nil)
		return
	}

	faceValue := 0
	if raw := strings.TrimSpace(c.Query("face_value")); raw != "" {
		faceValue, err = strconv.Atoi(raw)
		if err != nil || faceValue <= 0 {
			respondError(c, response.CodeBadRequest, "face_value 参数无效", nil)
			return
		}
	}

	status := strings.TrimSpace(strings.ToLower(c.Query("status")))
	switch status {
	case "", "unused", "used", "expired":
	default:
		respondError(c, response.CodeBadRequest, "status 仅支持 unused、used、expired", nil)
		return
	}

	records, total, err := h.ExchangeCodeService.ListCodes(service.ExchangeCodeListInput{
		Code:         strings.TrimSpace(c.Query("code")),
		BatchNo:      strings.TrimSpace(c.Query("batch_no")),
		Status:       status,
		FaceValue:    faceValue,
		UsedByUserID: usedByUserID,
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
		Page:         page,
		PageSize:     pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "兑换码查询失败，请稍后重试", err)
		return
	}

	now := time.Now()
	items := make([]exchangeCodeItem, 0, len(records))
	for _, record := range records {
		items = append(items, newExchangeCodeItem(record, now))
	}

	response.SuccessWithPage(c, items, buildPagination(page, pageSize, total))
}

// GetExchangeCodeBatches 分页查询批次汇总
// 批次不是独立实体，汇总由明细按 batch_no 即时聚合得出。
func (h *Handler) GetExchangeCodeBatches(c *gin.Context) {
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

	summaries, total, err := h.ExchangeCodeService.ListBatchSummaries(service.BatchSummaryListInput{
		BatchNo:     strings.TrimSpace(c.Query("batch_no")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "批次汇总查询失败，请稍后重试", err)
		return
	}

	response.SuccessWithPage(c, summaries, buildPagination(page, pageSize, total))
}

// DeleteExchangeCodeBatch 删除批次内未使用的兑换码
// 已使用的行保留，重复删除同一批次视为幂等成功。
func (h *Handler) DeleteExchangeCodeBatch(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	batchNo := strings.TrimSpace(c.Param("batch_no"))
	if batchNo == "" {
		respondError(c, response.CodeBadRequest, "批次号不能为空", nil)
		return
	}

	deleted, remaining, err := h.ExchangeCodeService.DeleteBatch(batchNo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExchangeCodeBatchNotFound):
			respondError(c, response.CodeNotFound, "批次不存在", nil)
		case errors.Is(err, service.ErrExchangeCodeInvalid):
			respondError(c, response.CodeBadRequest, "批次号不能为空", nil)
		default:
			respondError(c, response.CodeInternal, "批次删除失败，请稍后重试", err)
		}
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionDeleteBatch,
		TargetTable: "exchange_codes",
		Description: fmt.Sprintf("删除批次 %s 未使用兑换码 %d 条，保留已使用 %d 条", batchNo, deleted, remaining),
		RequestID:   getRequestID(c),
	})

	response.Success(c, gin.H{
		"batch_no":        strings.ToUpper(batchNo),
		"deleted_count":   deleted,
		"remaining_count": remaining,
	})
}

// RedeemExchangeCode 后台代用户核销兑换码
func (h *Handler) RedeemExchangeCode(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req redeemExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.ExchangeCodeService.Redeem(service.RedeemInput{
		UserID: req.UserID,
		Code:   req.Code,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExchangeCodeNotFound):
			respondError(c, response.CodeNotFound, "兑换码不存在", nil)
		case errors.Is(err, service.ErrExchangeCodeUsed):
			respondError(c, response.CodeConflict, "兑换码已被使用", nil)
		case errors.Is(err, service.ErrExchangeCodeExpired):
			respondError(c, response.CodeConflict, "兑换码已过期", nil)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		case errors.Is(err, service.ErrExchangeCodeInvalid):
			respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		default:
			respondError(c, response.CodeInternal, "兑换失败，请稍后重试", err)
		}
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionRedeemCode,
		TargetTable: "exchange_codes",
		TargetID:    &result.Code.ID,
		Description: fmt.Sprintf("为用户 %d 核销兑换码 %s，面值 %d", req.UserID, result.Code.Code, result.Code.FaceValue),
		RequestID:   getRequestID(c),
	})

	response.Success(c, gin.H{
		"code":           result.Code.Code,
		"batch_no":       result.Code.BatchNo,
		"face_value":     result.Code.FaceValue,
		"user_id":        result.User.ID,
		"balance_after":  result.Transaction.BalanceAfter,
		"transaction_id": result.Transaction.ID,
		"used_at":        result.Code.UsedAt,
	})
}

// ExportExchangeCodes 导出批次兑换码，支持 csv 与 txt 两种格式
func (h *Handler) ExportExchangeCodes(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	batchNo := strings.TrimSpace(c.Param("batch_no"))
	format := strings.TrimSpace(strings.ToLower(c.DefaultQuery("format", "csv")))

	data, contentType, err := h.ExchangeCodeService.ExportBatch(batchNo, format)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExchangeCodeBatchNotFound):
			respondError(c, response.CodeNotFound, "批次不存在", nil)
		case errors.Is(err, service.ErrExchangeCodeInvalid):
			respondError(c, response.CodeBadRequest, "批次号或导出格式无效", nil)
		default:
			respondError(c, response.CodeInternal, "批次导出失败，请稍后重试", err)
		}
		return
	}

	h.AuditService.Record(service.AuditRecordInput{
		AdminID:     adminID,
		Username:    getAdminUsername(c),
		Action:      constants.AuditActionExportBatch,
		TargetTable: "exchange_codes",
		Description: fmt.Sprintf("导出批次 %s 兑换码，格式 %s", strings.ToUpper(batchNo), format),
		RequestID:   getRequestID(c),
	})

	filename := fmt.Sprintf("exchange_codes_%s.%s", strings.ToUpper(batchNo), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, contentType, data)
}
