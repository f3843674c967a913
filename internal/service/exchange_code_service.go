package service

import (
	crand "crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/repository"

	"gorm.io/gorm"
)

const (
	exchangeCodePrefix  = "FPC"
	exchangeBatchPrefix = "FP"

	defaultMaxBatchQuantity = 1000

	// 整批写入的兜底重试次数：候选码先查重剔除，唯一索引兜底极端并发。
	codeInsertMaxRetries = 3
)

// ExchangeCodeService 兑换码服务
type ExchangeCodeService struct {
	repo             repository.ExchangeCodeRepository
	userRepo         repository.UserRepository
	txnRepo          repository.CoinTransactionRepository
	maxBatchQuantity int
}

// NewExchangeCodeService 创建兑换码服务
func NewExchangeCodeService(
	repo repository.ExchangeCodeRepository,
	userRepo repository.UserRepository,
	txnRepo repository.CoinTransactionRepository,
	maxBatchQuantity int,
) *ExchangeCodeService {
	if maxBatchQuantity <= 0 {
		maxBatchQuantity = defaultMaxBatchQuantity
	}
	return &ExchangeCodeService{
		repo:             repo,
		userRepo:         userRepo,
		txnRepo:          txnRepo,
		maxBatchQuantity: maxBatchQuantity,
	}
}

// GenerateBatchInput 生成兑换码批次输入
type GenerateBatchInput struct {
	FaceValue int
	Quantity  int
	ExpiresAt *time.Time
	CreatedBy *uint
}

// ExchangeCodeListInput 兑换码列表输入
type ExchangeCodeListInput struct {
	Code         string
	BatchNo      string
	Status       string
	FaceValue    int
	UsedByUserID uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Page         int
	PageSize     int
}

// BatchSummaryListInput 批次汇总列表输入
type BatchSummaryListInput struct {
	BatchNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// BatchSummary 批次汇总视图
// 全部字段按 batch_no 即时聚合，过期数随查询时刻变化。
type BatchSummary struct {
	BatchNo      string    `json:"batch_no"`
	FaceValue    int       `json:"face_value"`
	TotalCount   int64     `json:"total_count"`
	UnusedCount  int64     `json:"unused_count"`
	UsedCount    int64     `json:"used_count"`
	ExpiredCount int64     `json:"expired_count"`
	CreatedBy    *uint     `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RedeemInput 兑换码核销输入
type RedeemInput struct {
	UserID uint
	Code   string
}

// RedeemResult 核销结果
type RedeemResult struct {
	Code        *models.ExchangeCode
	User        *models.User
	Transaction *models.CoinTransaction
}

// GenerateBatch 生成兑换码批次
// 整批一次事务写入，任一行失败则整批回滚；候选码冲突时重新生成后整批重试。
func (s *ExchangeCodeService) GenerateBatch(input GenerateBatchInput) (string, []models.ExchangeCode, error) {
	if s == nil || s.repo == nil {
		return "", nil, ErrExchangeCodeCreateFailed
	}
	if input.FaceValue <= 0 {
		return "", nil, ErrExchangeCodeInvalid
	}
	if input.Quantity <= 0 || input.Quantity > s.maxBatchQuantity {
		return "", nil, ErrExchangeCodeInvalid
	}
	expiresAt := normalizeExpireAt(input.ExpiresAt)
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return "", nil, ErrExchangeCodeInvalid
	}

	now := time.Now()
	batchNo := generateBatchNo(now)

	var created []models.ExchangeCode
	var lastErr error
	for attempt := 0; attempt < codeInsertMaxRetries; attempt++ {
		codes, err := s.buildCandidateCodes(input.Quantity, now)
		if err != nil {
			return "", nil, ErrExchangeCodeCreateFailed
		}

		records := make([]models.ExchangeCode, 0, input.Quantity)
		for _, code := range codes {
			records = append(records, models.ExchangeCode{
				Code:      code,
				BatchNo:   batchNo,
				FaceValue: input.FaceValue,
				Status:    constants.ExchangeCodeStatusUnused,
				ExpiresAt: expiresAt,
				CreatedBy: input.CreatedBy,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}

		err = models.DB.Transaction(func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).CreateCodes(records)
		})
		if err == nil {
			created = records
			lastErr = nil
			break
		}
		// 唯一索引冲突时换一组候选码重试，其余错误同样兜底重试
		lastErr = err
	}
	if lastErr != nil {
		return "", nil, ErrExchangeCodeCreateFailed
	}
	return batchNo, created, nil
}

// buildCandidateCodes 生成一组不与库中已有记录冲突的候选码
func (s *ExchangeCodeService) buildCandidateCodes(quantity int, now time.Time) ([]string, error) {
	seen := make(map[string]struct{}, quantity)
	codes := make([]string, 0, quantity)
	for len(codes) < quantity {
		code := generateExchangeCode(now, len(codes))
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	// 预查重：剔除已占用的码并补齐，唯一索引仍是最终防线
	for attempt := 0; attempt < codeInsertMaxRetries; attempt++ {
		existing, err := s.repo.ListExistingCodes(codes)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			return codes, nil
		}
		occupied := make(map[string]struct{}, len(existing))
		for _, code := range existing {
			occupied[strings.ToUpper(code)] = struct{}{}
		}
		next := make([]string, 0, quantity)
		for _, code := range codes {
			if _, ok := occupied[code]; ok {
				delete(seen, code)
				continue
			}
			next = append(next, code)
		}
		for len(next) < quantity {
			code := generateExchangeCode(now, len(next))
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			next = append(next, code)
		}
		codes = next
	}
	return codes, nil
}

// ListCodes 查询兑换码列表
func (s *ExchangeCodeService) ListCodes(input ExchangeCodeListInput) ([]models.ExchangeCode, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrExchangeCodeFetchFailed
	}
	filter := repository.ExchangeCodeListFilter{
		Code:         strings.TrimSpace(strings.ToUpper(input.Code)),
		BatchNo:      strings.TrimSpace(strings.ToUpper(input.BatchNo)),
		Status:       strings.TrimSpace(strings.ToLower(input.Status)),
		FaceValue:    input.FaceValue,
		UsedByUserID: input.UsedByUserID,
		CreatedFrom:  input.CreatedFrom,
		CreatedTo:    input.CreatedTo,
		Page:         input.Page,
		PageSize:     input.PageSize,
	}
	records, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrExchangeCodeFetchFailed
	}
	return records, total, nil
}

// EffectiveStatus 兑换码展示状态
// 未使用且已过期的行展示为 expired，落库状态保持 unused。
func EffectiveStatus(code models.ExchangeCode, now time.Time) string {
	if code.Status == constants.ExchangeCodeStatusUnused && code.IsExpired(now) {
		return constants.ExchangeCodeStatusExpired
	}
	return code.Status
}

// ListBatchSummaries 查询批次汇总列表
func (s *ExchangeCodeService) ListBatchSummaries(input BatchSummaryListInput) ([]BatchSummary, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrExchangeCodeFetchFailed
	}
	filter := repository.BatchSummaryFilter{
		BatchNo:     strings.TrimSpace(strings.ToUpper(input.BatchNo)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	rows, total, err := s.repo.BatchSummaries(filter)
	if err != nil {
		return nil, 0, ErrExchangeCodeFetchFailed
	}
	summaries := make([]BatchSummary, 0, len(rows))
	for _, row := range rows {
		unused := row.TotalCount - row.UsedCount - row.ExpiredCount
		if unused < 0 {
			unused = 0
		}
		summaries = append(summaries, BatchSummary{
			BatchNo:      row.BatchNo,
			FaceValue:    row.FaceValue,
			TotalCount:   row.TotalCount,
			UnusedCount:  unused,
			UsedCount:    row.UsedCount,
			ExpiredCount: row.ExpiredCount,
			CreatedBy:    row.CreatedBy,
			CreatedAt:    row.CreatedAt,
		})
	}
	return summaries, total, nil
}

// DeleteBatch 删除批次下未使用的兑换码
// 已使用的行保留；批次本就没有未使用行时视为幂等成功，返回删除数 0。
func (s *ExchangeCodeService) DeleteBatch(batchNo string) (int64, int64, error) {
	if s == nil || s.repo == nil {
		return 0, 0, ErrExchangeCodeDeleteFailed
	}
	batchNo = strings.TrimSpace(strings.ToUpper(batchNo))
	if batchNo == "" {
		return 0, 0, ErrExchangeCodeInvalid
	}

	total, err := s.repo.CountByBatch(batchNo)
	if err != nil {
		return 0, 0, ErrExchangeCodeFetchFailed
	}
	if total == 0 {
		return 0, 0, ErrExchangeCodeBatchNotFound
	}

	deleted, err := s.repo.DeleteUnusedByBatch(batchNo)
	if err != nil {
		return 0, 0, ErrExchangeCodeDeleteFailed
	}
	return deleted, total - deleted, nil
}

// Redeem 核销兑换码并为用户入账
// 行锁加条件更新构成 CAS：并发核销同一码时只有一个事务能命中更新。
func (s *ExchangeCodeService) Redeem(input RedeemInput) (*RedeemResult, error) {
	if s == nil || s.repo == nil || s.userRepo == nil || s.txnRepo == nil {
		return nil, ErrExchangeCodeRedeemFailed
	}
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if input.UserID == 0 || code == "" {
		return nil, ErrExchangeCodeInvalid
	}

	result := &RedeemResult{}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.GetByCodeForUpdate(code)
		if err != nil {
			return ErrExchangeCodeFetchFailed
		}
		if record == nil {
			return ErrExchangeCodeNotFound
		}
		if record.Status == constants.ExchangeCodeStatusUsed {
			return ErrExchangeCodeUsed
		}
		now := time.Now()
		if record.IsExpired(now) {
			return ErrExchangeCodeExpired
		}
		if record.FaceValue <= 0 {
			return ErrExchangeCodeInvalid
		}

		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.GetByIDForUpdate(input.UserID)
		if err != nil {
			return ErrExchangeCodeRedeemFailed
		}
		if user == nil {
			return ErrUserNotFound
		}

		rows, err := repo.MarkUsed(code, input.UserID, now)
		if err != nil {
			return ErrExchangeCodeRedeemFailed
		}
		if rows == 0 {
			return ErrExchangeCodeUsed
		}

		user.Coins += int64(record.FaceValue)
		user.UpdatedAt = now
		if err := userRepo.Update(user); err != nil {
			return ErrExchangeCodeRedeemFailed
		}

		txn := &models.CoinTransaction{
			UserID:       user.ID,
			Amount:       int64(record.FaceValue),
			Direction:    constants.CoinTxnDirectionIn,
			TxnType:      constants.CoinTxnTypeExchangeCode,
			Reference:    record.Code,
			BalanceAfter: user.Coins,
			CreatedAt:    now,
		}
		if err := s.txnRepo.WithTx(tx).Create(txn); err != nil {
			return ErrExchangeCodeRedeemFailed
		}

		record.Status = constants.ExchangeCodeStatusUsed
		record.UsedByUserID = &input.UserID
		record.UsedAt = &now
		record.UpdatedAt = now
		result.Code = record
		result.User = user
		result.Transaction = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExportBatch 导出批次下全部兑换码
func (s *ExchangeCodeService) ExportBatch(batchNo, format string) ([]byte, string, error) {
	if s == nil || s.repo == nil {
		return nil, "", ErrExchangeCodeFetchFailed
	}
	batchNo = strings.TrimSpace(strings.ToUpper(batchNo))
	if batchNo == "" {
		return nil, "", ErrExchangeCodeInvalid
	}
	normalizedFormat := strings.TrimSpace(strings.ToLower(format))
	if normalizedFormat == "" {
		normalizedFormat = "csv"
	}
	if normalizedFormat != "csv" && normalizedFormat != "txt" {
		return nil, "", ErrExchangeCodeInvalid
	}

	records, err := s.repo.ListByBatch(batchNo)
	if err != nil {
		return nil, "", ErrExchangeCodeFetchFailed
	}
	if len(records) == 0 {
		return nil, "", ErrExchangeCodeBatchNotFound
	}

	if normalizedFormat == "txt" {
		lines := make([]string, 0, len(records))
		for _, record := range records {
			lines = append(lines, strings.TrimSpace(record.Code))
		}
		return []byte(strings.Join(lines, "\n")), "text/plain; charset=utf-8", nil
	}

	now := time.Now()
	builder := &strings.Builder{}
	writer := csv.NewWriter(builder)
	if err := writer.Write([]string{
		"id",
		"batch_no",
		"code",
		"face_value",
		"status",
		"used_by_user_id",
		"used_at",
		"expires_at",
		"created_at",
	}); err != nil {
		return nil, "", ErrExchangeCodeFetchFailed
	}
	for _, record := range records {
		usedByUserID := ""
		if record.UsedByUserID != nil {
			usedByUserID = strconv.FormatUint(uint64(*record.UsedByUserID), 10)
		}
		row := []string{
			strconv.FormatUint(uint64(record.ID), 10),
			record.BatchNo,
			record.Code,
			strconv.Itoa(record.FaceValue),
			EffectiveStatus(record, now),
			usedByUserID,
			formatNullableTime(record.UsedAt),
			formatNullableTime(record.ExpiresAt),
			record.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", ErrExchangeCodeFetchFailed
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", ErrExchangeCodeFetchFailed
	}
	return []byte(builder.String()), "text/csv; charset=utf-8", nil
}

func normalizeExpireAt(raw *time.Time) *time.Time {
	if raw == nil || raw.IsZero() {
		return nil
	}
	value := raw.UTC()
	return &value
}

func formatNullableTime(raw *time.Time) string {
	if raw == nil || raw.IsZero() {
		return ""
	}
	return raw.Format(time.RFC3339)
}

func generateBatchNo(now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%s", exchangeBatchPrefix, now.Format("20060102150405"), randomHex(4)))
}

func generateExchangeCode(now time.Time, index int) string {
	return strings.ToUpper(fmt.Sprintf("%s%s%04d%s", exchangeCodePrefix, now.Format("060102150405"), index%10000, randomHex(5)))
}

func randomHex(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		fallback := make([]byte, n)
		for i := range fallback {
			fallback[i] = byte('A' + (i % 26))
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(buf)
}
