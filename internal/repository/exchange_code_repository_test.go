package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupExchangeCodeRepositoryTest(t *testing.T) (*GormExchangeCodeRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ExchangeCode{}); err != nil {
		t.Fatalf("migrate exchange code failed: %v", err)
	}
	return NewExchangeCodeRepository(db), db
}

func seedBatch(t *testing.T, repo *GormExchangeCodeRepository, batchNo string, faceValue, quantity int, expiresAt *time.Time) {
	t.Helper()
	records := make([]models.ExchangeCode, 0, quantity)
	for i := 0; i < quantity; i++ {
		records = append(records, models.ExchangeCode{
			Code:      fmt.Sprintf("%s%05d", batchNo, i),
			BatchNo:   batchNo,
			FaceValue: faceValue,
			Status:    constants.ExchangeCodeStatusUnused,
			ExpiresAt: expiresAt,
		})
	}
	if err := repo.CreateCodes(records); err != nil {
		t.Fatalf("seed batch %s failed: %v", batchNo, err)
	}
}

func TestExchangeCodeListPaginationAndFilters(t *testing.T) {
	repo, _ := setupExchangeCodeRepositoryTest(t)
	seedBatch(t, repo, "FPPAGEA", 10, 25, nil)
	seedBatch(t, repo, "FPPAGEB", 50, 5, nil)

	records, total, err := repo.List(ExchangeCodeListFilter{BatchNo: "FPPAGEA", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("list page 2 failed: %v", err)
	}
	if total != 25 {
		t.Fatalf("total want 25 got %d", total)
	}
	if len(records) != 10 {
		t.Fatalf("page rows want 10 got %d", len(records))
	}

	// 超出范围的页返回空列表，total 不变
	records, total, err = repo.List(ExchangeCodeListFilter{BatchNo: "FPPAGEA", Page: 4, PageSize: 10})
	if err != nil {
		t.Fatalf("list page 4 failed: %v", err)
	}
	if total != 25 {
		t.Fatalf("out-of-range page total want 25 got %d", total)
	}
	if len(records) != 0 {
		t.Fatalf("out-of-range page rows want 0 got %d", len(records))
	}

	records, total, err = repo.List(ExchangeCodeListFilter{FaceValue: 50})
	if err != nil {
		t.Fatalf("list by face value failed: %v", err)
	}
	if total != 5 || len(records) != 5 {
		t.Fatalf("face value filter want 5 got total %d rows %d", total, len(records))
	}

	// code 为模糊匹配，大小写不敏感（入库即大写）
	records, total, err = repo.List(ExchangeCodeListFilter{Code: "fppageb000"})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("code filter want 5 got %d", total)
	}
	for _, record := range records {
		if record.BatchNo != "FPPAGEB" {
			t.Fatalf("unexpected batch in code filter: %s", record.BatchNo)
		}
	}
}

func TestListExistingCodesReturnsOnlyOccupied(t *testing.T) {
	repo, _ := setupExchangeCodeRepositoryTest(t)
	seedBatch(t, repo, "FPEXIST", 10, 3, nil)

	existing, err := repo.ListExistingCodes([]string{"FPEXIST00000", "FPEXIST00002", "FPCFRESH0001"})
	if err != nil {
		t.Fatalf("list existing failed: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("existing want 2 got %d: %v", len(existing), existing)
	}
}

func TestMarkUsedIsCompareAndSwap(t *testing.T) {
	repo, _ := setupExchangeCodeRepositoryTest(t)
	seedBatch(t, repo, "FPCAS", 10, 1, nil)

	now := time.Now()
	rows, err := repo.MarkUsed("FPCAS00000", 7, now)
	if err != nil {
		t.Fatalf("first mark used failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("first mark used rows want 1 got %d", rows)
	}

	rows, err = repo.MarkUsed("FPCAS00000", 8, now)
	if err != nil {
		t.Fatalf("second mark used failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("second mark used rows want 0 got %d", rows)
	}

	record, err := repo.GetByCode("FPCAS00000")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if record == nil || record.UsedByUserID == nil || *record.UsedByUserID != 7 {
		t.Fatalf("winner must stay user 7, got %+v", record)
	}
}

func TestDeleteUnusedByBatchKeepsUsed(t *testing.T) {
	repo, _ := setupExchangeCodeRepositoryTest(t)
	seedBatch(t, repo, "FPDELREPO", 10, 4, nil)

	if _, err := repo.MarkUsed("FPDELREPO00001", 3, time.Now()); err != nil {
		t.Fatalf("mark used failed: %v", err)
	}

	deleted, err := repo.DeleteUnusedByBatch("FPDELREPO")
	if err != nil {
		t.Fatalf("delete unused failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted want 3 got %d", deleted)
	}

	count, err := repo.CountByBatch("FPDELREPO")
	if err != nil {
		t.Fatalf("count by batch failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("remaining want 1 got %d", count)
	}
}

func TestBatchSummariesAggregation(t *testing.T) {
	repo, _ := setupExchangeCodeRepositoryTest(t)

	past := time.Now().Add(-time.Hour)
	seedBatch(t, repo, "FPAGGA", 10, 3, nil)
	seedBatch(t, repo, "FPAGGB", 20, 2, &past)
	seedBatch(t, repo, "FPAGGC", 30, 1, nil)
	if _, err := repo.MarkUsed("FPAGGA00000", 5, time.Now()); err != nil {
		t.Fatalf("mark used failed: %v", err)
	}

	rows, total, err := repo.BatchSummaries(BatchSummaryFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("batch summaries failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("distinct batches want 3 got %d", total)
	}
	if len(rows) != 2 {
		t.Fatalf("page rows want 2 got %d", len(rows))
	}

	all, _, err := repo.BatchSummaries(BatchSummaryFilter{})
	if err != nil {
		t.Fatalf("batch summaries all failed: %v", err)
	}
	byBatch := map[string]ExchangeCodeBatchRow{}
	for _, row := range all {
		byBatch[row.BatchNo] = row
	}
	if row := byBatch["FPAGGA"]; row.TotalCount != 3 || row.UsedCount != 1 || row.ExpiredCount != 0 {
		t.Fatalf("FPAGGA counts want 3/1/0 got %d/%d/%d", row.TotalCount, row.UsedCount, row.ExpiredCount)
	}
	if row := byBatch["FPAGGB"]; row.TotalCount != 2 || row.ExpiredCount != 2 || row.FaceValue != 20 {
		t.Fatalf("FPAGGB counts want 2 expired 2 face 20 got %d/%d/%d", row.TotalCount, row.ExpiredCount, row.FaceValue)
	}

	// 聚合出的 created_at 在 sqlite 下以文本返回，必须能解析成有效时间
	for batchNo, row := range byBatch {
		if row.CreatedAt.IsZero() {
			t.Fatalf("batch %s created_at must be parsed, got zero time", batchNo)
		}
		if delta := time.Since(row.CreatedAt); delta < 0 || delta > time.Hour {
			t.Fatalf("batch %s created_at out of range: %v", batchNo, row.CreatedAt)
		}
	}
}

func TestParseAggregatedTimeFormats(t *testing.T) {
	cases := []string{
		"2026-08-28T10:30:00.123456789+08:00",
		"2026-08-28T10:30:00Z",
		"2026-08-28 10:30:00.123456789+08:00",
		"2026-08-28 10:30:00",
	}
	for _, raw := range cases {
		value, err := parseAggregatedTime(raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", raw, err)
		}
		if value.Year() != 2026 || value.Hour() != 10 || value.Minute() != 30 {
			t.Fatalf("parse %q got unexpected time %v", raw, value)
		}
	}

	if value, err := parseAggregatedTime(""); err != nil || !value.IsZero() {
		t.Fatalf("empty input want zero time, got %v %v", value, err)
	}
	if _, err := parseAggregatedTime("not-a-time"); err == nil {
		t.Fatal("garbage input must return error")
	}
}
