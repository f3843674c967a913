package repository

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.AnalysisOrder{},
		&models.ExchangeCode{},
		&models.CoinTransaction{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func TestDashboardOverviewCounts(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()
	past := now.Add(-time.Hour)

	users := []models.User{
		{Email: "a@example.com", Nickname: "a", Status: constants.UserStatusActive},
		{Email: "b@example.com", Nickname: "b", Status: constants.UserStatusActive},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users failed: %v", err)
	}

	orders := []models.AnalysisOrder{
		{OrderNo: "AO1", UserID: users[0].ID, StockCode: "SH600519", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(29.90)), Status: constants.OrderStatusPaid, PaidAt: &now},
		{OrderNo: "AO2", UserID: users[0].ID, StockCode: "SZ300750", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)), Status: constants.OrderStatusCompleted, PaidAt: &now},
		{OrderNo: "AO3", UserID: users[1].ID, StockCode: "SH601318", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(9.90)), Status: constants.OrderStatusPendingPayment},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("seed orders failed: %v", err)
	}

	codes := []models.ExchangeCode{
		{Code: "FPCDASH00001", BatchNo: "FPDASH", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused},
		{Code: "FPCDASH00002", BatchNo: "FPDASH", FaceValue: 10, Status: constants.ExchangeCodeStatusUsed, UsedByUserID: &users[0].ID, UsedAt: &now},
		{Code: "FPCDASH00003", BatchNo: "FPDASH", FaceValue: 10, Status: constants.ExchangeCodeStatusUnused, ExpiresAt: &past},
	}
	if err := db.Create(&codes).Error; err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}

	txn := models.CoinTransaction{
		UserID:       users[0].ID,
		Amount:       10,
		Direction:    constants.CoinTxnDirectionIn,
		TxnType:      constants.CoinTxnTypeExchangeCode,
		Reference:    "FPCDASH00002",
		BalanceAfter: 10,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("seed txn failed: %v", err)
	}

	overview, err := repo.GetOverview()
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.TotalUsers != 2 {
		t.Fatalf("total users want 2 got %d", overview.TotalUsers)
	}
	if overview.TotalOrders != 3 || overview.PaidOrders != 2 {
		t.Fatalf("orders want 3/2 got %d/%d", overview.TotalOrders, overview.PaidOrders)
	}
	if math.Abs(overview.TotalRevenue-49.80) > 0.001 {
		t.Fatalf("revenue want 49.80 got %f", overview.TotalRevenue)
	}
	if overview.TotalCodes != 3 || overview.UsedCodes != 1 || overview.ExpiredCodes != 1 || overview.UnusedCodes != 1 {
		t.Fatalf("codes want 3/1/1/1 got %d/%d/%d/%d",
			overview.TotalCodes, overview.UsedCodes, overview.ExpiredCodes, overview.UnusedCodes)
	}
	if overview.CoinsGranted != 10 {
		t.Fatalf("coins granted want 10 got %d", overview.CoinsGranted)
	}
}

func TestDashboardDailyWindow(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	user := models.User{Email: "c@example.com", Nickname: "c", Status: constants.UserStatusActive}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	orders := []models.AnalysisOrder{
		{OrderNo: "AO10", UserID: user.ID, StockCode: "SH600519", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(29.90)), Status: constants.OrderStatusPaid, PaidAt: &now},
		{OrderNo: "AO11", UserID: user.ID, StockCode: "SH600519", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(29.90)), Status: constants.OrderStatusPaid, PaidAt: &yesterday, CreatedAt: yesterday},
	}
	if err := db.Create(&orders).Error; err != nil {
		t.Fatalf("seed orders failed: %v", err)
	}

	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)
	daily, err := repo.GetDaily(startAt, endAt)
	if err != nil {
		t.Fatalf("get daily failed: %v", err)
	}
	if daily.NewUsers != 1 {
		t.Fatalf("new users want 1 got %d", daily.NewUsers)
	}
	if daily.NewOrders != 1 || daily.PaidOrders != 1 {
		t.Fatalf("orders in window want 1/1 got %d/%d", daily.NewOrders, daily.PaidOrders)
	}
	if math.Abs(daily.Revenue-29.90) > 0.001 {
		t.Fatalf("window revenue want 29.90 got %f", daily.Revenue)
	}
}
