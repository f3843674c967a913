package main

import (
	"fmt"
	"time"

	"github.com/fupan-admin/internal/config"
	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/logger"
	"github.com/fupan-admin/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加示例用户
	users := []models.User{
		{Email: "trader01@example.com", Nickname: "短线老王", Coins: 120, Status: constants.UserStatusActive},
		{Email: "trader02@example.com", Nickname: "波段小李", Coins: 40, Status: constants.UserStatusActive},
		{Email: "trader03@example.com", Nickname: "价值阿明", Coins: 0, Status: constants.UserStatusDisabled},
	}
	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s", user.Email)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	// 读取用户 ID
	userIDs := map[string]uint{}
	var userList []models.User
	if err := models.DB.Where("email IN ?", []string{
		"trader01@example.com",
		"trader02@example.com",
		"trader03@example.com",
	}).Find(&userList).Error; err != nil {
		stdLog.Fatalf("Failed to load users: %v", err)
	}
	for _, user := range userList {
		userIDs[user.Email] = user.ID
	}

	// 添加示例复盘订单
	now := time.Now()
	paidAt := now.Add(-2 * time.Hour)
	orders := []models.AnalysisOrder{
		{
			OrderNo:   fmt.Sprintf("AO%s0001", now.Format("20060102")),
			UserID:    userIDs["trader01@example.com"],
			StockCode: "SH600519",
			StockName: "贵州茅台",
			Amount:    models.NewMoneyFromFloat(29.90),
			Status:    constants.OrderStatusPaid,
			PaidAt:    &paidAt,
		},
		{
			OrderNo:   fmt.Sprintf("AO%s0002", now.Format("20060102")),
			UserID:    userIDs["trader02@example.com"],
			StockCode: "SZ300750",
			StockName: "宁德时代",
			Amount:    models.NewMoneyFromFloat(29.90),
			Status:    constants.OrderStatusPendingPayment,
		},
		{
			OrderNo:   fmt.Sprintf("AO%s0003", now.Format("20060102")),
			UserID:    userIDs["trader01@example.com"],
			StockCode: "SH601318",
			StockName: "中国平安",
			Amount:    models.NewMoneyFromFloat(19.90),
			Status:    constants.OrderStatusCompleted,
			PaidAt:    &paidAt,
		},
	}
	for _, order := range orders {
		if order.UserID == 0 {
			continue
		}
		var existing models.AnalysisOrder
		if err := models.DB.Where("order_no = ?", order.OrderNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
			} else {
				stdLog.Printf("Created order: %s", order.OrderNo)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.OrderNo)
		}
	}

	// 添加示例兑换码批次
	expiresAt := now.Add(30 * 24 * time.Hour)
	batchNo := fmt.Sprintf("FP%sSEED", now.Format("060102"))
	codes := []models.ExchangeCode{
		{Code: "FPCSEED000001AAAAA", BatchNo: batchNo, FaceValue: 10, Status: constants.ExchangeCodeStatusUnused, ExpiresAt: &expiresAt},
		{Code: "FPCSEED000002BBBBB", BatchNo: batchNo, FaceValue: 10, Status: constants.ExchangeCodeStatusUnused, ExpiresAt: &expiresAt},
		{Code: "FPCSEED000003CCCCC", BatchNo: batchNo, FaceValue: 10, Status: constants.ExchangeCodeStatusUnused},
	}
	for _, code := range codes {
		var existing models.ExchangeCode
		if err := models.DB.Where("code = ?", code.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&code).Error; err != nil {
				stdLog.Printf("Failed to create exchange code %s: %v", code.Code, err)
			} else {
				stdLog.Printf("Created exchange code: %s", code.Code)
			}
		} else {
			stdLog.Printf("Exchange code already exists: %s", code.Code)
		}
	}

	stdLog.Printf("Seed finished")
}
