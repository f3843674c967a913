package repository

import (
	"testing"

	"github.com/fupan-admin/internal/constants"
	"github.com/fupan-admin/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestDBDialectNameDefaultsToSQLite(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}

func TestApplyRowLockExecutesOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:dialect_lock_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ExchangeCode{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	seed := models.ExchangeCode{
		Code:      "FPCDIALECT001",
		BatchNo:   "FPDIALECT",
		FaceValue: 10,
		Status:    constants.ExchangeCodeStatusUnused,
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// sqlite 不接受 FOR UPDATE 语法，加锁查询必须在 sqlite 上可执行
	var record models.ExchangeCode
	if err := applyRowLock(db).Where("code = ?", "FPCDIALECT001").First(&record).Error; err != nil {
		t.Fatalf("row lock query failed on sqlite: %v", err)
	}
	if record.ID != seed.ID {
		t.Fatalf("record id want %d got %d", seed.ID, record.ID)
	}
}
