package repository

import (
	"errors"

	"github.com/fupan-admin/internal/models"

	"gorm.io/gorm"
)

// CoinTransactionRepository 金币流水数据访问接口
type CoinTransactionRepository interface {
	Create(txn *models.CoinTransaction) error
	ListByUser(userID uint, page, pageSize int) ([]models.CoinTransaction, int64, error)
	WithTx(tx *gorm.DB) *GormCoinTransactionRepository
}

// GormCoinTransactionRepository GORM 实现
type GormCoinTransactionRepository struct {
	db *gorm.DB
}

// NewCoinTransactionRepository 创建金币流水仓库
func NewCoinTransactionRepository(db *gorm.DB) *GormCoinTransactionRepository {
	return &GormCoinTransactionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCoinTransactionRepository) WithTx(tx *gorm.DB) *GormCoinTransactionRepository {
	if tx == nil {
		return r
	}
	return &GormCoinTransactionRepository{db: tx}
}

// Create 写入金币流水
func (r *GormCoinTransactionRepository) Create(txn *models.CoinTransaction) error {
	if txn == nil {
		return errors.New("invalid coin transaction")
	}
	return r.db.Create(txn).Error
}

// ListByUser 查询用户金币流水
func (r *GormCoinTransactionRepository) ListByUser(userID uint, page, pageSize int) ([]models.CoinTransaction, int64, error) {
	query := r.db.Model(&models.CoinTransaction{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var txns []models.CoinTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
