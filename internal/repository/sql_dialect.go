package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// applyRowLock 行锁查询
// sqlite 不支持 FOR UPDATE，依赖其单写事务语义，锁子句只在 postgres 上生效。
func applyRowLock(db *gorm.DB) *gorm.DB {
	switch dbDialectName(db) {
	case "postgres", "postgresql":
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return db
	}
}
