package constants

// 兑换码状态常量
// expired 不落库，由 expires_at 与当前时间在读取时推导。
const (
	ExchangeCodeStatusUnused  = "unused"
	ExchangeCodeStatusUsed    = "used"
	ExchangeCodeStatusExpired = "expired"
)

// 分析订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 金币流水类型常量
const (
	CoinTxnTypeExchangeCode = "exchange_code"
)

// 金币流水方向常量
const (
	CoinTxnDirectionIn = "in"
)

// 审计动作常量
const (
	AuditActionLogin          = "admin.login"
	AuditActionLogout         = "admin.logout"
	AuditActionChangePassword = "admin.change_password"
	AuditActionGenerateCodes  = "exchange_code.generate"
	AuditActionDeleteBatch    = "exchange_code.delete_batch"
	AuditActionRedeemCode     = "exchange_code.redeem"
	AuditActionExportBatch    = "exchange_code.export"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskAuditLog = "audit:log"
)
