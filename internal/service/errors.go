package service

import "errors"

// 业务错误定义
// handler 层据此映射响应码，登录失败统一返回模糊提示，避免暴露账号是否存在。
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidPassword    = errors.New("原密码错误")
	ErrUserNotFound       = errors.New("用户不存在")

	ErrExchangeCodeInvalid       = errors.New("兑换码参数无效")
	ErrExchangeCodeNotFound      = errors.New("兑换码不存在")
	ErrExchangeCodeBatchNotFound = errors.New("兑换码批次不存在")
	ErrExchangeCodeUsed          = errors.New("兑换码已被使用")
	ErrExchangeCodeExpired       = errors.New("兑换码已过期")
	ErrExchangeCodeCreateFailed  = errors.New("兑换码生成失败")
	ErrExchangeCodeFetchFailed   = errors.New("兑换码查询失败")
	ErrExchangeCodeDeleteFailed  = errors.New("兑换码删除失败")
	ErrExchangeCodeRedeemFailed  = errors.New("兑换码核销失败")

	ErrOrderFetchFailed     = errors.New("订单查询失败")
	ErrDashboardFetchFailed = errors.New("统计数据查询失败")
	ErrAuditLogFetchFailed  = errors.New("审计日志查询失败")

	ErrCaptchaInvalid = errors.New("验证码错误或已过期")
)
