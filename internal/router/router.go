package router

import (
	"fmt"
	"strings"

	"github.com/fupan-admin/internal/cache"
	"github.com/fupan-admin/internal/config"
	adminhandlers "github.com/fupan-admin/internal/http/handlers/admin"
	"github.com/fupan-admin/internal/logger"
	"github.com/fupan-admin/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "fp"
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录与验证码（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)
			admin.GET("/captcha/image", adminHandler.GetImageCaptcha)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/today", adminHandler.GetDashboardToday)

				// 兑换码管理
				authorized.POST("/exchange-codes", adminHandler.GenerateExchangeCodes)
				authorized.GET("/exchange-codes", adminHandler.GetExchangeCodes)
				authorized.POST("/exchange-codes/redeem", adminHandler.RedeemExchangeCode)
				authorized.GET("/exchange-codes/batches", adminHandler.GetExchangeCodeBatches)
				authorized.DELETE("/exchange-codes/batches/:batch_no", adminHandler.DeleteExchangeCodeBatch)
				authorized.GET("/exchange-codes/batches/:batch_no/export", adminHandler.ExportExchangeCodes)

				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)

				// 审计日志
				authorized.GET("/audit-logs", adminHandler.ListAuditLogs)

				// 账户
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)
				authorized.POST("/logout", adminHandler.AdminLogout)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
