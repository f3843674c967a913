package provider

import (
	"github.com/fupan-admin/internal/cache"
	"github.com/fupan-admin/internal/config"
	"github.com/fupan-admin/internal/logger"
	"github.com/fupan-admin/internal/models"
	"github.com/fupan-admin/internal/queue"
	"github.com/fupan-admin/internal/repository"
	"github.com/fupan-admin/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	UserRepo          repository.UserRepository
	CoinTxnRepo       repository.CoinTransactionRepository
	ExchangeCodeRepo  repository.ExchangeCodeRepository
	AnalysisOrderRepo repository.AnalysisOrderRepository
	AuditLogRepo      repository.AdminAuditLogRepository
	DashboardRepo     repository.DashboardRepository

	// Services
	AuthService          *service.AuthService
	CaptchaService       *service.CaptchaService
	ExchangeCodeService  *service.ExchangeCodeService
	AnalysisOrderService *service.AnalysisOrderService
	AuditService         *service.AuditService
	DashboardService     *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.CoinTxnRepo = repository.NewCoinTransactionRepository(db)
	c.ExchangeCodeRepo = repository.NewExchangeCodeRepository(db)
	c.AnalysisOrderRepo = repository.NewAnalysisOrderRepository(db)
	c.AuditLogRepo = repository.NewAdminAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.ExchangeCodeService = service.NewExchangeCodeService(
		c.ExchangeCodeRepo,
		c.UserRepo,
		c.CoinTxnRepo,
		c.Config.ExchangeCode.MaxBatchQuantity,
	)
	c.AnalysisOrderService = service.NewAnalysisOrderService(c.AnalysisOrderRepo)
	c.AuditService = service.NewAuditService(c.AuditLogRepo, c.QueueClient)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
