package provider

import (
	"time"

	"github.com/fulfill-next/internal/cache"
	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/integration"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/repository"
	"github.com/fulfill-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Hub         *integration.Hub

	// Repositories
	OrgRepo        repository.OrganizationRepository
	OrderRepo      repository.OrderRepository
	OrderItemRepo  repository.OrderItemRepository
	WorkOrderRepo  repository.WorkOrderRepository
	MilestoneRepo  repository.MilestoneRepository
	EventRepo      repository.EventRepository
	ShipmentRepo   repository.ShipmentRepository
	QualityRepo    repository.QualityCheckRepository
	CompletionRepo repository.CompletionRepository
	DashboardRepo  repository.DashboardRepository

	// Services
	OrderService        *service.OrderService
	StatusService       *service.StatusService
	FulfillmentService  *service.FulfillmentService
	ShipmentService     *service.ShipmentService
	QualityService      *service.QualityService
	CompletionService   *service.CompletionService
	AutoCompleteService *service.AutoCompleteService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（队列关闭时为禁用空实现，调用侧不需要判空）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化集成点
	c.Hub = integration.NewHub(c.EventRepo)

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrgRepo = repository.NewOrganizationRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderItemRepo = repository.NewOrderItemRepository(db)
	c.WorkOrderRepo = repository.NewWorkOrderRepository(db)
	c.MilestoneRepo = repository.NewMilestoneRepository(db)
	c.EventRepo = repository.NewEventRepository(db)
	c.ShipmentRepo = repository.NewShipmentRepository(db)
	c.QualityRepo = repository.NewQualityCheckRepository(db)
	c.CompletionRepo = repository.NewCompletionRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	cacheTTL := time.Duration(c.Config.Dashboard.CacheTTLSeconds) * time.Second
	criticalCheckTypes := c.Config.Fulfillment.CriticalCheckTypes
	autoCompleteDefaults := service.AutoCompletionRules{
		Enabled:              c.Config.Fulfillment.AutoComplete.Enabled,
		RequirePayment:       c.Config.Fulfillment.AutoComplete.RequirePayment,
		RequireQualityCheck:  c.Config.Fulfillment.AutoComplete.RequireQualityCheck,
		RequireNotifications: c.Config.Fulfillment.AutoComplete.RequireNotifications,
	}

	c.OrderService = service.NewOrderService(c.OrderRepo, c.EventRepo)
	c.StatusService = service.NewStatusService(c.OrderItemRepo, c.MilestoneRepo, c.EventRepo, c.ShipmentRepo, c.CompletionRepo, c.DashboardRepo, cacheTTL)
	c.FulfillmentService = service.NewFulfillmentService(c.OrderRepo, c.MilestoneRepo, c.EventRepo, c.StatusService)
	c.QualityService = service.NewQualityService(c.OrderRepo, c.QualityRepo, c.EventRepo, c.FulfillmentService, criticalCheckTypes)
	c.CompletionService = service.NewCompletionService(c.OrderRepo, c.MilestoneRepo, c.CompletionRepo, c.EventRepo, c.QueueClient)
	c.AutoCompleteService = service.NewAutoCompleteService(
		c.OrderRepo, c.OrderItemRepo, c.ShipmentRepo, c.WorkOrderRepo, c.QualityRepo, c.EventRepo, c.OrgRepo,
		c.CompletionService,
		autoCompleteDefaults,
		criticalCheckTypes,
	)
	// 发货服务持有评估器，队列关闭时签收后就地评估自动完成
	c.ShipmentService = service.NewShipmentService(c.OrderRepo, c.OrderItemRepo, c.ShipmentRepo, c.OrgRepo, c.EventRepo, c.OrderService, c.FulfillmentService, c.AutoCompleteService, c.QueueClient)
}
