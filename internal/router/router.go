package router

import (
	"fmt"
	"strings"

	"github.com/fulfill-next/internal/cache"
	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/http/handlers"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := handlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ff"
	}
	redisClient := cache.Client()
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxRequests,
	}
	writeLimit := RateLimitMiddleware(redisClient, writeRule, KeyByOrgAndIP)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	apiV1.GET("/healthz", healthz)

	scoped := apiV1.Group("")
	scoped.Use(IdentityMiddleware())
	{
		// 订单维度的履约操作
		orders := scoped.Group("/orders")
		{
			orders.POST("/:id/fulfillment/start", writeLimit, handler.StartFulfillment)
			orders.PUT("/:id/fulfillment/milestones/:code", writeLimit, handler.UpdateMilestone)
			orders.GET("/:id/fulfillment/status", handler.GetFulfillmentStatus)
			orders.GET("/:id/fulfillment/events", handler.ListFulfillmentEvents)
			orders.POST("/:id/shipments", writeLimit, handler.CreateShipment)
			orders.GET("/:id/shipping-status", handler.GetShippingStatus)
			orders.POST("/:id/quality-checks", writeLimit, handler.CreateQualityCheck)
			orders.POST("/:id/complete", writeLimit, handler.CompleteOrder)
			orders.PUT("/:id/status", writeLimit, handler.UpdateOrderStatus)
			orders.POST("/status/bulk", writeLimit, handler.BulkUpdateOrderStatus)
		}

		// 发货单维度的操作
		shipments := scoped.Group("/shipments")
		{
			shipments.POST("/:id/ship", writeLimit, handler.ShipShipment)
			shipments.POST("/:id/deliver", writeLimit, handler.DeliverShipment)
		}

		// 看板
		scoped.GET("/dashboard/fulfillment", handler.GetFulfillmentDashboard)
	}

	// 健康检查（兼容根路径探针）
	r.GET("/health", healthz)

	return r
}

// healthz 健康检查：带数据库连通性探测
func healthz(c *gin.Context) {
	status := "ok"
	httpStatus := 200
	if models.DB != nil {
		if sqlDB, err := models.DB.DB(); err != nil || sqlDB.Ping() != nil {
			status = "degraded"
			httpStatus = 503
		}
	}
	c.JSON(httpStatus, gin.H{"status": status})
}
