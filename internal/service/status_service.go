package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fulfill-next/internal/cache"
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"
)

const defaultDashboardCacheTTL = 30 * time.Second

// FulfillmentBlocker 履约阻塞项
type FulfillmentBlocker struct {
	MilestoneCode string `json:"milestone_code,omitempty"`
	MilestoneName string `json:"milestone_name,omitempty"`
	Reason        string `json:"reason"`
	Severity      string `json:"severity"`
}

// FulfillmentStatusView 履约状态只读视图，按需推导不落库
type FulfillmentStatusView struct {
	OrderID          uint                          `json:"order_id"`
	OrgID            uint                          `json:"org_id"`
	OverallStatus    string                        `json:"overall_status"`
	Progress         int                           `json:"progress"`
	CompletedCount   int                           `json:"completed_count"`
	TotalMilestones  int                           `json:"total_milestones"`
	CurrentMilestone string                        `json:"current_milestone,omitempty"`
	NextMilestone    string                        `json:"next_milestone,omitempty"`
	Milestones       []models.FulfillmentMilestone `json:"milestones"`
	Shipping         OrderShippingStatus           `json:"shipping"`
	Blockers         []FulfillmentBlocker          `json:"blockers"`
}

// FulfillmentDashboard 组织维度的履约看板
type FulfillmentDashboard struct {
	OrgID                uint                      `json:"org_id"`
	OrdersInFulfillment  int64                     `json:"orders_in_fulfillment"`
	CompletedOrders      int64                     `json:"completed_orders"`
	BlockedMilestones    int64                     `json:"blocked_milestones"`
	AverageProgress      float64                   `json:"average_progress"`
	OrderStatusCounts    map[string]int64          `json:"order_status_counts"`
	ShipmentStatusCounts map[string]int64          `json:"shipment_status_counts"`
	RecentEvents         []models.FulfillmentEvent `json:"recent_events"`
	GeneratedAt          time.Time                 `json:"generated_at"`
}

// StatusService 履约状态聚合服务
type StatusService struct {
	orderItemRepo  repository.OrderItemRepository
	milestoneRepo  repository.MilestoneRepository
	eventRepo      repository.EventRepository
	shipmentRepo   repository.ShipmentRepository
	completionRepo repository.CompletionRepository
	dashboardRepo  repository.DashboardRepository
	cacheTTL       time.Duration
}

// NewStatusService 创建状态聚合服务
func NewStatusService(
	orderItemRepo repository.OrderItemRepository,
	milestoneRepo repository.MilestoneRepository,
	eventRepo repository.EventRepository,
	shipmentRepo repository.ShipmentRepository,
	completionRepo repository.CompletionRepository,
	dashboardRepo repository.DashboardRepository,
	cacheTTL time.Duration,
) *StatusService {
	if cacheTTL <= 0 {
		cacheTTL = defaultDashboardCacheTTL
	}
	return &StatusService{
		orderItemRepo:  orderItemRepo,
		milestoneRepo:  milestoneRepo,
		eventRepo:      eventRepo,
		shipmentRepo:   shipmentRepo,
		completionRepo: completionRepo,
		dashboardRepo:  dashboardRepo,
		cacheTTL:       cacheTTL,
	}
}

// GetFulfillmentStatus 推导订单履约状态视图，任何内部失败都退化为异常视图而不是报错
func (s *StatusService) GetFulfillmentStatus(orderID, orgID uint) *FulfillmentStatusView {
	view, err := s.buildStatusView(orderID, orgID)
	if err != nil {
		logger.Errorw("fulfillment_status_build_failed",
			"order_id", orderID,
			"org_id", orgID,
			"error", err,
		)
		return &FulfillmentStatusView{
			OrderID:       orderID,
			OrgID:         orgID,
			OverallStatus: constants.OverallStatusException,
			Milestones:    []models.FulfillmentMilestone{},
			Blockers: []FulfillmentBlocker{{
				Reason:   "system error while deriving fulfillment status",
				Severity: constants.BlockerSeverityCritical,
			}},
		}
	}
	return view
}

func (s *StatusService) buildStatusView(orderID, orgID uint) (*FulfillmentStatusView, error) {
	milestones, err := s.milestoneRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	items, err := s.orderItemRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	shipments, err := s.shipmentRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	completion, err := s.completionRepo.GetByOrderID(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch completion record: %w", err)
	}

	shipping := computeShippingStatus(items, shipments)
	view := &FulfillmentStatusView{
		OrderID:         orderID,
		OrgID:           orgID,
		TotalMilestones: len(milestones),
		Milestones:      milestones,
		Shipping:        shipping,
		Blockers:        []FulfillmentBlocker{},
	}

	for _, milestone := range milestones {
		if milestone.Status == constants.MilestoneStatusCompleted {
			view.CompletedCount++
		}
		if milestone.Status == constants.MilestoneStatusBlocked {
			view.Blockers = append(view.Blockers, FulfillmentBlocker{
				MilestoneCode: milestone.MilestoneCode,
				MilestoneName: milestone.MilestoneName,
				Reason:        milestone.BlockedReason,
				Severity:      constants.BlockerSeverityHigh,
			})
		}
	}
	if view.TotalMilestones > 0 {
		view.Progress = int(math.Round(float64(view.CompletedCount) * 100 / float64(view.TotalMilestones)))
	}
	view.CurrentMilestone = currentMilestoneName(milestones)
	view.NextMilestone = nextMilestoneName(milestones)
	view.OverallStatus = resolveOverallStatus(milestones, shipping, completion != nil)
	return view, nil
}

// currentMilestoneName 进行中的里程碑优先，否则取最近完成的里程碑
func currentMilestoneName(milestones []models.FulfillmentMilestone) string {
	for _, milestone := range milestones {
		if milestone.Status == constants.MilestoneStatusInProgress {
			return milestone.MilestoneName
		}
	}
	name := ""
	var latest *time.Time
	for _, milestone := range milestones {
		if milestone.Status != constants.MilestoneStatusCompleted {
			continue
		}
		if milestone.CompletedAt == nil {
			if name == "" {
				name = milestone.MilestoneName
			}
			continue
		}
		if latest == nil || milestone.CompletedAt.After(*latest) {
			latest = milestone.CompletedAt
			name = milestone.MilestoneName
		}
	}
	return name
}

// nextMilestoneName 排序后的首个待处理里程碑
func nextMilestoneName(milestones []models.FulfillmentMilestone) string {
	for _, milestone := range milestones {
		if milestone.Status == constants.MilestoneStatusPending {
			return milestone.MilestoneName
		}
	}
	return ""
}

// resolveOverallStatus 按优先级归并整体履约状态
func resolveOverallStatus(milestones []models.FulfillmentMilestone, shipping OrderShippingStatus, completed bool) string {
	if completed {
		return constants.OverallStatusCompleted
	}
	if shipping.IsFullyDelivered && shipping.ShipmentCount > 0 {
		return constants.OverallStatusDelivered
	}
	if shipping.IsFullyShipped && shipping.ShipmentCount > 0 {
		return constants.OverallStatusShipped
	}
	anyCompleted := false
	for _, milestone := range milestones {
		if milestone.Status != constants.MilestoneStatusCompleted {
			continue
		}
		anyCompleted = true
		if milestone.MilestoneCode == constants.MilestoneReadyToShip {
			return constants.OverallStatusReadyToShip
		}
	}
	if anyCompleted {
		return constants.OverallStatusPreparation
	}
	return constants.OverallStatusNotStarted
}

// GetFulfillmentDashboard 组织履约看板，短 TTL 缓存聚合结果
func (s *StatusService) GetFulfillmentDashboard(ctx context.Context, orgID uint) (*FulfillmentDashboard, error) {
	cacheKey := fmt.Sprintf("dashboard:fulfillment:%d", orgID)
	var cached FulfillmentDashboard
	hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
	if cacheErr == nil && hit {
		return &cached, nil
	}

	overview, err := s.dashboardRepo.GetFulfillmentOverview(orgID)
	if err != nil {
		return nil, fmt.Errorf("fulfillment overview: %w", err)
	}
	averageProgress, err := s.dashboardRepo.GetAverageProgress(orgID)
	if err != nil {
		return nil, fmt.Errorf("average progress: %w", err)
	}
	orderCounts, err := s.dashboardRepo.GetOrderStatusCounts(orgID)
	if err != nil {
		return nil, fmt.Errorf("order status counts: %w", err)
	}
	shipmentCounts, err := s.dashboardRepo.GetShipmentStatusCounts(orgID)
	if err != nil {
		return nil, fmt.Errorf("shipment status counts: %w", err)
	}
	recentEvents, err := s.eventRepo.ListRecentByOrg(orgID, 10)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}

	dashboard := &FulfillmentDashboard{
		OrgID:                orgID,
		OrdersInFulfillment:  overview.OrdersInFulfillment,
		CompletedOrders:      overview.CompletedOrders,
		BlockedMilestones:    overview.BlockedMilestones,
		AverageProgress:      math.Round(averageProgress*100) / 100,
		OrderStatusCounts:    statusCountMap(orderCounts),
		ShipmentStatusCounts: statusCountMap(shipmentCounts),
		RecentEvents:         recentEvents,
		GeneratedAt:          time.Now(),
	}

	_ = cache.SetJSON(ctx, cacheKey, dashboard, s.cacheTTL)
	return dashboard, nil
}

func statusCountMap(rows []repository.StatusCountRow) map[string]int64 {
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts
}
