package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"

	"gorm.io/gorm"
)

// milestoneTemplate 默认里程碑模板
type milestoneTemplate struct {
	Code      string
	Name      string
	Type      string
	SortOrder int
}

// defaultMilestones 开始履约时种入的固定里程碑，按执行顺序排列
var defaultMilestones = []milestoneTemplate{
	{constants.MilestoneOrderConfirmed, "Order Confirmed", constants.MilestoneTypePreparation, 1},
	{constants.MilestoneProductionCompleted, "Production Completed", constants.MilestoneTypeProduction, 2},
	{constants.MilestoneQualityApproved, "Quality Approved", constants.MilestoneTypeQuality, 3},
	{constants.MilestoneReadyToShip, "Ready to Ship", constants.MilestoneTypeLogistics, 4},
	{constants.MilestoneShipped, "Shipped", constants.MilestoneTypeLogistics, 5},
	{constants.MilestoneDelivered, "Delivered", constants.MilestoneTypeLogistics, 6},
	{constants.MilestoneCompleted, "Completed", constants.MilestoneTypeClosing, 7},
}

// validMilestoneStatuses 里程碑合法状态集合
var validMilestoneStatuses = map[string]bool{
	constants.MilestoneStatusPending:    true,
	constants.MilestoneStatusInProgress: true,
	constants.MilestoneStatusCompleted:  true,
	constants.MilestoneStatusBlocked:    true,
}

// FulfillmentService 履约里程碑服务
type FulfillmentService struct {
	orderRepo     repository.OrderRepository
	milestoneRepo repository.MilestoneRepository
	eventRepo     repository.EventRepository
	statusService *StatusService
}

// NewFulfillmentService 创建履约服务
func NewFulfillmentService(
	orderRepo repository.OrderRepository,
	milestoneRepo repository.MilestoneRepository,
	eventRepo repository.EventRepository,
	statusService *StatusService,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:     orderRepo,
		milestoneRepo: milestoneRepo,
		eventRepo:     eventRepo,
		statusService: statusService,
	}
}

// StartFulfillmentInput 开始履约输入
type StartFulfillmentInput struct {
	Priority            string
	PlannedShipDate     *time.Time
	SpecialInstructions string
	Notes               string
	Actor               string
}

// StartFulfillment 开始履约：一次性种入默认里程碑并记录起始事件
func (s *FulfillmentService) StartFulfillment(orderID, orgID uint, input StartFulfillmentInput) (*FulfillmentStatusView, error) {
	// 先查重：重复开始按冲突处理，优先于订单存在性校验
	count, err := s.milestoneRepo.CountByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("count milestones: %w", err)
	}
	if count > 0 {
		return nil, ErrFulfillmentStarted
	}

	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	priority := strings.TrimSpace(input.Priority)
	if priority == "" {
		priority = constants.PriorityNormal
	}

	now := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		milestones := make([]models.FulfillmentMilestone, 0, len(defaultMilestones))
		for _, tpl := range defaultMilestones {
			milestone := models.FulfillmentMilestone{
				OrgID:         orgID,
				OrderID:       orderID,
				MilestoneCode: tpl.Code,
				MilestoneName: tpl.Name,
				Type:          tpl.Type,
				Status:        constants.MilestoneStatusPending,
				SortOrder:     tpl.SortOrder,
			}
			switch tpl.Code {
			case constants.MilestoneOrderConfirmed:
				// 走到履约的订单已经确认过，首个里程碑直接落为完成
				milestone.Status = constants.MilestoneStatusCompleted
				milestone.CompletedAt = &now
				milestone.CompletedBy = input.Actor
				milestone.Notes = input.Notes
			case constants.MilestoneShipped:
				milestone.PlannedDate = input.PlannedShipDate
			}
			milestones = append(milestones, milestone)
		}
		if err := s.milestoneRepo.WithTx(tx).CreateBatch(milestones); err != nil {
			return err
		}

		metadata := models.JSON{"priority": priority}
		if input.PlannedShipDate != nil {
			metadata["planned_ship_date"] = input.PlannedShipDate.Format(time.RFC3339)
		}
		if instructions := strings.TrimSpace(input.SpecialInstructions); instructions != "" {
			metadata["special_instructions"] = instructions
		}
		return s.eventRepo.WithTx(tx).Append(&models.FulfillmentEvent{
			OrgID:       orgID,
			OrderID:     orderID,
			EventCode:   constants.EventCodeFulfillmentStarted,
			EventType:   constants.EventTypeStatusChange,
			StatusAfter: constants.OverallStatusPreparation,
			ActorUserID: input.Actor,
			Notes:       input.Notes,
			Metadata:    metadata,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("start fulfillment: %w", err)
	}

	logger.Infow("fulfillment_started",
		"order_id", orderID,
		"org_id", orgID,
		"priority", priority,
	)
	return s.statusService.GetFulfillmentStatus(orderID, orgID), nil
}

// UpdateMilestoneInput 更新里程碑输入
type UpdateMilestoneInput struct {
	Status        string
	Notes         string
	PlannedDate   *time.Time
	BlockedReason string
	Actor         string
}

// UpdateMilestone 更新里程碑状态并追加里程碑事件
func (s *FulfillmentService) UpdateMilestone(orderID, orgID uint, code string, input UpdateMilestoneInput) (*models.FulfillmentMilestone, error) {
	status := strings.TrimSpace(input.Status)
	if !validMilestoneStatuses[status] {
		return nil, ErrMilestoneStatusInvalid
	}
	if status == constants.MilestoneStatusBlocked && strings.TrimSpace(input.BlockedReason) == "" {
		return nil, ErrBlockedReasonRequired
	}

	milestone, err := s.milestoneRepo.GetByOrderAndCode(orderID, orgID, code)
	if err != nil {
		return nil, fmt.Errorf("fetch milestone: %w", err)
	}
	if milestone == nil {
		return nil, ErrMilestoneNotFound
	}

	now := time.Now()
	milestone.Status = status
	if strings.TrimSpace(input.Notes) != "" {
		milestone.Notes = input.Notes
	}
	if input.PlannedDate != nil {
		milestone.PlannedDate = input.PlannedDate
	}
	switch status {
	case constants.MilestoneStatusCompleted:
		milestone.CompletedAt = &now
		milestone.CompletedBy = input.Actor
		milestone.BlockedReason = ""
	case constants.MilestoneStatusBlocked:
		milestone.BlockedReason = strings.TrimSpace(input.BlockedReason)
	default:
		milestone.BlockedReason = ""
	}
	milestone.UpdatedAt = now

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.milestoneRepo.WithTx(tx).Update(milestone); err != nil {
			return err
		}
		return s.eventRepo.WithTx(tx).Append(&models.FulfillmentEvent{
			OrgID:       orgID,
			OrderID:     orderID,
			EventCode:   constants.EventCodeMilestoneUpdated,
			EventType:   constants.EventTypeMilestone,
			StatusAfter: status,
			ActorUserID: input.Actor,
			Notes:       input.Notes,
			Metadata: models.JSON{
				"milestone_code": milestone.MilestoneCode,
				"new_status":     status,
				"blocked_reason": milestone.BlockedReason,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	return milestone, nil
}

// CompleteMilestone 内部联动完成指定里程碑，已完成时跳过
func (s *FulfillmentService) CompleteMilestone(orderID, orgID uint, code, actor, notes string) error {
	milestone, err := s.milestoneRepo.GetByOrderAndCode(orderID, orgID, code)
	if err != nil {
		return fmt.Errorf("fetch milestone: %w", err)
	}
	if milestone == nil {
		return ErrMilestoneNotFound
	}
	if milestone.Status == constants.MilestoneStatusCompleted {
		return nil
	}
	_, err = s.UpdateMilestone(orderID, orgID, code, UpdateMilestoneInput{
		Status: constants.MilestoneStatusCompleted,
		Notes:  notes,
		Actor:  actor,
	})
	return err
}

// BlockMilestone 内部联动阻塞指定里程碑
func (s *FulfillmentService) BlockMilestone(orderID, orgID uint, code, reason, actor string) error {
	_, err := s.UpdateMilestone(orderID, orgID, code, UpdateMilestoneInput{
		Status:        constants.MilestoneStatusBlocked,
		BlockedReason: reason,
		Actor:         actor,
	})
	return err
}

// ListEvents 分页查询订单的履约事件，订单不存在时返回 ErrOrderNotFound
func (s *FulfillmentService) ListEvents(orderID, orgID uint, filter repository.EventListFilter) ([]models.FulfillmentEvent, int64, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, 0, ErrOrderNotFound
	}
	filter.OrderID = orderID
	filter.OrgID = orgID
	events, total, err := s.eventRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}
