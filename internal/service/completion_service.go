package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/repository"

	"gorm.io/gorm"
)

// criticalMilestoneGates 完成前必须齐备的关键里程碑，同组内任一编码完成即视为达标。
// 旧数据里程碑沿用历史编码，所以每组带别名
var criticalMilestoneGates = [][]string{
	{constants.MilestoneProductionCompleted, constants.MilestoneLegacyManufacturingCompleted},
	{constants.MilestoneQualityApproved, constants.MilestoneLegacyQualityCheckPassed},
	{constants.MilestoneShipped},
	{constants.MilestoneDelivered},
}

// CompletionService 订单完成授权服务
type CompletionService struct {
	orderRepo      repository.OrderRepository
	milestoneRepo  repository.MilestoneRepository
	completionRepo repository.CompletionRepository
	eventRepo      repository.EventRepository
	queueClient    *queue.Client
}

// NewCompletionService 创建完成授权服务
func NewCompletionService(
	orderRepo repository.OrderRepository,
	milestoneRepo repository.MilestoneRepository,
	completionRepo repository.CompletionRepository,
	eventRepo repository.EventRepository,
	queueClient *queue.Client,
) *CompletionService {
	return &CompletionService{
		orderRepo:      orderRepo,
		milestoneRepo:  milestoneRepo,
		completionRepo: completionRepo,
		eventRepo:      eventRepo,
		queueClient:    queueClient,
	}
}

// CompleteOrderInput 完成订单输入
type CompleteOrderInput struct {
	CompletionType            string
	VerificationMethod        string
	CustomerSatisfactionScore *models.Money
	QualityScore              *models.Money
	GenerateInvoice           bool
	CaptureFinalPayment       bool
	Notes                     string
	Actor                     string
}

// incompleteCriticalMilestones 返回未达标的关键里程碑编码
func incompleteCriticalMilestones(milestones []models.FulfillmentMilestone) []string {
	completed := make(map[string]bool, len(milestones))
	for _, milestone := range milestones {
		if milestone.Status == constants.MilestoneStatusCompleted {
			completed[milestone.MilestoneCode] = true
		}
	}
	missing := make([]string, 0)
	for _, gate := range criticalMilestoneGates {
		satisfied := false
		for _, code := range gate {
			if completed[code] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, gate[0])
		}
	}
	return missing
}

// CompleteOrder 终审完成订单：建唯一完成档案、收口里程碑、直写宏观状态并落完成事件
func (s *CompletionService) CompleteOrder(orderID, orgID uint, input CompleteOrderInput) (*models.CompletionRecord, error) {
	existing, err := s.completionRepo.GetByOrderID(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch completion record: %w", err)
	}
	if existing != nil {
		return nil, ErrCompletionExists
	}

	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	milestones, err := s.milestoneRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	if missing := incompleteCriticalMilestones(milestones); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCriticalMilestonesIncomplete, strings.Join(missing, ", "))
	}

	completionType := strings.TrimSpace(input.CompletionType)
	if completionType == "" {
		completionType = constants.CompletionTypeManual
	}

	now := time.Now()
	record := &models.CompletionRecord{
		OrgID:                     orgID,
		OrderID:                   orderID,
		CompletionType:            completionType,
		CompletedBy:               input.Actor,
		CompletedAt:               now,
		VerificationMethod:        input.VerificationMethod,
		CustomerSatisfactionScore: input.CustomerSatisfactionScore,
		QualityScore:              input.QualityScore,
		InvoiceGenerated:          input.GenerateInvoice,
		FinalPaymentCaptured:      input.CaptureFinalPayment,
		Notes:                     input.Notes,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		// 唯一索引兜底并发场景下的重复完成
		if err := s.completionRepo.WithTx(tx).Create(record); err != nil {
			return ErrCompletionCreateFailed
		}

		milestoneRepo := s.milestoneRepo.WithTx(tx)
		closing, err := milestoneRepo.GetByOrderAndCode(orderID, orgID, constants.MilestoneCompleted)
		if err != nil {
			return err
		}
		if closing != nil && closing.Status != constants.MilestoneStatusCompleted {
			closing.Status = constants.MilestoneStatusCompleted
			closing.CompletedAt = &now
			closing.CompletedBy = input.Actor
			closing.BlockedReason = ""
			closing.UpdatedAt = now
			if err := milestoneRepo.Update(closing); err != nil {
				return err
			}
		}

		// 完成是终审裁决，宏观状态直写 completed 不再走状态机
		if err := s.orderRepo.WithTx(tx).UpdateStatus(orderID, constants.OrderStatusCompleted, map[string]interface{}{
			"updated_at": now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}

		metadata := models.JSON{
			"completion_type":        completionType,
			"invoice_generated":      input.GenerateInvoice,
			"final_payment_captured": input.CaptureFinalPayment,
		}
		if input.CustomerSatisfactionScore != nil {
			metadata["customer_satisfaction_score"] = input.CustomerSatisfactionScore.String()
		}
		if input.QualityScore != nil {
			metadata["quality_score"] = input.QualityScore.String()
		}
		return s.eventRepo.WithTx(tx).Append(&models.FulfillmentEvent{
			OrgID:       orgID,
			OrderID:     orderID,
			EventCode:   constants.EventCodeCompleted,
			EventType:   constants.EventTypeCompletion,
			StatusAfter: constants.OrderStatusCompleted,
			ActorUserID: input.Actor,
			Notes:       input.Notes,
			Metadata:    metadata,
			CreatedAt:   now,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCompletionCreateFailed):
			return nil, ErrCompletionCreateFailed
		case errors.Is(err, ErrOrderUpdateFailed):
			return nil, ErrOrderUpdateFailed
		default:
			return nil, fmt.Errorf("complete order: %w", err)
		}
	}

	if err := s.queueClient.EnqueueCompletionFollowUp(queue.CompletionFollowUpPayload{
		OrderID:             orderID,
		OrgID:               orgID,
		CompletionRecordID:  record.ID,
		GenerateInvoice:     input.GenerateInvoice,
		CaptureFinalPayment: input.CaptureFinalPayment,
	}); err != nil {
		logger.Warnw("completion_follow_up_enqueue_failed",
			"order_id", orderID,
			"completion_record_id", record.ID,
			"error", err,
		)
	}

	logger.Infow("order_completed",
		"order_id", orderID,
		"org_id", orgID,
		"completion_type", completionType,
		"actor", input.Actor,
	)
	return record, nil
}

// GetCompletionRecord 获取订单完成档案
func (s *CompletionService) GetCompletionRecord(orderID, orgID uint) (*models.CompletionRecord, error) {
	record, err := s.completionRepo.GetByOrderID(orderID, orgID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrCompletionNotFound
	}
	return record, nil
}
