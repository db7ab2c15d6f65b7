package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"

	"gorm.io/gorm"
)

// QualityService 质检记录服务
type QualityService struct {
	orderRepo          repository.OrderRepository
	qualityRepo        repository.QualityCheckRepository
	eventRepo          repository.EventRepository
	fulfillmentService *FulfillmentService
	criticalCheckTypes []string
}

// NewQualityService 创建质检服务
func NewQualityService(
	orderRepo repository.OrderRepository,
	qualityRepo repository.QualityCheckRepository,
	eventRepo repository.EventRepository,
	fulfillmentService *FulfillmentService,
	criticalCheckTypes []string,
) *QualityService {
	if len(criticalCheckTypes) == 0 {
		criticalCheckTypes = []string{
			constants.QualityCheckTypeFinalInspection,
			constants.QualityCheckTypePreShipment,
		}
	}
	return &QualityService{
		orderRepo:          orderRepo,
		qualityRepo:        qualityRepo,
		eventRepo:          eventRepo,
		fulfillmentService: fulfillmentService,
		criticalCheckTypes: criticalCheckTypes,
	}
}

// CreateQualityCheckInput 创建质检记录输入
type CreateQualityCheckInput struct {
	OrderItemID   *uint
	WorkOrderID   *uint
	CheckType     string
	CheckedBy     string
	CheckCriteria string
	OverallResult string
	DefectsFound  []string
	Score         *models.Money
	Notes         string
}

// CreateQualityCheck 落一条不可变质检记录并联动质检里程碑。
// 不合格结果照常入库，质检失败从来不拦截记录本身。
func (s *QualityService) CreateQualityCheck(orderID, orgID uint, input CreateQualityCheckInput) (*models.QualityCheck, error) {
	result := strings.ToLower(strings.TrimSpace(input.OverallResult))
	if result != constants.QualityResultPass && result != constants.QualityResultFail {
		return nil, ErrQualityResultInvalid
	}

	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	now := time.Now()
	check := &models.QualityCheck{
		OrgID:         orgID,
		OrderID:       orderID,
		OrderItemID:   input.OrderItemID,
		WorkOrderID:   input.WorkOrderID,
		CheckType:     strings.TrimSpace(input.CheckType),
		CheckedBy:     input.CheckedBy,
		CheckCriteria: input.CheckCriteria,
		OverallResult: result,
		DefectsFound:  input.DefectsFound,
		Score:         input.Score,
		Notes:         input.Notes,
		CheckedAt:     now,
	}

	eventCode := constants.EventCodeQualityCheckPassed
	if result == constants.QualityResultFail {
		eventCode = constants.EventCodeQualityCheckFailed
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.qualityRepo.WithTx(tx).Create(check); err != nil {
			return ErrQualityCreateFailed
		}
		metadata := models.JSON{
			"check_type":   check.CheckType,
			"result":       result,
			"defect_count": len(check.DefectsFound),
		}
		if check.Score != nil {
			metadata["score"] = check.Score.String()
		}
		return s.eventRepo.WithTx(tx).Append(&models.FulfillmentEvent{
			OrgID:       orgID,
			OrderID:     orderID,
			EventCode:   eventCode,
			EventType:   constants.EventTypeQualityCheck,
			ActorUserID: input.CheckedBy,
			Notes:       input.Notes,
			Metadata:    metadata,
			CreatedAt:   now,
		})
	})
	if err != nil {
		if errors.Is(err, ErrQualityCreateFailed) {
			return nil, ErrQualityCreateFailed
		}
		return nil, fmt.Errorf("create quality check: %w", err)
	}

	s.syncQualityMilestone(orderID, orgID, check)
	return check, nil
}

// ListQualityChecks 订单质检记录列表
func (s *QualityService) ListQualityChecks(orderID, orgID uint) ([]models.QualityCheck, error) {
	return s.qualityRepo.ListByOrder(orderID, orgID)
}

// isCriticalCheckType 判断是否关键质检类型
func (s *QualityService) isCriticalCheckType(checkType string) bool {
	for _, critical := range s.criticalCheckTypes {
		if strings.EqualFold(checkType, critical) {
			return true
		}
	}
	return false
}

// syncQualityMilestone 关键质检联动：失败阻塞质检里程碑，
// 已记录的关键质检全部通过时完成质检里程碑
func (s *QualityService) syncQualityMilestone(orderID, orgID uint, latest *models.QualityCheck) {
	if !s.isCriticalCheckType(latest.CheckType) {
		return
	}

	if latest.OverallResult == constants.QualityResultFail {
		reason := fmt.Sprintf("quality check failed: %s", latest.CheckType)
		if err := s.fulfillmentService.BlockMilestone(orderID, orgID, constants.MilestoneQualityApproved, reason, latest.CheckedBy); err != nil && !errors.Is(err, ErrMilestoneNotFound) {
			logger.Warnw("quality_milestone_block_failed",
				"order_id", orderID,
				"check_type", latest.CheckType,
				"error", err,
			)
		}
		return
	}

	checks, err := s.qualityRepo.ListByOrderAndTypes(orderID, orgID, s.criticalCheckTypes)
	if err != nil {
		logger.Warnw("quality_checks_list_failed",
			"order_id", orderID,
			"error", err,
		)
		return
	}
	for _, check := range checks {
		if check.OverallResult != constants.QualityResultPass {
			return
		}
	}
	if err := s.fulfillmentService.CompleteMilestone(orderID, orgID, constants.MilestoneQualityApproved, latest.CheckedBy, "all critical quality checks passed"); err != nil && !errors.Is(err, ErrMilestoneNotFound) {
		logger.Warnw("quality_milestone_complete_failed",
			"order_id", orderID,
			"error", err,
		)
	}
}
