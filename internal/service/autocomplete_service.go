package service

import (
	"errors"
	"fmt"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"

	"github.com/shopspring/decimal"
)

// AutoCompletionRules 自动完成规则，按组织解析
type AutoCompletionRules struct {
	Enabled              bool `json:"enabled"`
	RequirePayment       bool `json:"require_payment"`
	RequireQualityCheck  bool `json:"require_quality_check"`
	RequireNotifications bool `json:"require_notifications"`
}

// CriterionCheck 单项完成条件的判定结果
type CriterionCheck struct {
	Name      string `json:"name"`
	Required  bool   `json:"required"`
	Satisfied bool   `json:"satisfied"`
	Detail    string `json:"detail,omitempty"`
}

// EvaluationResult 自动完成评估结果
type EvaluationResult struct {
	OrderID   uint             `json:"order_id"`
	Eligible  bool             `json:"eligible"`
	Completed bool             `json:"completed"`
	Criteria  []CriterionCheck `json:"criteria"`
}

// AutoCompleteService 自动完成评估器
type AutoCompleteService struct {
	orderRepo          repository.OrderRepository
	orderItemRepo      repository.OrderItemRepository
	shipmentRepo       repository.ShipmentRepository
	workOrderRepo      repository.WorkOrderRepository
	qualityRepo        repository.QualityCheckRepository
	eventRepo          repository.EventRepository
	orgRepo            repository.OrganizationRepository
	completionService  *CompletionService
	defaults           AutoCompletionRules
	criticalCheckTypes []string
}

// NewAutoCompleteService 创建自动完成评估器
func NewAutoCompleteService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	shipmentRepo repository.ShipmentRepository,
	workOrderRepo repository.WorkOrderRepository,
	qualityRepo repository.QualityCheckRepository,
	eventRepo repository.EventRepository,
	orgRepo repository.OrganizationRepository,
	completionService *CompletionService,
	defaults AutoCompletionRules,
	criticalCheckTypes []string,
) *AutoCompleteService {
	if len(criticalCheckTypes) == 0 {
		criticalCheckTypes = []string{
			constants.QualityCheckTypeFinalInspection,
			constants.QualityCheckTypePreShipment,
		}
	}
	return &AutoCompleteService{
		orderRepo:          orderRepo,
		orderItemRepo:      orderItemRepo,
		shipmentRepo:       shipmentRepo,
		workOrderRepo:      workOrderRepo,
		qualityRepo:        qualityRepo,
		eventRepo:          eventRepo,
		orgRepo:            orgRepo,
		completionService:  completionService,
		defaults:           defaults,
		criticalCheckTypes: criticalCheckTypes,
	}
}

// ResolveRules 解析组织的自动完成规则，组织缺省时退回配置默认值
func (s *AutoCompleteService) ResolveRules(orgID uint) (AutoCompletionRules, error) {
	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return s.defaults, fmt.Errorf("fetch organization: %w", err)
	}
	if org == nil {
		return s.defaults, nil
	}
	return AutoCompletionRules{
		Enabled:              org.AutoCompleteEnabled,
		RequirePayment:       org.RequirePayment,
		RequireQualityCheck:  org.RequireQualityCheck,
		RequireNotifications: org.RequireNotifications,
	}, nil
}

// EvaluateOrder 按组织规则评估订单是否可自动完成
func (s *AutoCompleteService) EvaluateOrder(orderID, orgID uint) (*EvaluationResult, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	rules, err := s.ResolveRules(orgID)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(order, rules)
}

// Evaluate 以显式规则评估订单，规则与评估拆开便于覆盖测试
func (s *AutoCompleteService) Evaluate(order *models.Order, rules AutoCompletionRules) (*EvaluationResult, error) {
	result := &EvaluationResult{OrderID: order.ID, Criteria: []CriterionCheck{}}
	if !rules.Enabled {
		logger.Debugw("auto_complete_disabled",
			"order_id", order.ID,
			"org_id", order.OrgID,
		)
		return result, nil
	}

	items, err := s.orderItemRepo.ListByOrder(order.ID, order.OrgID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	shipments, err := s.shipmentRepo.ListByOrder(order.ID, order.OrgID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	shipping := computeShippingStatus(items, shipments)
	result.Criteria = append(result.Criteria, CriterionCheck{
		Name:      "all_items_delivered",
		Required:  true,
		Satisfied: shipping.IsFullyDelivered,
		Detail:    fmt.Sprintf("%d/%d items delivered", shipping.DeliveredItems, shipping.TotalItems),
	})

	if rules.RequirePayment {
		result.Criteria = append(result.Criteria, CriterionCheck{
			Name:      "payment_complete",
			Required:  true,
			Satisfied: order.PaymentStatus == constants.PaymentStatusPaid,
			Detail:    fmt.Sprintf("payment status is %s", order.PaymentStatus),
		})
	}

	criticalChecks, err := s.qualityRepo.ListByOrderAndTypes(order.ID, order.OrgID, s.criticalCheckTypes)
	if err != nil {
		return nil, fmt.Errorf("list quality checks: %w", err)
	}
	if rules.RequireQualityCheck {
		satisfied := len(criticalChecks) > 0
		for _, check := range criticalChecks {
			if check.OverallResult != constants.QualityResultPass {
				satisfied = false
				break
			}
		}
		result.Criteria = append(result.Criteria, CriterionCheck{
			Name:      "quality_passed",
			Required:  true,
			Satisfied: satisfied,
			Detail:    fmt.Sprintf("%d critical check(s) recorded", len(criticalChecks)),
		})
	}

	if rules.RequireNotifications {
		notified, err := s.eventRepo.CountByOrderAndType(order.ID, order.OrgID, constants.EventTypeNotification)
		if err != nil {
			return nil, fmt.Errorf("count notification events: %w", err)
		}
		result.Criteria = append(result.Criteria, CriterionCheck{
			Name:      "notifications_sent",
			Required:  true,
			Satisfied: notified > 0,
			Detail:    fmt.Sprintf("%d notification event(s)", notified),
		})
	}

	// 生产完成按关联工单推导，没有工单的订单视为无生产环节
	itemIDs := make([]uint, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	workOrders, err := s.workOrderRepo.ListByOrderItemIDs(itemIDs)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	manufactured := true
	for _, workOrder := range workOrders {
		if workOrder.Status != constants.WorkOrderStatusCompleted {
			manufactured = false
			break
		}
	}
	result.Criteria = append(result.Criteria, CriterionCheck{
		Name:      "manufacturing_complete",
		Required:  true,
		Satisfied: manufactured,
		Detail:    fmt.Sprintf("%d work order(s) related", len(workOrders)),
	})

	result.Eligible = true
	for _, criterion := range result.Criteria {
		if !criterion.Satisfied {
			result.Eligible = false
			break
		}
	}
	if !result.Eligible {
		return result, nil
	}

	_, err = s.completionService.CompleteOrder(order.ID, order.OrgID, CompleteOrderInput{
		CompletionType:      constants.CompletionTypeAutomatic,
		VerificationMethod:  "auto_completion_rules",
		QualityScore:        averageQualityScore(criticalChecks),
		GenerateInvoice:     true,
		CaptureFinalPayment: true,
		Notes:               "completed automatically after all completion criteria were met",
		Actor:               constants.ActorSystem,
	})
	if err != nil {
		if errors.Is(err, ErrCompletionExists) {
			logger.Debugw("auto_complete_already_completed", "order_id", order.ID)
			return result, nil
		}
		return result, fmt.Errorf("auto complete order: %w", err)
	}
	result.Completed = true
	logger.Infow("order_auto_completed",
		"order_id", order.ID,
		"org_id", order.OrgID,
	)
	return result, nil
}

// averageQualityScore 关键质检的平均得分，没有有效得分时返回 nil
func averageQualityScore(checks []models.QualityCheck) *models.Money {
	sum := decimal.Zero
	count := 0
	for _, check := range checks {
		if check.Score == nil {
			continue
		}
		sum = sum.Add(check.Score.Decimal)
		count++
	}
	if count == 0 {
		return nil
	}
	average := models.NewMoneyFromDecimal(sum.Div(decimal.NewFromInt(int64(count))))
	return &average
}
