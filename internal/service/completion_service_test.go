package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type completionTestEnv struct {
	db                 *gorm.DB
	completionService  *CompletionService
	fulfillmentService *FulfillmentService
}

func setupCompletionServiceTest(t *testing.T) *completionTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:completion_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Order{},
		&models.OrderItem{},
		&models.FulfillmentMilestone{},
		&models.FulfillmentEvent{},
		&models.Shipment{},
		&models.ShipmentItem{},
		&models.CompletionRecord{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db)
	eventRepo := repository.NewEventRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}

	statusService := NewStatusService(orderItemRepo, milestoneRepo, eventRepo, shipmentRepo, completionRepo, dashboardRepo, 0)
	fulfillmentService := NewFulfillmentService(orderRepo, milestoneRepo, eventRepo, statusService)
	completionService := NewCompletionService(orderRepo, milestoneRepo, completionRepo, eventRepo, queueClient)
	return &completionTestEnv{
		db:                 db,
		completionService:  completionService,
		fulfillmentService: fulfillmentService,
	}
}

func (env *completionTestEnv) completeMilestones(t *testing.T, orderID uint, codes ...string) {
	t.Helper()
	for _, code := range codes {
		if err := env.fulfillmentService.CompleteMilestone(orderID, 1, code, "ops-1", ""); err != nil {
			t.Fatalf("complete milestone %s failed: %v", code, err)
		}
	}
}

func TestCompleteOrderRejectsIncompleteCriticalMilestones(t *testing.T) {
	env := setupCompletionServiceTest(t)
	order := createStatusTestOrder(t, env.db, 1, "ORD-5001", constants.OrderStatusDelivered)
	if _, err := env.fulfillmentService.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}
	env.completeMilestones(t, order.ID, constants.MilestoneProductionCompleted, constants.MilestoneShipped)

	_, err := env.completionService.CompleteOrder(order.ID, 1, CompleteOrderInput{Actor: "ops-1"})
	if !errors.Is(err, ErrCriticalMilestonesIncomplete) {
		t.Fatalf("expected ErrCriticalMilestonesIncomplete, got %v", err)
	}
	if !strings.Contains(err.Error(), constants.MilestoneQualityApproved) || !strings.Contains(err.Error(), constants.MilestoneDelivered) {
		t.Fatalf("error should name the missing milestones, got %v", err)
	}
}

func TestCompleteOrderWritesRecordMilestoneStatusAndEvent(t *testing.T) {
	env := setupCompletionServiceTest(t)
	order := createStatusTestOrder(t, env.db, 1, "ORD-5002", constants.OrderStatusDelivered)
	if _, err := env.fulfillmentService.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}
	env.completeMilestones(t, order.ID,
		constants.MilestoneProductionCompleted,
		constants.MilestoneQualityApproved,
		constants.MilestoneShipped,
		constants.MilestoneDelivered,
	)

	satisfaction := models.NewMoneyFromDecimal(decimal.NewFromFloat(4.8))
	record, err := env.completionService.CompleteOrder(order.ID, 1, CompleteOrderInput{
		VerificationMethod:        "customer_signature",
		CustomerSatisfactionScore: &satisfaction,
		GenerateInvoice:           true,
		CaptureFinalPayment:       true,
		Notes:                     "handover confirmed on site",
		Actor:                     "pm-1",
	})
	if err != nil {
		t.Fatalf("complete order failed: %v", err)
	}
	if record.CompletionType != constants.CompletionTypeManual {
		t.Fatalf("completion type should default to manual, got %s", record.CompletionType)
	}
	if !record.InvoiceGenerated || !record.FinalPaymentCaptured {
		t.Fatalf("requested flags should persist: %+v", record)
	}

	var closing models.FulfillmentMilestone
	if err := env.db.Where("order_id = ? AND milestone_code = ?", order.ID, constants.MilestoneCompleted).First(&closing).Error; err != nil {
		t.Fatalf("load closing milestone failed: %v", err)
	}
	if closing.Status != constants.MilestoneStatusCompleted {
		t.Fatalf("closing milestone want completed got %s", closing.Status)
	}
	if closing.CompletedBy != "pm-1" {
		t.Fatalf("closing milestone completed_by want pm-1 got %s", closing.CompletedBy)
	}

	var stored models.Order
	if err := env.db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusCompleted {
		t.Fatalf("order status want completed got %s", stored.Status)
	}
	if got := countEvents(t, env.db, order.ID, constants.EventCodeCompleted); got != 1 {
		t.Fatalf("completed event want 1 got %d", got)
	}
}

func TestCompleteOrderRejectsSecondCompletion(t *testing.T) {
	env := setupCompletionServiceTest(t)
	order := createStatusTestOrder(t, env.db, 1, "ORD-5003", constants.OrderStatusDelivered)
	if _, err := env.fulfillmentService.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}
	env.completeMilestones(t, order.ID,
		constants.MilestoneProductionCompleted,
		constants.MilestoneQualityApproved,
		constants.MilestoneShipped,
		constants.MilestoneDelivered,
	)

	if _, err := env.completionService.CompleteOrder(order.ID, 1, CompleteOrderInput{Actor: "pm-1"}); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}
	_, err := env.completionService.CompleteOrder(order.ID, 1, CompleteOrderInput{Actor: "pm-1"})
	if !errors.Is(err, ErrCompletionExists) {
		t.Fatalf("expected ErrCompletionExists, got %v", err)
	}
}

func TestCompleteOrderAcceptsLegacyMilestoneCodes(t *testing.T) {
	env := setupCompletionServiceTest(t)
	order := createStatusTestOrder(t, env.db, 1, "ORD-5004", constants.OrderStatusDelivered)

	// 旧数据的里程碑用历史编码入库
	now := time.Now()
	legacy := []models.FulfillmentMilestone{
		{OrgID: 1, OrderID: order.ID, MilestoneCode: constants.MilestoneLegacyManufacturingCompleted, MilestoneName: "Manufacturing Completed", Type: constants.MilestoneTypeProduction, Status: constants.MilestoneStatusCompleted, SortOrder: 1, CompletedAt: &now},
		{OrgID: 1, OrderID: order.ID, MilestoneCode: constants.MilestoneLegacyQualityCheckPassed, MilestoneName: "Quality Check Passed", Type: constants.MilestoneTypeQuality, Status: constants.MilestoneStatusCompleted, SortOrder: 2, CompletedAt: &now},
		{OrgID: 1, OrderID: order.ID, MilestoneCode: constants.MilestoneShipped, MilestoneName: "Shipped", Type: constants.MilestoneTypeLogistics, Status: constants.MilestoneStatusCompleted, SortOrder: 3, CompletedAt: &now},
		{OrgID: 1, OrderID: order.ID, MilestoneCode: constants.MilestoneDelivered, MilestoneName: "Delivered", Type: constants.MilestoneTypeLogistics, Status: constants.MilestoneStatusCompleted, SortOrder: 4, CompletedAt: &now},
	}
	for i := range legacy {
		if err := env.db.Create(&legacy[i]).Error; err != nil {
			t.Fatalf("seed legacy milestone failed: %v", err)
		}
	}

	if _, err := env.completionService.CompleteOrder(order.ID, 1, CompleteOrderInput{Actor: "pm-1"}); err != nil {
		t.Fatalf("legacy codes should satisfy the gate, got %v", err)
	}
}

func TestCompleteOrderMissingOrder(t *testing.T) {
	env := setupCompletionServiceTest(t)
	_, err := env.completionService.CompleteOrder(404, 1, CompleteOrderInput{Actor: "pm-1"})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
