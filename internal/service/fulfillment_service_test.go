package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupFulfillmentServiceTest(t *testing.T) (*FulfillmentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:fulfillment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	statusService := NewStatusService(orderItemRepo, milestoneRepo, eventRepo, shipmentRepo, completionRepo, dashboardRepo, 0)
	return NewFulfillmentService(orderRepo, milestoneRepo, eventRepo, statusService), db
}

func TestStartFulfillmentSeedsDefaultMilestones(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2001", constants.OrderStatusConfirmed)

	shipDate := time.Now().Add(72 * time.Hour)
	view, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{
		Priority:        constants.PriorityHigh,
		PlannedShipDate: &shipDate,
		Notes:           "rush order",
		Actor:           "ops-1",
	})
	if err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}

	var milestones []models.FulfillmentMilestone
	if err := db.Where("order_id = ?", order.ID).Order("sort_order asc").Find(&milestones).Error; err != nil {
		t.Fatalf("load milestones failed: %v", err)
	}
	if len(milestones) != 7 {
		t.Fatalf("milestones want 7 got %d", len(milestones))
	}
	if milestones[0].MilestoneCode != constants.MilestoneOrderConfirmed {
		t.Fatalf("first milestone want %s got %s", constants.MilestoneOrderConfirmed, milestones[0].MilestoneCode)
	}
	if milestones[0].Status != constants.MilestoneStatusCompleted {
		t.Fatalf("first milestone should start completed, got %s", milestones[0].Status)
	}
	if milestones[0].CompletedAt == nil || milestones[0].CompletedBy != "ops-1" {
		t.Fatalf("first milestone completion stamp missing: %+v", milestones[0])
	}
	for _, milestone := range milestones[1:] {
		if milestone.Status != constants.MilestoneStatusPending {
			t.Fatalf("milestone %s should start pending, got %s", milestone.MilestoneCode, milestone.Status)
		}
	}
	if milestones[6].MilestoneCode != constants.MilestoneCompleted {
		t.Fatalf("last milestone want %s got %s", constants.MilestoneCompleted, milestones[6].MilestoneCode)
	}

	// 计划发货日期落在 SHIPPED 里程碑上
	for _, milestone := range milestones {
		if milestone.MilestoneCode == constants.MilestoneShipped && milestone.PlannedDate == nil {
			t.Fatalf("planned ship date should be stamped on shipped milestone")
		}
	}

	if got := countEvents(t, db, order.ID, constants.EventCodeFulfillmentStarted); got != 1 {
		t.Fatalf("start event want 1 got %d", got)
	}
	if view.TotalMilestones != 7 || view.CompletedCount != 1 {
		t.Fatalf("view counts unexpected: %+v", view)
	}
	if view.Progress != 14 {
		t.Fatalf("progress want 14 got %d", view.Progress)
	}
	if view.OverallStatus != constants.OverallStatusPreparation {
		t.Fatalf("overall status want %s got %s", constants.OverallStatusPreparation, view.OverallStatus)
	}
}

func TestStartFulfillmentRejectsSecondStart(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2002", constants.OrderStatusConfirmed)

	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"})
	if !errors.Is(err, ErrFulfillmentStarted) {
		t.Fatalf("expected ErrFulfillmentStarted, got %v", err)
	}
}

func TestStartFulfillmentMissingOrder(t *testing.T) {
	service, _ := setupFulfillmentServiceTest(t)
	_, err := service.StartFulfillment(404, 1, StartFulfillmentInput{Actor: "ops-1"})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateMilestoneCompleteStampsAndLogsEvent(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2003", constants.OrderStatusConfirmed)
	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}

	milestone, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneProductionCompleted, UpdateMilestoneInput{
		Status: constants.MilestoneStatusCompleted,
		Notes:  "batch 42 finished",
		Actor:  "line-lead",
	})
	if err != nil {
		t.Fatalf("update milestone failed: %v", err)
	}
	if milestone.Status != constants.MilestoneStatusCompleted {
		t.Fatalf("status want completed got %s", milestone.Status)
	}
	if milestone.CompletedAt == nil || milestone.CompletedBy != "line-lead" {
		t.Fatalf("completion stamp missing: %+v", milestone)
	}
	if got := countEvents(t, db, order.ID, constants.EventCodeMilestoneUpdated); got != 1 {
		t.Fatalf("milestone event want 1 got %d", got)
	}
}

func TestUpdateMilestoneBlockedRequiresReason(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2004", constants.OrderStatusConfirmed)
	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}

	_, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneProductionCompleted, UpdateMilestoneInput{
		Status: constants.MilestoneStatusBlocked,
		Actor:  "line-lead",
	})
	if !errors.Is(err, ErrBlockedReasonRequired) {
		t.Fatalf("expected ErrBlockedReasonRequired, got %v", err)
	}

	milestone, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneProductionCompleted, UpdateMilestoneInput{
		Status:        constants.MilestoneStatusBlocked,
		BlockedReason: "material shortage",
		Actor:         "line-lead",
	})
	if err != nil {
		t.Fatalf("block milestone failed: %v", err)
	}
	if milestone.BlockedReason != "material shortage" {
		t.Fatalf("blocked reason want material shortage got %q", milestone.BlockedReason)
	}
}

func TestUpdateMilestoneInvalidStatus(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2005", constants.OrderStatusConfirmed)
	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}

	_, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneProductionCompleted, UpdateMilestoneInput{
		Status: "done",
		Actor:  "ops-1",
	})
	if !errors.Is(err, ErrMilestoneStatusInvalid) {
		t.Fatalf("expected ErrMilestoneStatusInvalid, got %v", err)
	}
}

func TestUpdateMilestoneNotFound(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2006", constants.OrderStatusConfirmed)

	_, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneProductionCompleted, UpdateMilestoneInput{
		Status: constants.MilestoneStatusCompleted,
		Actor:  "ops-1",
	})
	if !errors.Is(err, ErrMilestoneNotFound) {
		t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
	}
}

func TestUpdateMilestoneUnblockClearsReason(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2007", constants.OrderStatusConfirmed)
	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}
	if _, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneQualityApproved, UpdateMilestoneInput{
		Status:        constants.MilestoneStatusBlocked,
		BlockedReason: "failed inspection",
		Actor:         "qa-1",
	}); err != nil {
		t.Fatalf("block milestone failed: %v", err)
	}

	milestone, err := service.UpdateMilestone(order.ID, 1, constants.MilestoneQualityApproved, UpdateMilestoneInput{
		Status: constants.MilestoneStatusCompleted,
		Actor:  "qa-1",
	})
	if err != nil {
		t.Fatalf("complete milestone failed: %v", err)
	}
	if milestone.BlockedReason != "" {
		t.Fatalf("blocked reason should be cleared, got %q", milestone.BlockedReason)
	}
}

func TestCompleteMilestoneSkipsWhenAlreadyCompleted(t *testing.T) {
	service, db := setupFulfillmentServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-2008", constants.OrderStatusConfirmed)
	if _, err := service.StartFulfillment(order.ID, 1, StartFulfillmentInput{Actor: "ops-1"}); err != nil {
		t.Fatalf("start fulfillment failed: %v", err)
	}

	if err := service.CompleteMilestone(order.ID, 1, constants.MilestoneShipped, constants.ActorSystem, "all shipped"); err != nil {
		t.Fatalf("complete milestone failed: %v", err)
	}
	if err := service.CompleteMilestone(order.ID, 1, constants.MilestoneShipped, constants.ActorSystem, "all shipped"); err != nil {
		t.Fatalf("repeat complete should be a no-op, got %v", err)
	}

	var count int64
	if err := db.Model(&models.FulfillmentEvent{}).
		Where("order_id = ? AND event_code = ?", order.ID, constants.EventCodeMilestoneUpdated).
		Count(&count).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("repeat completion must not re-log events, want 1 got %d", count)
	}
}
