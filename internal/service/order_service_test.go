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

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Order{},
		&models.OrderItem{},
		&models.FulfillmentEvent{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	orderRepo := repository.NewOrderRepository(db)
	eventRepo := repository.NewEventRepository(db)
	return NewOrderService(orderRepo, eventRepo), db
}

func createStatusTestOrder(t *testing.T, db *gorm.DB, orgID uint, orderNo, status string) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		OrgID:         orgID,
		OrderNo:       orderNo,
		Status:        status,
		PaymentStatus: constants.PaymentStatusUnpaid,
		CustomerName:  "Acme Industrial",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func countEvents(t *testing.T, db *gorm.DB, orderID uint, eventCode string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.FulfillmentEvent{}).
		Where("order_id = ? AND event_code = ?", orderID, eventCode).
		Count(&count).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	return count
}

func TestUpdateOrderStatusWritesStatusAndEvent(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1001", constants.OrderStatusPending)

	updated, err := service.UpdateOrderStatus(order.ID, 1, constants.OrderStatusConfirmed, "ops-1")
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != constants.OrderStatusConfirmed {
		t.Fatalf("status want confirmed got %s", updated.Status)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusConfirmed {
		t.Fatalf("stored status want confirmed got %s", stored.Status)
	}

	var event models.FulfillmentEvent
	if err := db.Where("order_id = ?", order.ID).First(&event).Error; err != nil {
		t.Fatalf("load event failed: %v", err)
	}
	if event.EventCode != constants.EventCodeOrderStatusChanged {
		t.Fatalf("event code want %s got %s", constants.EventCodeOrderStatusChanged, event.EventCode)
	}
	if event.EventType != constants.EventTypeStatusChange {
		t.Fatalf("event type want %s got %s", constants.EventTypeStatusChange, event.EventType)
	}
	if event.StatusAfter != constants.OrderStatusConfirmed {
		t.Fatalf("status_after want confirmed got %s", event.StatusAfter)
	}
	if event.ActorUserID != "ops-1" {
		t.Fatalf("actor want ops-1 got %s", event.ActorUserID)
	}
}

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1002", constants.OrderStatusDraft)

	_, err := service.UpdateOrderStatus(order.ID, 1, constants.OrderStatusShipped, "ops-1")
	if !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition error, got %v", err)
	}
	if got := countEvents(t, db, order.ID, constants.EventCodeOrderStatusChanged); got != 0 {
		t.Fatalf("rejected transition must not write events, got %d", got)
	}

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusDraft {
		t.Fatalf("status should stay draft, got %s", stored.Status)
	}
}

func TestUpdateOrderStatusTerminalStateLocked(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1003", constants.OrderStatusCancelled)

	_, err := service.UpdateOrderStatus(order.ID, 1, constants.OrderStatusPending, "ops-1")
	if !errors.Is(err, ErrOrderTransitionInvalid) {
		t.Fatalf("expected transition error, got %v", err)
	}
}

func TestUpdateOrderStatusSelfTransitionIsIdempotent(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1004", constants.OrderStatusConfirmed)

	updated, err := service.UpdateOrderStatus(order.ID, 1, constants.OrderStatusConfirmed, "ops-1")
	if err != nil {
		t.Fatalf("self transition failed: %v", err)
	}
	if updated.Status != constants.OrderStatusConfirmed {
		t.Fatalf("status want confirmed got %s", updated.Status)
	}
	if got := countEvents(t, db, order.ID, constants.EventCodeOrderStatusChanged); got != 0 {
		t.Fatalf("self transition must not write events, got %d", got)
	}
}

func TestUpdateOrderStatusScopesByOrg(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1005", constants.OrderStatusPending)

	_, err := service.UpdateOrderStatus(order.ID, 2, constants.OrderStatusConfirmed, "ops-1")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("cross-org order should be invisible, got %v", err)
	}
}

func TestBulkUpdateOrderStatusReturnsPerOrderResults(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	pending := createStatusTestOrder(t, db, 1, "ORD-1006", constants.OrderStatusPending)
	cancelled := createStatusTestOrder(t, db, 1, "ORD-1007", constants.OrderStatusCancelled)

	results, err := service.BulkUpdateOrderStatus([]uint{pending.ID, cancelled.ID, 9999}, 1, constants.OrderStatusConfirmed, "ops-1")
	if err != nil {
		t.Fatalf("bulk update failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results want 3 got %d", len(results))
	}
	if !results[0].Success || results[0].Status != constants.OrderStatusConfirmed {
		t.Fatalf("first order should succeed: %+v", results[0])
	}
	if results[1].Success || results[1].Error == "" {
		t.Fatalf("terminal order should fail with message: %+v", results[1])
	}
	if results[2].Success {
		t.Fatalf("missing order should fail: %+v", results[2])
	}
}

func TestBulkUpdateOrderStatusRequiresIDs(t *testing.T) {
	service, _ := setupOrderServiceTest(t)
	if _, err := service.BulkUpdateOrderStatus(nil, 1, constants.OrderStatusConfirmed, "ops-1"); !errors.Is(err, ErrOrderIDsRequired) {
		t.Fatalf("expected ErrOrderIDsRequired, got %v", err)
	}
}

func TestApplyOrderStatusSkipsIllegalTransition(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1008", constants.OrderStatusPending)

	// 联动写入到不了 delivered 时静默跳过
	service.applyOrderStatus(order.ID, 1, constants.OrderStatusDelivered, constants.ActorSystem)

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusPending {
		t.Fatalf("status should stay pending, got %s", stored.Status)
	}
	if got := countEvents(t, db, order.ID, constants.EventCodeOrderStatusChanged); got != 0 {
		t.Fatalf("skipped sync must not write events, got %d", got)
	}
}

func TestApplyOrderStatusWritesLegalTransition(t *testing.T) {
	service, db := setupOrderServiceTest(t)
	order := createStatusTestOrder(t, db, 1, "ORD-1009", constants.OrderStatusProcessing)

	service.applyOrderStatus(order.ID, 1, constants.OrderStatusShipped, constants.ActorSystem)

	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusShipped {
		t.Fatalf("status want shipped got %s", stored.Status)
	}
	if got := countEvents(t, db, order.ID, constants.EventCodeOrderStatusChanged); got != 1 {
		t.Fatalf("sync should write one event, got %d", got)
	}
}
