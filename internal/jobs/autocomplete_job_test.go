package jobs

import (
	"fmt"
	"testing"
	"time"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/provider"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSweepTest(t *testing.T, sweep config.SweepConfig) (*gorm.DB, *AutoCompletionJob) {
	t.Helper()
	dsn := fmt.Sprintf("file:jobs_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Order{},
		&models.OrderItem{},
		&models.WorkOrder{},
		&models.FulfillmentMilestone{},
		&models.FulfillmentEvent{},
		&models.Shipment{},
		&models.ShipmentItem{},
		&models.QualityCheck{},
		&models.CompletionRecord{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	// 队列关闭，扫描走就地评估分支
	cfg := &config.Config{}
	cfg.Fulfillment.AutoComplete.Enabled = true
	cfg.Fulfillment.AutoComplete.RequirePayment = true
	cfg.Fulfillment.Sweep = sweep
	container := provider.NewContainer(cfg)
	job := NewAutoCompletionJob(container.OrderRepo, container.AutoCompleteService, container.QueueClient, cfg.Fulfillment.Sweep)
	return db, job
}

func seedSweepOrg(t *testing.T, db *gorm.DB, code string) *models.Organization {
	t.Helper()
	org := &models.Organization{
		Name:                "Sweep Org " + code,
		Code:                code,
		AutoCompleteEnabled: true,
		RequirePayment:      true,
	}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("create organization failed: %v", err)
	}
	return org
}

// seedSweepOrder 铺一个已送达订单；paid 控制是否满足付款条件
func seedSweepOrder(t *testing.T, db *gorm.DB, orgID uint, orderNo string, paid bool) *models.Order {
	t.Helper()
	paymentStatus := constants.PaymentStatusUnpaid
	if paid {
		paymentStatus = constants.PaymentStatusPaid
	}
	order := &models.Order{
		OrgID:         orgID,
		OrderNo:       orderNo,
		Status:        constants.OrderStatusDelivered,
		PaymentStatus: paymentStatus,
		CustomerName:  "Acme Industrial",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	item := &models.OrderItem{OrgID: orgID, OrderID: order.ID, SKU: "SKU-SWP", ProductName: "Widget", Quantity: 1}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	now := time.Now()
	for i, code := range []string{
		constants.MilestoneProductionCompleted,
		constants.MilestoneQualityApproved,
		constants.MilestoneShipped,
		constants.MilestoneDelivered,
	} {
		milestone := &models.FulfillmentMilestone{
			OrgID:         orgID,
			OrderID:       order.ID,
			MilestoneCode: code,
			MilestoneName: code,
			Type:          constants.MilestoneTypeLogistics,
			Status:        constants.MilestoneStatusCompleted,
			SortOrder:     i + 1,
			CompletedAt:   &now,
		}
		if err := db.Create(milestone).Error; err != nil {
			t.Fatalf("create milestone failed: %v", err)
		}
	}
	shipment := &models.Shipment{
		OrgID:          orgID,
		OrderID:        order.ID,
		ShipmentNumber: fmt.Sprintf("SWP-%d-%d", order.ID, time.Now().UnixNano()),
		Status:         constants.ShipmentStatusDelivered,
	}
	if err := db.Create(shipment).Error; err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	shipmentItem := &models.ShipmentItem{OrgID: orgID, ShipmentID: shipment.ID, OrderItemID: item.ID, Quantity: 1}
	if err := db.Create(shipmentItem).Error; err != nil {
		t.Fatalf("create shipment item failed: %v", err)
	}
	return order
}

func countCompletions(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.CompletionRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count completion records failed: %v", err)
	}
	return count
}

func TestSweepCompletesEligibleOrders(t *testing.T) {
	db, job := setupSweepTest(t, config.SweepConfig{})
	org := seedSweepOrg(t, db, "SWP1")
	order := seedSweepOrder(t, db, org.ID, "ORD-9001", true)

	job.Sweep()

	var record models.CompletionRecord
	if err := db.Where("order_id = ?", order.ID).First(&record).Error; err != nil {
		t.Fatalf("completion record should exist: %v", err)
	}
	if record.CompletionType != constants.CompletionTypeAutomatic {
		t.Fatalf("completion type want automatic got %s", record.CompletionType)
	}
	var stored models.Order
	if err := db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if stored.Status != constants.OrderStatusCompleted {
		t.Fatalf("order status want completed got %s", stored.Status)
	}
}

func TestSweepSkipsIneligibleOrders(t *testing.T) {
	db, job := setupSweepTest(t, config.SweepConfig{})
	org := seedSweepOrg(t, db, "SWP2")
	seedSweepOrder(t, db, org.ID, "ORD-9002", false)

	job.Sweep()

	if got := countCompletions(t, db); got != 0 {
		t.Fatalf("unpaid order should not complete, got %d record(s)", got)
	}
}

func TestSweepHonorsBatchSize(t *testing.T) {
	db, job := setupSweepTest(t, config.SweepConfig{BatchSize: 1})
	org := seedSweepOrg(t, db, "SWP3")
	first := seedSweepOrder(t, db, org.ID, "ORD-9003", true)
	second := seedSweepOrder(t, db, org.ID, "ORD-9004", true)

	job.Sweep()
	if got := countCompletions(t, db); got != 1 {
		t.Fatalf("first sweep should complete one order, got %d", got)
	}
	var record models.CompletionRecord
	if err := db.Where("order_id = ?", first.ID).First(&record).Error; err != nil {
		t.Fatalf("oldest order should complete first: %v", err)
	}

	// 已完成的订单下一轮不再出现在扫描结果里
	job.Sweep()
	if got := countCompletions(t, db); got != 2 {
		t.Fatalf("second sweep should complete the rest, got %d", got)
	}
	var secondRecord models.CompletionRecord
	if err := db.Where("order_id = ?", second.ID).First(&secondRecord).Error; err != nil {
		t.Fatalf("second order should complete on the next round: %v", err)
	}
}

func TestSweepDefaults(t *testing.T) {
	_, job := setupSweepTest(t, config.SweepConfig{})
	if job.spec != defaultSweepCron {
		t.Fatalf("cron spec want %s got %s", defaultSweepCron, job.spec)
	}
	if job.batchSize != defaultSweepBatchSize {
		t.Fatalf("batch size want %d got %d", defaultSweepBatchSize, job.batchSize)
	}
}

func TestStartRejectsInvalidCron(t *testing.T) {
	_, job := setupSweepTest(t, config.SweepConfig{Cron: "not a cron"})
	if err := job.Start(); err == nil {
		t.Fatalf("invalid cron spec should fail to start")
	}
}
