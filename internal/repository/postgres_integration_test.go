//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ShipmentItem{},
		&models.Shipment{},
		&models.FulfillmentEvent{},
		&models.FulfillmentMilestone{},
		&models.CompletionRecord{},
		&models.OrderItem{},
		&models.Order{},
		&models.Organization{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

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
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresDashboardQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDashboardRepository(db)

	milestones := []models.FulfillmentMilestone{
		{OrgID: 1, OrderID: 1, MilestoneCode: constants.MilestoneOrderConfirmed, MilestoneName: "Order Confirmed", Type: constants.MilestoneTypePreparation, Status: constants.MilestoneStatusCompleted, SortOrder: 1},
		{OrgID: 1, OrderID: 1, MilestoneCode: constants.MilestoneProductionCompleted, MilestoneName: "Production Completed", Type: constants.MilestoneTypeProduction, Status: constants.MilestoneStatusBlocked, SortOrder: 2},
		{OrgID: 1, OrderID: 2, MilestoneCode: constants.MilestoneOrderConfirmed, MilestoneName: "Order Confirmed", Type: constants.MilestoneTypePreparation, Status: constants.MilestoneStatusCompleted, SortOrder: 1},
		{OrgID: 1, OrderID: 2, MilestoneCode: constants.MilestoneCompleted, MilestoneName: "Completed", Type: constants.MilestoneTypeClosing, Status: constants.MilestoneStatusCompleted, SortOrder: 2},
	}
	if err := db.Create(&milestones).Error; err != nil {
		t.Fatalf("create milestones failed: %v", err)
	}
	if err := db.Create(&models.CompletionRecord{
		OrgID:          1,
		OrderID:        2,
		CompletionType: constants.CompletionTypeAutomatic,
		CompletedBy:    constants.ActorSystem,
	}).Error; err != nil {
		t.Fatalf("create completion record failed: %v", err)
	}

	overview, err := repo.GetFulfillmentOverview(1)
	if err != nil {
		t.Fatalf("get fulfillment overview failed: %v", err)
	}
	if overview.OrdersInFulfillment != 1 {
		t.Fatalf("orders in fulfillment want 1 got %d", overview.OrdersInFulfillment)
	}
	if overview.CompletedOrders != 1 {
		t.Fatalf("completed orders want 1 got %d", overview.CompletedOrders)
	}
	if overview.BlockedMilestones != 1 {
		t.Fatalf("blocked milestones want 1 got %d", overview.BlockedMilestones)
	}

	avg, err := repo.GetAverageProgress(1)
	if err != nil {
		t.Fatalf("get average progress failed: %v", err)
	}
	// 订单 1 完成 50%，订单 2 完成 100%
	if avg < 74.9 || avg > 75.1 {
		t.Fatalf("average progress want 75 got %.2f", avg)
	}
}

func TestPostgresUniqueConstraints(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	milestone := models.FulfillmentMilestone{
		OrgID:         1,
		OrderID:       1,
		MilestoneCode: constants.MilestoneOrderConfirmed,
		MilestoneName: "Order Confirmed",
		Type:          constants.MilestoneTypePreparation,
		Status:        constants.MilestoneStatusPending,
		SortOrder:     1,
	}
	if err := db.Create(&milestone).Error; err != nil {
		t.Fatalf("create milestone failed: %v", err)
	}
	duplicate := models.FulfillmentMilestone{
		OrgID:         1,
		OrderID:       1,
		MilestoneCode: constants.MilestoneOrderConfirmed,
		MilestoneName: "Order Confirmed",
		Type:          constants.MilestoneTypePreparation,
		Status:        constants.MilestoneStatusPending,
		SortOrder:     1,
	}
	if err := db.Create(&duplicate).Error; err == nil {
		t.Fatalf("duplicate milestone code for an order should be rejected")
	}

	record := models.CompletionRecord{
		OrgID:          1,
		OrderID:        9,
		CompletionType: constants.CompletionTypeManual,
		CompletedBy:    "tester",
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("create completion record failed: %v", err)
	}
	second := models.CompletionRecord{
		OrgID:          1,
		OrderID:        9,
		CompletionType: constants.CompletionTypeManual,
		CompletedBy:    "tester",
	}
	if err := db.Create(&second).Error; err == nil {
		t.Fatalf("second completion record for an order should be rejected")
	}
}
