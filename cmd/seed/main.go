package main

import (
	"fmt"
	"time"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/provider"
	"github.com/fulfill-next/internal/service"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示组织
	organizations := []models.Organization{
		{
			Name:                "Demo Fulfillment Co.",
			Code:                "DEMO",
			AutoCompleteEnabled: true,
			RequirePayment:      true,
		},
		{
			Name:           "Acme Industrial",
			Code:           "ACME",
			RequirePayment: true,
		},
	}

	orgIDs := map[string]uint{}
	for _, org := range organizations {
		var existing models.Organization
		if err := models.DB.Where("code = ?", org.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&org).Error; err != nil {
				stdLog.Printf("Failed to create organization %s: %v", org.Code, err)
				continue
			}
			stdLog.Printf("Created organization: %s", org.Code)
			orgIDs[org.Code] = org.ID
		} else {
			stdLog.Printf("Organization already exists: %s", org.Code)
			orgIDs[org.Code] = existing.ID
		}
	}
	demoOrgID := orgIDs["DEMO"]
	if demoOrgID == 0 {
		stdLog.Fatalf("Demo organization missing, cannot continue")
	}

	// 添加演示订单与订单项
	now := nowRef()
	type seedItem struct {
		SKU         string
		ProductName string
		Quantity    int
	}
	orderPlans := []struct {
		OrderNo       string
		Status        string
		PaymentStatus string
		Paid          bool
		CustomerName  string
		Items         []seedItem
	}{
		{
			OrderNo:       "ORD-2026-0001",
			Status:        constants.OrderStatusProcessing,
			PaymentStatus: constants.PaymentStatusPaid,
			Paid:          true,
			CustomerName:  "Northwind Traders",
			Items: []seedItem{
				{SKU: "CNC-PLATE-01", ProductName: "CNC Milled Plate", Quantity: 4},
				{SKU: "CNC-BRKT-02", ProductName: "Mounting Bracket", Quantity: 8},
			},
		},
		{
			OrderNo:       "ORD-2026-0002",
			Status:        constants.OrderStatusProcessing,
			PaymentStatus: constants.PaymentStatusPaid,
			Paid:          true,
			CustomerName:  "Contoso Machinery",
			Items: []seedItem{
				{SKU: "GEAR-SET-11", ProductName: "Precision Gear Set", Quantity: 2},
			},
		},
		{
			OrderNo:       "ORD-2026-0003",
			Status:        constants.OrderStatusProcessing,
			PaymentStatus: constants.PaymentStatusPaid,
			Paid:          true,
			CustomerName:  "Fabrikam Robotics",
			Items: []seedItem{
				{SKU: "ARM-JOINT-07", ProductName: "Robotic Arm Joint", Quantity: 6},
			},
		},
		{
			OrderNo:       "ORD-2026-0004",
			Status:        constants.OrderStatusPending,
			PaymentStatus: constants.PaymentStatusUnpaid,
			Paid:          false,
			CustomerName:  "Litware Prototyping",
			Items: []seedItem{
				{SKU: "PROTO-CASE-03", ProductName: "Prototype Enclosure", Quantity: 1},
			},
		},
	}

	orderIDs := map[string]uint{}
	itemIDs := map[string]uint{}
	createdOrders := map[string]bool{}
	for _, plan := range orderPlans {
		var existing models.Order
		if err := models.DB.Where("order_no = ?", plan.OrderNo).First(&existing).Error; err == nil {
			stdLog.Printf("Order already exists: %s", plan.OrderNo)
			orderIDs[plan.OrderNo] = existing.ID
			continue
		}

		order := models.Order{
			OrgID:         demoOrgID,
			OrderNo:       plan.OrderNo,
			Status:        plan.Status,
			PaymentStatus: plan.PaymentStatus,
			CustomerName:  plan.CustomerName,
		}
		if plan.Paid {
			order.PaidAt = now
		}
		if err := models.DB.Create(&order).Error; err != nil {
			stdLog.Printf("Failed to create order %s: %v", plan.OrderNo, err)
			continue
		}
		orderIDs[plan.OrderNo] = order.ID
		createdOrders[plan.OrderNo] = true

		for _, it := range plan.Items {
			item := models.OrderItem{
				OrgID:       demoOrgID,
				OrderID:     order.ID,
				SKU:         it.SKU,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
			}
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create order item %s: %v", it.SKU, err)
				continue
			}
			itemIDs[plan.OrderNo+"/"+it.SKU] = item.ID
		}
		stdLog.Printf("Created order: %s (%d items)", plan.OrderNo, len(plan.Items))
	}

	// 添加生产工单（外部生产系统的状态镜像）
	workOrders := []struct {
		Number   string
		OrderNo  string
		ItemKey  string
		Status   string
		Complete bool
	}{
		{Number: "WO-2026-1001", OrderNo: "ORD-2026-0001", ItemKey: "ORD-2026-0001/CNC-PLATE-01", Status: constants.WorkOrderStatusInProgress},
		{Number: "WO-2026-1002", OrderNo: "ORD-2026-0001", ItemKey: "ORD-2026-0001/CNC-BRKT-02", Status: constants.WorkOrderStatusPending},
		{Number: "WO-2026-1003", OrderNo: "ORD-2026-0002", ItemKey: "ORD-2026-0002/GEAR-SET-11", Status: constants.WorkOrderStatusInProgress},
		{Number: "WO-2026-1004", OrderNo: "ORD-2026-0003", ItemKey: "ORD-2026-0003/ARM-JOINT-07", Status: constants.WorkOrderStatusCompleted, Complete: true},
	}
	for _, plan := range workOrders {
		orderID := orderIDs[plan.OrderNo]
		itemID := itemIDs[plan.ItemKey]
		if orderID == 0 || itemID == 0 {
			continue
		}
		var existing models.WorkOrder
		if err := models.DB.Where("work_order_number = ?", plan.Number).First(&existing).Error; err == nil {
			stdLog.Printf("Work order already exists: %s", plan.Number)
			continue
		}
		workOrder := models.WorkOrder{
			OrgID:           demoOrgID,
			OrderID:         orderID,
			OrderItemID:     itemID,
			WorkOrderNumber: plan.Number,
			Status:          plan.Status,
		}
		if plan.Complete {
			workOrder.CompletedAt = now
		}
		if err := models.DB.Create(&workOrder).Error; err != nil {
			stdLog.Printf("Failed to create work order %s: %v", plan.Number, err)
			continue
		}
		stdLog.Printf("Created work order: %s", plan.Number)
	}

	// 用真实服务把演示订单推进到不同的履约阶段
	container := provider.NewContainer(cfg)
	actor := "seed"

	// ORD-2026-0002：刚开始履约
	if createdOrders["ORD-2026-0002"] {
		if _, err := container.FulfillmentService.StartFulfillment(orderIDs["ORD-2026-0002"], demoOrgID, service.StartFulfillmentInput{
			Priority: constants.PriorityHigh,
			Actor:    actor,
			Notes:    "seeded demo order",
		}); err != nil {
			stdLog.Printf("Failed to start fulfillment for ORD-2026-0002: %v", err)
		} else {
			stdLog.Printf("Started fulfillment: ORD-2026-0002")
		}
	}

	// ORD-2026-0003：推进到已签收，留给自动完成演示
	if createdOrders["ORD-2026-0003"] {
		orderID := orderIDs["ORD-2026-0003"]
		itemID := itemIDs["ORD-2026-0003/ARM-JOINT-07"]
		if err := driveToDelivered(container, orderID, itemID, demoOrgID, actor); err != nil {
			stdLog.Printf("Failed to drive ORD-2026-0003 to delivered: %v", err)
		} else {
			stdLog.Printf("Drove to delivered: ORD-2026-0003")
		}
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 2 Organizations (DEMO with auto-complete, ACME)")
	fmt.Println("- 4 Orders (fresh / in fulfillment / delivered / unpaid)")
	fmt.Println("- 4 Work orders")
	fmt.Println("- ORD-2026-0003 is delivered and awaits auto-completion")
}

// driveToDelivered 走完整服务链路：开始履约 → 人工里程碑 → 整单发货 → 发出 → 签收
func driveToDelivered(container *provider.Container, orderID, itemID, orgID uint, actor string) error {
	if _, err := container.FulfillmentService.StartFulfillment(orderID, orgID, service.StartFulfillmentInput{
		Priority: constants.PriorityNormal,
		Actor:    actor,
	}); err != nil {
		return err
	}
	for _, code := range []string{
		constants.MilestoneProductionCompleted,
		constants.MilestoneQualityApproved,
		constants.MilestoneReadyToShip,
	} {
		if err := container.FulfillmentService.CompleteMilestone(orderID, orgID, code, actor, ""); err != nil {
			return err
		}
	}
	shipment, err := container.ShipmentService.CreatePartialShipment(orderID, orgID, service.CreateShipmentInput{
		Carrier:         "DHL",
		ShippingAddress: "12 Assembly Line, Rotterdam",
		Actor:           actor,
		Items:           []service.CreateShipmentItemInput{{OrderItemID: itemID, Quantity: 6}},
	})
	if err != nil {
		return err
	}
	if _, err := container.ShipmentService.ShipShipment(shipment.ID, orgID, service.ShipShipmentInput{
		TrackingNumber: "JD014600003RT",
		Actor:          actor,
	}); err != nil {
		return err
	}
	if _, err := container.ShipmentService.MarkDelivered(shipment.ID, orgID, service.MarkDeliveredInput{
		Actor: actor,
	}); err != nil {
		return err
	}
	return nil
}

func nowRef() *time.Time {
	now := time.Now()
	return &now
}
