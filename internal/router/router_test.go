package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRouterTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	container := provider.NewContainer(cfg)
	return db, SetupRouter(cfg, container)
}

func seedRouterOrder(t *testing.T, db *gorm.DB, orgID uint, orderNo string, quantity int) (*models.Order, *models.OrderItem) {
	t.Helper()
	org := &models.Organization{Name: "Router Org " + orderNo, Code: "RT-" + orderNo}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("create organization failed: %v", err)
	}
	order := &models.Order{
		OrgID:         orgID,
		OrderNo:       orderNo,
		Status:        constants.OrderStatusProcessing,
		PaymentStatus: constants.PaymentStatusPaid,
		CustomerName:  "Acme Industrial",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{OrgID: orgID, OrderID: order.ID, SKU: "SKU-RT", ProductName: "Widget", Quantity: quantity}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	return order, item
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(actorIDHeader, "ops-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, json.RawMessage) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d (body %s)", w.Code, w.Body.String())
	}
	var envelope struct {
		StatusCode int             `json:"status_code"`
		Msg        string          `json:"msg"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal envelope failed: %v (body %s)", err, w.Body.String())
	}
	return envelope.StatusCode, envelope.Data
}

func TestFulfillmentLifecycleOverHTTP(t *testing.T) {
	db, r := setupRouterTest(t)
	order, item := seedRouterOrder(t, db, 1, "ORD-HTTP-1", 2)

	// 开始履约
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/fulfillment/start", order.ID),
		map[string]interface{}{"priority": "high", "notes": "kickoff"})
	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("start fulfillment business code want 0 got %d", code)
	}
	var view struct {
		OverallStatus  string `json:"overall_status"`
		CompletedCount int    `json:"completed_count"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("unmarshal status view failed: %v", err)
	}
	if view.OverallStatus != constants.OverallStatusPreparation {
		t.Fatalf("overall status want PREPARATION got %s", view.OverallStatus)
	}
	if view.CompletedCount != 1 {
		t.Fatalf("completed count want 1 (ORDER_CONFIRMED) got %d", view.CompletedCount)
	}

	// 重复开始按冲突处理
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/fulfillment/start", order.ID), map[string]interface{}{})
	if code, _ = decodeEnvelope(t, w); code != 409 {
		t.Fatalf("duplicate start business code want 409 got %d", code)
	}

	// 推进三个人工里程碑
	for _, milestone := range []string{
		constants.MilestoneProductionCompleted,
		constants.MilestoneQualityApproved,
		constants.MilestoneReadyToShip,
	} {
		w = doJSON(t, r, http.MethodPut,
			fmt.Sprintf("/api/v1/orders/%d/fulfillment/milestones/%s", order.ID, milestone),
			map[string]interface{}{"status": "completed"})
		if code, _ = decodeEnvelope(t, w); code != 0 {
			t.Fatalf("complete %s business code want 0 got %d", milestone, code)
		}
	}

	// 整单发货
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/shipments", order.ID),
		map[string]interface{}{
			"carrier":          "DHL",
			"shipping_address": "1 Factory Rd",
			"items":            []map[string]interface{}{{"order_item_id": item.ID, "quantity": 2}},
		})
	code, data = decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("create shipment business code want 0 got %d", code)
	}
	var shipment struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(data, &shipment); err != nil {
		t.Fatalf("unmarshal shipment failed: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/shipments/%d/ship", shipment.ID),
		map[string]interface{}{"tracking_number": "TRK-9"})
	if code, _ = decodeEnvelope(t, w); code != 0 {
		t.Fatalf("ship business code want 0 got %d", code)
	}
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/shipments/%d/deliver", shipment.ID), nil)
	if code, _ = decodeEnvelope(t, w); code != 0 {
		t.Fatalf("deliver business code want 0 got %d", code)
	}

	// 签收后：6/7 完成，宏观状态 DELIVERED
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/fulfillment/status", order.ID), nil)
	code, data = decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("get status business code want 0 got %d", code)
	}
	var statusView struct {
		OverallStatus  string `json:"overall_status"`
		CompletedCount int    `json:"completed_count"`
		Progress       int    `json:"progress"`
	}
	if err := json.Unmarshal(data, &statusView); err != nil {
		t.Fatalf("unmarshal status view failed: %v", err)
	}
	if statusView.OverallStatus != constants.OverallStatusDelivered {
		t.Fatalf("overall status want DELIVERED got %s", statusView.OverallStatus)
	}
	if statusView.CompletedCount != 6 || statusView.Progress != 86 {
		t.Fatalf("progress want 6/7=86 got %d/%d", statusView.CompletedCount, statusView.Progress)
	}

	// 手动完成
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/complete", order.ID),
		map[string]interface{}{"verification_method": "customer_signature", "generate_invoice": true})
	code, data = decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("complete order business code want 0 got %d", code)
	}
	var record struct {
		CompletionType string `json:"completion_type"`
		CompletedBy    string `json:"completed_by"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("unmarshal completion record failed: %v", err)
	}
	if record.CompletionType != constants.CompletionTypeManual {
		t.Fatalf("completion type want manual got %s", record.CompletionType)
	}
	if record.CompletedBy != "ops-1" {
		t.Fatalf("completed by want ops-1 got %s", record.CompletedBy)
	}

	// 再次完成按冲突处理
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/complete", order.ID), nil)
	if code, _ = decodeEnvelope(t, w); code != 409 {
		t.Fatalf("duplicate completion business code want 409 got %d", code)
	}

	// 事件流分页
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/fulfillment/events?page=1&page_size=50", order.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("events http status want 200 got %d", w.Code)
	}
	var page struct {
		StatusCode int               `json:"status_code"`
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal events page failed: %v", err)
	}
	if page.StatusCode != 0 {
		t.Fatalf("events business code want 0 got %d", page.StatusCode)
	}
	if page.Pagination.Total < 5 || int64(len(page.Data)) != page.Pagination.Total {
		t.Fatalf("event stream looks wrong: total %d, rows %d", page.Pagination.Total, len(page.Data))
	}

	// 看板
	w = doJSON(t, r, http.MethodGet, "/api/v1/dashboard/fulfillment", nil)
	code, data = decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("dashboard business code want 0 got %d", code)
	}
	var dashboard struct {
		CompletedOrders int64 `json:"completed_orders"`
	}
	if err := json.Unmarshal(data, &dashboard); err != nil {
		t.Fatalf("unmarshal dashboard failed: %v", err)
	}
	if dashboard.CompletedOrders != 1 {
		t.Fatalf("dashboard completed orders want 1 got %d", dashboard.CompletedOrders)
	}
}

func TestHTTPValidationAndScoping(t *testing.T) {
	db, r := setupRouterTest(t)
	order, _ := seedRouterOrder(t, db, 1, "ORD-HTTP-2", 1)

	// 未知订单
	w := doJSON(t, r, http.MethodGet, "/api/v1/orders/424242/fulfillment/status", nil)
	if code, _ := decodeEnvelope(t, w); code != 404 {
		t.Fatalf("unknown order business code want 404 got %d", code)
	}

	// 非法路径 ID
	w = doJSON(t, r, http.MethodPost, "/api/v1/orders/abc/fulfillment/start", nil)
	if code, _ := decodeEnvelope(t, w); code != 400 {
		t.Fatalf("bad id business code want 400 got %d", code)
	}

	// 缺 status 字段
	w = doJSON(t, r, http.MethodPut,
		fmt.Sprintf("/api/v1/orders/%d/fulfillment/milestones/SHIPPED", order.ID),
		map[string]interface{}{"notes": "missing status"})
	if code, _ := decodeEnvelope(t, w); code != 400 {
		t.Fatalf("missing status business code want 400 got %d", code)
	}

	// 组织隔离：订单属于组织 1，请求组织 2 视为不存在
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/fulfillment/status", order.ID), nil)
	req.Header.Set(orgIDHeader, "2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if code, _ := decodeEnvelope(t, w); code != 404 {
		t.Fatalf("cross-org access business code want 404 got %d", code)
	}

	// 非法状态迁移
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/v1/orders/%d/status", order.ID),
		map[string]interface{}{"status": "draft"})
	if code, _ := decodeEnvelope(t, w); code != 409 {
		t.Fatalf("invalid transition business code want 409 got %d", code)
	}

	// 批量推进逐单返回结果
	w = doJSON(t, r, http.MethodPost, "/api/v1/orders/status/bulk",
		map[string]interface{}{"order_ids": []uint{order.ID, 424242}, "status": constants.OrderStatusShipped})
	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("bulk update business code want 0 got %d", code)
	}
	var results []struct {
		OrderID uint   `json:"order_id"`
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("unmarshal bulk results failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("bulk results want 2 rows got %d", len(results))
	}
	if !results[0].Success || results[1].Success {
		t.Fatalf("bulk results want [ok, failed] got %+v", results)
	}
}

func TestHealthz(t *testing.T) {
	_, r := setupRouterTest(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status want 200 got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal healthz failed: %v", err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("healthz status want ok got %s", resp["status"])
	}
}
