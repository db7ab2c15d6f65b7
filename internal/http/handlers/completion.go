package handlers

import (
	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CompleteOrderRequest 手动完成订单请求
type CompleteOrderRequest struct {
	VerificationMethod        string        `json:"verification_method"`
	CustomerSatisfactionScore *models.Money `json:"customer_satisfaction_score"`
	QualityScore              *models.Money `json:"quality_score"`
	GenerateInvoice           bool          `json:"generate_invoice"`
	CaptureFinalPayment       bool          `json:"capture_final_payment"`
	Notes                     string        `json:"notes"`
}

// CompleteOrder 手动完成订单：关键里程碑全部达标后落完成记录
func (h *Handler) CompleteOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CompleteOrderRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	record, err := h.CompletionService.CompleteOrder(orderID, getOrgID(c), service.CompleteOrderInput{
		VerificationMethod:        req.VerificationMethod,
		CustomerSatisfactionScore: req.CustomerSatisfactionScore,
		QualityScore:              req.QualityScore,
		GenerateInvoice:           req.GenerateInvoice,
		CaptureFinalPayment:       req.CaptureFinalPayment,
		Notes:                     req.Notes,
		Actor:                     getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, completionErrorRules, completionDetailRules, response.CodeInternal, "failed to complete order")
		return
	}

	response.Success(c, record)
}
