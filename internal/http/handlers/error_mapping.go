package handlers

import (
	"errors"

	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

// detailed 标记带有上下文细节的错误，响应时透出原始错误文本
type detailedHandlerError struct {
	target error
	code   int
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, details []detailedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	// 细节类错误（非法迁移、超量发货等）把具体原因带给调用方
	for _, rule := range details {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, err.Error(), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var fulfillmentStartErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrFulfillmentStarted, code: response.CodeConflict, msg: "fulfillment already started"},
}

var milestoneUpdateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrMilestoneNotFound, code: response.CodeNotFound, msg: "milestone not found"},
	{target: service.ErrMilestoneStatusInvalid, code: response.CodeBadRequest, msg: "milestone status invalid"},
	{target: service.ErrBlockedReasonRequired, code: response.CodeBadRequest, msg: "blocked reason is required"},
}

var shipmentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrShipmentItemsRequired, code: response.CodeBadRequest, msg: "shipment items are required"},
	{target: service.ErrOrderItemNotFound, code: response.CodeBadRequest, msg: "order item does not belong to the order"},
}

var shipmentCreateDetailRules = []detailedHandlerError{
	{target: service.ErrShipmentQuantityExceeded, code: response.CodeBadRequest},
}

var shipmentTransitionErrorRules = []mappedHandlerError{
	{target: service.ErrShipmentNotFound, code: response.CodeNotFound, msg: "shipment not found"},
}

var shipmentTransitionDetailRules = []detailedHandlerError{
	{target: service.ErrShipmentStatusInvalid, code: response.CodeConflict},
}

var qualityCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderItemNotFound, code: response.CodeBadRequest, msg: "order item does not belong to the order"},
	{target: service.ErrQualityResultInvalid, code: response.CodeBadRequest, msg: "overall result must be pass or fail"},
}

var completionErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrCompletionExists, code: response.CodeConflict, msg: "order already completed"},
}

var completionDetailRules = []detailedHandlerError{
	{target: service.ErrCriticalMilestonesIncomplete, code: response.CodeConflict},
}

var orderStatusErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "order status invalid"},
	{target: service.ErrOrderIDsRequired, code: response.CodeBadRequest, msg: "order ids are required"},
}

var orderStatusDetailRules = []detailedHandlerError{
	{target: service.ErrOrderTransitionInvalid, code: response.CodeConflict},
}
