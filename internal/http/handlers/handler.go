package handlers

import (
	"strconv"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/provider"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 履约接口处理器入口
// 说明：鉴权在上游网关完成，这里只消费身份中间件写入的组织与操作人。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// requestLog 提供携带 request_id 的日志实例
func requestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// respondError 返回错误响应，并在有原始错误时记录日志
func respondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		requestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// getOrgID 读取身份中间件写入的组织
func getOrgID(c *gin.Context) uint {
	if value, exists := c.Get("org_id"); exists {
		if orgID, ok := value.(uint); ok && orgID > 0 {
			return orgID
		}
	}
	return constants.DefaultOrgID
}

// getActor 读取身份中间件写入的操作人
func getActor(c *gin.Context) string {
	if value, exists := c.Get("actor"); exists {
		if actor, ok := value.(string); ok && actor != "" {
			return actor
		}
	}
	return constants.ActorSystem
}

// parseIDParam 解析路径上的数字 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

// bindOptionalJSON 绑定全可选字段的请求体，空请求体按零值处理
func bindOptionalJSON(c *gin.Context, target interface{}) bool {
	if c.Request == nil || c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(target); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// normalizePagination 归一化分页参数
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
