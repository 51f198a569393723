package handler

import (
	"net/http"

	"github.com/blues/exposure/internal/engine"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// EngineErrorResponse 引擎错误响应，携带机器可读的原因码
func EngineErrorResponse(c *gin.Context, err error) {
	reason := engine.ReasonOf(err)
	c.JSON(statusForReason(reason), Response{
		Success: false,
		Message: err.Error(),
		Reason:  string(reason),
		Data:    nil,
	})
}

// statusForReason 原因码到HTTP状态码的映射
func statusForReason(reason engine.Reason) int {
	switch reason {
	case engine.ReasonUnauthorized:
		return http.StatusForbidden
	case engine.ReasonNotFound:
		return http.StatusNotFound
	case engine.ReasonInvalidParameters, engine.ReasonMalformedBatch:
		return http.StatusBadRequest
	case engine.ReasonAlreadySet,
		engine.ReasonFundingClosed,
		engine.ReasonNotFunded,
		engine.ReasonAlreadyFinalized,
		engine.ReasonOverGoal,
		engine.ReasonInsufficientPayment,
		engine.ReasonAlreadyBoughtOut,
		engine.ReasonNothingToClaim,
		engine.ReasonInsufficientBalance:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
