package response

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/pkg/errors"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// StatusOf 根据错误码映射 HTTP 状态码
func StatusOf(err error) int {
	var def errors.Definition
	if !stderrors.As(err, &def) {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case "UNAUTHENTICATED":
		return http.StatusUnauthorized // 401
	case "ONBOARDING_REQUIRED":
		return http.StatusForbidden // 403
	case "NOT_FOUND", "CLINIC_NOT_FOUND", "PAYMENT_PLAN_NOT_FOUND", "CLAIM_NOT_FOUND":
		return http.StatusNotFound // 404
	case "DATA_SOURCE_READ_ONLY", "CLAIM_TRANSITION_INVALID":
		return http.StatusConflict // 409
	case "TOO_MANY_REQUESTS":
		return http.StatusTooManyRequests // 429
	case "INVALID_REQUEST", "ONBOARDING_STEP_INVALID", "AMOUNT_INVALID",
		"WEBHOOK_SIGNATURE_INVALID", "WEBHOOK_PAYLOAD_INVALID":
		return http.StatusBadRequest // 400
	case "ONBOARDING_METADATA_SYNC_FAILED", "ONBOARDING_COMPLETE_FAILED":
		return http.StatusBadGateway // 502，数据已落库，身份服务写入失败
	default:
		return http.StatusInternalServerError // 500
	}
}

func describe(err error) (code, message string, details map[string]interface{}) {
	var detailErr *errors.DetailError
	if stderrors.As(err, &detailErr) {
		return detailErr.Def.Code, detailErr.Def.Message, detailErr.Details
	}

	var def errors.Definition
	if stderrors.As(err, &def) {
		return def.Code, def.Message, nil
	}

	return errors.InternalError.Code, err.Error(), nil
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	code, message, details := describe(err)

	c.JSON(StatusOf(err), ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	code, message, _ := describe(err)

	c.JSON(StatusOf(err), ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AbortWithError 写入错误并中断后续 handler，供中间件使用
func AbortWithError(ctx context.Context, c *app.RequestContext, err error) {
	Error(ctx, c, err)
	c.Abort()
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func Created(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data: data,
	})
}

func SuccessWithMeta(ctx context.Context, c *app.RequestContext, data interface{}, meta map[string]interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content（用于 DELETE 等操作）
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
