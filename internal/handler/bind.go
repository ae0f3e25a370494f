package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/pkg/response"
	"MediPay/pkg/validate"
)

// bindBody 解析 JSON 请求体并校验，失败时已写入响应
func bindBody(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := c.BindJSON(req); err != nil {
		response.BindError(ctx, c, err)
		return false
	}
	if err := validate.Struct(req); err != nil {
		response.Error(ctx, c, err)
		return false
	}
	return true
}

func bindQuery(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := c.BindQuery(req); err != nil {
		response.BindError(ctx, c, err)
		return false
	}
	return true
}
