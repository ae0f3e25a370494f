package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/model/dto"
	"MediPay/internal/service"
	"MediPay/pkg/response"
)

// GET /api/v1/settings
func GetSettings(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	data, err := service.Settings().Get(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// UpdateSettings 整体覆盖，缺省字段回到默认值
// PUT /api/v1/settings
func UpdateSettings(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.UpdateSettingsRequest
	if !bindBody(ctx, c, &req) {
		return
	}

	data, err := service.Settings().Update(ctx, userID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// GET /api/v1/settings/roles
func ListRoles(ctx context.Context, c *app.RequestContext) {
	response.Success(ctx, c, service.Settings().Roles())
}
