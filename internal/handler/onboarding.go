package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/middleware"
	"MediPay/internal/model/dto"
	"MediPay/internal/service"
	"MediPay/pkg/response"
)

// GetOnboardingStatus 引导状态，本地步骤优先
// GET /api/v1/onboarding
func GetOnboardingStatus(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	data, err := service.Onboarding().Status(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// GetPartialOnboarding 已保存的引导快照
// GET /api/v1/onboarding/partial
func GetPartialOnboarding(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	data, err := service.Onboarding().GetPartial(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// SavePartialOnboarding 保存引导快照
// PUT /api/v1/onboarding/partial
func SavePartialOnboarding(ctx context.Context, c *app.RequestContext) {
	userID, ok := currentUser(ctx, c)
	if !ok {
		return
	}

	var req dto.SavePartialOnboardingRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	data, err := service.Onboarding().SavePartial(ctx, userID, req.Data, req.LastCompletedStep)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}

// CompleteOnboarding status 为 false 时不要求登录态，网关之后用户 ID 可能为空
// POST /api/v1/onboarding/complete
func CompleteOnboarding(ctx context.Context, c *app.RequestContext) {
	var req dto.CompleteOnboardingRequest
	if err := c.BindJSON(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	userID, _ := middleware.GetUserID(ctx, c)
	data, err := service.Onboarding().Complete(ctx, userID, req.Status)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, data)
}
