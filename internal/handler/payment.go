package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/model/dto"
	"MediPay/internal/service"
	"MediPay/pkg/response"
)

// ListPaymentPlans 按 status、clinic_id 过滤
// GET /api/v1/payment-plans
func ListPaymentPlans(ctx context.Context, c *app.RequestContext) {
	var filter dto.PaymentPlanFilter
	if !bindQuery(ctx, c, &filter) {
		return
	}

	page, err := service.Payment().ListPlans(ctx, filter)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, page.Items, page.Meta())
}

// GET /api/v1/payment-plans/:id
func GetPaymentPlan(ctx context.Context, c *app.RequestContext) {
	plan, err := service.Payment().GetPlan(ctx, c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, plan)
}

// POST /api/v1/payment-plans
func CreatePaymentPlan(ctx context.Context, c *app.RequestContext) {
	var req dto.CreatePaymentPlanRequest
	if !bindBody(ctx, c, &req) {
		return
	}

	plan, err := service.Payment().CreatePlan(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, plan)
}

// GET /api/v1/claims
func ListClaims(ctx context.Context, c *app.RequestContext) {
	var filter dto.ClaimFilter
	if !bindQuery(ctx, c, &filter) {
		return
	}

	page, err := service.Payment().ListClaims(ctx, filter)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, page.Items, page.Meta())
}

// GET /api/v1/claims/:id
func GetClaim(ctx context.Context, c *app.RequestContext) {
	claim, err := service.Payment().GetClaim(ctx, c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, claim)
}

// UpdateClaimStatus 只允许 submitted → in_review → approved|denied，approved → paid
// PATCH /api/v1/claims/:id/status
func UpdateClaimStatus(ctx context.Context, c *app.RequestContext) {
	var req dto.UpdateClaimStatusRequest
	if !bindBody(ctx, c, &req) {
		return
	}

	claim, err := service.Payment().UpdateClaimStatus(ctx, c.Param("id"), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, claim)
}
