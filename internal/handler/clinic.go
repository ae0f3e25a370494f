package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MediPay/internal/model/dto"
	"MediPay/internal/service"
	"MediPay/pkg/response"
)

// ListClinics 支持 status、search 过滤与分页
// GET /api/v1/clinics
func ListClinics(ctx context.Context, c *app.RequestContext) {
	var filter dto.ClinicFilter
	if !bindQuery(ctx, c, &filter) {
		return
	}

	page, err := service.Clinic().List(ctx, filter)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.SuccessWithMeta(ctx, c, page.Items, page.Meta())
}

// GET /api/v1/clinics/:id
func GetClinic(ctx context.Context, c *app.RequestContext) {
	clinic, err := service.Clinic().Get(ctx, c.Param("id"))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, clinic)
}

// POST /api/v1/clinics
func CreateClinic(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateClinicRequest
	if !bindBody(ctx, c, &req) {
		return
	}

	clinic, err := service.Clinic().Create(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Created(ctx, c, clinic)
}

// PUT /api/v1/clinics/:id
func UpdateClinic(ctx context.Context, c *app.RequestContext) {
	var req dto.UpdateClinicRequest
	if !bindBody(ctx, c, &req) {
		return
	}

	clinic, err := service.Clinic().Update(ctx, c.Param("id"), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, clinic)
}

// DELETE /api/v1/clinics/:id
func DeleteClinic(ctx context.Context, c *app.RequestContext) {
	if err := service.Clinic().Delete(ctx, c.Param("id")); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
