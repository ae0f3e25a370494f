package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreatePaymentPlanRequest struct {
	ClinicID     string `json:"clinic_id" validate:"required"`
	PatientName  string `json:"patient_name" validate:"required,max=128"`
	PatientEmail string `json:"patient_email" validate:"omitempty,email"`
	TotalAmount  string `json:"total_amount" validate:"required,numeric"`
	Installments int    `json:"installments" validate:"required,min=1,max=60"`
	// FirstDueDate 为空时默认 30 天后
	FirstDueDate *time.Time `json:"first_due_date"`
}

// PaymentPlanData 分期计划视图，Remaining 由服务端计算
type PaymentPlanData struct {
	ID               string          `json:"id"`
	ClinicID         string          `json:"clinic_id"`
	PatientName      string          `json:"patient_name"`
	PatientEmail     string          `json:"patient_email,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	Remaining        decimal.Decimal `json:"remaining"`
	Installments     int             `json:"installments"`
	InstallmentsPaid int             `json:"installments_paid"`
	Status           string          `json:"status"`
	NextDueDate      *time.Time      `json:"next_due_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type UpdateClaimStatusRequest struct {
	Status       string `json:"status" validate:"required,oneof=submitted in_review approved denied paid"`
	DenialReason string `json:"denial_reason" validate:"required_if=Status denied,max=255"`
}
