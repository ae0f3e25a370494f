package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentPlanStatus 分期计划状态
type PaymentPlanStatus string

const (
	PaymentPlanActive    PaymentPlanStatus = "active"
	PaymentPlanCompleted PaymentPlanStatus = "completed"
	PaymentPlanOverdue   PaymentPlanStatus = "overdue"
	PaymentPlanCancelled PaymentPlanStatus = "cancelled"
)

// PaymentPlan 患者的分期付款计划
type PaymentPlan struct {
	BaseModel
	PublicID         string            `gorm:"uniqueIndex;type:varchar(40);not null" json:"id"`
	ClinicID         string            `gorm:"type:varchar(40);not null;index" json:"clinic_id"`
	PatientName      string            `gorm:"type:varchar(128);not null" json:"patient_name"`
	PatientEmail     string            `gorm:"type:varchar(320);not null;default:''" json:"patient_email"`
	TotalAmount      decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	PaidAmount       decimal.Decimal   `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`
	Installments     int               `gorm:"not null" json:"installments"`
	InstallmentsPaid int               `gorm:"not null;default:0" json:"installments_paid"`
	Status           PaymentPlanStatus `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	NextDueDate      *time.Time        `json:"next_due_date,omitempty"`
}

func (PaymentPlan) TableName() string {
	return "payment_plans"
}

// Remaining 剩余应付金额，不会小于 0
func (p PaymentPlan) Remaining() decimal.Decimal {
	r := p.TotalAmount.Sub(p.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// ClaimStatus 保险理赔状态
type ClaimStatus string

const (
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimInReview  ClaimStatus = "in_review"
	ClaimApproved  ClaimStatus = "approved"
	ClaimDenied    ClaimStatus = "denied"
	ClaimPaid      ClaimStatus = "paid"
)

var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimSubmitted: {ClaimInReview},
	ClaimInReview:  {ClaimApproved, ClaimDenied},
	ClaimApproved:  {ClaimPaid},
}

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimSubmitted, ClaimInReview, ClaimApproved, ClaimDenied, ClaimPaid:
		return true
	}
	return false
}

// CanTransitionTo denied 与 paid 为终态
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Claim 保险理赔
type Claim struct {
	BaseModel
	PublicID          string          `gorm:"uniqueIndex;type:varchar(40);not null" json:"id"`
	ClinicID          string          `gorm:"type:varchar(40);not null;index" json:"clinic_id"`
	PatientName       string          `gorm:"type:varchar(128);not null" json:"patient_name"`
	InsuranceProvider string          `gorm:"type:varchar(128);not null;default:''" json:"insurance_provider"`
	ProcedureCode     string          `gorm:"type:varchar(16);not null;default:''" json:"procedure_code"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status            ClaimStatus     `gorm:"type:varchar(16);not null;default:'submitted';index" json:"status"`
	SubmittedAt       time.Time       `gorm:"not null" json:"submitted_at"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
	DenialReason      string          `gorm:"type:varchar(255);not null;default:''" json:"denial_reason,omitempty"`
}

func (Claim) TableName() string {
	return "claims"
}

// TransactionStatus 交易状态
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
	TransactionRefunded  TransactionStatus = "refunded"
)

// Transaction 收款流水，仪表盘展示最近若干条
type Transaction struct {
	BaseModel
	PublicID      string            `gorm:"uniqueIndex;type:varchar(40);not null" json:"id"`
	ClinicID      string            `gorm:"type:varchar(40);not null;index" json:"clinic_id"`
	PaymentPlanID string            `gorm:"type:varchar(40);not null;default:''" json:"payment_plan_id,omitempty"`
	PatientName   string            `gorm:"type:varchar(128);not null" json:"patient_name"`
	Amount        decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Method        string            `gorm:"type:varchar(16);not null;default:'card'" json:"method"` // card, ach, insurance
	Status        TransactionStatus `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	OccurredAt    time.Time         `gorm:"not null;index" json:"occurred_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
