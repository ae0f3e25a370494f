package dto

import "github.com/shopspring/decimal"

// AdminStats 仪表盘汇总
type AdminStats struct {
	TotalClinics       int64           `json:"total_clinics"`
	ActiveClinics      int64           `json:"active_clinics"`
	ActivePaymentPlans int64           `json:"active_payment_plans"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	PendingClaims      int64           `json:"pending_claims"`
	ApprovedClaims     int64           `json:"approved_claims"`
	DeniedClaims       int64           `json:"denied_claims"`
	RevenueThisMonth   decimal.Decimal `json:"revenue_this_month"`
}
