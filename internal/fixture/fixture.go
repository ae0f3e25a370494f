// Package fixture 静态演示数据，DATA_SOURCE=fixture 时仪表盘直接读取这里的内容。
package fixture

import (
	"time"

	"github.com/shopspring/decimal"

	"MediPay/internal/model"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Clinics() []model.Clinic {
	return []model.Clinic{
		{PublicID: "cln_1001", Name: "Sunrise Family Dental", Specialty: "Dentistry", Address: "1200 Congress Ave", City: "Austin", State: "TX",
			Phone: "(512) 555-0142", Email: "front@sunrisedental.example", Status: model.ClinicStatusActive, PatientCount: 1284, MonthlyRevenue: money("84250.00")},
		{PublicID: "cln_1002", Name: "Lakeside Pediatrics", Specialty: "Pediatrics", Address: "88 Shore Dr", City: "Chicago", State: "IL",
			Phone: "(312) 555-0199", Email: "hello@lakesidepeds.example", Status: model.ClinicStatusActive, PatientCount: 2310, MonthlyRevenue: money("126400.00")},
		{PublicID: "cln_1003", Name: "Northside Vision Center", Specialty: "Optometry", Address: "410 N Main St", City: "Denver", State: "CO",
			Phone: "(303) 555-0117", Email: "care@northsidevision.example", Status: model.ClinicStatusActive, PatientCount: 876, MonthlyRevenue: money("41200.50")},
		{PublicID: "cln_1004", Name: "Harbor Physical Therapy", Specialty: "Physical Therapy", Address: "9 Pier Rd", City: "Seattle", State: "WA",
			Phone: "(206) 555-0163", Email: "office@harborpt.example", Status: model.ClinicStatusPending, PatientCount: 0, MonthlyRevenue: money("0.00")},
		{PublicID: "cln_1005", Name: "Mesa Dermatology", Specialty: "Dermatology", Address: "77 Camelback Rd", City: "Phoenix", State: "AZ",
			Phone: "(602) 555-0108", Email: "desk@mesaderm.example", Status: model.ClinicStatusInactive, PatientCount: 402, MonthlyRevenue: money("12800.00")},
	}
}

func PaymentPlans(now time.Time) []model.PaymentPlan {
	due := func(days int) *time.Time {
		t := now.AddDate(0, 0, days).Truncate(24 * time.Hour)
		return &t
	}

	return []model.PaymentPlan{
		{PublicID: "pln_2001", ClinicID: "cln_1001", PatientName: "Maria Lopez", PatientEmail: "maria.lopez@example.com",
			TotalAmount: money("2400.00"), PaidAmount: money("800.00"), Installments: 6, InstallmentsPaid: 2, Status: model.PaymentPlanActive, NextDueDate: due(12)},
		{PublicID: "pln_2002", ClinicID: "cln_1001", PatientName: "James Chen", PatientEmail: "jchen@example.com",
			TotalAmount: money("950.00"), PaidAmount: money("950.00"), Installments: 3, InstallmentsPaid: 3, Status: model.PaymentPlanCompleted},
		{PublicID: "pln_2003", ClinicID: "cln_1002", PatientName: "Aisha Patel", PatientEmail: "aisha.p@example.com",
			TotalAmount: money("1800.00"), PaidAmount: money("300.00"), Installments: 6, InstallmentsPaid: 1, Status: model.PaymentPlanOverdue, NextDueDate: due(-5)},
		{PublicID: "pln_2004", ClinicID: "cln_1002", PatientName: "Noah Williams", PatientEmail: "noahw@example.com",
			TotalAmount: money("600.00"), PaidAmount: money("200.00"), Installments: 3, InstallmentsPaid: 1, Status: model.PaymentPlanActive, NextDueDate: due(20)},
		{PublicID: "pln_2005", ClinicID: "cln_1003", PatientName: "Emma Johnson", PatientEmail: "emma.j@example.com",
			TotalAmount: money("3200.00"), PaidAmount: money("1600.00"), Installments: 8, InstallmentsPaid: 4, Status: model.PaymentPlanActive, NextDueDate: due(3)},
		{PublicID: "pln_2006", ClinicID: "cln_1005", PatientName: "Liam Brown", PatientEmail: "liam.b@example.com",
			TotalAmount: money("450.00"), PaidAmount: money("150.00"), Installments: 3, InstallmentsPaid: 1, Status: model.PaymentPlanCancelled},
	}
}

func Claims(now time.Time) []model.Claim {
	at := func(days int) time.Time { return now.AddDate(0, 0, -days).Truncate(time.Hour) }
	processed := func(days int) *time.Time {
		t := at(days)
		return &t
	}

	return []model.Claim{
		{PublicID: "clm_3001", ClinicID: "cln_1001", PatientName: "Maria Lopez", InsuranceProvider: "Aetna", ProcedureCode: "D2740",
			Amount: money("1150.00"), Status: model.ClaimSubmitted, SubmittedAt: at(1)},
		{PublicID: "clm_3002", ClinicID: "cln_1002", PatientName: "Aisha Patel", InsuranceProvider: "Blue Cross", ProcedureCode: "99213",
			Amount: money("210.00"), Status: model.ClaimInReview, SubmittedAt: at(4)},
		{PublicID: "clm_3003", ClinicID: "cln_1003", PatientName: "Emma Johnson", InsuranceProvider: "UnitedHealthcare", ProcedureCode: "92004",
			Amount: money("325.00"), Status: model.ClaimApproved, SubmittedAt: at(9), ProcessedAt: processed(3)},
		{PublicID: "clm_3004", ClinicID: "cln_1001", PatientName: "James Chen", InsuranceProvider: "Cigna", ProcedureCode: "D1110",
			Amount: money("140.00"), Status: model.ClaimPaid, SubmittedAt: at(21), ProcessedAt: processed(14)},
		{PublicID: "clm_3005", ClinicID: "cln_1005", PatientName: "Liam Brown", InsuranceProvider: "Humana", ProcedureCode: "11102",
			Amount: money("480.00"), Status: model.ClaimDenied, SubmittedAt: at(15), ProcessedAt: processed(10), DenialReason: "Procedure not covered"},
		{PublicID: "clm_3006", ClinicID: "cln_1002", PatientName: "Noah Williams", InsuranceProvider: "Aetna", ProcedureCode: "99214",
			Amount: money("265.00"), Status: model.ClaimSubmitted, SubmittedAt: at(0)},
	}
}

// Transactions 按发生时间倒序
func Transactions(now time.Time) []model.Transaction {
	ago := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour).Truncate(time.Minute) }

	return []model.Transaction{
		{PublicID: "txn_4001", ClinicID: "cln_1001", PaymentPlanID: "pln_2001", PatientName: "Maria Lopez", Amount: money("400.00"), Method: "card", Status: model.TransactionCompleted, OccurredAt: ago(1)},
		{PublicID: "txn_4002", ClinicID: "cln_1003", PaymentPlanID: "pln_2005", PatientName: "Emma Johnson", Amount: money("400.00"), Method: "ach", Status: model.TransactionPending, OccurredAt: ago(3)},
		{PublicID: "txn_4003", ClinicID: "cln_1001", PatientName: "James Chen", Amount: money("140.00"), Method: "insurance", Status: model.TransactionCompleted, OccurredAt: ago(7)},
		{PublicID: "txn_4004", ClinicID: "cln_1002", PaymentPlanID: "pln_2003", PatientName: "Aisha Patel", Amount: money("300.00"), Method: "card", Status: model.TransactionFailed, OccurredAt: ago(26)},
		{PublicID: "txn_4005", ClinicID: "cln_1002", PaymentPlanID: "pln_2004", PatientName: "Noah Williams", Amount: money("200.00"), Method: "card", Status: model.TransactionCompleted, OccurredAt: ago(49)},
		{PublicID: "txn_4006", ClinicID: "cln_1005", PaymentPlanID: "pln_2006", PatientName: "Liam Brown", Amount: money("150.00"), Method: "card", Status: model.TransactionRefunded, OccurredAt: ago(96)},
	}
}

func Roles() []model.Role {
	return []model.Role{
		{Name: "admin", Description: "Full access to all clinics, billing and settings",
			Permissions: []string{"clinics:read", "clinics:write", "payments:read", "payments:write", "claims:read", "claims:write", "settings:write", "users:manage"}},
		{Name: "billing_manager", Description: "Manages payment plans and insurance claims",
			Permissions: []string{"clinics:read", "payments:read", "payments:write", "claims:read", "claims:write"}},
		{Name: "clinic_staff", Description: "Front desk access for a single clinic",
			Permissions: []string{"clinics:read", "payments:read", "claims:read"}},
		{Name: "viewer", Description: "Read-only dashboard access",
			Permissions: []string{"clinics:read", "payments:read", "claims:read"}},
	}
}
