package model

import "github.com/shopspring/decimal"

// ClinicStatus 诊所状态
type ClinicStatus string

const (
	ClinicStatusActive   ClinicStatus = "active"
	ClinicStatusInactive ClinicStatus = "inactive"
	ClinicStatusPending  ClinicStatus = "pending" // 资料审核中
)

func (s ClinicStatus) Valid() bool {
	switch s {
	case ClinicStatusActive, ClinicStatusInactive, ClinicStatusPending:
		return true
	}
	return false
}

// Clinic 诊所，对外使用 PublicID
type Clinic struct {
	BaseModel
	PublicID       string          `gorm:"uniqueIndex;type:varchar(40);not null" json:"id"`
	Name           string          `gorm:"type:varchar(128);not null" json:"name"`
	Specialty      string          `gorm:"type:varchar(64);not null;default:''" json:"specialty"`
	Address        string          `gorm:"type:varchar(255);not null;default:''" json:"address"`
	City           string          `gorm:"type:varchar(64);not null;default:''" json:"city"`
	State          string          `gorm:"type:varchar(32);not null;default:''" json:"state"`
	Phone          string          `gorm:"type:varchar(32);not null;default:''" json:"phone"`
	Email          string          `gorm:"type:varchar(320);not null;default:''" json:"email"`
	Status         ClinicStatus    `gorm:"type:varchar(16);not null;default:'active';index" json:"status"`
	PatientCount   int             `gorm:"not null;default:0" json:"patient_count"`
	MonthlyRevenue decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"monthly_revenue"`
}

func (Clinic) TableName() string {
	return "clinics"
}
