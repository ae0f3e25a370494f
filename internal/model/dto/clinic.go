package dto

type CreateClinicRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=128"`
	Specialty    string `json:"specialty" validate:"max=64"`
	Address      string `json:"address" validate:"max=255"`
	City         string `json:"city" validate:"max=64"`
	State        string `json:"state" validate:"max=32"`
	Phone        string `json:"phone" validate:"max=32"`
	Email        string `json:"email" validate:"omitempty,email"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive pending"`
	PatientCount int    `json:"patient_count" validate:"gte=0"`
	// MonthlyRevenue 十进制字符串，例如 "12500.00"
	MonthlyRevenue string `json:"monthly_revenue" validate:"omitempty,numeric"`
}

// UpdateClinicRequest 只更新非空字段
type UpdateClinicRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=128"`
	Specialty      *string `json:"specialty" validate:"omitempty,max=64"`
	Address        *string `json:"address" validate:"omitempty,max=255"`
	City           *string `json:"city" validate:"omitempty,max=64"`
	State          *string `json:"state" validate:"omitempty,max=32"`
	Phone          *string `json:"phone" validate:"omitempty,max=32"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Status         *string `json:"status" validate:"omitempty,oneof=active inactive pending"`
	PatientCount   *int    `json:"patient_count" validate:"omitempty,gte=0"`
	MonthlyRevenue *string `json:"monthly_revenue" validate:"omitempty,numeric"`
}
