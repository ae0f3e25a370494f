package dto

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage 保证 (Page-1)*PageSize 不溢出
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Pagination 分页参数，零值按默认值处理
type Pagination struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// Normalize 返回修正后的分页参数
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

type ClinicFilter struct {
	Status string `query:"status"`
	Search string `query:"search"`
	Pagination
}

type PaymentPlanFilter struct {
	Status   string `query:"status"`
	ClinicID string `query:"clinic_id"`
	Pagination
}

type ClaimFilter struct {
	Status   string `query:"status"`
	ClinicID string `query:"clinic_id"`
	Pagination
}

// Page 分页结果
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func (p Page[T]) Meta() map[string]interface{} {
	return map[string]interface{}{
		"total":     p.Total,
		"page":      p.Page,
		"page_size": p.PageSize,
	}
}
