package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

// AdminStats 汇总仪表盘指标，monthStart 之后的已完成交易计入本月收入
func (r *StatsRepository) AdminStats(ctx context.Context, monthStart time.Time) (*dto.AdminStats, error) {
	// 每条查询都从新的链开始，避免 Statement 在查询之间串用
	read := func(m interface{}) *gorm.DB {
		return r.db.WithContext(ctx).Clauses(dbresolver.Read).Model(m)
	}
	stats := &dto.AdminStats{}

	var clinicCounts []statusCount
	if err := read(&model.Clinic{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&clinicCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range clinicCounts {
		stats.TotalClinics += c.Count
		if c.Status == string(model.ClinicStatusActive) {
			stats.ActiveClinics = c.Count
		}
	}

	var claimCounts []statusCount
	if err := read(&model.Claim{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&claimCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range claimCounts {
		switch model.ClaimStatus(c.Status) {
		case model.ClaimSubmitted, model.ClaimInReview:
			stats.PendingClaims += c.Count
		case model.ClaimApproved, model.ClaimPaid:
			stats.ApprovedClaims += c.Count
		case model.ClaimDenied:
			stats.DeniedClaims += c.Count
		}
	}

	// 金额在 Go 侧用 decimal 汇总，避免不同数据库 SUM 返回类型不一致
	var plans []model.PaymentPlan
	if err := read(&model.PaymentPlan{}).Select("total_amount", "paid_amount", "status").
		Where("status IN ?", []model.PaymentPlanStatus{model.PaymentPlanActive, model.PaymentPlanOverdue}).
		Find(&plans).Error; err != nil {
		return nil, err
	}
	stats.OutstandingBalance = decimal.Zero
	for _, p := range plans {
		if p.Status == model.PaymentPlanActive {
			stats.ActivePaymentPlans++
		}
		stats.OutstandingBalance = stats.OutstandingBalance.Add(p.Remaining())
	}

	var txs []model.Transaction
	if err := read(&model.Transaction{}).Select("amount", "status", "occurred_at").
		Where("status = ? AND occurred_at >= ?", model.TransactionCompleted, monthStart).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	stats.RevenueThisMonth = decimal.Zero
	for _, tx := range txs {
		stats.RevenueThisMonth = stats.RevenueThisMonth.Add(tx.Amount)
	}

	return stats, nil
}
