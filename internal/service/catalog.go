package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"MediPay/config"
	"MediPay/internal/fixture"
	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/storage/database"
)

const (
	defaultTransactionLimit = 10
	maxTransactionLimit     = 50
)

// Catalog 仪表盘读取的业务数据，静态演示数据和数据库两种实现
type Catalog interface {
	ListClinics(ctx context.Context, filter dto.ClinicFilter) (*dto.Page[model.Clinic], error)
	GetClinic(ctx context.Context, id string) (*model.Clinic, error)
	ListPaymentPlans(ctx context.Context, filter dto.PaymentPlanFilter) (*dto.Page[dto.PaymentPlanData], error)
	GetPaymentPlan(ctx context.Context, id string) (*dto.PaymentPlanData, error)
	ListClaims(ctx context.Context, filter dto.ClaimFilter) (*dto.Page[model.Claim], error)
	GetClaim(ctx context.Context, id string) (*model.Claim, error)
	ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	Stats(ctx context.Context) (*dto.AdminStats, error)

	// ReadOnly 为 true 时拒绝所有写操作
	ReadOnly() bool
}

var (
	catalog     Catalog
	catalogOnce sync.Once
)

// DefaultCatalog 按 DATA_SOURCE 选择实现
func DefaultCatalog() Catalog {
	catalogOnce.Do(func() {
		if catalog != nil {
			return
		}
		if config.Cfg.UseFixtureData() {
			catalog = NewFixtureCatalog(time.Now)
			return
		}
		db := database.DB()
		catalog = NewStoreCatalog(repository.NewClinicRepository(db), repository.NewPaymentRepository(db), repository.NewStatsRepository(db))
	})
	return catalog
}

func SetCatalog(c Catalog) {
	catalog = c
}

func normalizeTxLimit(limit int) int {
	if limit <= 0 {
		return defaultTransactionLimit
	}
	if limit > maxTransactionLimit {
		return maxTransactionLimit
	}
	return limit
}

func monthStart(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func toPaymentPlanData(p model.PaymentPlan) dto.PaymentPlanData {
	return dto.PaymentPlanData{
		ID:               p.PublicID,
		ClinicID:         p.ClinicID,
		PatientName:      p.PatientName,
		PatientEmail:     p.PatientEmail,
		TotalAmount:      p.TotalAmount,
		PaidAmount:       p.PaidAmount,
		Remaining:        p.Remaining(),
		Installments:     p.Installments,
		InstallmentsPaid: p.InstallmentsPaid,
		Status:           string(p.Status),
		NextDueDate:      p.NextDueDate,
		CreatedAt:        p.CreatedAt,
	}
}

// ---------- fixture ----------

// FixtureCatalog 内存中的演示数据，只读
type FixtureCatalog struct {
	now          func() time.Time
	clinics      []model.Clinic
	plans        []model.PaymentPlan
	claims       []model.Claim
	transactions []model.Transaction
}

func NewFixtureCatalog(now func() time.Time) *FixtureCatalog {
	t := now()
	return &FixtureCatalog{
		now:          now,
		clinics:      fixture.Clinics(),
		plans:        fixture.PaymentPlans(t),
		claims:       fixture.Claims(t),
		transactions: fixture.Transactions(t),
	}
}

func (f *FixtureCatalog) ReadOnly() bool { return true }

func paginate[T any](items []T, p dto.Pagination) *dto.Page[T] {
	p = p.Normalize()
	page := &dto.Page[T]{Total: int64(len(items)), Page: p.Page, PageSize: p.PageSize, Items: []T{}}

	start := p.Offset()
	if start < 0 || start >= len(items) {
		return page
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[start:end]
	return page
}

func (f *FixtureCatalog) ListClinics(ctx context.Context, filter dto.ClinicFilter) (*dto.Page[model.Clinic], error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var out []model.Clinic
	for _, c := range f.clinics {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.City), search) &&
			!strings.Contains(strings.ToLower(c.Specialty), search) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return paginate(out, filter.Pagination), nil
}

func (f *FixtureCatalog) GetClinic(ctx context.Context, id string) (*model.Clinic, error) {
	for _, c := range f.clinics {
		if c.PublicID == id {
			c := c
			return &c, nil
		}
	}
	return nil, errors.ClinicNotFound
}

func (f *FixtureCatalog) ListPaymentPlans(ctx context.Context, filter dto.PaymentPlanFilter) (*dto.Page[dto.PaymentPlanData], error) {
	var out []dto.PaymentPlanData
	for _, p := range f.plans {
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if filter.ClinicID != "" && p.ClinicID != filter.ClinicID {
			continue
		}
		out = append(out, toPaymentPlanData(p))
	}
	return paginate(out, filter.Pagination), nil
}

func (f *FixtureCatalog) GetPaymentPlan(ctx context.Context, id string) (*dto.PaymentPlanData, error) {
	for _, p := range f.plans {
		if p.PublicID == id {
			data := toPaymentPlanData(p)
			return &data, nil
		}
	}
	return nil, errors.PaymentPlanNotFound
}

func (f *FixtureCatalog) ListClaims(ctx context.Context, filter dto.ClaimFilter) (*dto.Page[model.Claim], error) {
	var out []model.Claim
	for _, c := range f.claims {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.ClinicID != "" && c.ClinicID != filter.ClinicID {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })

	return paginate(out, filter.Pagination), nil
}

func (f *FixtureCatalog) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	for _, c := range f.claims {
		if c.PublicID == id {
			c := c
			return &c, nil
		}
	}
	return nil, errors.ClaimNotFound
}

func (f *FixtureCatalog) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	limit = normalizeTxLimit(limit)

	out := make([]model.Transaction, len(f.transactions))
	copy(out, f.transactions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FixtureCatalog) Stats(ctx context.Context) (*dto.AdminStats, error) {
	stats := &dto.AdminStats{OutstandingBalance: decimal.Zero, RevenueThisMonth: decimal.Zero}

	for _, c := range f.clinics {
		stats.TotalClinics++
		if c.Status == model.ClinicStatusActive {
			stats.ActiveClinics++
		}
	}
	for _, p := range f.plans {
		switch p.Status {
		case model.PaymentPlanActive:
			stats.ActivePaymentPlans++
			stats.OutstandingBalance = stats.OutstandingBalance.Add(p.Remaining())
		case model.PaymentPlanOverdue:
			stats.OutstandingBalance = stats.OutstandingBalance.Add(p.Remaining())
		}
	}
	for _, c := range f.claims {
		switch c.Status {
		case model.ClaimSubmitted, model.ClaimInReview:
			stats.PendingClaims++
		case model.ClaimApproved, model.ClaimPaid:
			stats.ApprovedClaims++
		case model.ClaimDenied:
			stats.DeniedClaims++
		}
	}

	start := monthStart(f.now())
	for _, tx := range f.transactions {
		if tx.Status == model.TransactionCompleted && !tx.OccurredAt.Before(start) {
			stats.RevenueThisMonth = stats.RevenueThisMonth.Add(tx.Amount)
		}
	}

	return stats, nil
}

// ---------- store ----------

type clinicReader interface {
	List(ctx context.Context, filter dto.ClinicFilter) ([]model.Clinic, int64, error)
	GetByPublicID(ctx context.Context, publicID string) (*model.Clinic, error)
}

type paymentReader interface {
	ListPlans(ctx context.Context, filter dto.PaymentPlanFilter) ([]model.PaymentPlan, int64, error)
	GetPlan(ctx context.Context, publicID string) (*model.PaymentPlan, error)
	ListClaims(ctx context.Context, filter dto.ClaimFilter) ([]model.Claim, int64, error)
	GetClaim(ctx context.Context, publicID string) (*model.Claim, error)
	RecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
}

type statsReader interface {
	AdminStats(ctx context.Context, monthStart time.Time) (*dto.AdminStats, error)
}

// StoreCatalog 从数据库读取
type StoreCatalog struct {
	clinics  clinicReader
	payments paymentReader
	stats    statsReader
	now      func() time.Time
}

func NewStoreCatalog(clinics clinicReader, payments paymentReader, stats statsReader) *StoreCatalog {
	return &StoreCatalog{clinics: clinics, payments: payments, stats: stats, now: time.Now}
}

func (s *StoreCatalog) ReadOnly() bool { return false }

func (s *StoreCatalog) ListClinics(ctx context.Context, filter dto.ClinicFilter) (*dto.Page[model.Clinic], error) {
	items, total, err := s.clinics.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	p := filter.Pagination.Normalize()
	if items == nil {
		items = []model.Clinic{}
	}
	return &dto.Page[model.Clinic]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *StoreCatalog) GetClinic(ctx context.Context, id string) (*model.Clinic, error) {
	clinic, err := s.clinics.GetByPublicID(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ClinicNotFound
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return clinic, nil
}

func (s *StoreCatalog) ListPaymentPlans(ctx context.Context, filter dto.PaymentPlanFilter) (*dto.Page[dto.PaymentPlanData], error) {
	plans, total, err := s.payments.ListPlans(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment plans: %w", err)
	}

	items := make([]dto.PaymentPlanData, 0, len(plans))
	for _, p := range plans {
		items = append(items, toPaymentPlanData(p))
	}
	p := filter.Pagination.Normalize()
	return &dto.Page[dto.PaymentPlanData]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *StoreCatalog) GetPaymentPlan(ctx context.Context, id string) (*dto.PaymentPlanData, error) {
	plan, err := s.payments.GetPlan(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.PaymentPlanNotFound
		}
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	data := toPaymentPlanData(*plan)
	return &data, nil
}

func (s *StoreCatalog) ListClaims(ctx context.Context, filter dto.ClaimFilter) (*dto.Page[model.Claim], error) {
	items, total, err := s.payments.ListClaims(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	if items == nil {
		items = []model.Claim{}
	}
	p := filter.Pagination.Normalize()
	return &dto.Page[model.Claim]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}, nil
}

func (s *StoreCatalog) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	claim, err := s.payments.GetClaim(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

func (s *StoreCatalog) ListTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	txs, err := s.payments.RecentTransactions(ctx, normalizeTxLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *StoreCatalog) Stats(ctx context.Context) (*dto.AdminStats, error) {
	stats, err := s.stats.AdminStats(ctx, monthStart(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}
