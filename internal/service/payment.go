package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/snowflake"
	"MediPay/storage/database"
)

type PaymentWriter interface {
	CreatePlan(ctx context.Context, plan *model.PaymentPlan) error
	GetClaim(ctx context.Context, publicID string) (*model.Claim, error)
	UpdateClaimStatus(ctx context.Context, claim *model.Claim, from model.ClaimStatus) error
}

var (
	paymentService *PaymentService
	paymentOnce    sync.Once
)

func Payment() *PaymentService {
	paymentOnce.Do(func() {
		if paymentService == nil {
			paymentService = NewPaymentService(DefaultCatalog(), repository.NewPaymentRepository(database.DB()))
		}
	})
	return paymentService
}

func SetPayment(s *PaymentService) {
	paymentService = s
}

// PaymentService 分期计划与保险理赔
type PaymentService struct {
	catalog Catalog
	store   PaymentWriter
	now     func() time.Time
}

func NewPaymentService(catalog Catalog, store PaymentWriter) *PaymentService {
	return &PaymentService{catalog: catalog, store: store, now: time.Now}
}

func (s *PaymentService) ListPlans(ctx context.Context, filter dto.PaymentPlanFilter) (*dto.Page[dto.PaymentPlanData], error) {
	return s.catalog.ListPaymentPlans(ctx, filter)
}

func (s *PaymentService) GetPlan(ctx context.Context, id string) (*dto.PaymentPlanData, error) {
	return s.catalog.GetPaymentPlan(ctx, id)
}

func (s *PaymentService) CreatePlan(ctx context.Context, req *dto.CreatePaymentPlanRequest) (*dto.PaymentPlanData, error) {
	if s.catalog.ReadOnly() {
		return nil, errors.DataSourceReadOnly
	}

	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, errors.AmountInvalid.WithMessage("total_amount must be greater than zero")
	}

	if _, err := s.catalog.GetClinic(ctx, req.ClinicID); err != nil {
		return nil, err
	}

	publicID, err := snowflake.NextPublicID("pln")
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment plan id: %w", err)
	}

	due := s.now().UTC().AddDate(0, 0, 30)
	if req.FirstDueDate != nil {
		due = req.FirstDueDate.UTC()
	}

	plan := &model.PaymentPlan{
		PublicID:     publicID,
		ClinicID:     req.ClinicID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		TotalAmount:  total,
		Installments: req.Installments,
		Status:       model.PaymentPlanActive,
		NextDueDate:  &due,
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create payment plan: %w", err)
	}

	logger.Logger.Info("Payment plan created",
		zap.String("plan_id", publicID),
		zap.String("clinic_id", req.ClinicID),
		zap.String("total", total.StringFixed(2)),
	)

	data := toPaymentPlanData(*plan)
	return &data, nil
}

func (s *PaymentService) ListClaims(ctx context.Context, filter dto.ClaimFilter) (*dto.Page[model.Claim], error) {
	return s.catalog.ListClaims(ctx, filter)
}

func (s *PaymentService) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	return s.catalog.GetClaim(ctx, id)
}

// UpdateClaimStatus 只允许 submitted -> in_review -> approved|denied，approved -> paid
func (s *PaymentService) UpdateClaimStatus(ctx context.Context, id string, req *dto.UpdateClaimStatusRequest) (*model.Claim, error) {
	if s.catalog.ReadOnly() {
		return nil, errors.DataSourceReadOnly
	}

	claim, err := s.store.GetClaim(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ClaimNotFound
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	from := claim.Status
	next := model.ClaimStatus(req.Status)
	if !from.CanTransitionTo(next) {
		return nil, errors.ClaimTransitionInvalid.WithMessage("cannot move claim from %s to %s", from, next)
	}

	claim.Status = next
	switch next {
	case model.ClaimApproved, model.ClaimDenied, model.ClaimPaid:
		now := s.now().UTC()
		claim.ProcessedAt = &now
	}
	if next == model.ClaimDenied {
		claim.DenialReason = req.DenialReason
	}

	if err := s.store.UpdateClaimStatus(ctx, claim, from); err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ClaimTransitionInvalid.WithMessage("claim was modified concurrently")
		}
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	logger.Logger.Info("Claim status updated",
		zap.String("claim_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(next)),
	)
	return claim, nil
}
