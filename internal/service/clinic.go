package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/pkg/logger"
	"MediPay/pkg/snowflake"
	"MediPay/storage/database"
)

type ClinicWriter interface {
	GetByPublicID(ctx context.Context, publicID string) (*model.Clinic, error)
	Create(ctx context.Context, clinic *model.Clinic) error
	Save(ctx context.Context, clinic *model.Clinic) error
	DeleteByPublicID(ctx context.Context, publicID string) error
}

var (
	clinicService *ClinicService
	clinicOnce    sync.Once
)

func Clinic() *ClinicService {
	clinicOnce.Do(func() {
		if clinicService == nil {
			clinicService = NewClinicService(DefaultCatalog(), repository.NewClinicRepository(database.DB()))
		}
	})
	return clinicService
}

func SetClinic(s *ClinicService) {
	clinicService = s
}

type ClinicService struct {
	catalog Catalog
	store   ClinicWriter
}

func NewClinicService(catalog Catalog, store ClinicWriter) *ClinicService {
	return &ClinicService{catalog: catalog, store: store}
}

func (s *ClinicService) List(ctx context.Context, filter dto.ClinicFilter) (*dto.Page[model.Clinic], error) {
	return s.catalog.ListClinics(ctx, filter)
}

func (s *ClinicService) Get(ctx context.Context, id string) (*model.Clinic, error) {
	return s.catalog.GetClinic(ctx, id)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Zero, errors.AmountInvalid.WithMessage("invalid amount %q", raw)
	}
	return d.Round(2), nil
}

func (s *ClinicService) Create(ctx context.Context, req *dto.CreateClinicRequest) (*model.Clinic, error) {
	if s.catalog.ReadOnly() {
		return nil, errors.DataSourceReadOnly
	}

	revenue, err := parseAmount(req.MonthlyRevenue)
	if err != nil {
		return nil, err
	}

	publicID, err := snowflake.NextPublicID("cln")
	if err != nil {
		return nil, fmt.Errorf("failed to generate clinic id: %w", err)
	}

	status := model.ClinicStatus(req.Status)
	if status == "" {
		status = model.ClinicStatusPending
	}

	clinic := &model.Clinic{
		PublicID:       publicID,
		Name:           req.Name,
		Specialty:      req.Specialty,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Phone:          req.Phone,
		Email:          req.Email,
		Status:         status,
		PatientCount:   req.PatientCount,
		MonthlyRevenue: revenue,
	}
	if err := s.store.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	logger.Logger.Info("Clinic created", zap.String("clinic_id", publicID), zap.String("name", clinic.Name))
	return clinic, nil
}

func (s *ClinicService) Update(ctx context.Context, id string, req *dto.UpdateClinicRequest) (*model.Clinic, error) {
	if s.catalog.ReadOnly() {
		return nil, errors.DataSourceReadOnly
	}

	clinic, err := s.store.GetByPublicID(ctx, id)
	if err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return nil, errors.ClinicNotFound
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&clinic.Name, req.Name)
	assign(&clinic.Specialty, req.Specialty)
	assign(&clinic.Address, req.Address)
	assign(&clinic.City, req.City)
	assign(&clinic.State, req.State)
	assign(&clinic.Phone, req.Phone)
	assign(&clinic.Email, req.Email)
	if req.Status != nil {
		clinic.Status = model.ClinicStatus(*req.Status)
	}
	if req.PatientCount != nil {
		clinic.PatientCount = *req.PatientCount
	}
	if req.MonthlyRevenue != nil {
		if clinic.MonthlyRevenue, err = parseAmount(*req.MonthlyRevenue); err != nil {
			return nil, err
		}
	}

	if err := s.store.Save(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to update clinic: %w", err)
	}
	return clinic, nil
}

func (s *ClinicService) Delete(ctx context.Context, id string) error {
	if s.catalog.ReadOnly() {
		return errors.DataSourceReadOnly
	}

	if err := s.store.DeleteByPublicID(ctx, id); err != nil {
		if stderrors.Is(err, errors.ErrRecordNotFound) {
			return errors.ClinicNotFound
		}
		return fmt.Errorf("failed to delete clinic: %w", err)
	}

	logger.Logger.Info("Clinic deleted", zap.String("clinic_id", id))
	return nil
}
