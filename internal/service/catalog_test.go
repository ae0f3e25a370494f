package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediPay/internal/model"
	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
)

var catalogNow = time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

func TestFixtureCatalog(t *testing.T) {
	ctx := context.Background()
	c := NewFixtureCatalog(func() time.Time { return catalogNow })

	assert.True(t, c.ReadOnly())

	t.Run("clinic filters", func(t *testing.T) {
		page, err := c.ListClinics(ctx, dto.ClinicFilter{Status: "active"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, dto.DefaultPageSize, page.PageSize)

		page, err = c.ListClinics(ctx, dto.ClinicFilter{Search: "pediatrics"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "cln_1002", page.Items[0].PublicID)
	})

	t.Run("pagination clamps page size", func(t *testing.T) {
		page, err := c.ListClinics(ctx, dto.ClinicFilter{Pagination: dto.Pagination{Page: 2, PageSize: 2}})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, int64(5), page.Total)

		page, err = c.ListClinics(ctx, dto.ClinicFilter{Pagination: dto.Pagination{Page: 9, PageSize: 1000}})
		require.NoError(t, err)
		assert.Equal(t, dto.MaxPageSize, page.PageSize)
		assert.Empty(t, page.Items)
	})

	t.Run("huge page number", func(t *testing.T) {
		for _, p := range []int{math.MaxInt / 20, math.MaxInt} {
			page, err := c.ListClinics(ctx, dto.ClinicFilter{Pagination: dto.Pagination{Page: p, PageSize: 20}})
			require.NoError(t, err)
			assert.Empty(t, page.Items)
			assert.Equal(t, dto.MaxPage, page.Page)
			assert.Equal(t, int64(5), page.Total)
		}
	})

	t.Run("not found codes", func(t *testing.T) {
		_, err := c.GetClinic(ctx, "cln_missing")
		assert.ErrorIs(t, err, errors.ClinicNotFound)
		_, err = c.GetPaymentPlan(ctx, "pln_missing")
		assert.ErrorIs(t, err, errors.PaymentPlanNotFound)
		_, err = c.GetClaim(ctx, "clm_missing")
		assert.ErrorIs(t, err, errors.ClaimNotFound)
	})

	t.Run("payment plan remaining", func(t *testing.T) {
		plan, err := c.GetPaymentPlan(ctx, "pln_2001")
		require.NoError(t, err)
		assert.True(t, plan.Remaining.Equal(decimal.RequireFromString("1600")))

		page, err := c.ListPaymentPlans(ctx, dto.PaymentPlanFilter{ClinicID: "cln_1002"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("claims newest first", func(t *testing.T) {
		page, err := c.ListClaims(ctx, dto.ClaimFilter{Status: "submitted"})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "clm_3006", page.Items[0].PublicID)
	})

	t.Run("transactions limit", func(t *testing.T) {
		txs, err := c.ListTransactions(ctx, 3)
		require.NoError(t, err)
		require.Len(t, txs, 3)
		assert.Equal(t, "txn_4001", txs[0].PublicID)

		txs, err = c.ListTransactions(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, txs, 6)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), stats.TotalClinics)
		assert.Equal(t, int64(3), stats.ActiveClinics)
		assert.Equal(t, int64(3), stats.ActivePaymentPlans)
		// 1600 + 1500 + 400 + 1600
		assert.Equal(t, "5100", stats.OutstandingBalance.String())
		assert.Equal(t, int64(3), stats.PendingClaims)
		assert.Equal(t, int64(2), stats.ApprovedClaims)
		assert.Equal(t, int64(1), stats.DeniedClaims)
		// txn_4001 + txn_4003 + txn_4005
		assert.Equal(t, "740", stats.RevenueThisMonth.String())
	})
}

func TestStoreCatalogMapsNotFound(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	c := NewStoreCatalog(repository.NewClinicRepository(db), repository.NewPaymentRepository(db), repository.NewStatsRepository(db))

	assert.False(t, c.ReadOnly())

	_, err := c.GetClinic(ctx, "cln_x")
	assert.ErrorIs(t, err, errors.ClinicNotFound)
	_, err = c.GetPaymentPlan(ctx, "pln_x")
	assert.ErrorIs(t, err, errors.PaymentPlanNotFound)
	_, err = c.GetClaim(ctx, "clm_x")
	assert.ErrorIs(t, err, errors.ClaimNotFound)

	page, err := c.ListClinics(ctx, dto.ClinicFilter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.Total)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalClinics)

	require.NoError(t, db.Create(&model.Clinic{PublicID: "cln_1", Name: "One", Status: model.ClinicStatusActive}).Error)
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ActiveClinics)
}
