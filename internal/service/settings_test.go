package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediPay/internal/model/dto"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
)

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	svc := NewSettingsService(repository.NewSettingsRepository(openTestDB(t)))

	defaults, err := svc.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", defaults.Timezone)
	assert.JSONEq(t, `{}`, string(defaults.NotificationPrefs))

	saved, err := svc.Update(ctx, "user_1", &dto.UpdateSettingsRequest{
		DisplayName:       "Dr. Ada",
		Organization:      "Sunrise Group",
		Timezone:          "America/Chicago",
		NotificationPrefs: json.RawMessage(`{"claims_digest":"daily"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ada", saved.DisplayName)

	got, err := svc.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Group", got.Organization)
	assert.Equal(t, "America/Chicago", got.Timezone)
	assert.JSONEq(t, `{"claims_digest":"daily"}`, string(got.NotificationPrefs))

	_, err = svc.Update(ctx, "user_1", &dto.UpdateSettingsRequest{NotificationPrefs: json.RawMessage(`["x"]`)})
	assert.ErrorIs(t, err, errors.InvalidRequest)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, errors.Unauthenticated)
}

func TestRoles(t *testing.T) {
	roles := NewSettingsService(nil).Roles()

	var names []string
	for _, r := range roles {
		names = append(names, r.Name)
		assert.NotEmpty(t, r.Permissions)
	}
	assert.Equal(t, []string{"admin", "billing_manager", "clinic_staff", "viewer"}, names)
}
