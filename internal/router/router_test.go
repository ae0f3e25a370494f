package router

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	hconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"MediPay/config"
	"MediPay/internal/middleware"
	"MediPay/internal/model"
	"MediPay/internal/repository"
	"MediPay/internal/service"
	"MediPay/pkg/identity"
	"MediPay/pkg/snowflake"
	"MediPay/pkg/token"
	"MediPay/pkg/webhook"
	"MediPay/storage/database"
)

var webhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("router-webhook-secret"))

type testApp struct {
	engine   *route.Engine
	db       *gorm.DB
	provider *identity.MockProvider
	verifier *webhook.Verifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	saved := config.Cfg
	t.Cleanup(func() { config.Cfg = saved })
	config.Cfg.Environment = "test"
	config.Cfg.SessionJWTSecret = "router-test-secret"
	config.Cfg.SessionExpireMinutes = 30
	config.Cfg.SessionCookieName = "__session"
	config.Cfg.LoginPath = "/login"
	config.Cfg.PublicRoutes = []string{"/login", "/signup", "/", "/api/webhooks*", "/healthz"}
	config.Cfg.DataSource = "store"
	config.Cfg.RateLimitEnabled = false
	config.Cfg.CSRFEnabled = false

	require.NoError(t, token.Init())
	require.NoError(t, middleware.Init())
	require.NoError(t, snowflake.Init(1, 1))

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	provider := identity.NewMockProvider()
	clinics := repository.NewClinicRepository(db)
	payments := repository.NewPaymentRepository(db)
	catalog := service.NewStoreCatalog(clinics, payments, repository.NewStatsRepository(db))

	service.SetOnboarding(service.NewOnboardingService(repository.NewOnboardingRepository(db), provider, nil))
	service.SetUser(service.NewUserService(provider))
	service.SetClinic(service.NewClinicService(catalog, clinics))
	service.SetPayment(service.NewPaymentService(catalog, payments))
	service.SetDashboard(service.NewDashboardService(catalog, nil, nil))
	service.SetSettings(service.NewSettingsService(repository.NewSettingsRepository(db)))

	verifier, err := webhook.NewVerifier(webhookSecret, 5*time.Minute)
	require.NoError(t, err)
	service.SetWebhook(service.NewWebhookService(verifier, repository.NewUserRepository(db), nil))

	h := route.NewEngine(hconfig.NewOptions([]hconfig.Option{}))
	Register(h)

	return &testApp{engine: h, db: db, provider: provider, verifier: verifier}
}

func (a *testApp) session(t *testing.T, userID string, metadata map[string]interface{}) string {
	t.Helper()
	signed, _, err := token.IssueSession(userID, metadata)
	require.NoError(t, err)
	return signed
}

func (a *testApp) do(method, path, tok string, body interface{}) *ut.ResponseRecorder {
	headers := []ut.Header{{Key: "Content-Type", Value: "application/json"}}
	if tok != "" {
		headers = append(headers, ut.Header{Key: "Authorization", Value: "Bearer " + tok})
	}

	var b *ut.Body
	if body != nil {
		raw, _ := json.Marshal(body)
		b = &ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}
	}
	return ut.PerformRequest(a.engine, method, path, b, headers...)
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *ut.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func onboarded() map[string]interface{} {
	return map[string]interface{}{"onboardingComplete": true, "lastCompletedStep": 4}
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "version")

	for _, path := range []string{"/api/v1/me", "/api/v1/clinics", "/api/v1/onboarding", "/reports"} {
		w := app.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Contains(t, w.Header().Get("Location"), "/login", path)
	}
}

func TestOnboardingFlow(t *testing.T) {
	app := newTestApp(t)
	userID := "user_router_1"
	app.provider.Seed(userID, identity.Metadata{"plan": "pro"})
	tok := app.session(t, userID, nil)

	w := app.do(http.MethodGet, "/api/v1/dashboard/stats", tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "/onboarding", decode(t, w).Error.Details["redirect"])

	w = app.do(http.MethodGet, "/api/v1/onboarding/partial", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var partial struct {
		ResumeStep int  `json:"resume_step"`
		Exists     bool `json:"exists"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &partial))
	assert.False(t, partial.Exists)
	assert.Equal(t, 0, partial.ResumeStep)

	w = app.do(http.MethodPut, "/api/v1/onboarding/partial", tok, map[string]interface{}{
		"data":                map[string]interface{}{"practiceName": "Sunrise Dental"},
		"last_completed_step": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	step, ok := app.provider.Metadata(userID).LastCompletedStep()
	require.True(t, ok)
	assert.Equal(t, 1, step)
	assert.Equal(t, "pro", app.provider.Metadata(userID)["plan"])

	w = app.do(http.MethodPut, "/api/v1/onboarding/partial", tok, map[string]interface{}{
		"data":                []int{1, 2},
		"last_completed_step": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ONBOARDING_STEP_INVALID", decode(t, w).Error.Code)

	w = app.do(http.MethodGet, "/api/v1/onboarding/partial", tok, nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &partial))
	assert.True(t, partial.Exists)
	assert.Equal(t, 2, partial.ResumeStep)

	w = app.do(http.MethodPost, "/api/v1/onboarding/complete", tok, map[string]bool{"status": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "onboarding not completed")
	assert.False(t, app.provider.Metadata(userID).OnboardingComplete())

	w = app.do(http.MethodPost, "/api/v1/onboarding/complete", tok, map[string]bool{"status": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_refresh_required":true`)
	assert.True(t, app.provider.Metadata(userID).OnboardingComplete())

	// 旧会话里的 claims 仍然是未完成
	w = app.do(http.MethodGet, "/api/v1/dashboard/stats", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPost, "/api/v1/me/session/refresh", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var refreshed struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &refreshed))
	require.NotEmpty(t, refreshed.Token)

	cookieSet := false
	w.Result().Header.VisitAllCookie(func(key, value []byte) {
		if string(key) == "__session" {
			cookieSet = true
		}
	})
	assert.True(t, cookieSet)

	w = app.do(http.MethodGet, "/api/v1/dashboard/stats", refreshed.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/v1/onboarding", refreshed.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		OnboardingComplete bool `json:"onboarding_complete"`
		ResumeStep         int  `json:"resume_step"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &status))
	assert.True(t, status.OnboardingComplete)
	assert.Equal(t, 2, status.ResumeStep)
}

func TestClinicRoutes(t *testing.T) {
	app := newTestApp(t)
	tok := app.session(t, "user_admin", onboarded())

	w := app.do(http.MethodPost, "/api/v1/clinics", tok, map[string]interface{}{"city": "Austin"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	assert.Equal(t, "name is required", env.Error.Message)

	w = app.do(http.MethodPost, "/api/v1/clinics", tok, map[string]interface{}{
		"name":            "Riverside Family Clinic",
		"city":            "Austin",
		"status":          "active",
		"monthly_revenue": "12500.50",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Clinic
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.NotEmpty(t, created.PublicID)
	assert.True(t, decimal.RequireFromString("12500.50").Equal(created.MonthlyRevenue))

	w = app.do(http.MethodGet, "/api/v1/clinics?search=riverside&page_size=5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	env = decode(t, w)
	assert.EqualValues(t, 1, env.Meta["total"])
	assert.EqualValues(t, 5, env.Meta["page_size"])

	w = app.do(http.MethodPut, "/api/v1/clinics/"+created.PublicID, tok, map[string]interface{}{"status": "inactive"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"inactive"`)

	w = app.do(http.MethodDelete, "/api/v1/clinics/"+created.PublicID, tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = app.do(http.MethodGet, "/api/v1/clinics/"+created.PublicID, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CLINIC_NOT_FOUND", decode(t, w).Error.Code)
}

func TestPaymentAndClaimRoutes(t *testing.T) {
	app := newTestApp(t)
	tok := app.session(t, "user_billing", onboarded())

	require.NoError(t, app.db.Create(&model.Clinic{
		PublicID: "cln_9001", Name: "Harbor Dental", Status: model.ClinicStatusActive,
	}).Error)
	require.NoError(t, app.db.Create(&model.Claim{
		PublicID: "clm_9001", ClinicID: "cln_9001", PatientName: "Ana Ruiz",
		Amount: decimal.RequireFromString("320.00"), Status: model.ClaimSubmitted, SubmittedAt: time.Now(),
	}).Error)

	w := app.do(http.MethodPost, "/api/v1/payment-plans", tok, map[string]interface{}{
		"clinic_id":     "cln_9001",
		"patient_name":  "Ana Ruiz",
		"total_amount":  "900.00",
		"installments":  3,
		"patient_email": "ana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"remaining":"900`)

	w = app.do(http.MethodPost, "/api/v1/payment-plans", tok, map[string]interface{}{
		"clinic_id":    "cln_missing",
		"patient_name": "Ana Ruiz",
		"total_amount": "900.00",
		"installments": 3,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/v1/payment-plans?clinic_id=cln_9001", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["total"])

	w = app.do(http.MethodPatch, "/api/v1/claims/clm_9001/status", tok, map[string]string{"status": "denied"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPatch, "/api/v1/claims/clm_9001/status", tok, map[string]string{"status": "in_review"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"in_review"`)

	w = app.do(http.MethodPatch, "/api/v1/claims/clm_9001/status", tok, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CLAIM_TRANSITION_INVALID", decode(t, w).Error.Code)

	w = app.do(http.MethodGet, "/api/v1/claims?status=in_review", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w).Meta["total"])

	w = app.do(http.MethodGet, "/api/v1/dashboard/transactions?limit=abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/v1/dashboard/stats", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalClinics       int64  `json:"total_clinics"`
		PendingClaims      int64  `json:"pending_claims"`
		OutstandingBalance string `json:"outstanding_balance"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.EqualValues(t, 1, stats.TotalClinics)
	assert.EqualValues(t, 1, stats.PendingClaims)
	assert.True(t, decimal.RequireFromString("900").Equal(decimal.RequireFromString(stats.OutstandingBalance)))
}

func TestSettingsRoutes(t *testing.T) {
	app := newTestApp(t)
	tok := app.session(t, "user_settings", onboarded())

	w := app.do(http.MethodGet, "/api/v1/settings", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "America/New_York")

	w = app.do(http.MethodPut, "/api/v1/settings", tok, map[string]interface{}{
		"display_name": "Dr. Kim",
		"timezone":     "Not/AZone",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPut, "/api/v1/settings", tok, map[string]interface{}{
		"display_name":       "Dr. Kim",
		"timezone":           "America/Chicago",
		"notification_prefs": map[string]bool{"claims": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/v1/settings", tok, nil)
	assert.Contains(t, w.Body.String(), "America/Chicago")
	assert.Contains(t, w.Body.String(), "Dr. Kim")

	w = app.do(http.MethodGet, "/api/v1/settings/roles", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "billing_manager")
}

func TestIdentityWebhookRoute(t *testing.T) {
	app := newTestApp(t)

	payload := []byte(`{"type":"user.created","data":{"id":"user_hook_1","first_name":"Jo",` +
		`"email_addresses":[{"id":"idn_1","email_address":"jo@example.com"}],"primary_email_address_id":"idn_1"}}`)

	post := func(signature string) *ut.ResponseRecorder {
		now := time.Now()
		if signature == "" {
			var err error
			signature, err = app.verifier.Sign("msg_1", now, payload)
			require.NoError(t, err)
		}
		return ut.PerformRequest(app.engine, http.MethodPost, "/api/webhooks/identity",
			&ut.Body{Body: bytes.NewReader(payload), Len: len(payload)},
			ut.Header{Key: "Content-Type", Value: "application/json"},
			ut.Header{Key: "svix-id", Value: "msg_1"},
			ut.Header{Key: "svix-timestamp", Value: strconv.FormatInt(now.Unix(), 10)},
			ut.Header{Key: "svix-signature", Value: signature},
		)
	}

	w := post("v1,bm90LWEtc2lnbmF0dXJl")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "WEBHOOK_SIGNATURE_INVALID", decode(t, w).Error.Code)

	w = post("")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"action":"created"`)

	var user model.User
	require.NoError(t, app.db.Where("provider_user_id = ?", "user_hook_1").First(&user).Error)
	assert.Equal(t, "jo@example.com", user.Email)

	w = post("")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"action":"duplicate"`)
}
