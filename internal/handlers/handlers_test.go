package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"donation_app_echo/internal/crypto"
	"donation_app_echo/internal/middleware"
	"donation_app_echo/internal/models"
	"donation_app_echo/internal/services"
)

const (
	testAdminPassword = "correct-horse-battery"
	testCipherSecret  = "0123456789abcdef0123456789abcdef"
)

// noopNotifier satisfies services.Notifier without touching SMTP.
type noopNotifier struct{}

func (noopNotifier) DonationCompleted(*models.Donation, services.NotificationKind) {}

// testApp wires the full HTTP surface against an in-memory database, the
// same way cmd/server does against the real one.
type testApp struct {
	echo      *echo.Echo
	donations *services.DonationService
	sessions  services.SessionStore
}

func newTestApp(t *testing.T, gatewayURL string) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, services.AutoMigrate(db))

	log := zap.NewNop().Sugar()

	cipher, err := crypto.NewCipher(testCipherSecret)
	require.NoError(t, err)

	kakaopay := services.NewKakaoPayService("TC0ONETIME", "test-secret")
	if gatewayURL != "" {
		kakaopay.SetBaseURL(gatewayURL)
	}

	donations := services.NewDonationService(db)
	sessions := services.NewMemorySessionStore()
	payments := services.NewPaymentService(donations, kakaopay, cipher,
		noopNotifier{}, "https://donate.example.com", log)
	receipts := services.NewReceiptService(donations, cipher, nil,
		"에코행복연구소 자유후원", "123-45-67890", log)

	donationHandler := NewDonationHandler(payments)
	adminHandler := NewAdminHandler(donations, payments, receipts, sessions,
		testAdminPassword, false)

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewErrorHandler(log)

	e.POST("/api/donations/bank-transfer", donationHandler.SubmitBankTransfer)
	e.POST("/api/donations/kakaopay/ready", donationHandler.ReadyKakaoPay)
	e.POST("/api/donations/kakaopay/approve", donationHandler.ApproveKakaoPay)

	e.POST("/api/admin/login", adminHandler.Login)
	e.POST("/api/admin/logout", adminHandler.Logout)

	admin := e.Group("/api/admin", middleware.RequireAdmin(sessions))
	admin.GET("/donations", adminHandler.ListDonations)
	admin.POST("/confirm-deposit", adminHandler.ConfirmDeposit)
	admin.GET("/receipts", adminHandler.GenerateReceipts)
	admin.GET("/stats", adminHandler.Stats)

	return &testApp{echo: e, donations: donations, sessions: sessions}
}

func (a *testApp) request(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

// login authenticates and returns the session cookie.
func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()

	rec := a.request(t, http.MethodPost, "/api/admin/login",
		map[string]string{"password": testAdminPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AdminSessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedCompletedReceiptDonation(t *testing.T, app *testApp, name string) *models.Donation {
	t.Helper()
	d := &models.Donation{
		LectureTitle:    "환경과 행복",
		Amount:          30000,
		PaymentMethod:   models.PaymentMethodBankTransfer,
		Status:          models.DonationStatusCompleted,
		Name:            name,
		Phone:           "010-1234-5678",
		Email:           "donor@example.com",
		ReceiptRequired: true,
	}
	require.NoError(t, app.donations.Create(context.Background(), d))
	return d
}
