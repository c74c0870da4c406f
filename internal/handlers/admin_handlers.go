package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"donation_app_echo/internal/middleware"
	"donation_app_echo/internal/services"
)

// AdminHandler exposes the authenticated admin endpoints plus login/logout.
type AdminHandler struct {
	donations     *services.DonationService
	payments      *services.PaymentService
	receipts      *services.ReceiptService
	sessions      services.SessionStore
	adminPassword string
	secureCookies bool
}

func NewAdminHandler(
	donations *services.DonationService,
	payments *services.PaymentService,
	receipts *services.ReceiptService,
	sessions services.SessionStore,
	adminPassword string,
	secureCookies bool,
) *AdminHandler {
	return &AdminHandler{
		donations:     donations,
		payments:      payments,
		receipts:      receipts,
		sessions:      sessions,
		adminPassword: adminPassword,
		secureCookies: secureCookies,
	}
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c echo.Context) error {
	if h.adminPassword == "" {
		return echo.NewHTTPError(http.StatusInternalServerError, "관리자 비밀번호가 설정되지 않았습니다")
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.adminPassword)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]bool{"success": false})
	}

	token, err := h.sessions.Create(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminSessionCookie,
		Value:    token,
		MaxAge:   int(services.AdminSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Logout handles POST /api/admin/logout
func (h *AdminHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.AdminSessionCookie); err == nil && cookie.Value != "" {
		_ = h.sessions.Revoke(c.Request().Context(), cookie.Value)
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.AdminSessionCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})

	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// ListDonations handles GET /api/admin/donations
func (h *AdminHandler) ListDonations(c echo.Context) error {
	donations, err := h.donations.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"donations": donations})
}

// ConfirmDepositRequest identifies the donation whose deposit arrived.
type ConfirmDepositRequest struct {
	ID string `json:"id"`
}

// ConfirmDeposit handles POST /api/admin/confirm-deposit
func (h *AdminHandler) ConfirmDeposit(c echo.Context) error {
	var req ConfirmDepositRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if _, err := h.payments.ConfirmDeposit(c.Request().Context(), req.ID, "admin"); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// GenerateReceipts handles GET /api/admin/receipts?ids=a,b,c&email=true&zip=1
func (h *AdminHandler) GenerateReceipts(c echo.Context) error {
	idsParam := c.QueryParam("ids")
	if idsParam == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ids required")
	}

	var ids []string
	for _, id := range strings.Split(idsParam, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	output, err := h.receipts.Generate(c.Request().Context(), ids, services.ReceiptOptions{
		SendEmail: c.QueryParam("email") == "true",
		Archive:   c.QueryParam("zip") == "1",
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+output.Filename+`"`)
	return c.Blob(http.StatusOK, output.ContentType, output.Data)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.donations.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
