package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"donation_app_echo/internal/services"
)

// DonationHandler exposes the public donor-facing endpoints.
type DonationHandler struct {
	payments *services.PaymentService
}

func NewDonationHandler(payments *services.PaymentService) *DonationHandler {
	return &DonationHandler{payments: payments}
}

// SubmitDonationRequest is the donor form payload shared by both methods.
type SubmitDonationRequest struct {
	LectureTitle         string `json:"lecture_title"`
	LectureDescription   string `json:"lecture_description"`
	Amount               int64  `json:"amount"`
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	ReceiptRequired      bool   `json:"receipt_required"`
	ResidentNumberPrefix string `json:"resident_number_prefix"`
}

func (r *SubmitDonationRequest) toService() services.SubmitDonationRequest {
	return services.SubmitDonationRequest{
		LectureTitle:         r.LectureTitle,
		LectureDescription:   r.LectureDescription,
		Amount:               r.Amount,
		Name:                 r.Name,
		Phone:                r.Phone,
		Email:                r.Email,
		ReceiptRequired:      r.ReceiptRequired,
		ResidentNumberPrefix: r.ResidentNumberPrefix,
	}
}

// BankTransferResponse returns the new donation id and the payer-name code
// the donor must use for the wire transfer.
type BankTransferResponse struct {
	ID                string `json:"id"`
	DepositNameFormat string `json:"deposit_name_format"`
}

// SubmitBankTransfer handles POST /api/donations/bank-transfer
func (h *DonationHandler) SubmitBankTransfer(c echo.Context) error {
	var req SubmitDonationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	donation, err := h.payments.SubmitBankTransfer(c.Request().Context(), req.toService())
	if err != nil {
		return err
	}

	resp := BankTransferResponse{ID: donation.ID}
	if donation.DepositNameFormat != nil {
		resp.DepositNameFormat = *donation.DepositNameFormat
	}
	return c.JSON(http.StatusOK, resp)
}

// KakaoPayReadyResponse carries the redirect URLs for the donor's browser.
type KakaoPayReadyResponse struct {
	DonationID            string `json:"donation_id"`
	TID                   string `json:"tid"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
}

// ReadyKakaoPay handles POST /api/donations/kakaopay/ready
func (h *DonationHandler) ReadyKakaoPay(c echo.Context) error {
	var req SubmitDonationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.payments.ReadyKakaoPay(c.Request().Context(), req.toService())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, KakaoPayReadyResponse{
		DonationID:            result.DonationID,
		TID:                   result.TID,
		NextRedirectPCURL:     result.NextRedirectPCURL,
		NextRedirectMobileURL: result.NextRedirectMobileURL,
	})
}

// KakaoPayApproveRequest arrives via the processor's approval redirect.
type KakaoPayApproveRequest struct {
	DonationID string `json:"donation_id"`
	PgToken    string `json:"pg_token"`
}

// ApproveKakaoPay handles POST /api/donations/kakaopay/approve
func (h *DonationHandler) ApproveKakaoPay(c echo.Context) error {
	var req KakaoPayApproveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	if err := h.payments.ApproveKakaoPay(c.Request().Context(), req.DonationID, req.PgToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
