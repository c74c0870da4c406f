package services

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"donation_app_echo/internal/crypto"
	"donation_app_echo/internal/models"
)

// PaymentService orchestrates the donation lifecycle for both payment
// methods: bank transfer (manual admin confirmation) and KakaoPay (two-phase
// ready/approve handshake with the processor).
type PaymentService struct {
	donations *DonationService
	kakaopay  *KakaoPayService
	cipher    *crypto.Cipher
	notifier  Notifier
	appURL    string
	logger    *zap.SugaredLogger
}

func NewPaymentService(
	donations *DonationService,
	kakaopay *KakaoPayService,
	cipher *crypto.Cipher,
	notifier Notifier,
	appURL string,
	logger *zap.SugaredLogger,
) *PaymentService {
	return &PaymentService{
		donations: donations,
		kakaopay:  kakaopay,
		cipher:    cipher,
		notifier:  notifier,
		appURL:    strings.TrimRight(appURL, "/"),
		logger:    logger,
	}
}

// SubmitDonationRequest carries the donor form fields common to both
// payment methods.
type SubmitDonationRequest struct {
	LectureTitle         string
	LectureDescription   string
	Amount               int64
	Name                 string
	Phone                string
	Email                string
	ReceiptRequired      bool
	ResidentNumberPrefix string
}

func (r *SubmitDonationRequest) validate() error {
	r.LectureTitle = strings.TrimSpace(r.LectureTitle)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)

	if r.LectureTitle == "" || r.Name == "" || r.Phone == "" || r.Email == "" {
		return NewValidationError("필수 항목을 입력해주세요")
	}
	if r.Amount < models.MinDonationAmount {
		return NewValidationError("후원 금액은 %d원 이상이어야 합니다", models.MinDonationAmount)
	}
	if r.ReceiptRequired && r.ResidentNumberPrefix != "" && len([]rune(r.ResidentNumberPrefix)) != 7 {
		return NewValidationError("주민등록번호 앞 7자리를 입력해주세요")
	}
	return nil
}

// newDonation builds the base record shared by both flows, encrypting the
// resident number prefix when present.
func (s *PaymentService) newDonation(req *SubmitDonationRequest, method models.PaymentMethod) (*models.Donation, error) {
	donation := &models.Donation{
		LectureTitle:    req.LectureTitle,
		Amount:          req.Amount,
		PaymentMethod:   method,
		Status:          models.DonationStatusPending,
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		ReceiptRequired: req.ReceiptRequired,
	}
	if req.LectureDescription != "" {
		desc := req.LectureDescription
		donation.LectureDescription = &desc
	}
	if req.ReceiptRequired && req.ResidentNumberPrefix != "" {
		sealed, err := s.cipher.Seal(req.ResidentNumberPrefix)
		if err != nil {
			return nil, fmt.Errorf("encrypt resident number: %w", err)
		}
		donation.ResidentNumberEncrypted = &sealed
	}
	return donation, nil
}

// SubmitBankTransfer creates a pending bank-transfer donation and derives
// the deposit-matching code the donor must use as payer name.
func (s *PaymentService) SubmitBankTransfer(ctx context.Context, req SubmitDonationRequest) (*models.Donation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	donation, err := s.newDonation(&req, models.PaymentMethodBankTransfer)
	if err != nil {
		return nil, err
	}

	depositName := models.DepositNameFor(req.Name, req.Phone)
	donation.DepositNameFormat = &depositName

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	s.logger.Infow("bank transfer donation created",
		"donation_id", donation.ID, "amount", donation.Amount)
	return donation, nil
}

// KakaoPayReadyResult is what the caller needs to redirect the donor to the
// processor's payment page.
type KakaoPayReadyResult struct {
	DonationID            string
	TID                   string
	NextRedirectPCURL     string
	NextRedirectMobileURL string
}

// ReadyKakaoPay runs the first phase of the gateway handshake: create the
// pending record, register the payment with the processor, and store the
// returned transaction id.
func (s *PaymentService) ReadyKakaoPay(ctx context.Context, req SubmitDonationRequest) (*KakaoPayReadyResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	donation, err := s.newDonation(&req, models.PaymentMethodKakaoPay)
	if err != nil {
		return nil, err
	}
	donation.KakaoPayOrderID = newOrderID()

	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	resp, err := s.kakaopay.Ready(ctx, KakaoPayReadyRequest{
		OrderID:     donation.KakaoPayOrderID,
		DonationID:  donation.ID,
		ItemName:    fmt.Sprintf("[기부금] %s", donation.LectureTitle),
		Amount:      donation.Amount,
		ApprovalURL: fmt.Sprintf("%s/success/kakaopay?donation_id=%s", s.appURL, donation.ID),
		CancelURL:   s.appURL + "/cancel",
		FailURL:     s.appURL + "/fail",
	})
	if err != nil {
		// The pending row keeps no correlation tid, so a later approve
		// attempt fails instead of silently succeeding.
		return nil, err
	}

	if err := s.donations.SetGatewayTransaction(ctx, donation.ID, resp.TID); err != nil {
		return nil, err
	}

	s.logger.Infow("kakaopay payment ready",
		"donation_id", donation.ID, "order_id", donation.KakaoPayOrderID, "tid", resp.TID)

	return &KakaoPayReadyResult{
		DonationID:            donation.ID,
		TID:                   resp.TID,
		NextRedirectPCURL:     resp.NextRedirectPCURL,
		NextRedirectMobileURL: resp.NextRedirectMobileURL,
	}, nil
}

// ApproveKakaoPay runs the second phase after the donor confirmed payment at
// the processor. A repeated approve on an already completed donation is a
// no-op success; any other non-pending state is rejected.
func (s *PaymentService) ApproveKakaoPay(ctx context.Context, donationID, pgToken string) error {
	if donationID == "" || pgToken == "" {
		return NewValidationError("필수 파라미터가 없습니다")
	}

	donation, err := s.donations.GetByID(ctx, donationID)
	if err != nil {
		return err
	}
	if donation.KakaoPayTID == "" || donation.KakaoPayOrderID == "" {
		return &UpstreamError{Service: "kakaopay", Message: "payment was never registered with the processor"}
	}

	if _, err := s.kakaopay.Approve(ctx, KakaoPayApproveRequest{
		TID:        donation.KakaoPayTID,
		OrderID:    donation.KakaoPayOrderID,
		DonationID: donation.ID,
		PgToken:    pgToken,
	}); err != nil {
		return err
	}

	if err := s.donations.CompleteGatewayPayment(ctx, donationID); err != nil {
		if err == ErrInvalidDonationState {
			current, getErr := s.donations.GetByID(ctx, donationID)
			if getErr == nil && current.Status == models.DonationStatusCompleted {
				// Duplicate approve callback; already completed, do not
				// notify twice.
				s.logger.Infow("duplicate kakaopay approve ignored", "donation_id", donationID)
				return nil
			}
		}
		return err
	}

	s.logger.Infow("kakaopay payment completed", "donation_id", donationID)
	s.notifier.DonationCompleted(donation, NotificationPaymentCompleted)
	return nil
}

// ConfirmDeposit is the admin attestation that a bank transfer arrived.
func (s *PaymentService) ConfirmDeposit(ctx context.Context, donationID, confirmedBy string) (*models.Donation, error) {
	if donationID == "" {
		return nil, NewValidationError("id required")
	}

	donation, err := s.donations.ConfirmDeposit(ctx, donationID, confirmedBy)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("bank transfer deposit confirmed",
		"donation_id", donation.ID, "confirmed_by", confirmedBy)
	s.notifier.DonationCompleted(donation, NotificationDepositConfirmed)
	return donation, nil
}

// newOrderID generates the processor-facing order correlation id:
// time-based with a random suffix, e.g. DON-1756709000123-4F2K9QZ.
func newOrderID() string {
	raw := make([]byte, 5)
	_, _ = rand.Read(raw)
	suffix := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return fmt.Sprintf("DON-%d-%s", time.Now().UnixMilli(), suffix)
}
