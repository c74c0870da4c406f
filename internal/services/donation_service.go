package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"donation_app_echo/internal/models"
)

// DonationService owns every read and write on donation records.
type DonationService struct {
	db *gorm.DB
}

func NewDonationService(db *gorm.DB) *DonationService {
	return &DonationService{db: db}
}

// Create inserts a new donation record. The id and creation timestamp are
// assigned here and never change afterwards.
func (s *DonationService) Create(ctx context.Context, donation *models.Donation) error {
	return s.db.WithContext(ctx).Create(donation).Error
}

// GetByID fetches a single donation.
func (s *DonationService) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	err := s.db.WithContext(ctx).First(&donation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &donation, nil
}

// ListAll returns every donation, newest first.
func (s *DonationService) ListAll(ctx context.Context) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&donations).Error
	return donations, err
}

// SetGatewayTransaction writes the processor transaction id back onto a
// kakaopay donation after the ready call succeeded.
func (s *DonationService) SetGatewayTransaction(ctx context.Context, id, tid string) error {
	res := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ? AND payment_method = ?", id, models.PaymentMethodKakaoPay).
		Update("kakaopay_tid", tid)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// ConfirmDeposit flips a pending bank-transfer donation to completed and
// records who confirmed it and when. The precondition check and the write
// are a single conditional UPDATE so two concurrent confirmations cannot
// both succeed.
func (s *DonationService) ConfirmDeposit(ctx context.Context, id, confirmedBy string) (*models.Donation, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ? AND payment_method = ? AND status = ?",
			id, models.PaymentMethodBankTransfer, models.DonationStatusPending).
		Updates(map[string]interface{}{
			"status":               models.DonationStatusCompleted,
			"deposit_confirmed_at": now,
			"deposit_confirmed_by": confirmedBy,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish unknown id from wrong method/status
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidDonationState
	}
	return s.GetByID(ctx, id)
}

// CompleteGatewayPayment flips a pending kakaopay donation to completed.
// Returns gorm.ErrRecordNotFound semantics via ErrDonationNotFound, and
// ErrInvalidDonationState when the row exists but is not pending.
func (s *DonationService) CompleteGatewayPayment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Donation{}).
		Where("id = ? AND payment_method = ? AND status = ?",
			id, models.PaymentMethodKakaoPay, models.DonationStatusPending).
		Update("status", models.DonationStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInvalidDonationState
	}
	return nil
}

// ListEligibleForReceipts returns the subset of the given ids that may be
// issued a tax receipt: completed donations with receipt_required set.
func (s *DonationService) ListEligibleForReceipts(ctx context.Context, ids []string) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ? AND receipt_required = ?",
			ids, models.DonationStatusCompleted, true).
		Order("created_at desc").
		Find(&donations).Error
	return donations, err
}

// DonationStats aggregates the numbers shown on the admin dashboard.
type DonationStats struct {
	TotalCount          int64 `json:"total_count"`
	CompletedCount      int64 `json:"completed_count"`
	CompletedAmount     int64 `json:"completed_amount"`
	PendingBankTransfer int64 `json:"pending_bank_transfer"`
	KakaoPayCount       int64 `json:"kakaopay_count"`
	BankTransferCount   int64 `json:"bank_transfer_count"`
}

// Stats computes donation aggregates across all records.
func (s *DonationService) Stats(ctx context.Context) (*DonationStats, error) {
	stats := &DonationStats{}
	db := s.db.WithContext(ctx).Model(&models.Donation{})

	if err := db.Session(&gorm.Session{}).Count(&stats.TotalCount).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("status = ?", models.DonationStatusCompleted).
		Count(&stats.CompletedCount).Error; err != nil {
		return nil, err
	}

	var totalAmount struct{ Total int64 }
	if err := db.Session(&gorm.Session{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.DonationStatusCompleted).
		Scan(&totalAmount).Error; err != nil {
		return nil, err
	}
	stats.CompletedAmount = totalAmount.Total

	if err := db.Session(&gorm.Session{}).
		Where("status = ? AND payment_method = ?",
			models.DonationStatusPending, models.PaymentMethodBankTransfer).
		Count(&stats.PendingBankTransfer).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("payment_method = ?", models.PaymentMethodKakaoPay).
		Count(&stats.KakaoPayCount).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("payment_method = ?", models.PaymentMethodBankTransfer).
		Count(&stats.BankTransferCount).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
