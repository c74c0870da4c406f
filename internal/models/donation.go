package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod represents how a donation is settled
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodKakaoPay     PaymentMethod = "kakaopay"
)

// DonationStatus represents the lifecycle state of a donation
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
	DonationStatusCancelled DonationStatus = "cancelled"
)

// MinDonationAmount is the minimum accepted pledge in whole won
const MinDonationAmount = 1000

// Donation represents one pledge/payment attempt
type Donation struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	LectureTitle       string         `gorm:"type:varchar(255);not null" json:"lecture_title"`
	LectureDescription *string        `gorm:"type:text" json:"lecture_description,omitempty"`
	Amount             int64          `gorm:"not null" json:"amount"`
	PaymentMethod      PaymentMethod  `gorm:"type:varchar(20);not null;index" json:"payment_method"`
	Status             DonationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	// Gateway correlation, populated only for kakaopay donations
	KakaoPayTID     string `gorm:"column:kakaopay_tid;type:varchar(100)" json:"kakaopay_tid,omitempty"`
	KakaoPayOrderID string `gorm:"column:kakaopay_order_id;type:varchar(100);index" json:"kakaopay_order_id,omitempty"`

	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Phone string `gorm:"type:varchar(50);not null" json:"phone"`
	Email string `gorm:"type:varchar(255);not null" json:"email"`

	ReceiptRequired bool `gorm:"not null;default:false" json:"receipt_required"`
	// Encrypted resident number prefix; the plaintext never reaches storage
	ResidentNumberEncrypted *string `gorm:"type:text" json:"-"`

	// Bank transfer only: the payer name the donor must use at their bank
	DepositNameFormat  *string    `gorm:"type:varchar(300)" json:"deposit_name_format,omitempty"`
	DepositConfirmedAt *time.Time `json:"deposit_confirmed_at,omitempty"`
	DepositConfirmedBy *string    `gorm:"type:varchar(100)" json:"deposit_confirmed_by,omitempty"`
}

// BeforeCreate assigns a UUID if the donation has none yet
func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DepositNameFor derives the payer-name code a bank-transfer donor must enter:
// donor name followed by the last 4 digits of their phone number.
func DepositNameFor(name, phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	ds := digits.String()
	if len(ds) > 4 {
		ds = ds[len(ds)-4:]
	}
	return name + ds
}
