package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/zap"

	"donation_app_echo/internal/crypto"
	"donation_app_echo/internal/models"
)

// maskedResidentNumber is rendered when a stored blob cannot be decrypted.
const maskedResidentNumber = "(암호화됨)"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9가-힣]`)

// ReceiptOptions selects the side effects and packaging of a generation run.
type ReceiptOptions struct {
	// SendEmail attaches the receipt to a donor email; single-receipt mode only.
	SendEmail bool
	// Archive packs multiple receipts into one zip stream.
	Archive bool
}

// ReceiptOutput is a ready-to-serve download.
type ReceiptOutput struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ReceiptService renders tax-deduction receipts for completed,
// receipt-flagged donations.
type ReceiptService struct {
	donations       *DonationService
	cipher          *crypto.Cipher
	email           *EmailService
	orgName         string
	orgUniqueNumber string
	logger          *zap.SugaredLogger
}

func NewReceiptService(
	donations *DonationService,
	cipher *crypto.Cipher,
	email *EmailService,
	orgName, orgUniqueNumber string,
	logger *zap.SugaredLogger,
) *ReceiptService {
	return &ReceiptService{
		donations:       donations,
		cipher:          cipher,
		email:           email,
		orgName:         orgName,
		orgUniqueNumber: orgUniqueNumber,
		logger:          logger,
	}
}

// Generate renders receipts for the eligible subset of the given ids.
// Ineligible ids are silently dropped; an empty eligible set is an error.
func (s *ReceiptService) Generate(ctx context.Context, ids []string, opts ReceiptOptions) (*ReceiptOutput, error) {
	if len(ids) == 0 {
		return nil, NewValidationError("ids required")
	}

	donations, err := s.donations.ListEligibleForReceipts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(donations) == 0 {
		return nil, ErrNoEligibleDonations
	}

	if opts.Archive && len(donations) > 1 {
		data, err := s.buildArchive(donations)
		if err != nil {
			return nil, err
		}
		return &ReceiptOutput{
			Data:        data,
			ContentType: "application/zip",
			Filename:    "receipts.zip",
		}, nil
	}

	donation := donations[0]
	pdf, err := s.buildReceiptPDF(&donation)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("receipt_%s.pdf", sanitizeFilename(donation.Name))

	if opts.SendEmail && donation.Email != "" {
		subject := fmt.Sprintf("[%s] 영수증", s.orgName)
		body := fmt.Sprintf("<p>%s님, 기부금 영수증을 첨부합니다.</p>", donation.Name)
		if err := s.email.SendEmailWithAttachment(donation.Email, subject, body, filename, pdf); err != nil {
			s.logger.Errorw("failed to email receipt",
				"donation_id", donation.ID, "error", err)
		}
	}

	return &ReceiptOutput{
		Data:        pdf,
		ContentType: "application/pdf",
		Filename:    filename,
	}, nil
}

func (s *ReceiptService) buildArchive(donations []models.Donation) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i := range donations {
		donation := &donations[i]
		pdf, err := s.buildReceiptPDF(donation)
		if err != nil {
			return nil, fmt.Errorf("render receipt for %s: %w", donation.ID, err)
		}

		entryName := fmt.Sprintf("receipt_%s_%s.pdf",
			sanitizeFilename(donation.Name), shortID(donation.ID))
		w, err := zw.Create(entryName)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(pdf); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildReceiptPDF renders the fixed single-page tax receipt.
func (s *ReceiptService) buildReceiptPDF(donation *models.Donation) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(20).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(16,
		col.New(12).Add(
			text.New("기 부 금 영 수 증", props.Text{
				Size:  22,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
		),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRow(20,
		col.New(12).Add(
			text.New(fmt.Sprintf("단체명: %s", s.orgName), props.Text{
				Size:  11,
				Align: align.Left,
			}),
			text.New(s.orgNumberLine(), props.Text{
				Size:  11,
				Top:   6,
				Align: align.Left,
			}),
			text.New(fmt.Sprintf("발급일: %s", time.Now().Format("2006-01-02")), props.Text{
				Size:  11,
				Top:   12,
				Align: align.Left,
			}),
		),
	)

	m.AddRow(8,
		col.New(12).Add(
			text.New("기부자 정보", props.Text{
				Size:  13,
				Style: fontstyle.Bold,
				Align: align.Left,
			}),
		),
	)

	rows := []struct {
		label string
		value string
	}{
		{"성명", donation.Name},
		{"주민번호", s.residentNumberLine(donation)},
		{"기부금액", formatWon(donation.Amount) + "원"},
		{"기부일자", donation.CreatedAt.Format("2006-01-02")},
		{"적요", donation.LectureTitle},
	}
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		m.AddRow(7,
			col.New(3).Add(
				text.New(r.label, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Left}),
			),
			col.New(9).Add(
				text.New(r.value, props.Text{Size: 11, Align: align.Left}),
			),
		)
	}

	m.AddRow(4, line.NewCol(12))

	m.AddRow(10,
		col.New(12).Add(
			text.New("위 기부금을 영수증합니다.", props.Text{
				Size:  11,
				Align: align.Left,
			}),
		),
	)
	m.AddRow(16,
		col.New(12).Add(
			text.New(s.orgName, props.Text{
				Size:  11,
				Align: align.Right,
			}),
			text.New("대표자 (인)", props.Text{
				Size:  9,
				Top:   7,
				Align: align.Right,
			}),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func (s *ReceiptService) orgNumberLine() string {
	if s.orgUniqueNumber == "" {
		return ""
	}
	return fmt.Sprintf("고유번호: %s", s.orgUniqueNumber)
}

// residentNumberLine decrypts the stored prefix for partial disclosure. A
// blob that no longer opens degrades to a masked placeholder instead of
// failing the whole receipt.
func (s *ReceiptService) residentNumberLine(donation *models.Donation) string {
	if donation.ResidentNumberEncrypted == nil {
		return ""
	}
	prefix, err := s.cipher.Open(*donation.ResidentNumberEncrypted)
	if err != nil {
		if !errors.Is(err, crypto.ErrDecryption) {
			s.logger.Errorw("unexpected decryption failure",
				"donation_id", donation.ID, "error", err)
		}
		return maskedResidentNumber
	}
	return prefix + "*******"
}

func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
