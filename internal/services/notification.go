package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"go.uber.org/zap"

	"donation_app_echo/internal/models"
)

// NotificationKind selects the email template for a state transition.
type NotificationKind string

const (
	NotificationDepositConfirmed NotificationKind = "deposit-confirmed"
	NotificationPaymentCompleted NotificationKind = "payment-completed"
)

// Notifier dispatches best-effort donor notifications. Implementations must
// never let a delivery failure reach the caller.
type Notifier interface {
	DonationCompleted(donation *models.Donation, kind NotificationKind)
}

var notificationTemplate = template.Must(template.New("notification").Parse(`
<h2>{{.Heading}}</h2>
<p>{{.Name}}님, 감사합니다.</p>
<ul>
  <li>강의: {{.LectureTitle}}</li>
  <li>금액: {{.Amount}}원</li>
  <li>{{.TimestampLabel}}: {{.Timestamp}}</li>
</ul>
`))

type notificationData struct {
	Heading        string
	Name           string
	LectureTitle   string
	Amount         string
	TimestampLabel string
	Timestamp      string
}

// NotificationService sends transactional emails on donation state changes.
// Dispatch is fire-and-forget: the email runs on its own goroutine and any
// failure is logged, never returned.
type NotificationService struct {
	email   *EmailService
	orgName string
	logger  *zap.SugaredLogger
}

func NewNotificationService(email *EmailService, orgName string, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{email: email, orgName: orgName, logger: logger}
}

// DonationCompleted notifies the donor that their donation reached the
// completed state. It returns immediately; the caller's committed state is
// never invalidated by a delivery failure.
func (s *NotificationService) DonationCompleted(donation *models.Donation, kind NotificationKind) {
	if donation.Email == "" {
		s.logger.Warnw("skipping notification, donor has no email", "donation_id", donation.ID)
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorw("notification dispatch panicked", "donation_id", donation.ID, "panic", r)
			}
		}()

		subject, body, err := s.render(donation, kind)
		if err != nil {
			s.logger.Errorw("failed to render notification", "donation_id", donation.ID, "error", err)
			return
		}

		if err := s.email.SendEmail(donation.Email, subject, body); err != nil {
			s.logger.Errorw("failed to send notification email",
				"donation_id", donation.ID, "kind", kind, "error", err)
			return
		}
		s.logger.Infow("notification sent", "donation_id", donation.ID, "kind", kind)
	}()
}

func (s *NotificationService) render(donation *models.Donation, kind NotificationKind) (string, string, error) {
	amount := formatWon(donation.Amount)
	now := time.Now().Format("2006-01-02 15:04")

	data := notificationData{
		Name:         donation.Name,
		LectureTitle: donation.LectureTitle,
		Amount:       amount,
		Timestamp:    now,
	}

	var subject string
	switch kind {
	case NotificationDepositConfirmed:
		subject = fmt.Sprintf("[%s] 기부금 입금 확인 - %s원", s.orgName, amount)
		data.Heading = "입금이 확인되었습니다"
		data.TimestampLabel = "확인일시"
	case NotificationPaymentCompleted:
		subject = fmt.Sprintf("[%s] 기부금 결제 완료 - %s원", s.orgName, amount)
		data.Heading = "기부금 결제가 완료되었습니다"
		data.TimestampLabel = "결제일시"
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

// formatWon renders an amount with thousands separators, e.g. 30000 -> "30,000".
func formatWon(amount int64) string {
	raw := strconv.FormatInt(amount, 10)
	neg := false
	if len(raw) > 0 && raw[0] == '-' {
		neg = true
		raw = raw[1:]
	}

	var buf bytes.Buffer
	lead := len(raw) % 3
	if lead > 0 {
		buf.WriteString(raw[:lead])
	}
	for i := lead; i < len(raw); i += 3 {
		if buf.Len() > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(raw[i : i+3])
	}
	if neg {
		return "-" + buf.String()
	}
	return buf.String()
}
