package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"donation_app_echo/internal/models"
)

func TestFormatWon(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{30000, "30,000"},
		{1234567, "1,234,567"},
		{-50000, "-50,000"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatWon(tc.amount))
	}
}

func TestNotificationRender(t *testing.T) {
	svc := NewNotificationService(nil, "에코행복연구소 자유후원", zap.NewNop().Sugar())
	donation := &models.Donation{
		LectureTitle: "환경과 행복",
		Amount:       30000,
		Name:         "홍길동",
		Email:        "hong@example.com",
	}

	t.Run("deposit confirmed", func(t *testing.T) {
		subject, body, err := svc.render(donation, NotificationDepositConfirmed)
		require.NoError(t, err)
		assert.Equal(t, "[에코행복연구소 자유후원] 기부금 입금 확인 - 30,000원", subject)
		assert.Contains(t, body, "입금이 확인되었습니다")
		assert.Contains(t, body, "홍길동님")
		assert.Contains(t, body, "확인일시")
	})

	t.Run("payment completed", func(t *testing.T) {
		subject, body, err := svc.render(donation, NotificationPaymentCompleted)
		require.NoError(t, err)
		assert.Equal(t, "[에코행복연구소 자유후원] 기부금 결제 완료 - 30,000원", subject)
		assert.Contains(t, body, "결제일시")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, _, err := svc.render(donation, NotificationKind("bogus"))
		assert.Error(t, err)
	})
}

func TestDonationCompleted_NoEmail(t *testing.T) {
	svc := NewNotificationService(nil, "org", zap.NewNop().Sugar())

	// no email address: nothing is dispatched and nothing panics
	svc.DonationCompleted(&models.Donation{Name: "홍길동"}, NotificationDepositConfirmed)
}
