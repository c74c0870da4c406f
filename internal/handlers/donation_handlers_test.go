package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDonationPayload() map[string]interface{} {
	return map[string]interface{}{
		"lecture_title": "환경과 행복",
		"amount":        30000,
		"name":          "홍길동",
		"phone":         "010-1234-5678",
		"email":         "hong@example.com",
	}
}

func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/online/v1/payment/ready":
			json.NewEncoder(w).Encode(map[string]string{
				"tid":                      "T9999",
				"next_redirect_pc_url":     "https://pay.example.com/pc",
				"next_redirect_mobile_url": "https://pay.example.com/mobile",
			})
		case "/online/v1/payment/approve":
			json.NewEncoder(w).Encode(map[string]string{"aid": "A1", "tid": "T9999"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSubmitBankTransferEndpoint(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.request(t, http.MethodPost, "/api/donations/bank-transfer",
		validDonationPayload(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "홍길동5678", body["deposit_name_format"])
}

func TestSubmitBankTransferEndpoint_Validation(t *testing.T) {
	app := newTestApp(t, "")

	payload := validDonationPayload()
	payload["amount"] = 500

	rec := app.request(t, http.MethodPost, "/api/donations/bank-transfer", payload, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "1000원")
}

func TestSubmitBankTransferEndpoint_BadJSON(t *testing.T) {
	app := newTestApp(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/donations/bank-transfer", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	// empty body binds to the zero request, which fails validation
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestKakaoPayEndpoints(t *testing.T) {
	srv := fakeGateway(t)
	defer srv.Close()
	app := newTestApp(t, srv.URL)

	rec := app.request(t, http.MethodPost, "/api/donations/kakaopay/ready",
		validDonationPayload(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ready := decodeJSON(t, rec)
	assert.Equal(t, "T9999", ready["tid"])
	assert.Equal(t, "https://pay.example.com/pc", ready["next_redirect_pc_url"])
	assert.Equal(t, "https://pay.example.com/mobile", ready["next_redirect_mobile_url"])
	donationID, _ := ready["donation_id"].(string)
	require.NotEmpty(t, donationID)

	rec = app.request(t, http.MethodPost, "/api/donations/kakaopay/approve",
		map[string]string{"donation_id": donationID, "pg_token": "tok-1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeJSON(t, rec)["success"])
}

func TestApproveEndpoint_UnknownDonation(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.request(t, http.MethodPost, "/api/donations/kakaopay/approve",
		map[string]string{"donation_id": "11111111-1111-1111-1111-111111111111", "pg_token": "tok"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveEndpoint_MissingToken(t *testing.T) {
	app := newTestApp(t, "")

	rec := app.request(t, http.MethodPost, "/api/donations/kakaopay/approve",
		map[string]string{"donation_id": "some-id"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
