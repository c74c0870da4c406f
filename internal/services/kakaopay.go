package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const kakaoPayDefaultBaseURL = "https://open-api.kakaopay.com"

// KakaoPayService encapsulates the HTTP handshake with the KakaoPay open API.
type KakaoPayService struct {
	cid        string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewKakaoPayService creates the gateway client. Empty credentials leave the
// client constructible but every call returns ErrNotConfigured.
func NewKakaoPayService(cid, secretKey string) *KakaoPayService {
	return &KakaoPayService{
		cid:       cid,
		secretKey: secretKey,
		baseURL:   kakaoPayDefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (s *KakaoPayService) SetBaseURL(url string) {
	s.baseURL = strings.TrimRight(url, "/")
}

// KakaoPayReadyRequest holds the parameters for the ready phase.
type KakaoPayReadyRequest struct {
	OrderID     string
	DonationID  string
	ItemName    string
	Amount      int64
	ApprovalURL string
	CancelURL   string
	FailURL     string
}

// KakaoPayReadyResponse is the processor's answer to a ready call.
type KakaoPayReadyResponse struct {
	TID                   string `json:"tid"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
}

// KakaoPayApproveRequest holds the parameters for the approve phase.
type KakaoPayApproveRequest struct {
	TID        string
	OrderID    string
	DonationID string
	PgToken    string
}

// KakaoPayApproveResponse is the processor's answer to an approve call.
type KakaoPayApproveResponse struct {
	AID        string `json:"aid"`
	TID        string `json:"tid"`
	ApprovedAt string `json:"approved_at"`
}

type kakaoPayErrorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Ready registers the payment with the processor and returns the transaction
// id plus the redirect URLs the donor must be sent to.
func (s *KakaoPayService) Ready(ctx context.Context, req KakaoPayReadyRequest) (*KakaoPayReadyResponse, error) {
	if s.cid == "" || s.secretKey == "" {
		return nil, ErrNotConfigured
	}

	body := map[string]interface{}{
		"cid":              s.cid,
		"partner_order_id": req.OrderID,
		"partner_user_id":  req.DonationID,
		"item_name":        req.ItemName,
		"quantity":         1,
		"total_amount":     req.Amount,
		"tax_free_amount":  0,
		"approval_url":     req.ApprovalURL,
		"cancel_url":       req.CancelURL,
		"fail_url":         req.FailURL,
	}

	var resp KakaoPayReadyResponse
	if err := s.post(ctx, "/online/v1/payment/ready", body, &resp); err != nil {
		return nil, err
	}
	if resp.TID == "" {
		return nil, &UpstreamError{Service: "kakaopay", Message: "ready response missing tid"}
	}
	return &resp, nil
}

// Approve finalizes the charge after the donor confirmed at the processor.
func (s *KakaoPayService) Approve(ctx context.Context, req KakaoPayApproveRequest) (*KakaoPayApproveResponse, error) {
	if s.cid == "" || s.secretKey == "" {
		return nil, ErrNotConfigured
	}

	body := map[string]interface{}{
		"cid":              s.cid,
		"tid":              req.TID,
		"partner_order_id": req.OrderID,
		"partner_user_id":  req.DonationID,
		"pg_token":         req.PgToken,
	}

	var resp KakaoPayApproveResponse
	if err := s.post(ctx, "/online/v1/payment/approve", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *KakaoPayService) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "SECRET_KEY "+s.secretKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return &UpstreamError{Service: "kakaopay", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Service: "kakaopay", Message: "read response: " + err.Error()}
	}

	// The processor reports some failures as a non-zero code inside a 200
	// body; both shapes are rejected here.
	var errBody kakaoPayErrorBody
	_ = json.Unmarshal(raw, &errBody)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || errBody.Code != 0 {
		msg := errBody.Msg
		if msg == "" {
			if errBody.Code != 0 {
				msg = fmt.Sprintf("processor returned code %d", errBody.Code)
			} else {
				msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
			}
		}
		return &UpstreamError{Service: "kakaopay", Code: errBody.Code, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &UpstreamError{Service: "kakaopay", Message: "decode response: " + err.Error()}
	}
	return nil
}
