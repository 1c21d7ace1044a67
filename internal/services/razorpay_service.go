package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"instaviz/internal/common"
)

// RazorpayService wraps the payment gateway's order API and signature
// verification.
type RazorpayService interface {
	CreateOrder(ctx context.Context, req *RazorpayOrderRequest) (*RazorpayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// RazorpayOrderRequest is the outbound order-creation payload. Amount
// is in minor units (paise/cents).
type RazorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayOrder is the gateway's order entity.
type RazorpayOrder struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type razorpayErrorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type razorpayService struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

// NewRazorpayService creates a new Razorpay service instance.
func NewRazorpayService(keyID, keySecret, baseURL string) RazorpayService {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1"
	}
	return &razorpayService{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrder creates an order via the Razorpay orders API. Any
// transport or application failure surfaces as an UpstreamError; there
// is no local fallback and retry is the caller's responsibility.
func (s *razorpayService) CreateOrder(ctx context.Context, orderReq *RazorpayOrderRequest) (*RazorpayOrder, error) {
	if s.keyID == "" || s.keySecret == "" {
		return nil, &common.UpstreamError{Service: "razorpay", Message: "gateway keys are missing"}
	}

	body, err := json.Marshal(orderReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &common.UpstreamError{Service: "razorpay", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.UpstreamError{Service: "razorpay", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody razorpayErrorBody
		_ = json.Unmarshal(data, &errBody)
		msg := errBody.Error.Description
		if msg == "" {
			msg = fmt.Sprintf("order creation failed with status %d", resp.StatusCode)
		}
		return nil, &common.UpstreamError{Service: "razorpay", Code: resp.StatusCode, Message: msg}
	}

	order := &RazorpayOrder{}
	if err := json.Unmarshal(data, order); err != nil {
		return nil, &common.UpstreamError{Service: "razorpay", Err: err}
	}
	return order, nil
}

// VerifyPaymentSignature checks the checkout signature: HMAC-SHA256
// over "orderID|paymentID" keyed with the key secret. Comparison is
// constant time.
func (s *razorpayService) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
