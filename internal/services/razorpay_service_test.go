package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignatureAcceptsValidSignature(t *testing.T) {
	service := NewRazorpayService("key_test", "secret_test", "https://api.razorpay.com")

	signature := signPayment("secret_test", "order_test123", "pay_abc")

	assert.True(t, service.VerifyPaymentSignature("order_test123", "pay_abc", signature))
}

func TestVerifyPaymentSignatureRejectsForgedSignature(t *testing.T) {
	service := NewRazorpayService("key_test", "secret_test", "https://api.razorpay.com")

	assert.False(t, service.VerifyPaymentSignature("order_test123", "pay_abc", "deadbeef"))
}

func TestVerifyPaymentSignatureRejectsWrongSecret(t *testing.T) {
	service := NewRazorpayService("key_test", "secret_test", "https://api.razorpay.com")

	signature := signPayment("some_other_secret", "order_test123", "pay_abc")

	assert.False(t, service.VerifyPaymentSignature("order_test123", "pay_abc", signature))
}

func TestVerifyPaymentSignatureBindsOrderAndPayment(t *testing.T) {
	service := NewRazorpayService("key_test", "secret_test", "https://api.razorpay.com")

	signature := signPayment("secret_test", "order_test123", "pay_abc")

	assert.False(t, service.VerifyPaymentSignature("order_other", "pay_abc", signature))
	assert.False(t, service.VerifyPaymentSignature("order_test123", "pay_other", signature))
}
