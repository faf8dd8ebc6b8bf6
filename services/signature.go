package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHmacSHA256 returns the lowercase hex HMAC-SHA256 of message.
func SignHmacSHA256(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// SignatureVerifier checks gateway signatures. It never touches the ledger.
type SignatureVerifier struct {
	keySecret     string
	webhookSecret string
}

func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{keySecret: keySecret, webhookSecret: webhookSecret}
}

// PaymentSignature is what the gateway signs on checkout completion.
func (v *SignatureVerifier) PaymentSignature(gatewayOrderID, gatewayPaymentID string) string {
	return SignHmacSHA256(gatewayOrderID+"|"+gatewayPaymentID, v.keySecret)
}

func (v *SignatureVerifier) Verify(gatewayOrderID, gatewayPaymentID, claimed string) bool {
	expected := v.PaymentSignature(gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(claimed))
}

// VerifyWebhook checks the signature over a raw webhook body. An unset webhook
// secret rejects everything.
func (v *SignatureVerifier) VerifyWebhook(body []byte, claimed string) bool {
	if v.webhookSecret == "" {
		return false
	}
	expected := SignHmacSHA256(string(body), v.webhookSecret)
	return hmac.Equal([]byte(expected), []byte(claimed))
}
