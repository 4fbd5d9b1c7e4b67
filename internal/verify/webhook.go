package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the provider's HMAC signature on webhook deliveries.
const SignatureHeader = "X-Verify-Signature"

// WebhookVerifier validates that an inbound callback was produced by the
// provider sharing our webhook secret. Every callback must pass this check
// before any state is touched.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier builds a verifier for the shared webhook secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify reports whether signature is a valid hex-encoded HMAC-SHA256 of the
// raw request body. Comparison is constant time.
func (v *WebhookVerifier) Verify(signature string, body []byte) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(v.Sign(body)))
}

// Sign computes the signature the provider is expected to send for body.
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
