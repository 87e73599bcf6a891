package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries an HMAC-SHA256 of the request body, keyed with the
// webhook secret, when signatures are enabled.
const SignatureHeader = "X-Webhook-Signature-256"

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature (with or without the sha256= scheme) matches payload.
func Verify(secret string, payload []byte, signature string) bool {
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(signature))
}
