// Package webhook implements the platform ingress adapters: signature
// verification, payload normalization, and reply delivery for Messenger and
// WhatsApp.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ValidSignature verifies a platform webhook signature header of the form
// "sha256=<hex>" against the raw request body. Comparison is constant-time.
func ValidSignature(body []byte, secret, header string) bool {
	if secret == "" || header == "" {
		return false
	}

	digest, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign computes the signature header value for a body, as the platform
// would. Used by tests and by the local delivery simulator.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
