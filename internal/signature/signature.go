// Package signature implements the gateway's HMAC-SHA256 signing scheme,
// used both for the browser-redirect payment proof and for webhook bodies.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func Sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares a provided hex signature against the expected HMAC of
// message in constant time.
func Verify(secret string, message []byte, provided string) bool {
	expected := Sign(secret, message)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// PaymentMessage is the canonical string the gateway signs on the redirect
// path: "<gatewayOrderID>|<gatewayPaymentID>".
func PaymentMessage(gatewayOrderID, gatewayPaymentID string) []byte {
	return []byte(gatewayOrderID + "|" + gatewayPaymentID)
}
