package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment returns the hex HMAC-SHA256 the gateway attaches to a
// completed payment for orderID and paymentID.
func SignPayment(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether claimed is the gateway signature for the
// order/payment pair. Malformed input is a mismatch, never an error, and the
// comparison is constant time.
func VerifySignature(orderID, paymentID, claimed, secret string) bool {
	if secret == "" || orderID == "" || paymentID == "" {
		return false
	}

	claimedMAC, err := hex.DecodeString(claimed)
	if err != nil || len(claimedMAC) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hmac.Equal(mac.Sum(nil), claimedMAC)
}
