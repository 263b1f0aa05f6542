package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"cryptocasino-backend/internal/config"
)

// WebhookVerifier authenticates inbound payment notifications. Two
// distinct secrets are in play: the Commerce shared secret for
// /commerce-notification and the Coinbase API secret for /send-money.
// Verification runs over the raw request bytes as received, never over a
// re-serialization, and the comparison is constant time.
type WebhookVerifier struct {
	commerceSecret []byte
	apiSecret      []byte
}

func NewWebhookVerifier(cfg *config.Config) *WebhookVerifier {
	return &WebhookVerifier{
		commerceSecret: []byte(cfg.CommerceAPISecret),
		apiSecret:      []byte(cfg.CoinbaseAPISecret),
	}
}

func (v *WebhookVerifier) VerifyCommerce(rawBody []byte, signature string) bool {
	return verifySignature(v.commerceSecret, rawBody, signature)
}

func (v *WebhookVerifier) VerifySendMoney(rawBody []byte, signature string) bool {
	return verifySignature(v.apiSecret, rawBody, signature)
}

func verifySignature(secret, rawBody []byte, signature string) bool {
	claimed, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(claimed) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(rawBody)
	return hmac.Equal(claimed, mac.Sum(nil))
}
