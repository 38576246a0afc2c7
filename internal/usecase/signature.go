package usecase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/finovo/bankcore/internal/domain"
)

// signHMAC returns the lowercase hex HMAC-SHA256 of payload under secret.
func signHMAC(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyHMAC compares signature with the expected HMAC in constant time.
func verifyHMAC(secret string, payload []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := signHMAC(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CheckoutSignature returns the signature the gateway issues for a completed
// checkout: HMAC-SHA256 of "order_id|payment_id" under the key secret.
func CheckoutSignature(keySecret, orderID, paymentID string) string {
	return signHMAC(keySecret, []byte(orderID+"|"+paymentID))
}

// WebhookSignature returns the signature the gateway sends with a webhook body.
func WebhookSignature(webhookSecret string, body []byte) string {
	return signHMAC(webhookSecret, body)
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
			} `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func decodeWebhook(body []byte) (domain.WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.WebhookEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedWebhook, err)
	}

	ev := domain.WebhookEvent{Event: env.Event}
	if p := env.Payload.Payment; p != nil {
		ev.PaymentID = p.Entity.ID
		ev.OrderID = p.Entity.OrderID
		ev.Amount = p.Entity.Amount
	}
	if o := env.Payload.Order; o != nil && ev.OrderID == "" {
		ev.OrderID = o.Entity.ID
		ev.Amount = o.Entity.Amount
	}

	if ev.Event == "" {
		return domain.WebhookEvent{}, fmt.Errorf("%w: missing event", domain.ErrMalformedWebhook)
	}
	return ev, nil
}
