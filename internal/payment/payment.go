// Package payment wraps the Razorpay gateway: order creation before
// client-side capture, and the HMAC signature check on the callback.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway creates a gateway-side order handle for hosted checkout.
// Amount is in minor currency units (paise).
type Gateway interface {
	CreateOrder(amountPaise int64, currency, receipt string) (string, error)
}

type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, secret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, secret)}
}

func (g *RazorpayGateway) CreateOrder(amountPaise int64, currency, receipt string) (string, error) {
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: response missing id")
	}
	return id, nil
}

// Sign computes hex(HMAC-SHA256(secret, orderID + "|" + paymentID)), the
// value the gateway hands the client after capture.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a client-supplied signature in constant time.
// This is the trust boundary: only the server and the gateway hold the
// secret, so a matching signature proves the callback is genuine.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	want := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(want), []byte(signature))
}
