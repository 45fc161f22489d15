package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Victor-armando18/service-clearance/internal/interfaces"
)

const DefaultBaseURL = "https://api.razorpay.com/v1"

// Razorpay creates orders over the REST API and checks checkout signatures locally.
type Razorpay struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewRazorpay(baseURL, keyID, keySecret string, client *http.Client) *Razorpay {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Razorpay{baseURL: strings.TrimRight(baseURL, "/"), keyID: keyID, keySecret: keySecret, http: client}
}

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (interfaces.PaymentOrder, error) {
	if amountMinor <= 0 {
		return interfaces.PaymentOrder{}, fmt.Errorf("order amount must be positive, got %d", amountMinor)
	}
	if currency == "" {
		currency = "INR"
	}
	body, err := json.Marshal(orderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt, PaymentCapture: 1})
	if err != nil {
		return interfaces.PaymentOrder{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return interfaces.PaymentOrder{}, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return interfaces.PaymentOrder{}, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		return interfaces.PaymentOrder{}, fmt.Errorf("razorpay create order (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var order interfaces.PaymentOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return interfaces.PaymentOrder{}, fmt.Errorf("razorpay decode order: %w", err)
	}
	return order, nil
}

// VerifySignature checks the hex HMAC-SHA256 of "order_id|payment_id", ignoring case.
func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
