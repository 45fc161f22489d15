package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/service-clearance/internal/interfaces"
)

func TestVerifySignature(t *testing.T) {
	sig := Sign("s3cret", "order_1", "pay_1")
	assert.Len(t, sig, 64)

	assert.True(t, VerifySignature("s3cret", "order_1", "pay_1", sig))
	assert.True(t, VerifySignature("s3cret", "order_1", "pay_1", strings.ToUpper(sig)))
	assert.False(t, VerifySignature("s3cret", "order_1", "pay_2", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("s3cret", "order_1", "pay_1", ""))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var req orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, orderRequest{Amount: 150000, Currency: "INR", Receipt: "s-1", PaymentCapture: 1}, req)

		w.Write([]byte(`{"id":"order_9","amount":150000,"currency":"INR","receipt":"s-1","status":"created"}`))
	}))
	defer srv.Close()

	rp := NewRazorpay(srv.URL+"/v1", "key", "secret", srv.Client())
	order, err := rp.CreateOrder(context.Background(), 150000, "", "s-1")
	require.NoError(t, err)
	assert.Equal(t, interfaces.PaymentOrder{ID: "order_9", Amount: 150000, Currency: "INR", Receipt: "s-1"}, order)
}

func TestCreateOrder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"BAD_REQUEST_ERROR"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	rp := NewRazorpay(srv.URL, "key", "secret", srv.Client())
	_, err := rp.CreateOrder(context.Background(), 100, "INR", "s-1")
	assert.ErrorContains(t, err, "400")

	_, err = rp.CreateOrder(context.Background(), 0, "INR", "s-1")
	assert.Error(t, err)
}
