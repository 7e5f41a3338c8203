package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWalletGateway_InitiatePayment(t *testing.T) {
	const secret = "wallet-secret"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/checkout", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, walletSign(secret, body), r.Header.Get("X-Wallet-Signature"))

		req := struct {
			OrderID  string `json:"order_id"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}{}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "order-1", req.OrderID)
		assert.Equal(t, int64(3184), req.Amount)
		assert.Equal(t, "usd", req.Currency)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"checkout_url":   "https://wallet.example/pay/abc",
			"transaction_id": "wtx-1",
		})
	}))
	defer server.Close()

	gw := NewWalletGateway(server.URL, secret, "usd")

	result, err := gw.InitiatePayment(context.Background(), InitiateRequest{
		OrderID:  "order-1",
		Amount:   3184,
		Currency: "usd",
		Buyer:    Buyer{Name: "Ana", Email: "ana@example.com"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://wallet.example/pay/abc", result.RedirectURL)
	assert.Equal(t, "wtx-1", result.TransactionID)
}

func TestWalletGateway_InitiatePayment_ProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gw := NewWalletGateway(server.URL, "wallet-secret", "usd")

	_, err := gw.InitiatePayment(context.Background(), InitiateRequest{OrderID: "order-1", Amount: 100})
	require.ErrorIs(t, err, models.ErrGatewayUnavailable)
}

func TestWalletGateway_VerifyWebhook(t *testing.T) {
	gw := NewWalletGateway("http://wallet.local", "wallet-secret", "usd")
	payload := []byte(`{"event":"payment.succeeded"}`)

	assert.True(t, gw.VerifyWebhook(payload, walletSign("wallet-secret", payload)))
	assert.False(t, gw.VerifyWebhook(payload, walletSign("other-secret", payload)))
	assert.False(t, gw.VerifyWebhook(payload, "not-hex!"))
	assert.False(t, gw.VerifyWebhook(payload, ""))
}

func TestWalletGateway_DecodeWebhook(t *testing.T) {
	gw := NewWalletGateway("http://wallet.local", "wallet-secret", "usd")

	tests := []struct {
		name       string
		payload    string
		wantKind   EventKind
		wantReason string
		wantErr    bool
	}{
		{
			name:     "succeeded",
			payload:  `{"event":"payment.succeeded","order_id":"o1","transaction_id":"wtx-1"}`,
			wantKind: EventSucceeded,
		},
		{
			name:       "failed_with_reason",
			payload:    `{"event":"payment.failed","order_id":"o1","reason":"insufficient funds"}`,
			wantKind:   EventFailed,
			wantReason: "insufficient funds",
		},
		{
			name:       "pending_gets_default_reason",
			payload:    `{"event":"payment.pending","order_id":"o1"}`,
			wantKind:   EventDeferred,
			wantReason: "awaiting bank-side confirmation",
		},
		{
			name:       "authorized_maps_to_pending_capture",
			payload:    `{"event":"payment.authorized","order_id":"o1"}`,
			wantKind:   EventApprovedPending,
			wantReason: "approved, awaiting capture",
		},
		{
			name:    "unknown_event",
			payload: `{"event":"payment.refunded","order_id":"o1"}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			payload: `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := gw.DecodeWebhook([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, event.Kind)
			assert.Equal(t, "o1", event.OrderID)
			assert.Equal(t, tt.wantReason, event.Reason)
		})
	}
}

func TestManualGateway(t *testing.T) {
	gw := NewManualGateway("https://shop.example/proof")

	result, err := gw.InitiatePayment(context.Background(), InitiateRequest{OrderID: "order-9"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://shop.example/proof?order=order-9", result.RedirectURL)

	assert.False(t, gw.VerifyWebhook([]byte(`{}`), "any"))

	_, err = gw.DecodeWebhook([]byte(`{}`))
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	wallet := NewWalletGateway("http://wallet.local", "s", "usd")
	manual := NewManualGateway("https://shop.example/proof")
	registry := NewRegistry(wallet, manual)

	gw, ok := registry.Get(NameWallet)
	require.True(t, ok)
	assert.Equal(t, NameWallet, gw.Name())

	gw, ok = registry.Get(NameManual)
	require.True(t, ok)
	assert.Equal(t, "", gw.SignatureHeader())

	_, ok = registry.Get("cash")
	assert.False(t, ok)
}
