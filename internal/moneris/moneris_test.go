package moneris

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateHostedCheckoutReturnsTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chkt/request/request.php", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "preload", req["action"])
		assert.Equal(t, "HR-7F3K2A", req["order_no"])
		assert.Equal(t, "79.10", req["txn_total"])

		w.Write([]byte(`{"response":{"success":"true","ticket":"abc123ticket"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "store1", "token1", "chkt1", "https://pay.example.com/display", testLogger())

	ticket, err := client.CreateHostedCheckout(context.Background(), CheckoutRequest{
		OrderNo:  "HR-7F3K2A",
		TxnTotal: "79.10",
		Name:     "Dana Whitfield",
		Email:    "dana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123ticket", ticket)
	assert.Equal(t, "https://pay.example.com/display?ticket=abc123ticket", client.CheckoutRedirectURL(ticket))
}

func TestCreateHostedCheckoutTreats200FailureAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200, but the nested success flag says otherwise.
		w.Write([]byte(`{"response":{"success":"false","error":{"order_no":"invalid"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "store1", "token1", "chkt1", "https://pay.example.com/display", testLogger())

	_, err := client.CreateHostedCheckout(context.Background(), CheckoutRequest{OrderNo: "HR-X", TxnTotal: "10.00"})

	var gateway *helpers.GatewayError
	require.ErrorAs(t, err, &gateway)
}

func TestCreateHostedCheckoutNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "store1", "token1", "chkt1", "https://pay.example.com/display", testLogger())

	_, err := client.CreateHostedCheckout(context.Background(), CheckoutRequest{OrderNo: "HR-X", TxnTotal: "10.00"})

	var upstream *helpers.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
}

func TestRefundApprovedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gateway2/servlet/MpgRequest", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "<txn_number>txn-660022</txn_number>")
		assert.Contains(t, string(body), "<order_id>HR-7F3K2A</order_id>")

		w.Write([]byte(`<?xml version="1.0"?><response><receipt><ReceiptId>HR-7F3K2A</ReceiptId><ResponseCode>027</ResponseCode><Complete>true</Complete><Message>APPROVED * =</Message></receipt></response>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "store1", "token1", "chkt1", "", testLogger())

	err := client.Refund(context.Background(), "txn-660022", "HR-7F3K2A", "79.10")
	assert.NoError(t, err)
}

func TestRefundDeclinedSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<receipt><ResponseCode>476</ResponseCode><Message>DECLINED</Message></receipt>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "store1", "token1", "chkt1", "", testLogger())

	err := client.Refund(context.Background(), "txn-1", "HR-X", "10.00")

	var gateway *helpers.GatewayError
	require.ErrorAs(t, err, &gateway)
	assert.Equal(t, "476", gateway.Code)
}

func TestRefundMalformedReceipt(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"literal null code", `<receipt><ResponseCode>null</ResponseCode></receipt>`},
		{"missing code", `<receipt><Message>something went wrong</Message></receipt>`},
		{"not xml at all", `GATEWAY UNAVAILABLE`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "store1", "token1", "chkt1", "", testLogger())

			err := client.Refund(context.Background(), "txn-1", "HR-X", "10.00")

			var gateway *helpers.GatewayError
			require.ErrorAs(t, err, &gateway)
		})
	}
}

func TestWebhookApproved(t *testing.T) {
	assert.True(t, WebhookPayload{ResponseCode: "000"}.Approved())
	assert.True(t, WebhookPayload{ResponseCode: "027"}.Approved())
	assert.False(t, WebhookPayload{ResponseCode: "476"}.Approved())
	assert.False(t, WebhookPayload{ResponseCode: "null"}.Approved())
	assert.False(t, WebhookPayload{ResponseCode: ""}.Approved())
}
