package flutterwave

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vendor-invoicing/config"
	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.GatewayConfig{
		BaseURL:   srv.URL,
		SecretKey: "FLWSECK_TEST-secret",
		Timeout:   2 * time.Second,
	}
	return NewClient(cfg, srv.Client(), metrics.New(prometheus.NewRegistry()), zerolog.Nop())
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions/4521/verify", r.URL.Path)
		assert.Equal(t, "Bearer FLWSECK_TEST-secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "success",
			"message": "Transaction fetched successfully",
			"data": {
				"id": 4521,
				"tx_ref": "FLW-TRE-550e8400-e29b-41d4-a716-446655440000",
				"amount": 5000.50,
				"currency": "NGN",
				"status": "successful",
				"customer": {"name": "Tunde Client", "email": "tunde@example.com"}
			}
		}`)
	})

	got, err := client.VerifyTransaction(context.Background(), "4521")
	require.NoError(t, err)

	assert.Equal(t, "4521", got.ID)
	assert.True(t, got.Successful())
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("5000.5")))
	assert.Equal(t, "FLW-TRE-550e8400-e29b-41d4-a716-446655440000", got.TxRef)
	assert.Equal(t, "Tunde Client", got.CustomerName)
}

func TestGetTransfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfers/987", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","message":"ok","data":{"id":987,"reference":"WDR-01J","amount":"250","status":"SUCCESSFUL"}}`)
	})

	got, err := client.GetTransfer(context.Background(), "987")
	require.NoError(t, err)
	assert.Equal(t, "987", got.ID)
	assert.Equal(t, "WDR-01J", got.Reference)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(250)))
	assert.True(t, got.Succeeded())
}

func TestInitiateTransfer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transfers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "044", body["account_bank"])
		assert.Equal(t, "0690000040", body["account_number"])
		assert.Equal(t, 1500.25, body["amount"])
		assert.Equal(t, "NGN", body["currency"])
		assert.Equal(t, "WDR-01J", body["reference"])

		_, _ = io.WriteString(w, `{"status":"success","message":"Transfer Queued Successfully","data":{"id":190626,"reference":"WDR-01J","amount":1500.25,"status":"NEW"}}`)
	})

	ack, err := client.InitiateTransfer(context.Background(), domain.TransferRequest{
		BankCode:      "044",
		AccountNumber: "0690000040",
		Amount:        decimal.RequireFromString("1500.25"),
		Currency:      "NGN",
		Narration:     "Vendor wallet withdrawal",
		Reference:     "WDR-01J",
	})
	require.NoError(t, err)
	assert.Equal(t, "190626", ack.ID)
	assert.True(t, ack.Accepted())
}

func TestVerifyBankAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/resolve", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","message":"Account details fetched","data":{"account_number":"0690000032","account_name":"Pastor Bright"}}`)
	})

	acct, err := client.VerifyBankAccount(context.Background(), "0690000032", "044")
	require.NoError(t, err)
	assert.Equal(t, "Pastor Bright", acct.AccountName)
	assert.Equal(t, "044", acct.BankCode)
}

func TestListBanks_SortedByName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/banks/NG", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","message":"Banks fetched","data":[
			{"id":3,"code":"058","name":"GTBank Plc"},
			{"id":1,"code":"044","name":"Access Bank"},
			{"id":2,"code":"023","name":"citibank"}
		]}`)
	})

	banks, err := client.ListBanks(context.Background(), "ng")
	require.NoError(t, err)
	require.Len(t, banks, 3)
	assert.Equal(t, "Access Bank", banks[0].Name)
	assert.Equal(t, "citibank", banks[1].Name)
	assert.Equal(t, "GTBank Plc", banks[2].Name)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":"error","message":"No transaction was found for this id","data":null}`)
	})

	_, err := client.VerifyTransaction(context.Background(), "missing")
	require.Error(t, err)

	var gwErr *ports.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Equal(t, "verify_transaction", gwErr.Op)
	assert.True(t, gwErr.Rejected())
	assert.Contains(t, gwErr.Message, "No transaction")
}

func TestClient_ServerErrorWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetTransfer(context.Background(), "1")

	var gwErr *ports.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.False(t, gwErr.Rejected())
	assert.Equal(t, "Bad Gateway", gwErr.Message)
}

func TestClient_ErrorEnvelopeOn200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"Insufficient balance","data":null}`)
	})

	_, err := client.InitiateTransfer(context.Background(), domain.TransferRequest{Amount: decimal.NewFromInt(100)})

	var gwErr *ports.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Insufficient balance", gwErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient(config.GatewayConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client(), nil, zerolog.Nop())

	_, err := client.VerifyTransaction(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrGatewayTimeout)
}

func TestClient_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	_, err := client.ListBanks(context.Background(), "NG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
