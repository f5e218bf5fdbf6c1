package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"vendor-invoicing/config"
	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PaymentGateway against the Flutterwave v3 REST API.
type Client struct {
	baseURL   string
	secretKey string
	timeout   time.Duration
	http      HTTPClient
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewClient builds a gateway client. httpClient may be nil.
func NewClient(cfg config.GatewayConfig, httpClient HTTPClient, m *metrics.Metrics, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		timeout:   timeout,
		http:      httpClient,
		metrics:   m,
		log:       log.With().Str("component", "flutterwave").Logger(),
	}
}

// envelope is the common response wrapper: {"status","message","data"}.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chargeData struct {
	ID       json.Number     `json:"id"`
	TxRef    string          `json:"tx_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
}

type transferData struct {
	ID        json.Number     `json:"id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

type transferPayload struct {
	AccountBank   string      `json:"account_bank"`
	AccountNumber string      `json:"account_number"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	Narration     string      `json:"narration"`
	Reference     string      `json:"reference"`
	CallbackURL   string      `json:"callback_url,omitempty"`
	DebitCurrency string      `json:"debit_currency"`
}

type resolvePayload struct {
	AccountNumber string `json:"account_number"`
	AccountBank   string `json:"account_bank"`
}

type resolveData struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// VerifyTransaction fetches the authoritative state of a card charge.
func (c *Client) VerifyTransaction(ctx context.Context, id string) (*domain.ChargeVerification, error) {
	var data chargeData
	path := "/transactions/" + url.PathEscape(id) + "/verify"
	if _, err := c.do(ctx, "verify_transaction", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return &domain.ChargeVerification{
		ID:            data.ID.String(),
		Status:        data.Status,
		Amount:        data.Amount,
		Currency:      data.Currency,
		TxRef:         data.TxRef,
		CustomerName:  data.Customer.Name,
		CustomerEmail: data.Customer.Email,
	}, nil
}

// GetTransfer fetches the authoritative state of a payout.
func (c *Client) GetTransfer(ctx context.Context, id string) (*domain.TransferDetails, error) {
	var data transferData
	if _, err := c.do(ctx, "get_transfer", http.MethodGet, "/transfers/"+url.PathEscape(id), nil, &data); err != nil {
		return nil, err
	}
	return &domain.TransferDetails{
		ID:        data.ID.String(),
		Reference: data.Reference,
		Amount:    data.Amount,
		Status:    data.Status,
	}, nil
}

// InitiateTransfer queues a payout to a bank account.
func (c *Client) InitiateTransfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferAck, error) {
	payload := transferPayload{
		AccountBank:   req.BankCode,
		AccountNumber: req.AccountNumber,
		Amount:        json.Number(req.Amount.String()),
		Currency:      req.Currency,
		Narration:     req.Narration,
		Reference:     req.Reference,
		CallbackURL:   req.CallbackURL,
		DebitCurrency: req.Currency,
	}

	var data transferData
	env, err := c.do(ctx, "initiate_transfer", http.MethodPost, "/transfers", payload, &data)
	if err != nil {
		return nil, err
	}
	return &domain.TransferAck{
		ID:            data.ID.String(),
		Status:        env.Status,
		TransferState: data.Status,
		Message:       env.Message,
	}, nil
}

// VerifyBankAccount resolves the holder name of a bank account.
func (c *Client) VerifyBankAccount(ctx context.Context, accountNumber, bankCode string) (*domain.BankAccount, error) {
	var data resolveData
	payload := resolvePayload{AccountNumber: accountNumber, AccountBank: bankCode}
	if _, err := c.do(ctx, "resolve_account", http.MethodPost, "/accounts/resolve", payload, &data); err != nil {
		return nil, err
	}
	return &domain.BankAccount{
		AccountNumber: data.AccountNumber,
		AccountName:   data.AccountName,
		BankCode:      bankCode,
	}, nil
}

// ListBanks returns the supported banks for country, sorted by name.
func (c *Client) ListBanks(ctx context.Context, country string) ([]domain.Bank, error) {
	var banks []domain.Bank
	if _, err := c.do(ctx, "list_banks", http.MethodGet, "/banks/"+url.PathEscape(strings.ToUpper(country)), nil, &banks); err != nil {
		return nil, err
	}
	sort.SliceStable(banks, func(i, j int) bool {
		return strings.ToLower(banks[i].Name) < strings.ToLower(banks[j].Name)
	})
	return banks, nil
}

// do sends one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) (*envelope, error) {
	start := time.Now()
	defer c.metrics.ObserveGatewayRequest(op, start)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.Warn().Str("op", op).Dur("timeout", c.timeout).Msg("Gateway request timed out")
			return nil, fmt.Errorf("gateway %s: %w", op, ports.ErrGatewayTimeout)
		}
		return nil, fmt.Errorf("gateway %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway %s: read response: %w", op, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.log.Warn().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("message", msg).
			Msg("Gateway returned non-success status")
		return nil, &ports.GatewayError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("gateway %s: decode response: %w", op, decodeErr)
	}
	if !strings.EqualFold(env.Status, "success") {
		return nil, &ports.GatewayError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("gateway %s: decode data: %w", op, err)
		}
	}
	return &env, nil
}
