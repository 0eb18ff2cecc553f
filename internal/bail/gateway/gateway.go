package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"casefile/internal/platform/config"
)

// PaymentMeta identifies what a gateway charge is for.
type PaymentMeta struct {
	BailID    string `json:"bail_id"`
	CaseID    string `json:"case_id"`
	SuspectID string `json:"suspect_id"`
}

// VerifyResult is the gateway's answer on a settlement check.
type VerifyResult struct {
	Settled bool   `json:"settled"`
	RefID   string `json:"ref_id"`
}

// PaymentGateway is the port to the external payment provider. Errors from
// either call mean the provider could not answer, not that the payment is
// bad; callers map them to the bad-gateway class.
type PaymentGateway interface {
	RequestPayment(ctx context.Context, amount int64, meta PaymentMeta) (authority string, refID string, err error)
	Verify(ctx context.Context, authority string, amount int64) (VerifyResult, error)
}

// HTTPClient talks JSON to the provider with a bounded timeout.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(cfg config.GatewayConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type requestPaymentRequest struct {
	Amount int64       `json:"amount"`
	Meta   PaymentMeta `json:"meta"`
}

type requestPaymentResponse struct {
	Authority string `json:"authority"`
	RefID     string `json:"ref_id"`
}

func (c *HTTPClient) RequestPayment(ctx context.Context, amount int64, meta PaymentMeta) (string, string, error) {
	var resp requestPaymentResponse
	if err := c.post(ctx, "/v1/payments", requestPaymentRequest{Amount: amount, Meta: meta}, &resp); err != nil {
		return "", "", err
	}
	if resp.Authority == "" {
		return "", "", fmt.Errorf("gateway returned no authority")
	}
	return resp.Authority, resp.RefID, nil
}

type verifyRequest struct {
	Authority string `json:"authority"`
	Amount    int64  `json:"amount"`
}

func (c *HTTPClient) Verify(ctx context.Context, authority string, amount int64) (VerifyResult, error) {
	var resp VerifyResult
	if err := c.post(ctx, "/v1/payments/verify", verifyRequest{Authority: authority, Amount: amount}, &resp); err != nil {
		return VerifyResult{}, err
	}
	return resp, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode gateway request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	// Responses are capped; the provider is not trusted to be well behaved.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
