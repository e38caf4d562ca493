package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProcessorPayment is the processor's view of a payment.
type ProcessorPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method,omitempty"`
	Captured bool   `json:"captured"`
}

// Processor fetches payments from the external payment processor.
type Processor interface {
	FetchPayment(ctx context.Context, paymentID string) (*ProcessorPayment, error)
}

// ProcessorConfig holds the processor credentials and endpoint.
type ProcessorConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// ProcessorClient talks to a Razorpay compatible payments API.
type ProcessorClient struct {
	config     ProcessorConfig
	httpClient *http.Client
}

func NewProcessorClient(cfg ProcessorConfig) *ProcessorClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ProcessorClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchPayment retrieves a payment by id. Transport failures, timeouts and
// 5xx answers are reported as ErrProcessorUnavailable.
func (pc *ProcessorClient) FetchPayment(ctx context.Context, paymentID string) (*ProcessorPayment, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", pc.config.BaseURL, url.PathEscape(paymentID))

	ctx, cancel := context.WithTimeout(ctx, pc.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.SetBasicAuth(pc.config.KeyID, pc.config.KeySecret)
	req.Header.Set("Accept", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessorUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: error reading response: %v", ErrProcessorUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: payment %s unknown to processor", ErrPaymentNotCompleted, paymentID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: processor returned %d", ErrProcessorUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: processor returned %d: %s", ErrProcessorUnavailable, resp.StatusCode, truncate(body, 200))
	}

	var payment ProcessorPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("%w: error decoding payment: %v", ErrProcessorUnavailable, err)
	}
	if payment.ID == "" {
		return nil, fmt.Errorf("%w: response is missing the payment id", ErrProcessorUnavailable)
	}
	return &payment, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
