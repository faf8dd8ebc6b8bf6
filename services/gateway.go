package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway is the hosted payment gateway as seen by this service.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receiptRef string) (*GatewayOrder, error)
	FetchPaymentMethod(ctx context.Context, gatewayPaymentID string) (*PaymentMethod, error)
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type PaymentMethod struct {
	Method          string
	PayerIdentifier string
}

// RazorpayGateway talks to a Razorpay-compatible orders/payments API.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewRazorpayGateway(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayGateway {
	return &RazorpayGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: timeout},
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receiptRef string) (*GatewayOrder, error) {
	body := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receiptRef,
	}

	var order GatewayOrder
	if err := g.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("gateway returned an order without id")
	}
	return &order, nil
}

type razorpayPayment struct {
	ID      string `json:"id"`
	Method  string `json:"method"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
	VPA     string `json:"vpa"`
	Status  string `json:"status"`
}

func (g *RazorpayGateway) FetchPaymentMethod(ctx context.Context, gatewayPaymentID string) (*PaymentMethod, error) {
	var p razorpayPayment
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(gatewayPaymentID), nil, &p); err != nil {
		return nil, err
	}

	pm := &PaymentMethod{Method: p.Method}
	switch {
	case p.VPA != "":
		pm.PayerIdentifier = p.VPA
	case p.Email != "":
		pm.PayerIdentifier = p.Email
	default:
		pm.PayerIdentifier = p.Contact
	}
	return pm, nil
}

func (g *RazorpayGateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, res.StatusCode, truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
