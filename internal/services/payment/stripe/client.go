// Package stripe is a minimal client for the Stripe Checkout Sessions API.
// Only the two calls the ticketing flow needs are implemented.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

type Client struct {
	// baseURL is the Stripe API host, overridable for tests.
	baseURL string

	// secretKey authenticates every request.
	secretKey string

	// hc is the http client.
	hc *http.Client
}

func New(secretKey string) *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		secretKey: secretKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL points the client at a different API host. Used by tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// SessionRequest describes one hosted checkout session: Quantity units of a
// single line item at UnitAmount minor units each.
type SessionRequest struct {
	ProductName string
	UnitAmount  int64 // minor units (agorot)
	Quantity    int
	Currency    string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// Session is Stripe's view of a checkout session.
type Session struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// CreateSession opens a checkout session in payment mode.
func (c *Client) CreateSession(ctx context.Context, r *SessionRequest) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", r.Currency)
	form.Set("line_items[0][price_data][product_data][name]", r.ProductName)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(r.UnitAmount, 10))
	form.Set("line_items[0][quantity]", strconv.Itoa(r.Quantity))
	form.Set("success_url", r.SuccessURL)
	form.Set("cancel_url", r.CancelURL)
	for k, v := range r.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var session Session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("createSession: %w", err)
	}
	return &session, nil
}

// RetrieveSession loads a checkout session by id.
func (c *Client) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &session); err != nil {
		return nil, fmt.Errorf("retrieveSession: %w", err)
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var reply struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		dec := json.NewDecoder(resp.Body)
		if err := dec.Decode(&reply); err != nil || reply.Error.Message == "" {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return errors.New(reply.Error.Message)
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}
	return nil
}
